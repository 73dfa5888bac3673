package flv

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/gwuhaolin/livego/protocol/amf"
	"github.com/pkg/errors"

	"oggpcm/pkg/av"
)

var fileHeader = []byte{'F', 'L', 'V', 0x01, 0x04, 0x00, 0x00, 0x00, 0x09}

// Writer remuxes the data packets of one PCM stream into an audio-only FLV file.
type Writer struct {
	w   io.Writer
	st  *av.Stream
	tag *Tag

	frameSize int   // bytes per sample frame
	samples   int64 // sample frames written

	hdr [tagHeaderSize]byte
}

// NewWriter writes the FLV file header and the onMetaData tag for st.
func NewWriter(w io.Writer, st *av.Stream, duration time.Duration) (*Writer, error) {
	tag, err := NewAudioTag(st)
	if err != nil {
		return nil, err
	}

	fw := &Writer{
		w:         w,
		st:        st,
		tag:       tag,
		frameSize: st.CodecID.BitsPerSample() / 8 * int(st.Channels),
	}

	if _, err := w.Write(fileHeader); err != nil {
		return nil, errors.Wrap(err, "write file header")
	}
	if err := fw.writeUint32(0); err != nil {
		return nil, errors.Wrap(err, "write first previous tag size")
	}

	meta, err := OnMetaData(new(amf.Encoder), st, tag, duration)
	if err != nil {
		return nil, errors.Wrap(err, "build onMetaData")
	}
	if err := fw.writeTag(TagScript, 0, nil, meta); err != nil {
		return nil, errors.Wrap(err, "write onMetaData tag")
	}

	return fw, nil
}

// WritePacket writes one audio tag holding pkt's samples.
func (fw *Writer) WritePacket(pkt *av.Packet) error {
	ts := uint32(fw.samples * 1000 / int64(fw.st.SampleRate))

	if err := fw.writeTag(TagAudio, ts, []byte{fw.tag.encodeAudioHeader()}, pkt.Data); err != nil {
		return errors.Wrap(err, "write audio tag")
	}

	fw.samples += int64(len(pkt.Data) / fw.frameSize)
	return nil
}

func (fw *Writer) writeTag(typ uint8, ts uint32, prefix, data []byte) error {
	size := len(prefix) + len(data)
	t := flvTag{TagType: typ, DataSize: uint32(size), Timestamp: ts}
	t.encode(fw.hdr[:])

	if _, err := fw.w.Write(fw.hdr[:]); err != nil {
		return err
	}
	if _, err := fw.w.Write(prefix); err != nil {
		return err
	}
	if _, err := fw.w.Write(data); err != nil {
		return err
	}
	return fw.writeUint32(uint32(tagHeaderSize + size))
}

func (fw *Writer) writeUint32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := fw.w.Write(b[:])
	return err
}
