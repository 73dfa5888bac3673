package flv

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"oggpcm/pkg/av"
)

// Reader reads the audio tags of an FLV file.
type Reader struct {
	r       io.Reader
	demuxer *Demuxer
	hdr     [tagHeaderSize]byte
}

// NewReader checks the FLV file header and the first previous tag size.
func NewReader(r io.Reader) (*Reader, error) {
	head := make([]byte, len(fileHeader)+4)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, errors.Wrap(err, "read file header")
	}
	if !bytes.Equal(head[:3], fileHeader[:3]) {
		return nil, errors.Errorf("invalid flv signature %q", head[:3])
	}

	return &Reader{r: r, demuxer: NewDemuxer()}, nil
}

// ReadPacket returns the next audio tag with its header decoded into
// PacketHeader. Script and video tags are skipped. Data still starts with
// the audio tag header byte.
func (fr *Reader) ReadPacket() (*av.Packet, error) {
	for {
		if _, err := io.ReadFull(fr.r, fr.hdr[:]); err != nil {
			return nil, err
		}

		var t flvTag
		t.decode(fr.hdr[:])

		data := make([]byte, t.DataSize+4)
		if _, err := io.ReadFull(fr.r, data); err != nil {
			return nil, errors.Wrap(err, "read tag data")
		}
		if prev := binary.BigEndian.Uint32(data[t.DataSize:]); prev != tagHeaderSize+t.DataSize {
			return nil, errors.Errorf("previous tag size %d, want %d", prev, tagHeaderSize+t.DataSize)
		}

		if t.TagType != TagAudio {
			continue
		}

		pkt := av.NewPacket(av.WithPacketData(data[:t.DataSize]))
		if err := fr.demuxer.DecodeHeader(pkt); err != nil {
			return nil, err
		}
		return pkt, nil
	}
}
