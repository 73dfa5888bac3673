package flv

import (
	"github.com/pkg/errors"

	"oggpcm/pkg/av"
)

const (
	TagAudio  uint8 = 0x08
	TagScript uint8 = 0x12

	tagHeaderSize = 11

	SoundFormatPCM   uint8 = 0 // platform endian
	SoundFormatPCMLE uint8 = 3
)

var ErrUnsupportedStream = errors.New("flv: stream not representable")

type flvTag struct {
	TagType   uint8  // tag类型 （1 byte）
	DataSize  uint32 // 数据长度 (3 bytes)
	Timestamp uint32 // 时间戳 （4 bytes: 3 + extended）
	StreamID  uint32 // 流ID (3 bytes), always 0
}

func (t *flvTag) encode(b []byte) {
	b[0] = t.TagType
	putUint24(b[1:4], t.DataSize)
	putUint24(b[4:7], t.Timestamp&0xffffff)
	b[7] = byte(t.Timestamp >> 24)
	putUint24(b[8:11], t.StreamID)
}

func (t *flvTag) decode(b []byte) {
	t.TagType = b[0]
	t.DataSize = uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	t.Timestamp = uint32(b[7])<<24 | uint32(b[4])<<16 | uint32(b[5])<<8 | uint32(b[6])
	t.StreamID = uint32(b[8])<<16 | uint32(b[9])<<8 | uint32(b[10])
}

type mediaTag struct {
	SoundFormat uint8 // 音频编码格式 如：3（PCM LE）
	SoundRate   uint8 // 音频采样率 (0: 5.5kHZ  1: 11kHZ  2:22kHZ  3:44kHZ)
	SoundSize   uint8 // 采样大小 0: 8-bit 1: 16-bit
	SoundType   uint8 // 声道类型 mono(单声道)  stereo(立体声)
}

type Tag struct {
	flvTag
	mediaTag
}

func (t *Tag) SoundFormat() uint8 {
	return t.mediaTag.SoundFormat
}

func (t *Tag) SoundRate() uint8 {
	return t.mediaTag.SoundRate
}

func (t *Tag) SoundSize() uint8 {
	return t.mediaTag.SoundSize
}

func (t *Tag) SoundChannels() uint8 {
	return t.mediaTag.SoundType + 1
}

var soundRates = [4]uint32{5512, 11025, 22050, 44100}

// NewAudioTag maps a PCM stream onto an FLV audio tag header. FLV only
// carries little-endian 8 and 16 bit PCM at its four fixed rates.
func NewAudioTag(st *av.Stream) (*Tag, error) {
	t := &Tag{}
	t.flvTag.TagType = TagAudio
	t.mediaTag.SoundFormat = SoundFormatPCMLE

	switch st.CodecID {
	case av.CodecPCMU8:
		t.mediaTag.SoundSize = 0
	case av.CodecPCMS16LE:
		t.mediaTag.SoundSize = 1
	default:
		return nil, errors.Wrapf(ErrUnsupportedStream, "codec %s", st.CodecID)
	}

	rate := -1
	for i, r := range soundRates {
		if r == st.SampleRate {
			rate = i
		}
	}
	if rate < 0 {
		return nil, errors.Wrapf(ErrUnsupportedStream, "sample rate %d", st.SampleRate)
	}
	t.mediaTag.SoundRate = uint8(rate)

	switch st.Channels {
	case 1, 2:
		t.mediaTag.SoundType = st.Channels - 1
	default:
		return nil, errors.Wrapf(ErrUnsupportedStream, "%d channels", st.Channels)
	}

	return t, nil
}

func (t *Tag) encodeAudioHeader() byte {
	return t.mediaTag.SoundFormat<<4 | t.mediaTag.SoundRate<<2 | t.mediaTag.SoundSize<<1 | t.mediaTag.SoundType
}

func (t *Tag) DecodeMediaTagHeader(b []byte) (n int, err error) {
	return t.decodeAudioHeader(b)
}

func (t *Tag) decodeAudioHeader(b []byte) (n int, err error) {
	if len(b) < 1 {
		err = errors.Errorf("invalid audio data len=%d", len(b))
		return
	}

	flags := b[0]
	t.mediaTag.SoundFormat = flags >> 4
	t.mediaTag.SoundRate = (flags >> 2) & 0x3
	t.mediaTag.SoundSize = (flags >> 1) & 0x1
	t.mediaTag.SoundType = flags & 0x1

	n = 1
	return
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}
