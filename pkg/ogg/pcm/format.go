package pcm

import "oggpcm/pkg/av"

type SampleKind uint8

const (
	Signed SampleKind = iota
	Unsigned
	Float
)

// Format describes one OggPCM sample encoding.
type Format struct {
	ID        uint32
	Codec     av.CodecID
	Kind      SampleKind
	Bits      int
	BigEndian bool
}

var formats = [...]Format{
	{ID: 0x00, Codec: av.CodecPCMS8, Kind: Signed, Bits: 8},
	{ID: 0x01, Codec: av.CodecPCMU8, Kind: Unsigned, Bits: 8},
	{ID: 0x02, Codec: av.CodecPCMS16LE, Kind: Signed, Bits: 16},
	{ID: 0x03, Codec: av.CodecPCMS16BE, Kind: Signed, Bits: 16, BigEndian: true},
	{ID: 0x04, Codec: av.CodecPCMS24LE, Kind: Signed, Bits: 24},
	{ID: 0x05, Codec: av.CodecPCMS24BE, Kind: Signed, Bits: 24, BigEndian: true},
	{ID: 0x06, Codec: av.CodecPCMS32LE, Kind: Signed, Bits: 32},
	{ID: 0x07, Codec: av.CodecPCMS32BE, Kind: Signed, Bits: 32, BigEndian: true},
	{ID: 0x20, Codec: av.CodecPCMF32LE, Kind: Float, Bits: 32},
	{ID: 0x21, Codec: av.CodecPCMF32BE, Kind: Float, Bits: 32, BigEndian: true},
	{ID: 0x22, Codec: av.CodecPCMF64LE, Kind: Float, Bits: 64},
	{ID: 0x23, Codec: av.CodecPCMF64BE, Kind: Float, Bits: 64, BigEndian: true},
}

// FindFormat looks up an OggPCM format code.
func FindFormat(id uint32) (Format, bool) {
	for _, f := range formats {
		if f.ID == id {
			return f, true
		}
	}
	return Format{}, false
}
