package av

import (
	"fmt"
	"time"
)

// Rational is a Num/Den fraction, used as a timestamp resolution.
type Rational struct {
	Num int64
	Den int64
}

func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Stream describes one demuxed logical stream. Codec header parsers fill
// in the format fields while the stream's header packets are consumed.
type Stream struct {
	Index  int
	Serial uint32
	Codec  string // name of the ogg codec handler that claimed the stream

	MediaType  MediaType
	CodecID    CodecID
	SampleRate uint32
	Channels   uint8

	TimeBase Rational
	PTSBits  uint8 // timestamp wrap width in bits

	Metadata Metadata
}

func NewStream(index int, serial uint32) *Stream {
	return &Stream{
		Index:    index,
		Serial:   serial,
		Metadata: make(Metadata),
	}
}

// SetPTSInfo sets the timestamp resolution to num/den with the given wrap
// width. An invalid resolution is ignored and reported as false.
func (s *Stream) SetPTSInfo(bits uint8, num, den int64) bool {
	tb := Rational{Num: num, Den: den}
	if !tb.Valid() {
		return false
	}

	s.TimeBase = tb
	s.PTSBits = bits
	return true
}

// Duration converts a timestamp in TimeBase units to wall time.
func (s *Stream) Duration(ts int64) time.Duration {
	if !s.TimeBase.Valid() || ts < 0 {
		return 0
	}

	sec := ts / s.TimeBase.Den
	rem := ts % s.TimeBase.Den
	d := time.Duration(sec*s.TimeBase.Num) * time.Second
	return d + time.Duration(rem*s.TimeBase.Num)*time.Second/time.Duration(s.TimeBase.Den)
}
