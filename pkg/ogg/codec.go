package ogg

import (
	"bytes"

	"github.com/pkg/errors"

	"oggpcm/pkg/av"
)

// HeaderParser consumes the header packets of one logical stream.
//
// Header is called once per packet, in arrival order, until it reports
// false; that packet and every later one are stream data. A non-nil error
// rejects the logical stream.
type HeaderParser interface {
	Header(st *av.Stream, pkt *av.Packet) (bool, error)
}

// Codec is a handler for one Ogg mapping, selected by the magic bytes at the
// start of a stream's first packet.
type Codec struct {
	Name  string
	Magic []byte
	// Headers is the minimum number of header packets the mapping declares.
	Headers int
	// NewParser creates the per-stream header state for a new logical stream.
	NewParser func() HeaderParser
}

// Registry matches first packets against a list of codecs.
type Registry struct {
	codecs []*Codec
}

func NewRegistry(codecs ...*Codec) (*Registry, error) {
	r := &Registry{}
	for _, c := range codecs {
		if err := r.Register(c); err != nil {
			return nil, errors.Wrapf(err, "register codec %q", c.Name)
		}
	}

	return r, nil
}

func (r *Registry) Register(c *Codec) error {
	if c == nil || len(c.Magic) == 0 {
		return errCodecMagic
	}
	if c.NewParser == nil {
		return errCodecParser
	}

	for _, old := range r.codecs {
		if bytes.Equal(old.Magic, c.Magic) {
			return errors.Errorf("magic %q already claimed by %q", c.Magic, old.Name)
		}
	}

	r.codecs = append(r.codecs, c)
	return nil
}

// Find returns the codec whose magic prefixes packet, or nil.
func (r *Registry) Find(packet []byte) *Codec {
	for _, c := range r.codecs {
		if bytes.HasPrefix(packet, c.Magic) {
			return c
		}
	}

	return nil
}

var (
	errCodecMagic  = errors.New("codec magic required")
	errCodecParser = errors.New("codec parser constructor required")
)
