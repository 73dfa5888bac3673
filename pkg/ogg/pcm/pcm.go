package pcm

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"oggpcm/pkg/av"
	"oggpcm/pkg/ogg"
	"oggpcm/pkg/ogg/vorbiscomment"
)

const (
	// Magic starts the format header packet of every OggPCM stream.
	Magic = "PCM     "
	// HeaderSize is the minimum size of the format header packet.
	HeaderSize = 28

	codecName = "OggPCM"
)

var (
	ErrInvalidHeader      = errors.New("oggpcm: invalid header packet")
	ErrUnsupportedVersion = errors.New("oggpcm: unsupported version")
	ErrUnsupportedFormat  = errors.New("oggpcm: unsupported format")
)

// IDHeader is the decoded format header packet. All fields are big-endian
// on the wire.
type IDHeader struct {
	Major           uint16
	Minor           uint16
	Format          uint32
	SampleRate      uint32
	SignificantBits uint8
	Channels        uint8
	ExtraHeaders    uint32 // extension header packets after the comment packet
}

// ParseIDHeader decodes the fixed fields of a format header packet. It only
// checks the length; version and format are validated by the Parser.
func ParseIDHeader(b []byte) (*IDHeader, error) {
	if len(b) < HeaderSize {
		return nil, errors.Wrapf(ErrInvalidHeader, "%d bytes, need %d", len(b), HeaderSize)
	}

	return &IDHeader{
		Major:           binary.BigEndian.Uint16(b[8:10]),
		Minor:           binary.BigEndian.Uint16(b[10:12]),
		Format:          binary.BigEndian.Uint32(b[12:16]),
		SampleRate:      binary.BigEndian.Uint32(b[16:20]),
		SignificantBits: b[20],
		Channels:        b[21],
		ExtraHeaders:    binary.BigEndian.Uint32(b[24:28]),
	}, nil
}

// Encode serializes h as a format header packet.
func (h IDHeader) Encode() []byte {
	b := make([]byte, HeaderSize)
	copy(b, Magic)
	binary.BigEndian.PutUint16(b[8:10], h.Major)
	binary.BigEndian.PutUint16(b[10:12], h.Minor)
	binary.BigEndian.PutUint32(b[12:16], h.Format)
	binary.BigEndian.PutUint32(b[16:20], h.SampleRate)
	b[20] = h.SignificantBits
	b[21] = h.Channels
	binary.BigEndian.PutUint32(b[24:28], h.ExtraHeaders)
	return b
}

type state uint8

const (
	stateAwaitingFormat state = iota
	stateAwaitingComment
	stateAwaitingExtensionHeaders
	stateDone
)

func (s state) String() string {
	switch s {
	case stateAwaitingFormat:
		return "awaiting format"
	case stateAwaitingComment:
		return "awaiting comment"
	case stateAwaitingExtensionHeaders:
		return "awaiting extension headers"
	default:
		return "done"
	}
}

// CommentParser receives the comment header packet of a stream.
type CommentParser interface {
	ParseComment(st *av.Stream, payload []byte)
}

type CommentParserFunc func(st *av.Stream, payload []byte)

func (f CommentParserFunc) ParseComment(st *av.Stream, payload []byte) {
	f(st, payload)
}

// Parser holds the header state of one OggPCM logical stream. The zero
// value is not usable; create it with NewParser.
type Parser struct {
	state   state
	pending uint32 // extension headers still to skip
	header  *IDHeader
	format  Format

	comments CommentParser
	logger   *zap.Logger
}

func NewParser(opts ...parserOption) *Parser {
	return (&Parser{}).loadOptions(opts...)
}

func (p *Parser) loadOptions(opts ...parserOption) *Parser {
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	if p.comments == nil {
		p.comments = CommentParserFunc(p.parseVorbisComment)
	}

	return p
}

// Header classifies one header packet of the stream. It reports true when
// the packet was consumed as a header and false when the packet is the
// first one carrying samples. Once false has been reported every later
// call reports false.
func (p *Parser) Header(st *av.Stream, pkt *av.Packet) (bool, error) {
	switch p.state {
	case stateAwaitingFormat:
		if !pkt.IsBOS() {
			return false, errors.Wrap(ErrInvalidHeader, "first header packet is not at beginning of stream")
		}
		if err := p.parseFormat(st, pkt.Data); err != nil {
			return false, err
		}
		p.state = stateAwaitingComment
		return true, nil

	case stateAwaitingComment:
		if pkt.IsBOS() {
			return false, errors.Wrap(ErrInvalidHeader, "repeated format header")
		}
		p.comments.ParseComment(st, pkt.Data)
		p.state = stateAwaitingExtensionHeaders
		if p.pending == 0 {
			p.state = stateDone
		}
		return true, nil

	case stateAwaitingExtensionHeaders:
		if pkt.IsBOS() {
			return false, errors.Wrap(ErrInvalidHeader, "repeated format header")
		}
		// channel mapping and conversion headers are not interpreted
		p.pending--
		if p.pending == 0 {
			p.state = stateDone
		}
		return true, nil

	default:
		return false, nil
	}
}

func (p *Parser) parseFormat(st *av.Stream, b []byte) error {
	h, err := ParseIDHeader(b)
	if err != nil {
		return err
	}

	if h.Major != 0 {
		return errors.Wrapf(ErrUnsupportedVersion, "version %d.%d", h.Major, h.Minor)
	}

	f, ok := FindFormat(h.Format)
	if !ok {
		return errors.Wrapf(ErrUnsupportedFormat, "format id 0x%X", h.Format)
	}

	st.MediaType = av.MediaTypeAudio
	st.CodecID = f.Codec
	st.SampleRate = h.SampleRate
	st.Channels = h.Channels
	if !st.SetPTSInfo(64, 1, int64(h.SampleRate)) {
		p.logger.Warn("invalid sample rate, timestamps unusable", zap.Uint32("serial", st.Serial))
	}

	p.header = h
	p.format = f
	p.pending = h.ExtraHeaders

	return nil
}

func (p *Parser) parseVorbisComment(st *av.Stream, payload []byte) {
	if err := vorbiscomment.Parse(payload, st.Metadata); err != nil {
		p.logger.Warn("parse comment header", zap.Uint32("serial", st.Serial), zap.Error(err))
	}
}

// IDHeader returns the decoded format header, nil before it was parsed.
func (p *Parser) IDHeader() *IDHeader {
	return p.header
}

// Format returns the sample format once the format header was parsed.
func (p *Parser) Format() (Format, bool) {
	return p.format, p.header != nil
}

// Done reports whether all header packets have been consumed.
func (p *Parser) Done() bool {
	return p.state == stateDone
}

type parserOption func(*Parser)

func WithCommentParser(c CommentParser) parserOption {
	return func(p *Parser) {
		p.comments = c
	}
}

func WithLogger(l *zap.Logger) parserOption {
	return func(p *Parser) {
		p.logger = l
	}
}

// NewCodec returns the OggPCM handler for an ogg.Registry. Each logical
// stream gets its own Parser built with opts.
func NewCodec(opts ...parserOption) *ogg.Codec {
	return &ogg.Codec{
		Name:    codecName,
		Magic:   []byte(Magic),
		Headers: 2,
		NewParser: func() ogg.HeaderParser {
			return NewParser(opts...)
		},
	}
}
