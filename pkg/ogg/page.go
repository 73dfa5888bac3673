package ogg

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Page header flags.
const (
	FlagContinued = 0x01 // first packet continues from the previous page
	FlagBOS       = 0x02 // first page of a logical stream
	FlagEOS       = 0x04 // last page of a logical stream
)

const (
	// HeaderSize is the fixed part of a page header, before the segment table.
	HeaderSize = 27
	// MaxSegments is the largest segment table a page can carry.
	MaxSegments = 255
	// MaxPageSize is the largest possible serialized page.
	MaxPageSize = HeaderSize + MaxSegments + MaxSegments*255

	capturePattern = "OggS"
)

// Page is one Ogg page.
type Page struct {
	Version    byte
	HeaderType byte
	// GranulePos is codec defined; for PCM it counts samples per channel
	// up to the last packet completed on this page. -1 means none.
	GranulePos int64
	Serial     uint32
	Sequence   uint32
	Checksum   uint32

	Segments []byte // lacing values
	Payload  []byte
}

func (p *Page) IsContinued() bool { return p.HeaderType&FlagContinued != 0 }
func (p *Page) IsBOS() bool       { return p.HeaderType&FlagBOS != 0 }
func (p *Page) IsEOS() bool       { return p.HeaderType&FlagEOS != 0 }

// Size returns the serialized size of the page.
func (p *Page) Size() int {
	return HeaderSize + len(p.Segments) + len(p.Payload)
}

// Encode serializes the page and fills in its checksum.
func (p *Page) Encode() []byte {
	data := make([]byte, p.Size())

	copy(data[0:4], capturePattern)
	data[4] = p.Version
	data[5] = p.HeaderType
	binary.LittleEndian.PutUint64(data[6:14], uint64(p.GranulePos))
	binary.LittleEndian.PutUint32(data[14:18], p.Serial)
	binary.LittleEndian.PutUint32(data[18:22], p.Sequence)
	data[26] = byte(len(p.Segments))
	copy(data[HeaderSize:], p.Segments)
	copy(data[HeaderSize+len(p.Segments):], p.Payload)

	p.Checksum = pageCRC(data)
	binary.LittleEndian.PutUint32(data[22:26], p.Checksum)

	return data
}

// ParsePage decodes the page at the start of data and verifies its checksum.
// It returns the page and the number of bytes it occupied.
func ParsePage(data []byte) (*Page, int, error) {
	return parsePage(data, true)
}

func parsePage(data []byte, verify bool) (*Page, int, error) {
	if len(data) < HeaderSize {
		return nil, 0, errors.Wrapf(ErrInvalidPage, "header needs %d bytes, have %d", HeaderSize, len(data))
	}
	if string(data[0:4]) != capturePattern {
		return nil, 0, errors.Wrapf(ErrInvalidPage, "capture pattern %q", data[0:4])
	}
	if data[4] != 0 {
		return nil, 0, errors.Wrapf(ErrInvalidPage, "unsupported stream structure version %d", data[4])
	}

	p := &Page{
		Version:    data[4],
		HeaderType: data[5],
		GranulePos: int64(binary.LittleEndian.Uint64(data[6:14])),
		Serial:     binary.LittleEndian.Uint32(data[14:18]),
		Sequence:   binary.LittleEndian.Uint32(data[18:22]),
		Checksum:   binary.LittleEndian.Uint32(data[22:26]),
	}

	nsegs := int(data[26])
	if len(data) < HeaderSize+nsegs {
		return nil, 0, errors.Wrap(ErrInvalidPage, "truncated segment table")
	}
	p.Segments = append([]byte(nil), data[HeaderSize:HeaderSize+nsegs]...)

	size := HeaderSize + nsegs
	for _, l := range p.Segments {
		size += int(l)
	}
	if len(data) < size {
		return nil, 0, errors.Wrap(ErrInvalidPage, "truncated payload")
	}
	p.Payload = append([]byte(nil), data[HeaderSize+nsegs:size]...)

	if verify {
		if crc := pageCRC(data[:size]); crc != p.Checksum {
			return nil, size, errors.Wrapf(ErrBadCRC, "serial 0x%08x seq %d: stored 0x%08x, computed 0x%08x",
				p.Serial, p.Sequence, p.Checksum, crc)
		}
	}

	return p, size, nil
}

// BuildSegmentTable returns the lacing values for a packet of n bytes. A
// packet whose size is a multiple of 255 ends with a zero lacing value.
func BuildSegmentTable(n int) []byte {
	segs := make([]byte, n/255+1)
	for i := 0; i < len(segs)-1; i++ {
		segs[i] = 255
	}
	segs[len(segs)-1] = byte(n % 255)
	return segs
}
