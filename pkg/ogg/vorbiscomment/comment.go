// Package vorbiscomment decodes the Vorbis comment structure several Ogg
// mappings use for their metadata header packet.
package vorbiscomment

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"oggpcm/pkg/av"
)

// VendorKey is the metadata key the vendor string is stored under.
const VendorKey = "ENCODER"

var ErrTruncated = errors.New("vorbiscomment: truncated")

// Parse decodes a comment block into m. Keys are upper-cased; entries
// without a '=' or with an empty key or value are skipped. When the block is
// truncated the comments decoded so far are kept and ErrTruncated is returned.
func Parse(b []byte, m av.Metadata) error {
	vendor, rest, err := readString(b)
	if err != nil {
		return errors.Wrap(err, "vendor string")
	}
	if len(vendor) > 0 {
		m.Set(VendorKey, string(vendor))
	}

	if len(rest) < 4 {
		return errors.Wrap(ErrTruncated, "comment count")
	}
	n := binary.LittleEndian.Uint32(rest)
	rest = rest[4:]

	for i := uint32(0); i < n; i++ {
		var c []byte
		if c, rest, err = readString(rest); err != nil {
			return errors.Wrapf(err, "comment %d of %d", i, n)
		}

		eq := bytes.IndexByte(c, '=')
		if eq <= 0 || eq == len(c)-1 {
			continue
		}
		m.Set(string(c[:eq]), string(c[eq+1:]))
	}

	return nil
}

func readString(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, ErrTruncated
	}
	n := binary.LittleEndian.Uint32(b)
	b = b[4:]
	if uint64(n) > uint64(len(b)) {
		return nil, nil, errors.Wrapf(ErrTruncated, "length %d, %d bytes left", n, len(b))
	}

	return b[:n], b[n:], nil
}

// Encode builds a comment block from a vendor string and KEY=value entries.
func Encode(vendor string, comments ...string) []byte {
	size := 8 + len(vendor)
	for _, c := range comments {
		size += 4 + len(c)
	}

	b := make([]byte, 0, size)
	b = appendString(b, vendor)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(comments)))
	for _, c := range comments {
		b = appendString(b, c)
	}
	return b
}

func appendString(b []byte, s string) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}
