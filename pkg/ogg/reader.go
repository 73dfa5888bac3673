package ogg

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// PageReader reads pages from a byte stream, skipping garbage between pages.
type PageReader struct {
	r         *bufio.Reader
	verifyCRC bool

	offset  int64 // bytes consumed so far
	skipped int64 // bytes discarded to find the last page
}

func NewPageReader(r io.Reader, opts ...pageReaderOption) *PageReader {
	return (&PageReader{
		r:         bufio.NewReaderSize(r, MaxPageSize),
		verifyCRC: true,
	}).loadOptions(opts...)
}

func (pr *PageReader) loadOptions(opts ...pageReaderOption) *PageReader {
	for _, opt := range opts {
		opt(pr)
	}

	return pr
}

// Offset returns the number of input bytes consumed.
func (pr *PageReader) Offset() int64 {
	return pr.offset
}

// Skipped returns how many bytes were discarded before the last page read.
func (pr *PageReader) Skipped() int64 {
	return pr.skipped
}

// ReadPage returns the next page. It returns io.EOF when the input ends on
// a page boundary and ErrUnexpectedEOS when it ends inside a page. A
// candidate page failing its checksum or structure checks is reported as
// ErrBadCRC or ErrInvalidPage; only its capture pattern is consumed, so a
// real page inside the bytes it claimed is still found by the next call.
func (pr *PageReader) ReadPage() (*Page, error) {
	if err := pr.sync(); err != nil {
		return nil, err
	}

	hdr, err := pr.peek(HeaderSize)
	if err != nil {
		return nil, err
	}

	nsegs := int(hdr[26])
	segs, err := pr.peek(HeaderSize + nsegs)
	if err != nil {
		return nil, err
	}

	size := HeaderSize + nsegs
	for _, l := range segs[HeaderSize:] {
		size += int(l)
	}
	data, err := pr.peek(size)
	if err != nil {
		return nil, err
	}

	page, _, err := parsePage(data, pr.verifyCRC)
	if err != nil {
		offset := pr.offset
		if derr := pr.discard(len(capturePattern)); derr != nil {
			return nil, derr
		}
		return nil, errors.Wrapf(err, "page at offset %d", offset)
	}

	if err := pr.discard(size); err != nil {
		return nil, err
	}

	return page, nil
}

// sync discards bytes until the reader is positioned on a capture pattern.
func (pr *PageReader) sync() error {
	pr.skipped = 0
	for {
		b, err := pr.r.Peek(len(capturePattern))
		if bytes.Equal(b, []byte(capturePattern)) {
			return nil
		}
		if err != nil {
			// trailing bytes too short to hold a capture pattern are garbage
			if err == io.EOF {
				pr.skipped += int64(len(b))
				return io.EOF
			}
			return errors.Wrap(err, "peek capture pattern")
		}

		if err := pr.discard(1); err != nil {
			return err
		}
		pr.skipped++
	}
}

// peek returns the next n bytes without consuming them.
func (pr *PageReader) peek(n int) ([]byte, error) {
	b, err := pr.r.Peek(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, errors.Wrapf(ErrUnexpectedEOS, "need %d bytes, have %d", n, len(b))
	}
	if err != nil {
		return nil, errors.Wrap(err, "peek page")
	}
	return b, nil
}

func (pr *PageReader) discard(n int) error {
	d, err := pr.r.Discard(n)
	pr.offset += int64(d)
	if err != nil {
		return errors.Wrap(err, "discard bytes")
	}
	return nil
}

type pageReaderOption func(*PageReader)

// WithVerifyCRC turns page checksum verification on or off.
func WithVerifyCRC(verify bool) pageReaderOption {
	return func(pr *PageReader) {
		pr.verifyCRC = verify
	}
}
