package ogg

import (
	"io"

	"github.com/pkg/errors"
)

// Writer paginates the packets of one logical stream. Several Writers may
// share an io.Writer to interleave streams page by page.
type Writer struct {
	w      io.Writer
	serial uint32
	seq    uint32

	segs      []byte
	payload   []byte
	granule   int64
	completed bool // a packet ends on the pending page
	continued bool // the pending page starts inside a packet
	closed    bool
}

func NewWriter(w io.Writer, serial uint32) *Writer {
	return &Writer{w: w, serial: serial, granule: -1}
}

// WritePacket appends a packet to the pending page, emitting full pages as
// needed. granule is recorded for the page the packet ends on.
func (w *Writer) WritePacket(p []byte, granule int64) error {
	if w.closed {
		return errWriterClosed
	}

	off := 0
	for _, l := range BuildSegmentTable(len(p)) {
		if len(w.segs) == MaxSegments {
			if err := w.flush(false); err != nil {
				return err
			}
		}
		w.segs = append(w.segs, l)
		w.payload = append(w.payload, p[off:off+int(l)]...)
		off += int(l)
	}

	w.granule = granule
	w.completed = true
	return nil
}

// Flush emits the pending page, if any.
func (w *Writer) Flush() error {
	if len(w.segs) == 0 {
		return nil
	}
	return w.flush(false)
}

// Close emits the last page with the end of stream flag set.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.flush(true)
}

func (w *Writer) flush(eos bool) error {
	page := &Page{
		GranulePos: -1,
		Serial:     w.serial,
		Sequence:   w.seq,
		Segments:   w.segs,
		Payload:    w.payload,
	}
	if w.completed {
		page.GranulePos = w.granule
	}
	if w.seq == 0 {
		page.HeaderType |= FlagBOS
	}
	if w.continued {
		page.HeaderType |= FlagContinued
	}
	if eos {
		page.HeaderType |= FlagEOS
	}

	if _, err := w.w.Write(page.Encode()); err != nil {
		return errors.Wrapf(err, "write page %d of stream 0x%08x", w.seq, w.serial)
	}

	w.continued = len(w.segs) > 0 && w.segs[len(w.segs)-1] == 255
	w.seq++
	w.segs = nil
	w.payload = nil
	w.completed = false
	return nil
}

var errWriterClosed = errors.New("ogg: writer closed")
