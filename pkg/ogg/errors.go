package ogg

import "github.com/pkg/errors"

var (
	// ErrInvalidPage means the page structure is malformed: bad capture
	// pattern, unknown stream structure version or truncated data.
	ErrInvalidPage = errors.New("ogg: invalid page")

	// ErrBadCRC means the stored page checksum does not match its contents.
	ErrBadCRC = errors.New("ogg: crc mismatch")

	// ErrUnexpectedEOS means the input ended in the middle of a page.
	ErrUnexpectedEOS = errors.New("ogg: unexpected end of stream")
)

// StreamError reports that a logical stream was rejected while its header
// packets were parsed. The demuxer keeps running for the other streams.
type StreamError struct {
	Serial uint32
	Codec  string
	Err    error
}

func (e *StreamError) Error() string {
	return errors.Wrapf(e.Err, "%s stream 0x%08x", e.Codec, e.Serial).Error()
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

func (e *StreamError) Cause() error {
	return e.Err
}
