package ogg

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPage(seq uint32, payload []byte) []byte {
	return (&Page{
		Serial:   42,
		Sequence: seq,
		Segments: BuildSegmentTable(len(payload)),
		Payload:  payload,
	}).Encode()
}

func TestPageReaderResync(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("junkOg")
	buf.Write(testPage(0, []byte("first")))
	buf.WriteString("xx")
	buf.Write(testPage(1, []byte("second")))
	buf.WriteString("Og")

	pr := NewPageReader(&buf)

	p, err := pr.ReadPage()
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), p.Payload)
	assert.Equal(t, int64(6), pr.Skipped())

	p, err = pr.ReadPage()
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), p.Payload)
	assert.Equal(t, int64(2), pr.Skipped())

	_, err = pr.ReadPage()
	assert.Equal(t, io.EOF, err)
}

func TestPageReaderTruncated(t *testing.T) {
	data := testPage(0, []byte("payload"))

	_, err := NewPageReader(bytes.NewReader(data[:len(data)-2])).ReadPage()
	require.ErrorIs(t, err, ErrUnexpectedEOS)
}

func TestPageReaderBadCRC(t *testing.T) {
	bad := testPage(0, []byte("broken"))
	bad[len(bad)-1] ^= 0x01
	data := append(bad, testPage(1, []byte("fine"))...)

	pr := NewPageReader(bytes.NewReader(data))
	_, err := pr.ReadPage()
	require.ErrorIs(t, err, ErrBadCRC)

	p, err := pr.ReadPage()
	require.NoError(t, err)
	assert.Equal(t, []byte("fine"), p.Payload)
	assert.Equal(t, int64(len(data)), pr.Offset())

	pr = NewPageReader(bytes.NewReader(bad), WithVerifyCRC(false))
	p, err = pr.ReadPage()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), p.Sequence)
}

func TestPageReaderFalseCapturePattern(t *testing.T) {
	// a fake header claiming 510 payload bytes that cover the real page
	fake := make([]byte, HeaderSize+2)
	copy(fake, capturePattern)
	fake[26] = 2
	fake[HeaderSize] = 255
	fake[HeaderSize+1] = 255

	good := testPage(0, []byte("real page"))

	var buf bytes.Buffer
	buf.Write(fake)
	buf.Write(good)
	buf.Write(make([]byte, 600))

	pr := NewPageReader(&buf)

	_, err := pr.ReadPage()
	require.ErrorIs(t, err, ErrBadCRC)
	assert.Equal(t, int64(len(capturePattern)), pr.Offset())

	p, err := pr.ReadPage()
	require.NoError(t, err)
	assert.Equal(t, []byte("real page"), p.Payload)
	assert.Equal(t, int64(len(fake)-len(capturePattern)), pr.Skipped())
	assert.Equal(t, int64(len(fake)+len(good)), pr.Offset())

	_, err = pr.ReadPage()
	assert.Equal(t, io.EOF, err)
}

func TestPageReaderInvalidVersionResyncs(t *testing.T) {
	bad := testPage(0, []byte("v1"))
	bad[4] = 1

	data := append(bad, testPage(1, []byte("v0"))...)
	pr := NewPageReader(bytes.NewReader(data), WithVerifyCRC(false))

	_, err := pr.ReadPage()
	require.ErrorIs(t, err, ErrInvalidPage)

	p, err := pr.ReadPage()
	require.NoError(t, err)
	assert.Equal(t, []byte("v0"), p.Payload)
}
