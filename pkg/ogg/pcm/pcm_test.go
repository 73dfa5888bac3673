package pcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oggpcm/pkg/av"
	"oggpcm/pkg/ogg/vorbiscomment"
)

func TestFindFormat(t *testing.T) {
	tests := []struct {
		id        uint32
		codec     av.CodecID
		kind      SampleKind
		bits      int
		bigEndian bool
	}{
		{0x00, av.CodecPCMS8, Signed, 8, false},
		{0x01, av.CodecPCMU8, Unsigned, 8, false},
		{0x02, av.CodecPCMS16LE, Signed, 16, false},
		{0x03, av.CodecPCMS16BE, Signed, 16, true},
		{0x04, av.CodecPCMS24LE, Signed, 24, false},
		{0x05, av.CodecPCMS24BE, Signed, 24, true},
		{0x06, av.CodecPCMS32LE, Signed, 32, false},
		{0x07, av.CodecPCMS32BE, Signed, 32, true},
		{0x20, av.CodecPCMF32LE, Float, 32, false},
		{0x21, av.CodecPCMF32BE, Float, 32, true},
		{0x22, av.CodecPCMF64LE, Float, 64, false},
		{0x23, av.CodecPCMF64BE, Float, 64, true},
	}

	for _, tt := range tests {
		f, ok := FindFormat(tt.id)
		require.True(t, ok, "format 0x%02X", tt.id)
		assert.Equal(t, tt.id, f.ID)
		assert.Equal(t, tt.codec, f.Codec, "format 0x%02X", tt.id)
		assert.Equal(t, tt.kind, f.Kind, "format 0x%02X", tt.id)
		assert.Equal(t, tt.bits, f.Bits, "format 0x%02X", tt.id)
		assert.Equal(t, tt.bigEndian, f.BigEndian, "format 0x%02X", tt.id)
		assert.Equal(t, tt.bits, f.Codec.BitsPerSample())
	}

	for _, id := range []uint32{0x08, 0x10, 0x1F, 0x24, 0xFF, 0xFFFFFFFF} {
		_, ok := FindFormat(id)
		assert.False(t, ok, "format 0x%X", id)
	}
}

func formatHeader(h IDHeader) *av.Packet {
	return av.NewPacket(av.WithPacketData(h.Encode()), av.WithPacketFlags(av.FlagBOS))
}

func packet(data []byte) *av.Packet {
	return av.NewPacket(av.WithPacketData(data))
}

func TestParserFormatHeader(t *testing.T) {
	st := av.NewStream(0, 1)
	p := NewParser()

	ok, err := p.Header(st, formatHeader(IDHeader{Format: 0x02, SampleRate: 44100, Channels: 2, ExtraHeaders: 1}))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, av.MediaTypeAudio, st.MediaType)
	assert.Equal(t, av.CodecPCMS16LE, st.CodecID)
	assert.Equal(t, uint32(44100), st.SampleRate)
	assert.Equal(t, uint8(2), st.Channels)
	assert.Equal(t, av.Rational{Num: 1, Den: 44100}, st.TimeBase)
	assert.Equal(t, uint8(64), st.PTSBits)

	assert.Equal(t, stateAwaitingComment, p.state)
	assert.Equal(t, uint32(1), p.pending)

	f, ok := p.Format()
	require.True(t, ok)
	assert.Equal(t, uint32(0x02), f.ID)
}

func TestParserIgnoresMinorAndSignificantBits(t *testing.T) {
	st := av.NewStream(0, 1)
	p := NewParser()

	ok, err := p.Header(st, formatHeader(IDHeader{Minor: 7, Format: 0x21, SampleRate: 8000, SignificantBits: 99, Channels: 1}))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, av.CodecPCMF32BE, st.CodecID)
	assert.Equal(t, uint16(7), p.IDHeader().Minor)
	assert.Equal(t, uint8(99), p.IDHeader().SignificantBits)
}

func TestParserZeroSampleRate(t *testing.T) {
	st := av.NewStream(0, 1)

	ok, err := NewParser().Header(st, formatHeader(IDHeader{Format: 0x01, Channels: 1}))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, st.TimeBase.Valid())
}

func TestParserFormatErrors(t *testing.T) {
	valid := IDHeader{Format: 0x02, SampleRate: 44100, Channels: 2}

	short := valid.Encode()[:27]
	future := valid
	future.Major = 1
	unknown := valid
	unknown.Format = 0xFF

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "27 bytes", data: short, want: ErrInvalidHeader},
		{name: "27 zero bytes", data: make([]byte, 27), want: ErrInvalidHeader},
		{name: "empty", data: nil, want: ErrInvalidHeader},
		{name: "major version 1", data: future.Encode(), want: ErrUnsupportedVersion},
		{name: "format 0xFF", data: unknown.Encode(), want: ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := av.NewStream(0, 1)
			p := NewParser()

			ok, err := p.Header(st, av.NewPacket(av.WithPacketData(tt.data), av.WithPacketFlags(av.FlagBOS)))
			require.ErrorIs(t, err, tt.want)
			assert.False(t, ok)
			assert.Equal(t, av.MediaTypeUnknown, st.MediaType)
			assert.Equal(t, stateAwaitingFormat, p.state)
		})
	}
}

func TestParserRequiresBOS(t *testing.T) {
	ok, err := NewParser().Header(av.NewStream(0, 1), packet(IDHeader{Format: 0x02}.Encode()))
	require.ErrorIs(t, err, ErrInvalidHeader)
	assert.False(t, ok)
}

func TestParserRejectsRepeatedFormatHeader(t *testing.T) {
	st := av.NewStream(0, 1)
	p := NewParser()
	hdr := IDHeader{Format: 0x02, SampleRate: 48000, Channels: 2, ExtraHeaders: 2}

	_, err := p.Header(st, formatHeader(hdr))
	require.NoError(t, err)

	_, err = p.Header(st, formatHeader(hdr))
	require.ErrorIs(t, err, ErrInvalidHeader)
	assert.Equal(t, stateAwaitingComment, p.state)

	_, err = p.Header(st, packet(nil))
	require.NoError(t, err)

	_, err = p.Header(st, formatHeader(hdr))
	require.ErrorIs(t, err, ErrInvalidHeader)
	assert.Equal(t, stateAwaitingExtensionHeaders, p.state)
}

func TestParserSequence(t *testing.T) {
	for _, n := range []uint32{0, 1, 3} {
		st := av.NewStream(0, 1)
		var comments [][]byte
		p := NewParser(WithCommentParser(CommentParserFunc(func(_ *av.Stream, payload []byte) {
			comments = append(comments, payload)
		})))

		accepted := 0
		pkts := []*av.Packet{formatHeader(IDHeader{Format: 0x03, SampleRate: 22050, Channels: 1, ExtraHeaders: n})}
		for i := uint32(0); i < n+3; i++ {
			pkts = append(pkts, packet([]byte{byte(i)}))
		}

		var last state
		for i, pkt := range pkts {
			ok, err := p.Header(st, pkt)
			require.NoError(t, err)
			if !ok {
				assert.Equal(t, int(n)+2, i, "n=%d: first data packet index", n)
				break
			}
			assert.True(t, p.state >= last, "n=%d: state moved backwards", n)
			last = p.state
			accepted++
		}

		assert.Equal(t, int(n)+2, accepted, "n=%d", n)
		assert.True(t, p.Done())
		require.Len(t, comments, 1)
		assert.Equal(t, []byte{0}, comments[0])

		for i := 0; i < 3; i++ {
			ok, err := p.Header(st, packet([]byte{0xAA}))
			require.NoError(t, err)
			assert.False(t, ok, "n=%d: terminal state must stay terminal", n)
			assert.Equal(t, stateDone, p.state)
		}
	}
}

func TestParserVorbisComment(t *testing.T) {
	st := av.NewStream(0, 1)
	p := NewParser()

	_, err := p.Header(st, formatHeader(IDHeader{Format: 0x06, SampleRate: 96000, Channels: 6}))
	require.NoError(t, err)

	ok, err := p.Header(st, packet(vorbiscomment.Encode("oggpcm", "TITLE=Test tone")))
	require.NoError(t, err)
	assert.True(t, ok)

	title, found := st.Metadata.Get("title")
	require.True(t, found)
	assert.Equal(t, "Test tone", title)

	ok, err = p.Header(st, packet([]byte{1, 2, 3, 4}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParserBrokenCommentIsNotFatal(t *testing.T) {
	st := av.NewStream(0, 1)
	p := NewParser()

	_, err := p.Header(st, formatHeader(IDHeader{Format: 0x00, SampleRate: 8000, Channels: 1, ExtraHeaders: 1}))
	require.NoError(t, err)

	ok, err := p.Header(st, packet([]byte{0xff, 0xff}))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, stateAwaitingExtensionHeaders, p.state)
}

func TestNewCodec(t *testing.T) {
	c := NewCodec()
	assert.Equal(t, "OggPCM", c.Name)
	assert.Equal(t, []byte("PCM     "), c.Magic)
	assert.Equal(t, 2, c.Headers)

	a, b := c.NewParser(), c.NewParser()
	assert.NotSame(t, a, b, "each stream owns its parser")
}
