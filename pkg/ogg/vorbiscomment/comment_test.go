package vorbiscomment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oggpcm/pkg/av"
)

func TestParse(t *testing.T) {
	m := make(av.Metadata)
	b := Encode("libFLAC 1.3", "title=Organ", "ARTIST=Bach", "artist=Someone", "novalue=", "=nokey", "garbage")

	require.NoError(t, Parse(b, m))

	vendor, ok := m.Get(VendorKey)
	require.True(t, ok)
	assert.Equal(t, "libFLAC 1.3", vendor)

	title, ok := m.Get("TITLE")
	require.True(t, ok)
	assert.Equal(t, "Organ", title)

	artist, _ := m.Get("artist")
	assert.Equal(t, "Bach;Someone", artist)

	assert.Equal(t, []string{"ARTIST", VendorKey, "TITLE"}, m.Keys())
}

func TestParseValueWithEquals(t *testing.T) {
	m := make(av.Metadata)
	require.NoError(t, Parse(Encode("", "comment=a=b"), m))

	v, ok := m.Get("COMMENT")
	require.True(t, ok)
	assert.Equal(t, "a=b", v)

	_, ok = m.Get(VendorKey)
	assert.False(t, ok, "empty vendor is not stored")
}

func TestParseTruncated(t *testing.T) {
	full := Encode("vendor", "A=1", "B=2")

	tests := []struct {
		name string
		data []byte
		keys []string
	}{
		{name: "empty", data: nil, keys: []string{}},
		{name: "short vendor", data: full[:6], keys: []string{}},
		{name: "no count", data: full[:10], keys: []string{VendorKey}},
		{name: "second comment cut", data: full[:len(full)-1], keys: []string{"A", VendorKey}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := make(av.Metadata)
			err := Parse(tt.data, m)
			require.ErrorIs(t, err, ErrTruncated)
			assert.Equal(t, tt.keys, m.Keys())
		})
	}
}

func TestParseHugeLength(t *testing.T) {
	b := []byte{0xff, 0xff, 0xff, 0xff, 'x'}
	require.ErrorIs(t, Parse(b, make(av.Metadata)), ErrTruncated)
}
