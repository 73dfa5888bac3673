package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oggpcm/pkg/config"
)

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(config.Log{Level: "loud"})
	assert.Error(t, err)
}

func TestNewStderr(t *testing.T) {
	l, err := New(config.Log{Level: "debug"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))
}

func TestNewRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oggprobe.log")

	l, err := New(config.Log{Path: path, Level: "info"})
	require.NoError(t, err)

	l.Info("stream ready")
	l.Debug("not written")
	require.NoError(t, l.Sync())

	files, err := filepath.Glob(path + "_*")
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"stream ready"`)
	assert.Contains(t, string(data), `"time":`)
	assert.NotContains(t, string(data), "not written")
}
