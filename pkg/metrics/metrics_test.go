package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PageRead(10)
		m.BadPage("crc")
		m.Packet("OggPCM", PacketData)
		m.Stream("OggPCM", StreamRejected)
	})
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PageRead(0)
	m.PageRead(5)
	m.BadPage("crc")
	m.Stream("OggPCM", StreamAccepted)
	m.Stream("OggPCM", StreamRejected)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.PagesRead))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.ResyncBytes))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BadPages.WithLabelValues("crc")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HeaderErrors.WithLabelValues("OggPCM")))

	n, err := testutil.GatherAndCount(reg, "ogg_streams_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
