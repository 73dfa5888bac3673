package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Packet kinds.
const (
	PacketHeader  = "header"
	PacketData    = "data"
	PacketDropped = "dropped"
)

// Stream outcomes.
const (
	StreamAccepted = "accepted"
	StreamRejected = "rejected"
	StreamIgnored  = "ignored"
)

// Metrics holds the demuxer counters. A nil *Metrics records nothing.
type Metrics struct {
	PagesRead    prometheus.Counter
	BadPages     *prometheus.CounterVec
	ResyncBytes  prometheus.Counter
	Packets      *prometheus.CounterVec
	Streams      *prometheus.CounterVec
	HeaderErrors *prometheus.CounterVec
}

// New creates the demuxer metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PagesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "ogg_pages_read_total",
			Help: "Total number of ogg pages read",
		}),
		BadPages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ogg_bad_pages_total",
			Help: "Total number of ogg pages discarded, by reason",
		}, []string{"reason"}),
		ResyncBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "ogg_resync_bytes_total",
			Help: "Total number of bytes skipped while searching for a capture pattern",
		}),
		Packets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ogg_packets_total",
			Help: "Total number of ogg packets, by codec and kind",
		}, []string{"codec", "kind"}),
		Streams: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ogg_streams_total",
			Help: "Total number of logical streams, by codec and outcome",
		}, []string{"codec", "outcome"}),
		HeaderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ogg_header_errors_total",
			Help: "Total number of header packets rejected, by codec",
		}, []string{"codec"}),
	}
}

func (m *Metrics) PageRead(skipped int64) {
	if m == nil {
		return
	}
	m.PagesRead.Inc()
	if skipped > 0 {
		m.ResyncBytes.Add(float64(skipped))
	}
}

func (m *Metrics) BadPage(reason string) {
	if m == nil {
		return
	}
	m.BadPages.WithLabelValues(reason).Inc()
}

func (m *Metrics) Packet(codec, kind string) {
	if m == nil {
		return
	}
	m.Packets.WithLabelValues(codec, kind).Inc()
}

func (m *Metrics) Stream(codec, outcome string) {
	if m == nil {
		return
	}
	m.Streams.WithLabelValues(codec, outcome).Inc()
	if outcome == StreamRejected {
		m.HeaderErrors.WithLabelValues(codec).Inc()
	}
}
