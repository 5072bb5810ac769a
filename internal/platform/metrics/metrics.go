// Package metrics exposes ingest counters on a dedicated Prometheus
// registry so tests can create isolated instances.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Ingest struct {
	registry *prometheus.Registry

	EventsReceived *prometheus.CounterVec
	EventsRejected *prometheus.CounterVec
	PayloadBytes   prometheus.Histogram
}

func NewIngest() *Ingest {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Ingest{
		registry: registry,
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "olgen",
			Subsystem: "ingest",
			Name:      "events_received_total",
			Help:      "Lineage run events accepted, by event type.",
		}, []string{"event_type"}),
		EventsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "olgen",
			Subsystem: "ingest",
			Name:      "events_rejected_total",
			Help:      "Lineage run events rejected, by reason.",
		}, []string{"reason"}),
		PayloadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "olgen",
			Subsystem: "ingest",
			Name:      "event_payload_bytes",
			Help:      "Serialized size of received lineage run events.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		}),
	}
	registry.MustRegister(m.EventsReceived, m.EventsRejected, m.PayloadBytes)
	return m
}

func (m *Ingest) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
