// Package metrics registers the Prometheus collectors the extraction
// service exposes on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	DocumentsProcessed *prometheus.CounterVec
	EventsExtracted    *prometheus.CounterVec
	ExtractDuration    prometheus.Summary
	CacheHits          prometheus.Counter
	SchemaViolations   prometheus.Counter
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors with reg. Tests pass a fresh registry
// so repeated constructions do not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DocumentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sof",
			Name:      "documents_processed_total",
			Help:      "Documents processed, by modality and winning extraction tier",
		}, []string{"modality", "tier"}),
		EventsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sof",
			Name:      "events_extracted_total",
			Help:      "Extracted events, by event type",
		}, []string{"event_type"}),
		ExtractDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "sof",
			Name:      "extract_duration_seconds",
			Help:      "Time spent extracting one document",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sof",
			Name:      "cache_hits_total",
			Help:      "Extractions served from the content-hash cache",
		}),
		SchemaViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sof",
			Name:      "schema_violations_total",
			Help:      "Results rejected by schema validation before being served",
		}),
	}

	reg.MustRegister(
		m.DocumentsProcessed, m.EventsExtracted,
		m.ExtractDuration, m.CacheHits, m.SchemaViolations,
	)
	return m
}
