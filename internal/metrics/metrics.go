// Package metrics counts what each run did. A run is a short-lived process,
// so counters are exported to a node_exporter textfile instead of served.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "isyndicate"

// Metrics holds the counters of one process. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	itemsAdded *prometheus.CounterVec
	exhausted  prometheus.Counter
	published  prometheus.Counter
	failures   *prometheus.CounterVec
}

// New registers the counters on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		itemsAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_added_total",
				Help:      "Count of feed items added, by selection policy.",
			},
			[]string{"policy"},
		),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequence_exhausted_total",
			Help:      "Count of sequential runs that found no image left to post.",
		}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "posts_published_total",
			Help:      "Count of feed items published to X.",
		}),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "failures_total",
				Help:      "Count of failed runs, by operation.",
			},
			[]string{"op"},
		),
	}
	m.Registry.MustRegister(m.itemsAdded, m.exhausted, m.published, m.failures)
	return m
}

// RecordItemAdded records one item appended to a feed.
func (m *Metrics) RecordItemAdded(policy string) {
	if m == nil {
		return
	}
	m.itemsAdded.WithLabelValues(policy).Inc()
}

// RecordExhausted records a sequential run past the max id.
func (m *Metrics) RecordExhausted() {
	if m == nil {
		return
	}
	m.exhausted.Inc()
}

// RecordPublished records one post sent to X.
func (m *Metrics) RecordPublished() {
	if m == nil {
		return
	}
	m.published.Inc()
}

// RecordFailure records a run that ended in error.
func (m *Metrics) RecordFailure(op string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op).Inc()
}

// WriteTextfile writes every counter to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
