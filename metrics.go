package batchz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Trigger labels recorded on emitted batches.
const (
	TriggerCount    = "count"
	TriggerTime     = "time"
	TriggerComplete = "complete"
	TriggerError    = "error"
	TriggerClose    = "close"
)

// Metrics holds Prometheus collectors shared by any number of operators.
// Operators are told apart by the "operator" label, which is the name set
// with WithName. A nil *Metrics records nothing.
type Metrics struct {
	batchesEmitted      *prometheus.CounterVec
	itemsBuffered       *prometheus.CounterVec
	batchSize           *prometheus.HistogramVec
	suppressedEmissions *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		batchesEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batchz_batches_emitted_total",
				Help: "Total number of batches emitted downstream",
			},
			[]string{"operator", "trigger"},
		),
		itemsBuffered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batchz_items_buffered_total",
				Help: "Total number of items accepted into a batch",
			},
			[]string{"operator"},
		),
		batchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "batchz_batch_size",
				Help:    "Number of items per emitted batch",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"operator"},
		),
		suppressedEmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batchz_suppressed_emissions_total",
				Help: "Total number of pending batches discarded because the downstream was cancelled",
			},
			[]string{"operator"},
		),
	}
}

func (m *Metrics) observeItem(operator string) {
	if m == nil {
		return
	}
	m.itemsBuffered.WithLabelValues(operator).Inc()
}

func (m *Metrics) observeBatch(operator, trigger string, size int) {
	if m == nil {
		return
	}
	m.batchesEmitted.WithLabelValues(operator, trigger).Inc()
	m.batchSize.WithLabelValues(operator).Observe(float64(size))
}

func (m *Metrics) observeSuppressed(operator string) {
	if m == nil {
		return
	}
	m.suppressedEmissions.WithLabelValues(operator).Inc()
}
