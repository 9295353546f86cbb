package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mutt-telemetry/mutt/pkg/metrics"
	"github.com/mutt-telemetry/mutt/pkg/store"
)

// storeMetrics is the Prometheus implementation of store.Metrics.
type storeMetrics struct {
	storedTotal *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
}

// NewStoreMetrics creates a Prometheus-backed store.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewStoreMetrics() store.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &storeMetrics{
		storedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutt_store_messages_stored_total",
				Help: "Total number of messages persisted to the store by type",
			},
			[]string{"type"},
		),
		errorsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutt_store_errors_total",
				Help: "Total number of failed store operations by operation",
			},
			[]string{"operation"},
		),
	}
}

func (m *storeMetrics) RecordStored(messageType string) {
	if m == nil {
		return
	}
	m.storedTotal.WithLabelValues(messageType).Inc()
}

func (m *storeMetrics) RecordError(operation string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(operation).Inc()
}
