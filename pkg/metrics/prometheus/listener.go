package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mutt-telemetry/mutt/pkg/listener"
	"github.com/mutt-telemetry/mutt/pkg/metrics"
)

// listenerMetrics is the Prometheus implementation of listener.Metrics.
type listenerMetrics struct {
	receivedTotal *prometheus.CounterVec
	droppedTotal  *prometheus.CounterVec
}

// NewListenerMetrics creates a Prometheus-backed listener.Metrics shared
// by the syslog and SNMP listeners.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewListenerMetrics() listener.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &listenerMetrics{
		receivedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutt_listener_received_total",
				Help: "Total number of datagrams received by listener",
			},
			[]string{"listener"},
		),
		droppedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutt_listener_dropped_total",
				Help: "Total number of datagrams dropped before reaching the queue, by listener and reason",
			},
			[]string{"listener", "reason"},
		),
	}
}

func (m *listenerMetrics) RecordReceived(name string) {
	if m == nil {
		return
	}
	m.receivedTotal.WithLabelValues(name).Inc()
}

func (m *listenerMetrics) RecordDropped(name, reason string) {
	if m == nil {
		return
	}
	m.droppedTotal.WithLabelValues(name, reason).Inc()
}
