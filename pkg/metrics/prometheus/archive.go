package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mutt-telemetry/mutt/pkg/archive"
	"github.com/mutt-telemetry/mutt/pkg/metrics"
)

// archiveMetrics is the Prometheus implementation of archive.Metrics.
type archiveMetrics struct {
	runsTotal     *prometheus.CounterVec
	archivedTotal prometheus.Counter
}

// NewArchiveMetrics creates a Prometheus-backed archive.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewArchiveMetrics() archive.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &archiveMetrics{
		runsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutt_archive_runs_total",
				Help: "Total number of archive runs by status",
			},
			[]string{"status"},
		),
		archivedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "mutt_archive_messages_archived_total",
				Help: "Total number of messages moved to archive files",
			},
		),
	}
}

func (m *archiveMetrics) RecordRun(success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.runsTotal.WithLabelValues(status).Inc()
}

func (m *archiveMetrics) RecordArchived(count int) {
	if m == nil {
		return
	}
	if count > 0 {
		m.archivedTotal.Add(float64(count))
	}
}
