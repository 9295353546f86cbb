// Package prometheus provides the Prometheus-backed implementations of
// the metrics interfaces consumed by the listeners, the pipeline, the
// store and the archiver.
//
// Every constructor returns nil when metrics are disabled (InitRegistry
// not called); the consumers accept nil and skip instrumentation.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mutt-telemetry/mutt/pkg/metrics"
	"github.com/mutt-telemetry/mutt/pkg/pipeline"
)

// pipelineMetrics is the Prometheus implementation of pipeline.Metrics.
type pipelineMetrics struct {
	processedTotal     *prometheus.CounterVec
	validationFailures prometheus.Counter
	ruleMatches        *prometheus.CounterVec
	actionDispatches   *prometheus.CounterVec
	dnsLookups         *prometheus.CounterVec
	queueDropped       prometheus.Counter
	queueDepth         prometheus.Gauge
	batchFlushes       prometheus.Counter
	batchSize          prometheus.Histogram
}

// NewPipelineMetrics creates a Prometheus-backed pipeline.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewPipelineMetrics() pipeline.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &pipelineMetrics{
		processedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutt_pipeline_messages_processed_total",
				Help: "Total number of messages that completed the pipeline and reached the buffer",
			},
			[]string{"type"},
		),
		validationFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "mutt_pipeline_validation_failures_total",
				Help: "Total number of messages rejected by validation",
			},
		),
		ruleMatches: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutt_pipeline_rule_matches_total",
				Help: "Total number of alert rule matches by rule ID",
			},
			[]string{"rule"},
		),
		actionDispatches: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutt_pipeline_action_dispatches_total",
				Help: "Total number of action handler invocations by action type",
			},
			[]string{"action"},
		),
		dnsLookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "mutt_pipeline_dns_lookups_total",
				Help: "Total number of reverse DNS lookups by outcome",
			},
			[]string{"outcome"},
		),
		queueDropped: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "mutt_pipeline_queue_dropped_total",
				Help: "Total number of messages dropped because the queue was full",
			},
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "mutt_pipeline_queue_depth",
				Help: "Current number of messages waiting in the processing queue",
			},
		),
		batchFlushes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "mutt_pipeline_batch_flushes_total",
				Help: "Total number of batch writes from the buffer to the store",
			},
		),
		batchSize: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mutt_pipeline_batch_size",
				Help:    "Distribution of messages persisted per batch write",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
			},
		),
	}
}

func (m *pipelineMetrics) RecordProcessed(messageType string) {
	if m == nil {
		return
	}
	m.processedTotal.WithLabelValues(messageType).Inc()
}

func (m *pipelineMetrics) RecordValidationFailure() {
	if m == nil {
		return
	}
	m.validationFailures.Inc()
}

func (m *pipelineMetrics) RecordRuleMatch(ruleID string) {
	if m == nil {
		return
	}
	m.ruleMatches.WithLabelValues(ruleID).Inc()
}

func (m *pipelineMetrics) RecordActionDispatch(action string) {
	if m == nil {
		return
	}
	m.actionDispatches.WithLabelValues(action).Inc()
}

func (m *pipelineMetrics) RecordDNSLookup(outcome string) {
	if m == nil {
		return
	}
	m.dnsLookups.WithLabelValues(outcome).Inc()
}

func (m *pipelineMetrics) RecordQueueDrop() {
	if m == nil {
		return
	}
	m.queueDropped.Inc()
}

func (m *pipelineMetrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func (m *pipelineMetrics) RecordBatchFlush(count int) {
	if m == nil {
		return
	}
	m.batchFlushes.Inc()
	if count > 0 {
		m.batchSize.Observe(float64(count))
	}
}
