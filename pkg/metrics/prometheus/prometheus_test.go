package prometheus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutt-telemetry/mutt/pkg/metrics"
)

// metricValue gathers the process registry and returns the value of the
// counter or gauge matching name and labels.
func metricValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()

	mfs, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := true
			for k, want := range labels {
				ok := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == k && lp.GetValue() == want {
						ok = true
						break
					}
				}
				if !ok {
					matched = false
					break
				}
			}
			if !matched {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func TestConstructorsNilWhenDisabled(t *testing.T) {
	assert.Nil(t, NewPipelineMetrics())
	assert.Nil(t, NewListenerMetrics())
	assert.Nil(t, NewStoreMetrics())
	assert.Nil(t, NewArchiveMetrics())
}

func TestPipelineMetricsRecord(t *testing.T) {
	metrics.InitRegistry()
	m := NewPipelineMetrics()
	require.NotNil(t, m)

	m.RecordProcessed("SYSLOG")
	m.RecordProcessed("SYSLOG")
	m.RecordProcessed("SNMP_TRAP")
	m.RecordValidationFailure()
	m.RecordRuleMatch("disk-alerts")
	m.RecordActionDispatch("WEBHOOK")
	m.RecordDNSLookup("cache_hit")
	m.RecordQueueDrop()
	m.SetQueueDepth(42)
	m.RecordBatchFlush(17)

	assert.Equal(t, 2.0, metricValue(t, "mutt_pipeline_messages_processed_total", map[string]string{"type": "SYSLOG"}))
	assert.Equal(t, 1.0, metricValue(t, "mutt_pipeline_messages_processed_total", map[string]string{"type": "SNMP_TRAP"}))
	assert.Equal(t, 1.0, metricValue(t, "mutt_pipeline_validation_failures_total", nil))
	assert.Equal(t, 1.0, metricValue(t, "mutt_pipeline_rule_matches_total", map[string]string{"rule": "disk-alerts"}))
	assert.Equal(t, 1.0, metricValue(t, "mutt_pipeline_action_dispatches_total", map[string]string{"action": "WEBHOOK"}))
	assert.Equal(t, 1.0, metricValue(t, "mutt_pipeline_dns_lookups_total", map[string]string{"outcome": "cache_hit"}))
	assert.Equal(t, 1.0, metricValue(t, "mutt_pipeline_queue_dropped_total", nil))
	assert.Equal(t, 42.0, metricValue(t, "mutt_pipeline_queue_depth", nil))
	assert.Equal(t, 1.0, metricValue(t, "mutt_pipeline_batch_flushes_total", nil))
}

func TestListenerMetricsRecord(t *testing.T) {
	metrics.InitRegistry()
	m := NewListenerMetrics()
	require.NotNil(t, m)

	m.RecordReceived("syslog")
	m.RecordReceived("syslog")
	m.RecordReceived("snmp")
	m.RecordDropped("snmp", "unknown_community")

	assert.Equal(t, 2.0, metricValue(t, "mutt_listener_received_total", map[string]string{"listener": "syslog"}))
	assert.Equal(t, 1.0, metricValue(t, "mutt_listener_received_total", map[string]string{"listener": "snmp"}))
	assert.Equal(t, 1.0, metricValue(t, "mutt_listener_dropped_total", map[string]string{"listener": "snmp", "reason": "unknown_community"}))
}

func TestStoreMetricsRecord(t *testing.T) {
	metrics.InitRegistry()
	m := NewStoreMetrics()
	require.NotNil(t, m)

	m.RecordStored("SYSLOG")
	m.RecordError("store_message")

	assert.Equal(t, 1.0, metricValue(t, "mutt_store_messages_stored_total", map[string]string{"type": "SYSLOG"}))
	assert.Equal(t, 1.0, metricValue(t, "mutt_store_errors_total", map[string]string{"operation": "store_message"}))
}

func TestArchiveMetricsRecord(t *testing.T) {
	metrics.InitRegistry()
	m := NewArchiveMetrics()
	require.NotNil(t, m)

	m.RecordRun(true)
	m.RecordRun(false)
	m.RecordArchived(25)
	m.RecordArchived(0)

	assert.Equal(t, 1.0, metricValue(t, "mutt_archive_runs_total", map[string]string{"status": "success"}))
	assert.Equal(t, 1.0, metricValue(t, "mutt_archive_runs_total", map[string]string{"status": "error"}))
	assert.Equal(t, 25.0, metricValue(t, "mutt_archive_messages_archived_total", nil))
}

func TestNilReceiversAreSafe(t *testing.T) {
	var p *pipelineMetrics
	p.RecordProcessed("SYSLOG")
	p.RecordValidationFailure()
	p.RecordRuleMatch("r")
	p.RecordActionDispatch("STORE")
	p.RecordDNSLookup("miss")
	p.RecordQueueDrop()
	p.SetQueueDepth(1)
	p.RecordBatchFlush(1)

	var l *listenerMetrics
	l.RecordReceived("syslog")
	l.RecordDropped("syslog", "queue_full")

	var s *storeMetrics
	s.RecordStored("SYSLOG")
	s.RecordError("store_message")

	var a *archiveMetrics
	a.RecordRun(true)
	a.RecordArchived(1)
}
