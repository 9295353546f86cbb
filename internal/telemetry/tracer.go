package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for telemetry pipeline operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Source attributes (sender of the message)
	// ========================================================================
	AttrSourceIP       = "source.ip"
	AttrSourceHostname = "source.hostname"

	// ========================================================================
	// Message attributes (protocol-agnostic)
	// ========================================================================
	AttrMessageID   = "message.id"
	AttrMessageType = "message.type" // SYSLOG, SNMP_TRAP
	AttrSeverity    = "message.severity"
	AttrListener    = "listener.name"

	// ========================================================================
	// Syslog-specific attributes
	// ========================================================================
	AttrSyslogFacility = "syslog.facility"
	AttrSyslogProgram  = "syslog.program"

	// ========================================================================
	// SNMP-specific attributes
	// ========================================================================
	AttrTrapOID     = "snmp.trap_oid"
	AttrTrapVersion = "snmp.version"
	AttrSNMPUser    = "snmp.user"

	// ========================================================================
	// Rule/action attributes
	// ========================================================================
	AttrRuleID   = "rule.id"
	AttrRuleName = "rule.name"
	AttrAction   = "rule.action"

	// ========================================================================
	// Pipeline/store attributes
	// ========================================================================
	AttrBatchSize     = "batch.size"
	AttrRowCount      = "store.rows"
	AttrDNSOutcome    = "dns.outcome" // hit, miss, error
	AttrRetentionDays = "archive.retention_days"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	// Pipeline spans
	SpanPipelineProcess = "pipeline.process"
	SpanPipelineFlush   = "pipeline.flush"
	SpanEnrichDNS       = "enrich.dns_lookup"
	SpanEnrichDevice    = "enrich.device_lookup"

	// Store spans
	SpanStoreMessage     = "store.message"
	SpanStoreAuthFailure = "store.auth_failure"

	// Archive spans
	SpanArchiveRun = "archive.run"
)

// SourceIP returns an attribute for the sender's IP address
func SourceIP(ip string) attribute.KeyValue {
	return attribute.String(AttrSourceIP, ip)
}

// SourceHostname returns an attribute for the resolved sender hostname
func SourceHostname(name string) attribute.KeyValue {
	return attribute.String(AttrSourceHostname, name)
}

// MessageID returns an attribute for the message UUID
func MessageID(id string) attribute.KeyValue {
	return attribute.String(AttrMessageID, id)
}

// MessageType returns an attribute for the message type
func MessageType(t string) attribute.KeyValue {
	return attribute.String(AttrMessageType, t)
}

// MessageSeverity returns an attribute for the normalized severity
func MessageSeverity(sev string) attribute.KeyValue {
	return attribute.String(AttrSeverity, sev)
}

// Listener returns an attribute for the receiving listener name
func Listener(name string) attribute.KeyValue {
	return attribute.String(AttrListener, name)
}

// SyslogFacility returns an attribute for the syslog facility number
func SyslogFacility(facility int) attribute.KeyValue {
	return attribute.Int(AttrSyslogFacility, facility)
}

// SyslogProgram returns an attribute for the syslog program tag
func SyslogProgram(program string) attribute.KeyValue {
	return attribute.String(AttrSyslogProgram, program)
}

// TrapOID returns an attribute for the trap's identifying OID
func TrapOID(oid string) attribute.KeyValue {
	return attribute.String(AttrTrapOID, oid)
}

// TrapVersion returns an attribute for the SNMP protocol version
func TrapVersion(version string) attribute.KeyValue {
	return attribute.String(AttrTrapVersion, version)
}

// SNMPUser returns an attribute for the SNMPv3 security name
func SNMPUser(user string) attribute.KeyValue {
	return attribute.String(AttrSNMPUser, user)
}

// RuleID returns an attribute for a matched rule ID
func RuleID(id string) attribute.KeyValue {
	return attribute.String(AttrRuleID, id)
}

// RuleName returns an attribute for a matched rule name
func RuleName(name string) attribute.KeyValue {
	return attribute.String(AttrRuleName, name)
}

// Action returns an attribute for a dispatched rule action
func Action(action string) attribute.KeyValue {
	return attribute.String(AttrAction, action)
}

// BatchSize returns an attribute for a flush batch size
func BatchSize(n int) attribute.KeyValue {
	return attribute.Int(AttrBatchSize, n)
}

// RowCount returns an attribute for an affected row count
func RowCount(n int) attribute.KeyValue {
	return attribute.Int(AttrRowCount, n)
}

// DNSOutcome returns an attribute for a reverse lookup outcome
func DNSOutcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrDNSOutcome, outcome)
}

// RetentionDays returns an attribute for the archive retention window
func RetentionDays(days int) attribute.KeyValue {
	return attribute.Int(AttrRetentionDays, days)
}

// StartPipelineSpan starts a span for a pipeline stage, tagging it with
// the message's identity.
func StartPipelineSpan(ctx context.Context, operation, msgID, msgType string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		MessageID(msgID),
		MessageType(msgType),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "pipeline."+operation, trace.WithAttributes(allAttrs...))
}

// StartStoreSpan starts a span for a store operation.
func StartStoreSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "store."+operation, trace.WithAttributes(attrs...))
}

// StartEnrichSpan starts a span for an enrichment step.
func StartEnrichSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "enrich."+operation, trace.WithAttributes(attrs...))
}

// StartArchiveSpan starts a span for an archive pass.
func StartArchiveSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanArchiveRun, trace.WithAttributes(attrs...))
}
