// Package listener defines the instrumentation surface shared by the UDP
// ingest listeners.
package listener

// Listener labels reported to Metrics.
const (
	LabelSyslog = "syslog"
	LabelSNMP   = "snmp"
)

// Drop reasons reported to Metrics.
const (
	DropQueueFull        = "queue_full"
	DropUnknownCommunity = "unknown_community"
	DropParseError       = "parse_error"
)

// Metrics receives ingest counters. Implementations must be safe for
// concurrent use. A nil Metrics disables instrumentation.
type Metrics interface {
	// RecordReceived counts an inbound datagram or trap per listener.
	RecordReceived(listener string)

	// RecordDropped counts a datagram that did not reach the queue,
	// labeled by listener and reason.
	RecordDropped(listener, reason string)
}
