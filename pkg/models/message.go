package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType discriminates the wire origin of a telemetry message.
type MessageType string

const (
	MessageTypeSyslog   MessageType = "SYSLOG"
	MessageTypeSNMPTrap MessageType = "SNMP_TRAP"
	MessageTypeUnknown  MessageType = "UNKNOWN"
)

// ParseMessageType maps a stored type string back to a MessageType.
// Unrecognized values return MessageTypeUnknown.
func ParseMessageType(s string) MessageType {
	switch MessageType(s) {
	case MessageTypeSyslog:
		return MessageTypeSyslog
	case MessageTypeSNMPTrap:
		return MessageTypeSNMPTrap
	default:
		return MessageTypeUnknown
	}
}

// SyslogFields carries the fields specific to RFC 3164 messages.
type SyslogFields struct {
	Facility    int    `json:"facility"`
	Priority    int    `json:"priority"`
	Hostname    string `json:"hostname"`
	ProcessName string `json:"process_name"`
	ProcessID   string `json:"process_id"`
}

// TrapFields carries the fields specific to SNMP trap messages.
type TrapFields struct {
	OID      string            `json:"oid"`
	Varbinds map[string]string `json:"varbinds"`
	Version  string            `json:"version"`
}

// Message is a single telemetry message moving through the pipeline.
// At most one of Syslog or Trap is set, according to Type.
type Message struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	SourceIP  string         `json:"source_ip"`
	Type      MessageType    `json:"type"`
	Severity  Severity       `json:"severity"`
	Payload   string         `json:"payload"`
	Metadata  map[string]any `json:"metadata"`

	Syslog *SyslogFields `json:"syslog,omitempty"`
	Trap   *TrapFields   `json:"trap,omitempty"`
}

// NewMessage builds a generic message stamped with a fresh UUID and the
// current UTC time.
func NewMessage(msgType MessageType, sourceIP, payload string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		SourceIP:  sourceIP,
		Type:      msgType,
		Severity:  SeverityInfo,
		Payload:   payload,
		Metadata:  make(map[string]any),
	}
}

// NewSyslogMessage builds a syslog message. Severity is derived from the
// RFC 3164 priority value.
func NewSyslogMessage(sourceIP, payload string, priority int, hostname, processName string) *Message {
	m := NewMessage(MessageTypeSyslog, sourceIP, payload)
	m.Severity = SeverityFromPriority(priority)
	m.Syslog = &SyslogFields{
		Facility:    priority / 8,
		Priority:    priority,
		Hostname:    hostname,
		ProcessName: processName,
	}
	return m
}

// NewTrapMessage builds an SNMP trap message.
func NewTrapMessage(sourceIP, payload, oid string, varbinds map[string]string, version string) *Message {
	m := NewMessage(MessageTypeSNMPTrap, sourceIP, payload)
	if varbinds == nil {
		varbinds = make(map[string]string)
	}
	m.Trap = &TrapFields{
		OID:      oid,
		Varbinds: varbinds,
		Version:  version,
	}
	return m
}

// MergedMetadata returns a copy of the message metadata with the
// variant-specific fields folded in. Stored rows and buffered lines carry
// this flattened form so type-specific detail survives persistence.
func (m *Message) MergedMetadata() map[string]any {
	merged := make(map[string]any, len(m.Metadata)+5)
	for k, v := range m.Metadata {
		merged[k] = v
	}
	switch {
	case m.Syslog != nil:
		merged["facility"] = m.Syslog.Facility
		merged["priority"] = m.Syslog.Priority
		merged["hostname"] = m.Syslog.Hostname
		merged["process_name"] = m.Syslog.ProcessName
		merged["process_id"] = m.Syslog.ProcessID
	case m.Trap != nil:
		merged["oid"] = m.Trap.OID
		merged["varbinds"] = m.Trap.Varbinds
		merged["version"] = m.Trap.Version
	}
	return merged
}
