package models

import (
	"encoding/json"
	"time"
)

// StoredMessage is a persisted telemetry message row. Variant-specific
// fields live flattened inside the Metadata JSON blob.
type StoredMessage struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Timestamp time.Time `gorm:"column:timestamp;index:idx_messages_timestamp" json:"timestamp"`
	SourceIP  string    `gorm:"column:source_ip;index:idx_messages_source_ip" json:"source_ip"`
	Type      string    `gorm:"column:type;index:idx_messages_type" json:"type"`
	Severity  string    `gorm:"column:severity;index:idx_messages_severity" json:"severity"`
	Payload   string    `gorm:"column:payload" json:"payload"`
	Metadata  string    `gorm:"column:metadata" json:"metadata"`
}

// TableName implements the gorm.Tabler interface.
func (StoredMessage) TableName() string {
	return "messages"
}

// DecodeMetadata parses the metadata JSON blob. An empty blob decodes to an
// empty map.
func (m *StoredMessage) DecodeMetadata() (map[string]any, error) {
	out := make(map[string]any)
	if m.Metadata == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(m.Metadata), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ToMessage reconstructs the generic pipeline message from a stored row.
// Variant-specific fields stay flattened inside the metadata map; the
// variant pointers are never repopulated.
func (m *StoredMessage) ToMessage() (*Message, error) {
	metadata, err := m.DecodeMetadata()
	if err != nil {
		return nil, err
	}
	severity, _ := ParseSeverity(m.Severity)
	return &Message{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		SourceIP:  m.SourceIP,
		Type:      ParseMessageType(m.Type),
		Severity:  severity,
		Payload:   m.Payload,
		Metadata:  metadata,
	}, nil
}

// Device is a row in the device registry. Hostname and SNMPVersion are
// pointers so partial updates can leave existing values untouched.
type Device struct {
	IP          string    `gorm:"column:ip;primaryKey" json:"ip"`
	Hostname    *string   `gorm:"column:hostname" json:"hostname,omitempty"`
	LastSeen    time.Time `gorm:"column:last_seen;index:idx_devices_last_seen" json:"last_seen"`
	SNMPVersion *string   `gorm:"column:snmp_version" json:"snmp_version,omitempty"`
	Notes       string    `gorm:"column:notes" json:"notes,omitempty"`
}

// TableName implements the gorm.Tabler interface.
func (Device) TableName() string {
	return "devices"
}

// ArchiveRecord indexes one archive file written by the retention job.
type ArchiveRecord struct {
	Filename    string    `gorm:"column:filename;primaryKey" json:"filename"`
	StartDate   time.Time `gorm:"column:start_date;index:idx_archives_dates,priority:1" json:"start_date"`
	EndDate     time.Time `gorm:"column:end_date;index:idx_archives_dates,priority:2" json:"end_date"`
	RecordCount int       `gorm:"column:record_count" json:"record_count"`
}

// TableName implements the gorm.Tabler interface.
func (ArchiveRecord) TableName() string {
	return "archives"
}

// AuthFailure tracks repeated SNMPv3 authentication failures per user.
type AuthFailure struct {
	ID          string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Username    string    `gorm:"column:username;uniqueIndex:idx_snmpv3_failures_username;not null" json:"username"`
	Hostname    string    `gorm:"column:hostname" json:"hostname,omitempty"`
	NumFailures int       `gorm:"column:num_failures;default:1" json:"num_failures"`
	LastFailure time.Time `gorm:"column:last_failure" json:"last_failure"`
}

// TableName implements the gorm.Tabler interface.
func (AuthFailure) TableName() string {
	return "snmpv3_auth_failures"
}
