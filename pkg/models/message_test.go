package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	m := NewMessage(MessageTypeUnknown, "10.0.0.1", "hello")

	_, err := uuid.Parse(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", m.SourceIP)
	assert.Equal(t, MessageTypeUnknown, m.Type)
	assert.Equal(t, SeverityInfo, m.Severity)
	assert.Equal(t, "hello", m.Payload)
	assert.NotNil(t, m.Metadata)
	assert.WithinDuration(t, time.Now().UTC(), m.Timestamp, 5*time.Second)
	assert.Equal(t, time.UTC, m.Timestamp.Location())
}

func TestNewSyslogMessage(t *testing.T) {
	m := NewSyslogMessage("192.168.1.5", "link down", 34, "edge-rtr-01", "kernel")

	assert.Equal(t, MessageTypeSyslog, m.Type)
	assert.Equal(t, SeverityCritical, m.Severity)
	require.NotNil(t, m.Syslog)
	assert.Equal(t, 4, m.Syslog.Facility)
	assert.Equal(t, 34, m.Syslog.Priority)
	assert.Equal(t, "edge-rtr-01", m.Syslog.Hostname)
	assert.Equal(t, "kernel", m.Syslog.ProcessName)
	assert.Nil(t, m.Trap)
}

func TestNewTrapMessage(t *testing.T) {
	varbinds := map[string]string{"1.3.6.1.2.1.1.3.0": "12345"}
	m := NewTrapMessage("10.1.2.3", "SNMP Trap from 10.1.2.3", "1.3.6.1.6.3.1.1.5.3", varbinds, "v2c")

	assert.Equal(t, MessageTypeSNMPTrap, m.Type)
	assert.Equal(t, SeverityInfo, m.Severity)
	require.NotNil(t, m.Trap)
	assert.Equal(t, "1.3.6.1.6.3.1.1.5.3", m.Trap.OID)
	assert.Equal(t, "v2c", m.Trap.Version)
	assert.Equal(t, "12345", m.Trap.Varbinds["1.3.6.1.2.1.1.3.0"])
	assert.Nil(t, m.Syslog)
}

func TestNewTrapMessageNilVarbinds(t *testing.T) {
	m := NewTrapMessage("10.1.2.3", "SNMP Trap from 10.1.2.3", "", nil, "v1")
	require.NotNil(t, m.Trap)
	assert.NotNil(t, m.Trap.Varbinds)
	assert.Empty(t, m.Trap.Varbinds)
}

func TestMergedMetadataSyslog(t *testing.T) {
	m := NewSyslogMessage("192.168.1.5", "auth failure", 38, "parsed-host", "sshd")
	m.Metadata["hostname"] = "resolved-by-dns"
	m.Metadata["validation_errors"] = []string{}

	merged := m.MergedMetadata()

	// Variant fields overwrite enrichment keys of the same name.
	assert.Equal(t, "parsed-host", merged["hostname"])
	assert.Equal(t, 4, merged["facility"])
	assert.Equal(t, 38, merged["priority"])
	assert.Equal(t, "sshd", merged["process_name"])
	assert.Contains(t, merged, "process_id")
	assert.Contains(t, merged, "validation_errors")

	// The live message metadata is not mutated.
	assert.NotContains(t, m.Metadata, "facility")
}

func TestMergedMetadataTrap(t *testing.T) {
	m := NewTrapMessage("10.1.2.3", "SNMP Trap from 10.1.2.3", "1.3.6.1.4.1.9.0.1", map[string]string{"a": "b"}, "v1")
	m.Metadata["hostname"] = "resolved-by-dns"

	merged := m.MergedMetadata()

	assert.Equal(t, "resolved-by-dns", merged["hostname"])
	assert.Equal(t, "1.3.6.1.4.1.9.0.1", merged["oid"])
	assert.Equal(t, "v1", merged["version"])
	assert.Equal(t, map[string]string{"a": "b"}, merged["varbinds"])
}

func TestMergedMetadataGeneric(t *testing.T) {
	m := NewMessage(MessageTypeUnknown, "10.0.0.1", "hello")
	m.Metadata["key"] = "value"

	merged := m.MergedMetadata()
	assert.Equal(t, "value", merged["key"])
	assert.NotContains(t, merged, "facility")
	assert.NotContains(t, merged, "oid")
}

func TestParseMessageType(t *testing.T) {
	assert.Equal(t, MessageTypeSyslog, ParseMessageType("SYSLOG"))
	assert.Equal(t, MessageTypeSNMPTrap, ParseMessageType("SNMP_TRAP"))
	assert.Equal(t, MessageTypeUnknown, ParseMessageType("UNKNOWN"))
	assert.Equal(t, MessageTypeUnknown, ParseMessageType("garbage"))
}
