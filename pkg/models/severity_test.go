package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityString(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityEmergency, "EMERGENCY"},
		{SeverityAlert, "ALERT"},
		{SeverityCritical, "CRITICAL"},
		{SeverityError, "ERROR"},
		{SeverityWarning, "WARNING"},
		{SeverityNotice, "NOTICE"},
		{SeverityInfo, "INFO"},
		{SeverityDebug, "DEBUG"},
		{Severity(42), "INFO"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.severity.String())
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Severity
		ok    bool
	}{
		{"uppercase", "ERROR", SeverityError, true},
		{"lowercase", "warning", SeverityWarning, true},
		{"mixed case", "Critical", SeverityCritical, true},
		{"padded", "  DEBUG  ", SeverityDebug, true},
		{"unknown falls back to info", "VERBOSE", SeverityInfo, false},
		{"empty falls back to info", "", SeverityInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSeverity(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestSeverityFromPriority(t *testing.T) {
	// PRI 34 is facility 4 (auth), severity 2 (critical).
	assert.Equal(t, SeverityCritical, SeverityFromPriority(34))
	// PRI 165 is facility 20 (local4), severity 5 (notice).
	assert.Equal(t, SeverityNotice, SeverityFromPriority(165))
	assert.Equal(t, SeverityEmergency, SeverityFromPriority(0))
	assert.Equal(t, SeverityDebug, SeverityFromPriority(191))
}

func TestSeverityJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(SeverityWarning)
	require.NoError(t, err)
	assert.Equal(t, `"WARNING"`, string(data))

	var s Severity
	require.NoError(t, json.Unmarshal([]byte(`"critical"`), &s))
	assert.Equal(t, SeverityCritical, s)

	require.NoError(t, json.Unmarshal([]byte(`"bogus"`), &s))
	assert.Equal(t, SeverityInfo, s)
}
