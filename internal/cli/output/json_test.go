package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	SourceIP string `json:"source_ip" yaml:"source_ip"`
	Severity string `json:"severity" yaml:"severity"`
}

func TestPrintJSON(t *testing.T) {
	data := testRow{SourceIP: "10.0.0.1", Severity: "warning"}

	var buf bytes.Buffer
	err := PrintJSON(&buf, data)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"source_ip": "10.0.0.1"`)
	assert.Contains(t, out, `"severity": "warning"`)
}

func TestPrintJSONArray(t *testing.T) {
	data := []testRow{
		{SourceIP: "10.0.0.1", Severity: "info"},
		{SourceIP: "10.0.0.2", Severity: "critical"},
	}

	var buf bytes.Buffer
	err := PrintJSON(&buf, data)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"10.0.0.1"`)
	assert.Contains(t, out, `"10.0.0.2"`)
}
