package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutt-telemetry/mutt/pkg/models"
)

func TestValidateAccepts(t *testing.T) {
	v := NewValidator()
	msg := models.NewMessage(models.MessageTypeSyslog, "10.0.0.1", "interface up")

	assert.True(t, v.Validate(msg))

	errs, ok := msg.Metadata["validation_errors"].([]string)
	require.True(t, ok, "validation_errors must always be set")
	assert.Empty(t, errs)
}

func TestValidateMissingSourceIP(t *testing.T) {
	v := NewValidator()
	msg := models.NewMessage(models.MessageTypeSyslog, "", "interface up")

	assert.False(t, v.Validate(msg))
	assert.Equal(t, []string{"Missing required field: source_ip"}, msg.Metadata["validation_errors"])
}

func TestValidateEmptyPayload(t *testing.T) {
	v := NewValidator()
	msg := models.NewMessage(models.MessageTypeSNMPTrap, "10.0.0.1", "")

	assert.False(t, v.Validate(msg))
	assert.Equal(t, []string{"Payload cannot be empty"}, msg.Metadata["validation_errors"])
}

func TestValidateCollectsAllErrors(t *testing.T) {
	v := NewValidator()
	msg := models.NewMessage(models.MessageTypeUnknown, "", "")

	assert.False(t, v.Validate(msg))
	assert.Equal(t, []string{
		"Missing required field: source_ip",
		"Payload cannot be empty",
	}, msg.Metadata["validation_errors"])
}

func TestValidateInitializesNilMetadata(t *testing.T) {
	v := NewValidator()
	msg := &models.Message{SourceIP: "10.0.0.1", Payload: "ok"}

	assert.True(t, v.Validate(msg))
	require.NotNil(t, msg.Metadata)
	assert.Equal(t, []string{}, msg.Metadata["validation_errors"])
}
