package pipeline

import "github.com/mutt-telemetry/mutt/pkg/models"

// Validator checks messages for the fields the rest of the pipeline
// depends on before any enrichment or routing happens.
type Validator struct{}

// NewValidator returns a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate reports whether msg is well formed. Any problems are appended
// to metadata["validation_errors"]; the key is always present afterwards,
// as an empty list on valid messages, so downstream consumers never have
// to test for it.
func (v *Validator) Validate(msg *models.Message) bool {
	if msg.Metadata == nil {
		msg.Metadata = make(map[string]any)
	}

	existing, _ := msg.Metadata["validation_errors"].([]string)
	if existing == nil {
		existing = []string{}
	}

	var errs []string
	if msg.SourceIP == "" {
		errs = append(errs, "Missing required field: source_ip")
	}
	if msg.Payload == "" {
		errs = append(errs, "Payload cannot be empty")
	}

	msg.Metadata["validation_errors"] = append(existing, errs...)
	return len(errs) == 0
}
