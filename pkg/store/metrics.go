package store

// Metrics receives store-level counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// RecordStored counts a successfully persisted message by type.
	RecordStored(messageType string)

	// RecordError counts a failed store operation.
	RecordError(operation string)
}

func (s *Store) recordStored(messageType string) {
	if s.metrics != nil {
		s.metrics.RecordStored(messageType)
	}
}

func (s *Store) recordError(operation string) {
	if s.metrics != nil {
		s.metrics.RecordError(operation)
	}
}
