package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/internal/telemetry"
	"github.com/mutt-telemetry/mutt/pkg/models"
)

// DefaultMessageLimit bounds GetMessages when the caller does not ask for a
// specific number of rows.
const DefaultMessageLimit = 100

// StoreMessage persists a single telemetry message. Variant-specific fields
// are flattened into the metadata JSON blob. Re-inserting an already stored
// message id is treated as success so that crash recovery replays are
// harmless.
func (s *Store) StoreMessage(ctx context.Context, msg *models.Message) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "message",
		telemetry.MessageID(msg.ID), telemetry.MessageType(string(msg.Type)))
	defer span.End()

	metadata, err := json.Marshal(msg.MergedMetadata())
	if err != nil {
		s.recordError("store_message")
		return fmt.Errorf("failed to encode message metadata: %w", err)
	}

	row := models.StoredMessage{
		ID:        msg.ID,
		Timestamp: msg.Timestamp,
		SourceIP:  msg.SourceIP,
		Type:      string(msg.Type),
		Severity:  msg.Severity.String(),
		Payload:   msg.Payload,
		Metadata:  string(metadata),
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueConstraintError(err) {
			logger.Debug("Message already stored, skipping", "id", msg.ID)
			return nil
		}
		telemetry.RecordError(ctx, err)
		s.recordError("store_message")
		return err
	}

	s.recordStored(string(msg.Type))
	return nil
}

// GetMessages returns the most recent messages, newest first, reconstructed
// as generic messages with variant fields left inside the metadata map. A
// limit of zero or less falls back to DefaultMessageLimit. Rows whose
// metadata blob no longer parses are skipped with a warning.
func (s *Store) GetMessages(ctx context.Context, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	var rows []models.StoredMessage
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		s.recordError("get_messages")
		return nil, err
	}

	messages := make([]*models.Message, 0, len(rows))
	for i := range rows {
		msg, err := rows[i].ToMessage()
		if err != nil {
			logger.Warn("Skipping stored message with malformed metadata",
				"id", rows[i].ID, "error", err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// CountMessages returns the number of stored messages.
func (s *Store) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.StoredMessage{}).Count(&count).Error
	if err != nil {
		s.recordError("count_messages")
		return 0, err
	}
	return count, nil
}

// Execute runs a raw SQL statement against the database.
func (s *Store) Execute(ctx context.Context, query string, args ...any) error {
	return s.db.WithContext(ctx).Exec(query, args...).Error
}

// Query runs a raw SQL query and scans all rows into dest.
func (s *Store) Query(ctx context.Context, dest any, query string, args ...any) error {
	return s.db.WithContext(ctx).Raw(query, args...).Scan(dest).Error
}
