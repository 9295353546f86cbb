package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mutt-telemetry/mutt/pkg/models"
)

// MessagesOlderThan returns every message with a timestamp strictly before
// cutoff, oldest first. The archiver writes these rows to a JSONL file
// before committing their removal.
func (s *Store) MessagesOlderThan(ctx context.Context, cutoff time.Time) ([]models.StoredMessage, error) {
	var rows []models.StoredMessage
	err := s.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		s.recordError("messages_older_than")
		return nil, err
	}
	return rows, nil
}

// CommitArchive removes the archived rows and records the archive file in a
// single transaction, so the index row and the deletion land together or
// not at all.
func (s *Store) CommitArchive(ctx context.Context, cutoff time.Time, rec *models.ArchiveRecord) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("timestamp < ?", cutoff).Delete(&models.StoredMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Create(rec).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.ErrDuplicateArchive
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.recordError("commit_archive")
		return err
	}
	return nil
}

// ListArchives returns all archive index rows, oldest range first.
func (s *Store) ListArchives(ctx context.Context) ([]models.ArchiveRecord, error) {
	var archives []models.ArchiveRecord
	err := s.db.WithContext(ctx).Order("start_date ASC").Find(&archives).Error
	if err != nil {
		s.recordError("list_archives")
		return nil, err
	}
	return archives, nil
}
