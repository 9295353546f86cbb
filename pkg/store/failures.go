package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mutt-telemetry/mutt/pkg/models"
)

// RecordAuthFailure increments the persistent SNMPv3 authentication failure
// counter for a username. The first failure creates the row with
// num_failures = 1; later failures bump the counter and refresh the
// reporting host and timestamp.
func (s *Store) RecordAuthFailure(ctx context.Context, username, hostname string) error {
	row := models.AuthFailure{
		ID:          uuid.New().String(),
		Username:    username,
		Hostname:    hostname,
		NumFailures: 1,
		LastFailure: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "username"}},
		DoUpdates: clause.Assignments(map[string]any{
			"num_failures": gorm.Expr("snmpv3_auth_failures.num_failures + 1"),
			"hostname":     gorm.Expr("excluded.hostname"),
			"last_failure": gorm.Expr("excluded.last_failure"),
		}),
	}).Create(&row).Error
	if err != nil {
		s.recordError("record_auth_failure")
		return err
	}
	return nil
}

// ListAuthFailures returns all tracked failures, worst offenders first.
func (s *Store) ListAuthFailures(ctx context.Context) ([]models.AuthFailure, error) {
	var failures []models.AuthFailure
	err := s.db.WithContext(ctx).
		Order("num_failures DESC, last_failure DESC").
		Find(&failures).Error
	if err != nil {
		s.recordError("list_auth_failures")
		return nil, err
	}
	return failures, nil
}

// ClearAuthFailures removes the failure record for a username, typically
// after a credential rotation resolved the mismatch. It returns the number
// of rows removed; clearing an unknown username is not an error.
func (s *Store) ClearAuthFailures(ctx context.Context, username string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("username = ?", username).
		Delete(&models.AuthFailure{})
	if result.Error != nil {
		s.recordError("clear_auth_failures")
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
