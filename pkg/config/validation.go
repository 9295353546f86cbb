package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for invalid values. It runs struct tag
// validation first, then the cross-field checks tags cannot express.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s violates %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}

	switch cfg.Storage.Database.Type {
	case "sqlite":
		if cfg.Storage.DBPath == "" {
			return fmt.Errorf("storage.db_path is required for the sqlite backend")
		}
	case "postgres":
		pg := cfg.Storage.Database.Postgres
		if pg.Host == "" {
			return fmt.Errorf("storage.database.postgres.host is required")
		}
		if pg.Database == "" {
			return fmt.Errorf("storage.database.postgres.database is required")
		}
		if pg.User == "" {
			return fmt.Errorf("storage.database.postgres.user is required")
		}
	}

	if cfg.ArchiveSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ArchiveSchedule); err != nil {
			return fmt.Errorf("invalid archive_schedule %q: %w", cfg.ArchiveSchedule, err)
		}
	}

	if cfg.Archive.S3.Enabled() && cfg.Archive.S3.Region == "" && cfg.Archive.S3.Endpoint == "" {
		return fmt.Errorf("archive.s3 requires a region or a custom endpoint")
	}

	return nil
}
