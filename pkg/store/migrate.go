package store

import (
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/pkg/store/migrations"
)

// initSchema brings the database schema up to date for the configured
// backend.
//
// SQLite runs the embedded DDL directly: every statement is written with
// IF NOT EXISTS so the files can be applied on every startup. PostgreSQL
// goes through golang-migrate, which tracks applied versions in a
// schema_migrations table and takes an advisory lock so concurrent daemons
// do not race each other.
func (s *Store) initSchema() error {
	switch s.config.Type {
	case DatabaseTypeSQLite:
		return s.applySQLiteSchema()
	case DatabaseTypePostgres:
		return runPostgresMigrations(s.config.Postgres.DSN())
	default:
		return fmt.Errorf("unsupported database type: %s", s.config.Type)
	}
}

// applySQLiteSchema executes the embedded sqlite schema files in order on
// the store's own connection.
func (s *Store) applySQLiteSchema() error {
	entries, err := fs.ReadDir(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		ddl, err := fs.ReadFile(migrations.FS, path.Join("sqlite", name))
		if err != nil {
			return fmt.Errorf("failed to read schema file %s: %w", name, err)
		}
		if err := s.db.Exec(string(ddl)).Error; err != nil {
			return fmt.Errorf("failed to apply schema file %s: %w", name, err)
		}
	}

	logger.Debug("SQLite schema applied", "files", len(names))
	return nil
}

// runPostgresMigrations executes database migrations using golang-migrate.
// It opens its own database/sql connection so the migration driver never
// interferes with the GORM connection pool.
func runPostgresMigrations(connString string) error {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrations.FS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	if err == migrate.ErrNoChange {
		logger.Debug("No migrations to apply (database is up to date)")
	} else {
		logger.Info("Database migrations completed")
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err != migrate.ErrNilVersion {
		logger.Debug("Current schema version", "version", version, "dirty", dirty)
		if dirty {
			logger.Warn("Database schema is in dirty state - manual intervention may be required")
		}
	}

	return nil
}
