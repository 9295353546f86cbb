package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "data/mutt.db", cfg.Storage.DBPath)
	assert.Equal(t, "buffer", cfg.Storage.BufferDir)
	assert.Equal(t, "archives", cfg.Storage.ArchiveDir)
	assert.Equal(t, 100, cfg.Storage.FlushThreshold)
	assert.Equal(t, "sqlite", cfg.Storage.Database.Type)

	assert.True(t, cfg.Listeners.Syslog.Enabled)
	assert.Equal(t, "0.0.0.0", cfg.Listeners.Syslog.Host)
	assert.Equal(t, 5514, cfg.Listeners.Syslog.Port)
	assert.True(t, cfg.Listeners.SNMP.Enabled)
	assert.Equal(t, 5162, cfg.Listeners.SNMP.Port)
	assert.Equal(t, []string{"public"}, cfg.Listeners.SNMP.Communities)

	assert.Equal(t, "text", cfg.Logging.Format)
	assert.False(t, cfg.Logging.Debug)

	assert.Equal(t, 30, cfg.RetentionDays)
	assert.Equal(t, 2, cfg.BatchWriteInterval)
	assert.Equal(t, 10000, cfg.QueueSize)
	assert.Equal(t, "@every 24h", cfg.ArchiveSchedule)
	assert.False(t, cfg.Router.DiscardEnabled)

	assert.Equal(t, 2*time.Second, cfg.DNS.Timeout)
	assert.Equal(t, 1000, cfg.DNS.CacheSize)
	assert.Equal(t, 5*time.Minute, cfg.DNS.CacheTTL)

	assert.False(t, cfg.Telemetry.Ops.Enabled)
	assert.Equal(t, "127.0.0.1:9090", cfg.Telemetry.Ops.ListenAddr)
	assert.Equal(t, 1.0, cfg.Telemetry.Tracing.SampleRate)
	assert.NotEmpty(t, cfg.Telemetry.Profiling.ProfileTypes)

	assert.False(t, cfg.Archive.S3.Enabled())
}

func TestApplyDefaultsPostgres(t *testing.T) {
	cfg := &Config{}
	cfg.Storage.Database.Type = "POSTGRES"
	ApplyDefaults(cfg)

	assert.Equal(t, "postgres", cfg.Storage.Database.Type)
	assert.Equal(t, 5432, cfg.Storage.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Storage.Database.Postgres.SSLMode)
	assert.Equal(t, 25, cfg.Storage.Database.Postgres.MaxOpenConns)
	assert.Equal(t, 5, cfg.Storage.Database.Postgres.MaxIdleConns)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		RetentionDays:      90,
		BatchWriteInterval: 10,
	}
	cfg.Storage.FlushThreshold = 500
	ApplyDefaults(cfg)

	assert.Equal(t, 90, cfg.RetentionDays)
	assert.Equal(t, 10, cfg.BatchWriteInterval)
	assert.Equal(t, 500, cfg.Storage.FlushThreshold)
}
