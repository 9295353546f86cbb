package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, Validate(GetDefaultConfig()))
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			want:   "oneof",
		},
		{
			name:   "syslog port out of range",
			mutate: func(c *Config) { c.Listeners.Syslog.Port = 70000 },
			want:   "max",
		},
		{
			name:   "negative retention",
			mutate: func(c *Config) { c.RetentionDays = -1 },
			want:   "gte",
		},
		{
			name:   "unknown database type",
			mutate: func(c *Config) { c.Storage.Database.Type = "oracle" },
			want:   "oneof",
		},
		{
			name: "sqlite without db path",
			mutate: func(c *Config) {
				c.Storage.DBPath = ""
			},
			want: "storage.db_path",
		},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Storage.Database.Type = "postgres"
			},
			want: "postgres.host",
		},
		{
			name:   "bad archive schedule",
			mutate: func(c *Config) { c.ArchiveSchedule = "every day at noon" },
			want:   "archive_schedule",
		},
		{
			name:   "sample rate above one",
			mutate: func(c *Config) { c.Telemetry.Tracing.SampleRate = 1.5 },
			want:   "lte",
		},
		{
			name: "s3 without region or endpoint",
			mutate: func(c *Config) {
				c.Archive.S3.Bucket = "archives"
			},
			want: "region or a custom endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateArchiveScheduleVariants(t *testing.T) {
	for _, expr := range []string{"@every 24h", "@every 30m", "0 3 * * *", "@daily"} {
		cfg := GetDefaultConfig()
		cfg.ArchiveSchedule = expr
		assert.NoError(t, Validate(cfg), expr)
	}
}
