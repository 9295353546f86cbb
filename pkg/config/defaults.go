package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyStorageDefaults(&cfg.Storage)
	applyListenerDefaults(&cfg.Listeners)
	applyLoggingDefaults(&cfg.Logging)
	applyPipelineDefaults(cfg)
	applyDNSDefaults(&cfg.DNS)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.BufferDir == "" {
		cfg.BufferDir = "buffer"
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = "archives"
	}
	if cfg.FlushThreshold == 0 {
		cfg.FlushThreshold = 100
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	cfg.Database.Type = strings.ToLower(cfg.Database.Type)

	if cfg.Database.Type == "postgres" {
		pg := &cfg.Database.Postgres
		if pg.Port == 0 {
			pg.Port = 5432
		}
		if pg.SSLMode == "" {
			pg.SSLMode = "disable"
		}
		if pg.MaxOpenConns == 0 {
			pg.MaxOpenConns = 25
		}
		if pg.MaxIdleConns == 0 {
			pg.MaxIdleConns = 5
		}
	}
}

func applyListenerDefaults(cfg *ListenersConfig) {
	if cfg.Syslog.Host == "" {
		cfg.Syslog.Host = "0.0.0.0"
	}
	if cfg.Syslog.Port == 0 {
		cfg.Syslog.Port = 5514
	}
	if cfg.SNMP.Host == "" {
		cfg.SNMP.Host = "0.0.0.0"
	}
	if cfg.SNMP.Port == 0 {
		cfg.SNMP.Port = 5162
	}
	if len(cfg.SNMP.Communities) == 0 {
		cfg.SNMP.Communities = []string{"public"}
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	cfg.Format = strings.ToLower(cfg.Format)
}

func applyPipelineDefaults(cfg *Config) {
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 30
	}
	if cfg.BatchWriteInterval == 0 {
		cfg.BatchWriteInterval = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 10000
	}
	if cfg.ArchiveSchedule == "" {
		cfg.ArchiveSchedule = "@every 24h"
	}
}

func applyDNSDefaults(cfg *DNSConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 1000
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Ops.ListenAddr == "" {
		cfg.Ops.ListenAddr = "127.0.0.1:9090"
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "localhost:4317"
	}
	if cfg.Tracing.SampleRate == 0 {
		cfg.Tracing.SampleRate = 1.0
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// GetDefaultConfig returns a Config with all default values applied.
// Useful for generating sample configuration files and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Storage: StorageConfig{
			DBPath: "data/mutt.db",
		},
		Listeners: ListenersConfig{
			Syslog: SyslogListenerConfig{Enabled: true},
			SNMP:   SNMPListenerConfig{Enabled: true},
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{Insecure: true},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
