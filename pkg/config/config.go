package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mutt-telemetry/mutt/internal/logger"
)

// DefaultConfigPath is where the daemon looks for its configuration when no
// --config flag is given.
const DefaultConfigPath = "config/mutt.yaml"

// Config is the full daemon configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (MUTT_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Storage configures the relational store, the staging buffer and the
	// archive directory.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Listeners configures the syslog and SNMP trap listeners.
	Listeners ListenersConfig `mapstructure:"listeners" yaml:"listeners"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// RulesFile is the path to the alert rules YAML file. Empty means no
	// rules: every message takes the default store path.
	RulesFile string `mapstructure:"rules_file" yaml:"rules_file,omitempty"`

	// RetentionDays is the age in days after which stored messages are
	// moved into archive files.
	RetentionDays int `mapstructure:"retention_days" validate:"omitempty,gte=1" yaml:"retention_days"`

	// BatchWriteInterval is the pause between buffer flushes, in seconds.
	BatchWriteInterval int `mapstructure:"batch_write_interval" validate:"omitempty,gte=1" yaml:"batch_write_interval"`

	// QueueSize bounds the in-memory message queue shared by the listeners.
	QueueSize int `mapstructure:"queue_size" validate:"omitempty,gte=1" yaml:"queue_size"`

	// ArchiveSchedule is a cron expression for the retention job.
	// Supports standard 5-field expressions and @every intervals.
	ArchiveSchedule string `mapstructure:"archive_schedule" yaml:"archive_schedule"`

	// Router configures action routing behavior.
	Router RouterConfig `mapstructure:"router" yaml:"router"`

	// Archive configures optional offload of archive files.
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`

	// DNS configures reverse lookups performed by the enricher.
	DNS DNSConfig `mapstructure:"dns" yaml:"dns"`

	// Telemetry configures the ops HTTP server, tracing and profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// StorageConfig configures persistence paths and the database backend.
type StorageConfig struct {
	// DBPath is the SQLite database file path. Required for the sqlite
	// backend.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// BufferDir holds the active staging buffer file.
	BufferDir string `mapstructure:"buffer_dir" yaml:"buffer_dir"`

	// ArchiveDir receives dated archive files from the retention job.
	ArchiveDir string `mapstructure:"archive_dir" yaml:"archive_dir"`

	// FlushThreshold is the number of buffered lines that forces an early
	// flush to the store.
	FlushThreshold int `mapstructure:"flush_threshold" validate:"omitempty,gte=1" yaml:"flush_threshold"`

	// Database selects and configures the database backend.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
}

// DatabaseConfig selects the database backend.
type DatabaseConfig struct {
	// Type is the backend: sqlite (single node, default) or postgres.
	Type string `mapstructure:"type" validate:"omitempty,oneof=sqlite postgres" yaml:"type"`

	// Postgres holds connection settings for the postgres backend.
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres,omitempty"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host         string `mapstructure:"host" yaml:"host,omitempty"`
	Port         int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port,omitempty"`
	Database     string `mapstructure:"database" yaml:"database,omitempty"`
	User         string `mapstructure:"user" yaml:"user,omitempty"`
	Password     string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode      string `mapstructure:"ssl_mode" yaml:"ssl_mode,omitempty"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns,omitempty"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns,omitempty"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// ListenersConfig groups the two datagram listeners.
type ListenersConfig struct {
	Syslog SyslogListenerConfig `mapstructure:"syslog" yaml:"syslog"`
	SNMP   SNMPListenerConfig   `mapstructure:"snmp" yaml:"snmp"`
}

// SyslogListenerConfig configures the RFC 3164 UDP listener.
type SyslogListenerConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// SNMPListenerConfig configures the SNMP trap listener.
type SNMPListenerConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// Communities lists the accepted v1/v2c community strings.
	Communities []string `mapstructure:"communities" yaml:"communities"`

	// CredentialsFile points to the SNMPv3 credentials YAML. Optional; a
	// missing file starts the listener without v3 users.
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// File routes log output to the named file. Empty logs to stderr.
	File string `mapstructure:"file" yaml:"file,omitempty"`

	// Debug lowers the log level from INFO to DEBUG.
	Debug bool `mapstructure:"debug" yaml:"debug"`

	// Format selects the log encoding: text or json.
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json" yaml:"format"`
}

// RouterConfig configures message routing.
type RouterConfig struct {
	// DiscardEnabled registers the DISCARD action handler. When false
	// (default) DISCARD matches are no-ops and every message is persisted.
	DiscardEnabled bool `mapstructure:"discard_enabled" yaml:"discard_enabled"`
}

// ArchiveConfig configures archive offload targets.
type ArchiveConfig struct {
	S3 S3Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// S3Config configures optional upload of archive files to an S3-compatible
// bucket. Offload is active when Bucket is set; local files always remain
// authoritative.
type S3Config struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Region          string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	KeyPrefix       string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
	ForcePathStyle  bool   `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
}

// Enabled reports whether archive offload is configured.
func (c *S3Config) Enabled() bool {
	return c.Bucket != ""
}

// DNSConfig configures the enricher's reverse DNS lookups.
type DNSConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheSize int           `mapstructure:"cache_size" validate:"omitempty,gte=1" yaml:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// TelemetryConfig groups operational surfaces: the ops HTTP server,
// OpenTelemetry tracing and Pyroscope profiling. All are opt-in.
type TelemetryConfig struct {
	Ops       OpsConfig       `mapstructure:"ops" yaml:"ops"`
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// OpsConfig configures the health and metrics HTTP server.
type OpsConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types,omitempty"`
}

// BatchInterval returns the batch write interval as a duration.
func (c *Config) BatchInterval() time.Duration {
	return time.Duration(c.BatchWriteInterval) * time.Second
}

// LoggerConfig maps the logging section onto the logger package.
func (c *Config) LoggerConfig() logger.Config {
	level := logger.LevelInfo
	if c.Logging.Debug {
		level = logger.LevelDebug
	}
	return logger.Config{
		Level:  level.String(),
		Format: c.Logging.Format,
		File:   c.Logging.File,
	}
}

// Load loads configuration from file, environment, and defaults.
//
// Passing an empty configPath uses the default location; a missing file
// there is acceptable and yields the default configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages when the file is
// missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please initialize a configuration file first:\n"+
			"  mutt-daemon init --config %s\n\n"+
			"Or point at an existing one:\n"+
			"  mutt-daemon --config /path/to/mutt.yaml",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration to path in YAML form.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600 because the file may carry postgres or S3 credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures environment variable support and the config file
// location. Example override: MUTT_LISTENERS_SYSLOG_PORT=1514.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("MUTT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true need viper-level defaults so an absent
	// key is distinguishable from an explicit false.
	v.SetDefault("listeners.syslog.enabled", true)
	v.SetDefault("listeners.snmp.enabled", true)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(DefaultConfigPath)
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns the decode hooks for custom config types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook converts strings like "30s", "5m", "1h" to
// time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}
