package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfig is the commented configuration written by `mutt-daemon init`.
const sampleConfig = `# mutt telemetry daemon configuration

storage:
  # SQLite database file (parent directories are created on startup).
  db_path: data/mutt.db
  # Directory for the active staging buffer.
  buffer_dir: buffer
  # Directory for dated archive files produced by the retention job.
  archive_dir: archives
  # Buffered lines that force an early flush to the store.
  flush_threshold: 100
  database:
    # sqlite (single node, default) or postgres.
    type: sqlite
    # postgres:
    #   host: localhost
    #   port: 5432
    #   database: mutt
    #   user: mutt
    #   password: ""
    #   ssl_mode: disable

listeners:
  syslog:
    enabled: true
    host: 0.0.0.0
    port: 5514
  snmp:
    enabled: true
    host: 0.0.0.0
    port: 5162
    # Accepted v1/v2c community strings.
    communities:
      - public
    # SNMPv3 credentials file (optional).
    # credentials_file: config/snmpv3_credentials.yaml

logging:
  # Log to a file instead of stderr.
  # file: logs/mutt.log
  debug: false
  format: text

# Alert rules file (optional).
# rules_file: config/rules.yaml

# Days to keep messages in the store before archival.
retention_days: 30

# Seconds between buffer flushes to the store.
batch_write_interval: 2

# Bound of the in-memory message queue.
queue_size: 10000

# Cron schedule for the retention job.
archive_schedule: "@every 24h"

router:
  # Honor DISCARD rule actions (drops matching messages from persistence).
  discard_enabled: false

# Optional S3-compatible offload of archive files.
# archive:
#   s3:
#     bucket: mutt-archives
#     region: us-east-1
#     key_prefix: prod/

dns:
  timeout: 2s
  cache_size: 1000
  cache_ttl: 5m

telemetry:
  ops:
    enabled: false
    listen_addr: 127.0.0.1:9090
  tracing:
    enabled: false
    endpoint: localhost:4317
    insecure: true
    sample_rate: 1.0
  profiling:
    enabled: false
    endpoint: http://localhost:4040
`

// InitConfig writes the sample configuration to the default location.
// Returns the path written.
func InitConfig(force bool) (string, error) {
	if err := InitConfigToPath(DefaultConfigPath, force); err != nil {
		return "", err
	}
	return DefaultConfigPath, nil
}

// InitConfigToPath writes the sample configuration to the given path.
// An existing file is only overwritten when force is set.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
