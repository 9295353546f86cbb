package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/mutt-telemetry/mutt/internal/cli/output"
	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/pkg/config"
	"github.com/mutt-telemetry/mutt/pkg/daemon"
	"github.com/mutt-telemetry/mutt/pkg/store"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openStore loads the effective configuration and opens the relational
// store with the same backend mapping the daemon uses. The caller owns the
// returned store and must Close it.
func openStore() (*store.Store, *config.Config, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, nil, err
	}
	st, err := store.New(daemon.StoreConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, cfg, nil
}

// checkConfigMissing fails when path already holds a configuration file.
func checkConfigMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	return nil
}

// PrintOutput renders data in the requested format. Table format uses the
// renderer and prints emptyMsg instead of a headerless empty table.
func PrintOutput(w io.Writer, formatStr string, data any, isEmpty bool, emptyMsg string, renderer output.TableRenderer) error {
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, renderer)
	}
}

// EmptyOr returns the value if not empty, otherwise the fallback. Useful
// for table display where empty fields should show "-".
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// BoolToYesNo converts a boolean to "yes" or "no" for table display.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Truncate shortens s to at most max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	if max <= 3 {
		max = 3
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
