package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mutt-telemetry/mutt/internal/cli/prompt"
	"github.com/mutt-telemetry/mutt/pkg/config"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a mutt configuration file.

By default, a commented sample configuration is created at config/mutt.yaml.
Use --config to specify a custom path, or --interactive to answer a few
questions instead of editing the sample by hand.

Examples:
  # Initialize with default location
  mutt-daemon init

  # Initialize with custom path
  mutt-daemon init --config /etc/mutt/mutt.yaml

  # Answer prompts for ports, database and retention
  mutt-daemon init --interactive

  # Force overwrite existing config
  mutt-daemon init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVar(&initInteractive, "interactive", false, "Build the configuration interactively")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.DefaultConfigPath
	}

	if initInteractive {
		return runInitInteractive(configPath)
	}

	if err := config.InitConfigToPath(configPath, initForce); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	printInitNextSteps(configPath)
	return nil
}

// runInitInteractive builds a configuration from a short series of prompts
// and writes it to configPath.
func runInitInteractive(configPath string) error {
	cfg, err := promptForConfig()
	if err != nil {
		if prompt.IsAborted(err) {
			fmt.Println("Aborted.")
			return nil
		}
		return err
	}

	ok, err := prompt.Confirm(fmt.Sprintf("Write configuration to %s", configPath), true)
	if err != nil {
		if prompt.IsAborted(err) {
			fmt.Println("Aborted.")
			return nil
		}
		return err
	}
	if !ok {
		fmt.Println("Aborted.")
		return nil
	}

	if !initForce {
		if err := checkConfigMissing(configPath); err != nil {
			return err
		}
	}
	if err := config.SaveConfig(cfg, configPath); err != nil {
		return err
	}

	printInitNextSteps(configPath)
	return nil
}

// promptForConfig asks for the handful of settings most installations
// change; everything else keeps its default.
func promptForConfig() (*config.Config, error) {
	cfg := config.GetDefaultConfig()

	syslogPort, err := prompt.InputPort("Syslog UDP port", cfg.Listeners.Syslog.Port)
	if err != nil {
		return nil, err
	}
	cfg.Listeners.Syslog.Port = syslogPort

	snmpPort, err := prompt.InputPort("SNMP trap UDP port", cfg.Listeners.SNMP.Port)
	if err != nil {
		return nil, err
	}
	cfg.Listeners.SNMP.Port = snmpPort

	backend, err := prompt.Select("Database backend", []prompt.SelectOption{
		{Label: "SQLite (single node)", Value: "sqlite", Description: "Embedded database, no external service required"},
		{Label: "PostgreSQL", Value: "postgres", Description: "Shared database for multiple collectors"},
	})
	if err != nil {
		return nil, err
	}
	cfg.Storage.Database.Type = backend

	switch backend {
	case "postgres":
		if err := promptForPostgres(cfg); err != nil {
			return nil, err
		}
	default:
		dbPath, err := prompt.Input("SQLite database path", cfg.Storage.DBPath)
		if err != nil {
			return nil, err
		}
		cfg.Storage.DBPath = dbPath
	}

	retention, err := prompt.InputInt("Retention before archival (days)", cfg.RetentionDays)
	if err != nil {
		return nil, err
	}
	cfg.RetentionDays = retention

	// Re-apply so backend-dependent defaults (postgres pool sizes) fill in.
	config.ApplyDefaults(cfg)
	return cfg, nil
}

func promptForPostgres(cfg *config.Config) error {
	pg := &cfg.Storage.Database.Postgres

	host, err := prompt.Input("PostgreSQL host", "localhost")
	if err != nil {
		return err
	}
	pg.Host = host

	port, err := prompt.InputPort("PostgreSQL port", 5432)
	if err != nil {
		return err
	}
	pg.Port = port

	database, err := prompt.Input("PostgreSQL database", "mutt")
	if err != nil {
		return err
	}
	pg.Database = database

	user, err := prompt.Input("PostgreSQL user", "mutt")
	if err != nil {
		return err
	}
	pg.User = user

	password, err := prompt.Password("PostgreSQL password")
	if err != nil {
		return err
	}
	pg.Password = password

	return nil
}

func printInitNextSteps(configPath string) {
	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Printf("  2. Start the daemon with: mutt-daemon --config %s\n", configPath)
	fmt.Println("  3. Check the effective configuration with: mutt-daemon config show")
}
