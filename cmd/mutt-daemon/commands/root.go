// Package commands implements the CLI commands for the mutt daemon.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/mutt-telemetry/mutt/cmd/mutt-daemon/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command. Invoked without a subcommand it runs
// the daemon in the foreground.
var rootCmd = &cobra.Command{
	Use:   "mutt-daemon",
	Short: "mutt - network telemetry ingestion daemon",
	Long: `mutt listens for RFC 3164 syslog messages and SNMP v1/v2c/v3 traps,
runs them through a validation, matching, enrichment and routing pipeline,
and persists them in a relational store with scheduled archival.

Run without a subcommand to start the daemon in the foreground:

  mutt-daemon --config /etc/mutt/mutt.yaml

Use "mutt-daemon [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDaemon,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: config/mutt.yaml)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(authFailuresCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(config.Cmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
