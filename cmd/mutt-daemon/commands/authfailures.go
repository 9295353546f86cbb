package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mutt-telemetry/mutt/internal/cli/timeutil"
	"github.com/mutt-telemetry/mutt/pkg/models"
)

var authFailuresOutput string

var authFailuresCmd = &cobra.Command{
	Use:   "auth-failures",
	Short: "Show SNMPv3 authentication failures",
	Long: `Show the persisted SNMPv3 authentication failure counters.

Each row aggregates the failures seen for one username since its counter
was last cleared by a successful credential rotation.

Examples:
  # Show failures as a table
  mutt-daemon auth-failures

  # Show as JSON
  mutt-daemon auth-failures -o json`,
	RunE: runAuthFailures,
}

func init() {
	authFailuresCmd.Flags().StringVarP(&authFailuresOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// AuthFailureList is a list of auth failure rows for table rendering.
type AuthFailureList []models.AuthFailure

// Headers implements TableRenderer.
func (al AuthFailureList) Headers() []string {
	return []string{"USERNAME", "HOSTNAME", "FAILURES", "LAST FAILURE"}
}

// Rows implements TableRenderer.
func (al AuthFailureList) Rows() [][]string {
	rows := make([][]string, 0, len(al))
	for _, f := range al {
		rows = append(rows, []string{
			f.Username,
			EmptyOr(f.Hostname, "-"),
			fmt.Sprintf("%d", f.NumFailures),
			timeutil.FormatTime(f.LastFailure),
		})
	}
	return rows
}

func runAuthFailures(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	failures, err := st.ListAuthFailures(ctx)
	if err != nil {
		return fmt.Errorf("failed to list auth failures: %w", err)
	}

	return PrintOutput(os.Stdout, authFailuresOutput, failures,
		len(failures) == 0, "No authentication failures recorded.", AuthFailureList(failures))
}
