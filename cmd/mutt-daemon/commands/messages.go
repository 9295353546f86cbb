package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mutt-telemetry/mutt/internal/cli/timeutil"
	"github.com/mutt-telemetry/mutt/pkg/models"
	"github.com/mutt-telemetry/mutt/pkg/store"
)

var (
	messagesLimit  int
	messagesOutput string
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Show recently stored messages",
	Long: `Show the most recently stored telemetry messages, newest first.

Examples:
  # Show the last 100 messages
  mutt-daemon messages

  # Show the last 10 as JSON
  mutt-daemon messages --limit 10 -o json`,
	RunE: runMessages,
}

func init() {
	messagesCmd.Flags().IntVar(&messagesLimit, "limit", store.DefaultMessageLimit, "Maximum number of messages to show")
	messagesCmd.Flags().StringVarP(&messagesOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// MessageList is a list of stored messages for table rendering.
type MessageList []*models.Message

// Headers implements TableRenderer.
func (ml MessageList) Headers() []string {
	return []string{"TIMESTAMP", "TYPE", "SEVERITY", "SOURCE", "PAYLOAD"}
}

// Rows implements TableRenderer.
func (ml MessageList) Rows() [][]string {
	rows := make([][]string, 0, len(ml))
	for _, m := range ml {
		rows = append(rows, []string{
			timeutil.FormatTime(m.Timestamp),
			string(m.Type),
			m.Severity.String(),
			m.SourceIP,
			Truncate(m.Payload, 60),
		})
	}
	return rows
}

func runMessages(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	messages, err := st.GetMessages(ctx, messagesLimit)
	if err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}

	return PrintOutput(os.Stdout, messagesOutput, messages,
		len(messages) == 0, "No messages stored.", MessageList(messages))
}
