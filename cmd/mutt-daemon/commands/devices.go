package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mutt-telemetry/mutt/internal/cli/timeutil"
	"github.com/mutt-telemetry/mutt/pkg/models"
)

var devicesOutput string

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Show the device registry",
	Long: `Show the devices the enricher has seen, with their last resolved
hostname and the SNMP version they last spoke.

Examples:
  # Show devices as a table
  mutt-daemon devices

  # Show as YAML
  mutt-daemon devices -o yaml`,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().StringVarP(&devicesOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// DeviceList is a list of registry rows for table rendering.
type DeviceList []models.Device

// Headers implements TableRenderer.
func (dl DeviceList) Headers() []string {
	return []string{"IP", "HOSTNAME", "SNMP VERSION", "LAST SEEN"}
}

// Rows implements TableRenderer.
func (dl DeviceList) Rows() [][]string {
	rows := make([][]string, 0, len(dl))
	for _, d := range dl {
		hostname := "-"
		if d.Hostname != nil && *d.Hostname != "" {
			hostname = *d.Hostname
		}
		version := "-"
		if d.SNMPVersion != nil && *d.SNMPVersion != "" {
			version = *d.SNMPVersion
		}
		rows = append(rows, []string{
			d.IP,
			hostname,
			version,
			timeutil.FormatAgo(d.LastSeen),
		})
	}
	return rows
}

func runDevices(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	devices, err := st.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	return PrintOutput(os.Stdout, devicesOutput, devices,
		len(devices) == 0, "No devices seen yet.", DeviceList(devices))
}
