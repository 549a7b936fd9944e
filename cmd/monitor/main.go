// Command monitor runs the asset vibration monitor against a sensor board on
// a serial port, or against replayed fixtures in dev mode.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/vibration.monitor/internal/version"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "monitor",
		Short: "Asset vibration, light and temperature monitor",
		Long: `monitor samples a light sensor and a motion sensor on a fixed cycle,
raises light, vibration and temperature alerts on the indicator LED, relay and
buzzer, and reports each cycle on the LCD and the diagnostic stream.`,
		Version:      version.Version,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd(), newCheckCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
