package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/vibration.monitor/internal/bridge"
	"github.com/banshee-data/vibration.monitor/internal/config"
	"github.com/banshee-data/vibration.monitor/internal/units"
	"github.com/banshee-data/vibration.monitor/internal/vibration"
)

func newCheckCmd() *cobra.Command {
	var (
		fixtures   string
		configPath string
		verbose    bool
		listOnly   bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a fixture file and optionally a config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listOnly {
				return printPorts(cmd)
			}

			cfg := config.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = config.LoadConfig(configPath); err != nil {
					return err
				}
			}

			lines, err := bridge.LoadFixtures(fixtures)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if verbose {
				if err := describeFixtures(cmd, lines, cfg); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "%s: %d sample lines OK\n", fixtures, len(lines))
			return nil
		},
	}

	cmd.Flags().StringVar(&fixtures, "fixtures", "fixtures.txt", "fixture file to validate")
	cmd.Flags().StringVar(&configPath, "config", "", "config file used to evaluate the samples")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print each sample converted to physical units")
	cmd.Flags().BoolVar(&listOnly, "list-ports", false, "list the serial ports on this host and exit")

	return cmd
}

// describeFixtures prints each sample with the alerts it would raise on its
// own. The vibration column uses the single-sample deviation, not a window
// mean.
func describeFixtures(cmd *cobra.Command, lines []string, cfg *config.MonitorConfig) error {
	thresholds := cfg.Thresholds()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTEMP C\tLUX\tACCEL G\tDEVIATION\tALERTS")
	for i, line := range lines {
		msg, err := bridge.ParseLine(line)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i+1, err)
		}
		r := units.Convert(msg.Sample, cfg.GetADCMax())
		dev := vibration.Deviation(r.Accel)
		alerts := thresholds.Evaluate(r, dev)
		fmt.Fprintf(tw, "%d\t%.1f\t%d\t%s\t%.2f\t%s\n", i+1, r.TempC, r.Lux, r.Accel, dev, alerts)
	}
	return tw.Flush()
}

func printPorts(cmd *cobra.Command) error {
	ports, err := listPorts()
	if err != nil {
		return fmt.Errorf("failed to list serial ports: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(ports) == 0 {
		fmt.Fprintln(out, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(out, p)
	}
	return nil
}
