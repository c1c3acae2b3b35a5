package main

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/chargelog/chargelog/internal/tracker"
)

func newStatsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats <snapshot-file>",
		Short: "Show aggregate statistics for a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}

			stats := tracker.ProjectStats(snap.Visits)

			switch format {
			case "json":
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(stats)
			case "table":
				renderStatsTable(cmd, stats)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func renderStatsTable(cmd *cobra.Command, stats tracker.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"Total visits", stats.TotalVisits})
	t.AppendRow(table.Row{"Unique locations", stats.UniqueLocations})
	t.AppendRow(table.Row{"Countries", stats.Countries})
	t.AppendRow(table.Row{"Energy added (kWh)", fmt.Sprintf("%.1f", stats.TotalEnergyKwh)})
	t.Render()
}
