package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/chargelog/chargelog/internal/tracker"
)

func newRouteCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "route <snapshot-file>",
		Short: "Show the chronological route of mappable visits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := readSnapshot(args[0])
			if err != nil {
				return err
			}

			route := tracker.ProjectRoute(snap.Visits)

			switch format {
			case "json":
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(route)
			case "table":
				renderRouteTable(cmd, route)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func renderRouteTable(cmd *cobra.Command, route tracker.Route) {
	// Render stops in travel order, matching the polyline.
	markers := append([]tracker.Marker(nil), route.Markers...)
	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].VisitDate < markers[j].VisitDate
	})

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Date", "Location", "Latitude", "Longitude"})
	for i, m := range markers {
		t.AppendRow(table.Row{
			i + 1,
			m.VisitDate,
			m.Label,
			fmt.Sprintf("%.5f", m.Position.Latitude),
			fmt.Sprintf("%.5f", m.Position.Longitude),
		})
	}
	t.Render()
}
