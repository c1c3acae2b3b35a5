// Package main implements chargectl, a command-line companion for working
// with exported snapshot files without a running server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chargelog/chargelog/internal/porter"
)

var rootCmd = &cobra.Command{
	Use:   "chargectl",
	Short: "chargectl - inspect charging-visit snapshot files",
	Long:  "chargectl reads snapshot files exported from the chargelog API and renders statistics and routes offline.",
}

func init() {
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRouteCmd())
}

// readSnapshot loads and parses the snapshot file at path.
func readSnapshot(path string) (porter.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return porter.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := porter.Parse(data)
	if err != nil {
		return porter.Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, nil
}
