// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/rerps/internal/summary"
)

var windowsCmd = &cobra.Command{
	Use:   "windows <recipe>",
	Short: "Write time-window averages of the observed data as CSV",
	Long: `Windows computes per-condition, per-subject, per-electrode averages of
the observed voltages over each of a recipe's stats windows and writes
one long-format CSV per window to the stats directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runWindows,
}

func runWindows(cmd *cobra.Command, args []string) error {
	rec, ds, err := loadRecipeData(cmd, args[0])
	if err != nil {
		return err
	}
	if len(rec.StatsWindows) == 0 {
		return fmt.Errorf("recipe %s has no stats windows", rec.Name)
	}

	out := outputConfig(cmd)
	if err := os.MkdirAll(out.StatsDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", out.StatsDir, err)
	}
	for _, w := range rec.StatsWindows {
		rows, err := summary.WindowAverages(ds, rec.Condition, rec.Subject, rec.Timestamp, w)
		if err != nil {
			return err
		}
		path := filepath.Join(out.StatsDir, fmt.Sprintf("%s-observed-%s.csv", rec.Name, w.Label()))
		if err := summary.SaveWindowRows(path, rows); err != nil {
			return err
		}
		fmt.Println("wrote", path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(windowsCmd)

	windowsCmd.Flags().String("recipes-dir", "", "directory of recipe YAML files (default: analyses)")
	windowsCmd.Flags().String("data-dir", "", "directory of wide-format CSV data files (default: data)")
	windowsCmd.Flags().String("stats-dir", "", "directory statistics tables are written to (default: stats)")
}
