// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/rerps/internal/dataset"
	"github.com/pdiddy/rerps/internal/recipe"
	"github.com/pdiddy/rerps/internal/summary"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <recipe>",
	Short: "Write the observed grand-average waveforms as CSV",
	Long: `Summarize loads a recipe's data, averages the voltages per condition
and timestamp, and writes the means and standard errors to the stats
directory. No models are fit.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func runSummarize(cmd *cobra.Command, args []string) error {
	rec, ds, err := loadRecipeData(cmd, args[0])
	if err != nil {
		return err
	}

	dsm, err := summary.Data(ds, rec.Condition, rec.Timestamp)
	if err != nil {
		return err
	}
	out := outputConfig(cmd)
	if err := os.MkdirAll(out.StatsDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", out.StatsDir, err)
	}
	path := filepath.Join(out.StatsDir, rec.Name+"-observed-summary.csv")
	if err := dsm.Save(path); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}

// loadRecipeData resolves a recipe argument and loads its transformed
// dataset.
func loadRecipeData(cmd *cobra.Command, arg string) (*recipe.Recipe, *dataset.DataSet, error) {
	paths, err := recipePaths(cmd, []string{arg})
	if err != nil {
		return nil, nil, err
	}
	rec, err := recipe.Load(paths[0])
	if err != nil {
		return nil, nil, err
	}
	runner := &recipe.Runner{Output: outputConfig(cmd)}
	ds, err := runner.Load(rec)
	if err != nil {
		return nil, nil, err
	}
	return rec, ds, nil
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().String("recipes-dir", "", "directory of recipe YAML files (default: analyses)")
	summarizeCmd.Flags().String("data-dir", "", "directory of wide-format CSV data files (default: data)")
	summarizeCmd.Flags().String("stats-dir", "", "directory statistics tables are written to (default: stats)")
}
