// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/rerps/internal/recipe"
	"github.com/pdiddy/rerps/internal/store"
	"github.com/pdiddy/rerps/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [recipe...]",
	Short: "Run analysis recipes: fit models, render figures, write statistics",
	Long: `Analyze loads each recipe, fits its regression models, and writes the
figure grids and time-window average tables to the output directories.
Recipes are named by file path or by name within the recipes directory;
with no arguments every recipe in the recipes directory runs.

Figures and tables that already exist are skipped unless --force is set.
Each run and its outputs are recorded in the results index.`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	paths, err := recipePaths(cmd, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no recipes found")
	}

	runner := &recipe.Runner{
		Output: outputConfig(cmd),
		Plot:   plotConfig(cmd),
		Out:    os.Stdout,
	}
	runner.Force, _ = cmd.Flags().GetBool("force")

	if noIndex, _ := cmd.Flags().GetBool("no-index"); !noIndex {
		s, err := store.Open(storeConfig(cmd))
		if err != nil {
			return err
		}
		defer s.Close()
		runner.Store = s
	}

	for _, dir := range []string{runner.Output.FiguresDir, runner.Output.StatsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	var figures, tables, skipped int
	for _, path := range paths {
		rec, err := recipe.Load(path)
		if err != nil {
			return err
		}
		sum, err := runner.Run(rec)
		if err != nil {
			return fmt.Errorf("%s: %w", rec.Name, err)
		}
		figures += len(sum.Figures)
		tables += len(sum.Tables)
		skipped += sum.Skipped
	}
	fmt.Printf("%d figure(s), %d table(s), %d skipped\n", figures, tables, skipped)
	return nil
}

// recipePaths resolves recipe arguments to files. A bare name resolves
// to <recipes-dir>/<name>.yaml; no arguments means every recipe there.
func recipePaths(cmd *cobra.Command, args []string) ([]string, error) {
	dir := configString(cmd, "recipes-dir", "recipes_dir", "analyses")

	if len(args) == 0 {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading recipes directory %s: %w", dir, err)
		}
		var paths []string
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
				continue
			}
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
		sort.Strings(paths)
		return paths, nil
	}

	var paths []string
	for _, arg := range args {
		if strings.HasSuffix(arg, ".yaml") {
			paths = append(paths, arg)
			continue
		}
		paths = append(paths, filepath.Join(dir, arg+".yaml"))
	}
	return paths, nil
}

// --- shared helpers ---

// configString resolves a setting from the flag, then the config file,
// then the default.
func configString(cmd *cobra.Command, flag, key, def string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	return def
}

func outputConfig(cmd *cobra.Command) types.OutputConfig {
	return types.OutputConfig{
		DataDir:    configString(cmd, "data-dir", "output.data_dir", "data"),
		FiguresDir: configString(cmd, "figures-dir", "output.figures_dir", "figures"),
		StatsDir:   configString(cmd, "stats-dir", "output.stats_dir", "stats"),
	}
}

func plotConfig(cmd *cobra.Command) types.PlotConfig {
	cfg := types.PlotConfig{
		Format:      configString(cmd, "format", "plots.format", "pdf"),
		PanelWidth:  viper.GetFloat64("plots.panel_width"),
		PanelHeight: viper.GetFloat64("plots.panel_height"),
	}
	return cfg
}

func storeConfig(cmd *cobra.Command) types.StoreConfig {
	return types.StoreConfig{
		ResultsDir: configString(cmd, "results-dir", "store.results_dir", "results"),
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("recipes-dir", "", "directory of recipe YAML files (default: analyses)")
	analyzeCmd.Flags().String("data-dir", "", "directory of wide-format CSV data files (default: data)")
	analyzeCmd.Flags().String("figures-dir", "", "directory figures are written to (default: figures)")
	analyzeCmd.Flags().String("stats-dir", "", "directory statistics tables are written to (default: stats)")
	analyzeCmd.Flags().String("results-dir", "", "directory of the results index (default: results)")
	analyzeCmd.Flags().String("format", "", "figure format: pdf, png, or svg (default: pdf)")
	analyzeCmd.Flags().Bool("force", false, "rebuild figures and tables that already exist")
	analyzeCmd.Flags().Bool("no-index", false, "do not record the run in the results index")
}
