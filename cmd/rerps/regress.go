// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/rerps/internal/regression"
)

var regressCmd = &cobra.Command{
	Use:   "regress <recipe>",
	Short: "Fit one of a recipe's models and save the coefficients as CSV",
	Long: `Regress fits a single named model from a recipe and writes the fitted
coefficients, standard errors, t values, and p values to the stats
directory. No figures are rendered.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegress,
}

func runRegress(cmd *cobra.Command, args []string) error {
	rec, ds, err := loadRecipeData(cmd, args[0])
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("model")
	var found bool
	var groupBy, ivs []string
	for _, m := range rec.Models {
		if m.Name != name {
			continue
		}
		found = true
		groupBy = []string{rec.Timestamp}
		if m.PerSubject {
			groupBy = []string{rec.Subject, rec.Timestamp}
		}
		ivs = m.Predictors
	}
	if !found {
		return fmt.Errorf("recipe %s has no model %q", rec.Name, name)
	}

	ms, err := regression.Regress(ds, groupBy, ivs)
	if err != nil {
		return err
	}
	out := outputConfig(cmd)
	if err := os.MkdirAll(out.StatsDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", out.StatsDir, err)
	}
	path := filepath.Join(out.StatsDir, fmt.Sprintf("%s-%s-coefficients.csv", rec.Name, name))
	if err := ms.Save(path); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}

func init() {
	rootCmd.AddCommand(regressCmd)

	regressCmd.Flags().String("model", "", "name of the model to fit (required)")
	regressCmd.MarkFlagRequired("model")
	regressCmd.Flags().String("recipes-dir", "", "directory of recipe YAML files (default: analyses)")
	regressCmd.Flags().String("data-dir", "", "directory of wide-format CSV data files (default: data)")
	regressCmd.Flags().String("stats-dir", "", "directory statistics tables are written to (default: stats)")
}
