// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/rerps/internal/store"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [recipe]",
	Short: "Remove generated figures, statistics tables, and index entries",
	Long: `Clean removes the generated outputs: figures, statistics tables, and
the recorded runs in the results index. With a recipe name only that
recipe's outputs are removed; without one, everything generated goes.
The data directory is never touched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	var recipeName string
	if len(args) == 1 {
		recipeName = args[0]
	}

	out := outputConfig(cmd)
	removed := 0
	for _, dir := range []string{out.FiguresDir, out.StatsDir} {
		n, err := removeOutputs(dir, recipeName)
		if err != nil {
			return err
		}
		removed += n
	}

	s, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()
	runs, err := s.DeleteRuns(recipeName)
	if err != nil {
		return err
	}

	fmt.Printf("removed %d file(s), %d run record(s)\n", removed, runs)
	return nil
}

// removeOutputs deletes the generated files in dir. A non-empty recipe
// restricts deletion to files named "<recipe>-...".
func removeOutputs(dir, recipe string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if recipe != "" && !strings.HasPrefix(e.Name(), recipe+"-") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().String("figures-dir", "", "directory figures are written to (default: figures)")
	cleanCmd.Flags().String("stats-dir", "", "directory statistics tables are written to (default: stats)")
	cleanCmd.Flags().String("results-dir", "", "directory of the results index (default: results)")
}
