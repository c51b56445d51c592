// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/rerps/internal/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Query the results index (runs, artifacts, windows)",
	Long: `Results queries the SQLite index of recorded analysis runs. Use
subcommands to list runs, list the files a run produced, or dump the
time-window averages a run recorded.`,
}

// --- runs subcommand ---

var resultsRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded analysis runs, newest first",
	RunE:  runResultsRuns,
}

func runResultsRuns(cmd *cobra.Command, args []string) error {
	s, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	recipeName, _ := cmd.Flags().GetString("recipe")
	runs, err := s.Runs(context.Background(), recipeName)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-6s  %-12s  %-20s  %-20s  %s\n",
		"ID", "Recipe", "Started", "Finished", "Status")
	for _, r := range runs {
		finished := "-"
		if !r.Finished.IsZero() {
			finished = r.Finished.Format(time.DateTime)
		}
		fmt.Fprintf(os.Stdout, "%-6d  %-12s  %-20s  %-20s  %s\n",
			r.ID, r.Recipe, r.Started.Format(time.DateTime), finished, r.Status)
	}
	return nil
}

// --- artifacts subcommand ---

var resultsArtifactsCmd = &cobra.Command{
	Use:   "artifacts <run-id>",
	Short: "List the files a run produced",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsArtifacts,
}

func runResultsArtifacts(cmd *cobra.Command, args []string) error {
	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	s, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	arts, err := s.Artifacts(context.Background(), runID)
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(arts)
	}
	if len(arts) == 0 {
		fmt.Println("No artifacts recorded.")
		return nil
	}
	for _, a := range arts {
		fmt.Fprintf(os.Stdout, "%-8s  %s\n", a.Kind, a.Path)
	}
	return nil
}

// --- windows subcommand ---

var resultsWindowsCmd = &cobra.Command{
	Use:   "windows <run-id>",
	Short: "Dump the time-window averages a run recorded",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsWindows,
}

func runResultsWindows(cmd *cobra.Command, args []string) error {
	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	s, err := store.Open(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	window, _ := cmd.Flags().GetString("window")
	rows, err := s.WindowAverages(context.Background(), runID, window)
	if err != nil {
		return err
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return writeJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Println("No window averages recorded.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-20s  %-10s  %-6s  %s\n", "Condition", "Subject", "Ch", "EEG")
	for _, r := range rows {
		fmt.Fprintf(os.Stdout, "%-20s  %-10s  %-6s  %g\n", r.Condition, r.Subject, r.Electrode, r.Mean)
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	resultsCmd.PersistentFlags().String("results-dir", "", "directory of the results index (default: results)")
	resultsCmd.PersistentFlags().Bool("json", false, "output as JSON")

	resultsRunsCmd.Flags().String("recipe", "", "only list runs of this recipe")
	resultsWindowsCmd.Flags().String("window", "", "only dump this window label, e.g. 300-500")

	resultsCmd.AddCommand(resultsRunsCmd)
	resultsCmd.AddCommand(resultsArtifactsCmd)
	resultsCmd.AddCommand(resultsWindowsCmd)
	rootCmd.AddCommand(resultsCmd)
}
