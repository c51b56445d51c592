// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/rerps/internal/recipe"
)

var validateCmd = &cobra.Command{
	Use:   "validate [recipe...]",
	Short: "Check that recipes parse and are internally consistent",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	paths, err := recipePaths(cmd, args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no recipes found")
	}

	failed := 0
	for _, path := range paths {
		rec, err := recipe.Load(path)
		if err != nil {
			fmt.Printf("invalid  %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("ok       %s (%d model(s))\n", rec.Name, len(rec.Models))
	}
	if failed > 0 {
		return fmt.Errorf("%d recipe(s) failed validation", failed)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("recipes-dir", "", "directory of recipe YAML files (default: analyses)")
}
