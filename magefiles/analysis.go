//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Analysis builds the CLI and runs every recipe in analyses/, writing
// figures and statistics tables. Outputs that already exist are skipped.
func Analysis() error {
	mg.Deps(Init, Build)

	cmd := exec.Command(filepath.Join(binDir, binName), "analyze")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("rerps analyze: %w", err)
	}
	return nil
}

// Clean removes the generated figures, statistics tables, and the
// results index. The data directory is left alone.
func Clean() error {
	for _, dir := range []string{"figures", "stats", "results", binDir} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
		fmt.Println("removed", dir)
	}
	return nil
}
