// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the rerps CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the rerps CLI.
var rootCmd = &cobra.Command{
	Use:   "rerps",
	Short: "Regression-based ERP waveform estimation",
	Long: `rerps estimates event-related potential waveforms by regressing
single-trial EEG voltages on continuous predictors, per timestamp and
optionally per subject.

Each analysis is described by a YAML recipe naming the data file, the
column schema, the predictor transformations, the electrode grid, and
the regression models. The analyze subcommand runs recipes end to end,
writing figure grids and statistics tables; results lists what previous
runs produced; clean removes generated outputs.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./rerps.yaml or ~/.config/rerps/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("rerps")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "rerps"))
		}
	}

	viper.SetEnvPrefix("RERPS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
