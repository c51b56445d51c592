// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared configuration and value types for the
// rerps pipeline.
package types

// OutputConfig holds the directories the pipeline reads from and writes to.
type OutputConfig struct {
	// DataDir is the directory holding the downloaded wide-format CSV
	// files (populated by hand from the published data archives).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// FiguresDir is the directory figures are written to.
	FiguresDir string `json:"figures_dir" yaml:"figures_dir"`

	// StatsDir is the directory time-window average tables are written to.
	StatsDir string `json:"stats_dir" yaml:"stats_dir"`
}

// PlotConfig holds figure rendering settings.
type PlotConfig struct {
	// Format is the figure file format: pdf, png, or svg (default pdf).
	Format string `json:"format" yaml:"format"`

	// PanelWidth is the width of a single grid panel in centimeters
	// (default 18).
	PanelWidth float64 `json:"panel_width" yaml:"panel_width"`

	// PanelHeight is the height of a single grid panel in centimeters
	// (default 9).
	PanelHeight float64 `json:"panel_height" yaml:"panel_height"`
}

// StoreConfig holds settings for the results index.
type StoreConfig struct {
	// ResultsDir is the directory containing the SQLite results index.
	ResultsDir string `json:"results_dir" yaml:"results_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Output OutputConfig `json:"output" yaml:"output"`
	Plots  PlotConfig   `json:"plots" yaml:"plots"`
	Store  StoreConfig  `json:"store" yaml:"store"`
}
