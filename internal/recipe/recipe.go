// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recipe loads analysis recipes and runs them end to end: load
// the wide-format CSV, transform predictors, fit the regression models,
// and write figures and statistics tables.
package recipe

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/rerps/internal/plots"
	"github.com/pdiddy/rerps/pkg/types"
)

// Rename maps a raw column name to the name the recipe uses.
type Rename struct {
	Column string `yaml:"column"`
	To     string `yaml:"to"`
}

// Recode maps a raw descriptor level to a readable one.
type Recode struct {
	Column string `yaml:"column"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
}

// Transform is a predictor transformation applied before model fitting,
// in recipe order. Op is one of zscore, negate, invert, or log.
type Transform struct {
	Op     string   `yaml:"op"`
	Column string   `yaml:"column"`
	Max    *float64 `yaml:"max,omitempty"`
	Offset float64  `yaml:"offset,omitempty"`
}

// Zero estimates waveforms with some predictors held at zero, isolating
// the contribution of the remaining terms.
type Zero struct {
	Name       string   `yaml:"name"`
	Predictors []string `yaml:"predictors"`

	// Stats writes time-window averages of the zeroed estimates for
	// each of the recipe's stats windows.
	Stats bool `yaml:"stats"`
}

// Keep restricts the estimate figure to one condition level, optionally
// relabeled. Intercept-only models use it to show the shared baseline.
type Keep struct {
	Level   string `yaml:"level"`
	Relabel string `yaml:"relabel,omitempty"`
}

// Model is one regression specification within a recipe.
type Model struct {
	Name string `yaml:"name"`

	// PerSubject fits a model per subject per timestamp and averages the
	// coefficients; otherwise one model is fit per timestamp across
	// subjects.
	PerSubject bool `yaml:"per_subject"`

	Predictors []string `yaml:"predictors"`

	// Estimates plots the estimated waveforms per condition; Residuals
	// plots observed minus estimated. Coefficients and TValues plot the
	// fitted terms.
	Estimates    bool `yaml:"estimates"`
	Residuals    bool `yaml:"residuals"`
	Coefficients bool `yaml:"coefficients"`
	TValues      bool `yaml:"tvalues"`

	// Keep restricts the estimate figure to one condition level.
	Keep *Keep `yaml:"keep,omitempty"`

	// ResidualLimits fixes the voltage axis of the residual figure.
	ResidualLimits *Limits `yaml:"residual_limits,omitempty"`

	// Stats writes time-window averages of the estimated waveforms for
	// each of the recipe's stats windows.
	Stats bool `yaml:"stats"`

	// Anchor draws coefficient curves as intercept + slope.
	Anchor bool `yaml:"anchor"`

	// Correct applies Benjamini-Hochberg correction to the p values
	// inside the recipe's correction windows. Only valid for
	// across-subject models.
	Correct bool `yaml:"correct"`

	// SaveCoefficients writes the fitted model set to the stats
	// directory.
	SaveCoefficients bool `yaml:"save_coefficients"`

	Zero []Zero `yaml:"zero"`
}

// Limits fixes the voltage axis across panels.
type Limits struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Recipe describes one analysis: the data file, the column schema, the
// transformations, the electrode grid, and the models to fit.
type Recipe struct {
	Name string `yaml:"name"`
	Data string `yaml:"data"`

	Descriptors []string `yaml:"descriptors"`
	Electrodes  []string `yaml:"electrodes"`
	Predictors  []string `yaml:"predictors"`

	// Subject, Timestamp, and Condition name the descriptor columns with
	// those roles (after renames).
	Subject   string `yaml:"subject"`
	Timestamp string `yaml:"timestamp"`
	Condition string `yaml:"condition"`

	Renames    []Rename    `yaml:"rename"`
	Recodes    []Recode    `yaml:"recode"`
	Transforms []Transform `yaml:"transforms"`

	// Grid lays the electrodes out like the montage; "##" marks a blank
	// cell and a trailing "+" puts the legend on that panel.
	Grid [][]string `yaml:"grid"`

	// Colors styles the condition waveforms, in order of the condition
	// levels; CoefficientColors styles intercept and slopes, in order.
	Colors            []string `yaml:"colors"`
	CoefficientColors []string `yaml:"coefficient_colors"`

	// Limits fixes the voltage axis; nil leaves it automatic.
	Limits *Limits `yaml:"limits"`

	// Highlights shades latency windows on every panel.
	Highlights []types.Window `yaml:"highlights"`

	// StatsWindows produce per-condition per-subject time-window average
	// tables. CorrectionWindows bound the p-value correction.
	StatsWindows      []types.Window `yaml:"stats_windows"`
	CorrectionWindows []types.Window `yaml:"correction_windows"`

	Models []Model `yaml:"models"`
}

var transformOps = map[string]bool{
	"zscore": true,
	"negate": true,
	"invert": true,
	"log":    true,
}

// Load reads and validates a recipe file.
func Load(path string) (*Recipe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe: %w", err)
	}
	var rec Recipe
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parsing recipe: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("recipe %s: %w", path, err)
	}
	return &rec, nil
}

// Validate checks the recipe for internal consistency.
func (r *Recipe) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("missing name")
	}
	if r.Data == "" {
		return fmt.Errorf("missing data file")
	}
	if len(r.Electrodes) == 0 {
		return fmt.Errorf("no electrodes")
	}
	if r.Timestamp == "" || r.Condition == "" || r.Subject == "" {
		return fmt.Errorf("subject, timestamp, and condition columns are required")
	}

	descriptors := make(map[string]bool)
	for _, d := range r.Descriptors {
		descriptors[r.renamed(d)] = true
	}
	for _, name := range []string{r.Subject, r.Timestamp, r.Condition} {
		if !descriptors[name] {
			return fmt.Errorf("%s is not a descriptor", name)
		}
	}

	predictors := make(map[string]bool)
	for _, p := range r.Predictors {
		predictors[r.renamed(p)] = true
	}
	for _, t := range r.Transforms {
		if !transformOps[t.Op] {
			return fmt.Errorf("unknown transform op %q", t.Op)
		}
		if !predictors[t.Column] {
			return fmt.Errorf("transform %s: %s is not a predictor", t.Op, t.Column)
		}
	}

	electrodes := make(map[string]bool)
	for _, e := range r.Electrodes {
		electrodes[e] = true
	}
	if len(r.Grid) == 0 {
		return fmt.Errorf("no electrode grid")
	}
	for i, row := range r.Grid {
		if len(row) != len(r.Grid[0]) {
			return fmt.Errorf("grid row %d has %d cells, want %d", i, len(row), len(r.Grid[0]))
		}
	}
	for _, name := range r.layout().Electrodes() {
		if !electrodes[name] {
			return fmt.Errorf("grid electrode %s is not in the electrode list", name)
		}
	}

	for _, w := range append(append(append([]types.Window{}, r.Highlights...), r.StatsWindows...), r.CorrectionWindows...) {
		if !w.Valid() {
			return fmt.Errorf("empty window %s", w.Label())
		}
	}

	seen := make(map[string]bool)
	for _, m := range r.Models {
		if m.Name == "" {
			return fmt.Errorf("model with no name")
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate model name %s", m.Name)
		}
		seen[m.Name] = true
		for _, p := range m.Predictors {
			if !predictors[p] {
				return fmt.Errorf("model %s: %s is not a predictor", m.Name, p)
			}
		}
		if m.Correct && m.PerSubject {
			return fmt.Errorf("model %s: correction requires an across-subject fit", m.Name)
		}
		if m.Correct && len(r.CorrectionWindows) == 0 {
			return fmt.Errorf("model %s: correction requested but no correction windows", m.Name)
		}
		if m.Keep != nil && m.Keep.Level == "" {
			return fmt.Errorf("model %s: keep without a condition level", m.Name)
		}
		if m.Stats && len(r.StatsWindows) == 0 {
			return fmt.Errorf("model %s: stats requested but no stats windows", m.Name)
		}
		for _, z := range m.Zero {
			if z.Name == "" {
				return fmt.Errorf("model %s: zero variant with no name", m.Name)
			}
			for _, p := range z.Predictors {
				if !predictors[p] {
					return fmt.Errorf("model %s: zeroed %s is not a predictor", m.Name, p)
				}
			}
			if z.Stats && len(r.StatsWindows) == 0 {
				return fmt.Errorf("model %s: variant %s requests stats but no stats windows", m.Name, z.Name)
			}
		}
	}
	return nil
}

// layout returns the electrode grid as a plot layout.
func (r *Recipe) layout() plots.Layout {
	return plots.Layout(r.Grid)
}

// renamed returns the post-rename name for a raw column.
func (r *Recipe) renamed(raw string) string {
	for _, rn := range r.Renames {
		if rn.Column == raw {
			return rn.To
		}
	}
	return raw
}
