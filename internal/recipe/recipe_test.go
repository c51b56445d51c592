// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recipe

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/rerps/pkg/types"
)

const validYAML = `
name: demo
data: demo.csv
descriptors: [subj, Timestamp, cond]
electrodes: [Fz, Pz]
predictors: [Plaus]
subject: Subject
timestamp: Timestamp
condition: Condition
rename:
  - {column: subj, to: Subject}
  - {column: cond, to: Condition}
recode:
  - {column: Condition, from: "1", to: plausible}
  - {column: Condition, from: "2", to: implausible}
transforms:
  - {op: zscore, column: Plaus}
grid:
  - ["Fz+"]
  - ["Pz"]
colors: [black, red]
coefficient_colors: [black, red]
highlights:
  - {start: 300, end: 500}
stats_windows:
  - {start: 300, end: 500}
correction_windows:
  - {start: 300, end: 500}
models:
  - name: plaus
    predictors: [Plaus]
    estimates: true
    residuals: true
    residual_limits: {min: -2, max: 2}
    coefficients: true
    tvalues: true
    correct: true
    stats: true
    save_coefficients: true
    zero:
      - {name: baseline, predictors: [Plaus], stats: true}
  - name: subject-plaus
    per_subject: true
    predictors: [Plaus]
    estimates: true
    keep: {level: plausible, relabel: shared baseline}
    coefficients: true
`

func writeRecipe(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipe.yaml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	rec, err := Load(writeRecipe(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Name != "demo" {
		t.Errorf("name = %q, want demo", rec.Name)
	}
	if len(rec.Models) != 2 {
		t.Fatalf("got %d models, want 2", len(rec.Models))
	}
	m := rec.Models[0]
	if !m.Correct || !m.Coefficients || !m.TValues || !m.SaveCoefficients {
		t.Errorf("model flags not parsed: %+v", m)
	}
	if len(m.Zero) != 1 || m.Zero[0].Name != "baseline" {
		t.Errorf("zero variants not parsed: %+v", m.Zero)
	}
	if got := rec.layout().Electrodes(); len(got) != 2 || got[0] != "Fz" || got[1] != "Pz" {
		t.Errorf("grid electrodes = %v", got)
	}
}

// The shipped recipes must load, and each palette must cover the
// experiment's condition count so no two conditions share a color.
func TestShippedRecipes(t *testing.T) {
	conditions := map[string]int{
		"dbc2019":    3,
		"dbc2021":    3,
		"capexp2021": 4,
		"psyp2023":   4,
	}
	dir := filepath.Join("..", "..", "analyses")
	for name, n := range conditions {
		rec, err := Load(filepath.Join(dir, name+".yaml"))
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		if len(rec.Colors) < n {
			t.Errorf("%s: %d colors for %d conditions", name, len(rec.Colors), n)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeRecipe(t, "name: [")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	mutate := func(t *testing.T, f func(*Recipe)) error {
		t.Helper()
		var rec Recipe
		if err := yaml.Unmarshal([]byte(validYAML), &rec); err != nil {
			t.Fatal(err)
		}
		f(&rec)
		return rec.Validate()
	}

	tests := []struct {
		name    string
		f       func(*Recipe)
		wantErr string
	}{
		{"valid", func(r *Recipe) {}, ""},
		{"no name", func(r *Recipe) { r.Name = "" }, "missing name"},
		{"no data", func(r *Recipe) { r.Data = "" }, "missing data"},
		{"no electrodes", func(r *Recipe) { r.Electrodes = nil }, "no electrodes"},
		{"no subject", func(r *Recipe) { r.Subject = "" }, "required"},
		{"condition not descriptor", func(r *Recipe) { r.Condition = "Item" }, "not a descriptor"},
		{"bad transform op", func(r *Recipe) { r.Transforms[0].Op = "sqrt" }, "unknown transform"},
		{"transform on electrode", func(r *Recipe) { r.Transforms[0].Column = "Fz" }, "not a predictor"},
		{"ragged grid", func(r *Recipe) { r.Grid = [][]string{{"Fz", "Pz"}, {"Fz"}} }, "grid row"},
		{"unknown grid electrode", func(r *Recipe) { r.Grid = [][]string{{"Oz"}} }, "not in the electrode list"},
		{"empty window", func(r *Recipe) { r.Highlights[0].End = r.Highlights[0].Start }, "empty window"},
		{"nameless model", func(r *Recipe) { r.Models[0].Name = "" }, "no name"},
		{"duplicate model", func(r *Recipe) { r.Models[1].Name = "plaus" }, "duplicate"},
		{"unknown model predictor", func(r *Recipe) { r.Models[0].Predictors = []string{"Cloze"} }, "not a predictor"},
		{"per-subject correction", func(r *Recipe) { r.Models[1].Correct = true }, "across-subject"},
		{"correction without windows", func(r *Recipe) { r.CorrectionWindows = nil }, "no correction windows"},
		{"nameless zero variant", func(r *Recipe) { r.Models[0].Zero[0].Name = "" }, "zero variant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mutate(t, tt.f)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

const demoCSV = `subj,Timestamp,cond,Fz,Pz,Plaus
s1,0,1,1.0,2.0,0.0
s1,0,2,2.0,5.0,1.0
s2,0,1,3.0,4.0,0.0
s2,0,2,4.0,7.0,1.0
s1,300,1,2.0,1.0,0.0
s1,300,2,1.0,2.0,1.0
s2,300,1,4.0,3.0,0.0
s2,300,2,3.0,4.0,1.0
s1,500,1,0.0,1.0,0.0
s1,500,2,2.0,3.0,1.0
s2,500,1,2.0,3.0,0.0
s2,500,2,4.0,5.0,1.0
`

func TestRun(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"data", "figures", "stats"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "data", "demo.csv"), []byte(demoCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	rec, err := Load(writeRecipe(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// The per-subject model has too few samples per cell for a slope, so
	// fit it intercept-only.
	rec.Models[1].Predictors = nil
	rec.CorrectionWindows = []types.Window{{Start: 0, End: 500}}
	rec.StatsWindows = []types.Window{{Start: 0, End: 301}}

	var progress bytes.Buffer
	runner := &Runner{
		Output: types.OutputConfig{
			DataDir:    filepath.Join(dir, "data"),
			FiguresDir: filepath.Join(dir, "figures"),
			StatsDir:   filepath.Join(dir, "stats"),
		},
		Plot: types.PlotConfig{Format: "png", PanelWidth: 6, PanelHeight: 4},
		Out:  &progress,
	}
	sum, err := runner.Run(rec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantFigures := []string{
		"demo-observed.png",
		"demo-plaus-estimates.png",
		"demo-plaus-residuals.png",
		"demo-plaus-coefficients.png",
		"demo-plaus-tvalues.png",
		"demo-plaus-baseline.png",
		"demo-subject-plaus-estimates.png",
		"demo-subject-plaus-coefficients.png",
	}
	if len(sum.Figures) != len(wantFigures) {
		t.Fatalf("got %d figures %v, want %d", len(sum.Figures), sum.Figures, len(wantFigures))
	}
	for _, name := range wantFigures {
		if _, err := os.Stat(filepath.Join(dir, "figures", name)); err != nil {
			t.Errorf("missing figure %s: %v", name, err)
		}
	}
	wantTables := []string{
		"demo-plaus-0-301.csv",
		"demo-plaus-baseline-0-301.csv",
		"demo-plaus-coefficients.csv",
		"demo-observed-0-301.csv",
	}
	if len(sum.Tables) != len(wantTables) {
		t.Fatalf("got %d tables %v, want %d", len(sum.Tables), sum.Tables, len(wantTables))
	}
	for _, name := range wantTables {
		if _, err := os.Stat(filepath.Join(dir, "stats", name)); err != nil {
			t.Errorf("missing table %s: %v", name, err)
		}
	}
	if sum.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", sum.Skipped)
	}
	if !strings.Contains(progress.String(), "demo: wrote") {
		t.Errorf("no progress output: %q", progress.String())
	}

	// A second run reuses everything on disk.
	again, err := runner.Run(rec)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Skipped != len(wantFigures)+len(wantTables) {
		t.Errorf("second run skipped %d, want %d", again.Skipped, len(wantFigures)+len(wantTables))
	}
	if len(again.Figures) != 0 || len(again.Tables) != 0 {
		t.Errorf("second run rebuilt outputs: %v %v", again.Figures, again.Tables)
	}
}
