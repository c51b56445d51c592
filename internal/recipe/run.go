// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recipe

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"github.com/pdiddy/rerps/internal/dataset"
	"github.com/pdiddy/rerps/internal/plots"
	"github.com/pdiddy/rerps/internal/regression"
	"github.com/pdiddy/rerps/internal/summary"
	"github.com/pdiddy/rerps/pkg/types"
)

// A Recorder indexes the outputs of a run. The SQLite store implements
// it; a nil Recorder disables indexing.
type Recorder interface {
	BeginRun(recipe string) (int64, error)
	AddArtifact(runID int64, kind, path string) error
	AddWindowAverages(runID int64, window string, rows []summary.WindowRow) error
	FinishRun(runID int64, status string) error
}

// Runner executes recipes against the configured directories.
type Runner struct {
	Output types.OutputConfig
	Plot   types.PlotConfig
	Store  Recorder

	// Force rebuilds figures and tables that already exist.
	Force bool

	// Out receives progress messages; nil discards them.
	Out io.Writer
}

// RunSummary reports what a run produced.
type RunSummary struct {
	Recipe  string
	Figures []string
	Tables  []string
	Skipped int
}

func (r *Runner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return io.Discard
}

func (r *Runner) panelSize() (w, h vg.Length) {
	pw, ph := r.Plot.PanelWidth, r.Plot.PanelHeight
	if pw <= 0 {
		pw = 18
	}
	if ph <= 0 {
		ph = 9
	}
	return vg.Length(pw) * vg.Centimeter, vg.Length(ph) * vg.Centimeter
}

func (r *Runner) format() string {
	if r.Plot.Format != "" {
		return r.Plot.Format
	}
	return "pdf"
}

// Run executes a recipe and returns a summary of the outputs.
func (r *Runner) Run(rec *Recipe) (*RunSummary, error) {
	sum := &RunSummary{Recipe: rec.Name}

	var runID int64
	if r.Store != nil {
		var err error
		runID, err = r.Store.BeginRun(rec.Name)
		if err != nil {
			return nil, fmt.Errorf("recording run: %w", err)
		}
	}
	if err := r.run(rec, sum, runID); err != nil {
		if r.Store != nil {
			_ = r.Store.FinishRun(runID, "failed")
		}
		return nil, err
	}
	if r.Store != nil {
		if err := r.Store.FinishRun(runID, "ok"); err != nil {
			return nil, fmt.Errorf("recording run: %w", err)
		}
	}
	return sum, nil
}

func (r *Runner) run(rec *Recipe, sum *RunSummary, runID int64) error {
	fmt.Fprintf(r.out(), "%s: loading %s\n", rec.Name, rec.Data)
	ds, err := r.Load(rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out(), "%s: %d samples, %d electrodes\n", rec.Name, ds.Len(), len(ds.Electrodes()))

	opts, copts, err := rec.options()
	if err != nil {
		return err
	}
	pw, ph := r.panelSize()

	// Observed waveforms per condition.
	dsm, err := summary.Data(ds, rec.Condition, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("summarizing voltages: %w", err)
	}
	path := r.figurePath(rec.Name, "observed")
	if err := r.figure(sum, runID, path, func() error {
		return plots.VoltagesGrid(path, dsm, rec.Timestamp, rec.Condition, rec.layout(), opts, pw, ph)
	}); err != nil {
		return err
	}

	for i := range rec.Models {
		if err := r.runModel(rec, &rec.Models[i], ds, copts, sum, runID); err != nil {
			return fmt.Errorf("model %s: %w", rec.Models[i].Name, err)
		}
	}

	// Time-window averages for downstream statistics.
	for _, w := range rec.StatsWindows {
		rows, err := summary.WindowAverages(ds, rec.Condition, rec.Subject, rec.Timestamp, w)
		if err != nil {
			return fmt.Errorf("window %s: %w", w.Label(), err)
		}
		path := filepath.Join(r.Output.StatsDir, fmt.Sprintf("%s-observed-%s.csv", rec.Name, w.Label()))
		if err := r.table(sum, runID, path, func() error {
			return summary.SaveWindowRows(path, rows)
		}); err != nil {
			return err
		}
		if r.Store != nil {
			if err := r.Store.AddWindowAverages(runID, w.Label(), rows); err != nil {
				return fmt.Errorf("recording window averages: %w", err)
			}
		}
	}
	return nil
}

func (r *Runner) runModel(rec *Recipe, m *Model, ds *dataset.DataSet, copts plots.Options, sum *RunSummary, runID int64) error {
	pw, ph := r.panelSize()
	groupBy := []string{rec.Timestamp}
	if m.PerSubject {
		groupBy = []string{rec.Subject, rec.Timestamp}
	}
	fmt.Fprintf(r.out(), "%s: fitting %s over %v\n", rec.Name, m.Name, groupBy)

	ms, err := regression.Regress(ds, groupBy, m.Predictors)
	if err != nil {
		return err
	}
	if m.Correct {
		ms, err = regression.AdjustPValues(ms, rec.Timestamp, rec.CorrectionWindows, rec.Electrodes)
		if err != nil {
			return fmt.Errorf("correcting p values: %w", err)
		}
	}
	msm, err := summary.Models(ms, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("summarizing models: %w", err)
	}

	if m.Estimates || m.Residuals || m.Stats {
		if err := r.runEstimates(rec, m, ds, ms, sum, runID); err != nil {
			return err
		}
	}

	if m.Coefficients {
		o := copts
		o.Anchor = m.Anchor
		path := r.figurePath(rec.Name, m.Name+"-coefficients")
		if err := r.figure(sum, runID, path, func() error {
			return plots.CoefficientsGrid(path, msm, rec.Timestamp, rec.layout(), o, pw, ph)
		}); err != nil {
			return err
		}
	}
	if m.TValues {
		o := copts
		o.Intercept = false
		o.PValues = m.Correct
		o.YMin, o.YMax = nil, nil
		// Slopes keep the colors they have in the coefficient figure.
		if len(o.Colors) > 1 {
			o.Colors = o.Colors[1:]
		}
		path := r.figurePath(rec.Name, m.Name+"-tvalues")
		if err := r.figure(sum, runID, path, func() error {
			return plots.TValuesGrid(path, msm, rec.Timestamp, rec.layout(), o, pw, ph)
		}); err != nil {
			return err
		}
	}
	if m.SaveCoefficients {
		path := filepath.Join(r.Output.StatsDir, fmt.Sprintf("%s-%s-coefficients.csv", rec.Name, m.Name))
		if err := r.table(sum, runID, path, func() error {
			return ms.Save(path)
		}); err != nil {
			return err
		}
	}

	for _, z := range m.Zero {
		if err := r.runZero(rec, m, &z, ds, ms, sum, runID); err != nil {
			return fmt.Errorf("variant %s: %w", z.Name, err)
		}
	}
	return nil
}

// runEstimates plots the estimated waveforms and residuals of a fitted
// model and writes time-window averages of the estimates.
func (r *Runner) runEstimates(rec *Recipe, m *Model, ds *dataset.DataSet, ms *regression.ModelSet, sum *RunSummary, runID int64) error {
	est, err := regression.Estimate(ds, ms)
	if err != nil {
		return fmt.Errorf("estimating: %w", err)
	}
	opts, _, err := rec.options()
	if err != nil {
		return err
	}
	pw, ph := r.panelSize()

	if m.Estimates {
		shown := est
		if m.Keep != nil {
			shown, err = est.FilterLevel(rec.Condition, m.Keep.Level)
			if err != nil {
				return err
			}
			if m.Keep.Relabel != "" {
				if err := shown.RenameLevel(rec.Condition, m.Keep.Level, m.Keep.Relabel); err != nil {
					return err
				}
			}
		}
		esm, err := summary.Data(shown, rec.Condition, rec.Timestamp)
		if err != nil {
			return fmt.Errorf("summarizing estimates: %w", err)
		}
		path := r.figurePath(rec.Name, m.Name+"-estimates")
		if err := r.figure(sum, runID, path, func() error {
			return plots.VoltagesGrid(path, esm, rec.Timestamp, rec.Condition, rec.layout(), opts, pw, ph)
		}); err != nil {
			return err
		}
	}

	if m.Residuals {
		res, err := regression.Residuals(ds, est)
		if err != nil {
			return fmt.Errorf("computing residuals: %w", err)
		}
		rsm, err := summary.Data(res, rec.Condition, rec.Timestamp)
		if err != nil {
			return fmt.Errorf("summarizing residuals: %w", err)
		}
		o := opts
		if m.ResidualLimits != nil {
			o.YMin, o.YMax = &m.ResidualLimits.Min, &m.ResidualLimits.Max
		}
		path := r.figurePath(rec.Name, m.Name+"-residuals")
		if err := r.figure(sum, runID, path, func() error {
			return plots.VoltagesGrid(path, rsm, rec.Timestamp, rec.Condition, rec.layout(), o, pw, ph)
		}); err != nil {
			return err
		}
	}

	if m.Stats {
		if err := r.windowTables(rec, m.Name, est, sum, runID); err != nil {
			return err
		}
	}
	return nil
}

// windowTables writes a time-window average table per stats window for
// the given (estimated) dataset.
func (r *Runner) windowTables(rec *Recipe, stem string, ds *dataset.DataSet, sum *RunSummary, runID int64) error {
	for _, w := range rec.StatsWindows {
		rows, err := summary.WindowAverages(ds, rec.Condition, rec.Subject, rec.Timestamp, w)
		if err != nil {
			return fmt.Errorf("window %s: %w", w.Label(), err)
		}
		path := filepath.Join(r.Output.StatsDir, fmt.Sprintf("%s-%s-%s.csv", rec.Name, stem, w.Label()))
		if err := r.table(sum, runID, path, func() error {
			return summary.SaveWindowRows(path, rows)
		}); err != nil {
			return err
		}
	}
	return nil
}

// runZero estimates waveforms with selected predictors held at zero and
// plots the estimates alongside nothing else, reusing the condition
// grouping of the observed figure.
func (r *Runner) runZero(rec *Recipe, m *Model, z *Zero, ds *dataset.DataSet, ms *regression.ModelSet, sum *RunSummary, runID int64) error {
	zeroed := ds.Copy()
	for _, p := range z.Predictors {
		if err := zeroed.SetConstant(p, 0); err != nil {
			return err
		}
	}
	est, err := regression.Estimate(zeroed, ms)
	if err != nil {
		return fmt.Errorf("estimating: %w", err)
	}
	esm, err := summary.Data(est, rec.Condition, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("summarizing estimates: %w", err)
	}
	opts, _, err := rec.options()
	if err != nil {
		return err
	}
	pw, ph := r.panelSize()
	path := r.figurePath(rec.Name, m.Name+"-"+z.Name)
	if err := r.figure(sum, runID, path, func() error {
		return plots.VoltagesGrid(path, esm, rec.Timestamp, rec.Condition, rec.layout(), opts, pw, ph)
	}); err != nil {
		return err
	}

	if z.Stats {
		return r.windowTables(rec, m.Name+"-"+z.Name, est, sum, runID)
	}
	return nil
}

// Load reads the recipe's data file and applies renames, recodes, and
// predictor transformations, in that order.
func (r *Runner) Load(rec *Recipe) (*dataset.DataSet, error) {
	path := filepath.Join(r.Output.DataDir, rec.Data)
	ds, err := dataset.Load(path, dataset.Schema{
		Descriptors: rec.Descriptors,
		Electrodes:  rec.Electrodes,
		Predictors:  rec.Predictors,
	})
	if err != nil {
		return nil, err
	}
	for _, rn := range rec.Renames {
		if err := ds.RenameColumn(rn.Column, rn.To); err != nil {
			return nil, err
		}
	}
	for _, rc := range rec.Recodes {
		if err := ds.RenameLevel(rc.Column, rc.From, rc.To); err != nil {
			return nil, err
		}
	}
	for _, t := range rec.Transforms {
		if err := applyTransform(ds, t); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func applyTransform(ds *dataset.DataSet, t Transform) error {
	switch t.Op {
	case "zscore":
		return ds.ZScore(t.Column)
	case "negate":
		return ds.Negate(t.Column)
	case "invert":
		max := math.NaN()
		if t.Max != nil {
			max = *t.Max
		}
		return ds.Invert(t.Column, max)
	case "log":
		return ds.Log(t.Column, t.Offset)
	default:
		return fmt.Errorf("unknown transform op %q", t.Op)
	}
}

// options builds the voltage and coefficient plot options from the
// recipe's styling.
func (r *Recipe) options() (voltages, coefficients plots.Options, err error) {
	colors, err := plots.ParseColors(r.Colors)
	if err != nil {
		return voltages, coefficients, fmt.Errorf("colors: %w", err)
	}
	ccolors, err := plots.ParseColors(r.CoefficientColors)
	if err != nil {
		return voltages, coefficients, fmt.Errorf("coefficient colors: %w", err)
	}
	voltages = plots.Options{Colors: colors, Highlights: r.Highlights}
	coefficients = plots.Options{Colors: ccolors, Highlights: r.Highlights}
	if r.Limits != nil {
		voltages.YMin, voltages.YMax = &r.Limits.Min, &r.Limits.Max
		coefficients.YMin, coefficients.YMax = &r.Limits.Min, &r.Limits.Max
	}
	return voltages, coefficients, nil
}

func (r *Runner) figurePath(recipe, stem string) string {
	return filepath.Join(r.Output.FiguresDir, fmt.Sprintf("%s-%s.%s", recipe, stem, r.format()))
}

// figure renders a figure unless it already exists, mirroring the
// skip-existing behavior of the table writer.
func (r *Runner) figure(sum *RunSummary, runID int64, path string, render func() error) error {
	return r.output(sum, runID, "figure", path, &sum.Figures, render)
}

func (r *Runner) table(sum *RunSummary, runID int64, path string, write func() error) error {
	return r.output(sum, runID, "table", path, &sum.Tables, write)
}

func (r *Runner) output(sum *RunSummary, runID int64, kind, path string, into *[]string, produce func() error) error {
	if !r.Force {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(r.out(), "%s: skipping existing %s\n", sum.Recipe, path)
			sum.Skipped++
			return nil
		}
	}
	if err := produce(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(r.out(), "%s: wrote %s\n", sum.Recipe, path)
	*into = append(*into, path)
	if r.Store != nil {
		if err := r.Store.AddArtifact(runID, kind, path); err != nil {
			return fmt.Errorf("recording %s: %w", path, err)
		}
	}
	return nil
}
