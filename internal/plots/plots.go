// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plots renders (r)ERP waveforms, regression coefficients and
// t values with gonum/plot, following ERP plotting conventions: the
// voltage axis is inverted (negative up), latency windows of interest
// are shaded, and confidence bands span two standard errors.
package plots

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/pdiddy/rerps/internal/summary"
)

// series is one curve with its confidence band.
type series struct {
	label string
	xs    []float64
	ys    []float64
	ses   []float64
}

// Voltages plots one electrode of a data summary, one curve per level of
// the groupBy descriptor (typically Condition), against the x descriptor
// (typically Timestamp).
func Voltages(dsm *summary.DataSummary, x, electrode, groupBy string, opts Options) (*plot.Plot, error) {
	xIdx, gIdx := -1, -1
	for i, name := range dsm.By {
		switch name {
		case x:
			xIdx = i
		case groupBy:
			gIdx = i
		}
	}
	if xIdx < 0 {
		return nil, fmt.Errorf("summary has no descriptor %q", x)
	}
	if gIdx < 0 {
		return nil, fmt.Errorf("summary has no descriptor %q", groupBy)
	}
	eIdx, err := dsm.ElectrodeIndex(electrode)
	if err != nil {
		return nil, err
	}

	levels, err := dsm.Levels(groupBy)
	if err != nil {
		return nil, err
	}
	var all []series
	for _, level := range levels {
		s := series{label: level.String()}
		for _, g := range dsm.Groups {
			if !g.Key[gIdx].Equal(level) {
				continue
			}
			if !g.Key[xIdx].Numeric {
				return nil, fmt.Errorf("descriptor %q is not numeric", x)
			}
			s.xs = append(s.xs, g.Key[xIdx].Num)
			s.ys = append(s.ys, g.Mean[eIdx])
			s.ses = append(s.ses, g.SE[eIdx])
		}
		s.sortByX()
		all = append(all, s)
	}

	return render(all, opts)
}

// Coefficients plots averaged regression coefficients for one electrode,
// one curve per coefficient. With Anchor set, each slope is drawn on top
// of the intercept and labelled accordingly.
func Coefficients(msm *summary.ModelSummary, x, electrode string, opts Options) (*plot.Plot, error) {
	xIdx, err := byIndex(msm.By, x)
	if err != nil {
		return nil, err
	}
	eIdx, err := msm.ElectrodeIndex(electrode)
	if err != nil {
		return nil, err
	}

	var all []series
	for c, name := range msm.Coefficients {
		s := series{label: name}
		if opts.Anchor && c > 0 {
			s.label = msm.Coefficients[0] + " + " + name
		}
		for _, g := range msm.Groups {
			if !g.Key[xIdx].Numeric {
				return nil, fmt.Errorf("descriptor %q is not numeric", x)
			}
			y := g.Mean[eIdx][c]
			if opts.Anchor && c > 0 {
				y += g.Mean[eIdx][0]
			}
			s.xs = append(s.xs, g.Key[xIdx].Num)
			s.ys = append(s.ys, y)
			s.ses = append(s.ses, g.SE[eIdx][c])
		}
		s.sortByX()
		all = append(all, s)
	}

	return render(all, opts)
}

// TValues plots t values for one electrode, one curve per slope (per
// coefficient when Intercept is set). With PValues set, samples whose
// adjusted p value is below Alpha are marked alongside the curve.
func TValues(msm *summary.ModelSummary, x, electrode string, opts Options) (*plot.Plot, error) {
	xIdx, err := byIndex(msm.By, x)
	if err != nil {
		return nil, err
	}
	eIdx, err := msm.ElectrodeIndex(electrode)
	if err != nil {
		return nil, err
	}

	first := 1
	if opts.Intercept {
		first = 0
	}

	p := newPanel(opts)
	var marks []*plotter.Scatter
	ymin, ymax := math.Inf(1), math.Inf(-1)
	var xmin, xmax float64

	for ci := first; ci < len(msm.Coefficients); ci++ {
		s := series{label: msm.Coefficients[ci]}
		var sig []float64
		for _, g := range msm.Groups {
			if !g.Key[xIdx].Numeric {
				return nil, fmt.Errorf("descriptor %q is not numeric", x)
			}
			s.xs = append(s.xs, g.Key[xIdx].Num)
			s.ys = append(s.ys, g.T[eIdx][ci])
			if opts.PValues && g.P[eIdx][ci] < opts.alpha() {
				sig = append(sig, g.Key[xIdx].Num)
			}
		}
		s.sortByX()
		if len(s.xs) == 0 {
			return nil, fmt.Errorf("series %q has no samples", s.label)
		}

		lo, hi := s.rangeY()
		ymin, ymax = math.Min(ymin, lo), math.Max(ymax, hi)
		xmin, xmax = s.xs[0], s.xs[len(s.xs)-1]

		line, err := newLine(s.xs, s.ys, opts.color(ci-first))
		if err != nil {
			return nil, err
		}
		p.Add(line)
		if opts.Legend {
			p.Legend.Add(s.label, line)
		}

		// Significance ticks sit just outside the curve's extremes.
		if len(sig) > 0 {
			offset := 0.5
			pos := hi + offset
			if math.Abs(lo) > pos {
				pos = lo - offset
			}
			pts := make(plotter.XYs, len(sig))
			for i, sx := range sig {
				pts[i] = plotter.XY{X: sx, Y: pos}
			}
			sc, err := plotter.NewScatter(pts)
			if err != nil {
				return nil, err
			}
			sc.GlyphStyle = draw.GlyphStyle{
				Color:  fade(opts.color(ci - first)),
				Radius: vg.Points(2.5),
				Shape:  draw.PlusGlyph{},
			}
			marks = append(marks, sc)
			if pos < ymin {
				ymin = pos
			}
			if pos > ymax {
				ymax = pos
			}
		}
	}

	for _, sc := range marks {
		p.Add(sc)
	}
	finishPanel(p, xmin, xmax, ymin, ymax, opts)
	return p, nil
}

// render draws curves with confidence bands into a fresh panel.
func render(all []series, opts Options) (*plot.Plot, error) {
	p := newPanel(opts)

	ymin, ymax := math.Inf(1), math.Inf(-1)
	var xmin, xmax float64
	for _, s := range all {
		if len(s.xs) == 0 {
			return nil, fmt.Errorf("series %q has no samples", s.label)
		}
		for i := range s.ys {
			ymin = math.Min(ymin, s.ys[i]-2*s.ses[i])
			ymax = math.Max(ymax, s.ys[i]+2*s.ses[i])
		}
		xmin, xmax = s.xs[0], s.xs[len(s.xs)-1]
	}

	for i, s := range all {
		c := opts.color(i)

		band := make(plotter.XYs, 0, 2*len(s.xs))
		for j := range s.xs {
			band = append(band, plotter.XY{X: s.xs[j], Y: s.ys[j] + 2*s.ses[j]})
		}
		for j := len(s.xs) - 1; j >= 0; j-- {
			band = append(band, plotter.XY{X: s.xs[j], Y: s.ys[j] - 2*s.ses[j]})
		}
		poly, err := plotter.NewPolygon(band)
		if err != nil {
			return nil, err
		}
		poly.Color = fade(c)
		poly.LineStyle.Width = 0
		p.Add(poly)

		line, err := newLine(s.xs, s.ys, c)
		if err != nil {
			return nil, err
		}
		p.Add(line)
		if opts.Legend {
			p.Legend.Add(s.label, line)
		}
	}

	finishPanel(p, xmin, xmax, ymin, ymax, opts)
	return p, nil
}

// newPanel creates an empty panel with an inverted voltage axis.
func newPanel(opts Options) *plot.Plot {
	p := plot.New()
	p.Title.Text = opts.Title
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())
	p.Legend.Left = true
	return p
}

// finishPanel fixes the axis ranges and draws highlight windows and zero
// axes underneath the already-added curves.
func finishPanel(p *plot.Plot, xmin, xmax, ymin, ymax float64, opts Options) {
	pad := 0.05 * (ymax - ymin)
	if pad == 0 {
		pad = 1
	}
	ymin, ymax = ymin-pad, ymax+pad
	if opts.YMin != nil && opts.YMax != nil {
		ymin, ymax = *opts.YMin, *opts.YMax
	}
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = ymin, ymax

	grey := namedColors["grey"]
	for _, w := range opts.Highlights {
		rect := plotter.XYs{
			{X: w.Start, Y: ymin}, {X: w.Start, Y: ymax},
			{X: w.End, Y: ymax}, {X: w.End, Y: ymin},
		}
		poly, err := plotter.NewPolygon(rect)
		if err != nil {
			continue
		}
		poly.Color = fade(grey)
		poly.LineStyle.Width = 0
		p.Add(poly)
	}

	if zero, err := newLine([]float64{xmin, xmax}, []float64{0, 0}, namedColors["black"]); err == nil {
		p.Add(zero)
	}
	if xmin < 0 && xmax > 0 {
		if zero, err := newLine([]float64{0, 0}, []float64{ymin, ymax}, namedColors["black"]); err == nil {
			p.Add(zero)
		}
	}
}

func newLine(xs, ys []float64, c color.Color) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1.5)
	return line, nil
}

func (s *series) sortByX() {
	idx := make([]int, len(s.xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return s.xs[idx[a]] < s.xs[idx[b]] })
	xs := make([]float64, len(idx))
	ys := make([]float64, len(idx))
	ses := make([]float64, len(idx))
	for i, j := range idx {
		xs[i], ys[i], ses[i] = s.xs[j], s.ys[j], s.ses[j]
	}
	s.xs, s.ys, s.ses = xs, ys, ses
}

func (s *series) rangeY() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, y := range s.ys {
		lo, hi = math.Min(lo, y), math.Max(hi, y)
	}
	return lo, hi
}

func byIndex(by []string, name string) (int, error) {
	for i, have := range by {
		if have == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("summary has no descriptor %q", name)
}
