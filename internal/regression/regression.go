// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package regression fits per-group ordinary least squares models of
// electrode voltage on experimental predictors and estimates rERP
// waveforms from the fitted coefficients, after:
//
//	Smith, N.J., Kutas, M., Regression-based estimation of ERP waveforms:
//	I. The rERP framework, Psychophysiology, 2015, Vol. 52, pp. 157-168.
package regression

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pdiddy/rerps/internal/dataset"
)

// Intercept is the name of the constant coefficient.
const Intercept = "(intercept)"

// Cell holds the fit statistics for one electrode and one coefficient.
type Cell struct {
	Beta float64
	SE   float64
	T    float64
	P    float64
}

// Group is the fitted model for one combination of grouping descriptors,
// e.g. one subject at one timestamp.
type Group struct {
	// Key holds the values of the grouping descriptors, in GroupBy order.
	Key []dataset.Value

	// Cells is indexed [electrode][coefficient], in ModelSet order.
	Cells [][]Cell
}

// ModelSet holds per-group linear fits for every electrode.
type ModelSet struct {
	// GroupBy names the descriptors that split the data into model groups.
	GroupBy []string

	// Coefficients names the fitted coefficients: Intercept followed by
	// the independent variables.
	Coefficients []string

	// Electrodes names the dependent measures, one fit per electrode.
	Electrodes []string

	Groups []Group
}

// Copy returns a deep copy of the model set.
func (ms *ModelSet) Copy() *ModelSet {
	out := &ModelSet{
		GroupBy:      append([]string(nil), ms.GroupBy...),
		Coefficients: append([]string(nil), ms.Coefficients...),
		Electrodes:   append([]string(nil), ms.Electrodes...),
		Groups:       make([]Group, len(ms.Groups)),
	}
	for i, g := range ms.Groups {
		cells := make([][]Cell, len(g.Cells))
		for e := range g.Cells {
			cells[e] = append([]Cell(nil), g.Cells[e]...)
		}
		out.Groups[i] = Group{Key: append([]dataset.Value(nil), g.Key...), Cells: cells}
	}
	return out
}

// groupKey formats a descriptor key for lookup.
func groupKey(vals []dataset.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, "\x1f")
}

// Regress fits one linear model per grouping-descriptor combination and
// per electrode, regressing voltage on the named independent variables.
// The dependent variables are all electrodes of ds; rows are grouped by
// the groupBy descriptors (typically Subject and Timestamp, or Timestamp
// alone for across-subjects fits). Every group needs more rows than
// coefficients and a full-rank design.
func Regress(ds *dataset.DataSet, groupBy, ivs []string) (*ModelSet, error) {
	work := ds.Copy()
	if err := work.SortBy(groupBy...); err != nil {
		return nil, err
	}
	spans, err := work.Splits(groupBy...)
	if err != nil {
		return nil, err
	}

	ivCols := make([]*dataset.Column, len(ivs))
	for i, name := range ivs {
		c, err := work.Column(name)
		if err != nil {
			return nil, err
		}
		if c.Role != dataset.Predictor {
			return nil, fmt.Errorf("independent variable %q is a %s, not a predictor", name, c.Role)
		}
		ivCols[i] = c
	}
	electrodes := work.Electrodes()
	elecCols := make([]*dataset.Column, len(electrodes))
	for i, name := range electrodes {
		elecCols[i], _ = work.Column(name)
	}

	ms := &ModelSet{
		GroupBy:      append([]string(nil), groupBy...),
		Coefficients: append([]string{Intercept}, ivs...),
		Electrodes:   electrodes,
		Groups:       make([]Group, 0, len(spans)),
	}
	ncoef := len(ms.Coefficients)

	for _, span := range spans {
		n := span.Len()
		df := n - ncoef
		if df < 1 {
			key, _ := work.Key(groupBy, span.Lo)
			return nil, fmt.Errorf("group %s: %d rows leave no residual degrees of freedom for %d coefficients",
				groupKey(key), n, ncoef)
		}

		x := mat.NewDense(n, ncoef, nil)
		y := mat.NewDense(n, len(elecCols), nil)
		for r := 0; r < n; r++ {
			x.Set(r, 0, 1)
			for c, iv := range ivCols {
				x.Set(r, c+1, iv.Floats[span.Lo+r])
			}
			for e, elec := range elecCols {
				y.Set(r, e, elec.Floats[span.Lo+r])
			}
		}

		var beta mat.Dense
		if err := beta.Solve(x, y); err != nil {
			key, _ := work.Key(groupBy, span.Lo)
			return nil, fmt.Errorf("group %s: rank-deficient design matrix: %w", groupKey(key), err)
		}

		// Residual sum of squares per electrode.
		var fitted mat.Dense
		fitted.Mul(x, &beta)
		rss := make([]float64, len(elecCols))
		for r := 0; r < n; r++ {
			for e := range elecCols {
				d := y.At(r, e) - fitted.At(r, e)
				rss[e] += d * d
			}
		}

		// Diagonal of (X'X)^-1 for the coefficient standard errors.
		var gram, gramInv mat.Dense
		gram.Mul(x.T(), x)
		if err := gramInv.Inverse(&gram); err != nil {
			key, _ := work.Key(groupBy, span.Lo)
			return nil, fmt.Errorf("group %s: singular design matrix: %w", groupKey(key), err)
		}

		tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
		key, _ := work.Key(groupBy, span.Lo)
		cells := make([][]Cell, len(elecCols))
		for e := range elecCols {
			cells[e] = make([]Cell, ncoef)
			s2 := rss[e] / float64(df)
			for c := 0; c < ncoef; c++ {
				b := beta.At(c, e)
				se := math.Sqrt(s2 * gramInv.At(c, c))
				t := b / se
				p := 2 * (1 - tdist.CDF(math.Abs(t)))
				if se == 0 {
					// Perfect fit: the coefficient is exact. A zero
					// coefficient is exactly no effect, not an
					// infinitely significant one.
					if b == 0 {
						t, p = 0, 1
					} else {
						t = math.Inf(sign(b))
						p = 0
					}
				}
				cells[e][c] = Cell{Beta: b, SE: se, T: t, P: p}
			}
		}
		ms.Groups = append(ms.Groups, Group{Key: key, Cells: cells})
	}

	return ms, nil
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

// electrodeIndex maps electrode names to cell indices.
func (ms *ModelSet) electrodeIndex() map[string]int {
	idx := make(map[string]int, len(ms.Electrodes))
	for i, e := range ms.Electrodes {
		idx[e] = i
	}
	return idx
}
