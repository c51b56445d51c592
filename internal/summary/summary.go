// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summary aggregates data and model sets into grand averages
// with standard errors, the inputs for waveform and coefficient figures.
package summary

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/rerps/internal/dataset"
	"github.com/pdiddy/rerps/internal/regression"
)

// DataGroup holds the per-electrode mean voltage and standard error for
// one combination of grouping descriptors.
type DataGroup struct {
	Key  []dataset.Value
	Mean []float64
	SE   []float64
}

// DataSummary holds grand averages of a data set.
type DataSummary struct {
	By         []string
	Electrodes []string
	Groups     []DataGroup
}

// Data summarizes a data set: per combination of the given descriptors,
// the mean and standard error of every electrode. Singleton groups get a
// standard error of zero. The input is not modified.
func Data(ds *dataset.DataSet, by ...string) (*DataSummary, error) {
	work := ds.Copy()
	if err := work.SortBy(by...); err != nil {
		return nil, err
	}
	spans, err := work.Splits(by...)
	if err != nil {
		return nil, err
	}

	electrodes := work.Electrodes()
	cols := make([]*dataset.Column, len(electrodes))
	for i, name := range electrodes {
		cols[i], _ = work.Column(name)
	}

	s := &DataSummary{
		By:         append([]string(nil), by...),
		Electrodes: electrodes,
		Groups:     make([]DataGroup, 0, len(spans)),
	}
	for _, span := range spans {
		key, _ := work.Key(by, span.Lo)
		g := DataGroup{
			Key:  key,
			Mean: make([]float64, len(cols)),
			SE:   make([]float64, len(cols)),
		}
		for e, c := range cols {
			vals := c.Floats[span.Lo:span.Hi]
			if len(vals) > 1 {
				mean, sd := stat.MeanStdDev(vals, nil)
				g.Mean[e] = mean
				g.SE[e] = sd / math.Sqrt(float64(len(vals)))
			} else {
				g.Mean[e] = vals[0]
			}
		}
		s.Groups = append(s.Groups, g)
	}
	return s, nil
}

// Collapse re-summarizes the summary's means over a subset of its
// grouping descriptors, e.g. collapsing per-subject averages spanning
// Condition, Subject and Timestamp into grand averages per Condition and
// Timestamp.
func (s *DataSummary) Collapse(by ...string) (*DataSummary, error) {
	keep := make([]int, len(by))
	for i, name := range by {
		found := -1
		for j, have := range s.By {
			if have == name {
				found = j
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("summary has no descriptor %q", name)
		}
		keep[i] = found
	}

	type bucket struct {
		key  []dataset.Value
		vals [][]float64 // [electrode][observation]
	}
	var order []string
	buckets := make(map[string]*bucket)
	for _, g := range s.Groups {
		key := make([]dataset.Value, len(keep))
		for i, j := range keep {
			key[i] = g.Key[j]
		}
		k := keyString(key)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{key: key, vals: make([][]float64, len(s.Electrodes))}
			buckets[k] = b
			order = append(order, k)
		}
		for e, m := range g.Mean {
			b.vals[e] = append(b.vals[e], m)
		}
	}

	out := &DataSummary{
		By:         append([]string(nil), by...),
		Electrodes: append([]string(nil), s.Electrodes...),
		Groups:     make([]DataGroup, 0, len(order)),
	}
	for _, k := range order {
		b := buckets[k]
		g := DataGroup{
			Key:  b.key,
			Mean: make([]float64, len(s.Electrodes)),
			SE:   make([]float64, len(s.Electrodes)),
		}
		for e, vals := range b.vals {
			if len(vals) > 1 {
				mean, sd := stat.MeanStdDev(vals, nil)
				g.Mean[e] = mean
				g.SE[e] = sd / math.Sqrt(float64(len(vals)))
			} else {
				g.Mean[e] = vals[0]
			}
		}
		out.Groups = append(out.Groups, g)
	}
	out.sort()
	return out, nil
}

// Levels returns the sorted distinct values of a grouping descriptor.
func (s *DataSummary) Levels(name string) ([]dataset.Value, error) {
	i := -1
	for j, have := range s.By {
		if have == name {
			i = j
			break
		}
	}
	if i < 0 {
		return nil, fmt.Errorf("summary has no descriptor %q", name)
	}
	seen := make(map[string]bool)
	var out []dataset.Value
	for _, g := range s.Groups {
		v := g.Key[i]
		if !seen[v.String()] {
			seen[v.String()] = true
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Compare(out[b]) < 0 })
	return out, nil
}

// ElectrodeIndex returns the electrode's position, or an error.
func (s *DataSummary) ElectrodeIndex(name string) (int, error) {
	for i, e := range s.Electrodes {
		if e == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("summary has no electrode %q", name)
}

func (s *DataSummary) sort() {
	sort.SliceStable(s.Groups, func(a, b int) bool {
		return compareValueKeys(s.Groups[a].Key, s.Groups[b].Key) < 0
	})
}

func keyString(vals []dataset.Value) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += "\x1f"
		}
		out += v.String()
	}
	return out
}

func compareValueKeys(a, b []dataset.Value) int {
	for i := range a {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// ModelGroup holds per-electrode per-coefficient summary statistics for
// one combination of grouping descriptors.
type ModelGroup struct {
	Key []dataset.Value
	// Mean, SE, T and P are indexed [electrode][coefficient].
	Mean [][]float64
	SE   [][]float64
	T    [][]float64
	P    [][]float64
}

// ModelSummary holds averaged regression coefficients.
type ModelSummary struct {
	By           []string
	Coefficients []string
	Electrodes   []string
	Groups       []ModelGroup
}

// Models summarizes a model set over a subset of its grouping
// descriptors. A group collapsing several fits gets empirically averaged
// coefficients with empirical standard errors, t values of zero and
// p values of one; a singleton group keeps the analytic statistics from
// the least squares solution.
func Models(ms *regression.ModelSet, by ...string) (*ModelSummary, error) {
	keep := make([]int, len(by))
	for i, name := range by {
		found := -1
		for j, have := range ms.GroupBy {
			if have == name {
				found = j
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("models are not grouped by %q", name)
		}
		keep[i] = found
	}

	type bucket struct {
		key    []dataset.Value
		groups []*regression.Group
	}
	var order []string
	buckets := make(map[string]*bucket)
	for i := range ms.Groups {
		g := &ms.Groups[i]
		key := make([]dataset.Value, len(keep))
		for j, k := range keep {
			key[j] = g.Key[k]
		}
		ks := keyString(key)
		b, ok := buckets[ks]
		if !ok {
			b = &bucket{key: key}
			buckets[ks] = b
			order = append(order, ks)
		}
		b.groups = append(b.groups, g)
	}

	ne, nc := len(ms.Electrodes), len(ms.Coefficients)
	out := &ModelSummary{
		By:           append([]string(nil), by...),
		Coefficients: append([]string(nil), ms.Coefficients...),
		Electrodes:   append([]string(nil), ms.Electrodes...),
		Groups:       make([]ModelGroup, 0, len(order)),
	}
	for _, ks := range order {
		b := buckets[ks]
		g := ModelGroup{
			Key:  b.key,
			Mean: newMatrix(ne, nc),
			SE:   newMatrix(ne, nc),
			T:    newMatrix(ne, nc),
			P:    newMatrix(ne, nc),
		}
		for e := 0; e < ne; e++ {
			for c := 0; c < nc; c++ {
				if len(b.groups) == 1 {
					cell := b.groups[0].Cells[e][c]
					g.Mean[e][c] = cell.Beta
					g.SE[e][c] = cell.SE
					g.T[e][c] = cell.T
					g.P[e][c] = cell.P
					continue
				}
				vals := make([]float64, len(b.groups))
				for i, fit := range b.groups {
					vals[i] = fit.Cells[e][c].Beta
				}
				mean, sd := stat.MeanStdDev(vals, nil)
				g.Mean[e][c] = mean
				g.SE[e][c] = sd / math.Sqrt(float64(len(vals)))
				g.P[e][c] = 1
			}
		}
		out.Groups = append(out.Groups, g)
	}
	sort.SliceStable(out.Groups, func(a, b int) bool {
		return compareValueKeys(out.Groups[a].Key, out.Groups[b].Key) < 0
	})
	return out, nil
}

// ElectrodeIndex returns the electrode's position, or an error.
func (s *ModelSummary) ElectrodeIndex(name string) (int, error) {
	for i, e := range s.Electrodes {
		if e == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("summary has no electrode %q", name)
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}
