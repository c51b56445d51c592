// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"fmt"
	"sort"
)

// Span marks a contiguous run of rows, Lo inclusive, Hi exclusive.
type Span struct {
	Lo, Hi int
}

// Len returns the number of rows in the span.
func (s Span) Len() int { return s.Hi - s.Lo }

// SortBy stable-sorts rows by the named descriptor columns, first name
// outermost.
func (ds *DataSet) SortBy(keys ...string) error {
	cols, err := ds.keyColumns(keys)
	if err != nil {
		return err
	}

	perm := make([]int, ds.Len())
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		ra, rb := perm[a], perm[b]
		for _, c := range cols {
			if cmp := c.Value(ra).Compare(c.Value(rb)); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})

	for _, c := range ds.cols {
		if c.Numeric {
			next := make([]float64, len(c.Floats))
			for i, p := range perm {
				next[i] = c.Floats[p]
			}
			c.Floats = next
		} else {
			next := make([]string, len(c.Strings))
			for i, p := range perm {
				next[i] = c.Strings[p]
			}
			c.Strings = next
		}
	}
	return nil
}

// DefaultSort sorts by all descriptors so two datasets with identical
// descriptors can be compared row by row.
func (ds *DataSet) DefaultSort() error {
	return ds.SortBy(ds.Descriptors()...)
}

// Splits returns the contiguous group spans over rows already sorted by
// the given keys. A new group starts whenever any key column changes.
func (ds *DataSet) Splits(keys ...string) ([]Span, error) {
	cols, err := ds.keyColumns(keys)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, nil
	}

	var spans []Span
	lo := 0
	for row := 1; row < ds.Len(); row++ {
		for _, c := range cols {
			if !c.Value(row).Equal(c.Value(row - 1)) {
				spans = append(spans, Span{Lo: lo, Hi: row})
				lo = row
				break
			}
		}
	}
	return append(spans, Span{Lo: lo, Hi: ds.Len()}), nil
}

// Key returns the values of the key columns at a row.
func (ds *DataSet) Key(keys []string, row int) ([]Value, error) {
	cols, err := ds.keyColumns(keys)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(cols))
	for i, c := range cols {
		out[i] = c.Value(row)
	}
	return out, nil
}

func (ds *DataSet) keyColumns(keys []string) ([]*Column, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no sort keys given")
	}
	cols := make([]*Column, len(keys))
	for i, k := range keys {
		c, err := ds.column(k, Descriptor)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return cols, nil
}

// sortValues orders a slice of same-kind values.
func sortValues(vs []Value) {
	sort.SliceStable(vs, func(a, b int) bool { return vs[a].Compare(vs[b]) < 0 })
}
