// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import "strconv"

// Value is a single cell: either a number or a string level. Columns are
// homogeneous, so comparisons only ever see values of the same kind.
type Value struct {
	Num     float64
	Str     string
	Numeric bool
}

// Num returns a numeric Value.
func Num(v float64) Value {
	return Value{Num: v, Numeric: true}
}

// Str returns a string Value.
func Str(s string) Value {
	return Value{Str: s}
}

// String formats the value for CSV output and group labels.
func (v Value) String() string {
	if v.Numeric {
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
	return v.Str
}

// Compare orders two values of the same kind: -1, 0, or 1.
func (v Value) Compare(o Value) int {
	if v.Numeric {
		switch {
		case v.Num < o.Num:
			return -1
		case v.Num > o.Num:
			return 1
		}
		return 0
	}
	switch {
	case v.Str < o.Str:
		return -1
	case v.Str > o.Str:
		return 1
	}
	return 0
}

// Equal reports whether two values are identical.
func (v Value) Equal(o Value) bool {
	return v.Compare(o) == 0
}

// compareKeys orders two multi-column keys lexicographically.
func compareKeys(a, b []Value) int {
	for i := range a {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	return 0
}
