// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset holds wide-format Event-Related Potentials data: one row
// per sample, with descriptor columns identifying the row (subject,
// timestamp, condition, item), electrode columns holding voltages, and
// predictor columns holding experimental regressors.
package dataset

import "fmt"

// Role classifies a column's function in the analysis.
type Role int

const (
	// Descriptor columns identify rows and drive grouping and sorting.
	Descriptor Role = iota
	// Electrode columns hold voltages, the dependent measures.
	Electrode
	// Predictor columns hold regressors, the independent variables.
	Predictor
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case Descriptor:
		return "descriptor"
	case Electrode:
		return "electrode"
	case Predictor:
		return "predictor"
	}
	return "unknown"
}

// Column is a named column of homogeneous values. Electrode and predictor
// columns are always numeric; descriptor columns are numeric when every
// source cell parses as a float, string otherwise.
type Column struct {
	Name    string
	Role    Role
	Numeric bool
	Floats  []float64
	Strings []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Value returns the cell at row i.
func (c *Column) Value(i int) Value {
	if c.Numeric {
		return Num(c.Floats[i])
	}
	return Str(c.Strings[i])
}

// DataSet is a column-oriented wide ERP table.
type DataSet struct {
	cols  []*Column
	index map[string]int
}

// New assembles a DataSet from columns. All columns must have equal length
// and unique names.
func New(cols []*Column) (*DataSet, error) {
	ds := &DataSet{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, ok := ds.index[c.Name]; ok {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		ds.index[c.Name] = i
		if c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), cols[0].Len())
		}
	}
	return ds, nil
}

// Len returns the number of rows.
func (ds *DataSet) Len() int {
	if len(ds.cols) == 0 {
		return 0
	}
	return ds.cols[0].Len()
}

// Column returns the named column.
func (ds *DataSet) Column(name string) (*Column, error) {
	i, ok := ds.index[name]
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	return ds.cols[i], nil
}

// column returns the named column restricted to a role.
func (ds *DataSet) column(name string, role Role) (*Column, error) {
	c, err := ds.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Role != role {
		return nil, fmt.Errorf("column %q is a %s, not a %s", name, c.Role, role)
	}
	return c, nil
}

// Names returns the names of all columns with the given role, in order.
func (ds *DataSet) Names(role Role) []string {
	var names []string
	for _, c := range ds.cols {
		if c.Role == role {
			names = append(names, c.Name)
		}
	}
	return names
}

// Descriptors returns the descriptor column names.
func (ds *DataSet) Descriptors() []string { return ds.Names(Descriptor) }

// Electrodes returns the electrode column names.
func (ds *DataSet) Electrodes() []string { return ds.Names(Electrode) }

// Predictors returns the predictor column names.
func (ds *DataSet) Predictors() []string { return ds.Names(Predictor) }

// Copy returns a deep copy of the dataset.
func (ds *DataSet) Copy() *DataSet {
	cols := make([]*Column, len(ds.cols))
	for i, c := range ds.cols {
		cc := &Column{Name: c.Name, Role: c.Role, Numeric: c.Numeric}
		if c.Numeric {
			cc.Floats = append([]float64(nil), c.Floats...)
		} else {
			cc.Strings = append([]string(nil), c.Strings...)
		}
		cols[i] = cc
	}
	out, _ := New(cols)
	return out
}

// RenameColumn renames a column of any role.
func (ds *DataSet) RenameColumn(name, newName string) error {
	i, ok := ds.index[name]
	if !ok {
		return fmt.Errorf("no column %q", name)
	}
	if _, ok := ds.index[newName]; ok && newName != name {
		return fmt.Errorf("column %q already exists", newName)
	}
	delete(ds.index, name)
	ds.cols[i].Name = newName
	ds.index[newName] = i
	return nil
}

// RenameLevel rewrites every occurrence of a level in a descriptor.
// Recoding a numeric descriptor turns it into a string descriptor, the
// usual case when condition codes become condition labels.
func (ds *DataSet) RenameLevel(descriptor, level, newLevel string) error {
	c, err := ds.column(descriptor, Descriptor)
	if err != nil {
		return err
	}
	if c.Numeric {
		c.Strings = make([]string, len(c.Floats))
		for i, f := range c.Floats {
			c.Strings[i] = Num(f).String()
		}
		c.Floats = nil
		c.Numeric = false
	}
	for i, s := range c.Strings {
		if s == level {
			c.Strings[i] = newLevel
		}
	}
	return nil
}

// Levels returns the sorted distinct values of a column.
func (ds *DataSet) Levels(name string) ([]Value, error) {
	c, err := ds.Column(name)
	if err != nil {
		return nil, err
	}
	return distinct(c), nil
}

func distinct(c *Column) []Value {
	seen := make(map[string]bool)
	var out []Value
	for i := 0; i < c.Len(); i++ {
		v := c.Value(i)
		k := v.String()
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	sortValues(out)
	return out
}

// filter returns a copy containing only rows where keep is true.
func (ds *DataSet) filter(keep func(row int) bool) *DataSet {
	cols := make([]*Column, len(ds.cols))
	for i, c := range ds.cols {
		cols[i] = &Column{Name: c.Name, Role: c.Role, Numeric: c.Numeric}
	}
	for row := 0; row < ds.Len(); row++ {
		if !keep(row) {
			continue
		}
		for i, c := range ds.cols {
			if c.Numeric {
				cols[i].Floats = append(cols[i].Floats, c.Floats[row])
			} else {
				cols[i].Strings = append(cols[i].Strings, c.Strings[row])
			}
		}
	}
	out, _ := New(cols)
	return out
}
