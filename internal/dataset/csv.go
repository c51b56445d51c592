// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Schema names the columns to read from a wide CSV file, by role. Columns
// present in the file but absent from the schema are ignored.
type Schema struct {
	Descriptors []string
	Electrodes  []string
	Predictors  []string
}

// Load reads the schema's columns from a wide-format CSV file. Electrode
// and predictor cells must parse as floats. Descriptor columns become
// numeric when every cell parses as a float, string columns otherwise.
func Load(path string, schema Schema) (*DataSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()
	ds, err := Read(f, schema)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ds, nil
}

// Read reads CSV data from r according to the schema.
func Read(r io.Reader, schema Schema) (*DataSet, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}

	type pick struct {
		col *Column
		src int
		raw []string
	}
	var picks []*pick
	add := func(names []string, role Role) error {
		for _, name := range names {
			src, ok := pos[name]
			if !ok {
				return fmt.Errorf("no column %q in data file", name)
			}
			picks = append(picks, &pick{
				col: &Column{Name: name, Role: role, Numeric: role != Descriptor},
				src: src,
			})
		}
		return nil
	}
	if err := add(schema.Descriptors, Descriptor); err != nil {
		return nil, err
	}
	if err := add(schema.Electrodes, Electrode); err != nil {
		return nil, err
	}
	if err := add(schema.Predictors, Predictor); err != nil {
		return nil, err
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		for _, p := range picks {
			cell := record[p.src]
			if p.col.Role == Descriptor {
				p.raw = append(p.raw, cell)
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %q: %q is not a number", line, p.col.Name, cell)
			}
			p.col.Floats = append(p.col.Floats, v)
		}
	}

	// Descriptor columns become numeric only when every cell parses.
	for _, p := range picks {
		if p.col.Role != Descriptor {
			continue
		}
		floats := make([]float64, len(p.raw))
		numeric := true
		for i, cell := range p.raw {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				numeric = false
				break
			}
			floats[i] = v
		}
		if numeric {
			p.col.Numeric = true
			p.col.Floats = floats
		} else {
			p.col.Strings = p.raw
		}
	}

	cols := make([]*Column, len(picks))
	for i, p := range picks {
		cols[i] = p.col
	}
	return New(cols)
}

// Save writes the dataset as CSV, descriptor columns first, then
// electrodes, then predictors.
func (ds *DataSet) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := ds.Write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Write writes the dataset as CSV to w.
func (ds *DataSet) Write(w io.Writer) error {
	cw := csv.NewWriter(w)

	var ordered []*Column
	for _, role := range []Role{Descriptor, Electrode, Predictor} {
		for _, name := range ds.Names(role) {
			c, _ := ds.Column(name)
			ordered = append(ordered, c)
		}
	}

	header := make([]string, len(ordered))
	for i, c := range ordered {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(ordered))
	for row := 0; row < ds.Len(); row++ {
		for i, c := range ordered {
			record[i] = c.Value(row).String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
