// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summary

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Save writes the summary as CSV: the grouping descriptors, a mean
// column per electrode, then an se column per electrode.
func (s *DataSummary) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := s.Write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Write writes the summary as CSV to w.
func (s *DataSummary) Write(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string(nil), s.By...)
	for _, e := range s.Electrodes {
		header = append(header, e+":mean")
	}
	for _, e := range s.Electrodes {
		header = append(header, e+":se")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, 0, len(header))
	for _, g := range s.Groups {
		record = record[:0]
		for _, v := range g.Key {
			record = append(record, v.String())
		}
		for _, m := range g.Mean {
			record = append(record, strconv.FormatFloat(m, 'g', -1, 64))
		}
		for _, se := range g.SE {
			record = append(record, strconv.FormatFloat(se, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
