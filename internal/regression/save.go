// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package regression

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Save writes the fitted coefficients as wide CSV: the grouping
// descriptors followed by beta:ELECTRODE:COEFFICIENT columns, then se:,
// tval:, and pval: blocks in the same order.
func (ms *ModelSet) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := ms.Write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// Write writes the fitted coefficients as CSV to w.
func (ms *ModelSet) Write(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string(nil), ms.GroupBy...)
	for _, stat := range []string{"beta", "se", "tval", "pval"} {
		for _, e := range ms.Electrodes {
			for _, c := range ms.Coefficients {
				header = append(header, stat+":"+e+":"+c)
			}
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, 0, len(header))
	for _, g := range ms.Groups {
		record = record[:0]
		for _, v := range g.Key {
			record = append(record, v.String())
		}
		for _, pick := range []func(Cell) float64{
			func(c Cell) float64 { return c.Beta },
			func(c Cell) float64 { return c.SE },
			func(c Cell) float64 { return c.T },
			func(c Cell) float64 { return c.P },
		} {
			for e := range ms.Electrodes {
				for c := range ms.Coefficients {
					record = append(record, strconv.FormatFloat(pick(g.Cells[e][c]), 'g', -1, 64))
				}
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
