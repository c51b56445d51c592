// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summary

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pdiddy/rerps/internal/dataset"
	"github.com/pdiddy/rerps/pkg/types"
)

// WindowRow is one per-condition per-subject per-electrode mean voltage
// inside a time window, the long format consumed by downstream
// statistical tests.
type WindowRow struct {
	Condition string
	Subject   string
	Electrode string
	Mean      float64
}

// WindowAverages averages each electrode per condition and subject over
// the samples inside the window (end-exclusive).
func WindowAverages(ds *dataset.DataSet, condVar, subjVar, tsVar string, w types.Window) ([]WindowRow, error) {
	windowed, err := ds.FilterWindow(tsVar, w)
	if err != nil {
		return nil, err
	}
	if windowed.Len() == 0 {
		return nil, fmt.Errorf("window %s contains no samples", w.Label())
	}

	s, err := Data(windowed, condVar, subjVar)
	if err != nil {
		return nil, err
	}

	rows := make([]WindowRow, 0, len(s.Groups)*len(s.Electrodes))
	for _, g := range s.Groups {
		for e, name := range s.Electrodes {
			rows = append(rows, WindowRow{
				Condition: g.Key[0].String(),
				Subject:   g.Key[1].String(),
				Electrode: name,
				Mean:      g.Mean[e],
			})
		}
	}
	return rows, nil
}

// SaveWindowRows writes window averages as long-format CSV with the
// columns cond, subject, ch, eeg.
func SaveWindowRows(path string, rows []WindowRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteWindowRows(f, rows); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// WriteWindowRows writes window averages as CSV to w.
func WriteWindowRows(w io.Writer, rows []WindowRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cond", "subject", "ch", "eeg"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.Condition, r.Subject, r.Electrode, strconv.FormatFloat(r.Mean, 'g', -1, 64)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
