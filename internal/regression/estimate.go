// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package regression

import (
	"fmt"

	"github.com/pdiddy/rerps/internal/dataset"
)

// Estimate computes rERP waveforms from fitted models: for every row of
// ds, each electrode becomes b0 + sum(bi * xi) using the coefficients of
// the row's model group. The input is not modified. Rows whose group has
// no fitted model are an error.
func Estimate(ds *dataset.DataSet, ms *ModelSet) (*dataset.DataSet, error) {
	est := ds.Copy()
	if err := est.SortBy(ms.GroupBy...); err != nil {
		return nil, err
	}
	spans, err := est.Splits(ms.GroupBy...)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*Group, len(ms.Groups))
	for i := range ms.Groups {
		groups[groupKey(ms.Groups[i].Key)] = &ms.Groups[i]
	}

	ivs := ms.Coefficients[1:]
	ivCols := make([]*dataset.Column, len(ivs))
	for i, name := range ivs {
		c, err := est.Column(name)
		if err != nil {
			return nil, fmt.Errorf("model predictor %q missing from data: %w", name, err)
		}
		ivCols[i] = c
	}
	elecIdx := ms.electrodeIndex()
	for _, name := range est.Electrodes() {
		if _, ok := elecIdx[name]; !ok {
			return nil, fmt.Errorf("no fitted model for electrode %q", name)
		}
	}

	for _, span := range spans {
		key, _ := est.Key(ms.GroupBy, span.Lo)
		g, ok := groups[groupKey(key)]
		if !ok {
			return nil, fmt.Errorf("no fitted model for group %s", groupKey(key))
		}
		for _, name := range est.Electrodes() {
			col, _ := est.Column(name)
			cells := g.Cells[elecIdx[name]]
			for row := span.Lo; row < span.Hi; row++ {
				v := cells[0].Beta
				for i, iv := range ivCols {
					v += cells[i+1].Beta * iv.Floats[row]
				}
				col.Floats[row] = v
			}
		}
	}

	return est, nil
}

// Residuals subtracts estimated from observed voltages electrode-wise.
// Both sets are sorted by all descriptors first and must describe the
// same rows.
func Residuals(obs, est *dataset.DataSet) (*dataset.DataSet, error) {
	if obs.Len() != est.Len() {
		return nil, fmt.Errorf("observed has %d rows, estimated %d", obs.Len(), est.Len())
	}

	res := obs.Copy()
	if err := res.DefaultSort(); err != nil {
		return nil, err
	}
	sortedEst := est.Copy()
	if err := sortedEst.DefaultSort(); err != nil {
		return nil, err
	}

	descriptors := res.Descriptors()
	for row := 0; row < res.Len(); row++ {
		ka, _ := res.Key(descriptors, row)
		kb, err := sortedEst.Key(descriptors, row)
		if err != nil {
			return nil, err
		}
		if groupKey(ka) != groupKey(kb) {
			return nil, fmt.Errorf("row %d: descriptor mismatch between observed (%s) and estimated (%s)",
				row, groupKey(ka), groupKey(kb))
		}
	}

	for _, name := range res.Electrodes() {
		o, _ := res.Column(name)
		e, err := sortedEst.Column(name)
		if err != nil {
			return nil, fmt.Errorf("estimated set: %w", err)
		}
		for i := range o.Floats {
			o.Floats[i] -= e.Floats[i]
		}
	}

	return res, nil
}
