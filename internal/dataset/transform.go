// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/rerps/pkg/types"
)

// ZScore transforms a predictor into z-scores.
func (ds *DataSet) ZScore(predictor string) error {
	c, err := ds.column(predictor, Predictor)
	if err != nil {
		return err
	}
	mean, sd := stat.MeanStdDev(c.Floats, nil)
	if sd == 0 {
		return fmt.Errorf("predictor %q has zero variance", predictor)
	}
	for i, v := range c.Floats {
		c.Floats[i] = (v - mean) / sd
	}
	return nil
}

// Negate flips the sign of a predictor.
func (ds *DataSet) Negate(predictor string) error {
	c, err := ds.column(predictor, Predictor)
	if err != nil {
		return err
	}
	for i, v := range c.Floats {
		c.Floats[i] = -v
	}
	return nil
}

// Invert subtracts every predictor value from max. When max is NaN the
// observed maximum is used.
func (ds *DataSet) Invert(predictor string, max float64) error {
	c, err := ds.column(predictor, Predictor)
	if err != nil {
		return err
	}
	if math.IsNaN(max) {
		max = math.Inf(-1)
		for _, v := range c.Floats {
			if v > max {
				max = v
			}
		}
	}
	for i, v := range c.Floats {
		c.Floats[i] = max - v
	}
	return nil
}

// Log replaces a predictor with log(x + offset).
func (ds *DataSet) Log(predictor string, offset float64) error {
	c, err := ds.column(predictor, Predictor)
	if err != nil {
		return err
	}
	for i, v := range c.Floats {
		shifted := v + offset
		if shifted <= 0 {
			return fmt.Errorf("predictor %q: log of non-positive value %g", predictor, shifted)
		}
		c.Floats[i] = math.Log(shifted)
	}
	return nil
}

// SetConstant overwrites every value of a predictor, e.g. zeroing a
// regressor to isolate the remaining components of an estimate.
func (ds *DataSet) SetConstant(predictor string, v float64) error {
	c, err := ds.column(predictor, Predictor)
	if err != nil {
		return err
	}
	for i := range c.Floats {
		c.Floats[i] = v
	}
	return nil
}

// FilterLevel returns a copy containing only rows where the descriptor
// equals level.
func (ds *DataSet) FilterLevel(descriptor, level string) (*DataSet, error) {
	c, err := ds.column(descriptor, Descriptor)
	if err != nil {
		return nil, err
	}
	if c.Numeric {
		return nil, fmt.Errorf("descriptor %q is numeric, has no levels", descriptor)
	}
	return ds.filter(func(row int) bool { return c.Strings[row] == level }), nil
}

// FilterWindow returns a copy containing only rows whose timestamp falls
// inside the window (end-exclusive).
func (ds *DataSet) FilterWindow(tsVar string, w types.Window) (*DataSet, error) {
	c, err := ds.column(tsVar, Descriptor)
	if err != nil {
		return nil, err
	}
	if !c.Numeric {
		return nil, fmt.Errorf("descriptor %q is not numeric", tsVar)
	}
	return ds.filter(func(row int) bool { return w.Contains(c.Floats[row]) }), nil
}
