// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Window is a latency range in milliseconds. Start is inclusive. End is
// exclusive for filtering and averaging, and inclusive on the sample grid
// for p-value correction.
type Window struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Contains reports whether t falls inside the window (end-exclusive).
func (w Window) Contains(t float64) bool {
	return t >= w.Start && t < w.End
}

// ContainsClosed reports whether t falls inside the window, end included.
func (w Window) ContainsClosed(t float64) bool {
	return t >= w.Start && t <= w.End
}

// Label returns the window formatted for file names, e.g. "300-500".
func (w Window) Label() string {
	return fmt.Sprintf("%g-%g", w.Start, w.End)
}

// Valid reports whether the window is non-empty.
func (w Window) Valid() bool {
	return w.End > w.Start
}
