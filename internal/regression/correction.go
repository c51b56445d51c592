// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package regression

import (
	"fmt"
	"sort"

	"github.com/pdiddy/rerps/pkg/types"
)

// AdjustPValues applies the Benjamini-Hochberg procedure to the p values
// of a model set fitted per timestamp. Adjustment runs separately per
// coefficient and per time window, pooling the window's samples across
// the named electrodes; p values outside every window are set to 1.
// Windows are treated end-inclusive on the sample grid. The input is not
// modified.
func AdjustPValues(ms *ModelSet, tsVar string, windows []types.Window, electrodes []string) (*ModelSet, error) {
	if len(ms.GroupBy) != 1 || ms.GroupBy[0] != tsVar {
		return nil, fmt.Errorf("p-value correction needs models grouped by %q alone, have %v", tsVar, ms.GroupBy)
	}

	elecIdx := ms.electrodeIndex()
	elecs := make([]int, len(electrodes))
	for i, name := range electrodes {
		e, ok := elecIdx[name]
		if !ok {
			return nil, fmt.Errorf("no fitted model for electrode %q", name)
		}
		elecs[i] = e
	}

	adj := ms.Copy()
	for gi := range adj.Groups {
		for e := range adj.Groups[gi].Cells {
			for c := range adj.Groups[gi].Cells[e] {
				adj.Groups[gi].Cells[e][c].P = 1
			}
		}
	}

	for c := range ms.Coefficients {
		for _, w := range windows {
			var groups []int
			for gi, g := range ms.Groups {
				if g.Key[0].Numeric && w.ContainsClosed(g.Key[0].Num) {
					groups = append(groups, gi)
				}
			}
			if len(groups) == 0 {
				continue
			}

			pvals := make([]float64, 0, len(groups)*len(elecs))
			for _, gi := range groups {
				for _, e := range elecs {
					pvals = append(pvals, ms.Groups[gi].Cells[e][c].P)
				}
			}
			adjusted := benjaminiHochberg(pvals)

			i := 0
			for _, gi := range groups {
				for _, e := range elecs {
					adj.Groups[gi].Cells[e][c].P = adjusted[i]
					i++
				}
			}
		}
	}

	return adj, nil
}

// benjaminiHochberg returns BH-adjusted p values, following p.adjust()
// in R: pmin(1, cummin(n/i * p[o]))[ro] over p sorted in decreasing
// order.
func benjaminiHochberg(p []float64) []float64 {
	n := len(p)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return p[order[a]] > p[order[b]] })

	adjusted := make([]float64, n)
	runningMin := 1.0
	for k, idx := range order {
		// Rank i runs from n down to 1 along the decreasing sort.
		rank := float64(n - k)
		v := float64(n) / rank * p[idx]
		if v < runningMin {
			runningMin = v
		}
		adjusted[idx] = runningMin
	}
	return adjusted
}
