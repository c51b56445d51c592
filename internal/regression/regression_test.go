// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package regression

import (
	"math"
	"strings"
	"testing"

	"github.com/pdiddy/rerps/internal/dataset"
	"github.com/pdiddy/rerps/pkg/types"
)

func readData(t *testing.T, csv string, schema dataset.Schema) *dataset.DataSet {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(csv), schema)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	return ds
}

func simpleSchema() dataset.Schema {
	return dataset.Schema{
		Descriptors: []string{"Timestamp"},
		Electrodes:  []string{"Fz"},
		Predictors:  []string{"x"},
	}
}

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %.10g, want %.10g", name, got, want)
	}
}

// A three-point fit with known closed-form solution: x = 0,1,2 and
// y = 0,1,1 give intercept 1/6, slope 1/2, slope SE 1/sqrt(12), slope
// t sqrt(3), and slope p exactly 1/3 on one residual degree of freedom.
func TestRegressKnownFit(t *testing.T) {
	ds := readData(t, `Timestamp,Fz,x
0,0,0
0,1,1
0,1,2
`, simpleSchema())

	ms, err := Regress(ds, []string{"Timestamp"}, []string{"x"})
	if err != nil {
		t.Fatalf("Regress() error: %v", err)
	}
	if len(ms.Groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(ms.Groups))
	}
	if len(ms.Coefficients) != 2 || ms.Coefficients[0] != Intercept {
		t.Fatalf("Coefficients = %v", ms.Coefficients)
	}

	cells := ms.Groups[0].Cells[0]
	approx(t, "intercept beta", cells[0].Beta, 1.0/6.0, 1e-12)
	approx(t, "slope beta", cells[1].Beta, 0.5, 1e-12)
	approx(t, "intercept se", cells[0].SE, math.Sqrt(5.0/36.0), 1e-12)
	approx(t, "slope se", cells[1].SE, math.Sqrt(1.0/12.0), 1e-12)
	approx(t, "slope t", cells[1].T, math.Sqrt(3), 1e-12)
	approx(t, "slope p", cells[1].P, 1.0/3.0, 1e-9)
	approx(t, "intercept p", cells[0].P, 0.7322811921, 1e-6)
}

func TestRegressPerfectFit(t *testing.T) {
	ds := readData(t, `Timestamp,Fz,x
0,1,0
0,3,1
0,5,2
`, simpleSchema())

	ms, err := Regress(ds, []string{"Timestamp"}, []string{"x"})
	if err != nil {
		t.Fatalf("Regress() error: %v", err)
	}
	cells := ms.Groups[0].Cells[0]
	approx(t, "slope beta", cells[1].Beta, 2, 1e-9)
	if cells[1].SE != 0 {
		t.Errorf("slope se = %g, want 0", cells[1].SE)
	}
	if !math.IsInf(cells[1].T, 1) {
		t.Errorf("slope t = %g, want +Inf", cells[1].T)
	}
	if cells[1].P != 0 {
		t.Errorf("slope p = %g, want 0", cells[1].P)
	}
}

// A response of all zeros is fitted exactly by a zero coefficient;
// that is exactly no effect, not an infinitely significant one.
func TestRegressPerfectFitZeroCoefficient(t *testing.T) {
	ds := readData(t, `Timestamp,Fz,x
0,0,0
0,0,1
0,0,2
`, simpleSchema())

	ms, err := Regress(ds, []string{"Timestamp"}, nil)
	if err != nil {
		t.Fatalf("Regress() error: %v", err)
	}
	cells := ms.Groups[0].Cells[0]
	if cells[0].Beta != 0 || cells[0].SE != 0 {
		t.Fatalf("beta, se = %g, %g, want 0, 0", cells[0].Beta, cells[0].SE)
	}
	if cells[0].T != 0 {
		t.Errorf("t = %g, want 0", cells[0].T)
	}
	if cells[0].P != 1 {
		t.Errorf("p = %g, want 1", cells[0].P)
	}
}

func TestRegressErrors(t *testing.T) {
	t.Run("no residual degrees of freedom", func(t *testing.T) {
		ds := readData(t, "Timestamp,Fz,x\n0,1,0\n0,2,1\n", simpleSchema())
		if _, err := Regress(ds, []string{"Timestamp"}, []string{"x"}); err == nil {
			t.Error("Regress() should fail with two rows and two coefficients")
		}
	})
	t.Run("rank-deficient design", func(t *testing.T) {
		ds := readData(t, "Timestamp,Fz,x\n0,1,3\n0,2,3\n0,4,3\n0,5,3\n", simpleSchema())
		if _, err := Regress(ds, []string{"Timestamp"}, []string{"x"}); err == nil {
			t.Error("Regress() should reject a constant predictor")
		}
	})
	t.Run("iv is not a predictor", func(t *testing.T) {
		ds := readData(t, "Timestamp,Fz,x\n0,1,0\n0,2,1\n0,3,2\n", simpleSchema())
		if _, err := Regress(ds, []string{"Timestamp"}, []string{"Fz"}); err == nil {
			t.Error("Regress() should reject an electrode as independent variable")
		}
	})
}

const twoGroupCSV = `Subject,Timestamp,Fz,Pz,x
1,0,1,10,0
1,0,3,12,1
2,0,5,20,0
2,0,7,26,1
1,100,2,11,0
1,100,4,13,1
2,100,6,21,0
2,100,8,27,1
`

func twoGroupSchema() dataset.Schema {
	return dataset.Schema{
		Descriptors: []string{"Subject", "Timestamp"},
		Electrodes:  []string{"Fz", "Pz"},
		Predictors:  []string{"x"},
	}
}

func TestRegressInterceptOnlyAndEstimate(t *testing.T) {
	ds := readData(t, twoGroupCSV, twoGroupSchema())

	ms, err := Regress(ds, []string{"Timestamp"}, nil)
	if err != nil {
		t.Fatalf("Regress() error: %v", err)
	}
	if len(ms.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(ms.Groups))
	}
	// Intercept-only fits are the per-timestamp grand means.
	approx(t, "ts 0 Fz mean", ms.Groups[0].Cells[0][0].Beta, 4, 1e-12)
	approx(t, "ts 0 Pz mean", ms.Groups[0].Cells[1][0].Beta, 17, 1e-12)
	approx(t, "ts 100 Fz mean", ms.Groups[1].Cells[0][0].Beta, 5, 1e-12)

	est, err := Estimate(ds, ms)
	if err != nil {
		t.Fatalf("Estimate() error: %v", err)
	}
	fz, _ := est.Column("Fz")
	ts, _ := est.Column("Timestamp")
	for i := range fz.Floats {
		want := 4.0
		if ts.Floats[i] == 100 {
			want = 5.0
		}
		if fz.Floats[i] != want {
			t.Fatalf("estimate row %d (ts %g) = %g, want %g", i, ts.Floats[i], fz.Floats[i], want)
		}
	}
	// The source must be untouched.
	orig, _ := ds.Column("Fz")
	if orig.Floats[0] != 1 {
		t.Error("Estimate() modified its input")
	}
}

func TestEstimateWithPredictors(t *testing.T) {
	ds := readData(t, twoGroupCSV, twoGroupSchema())
	ms, err := Regress(ds, []string{"Subject", "Timestamp"}, []string{"x"})
	if err != nil {
		t.Fatalf("Regress() error: %v", err)
	}
	// With two points per group, each fit is exact.
	est, err := Estimate(ds, ms)
	if err != nil {
		t.Fatalf("Estimate() error: %v", err)
	}

	res, err := Residuals(ds, est)
	if err != nil {
		t.Fatalf("Residuals() error: %v", err)
	}
	for _, name := range res.Electrodes() {
		c, _ := res.Column(name)
		for i, v := range c.Floats {
			if math.Abs(v) > 1e-9 {
				t.Fatalf("%s residual[%d] = %g, want 0", name, i, v)
			}
		}
	}
}

func TestEstimateMissingGroup(t *testing.T) {
	ds := readData(t, twoGroupCSV, twoGroupSchema())
	ms, err := Regress(ds, []string{"Timestamp"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ms.Groups = ms.Groups[:1]
	if _, err := Estimate(ds, ms); err == nil {
		t.Error("Estimate() should fail when a data group has no fitted model")
	}
}

func TestResidualsMismatch(t *testing.T) {
	obs := readData(t, twoGroupCSV, twoGroupSchema())
	est := readData(t, twoGroupCSV, twoGroupSchema())

	short, err := obs.FilterWindow("Timestamp", types.Window{Start: 0, End: 50})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Residuals(short, est); err == nil {
		t.Error("Residuals() should fail on differing row counts")
	}
}

func TestBenjaminiHochberg(t *testing.T) {
	tests := []struct {
		name string
		p    []float64
		want []float64
	}{
		{"equal spacing", []float64{0.01, 0.02, 0.03, 0.04}, []float64{0.04, 0.04, 0.04, 0.04}},
		{"mixed", []float64{0.005, 0.02, 0.1}, []float64{0.015, 0.03, 0.1}},
		{"capped at one", []float64{0.9, 0.95}, []float64{0.95, 0.95}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := benjaminiHochberg(tt.p)
			for i := range tt.want {
				approx(t, "adjusted p", got[i], tt.want[i], 1e-12)
			}
		})
	}
}

func TestAdjustPValues(t *testing.T) {
	ms := &ModelSet{
		GroupBy:      []string{"Timestamp"},
		Coefficients: []string{Intercept},
		Electrodes:   []string{"Pz"},
		Groups: []Group{
			{Key: []dataset.Value{dataset.Num(0)}, Cells: [][]Cell{{{P: 0.01}}}},
			{Key: []dataset.Value{dataset.Num(100)}, Cells: [][]Cell{{{P: 0.02}}}},
			{Key: []dataset.Value{dataset.Num(200)}, Cells: [][]Cell{{{P: 0.04}}}},
			{Key: []dataset.Value{dataset.Num(300)}, Cells: [][]Cell{{{P: 0.001}}}},
		},
	}

	adj, err := AdjustPValues(ms, "Timestamp", []types.Window{{Start: 0, End: 100}}, []string{"Pz"})
	if err != nil {
		t.Fatalf("AdjustPValues() error: %v", err)
	}

	// Window 0-100 is end-inclusive on the sample grid: two p values.
	approx(t, "adjusted p[0]", adj.Groups[0].Cells[0][0].P, 0.02, 1e-12)
	approx(t, "adjusted p[1]", adj.Groups[1].Cells[0][0].P, 0.02, 1e-12)
	// Outside the window everything is 1.
	if adj.Groups[2].Cells[0][0].P != 1 || adj.Groups[3].Cells[0][0].P != 1 {
		t.Errorf("p values outside window = %g, %g, want 1, 1",
			adj.Groups[2].Cells[0][0].P, adj.Groups[3].Cells[0][0].P)
	}
	// The original is untouched.
	if ms.Groups[0].Cells[0][0].P != 0.01 {
		t.Error("AdjustPValues() modified its input")
	}

	if _, err := AdjustPValues(ms, "Timestamp", nil, []string{"Oz"}); err == nil {
		t.Error("AdjustPValues() should reject an unknown electrode")
	}

	ms.GroupBy = []string{"Subject", "Timestamp"}
	if _, err := AdjustPValues(ms, "Timestamp", nil, []string{"Pz"}); err == nil {
		t.Error("AdjustPValues() should reject models not grouped by timestamp alone")
	}
}

func TestModelSetSaveHeader(t *testing.T) {
	ds := readData(t, twoGroupCSV, twoGroupSchema())
	ms, err := Regress(ds, []string{"Timestamp"}, []string{"x"})
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	if err := ms.Write(&sb); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 groups", len(lines))
	}
	header := strings.Split(lines[0], ",")
	// Timestamp + 4 stats x 2 electrodes x 2 coefficients.
	if len(header) != 1+16 {
		t.Fatalf("header columns = %d, want 17", len(header))
	}
	if header[1] != "beta:Fz:(intercept)" {
		t.Errorf("header[1] = %q", header[1])
	}
	if header[5] != "se:Fz:(intercept)" {
		t.Errorf("header[5] = %q", header[5])
	}
}

func TestBenjaminiHochbergMatchesWindowPooling(t *testing.T) {
	// Pooling two electrodes in one window adjusts across all four values.
	ms := &ModelSet{
		GroupBy:      []string{"Timestamp"},
		Coefficients: []string{Intercept},
		Electrodes:   []string{"Fz", "Pz"},
		Groups: []Group{
			{Key: []dataset.Value{dataset.Num(0)}, Cells: [][]Cell{{{P: 0.01}}, {{P: 0.02}}}},
			{Key: []dataset.Value{dataset.Num(50)}, Cells: [][]Cell{{{P: 0.03}}, {{P: 0.04}}}},
		},
	}
	adj, err := AdjustPValues(ms, "Timestamp", []types.Window{{Start: 0, End: 50}}, []string{"Fz", "Pz"})
	if err != nil {
		t.Fatal(err)
	}
	for gi := range adj.Groups {
		for e := range adj.Groups[gi].Cells {
			approx(t, "pooled adjusted p", adj.Groups[gi].Cells[e][0].P, 0.04, 1e-12)
		}
	}
}
