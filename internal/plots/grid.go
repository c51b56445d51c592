// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plots

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/pdiddy/rerps/internal/summary"
)

// Empty marks an unused cell in an electrode grid layout.
const Empty = "##"

// A Layout arranges electrodes like the scalp montage, rows frontal to
// occipital. Empty cells stay blank; a trailing '+' on an electrode name
// puts the legend on that panel.
type Layout [][]string

// Validate checks the layout is rectangular and non-empty.
func (l Layout) Validate() error {
	if len(l) == 0 || len(l[0]) == 0 {
		return fmt.Errorf("empty electrode grid")
	}
	for i, row := range l {
		if len(row) != len(l[0]) {
			return fmt.Errorf("grid row %d has %d cells, want %d", i, len(row), len(l[0]))
		}
	}
	return nil
}

// Electrodes returns the electrode names in the layout, markers stripped.
func (l Layout) Electrodes() []string {
	var out []string
	for _, row := range l {
		for _, cell := range row {
			if name, _ := splitCell(cell); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func splitCell(cell string) (name string, legend bool) {
	if cell == Empty || cell == "" {
		return "", false
	}
	if strings.HasSuffix(cell, "+") {
		return strings.TrimSuffix(cell, "+"), true
	}
	return cell, false
}

// panelFunc renders a single electrode panel.
type panelFunc func(electrode string, opts Options) (*plot.Plot, error)

// grid renders a layout of panels and writes the figure to path. The
// format follows the extension: .pdf, .png, or .svg.
func grid(path string, layout Layout, opts Options, panelW, panelH vg.Length, panel panelFunc) error {
	if err := layout.Validate(); err != nil {
		return err
	}

	rows, cols := len(layout), len(layout[0])
	panels := make([][]*plot.Plot, rows)
	for r := range layout {
		panels[r] = make([]*plot.Plot, cols)
		for c, cell := range layout[r] {
			name, legend := splitCell(cell)
			if name == "" {
				continue
			}
			po := opts
			po.Title = name
			po.Legend = legend
			p, err := panel(name, po)
			if err != nil {
				return fmt.Errorf("panel %s: %w", name, err)
			}
			panels[r][c] = p
		}
	}

	img, err := newCanvas(path, vg.Length(cols)*panelW, vg.Length(rows)*panelH)
	if err != nil {
		return err
	}
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 8, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	canvases := plot.Align(panels, tiles, dc)
	for r := range panels {
		for c := range panels[r] {
			if panels[r][c] != nil {
				panels[r][c].Draw(canvases[r][c])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := img.WriteTo(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// writerCanvas is a sized vg canvas that can serialize itself.
type writerCanvas interface {
	vg.CanvasSizer
	WriteTo(w io.Writer) (int64, error)
}

func newCanvas(path string, w, h vg.Length) (writerCanvas, error) {
	switch ext := filepath.Ext(path); ext {
	case ".pdf":
		return vgpdf.New(w, h), nil
	case ".png":
		return vgimg.PngCanvas{Canvas: vgimg.New(w, h)}, nil
	case ".svg":
		return vgsvg.New(w, h), nil
	default:
		return nil, fmt.Errorf("unsupported figure format %q", ext)
	}
}

// VoltagesGrid writes a grid of voltage panels for the layout.
func VoltagesGrid(path string, dsm *summary.DataSummary, x, groupBy string, layout Layout, opts Options, panelW, panelH vg.Length) error {
	return grid(path, layout, opts, panelW, panelH,
		func(electrode string, po Options) (*plot.Plot, error) {
			return Voltages(dsm, x, electrode, groupBy, po)
		})
}

// CoefficientsGrid writes a grid of coefficient panels for the layout.
func CoefficientsGrid(path string, msm *summary.ModelSummary, x string, layout Layout, opts Options, panelW, panelH vg.Length) error {
	return grid(path, layout, opts, panelW, panelH,
		func(electrode string, po Options) (*plot.Plot, error) {
			return Coefficients(msm, x, electrode, po)
		})
}

// TValuesGrid writes a grid of t-value panels for the layout.
func TValuesGrid(path string, msm *summary.ModelSummary, x string, layout Layout, opts Options, panelW, panelH vg.Length) error {
	return grid(path, layout, opts, panelW, panelH,
		func(electrode string, po Options) (*plot.Plot, error) {
			return TValues(msm, x, electrode, po)
		})
}
