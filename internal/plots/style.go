// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plots

import (
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/plot/plotutil"

	"github.com/pdiddy/rerps/pkg/types"
)

// Options control figure rendering. Zero values give sensible defaults:
// automatic y limits, the default palette, no highlights, no legend.
type Options struct {
	// Title is drawn above the panel.
	Title string

	// Legend adds a legend in the lower left, matplotlib-style.
	Legend bool

	// Colors cycles through the plotted series; empty falls back to the
	// plotutil palette.
	Colors []color.Color

	// YMin and YMax fix the voltage axis when both are set.
	YMin, YMax *float64

	// Highlights shades latency windows of interest.
	Highlights []types.Window

	// Anchor adds the intercept to each slope so coefficient curves are
	// drawn as deflections from the estimated baseline waveform.
	Anchor bool

	// Intercept includes the intercept term in t-value panels.
	Intercept bool

	// PValues marks samples whose (adjusted) p value is below Alpha.
	PValues bool

	// Alpha is the significance level for p-value markers (default 0.05).
	Alpha float64
}

func (o Options) color(i int) color.Color {
	if len(o.Colors) > 0 {
		return o.Colors[i%len(o.Colors)]
	}
	return plotutil.Color(i)
}

func (o Options) alpha() float64 {
	if o.Alpha > 0 {
		return o.Alpha
	}
	return 0.05
}

// namedColors covers the color names the analyses use.
var namedColors = map[string]color.Color{
	"black": color.Black,
	"white": color.White,
	"red":   color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	"blue":  color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	"green": color.NRGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	"grey":  color.NRGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	"gray":  color.NRGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
}

// ParseColor resolves "#rrggbb" hex strings and a small set of names.
func ParseColor(s string) (color.Color, error) {
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if len(s) == 7 && s[0] == '#' {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err == nil {
			return color.NRGBA{
				R: uint8(v >> 16),
				G: uint8(v >> 8),
				B: uint8(v),
				A: 0xff,
			}, nil
		}
	}
	return nil, fmt.Errorf("unrecognized color %q", s)
}

// ParseColors resolves a list of color specifications.
func ParseColors(specs []string) ([]color.Color, error) {
	out := make([]color.Color, len(specs))
	for i, s := range specs {
		c, err := ParseColor(s)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// fade returns the color at 20% opacity, used for confidence bands and
// window highlights.
func fade(c color.Color) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0x33
	return n
}
