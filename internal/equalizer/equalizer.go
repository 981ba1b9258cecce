// Package equalizer generates the synthetic bar visualization drawn under
// the badge text. Heights are not derived from audio.
package equalizer

import (
	"image/color"
	"math/rand"

	"github.com/genricoloni/playbadge/internal/layout"
)

// GradientID is the id of the horizontal gradient animated bars fill from.
const GradientID = "barGradient"

// StaticSeed seeds the static bar heights, so every render draws the same row.
const StaticSeed = 42

const (
	staticMinHeight = 3
	staticMaxHeight = 22
)

// OpacityPattern is the opacity keyframe sequence shared by animated bars.
var OpacityPattern = []float64{0.35, 0.95, 0.35, 0.95, 0.35, 0.95, 0.35}

var heightPatterns = [4][]int{
	{3, 15, 3, 15, 3, 15, 3},
	{2, 12, 2, 12, 2, 12, 2},
	{4, 22, 4, 22, 4, 22, 4},
	{2, 10, 2, 10, 2, 10, 2},
}

// Bar describes one equalizer bar. Animated bars carry a Pattern of heights
// and timing; static bars carry a fixed Height.
type Bar struct {
	X         int
	BaselineY int
	Width     int

	Height  int
	Pattern []int

	// Duration and Phase are in seconds.
	Duration float64
	Phase    float64

	// Color fills a static bar that has no texture. Animated bars are
	// painted from the shared gradient instead.
	Color color.RGBA
	// Offset is the bar's horizontal distance from the first bar of its group.
	Offset int
}

// Top is the y coordinate of the top of a static bar.
func (b Bar) Top() int { return b.BaselineY - b.Height }

// Row is a generated bar group.
type Row struct {
	Bars []Bar
	// X and Width span the group, from the first bar's left edge to the
	// last bar's right edge.
	X     int
	Width int
	// MaxHeight is the tallest height any bar reaches.
	MaxHeight int
}

func patternFor(i int) []int {
	switch {
	case i%7 == 0:
		return heightPatterns[0]
	case i%5 == 0:
		return heightPatterns[1]
	case i%3 == 0:
		return heightPatterns[2]
	default:
		return heightPatterns[3]
	}
}

// Animated lays out floor(BarsWidth / pitch) pulsing bars starting at BarX.
// The bars are filled from the gradient built by Stops, spanning the row.
func Animated(spec layout.Spec) Row {
	pitch := spec.BarPitch()
	count := spec.BarsWidth / pitch
	row := Row{X: spec.BarX, Bars: make([]Bar, 0, count)}
	if count == 0 {
		return row
	}
	row.Width = count*pitch - spec.BarGap

	for i := range count {
		pattern := patternFor(i)
		offset := i * pitch
		row.Bars = append(row.Bars, Bar{
			X:         spec.BarX + offset,
			BaselineY: spec.BarBaseline,
			Width:     spec.BarWidth,
			Height:    pattern[0],
			Pattern:   pattern,
			Duration:  1.6 + float64(i%4)*0.4,
			Phase:     float64((i*5)%100) / 100,
			Offset:    offset,
		})
		row.MaxHeight = max(row.MaxHeight, maxOf(pattern))
	}
	return row
}

// Static lays out BarsWidth / pitch + 2 bars with fixed pseudo-random
// heights, centered in the bar budget. The result is identical for every
// call with the same geometry.
func Static(spec layout.Spec, fill color.RGBA) Row {
	pitch := spec.BarPitch()
	count := spec.BarsWidth/pitch + 2
	total := count*pitch - spec.BarGap
	start := spec.BarX + spec.StaticBarInset + (spec.BarsWidth-total)/2

	rng := rand.New(rand.NewSource(StaticSeed))
	row := Row{X: start, Width: total, Bars: make([]Bar, 0, count)}
	for i := range count {
		h := staticMinHeight + rng.Intn(staticMaxHeight-staticMinHeight+1)
		offset := i * pitch
		row.Bars = append(row.Bars, Bar{
			X:         start + offset,
			BaselineY: spec.BarBaseline,
			Width:     spec.BarWidth,
			Height:    h,
			Color:     fill,
			Offset:    offset,
		})
		row.MaxHeight = max(row.MaxHeight, h)
	}
	return row
}

func maxOf(xs []int) int {
	m := 0
	for _, x := range xs {
		m = max(m, x)
	}
	return m
}
