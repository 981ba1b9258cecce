package equalizer

import (
	"image/color"

	"github.com/genricoloni/playbadge/internal/domain"
)

// FallbackPalette is used when no palette could be extracted.
var FallbackPalette = domain.Palette{
	{R: 122, G: 216, B: 255, A: 255},
	{R: 94, G: 255, B: 105, A: 255},
	{R: 120, G: 255, B: 140, A: 255},
	{R: 122, G: 216, B: 255, A: 255},
}

// Stop is a gradient stop; Offset is a percentage in [0, 100].
type Stop struct {
	Offset int
	Color  color.RGBA
}

// Stops spreads the palette evenly over a left-to-right gradient. An empty
// palette selects FallbackPalette.
func Stops(pal domain.Palette) []Stop {
	if len(pal) == 0 {
		pal = FallbackPalette
	}
	n := len(pal)
	stops := make([]Stop, n)
	for i, c := range pal {
		offset := 0
		if n > 1 {
			offset = i * 100 / (n - 1)
		}
		stops[i] = Stop{Offset: offset, Color: c}
	}
	return stops
}
