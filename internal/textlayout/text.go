package textlayout

import (
	"golang.org/x/image/font"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "…"

// minTruncatedRunes is the shortest remainder that still gets an ellipsis.
const minTruncatedRunes = 4

// Measure returns the advance width of text in pixels.
func Measure(text string, f *Font) float64 {
	return float64(font.MeasureString(f.Face, text)) / 64
}

// TruncateToFit shortens text one character at a time until text plus an
// ellipsis fits within maxWidth. Text that already fits is returned
// unchanged. The result is always shorter than the input when truncation
// happens, and a remainder of three characters or fewer is returned bare.
func TruncateToFit(text string, f *Font, maxWidth float64) string {
	if Measure(text, f) <= maxWidth {
		return text
	}
	original := []rune(text)
	runes := original
	for len(runes) >= minTruncatedRunes {
		if len(runes)+1 < len(original) && Measure(string(runes)+Ellipsis, f) <= maxWidth {
			break
		}
		runes = runes[:len(runes)-1]
	}
	if len(runes) < minTruncatedRunes {
		return string(runes)
	}
	return string(runes) + Ellipsis
}

// GlyphTop converts a baseline y coordinate into the top of the glyph box.
func GlyphTop(baselineY int, f *Font) int {
	return baselineY - f.Ascent
}

// CenteredBaseline returns the baseline that vertically centers one line of
// f inside a box of the given height.
func CenteredBaseline(height int, f *Font) int {
	return (height + f.Ascent - f.Descent) / 2
}
