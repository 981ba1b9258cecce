package layout

// Shape is a filled rounded rectangle or, when Circle is set, a disk whose
// center is (X+W/2, Y+H/2) and radius W/2.
type Shape struct {
	X, Y, W, H float64
	Radius     float64
	Circle     bool
}

// Glyph is the placeholder drawn in the thumbnail slot when no artwork is
// available. Coordinates are absolute.
type Glyph []Shape

// NoteGlyph is a beamed pair of eighth notes, used for music.
func (s Spec) NoteGlyph() Glyph {
	x, y := float64(s.ThumbX), float64(s.ThumbY)
	return Glyph{
		{X: x + 22, Y: y + 48, W: 14, H: 14, Circle: true},
		{X: x + 44, Y: y + 44, W: 14, H: 14, Circle: true},
		{X: x + 33, Y: y + 22, W: 3, H: 33},
		{X: x + 55, Y: y + 18, W: 3, H: 33},
		{X: x + 33, Y: y + 18, W: 25, H: 6, Radius: 1},
	}
}

// ScreenGlyph is a small television, used for video content.
func (s Spec) ScreenGlyph() Glyph {
	x, y := float64(s.ThumbX), float64(s.ThumbY)
	return Glyph{
		{X: x + 16, Y: y + 22, W: 48, H: 32, Radius: 4},
		{X: x + 36, Y: y + 54, W: 8, H: 6},
		{X: x + 26, Y: y + 60, W: 28, H: 3, Radius: 1},
	}
}
