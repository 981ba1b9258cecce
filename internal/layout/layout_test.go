package layout

import "testing"

func TestNew_TextBudget(t *testing.T) {
	tests := []struct {
		width     int
		wantText  int
		wantTextX int
	}{
		{width: 400, wantText: 295, wantTextX: 95},
		{width: 600, wantText: 495, wantTextX: 95},
		{width: 50, wantText: 0, wantTextX: 95},
	}
	for _, tt := range tests {
		s := New(tt.width, 90)
		if s.TextX != tt.wantTextX {
			t.Errorf("width %d: TextX want %d, got %d", tt.width, tt.wantTextX, s.TextX)
		}
		if s.TextWidth != tt.wantText {
			t.Errorf("width %d: TextWidth want %d, got %d", tt.width, tt.wantText, s.TextWidth)
		}
		if s.BarsWidth != s.TextWidth {
			t.Errorf("bars and text must share the horizontal budget")
		}
	}
}

func TestSpec_ProgressWidth(t *testing.T) {
	s := New(400, 90)
	tests := []struct {
		progress, duration, want int
	}{
		{60, 120, 147},
		{0, 120, 0},
		{10, 0, 0},
		{500, 120, 295},
	}
	for _, tt := range tests {
		if got := s.ProgressWidth(tt.progress, tt.duration); got != tt.want {
			t.Errorf("ProgressWidth(%d, %d): want %d, got %d", tt.progress, tt.duration, tt.want, got)
		}
	}
}

func TestGlyphsInsideThumbSlot(t *testing.T) {
	s := New(400, 90)
	r := s.ThumbRect()
	for name, g := range map[string]Glyph{"note": s.NoteGlyph(), "screen": s.ScreenGlyph()} {
		for i, sh := range g {
			if sh.X < float64(r.Min.X) || sh.Y < float64(r.Min.Y) ||
				sh.X+sh.W > float64(r.Max.X) || sh.Y+sh.H > float64(r.Max.Y) {
				t.Errorf("%s shape %d %+v leaves the thumbnail slot %v", name, i, sh, r)
			}
		}
	}
}
