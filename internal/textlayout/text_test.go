package textlayout

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func mustFont(t *testing.T, w Weight, size float64) *Font {
	t.Helper()
	f, err := NewFont(w, size)
	if err != nil {
		t.Fatalf("NewFont: %v", err)
	}
	return f
}

func TestTruncateToFit_Fits(t *testing.T) {
	f := mustFont(t, Bold, 15)
	tests := []string{"", "A", "Bohemian Rhapsody", "Show • S01E02"}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			if got := TruncateToFit(s, f, 295); got != s {
				t.Errorf("expected %q unchanged, got %q", s, got)
			}
		})
	}
}

func TestTruncateToFit_Overflow(t *testing.T) {
	tests := []struct {
		name   string
		weight Weight
		size   float64
		text   string
		width  float64
	}{
		{name: "long title", weight: Bold, size: 15, text: strings.Repeat("A", 100), width: 295},
		{name: "long subtitle", weight: Regular, size: 12, text: strings.Repeat("Queen • ", 20), width: 295},
		{name: "narrow budget", weight: Regular, size: 12, text: "Stairway to Heaven", width: 60},
		{name: "unicode", weight: Regular, size: 12, text: strings.Repeat("Ünïcödé ", 30), width: 150},
		{name: "one char over", weight: Bold, size: 15, text: "WWWWWWWWWW", width: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustFont(t, tt.weight, tt.size)
			if tt.width == 0 {
				tt.width = Measure(tt.text, f) - 1
			}
			got := TruncateToFit(tt.text, f, tt.width)
			if !strings.HasSuffix(got, Ellipsis) {
				t.Errorf("expected ellipsis suffix, got %q", got)
			}
			if w := Measure(got, f); w > tt.width {
				t.Errorf("width %.2f exceeds budget %.2f", w, tt.width)
			}
			if utf8.RuneCountInString(got) >= utf8.RuneCountInString(tt.text) {
				t.Errorf("expected fewer runes than input, got %q", got)
			}
		})
	}
}

func TestTruncateToFit_ShortRemainder(t *testing.T) {
	f := mustFont(t, Bold, 15)
	// A budget too small for any text leaves a bare three-character stem.
	got := TruncateToFit("Abcdefgh", f, 1)
	if got != "Abc" {
		t.Errorf("expected bare remainder %q, got %q", "Abc", got)
	}
	// Strings of three characters are never given an ellipsis.
	if got := TruncateToFit("WWW", f, 1); got != "WWW" {
		t.Errorf("expected %q, got %q", "WWW", got)
	}
}

func TestTruncateToFit_Idempotent(t *testing.T) {
	f := mustFont(t, Regular, 12)
	once := TruncateToFit(strings.Repeat("B", 200), f, 295)
	if twice := TruncateToFit(once, f, 295); twice != once {
		t.Errorf("expected %q to be stable, got %q", once, twice)
	}
}

func TestGlyphTopAndCenteredBaseline(t *testing.T) {
	f := mustFont(t, Bold, 15)
	if f.Ascent <= 0 || f.Descent <= 0 {
		t.Fatalf("unexpected metrics ascent=%d descent=%d", f.Ascent, f.Descent)
	}
	if got := GlyphTop(16, f); got != 16-f.Ascent {
		t.Errorf("GlyphTop: want %d, got %d", 16-f.Ascent, got)
	}
	b := CenteredBaseline(90, f)
	top := b - f.Ascent
	bottom := b + f.Descent
	if top < 0 || bottom > 90 || abs((top)-(90-bottom)) > 1 {
		t.Errorf("line %d..%d is not centered in 90px", top, bottom)
	}
}

func TestTTFBase64(t *testing.T) {
	if TTFBase64(Regular) == "" || TTFBase64(Bold) == "" {
		t.Fatal("expected bundled fonts")
	}
	if TTFBase64(Regular) == TTFBase64(Bold) {
		t.Error("regular and bold should differ")
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
