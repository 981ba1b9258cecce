package palette

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/genricoloni/playbadge/internal/domain"
	"go.uber.org/zap"
)

// bandedPNG stacks horizontal bands of the given colors; heights are in rows.
func bandedPNG(t *testing.T, width int, bands []color.NRGBA, heights []int) []byte {
	t.Helper()
	total := 0
	for _, h := range heights {
		total += h
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, total))
	y := 0
	for i, c := range bands {
		for end := y + heights[i]; y < end; y++ {
			for x := 0; x < width; x++ {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestExtractor_DominanceOrder(t *testing.T) {
	red := color.NRGBA{R: 230, G: 20, B: 20, A: 255}
	blue := color.NRGBA{R: 20, G: 30, B: 220, A: 255}
	green := color.NRGBA{R: 30, G: 200, B: 40, A: 255}
	data := bandedPNG(t, 100, []color.NRGBA{red, blue, green}, []int{60, 30, 10})

	pal, err := NewExtractor(zap.NewNop()).Extract(data, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pal) != 3 {
		t.Fatalf("expected 3 colors, got %d: %v", len(pal), pal)
	}

	want := []color.NRGBA{red, blue, green}
	for i, c := range pal {
		if !near(c, want[i], 12) {
			t.Errorf("color %d: want ~%v, got %v", i, want[i], c)
		}
	}
}

func TestExtractor_CountOne(t *testing.T) {
	red := color.NRGBA{R: 230, G: 20, B: 20, A: 255}
	blue := color.NRGBA{R: 20, G: 30, B: 220, A: 255}
	data := bandedPNG(t, 50, []color.NRGBA{blue, red}, []int{10, 40})

	pal, err := NewExtractor(zap.NewNop()).Extract(data, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pal) != 1 || !near(pal[0], red, 12) {
		t.Errorf("expected only the dominant red, got %v", pal)
	}
}

func TestExtractor_IgnoresTranslucentAndWhite(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	faint := color.NRGBA{R: 10, G: 200, B: 10, A: 40}
	blue := color.NRGBA{R: 20, G: 30, B: 220, A: 255}
	data := bandedPNG(t, 50, []color.NRGBA{white, faint, blue}, []int{30, 15, 5})

	pal, err := NewExtractor(zap.NewNop()).Extract(data, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pal) != 1 || !near(pal[0], blue, 6) {
		t.Errorf("expected only blue, got %v", pal)
	}
}

func TestExtractor_SingleColor(t *testing.T) {
	c := color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	data := bandedPNG(t, 40, []color.NRGBA{c}, []int{40})

	pal, err := NewExtractor(zap.NewNop()).Extract(data, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pal) != 1 {
		t.Fatalf("a flat image has a single cell, got %d colors", len(pal))
	}
	if !near(pal[0], c, 6) {
		t.Errorf("want ~%v, got %v", c, pal[0])
	}
}

func TestExtractor_Unavailable(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	transparent := color.NRGBA{}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "not an image", data: []byte("definitely not a png")},
		{name: "empty", data: nil},
		{name: "only white", data: bandedPNG(t, 20, []color.NRGBA{white}, []int{20})},
		{name: "only transparent", data: bandedPNG(t, 20, []color.NRGBA{transparent}, []int{20})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pal, err := NewExtractor(zap.NewNop()).Extract(tt.data, 4)
			if !errors.Is(err, domain.ErrPaletteUnavailable) {
				t.Fatalf("expected ErrPaletteUnavailable, got %v", err)
			}
			if pal != nil {
				t.Errorf("expected nil palette, got %v", pal)
			}
		})
	}
}

func TestExtractor_Deterministic(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: uint8((x + y) * 2), A: 255})
		}
	}
	e := NewExtractor(zap.NewNop())
	a, err := e.FromImage(img, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := e.FromImage(img, 6)
	if len(a) != 6 {
		t.Fatalf("expected 6 colors from a gradient, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("palettes differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func near(got color.RGBA, want color.NRGBA, tol int) bool {
	d := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	return d(got.R, want.R) <= tol && d(got.G, want.G) <= tol && d(got.B, want.B) <= tol
}
