// Package theme holds the built-in badge themes.
//
// The catalog is built once and is read-only afterwards, so a single
// *Catalog can be shared by concurrent renders without locking.
package theme

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/lucasb-eyer/go-colorful"
)

// Default is the theme used when a caller does not name one.
const Default = "normal"

// FontFamily is the CSS font stack; the first entry matches the bundled
// faces the bitmap renderer measures and draws with.
const FontFamily = "'Go', Arial, Helvetica, sans-serif"

// Color is a theme color usable both as an SVG hex string and as a
// color.Color for the bitmap.
type Color struct {
	colorful.Color
}

// NRGBA returns the color with the given alpha.
func (c Color) NRGBA(alpha uint8) color.NRGBA {
	r, g, b := c.Color.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}

// Theme is a palette and typography record.
type Theme struct {
	Name               string
	TextColor          Color
	AccentColor        Color
	ProgressBackground Color
	ProgressForeground Color
	FontFamily         string
	TitleSize          float64
	SubtitleSize       float64
	TimeSize           float64
}

// Catalog maps theme names to records.
type Catalog struct {
	themes map[string]Theme
}

type spec struct {
	text, accent, progressBg, progressFg string
}

var builtins = map[string]spec{
	"normal":  {text: "#FFFFFF", accent: "#7ad8ff", progressBg: "#000000", progressFg: "#7ad8ff"},
	"dark":    {text: "#E6E6E6", accent: "#78ff8c", progressBg: "#0F1720", progressFg: "#78ff8c"},
	"minimal": {text: "#FFFFFF", accent: "#5eff69", progressBg: "#111827", progressFg: "#5eff69"},
}

// NewCatalog builds the catalog of built-in themes.
func NewCatalog() *Catalog {
	c := &Catalog{themes: make(map[string]Theme, len(builtins))}
	for name, s := range builtins {
		c.themes[name] = Theme{
			Name:               name,
			TextColor:          mustHex(s.text),
			AccentColor:        mustHex(s.accent),
			ProgressBackground: mustHex(s.progressBg),
			ProgressForeground: mustHex(s.progressFg),
			FontFamily:         FontFamily,
			TitleSize:          15,
			SubtitleSize:       12,
			TimeSize:           11,
		}
	}
	return c
}

// Resolve returns the theme called name, or an error matching
// domain.ErrUnknownTheme.
func (c *Catalog) Resolve(name string) (Theme, error) {
	t, ok := c.themes[name]
	if !ok {
		return Theme{}, domain.NewError(domain.CodeUnknownTheme, "unknown theme %q (available: %v)", name, c.Names())
	}
	return t, nil
}

// Names lists the available theme names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.themes))
	for n := range c.themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func mustHex(s string) Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("theme: bad color %q: %v", s, err))
	}
	return Color{c}
}
