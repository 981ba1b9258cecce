// Package textlayout measures and fits badge text.
//
// Both renderers measure with the same bundled Go fonts, so the vector and
// bitmap outputs truncate at the same character.
package textlayout

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Weight selects the bundled face.
type Weight int

const (
	Regular Weight = iota
	Bold
)

var (
	parseOnce sync.Once
	parsed    [2]*truetype.Font
	parseErr  error

	base64Once sync.Once
	base64TTF  [2]string
)

func fonts() ([2]*truetype.Font, error) {
	parseOnce.Do(func() {
		for w, data := range [2][]byte{goregular.TTF, gobold.TTF} {
			f, err := truetype.Parse(data)
			if err != nil {
				parseErr = fmt.Errorf("failed to parse bundled font: %w", err)
				return
			}
			parsed[w] = f
		}
	})
	return parsed, parseErr
}

// TTFBase64 returns the bundled TTF for w as a base64 string.
// The result is cached after first computation.
func TTFBase64(w Weight) string {
	base64Once.Do(func() {
		base64TTF[Regular] = base64.StdEncoding.EncodeToString(goregular.TTF)
		base64TTF[Bold] = base64.StdEncoding.EncodeToString(gobold.TTF)
	})
	return base64TTF[w]
}

// Font is a sized face plus its rounded vertical metrics.
//
// A Font caches glyphs internally and must not be shared between
// goroutines; build one per render.
type Font struct {
	Face    font.Face
	Size    float64
	Weight  Weight
	Ascent  int
	Descent int
}

// NewFont returns the bundled face of weight w at size pixels.
func NewFont(w Weight, size float64) (*Font, error) {
	fs, err := fonts()
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(fs[w], &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	m := face.Metrics()
	return &Font{
		Face:    face,
		Size:    size,
		Weight:  w,
		Ascent:  m.Ascent.Ceil(),
		Descent: m.Descent.Ceil(),
	}, nil
}
