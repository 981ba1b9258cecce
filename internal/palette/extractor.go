// Package palette derives dominant colors from thumbnail artwork with a
// median cut quantizer.
package palette

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"  // GIF format support
	_ "image/jpeg" // JPEG format support
	_ "image/png"  // PNG format support
	"sort"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/soniakeys/quant/median"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// DefaultCount is the palette size used when the caller asks for none.
	DefaultCount = 4
	maxCount     = 16

	// sampleSize bounds the longest side of the image before quantizing.
	sampleSize = 100

	minAlpha       = 125
	whiteThreshold = 250
)

// Extractor computes palettes. It holds no per-call state and is safe for
// concurrent use.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a palette extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract decodes data and returns up to count colors ordered by dominance.
// Any failure returns an error matching domain.ErrPaletteUnavailable.
func (e *Extractor) Extract(data []byte, count int) (domain.Palette, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.WrapError(domain.CodePaletteUnavailable, err, "failed to decode image")
	}
	e.logger.Debug("Extracting palette", zap.String("format", format), zap.Int("count", count))
	return e.FromImage(img, count)
}

// FromImage quantizes an already decoded image.
func (e *Extractor) FromImage(img image.Image, count int) (domain.Palette, error) {
	if count <= 0 {
		count = DefaultCount
	}
	count = min(count, maxCount)

	strip := usablePixels(imaging.Fit(img, sampleSize, sampleSize, imaging.Box))
	if strip == nil {
		return nil, domain.NewError(domain.CodePaletteUnavailable, "no usable pixels in image")
	}

	// The quantizer leaves its single cluster unfinished when asked for one
	// color, so at least two are requested and the surplus trimmed below.
	paletted := median.Quantizer(max(count, 2)).Paletted(strip)

	swatches := make([]swatch, len(paletted.Palette))
	for i, c := range paletted.Palette {
		swatches[i].color = toRGBA(c)
	}
	for _, idx := range paletted.Pix {
		swatches[idx].population++
	}
	sort.SliceStable(swatches, func(i, j int) bool { return swatches[i].population > swatches[j].population })

	pal := make(domain.Palette, 0, count)
	for _, s := range swatches {
		if s.population == 0 || len(pal) == count {
			break
		}
		pal = append(pal, s.color)
	}
	return pal, nil
}

type swatch struct {
	color      color.RGBA
	population int
}

// usablePixels packs the opaque, non-white pixels of img into a one-row
// image. It returns nil when there are none.
func usablePixels(img *image.NRGBA) *image.NRGBA {
	kept := make([]color.NRGBA, 0, len(img.Pix)/4)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		c := color.NRGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
		if c.A < minAlpha {
			continue
		}
		if c.R > whiteThreshold && c.G > whiteThreshold && c.B > whiteThreshold {
			continue
		}
		c.A = 255
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil
	}

	strip := image.NewNRGBA(image.Rect(0, 0, len(kept), 1))
	for x, c := range kept {
		strip.SetNRGBA(x, 0, c)
	}
	return strip
}

func toRGBA(c color.Color) color.RGBA {
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
}
