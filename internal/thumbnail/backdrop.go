package thumbnail

import (
	"image"

	"github.com/disintegration/imaging"
)

const (
	backdropBlur  = 3.0
	backdropAlpha = 150
)

// Backdrop is the stretched, blurred copy of the artwork that static bars
// are cut from.
type Backdrop struct {
	img *image.NRGBA
}

// NewBackdrop stretches img over width x height, blurs it and flattens its
// alpha to a fixed translucency. It returns nil without artwork or for an
// empty area.
func NewBackdrop(img *image.NRGBA, width, height int) *Backdrop {
	if img == nil || width <= 0 || height <= 0 {
		return nil
	}
	strip := imaging.Resize(img, width, height, imaging.Lanczos)
	strip = imaging.Blur(strip, backdropBlur)
	for i := 3; i < len(strip.Pix); i += 4 {
		strip.Pix[i] = backdropAlpha
	}
	return &Backdrop{img: strip}
}

// Slice cuts the w x h region starting at offset x from the top of the
// strip. The region is clipped to the strip.
func (b *Backdrop) Slice(x, w, h int) *image.NRGBA {
	return imaging.Crop(b.img, image.Rect(x, 0, x+w, h))
}
