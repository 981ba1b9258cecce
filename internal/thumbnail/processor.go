// Package thumbnail fetches artwork and prepares it for both badge renderers.
package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // GIF format support
	_ "image/jpeg" // JPEG format support
	"image/png"
	"time"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/playbadge/internal/domain"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support
)

const (
	// DefaultTimeout bounds the whole fetch, whatever the fetcher does.
	DefaultTimeout = 5 * time.Second

	whiteThreshold = 240
)

// Processor downloads and normalizes thumbnails.
type Processor struct {
	logger  *zap.Logger
	fetcher domain.Fetcher
	timeout time.Duration
}

// NewProcessor creates a thumbnail processor. A non-positive timeout
// selects DefaultTimeout.
func NewProcessor(logger *zap.Logger, fetcher domain.Fetcher, timeout time.Duration) *Processor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Processor{logger: logger, fetcher: fetcher, timeout: timeout}
}

// Fetch downloads the raw thumbnail bytes. Any failure, including the
// timeout, returns an error matching domain.ErrThumbnailUnavailable.
func (p *Processor) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, domain.NewError(domain.CodeThumbnailUnavailable, "no thumbnail url")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := p.fetcher.Fetch(ctx, url)
		done <- result{data, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			p.logger.Debug("Thumbnail fetch failed", zap.Error(r.err))
			return nil, domain.WrapError(domain.CodeThumbnailUnavailable, r.err, "fetch failed")
		}
		if len(r.data) == 0 {
			return nil, domain.NewError(domain.CodeThumbnailUnavailable, "empty thumbnail")
		}
		return r.data, nil
	case <-ctx.Done():
		p.logger.Debug("Thumbnail fetch timed out", zap.Duration("timeout", p.timeout))
		return nil, domain.WrapError(domain.CodeThumbnailUnavailable, ctx.Err(), "fetch timed out")
	}
}

// Decode fits the image into a size x size square, keeping its aspect
// ratio, and centers it on a transparent canvas.
func Decode(data []byte, size int) (*image.NRGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.WrapError(domain.CodeThumbnailUnavailable, err, "failed to decode image")
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, domain.NewError(domain.CodeThumbnailUnavailable, "invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	fitted := imaging.Fit(img, size, size, imaging.Lanczos)
	canvas := imaging.New(size, size, color.NRGBA{})
	fb := fitted.Bounds()
	return imaging.Paste(canvas, fitted, image.Pt((size-fb.Dx())/2, (size-fb.Dy())/2)), nil
}

// SuppressBackground returns a copy of img in which near-white pixels
// outside a central disk of radius min(w,h)/3 are fully transparent.
func SuppressBackground(img *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	cx, cy := w/2, h/2
	radius := min(w, h) / 3
	r2 := radius * radius

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r2 {
				continue
			}
			i := out.PixOffset(x, y)
			px := out.Pix[i : i+4 : i+4]
			if px[0] > whiteThreshold && px[1] > whiteThreshold && px[2] > whiteThreshold {
				px[0], px[1], px[2], px[3] = 255, 255, 255, 0
			}
		}
	}
	return out
}

// Place resizes a prepared thumbnail to the slot size.
func Place(img image.Image, size int) *image.NRGBA {
	return imaging.Resize(img, size, size, imaging.Lanczos)
}

// DataURI encodes img as a base64 PNG data URI for embedding in markup.
func DataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
