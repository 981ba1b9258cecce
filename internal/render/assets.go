package render

import (
	"context"
	"image"

	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/palette"
	"github.com/genricoloni/playbadge/internal/thumbnail"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// assets are the optional inputs derived from the thumbnail. Nil fields mean
// the thumbnail or palette was unavailable.
type assets struct {
	thumb   *image.NRGBA
	palette domain.Palette
}

// AssetLoader fetches a thumbnail once and derives the fitted image and
// the palette from it concurrently.
type AssetLoader struct {
	logger      *zap.Logger
	thumbs      *thumbnail.Processor
	extractor   *palette.Extractor
	paletteSize int
}

// NewAssetLoader creates a loader. A non-positive paletteSize selects the
// extractor default.
func NewAssetLoader(logger *zap.Logger, thumbs *thumbnail.Processor, extractor *palette.Extractor, paletteSize int) *AssetLoader {
	if paletteSize <= 0 {
		paletteSize = palette.DefaultCount
	}
	return &AssetLoader{logger: logger, thumbs: thumbs, extractor: extractor, paletteSize: paletteSize}
}

// load never fails: unavailable parts are logged and left nil.
func (l *AssetLoader) load(ctx context.Context, url string, size int, withPalette bool) assets {
	var out assets
	if url == "" {
		return out
	}

	data, err := l.thumbs.Fetch(ctx, url)
	if err != nil {
		l.logger.Debug("Thumbnail unavailable, using placeholder", zap.Error(err))
		return out
	}

	var g errgroup.Group
	g.Go(func() error {
		img, err := thumbnail.Decode(data, size)
		if err != nil {
			l.logger.Debug("Thumbnail unavailable, using placeholder", zap.Error(err))
			return nil
		}
		out.thumb = img
		return nil
	})
	if withPalette {
		g.Go(func() error {
			pal, err := l.extractor.Extract(data, l.paletteSize)
			if err != nil {
				l.logger.Debug("Palette unavailable, using fallback gradient", zap.Error(err))
				return nil
			}
			out.palette = pal
			return nil
		})
	}
	_ = g.Wait()
	return out
}
