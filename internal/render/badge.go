// Package render composes badges in two forms: an animated SVG document and
// a PNG drawn with 2D primitives. Both read their geometry from layout.Spec.
package render

import (
	"context"
	"errors"
	"strings"

	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/layout"
	"github.com/genricoloni/playbadge/internal/session"
	"github.com/genricoloni/playbadge/internal/theme"
	"go.uber.org/zap"
)

// Format selects the output family.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts "svg" and "png" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatSVG, FormatPNG:
		return f, nil
	}
	return "", domain.NewError(domain.CodeInvalidInput, "unknown format %q", s)
}

// ContentType is the media type of the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Options tune rendering.
type Options struct {
	// EmbedFonts inlines the bundled fonts into SVG output.
	EmbedFonts bool
	// Marquee scrolls overflowing SVG text instead of truncating it.
	Marquee bool
}

// Badge is a rendered document.
type Badge struct {
	Format Format
	Data   []byte
	// Kind is the view actually drawn; KindError when composition failed.
	Kind domain.ViewKind
}

// Degraded reports whether the badge is the error fallback.
func (b *Badge) Degraded() bool { return b.Kind == domain.KindError }

// renderer is one output family.
type renderer interface {
	render(ctx context.Context, vm domain.ViewModel, th theme.Theme, spec layout.Spec) ([]byte, error)
	renderError(vm domain.ViewModel, th theme.Theme, spec layout.Spec) []byte
}

// Service adapts session records and dispatches them to a renderer.
type Service struct {
	logger  *zap.Logger
	catalog *theme.Catalog
	vector  *VectorRenderer
	bitmap  *BitmapRenderer
}

// NewService creates the render service.
func NewService(logger *zap.Logger, catalog *theme.Catalog, vector *VectorRenderer, bitmap *BitmapRenderer) *Service {
	return &Service{logger: logger, catalog: catalog, vector: vector, bitmap: bitmap}
}

// Render draws rec, or the idle badge when rec is nil. Only an unknown theme
// or format fails the call; composition failures yield a degraded badge.
func (s *Service) Render(ctx context.Context, format Format, rec *domain.SessionRecord, cfg domain.RenderConfig) (*Badge, error) {
	return s.RenderView(ctx, format, session.Adapt(rec), cfg)
}

// RenderView draws an already adapted view.
func (s *Service) RenderView(ctx context.Context, format Format, vm domain.ViewModel, cfg domain.RenderConfig) (*Badge, error) {
	var r renderer
	switch format {
	case FormatSVG:
		r = s.vector
	case FormatPNG:
		r = s.bitmap
	default:
		return nil, domain.NewError(domain.CodeInvalidInput, "unknown format %q", format)
	}

	cfg = cfg.Normalize()
	if cfg.Theme == "" {
		cfg.Theme = theme.Default
	}
	th, err := s.catalog.Resolve(cfg.Theme)
	if err != nil {
		return nil, err
	}
	spec := layout.New(cfg.Width, cfg.Height)

	data, err := compose(func() ([]byte, error) { return r.render(ctx, vm, th, spec) })
	if err != nil {
		s.logger.Error("Badge composition failed",
			zap.String("format", string(format)),
			zap.String("kind", string(vm.Kind)),
			zap.Error(err))
		return &Badge{Format: format, Data: r.renderError(domain.ErrorView(vm), th, spec), Kind: domain.KindError}, nil
	}

	s.logger.Debug("Badge rendered",
		zap.String("format", string(format)),
		zap.String("kind", string(vm.Kind)),
		zap.String("theme", th.Name),
		zap.Int("width", spec.Width),
		zap.Int("bytes", len(data)))
	return &Badge{Format: format, Data: data, Kind: vm.Kind}, nil
}

// compose runs fn, converting panics and errors into ErrCompositionFailure.
func compose(fn func() ([]byte, error)) (data []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			data = nil
			err = domain.NewError(domain.CodeCompositionFailure, "panic: %v", p)
		}
	}()
	data, err = fn()
	if err != nil && !errors.Is(err, domain.ErrCompositionFailure) {
		err = domain.WrapError(domain.CodeCompositionFailure, err, "render failed")
	}
	return data, err
}
