package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/equalizer"
	"github.com/genricoloni/playbadge/internal/layout"
	"github.com/genricoloni/playbadge/internal/textlayout"
	"github.com/genricoloni/playbadge/internal/theme"
	"github.com/genricoloni/playbadge/internal/thumbnail"
	"go.uber.org/zap"
)

const (
	progressBackgroundAlpha = 77 // 0.3 opacity
	errorPadding            = 4
)

// BitmapRenderer draws the static PNG badge.
type BitmapRenderer struct {
	logger *zap.Logger
	assets *AssetLoader
}

// NewBitmapRenderer creates the PNG renderer.
func NewBitmapRenderer(logger *zap.Logger, assets *AssetLoader) *BitmapRenderer {
	return &BitmapRenderer{logger: logger, assets: assets}
}

func (r *BitmapRenderer) render(ctx context.Context, vm domain.ViewModel, th theme.Theme, spec layout.Spec) ([]byte, error) {
	if vm.Kind == domain.KindIdle {
		return r.renderIdle(th, spec)
	}

	f, err := newFaces(th)
	if err != nil {
		return nil, err
	}
	text := layoutText(vm, spec, f)
	a := r.assets.load(ctx, vm.ThumbnailURL, spec.FetchSize, false)

	dc := gg.NewContext(spec.Width, spec.Height)

	if a.thumb != nil {
		placed := thumbnail.Place(thumbnail.SuppressBackground(a.thumb), spec.ThumbSize)
		dc.DrawRoundedRectangle(float64(spec.ThumbX), float64(spec.ThumbY), float64(spec.ThumbSize), float64(spec.ThumbSize), spec.ThumbRadius)
		dc.Clip()
		dc.DrawImage(placed, spec.ThumbX, spec.ThumbY)
		dc.ResetClip()
	} else {
		drawPlaceholder(dc, vm.Kind, th, spec)
	}

	dc.SetFontFace(f.title.Face)
	dc.SetColor(th.TextColor.NRGBA(255))
	dc.DrawString(text.Title.Text, float64(spec.TextX), float64(spec.TitleBaseline))

	if text.Subtitle.Text != "" {
		dc.SetFontFace(f.subtitle.Face)
		dc.SetColor(th.AccentColor.NRGBA(255))
		dc.DrawString(text.Subtitle.Text, float64(spec.TextX), float64(spec.SubtitleBaseline))
	}

	if text.Time != "" {
		dc.SetFontFace(f.time.Face)
		dc.SetColor(th.TextColor.NRGBA(230))
		dc.DrawString(text.Time, float64(spec.TextX), float64(spec.TimeBaseline))
	}

	drawStaticBars(dc, equalizer.Static(spec, rgba(th.AccentColor)), a.thumb)

	if text.ShowProgress {
		dc.SetColor(th.ProgressBackground.NRGBA(progressBackgroundAlpha))
		dc.DrawRectangle(float64(spec.TextX), float64(spec.ProgressY), float64(spec.TextWidth), float64(spec.ProgressHeight))
		dc.Fill()
		if w := spec.ProgressWidth(vm.ProgressSeconds, vm.DurationSeconds); w > 0 {
			dc.SetColor(th.ProgressForeground.NRGBA(255))
			dc.DrawRectangle(float64(spec.TextX), float64(spec.ProgressY), float64(w), float64(spec.ProgressHeight))
			dc.Fill()
		}
	}

	return encode(dc.Image())
}

// drawStaticBars fills each bar with its slice of the blurred artwork
// backdrop, or with the bar color when there is no artwork.
func drawStaticBars(dc *gg.Context, row equalizer.Row, art *image.NRGBA) {
	backdrop := thumbnail.NewBackdrop(art, row.Width, row.MaxHeight)
	for _, b := range row.Bars {
		if backdrop != nil {
			dc.DrawImage(backdrop.Slice(b.Offset, b.Width, b.Height), b.X, b.Top())
			continue
		}
		dc.SetColor(b.Color)
		dc.DrawRectangle(float64(b.X), float64(b.Top()), float64(b.Width), float64(b.Height))
		dc.Fill()
	}
}

func drawPlaceholder(dc *gg.Context, kind domain.ViewKind, th theme.Theme, spec layout.Spec) {
	dc.SetColor(th.ProgressBackground.NRGBA(spec.PlaceholderAlpha))
	dc.DrawRoundedRectangle(float64(spec.ThumbX), float64(spec.ThumbY), float64(spec.ThumbSize), float64(spec.ThumbSize), spec.ThumbRadius)
	dc.Fill()

	dc.SetColor(th.AccentColor.NRGBA(255))
	for _, s := range placeholderGlyph(kind, spec) {
		if s.Circle {
			dc.DrawCircle(s.X+s.W/2, s.Y+s.H/2, s.W/2)
		} else if s.Radius > 0 {
			dc.DrawRoundedRectangle(s.X, s.Y, s.W, s.H, s.Radius)
		} else {
			dc.DrawRectangle(s.X, s.Y, s.W, s.H)
		}
		dc.Fill()
	}
}

func (r *BitmapRenderer) renderIdle(th theme.Theme, spec layout.Spec) ([]byte, error) {
	f, err := textlayout.NewFont(textlayout.Regular, spec.IdleTextSize)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(spec.Width, spec.Height)
	dc.SetColor(th.ProgressBackground.NRGBA(255))
	dc.Clear()

	dc.SetFontFace(f.Face)
	dc.SetColor(th.TextColor.NRGBA(255))
	x := (float64(spec.Width) - textlayout.Measure(idleText, f)) / 2
	dc.DrawString(idleText, x, float64(textlayout.CenteredBaseline(spec.Height, f)))
	return encode(dc.Image())
}

// renderError draws centered status lines on translucent backdrops. If that
// fails too, it returns a blank image of the right size.
func (r *BitmapRenderer) renderError(vm domain.ViewModel, _ theme.Theme, spec layout.Spec) []byte {
	data, err := compose(func() ([]byte, error) { return r.drawError(vm, spec) })
	if err == nil {
		return data
	}
	r.logger.Error("Error badge failed, returning blank image", zap.Error(err))
	return blankPNG(spec.Width, spec.Height)
}

func (r *BitmapRenderer) drawError(vm domain.ViewModel, spec layout.Spec) ([]byte, error) {
	f, err := textlayout.NewFont(textlayout.Regular, spec.ErrorTextSize)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(spec.Width, spec.Height)
	dc.SetFontFace(f.Face)

	lines := errorLines(vm)
	budget := float64(spec.Width - 2*(spec.RightMargin+errorPadding))
	top := (spec.Height - len(lines)*spec.ErrorLineStep) / 2
	for i, text := range lines {
		text = textlayout.TruncateToFit(text, f, budget)
		baseline := top + i*spec.ErrorLineStep + f.Ascent
		w := textlayout.Measure(text, f)
		x := (float64(spec.Width) - w) / 2

		dc.SetColor(color.NRGBA{A: 128})
		dc.DrawRectangle(x-errorPadding, float64(textlayout.GlyphTop(baseline, f)-errorPadding),
			w+2*errorPadding, float64(f.Ascent+f.Descent+2*errorPadding))
		dc.Fill()

		dc.SetColor(color.White)
		dc.DrawString(text, x, float64(baseline))
	}
	return encode(dc.Image())
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// blankPNG is the last resort output. Encoding an in-memory image into a
// buffer cannot fail for valid dimensions.
func blankPNG(w, h int) []byte {
	data, _ := encode(image.NewNRGBA(image.Rect(0, 0, w, h)))
	return data
}

func rgba(c theme.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
