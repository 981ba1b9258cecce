package render

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/equalizer"
	"github.com/genricoloni/playbadge/internal/layout"
	"github.com/genricoloni/playbadge/internal/textlayout"
	"github.com/genricoloni/playbadge/internal/theme"
	"github.com/genricoloni/playbadge/internal/thumbnail"
	"go.uber.org/zap"
)

const (
	titleMarqueeDur    = "12s"
	subtitleMarqueeDur = "15s"
)

// VectorRenderer emits the animated SVG badge.
type VectorRenderer struct {
	logger *zap.Logger
	assets *AssetLoader
	opts   Options
}

// NewVectorRenderer creates the SVG renderer.
func NewVectorRenderer(logger *zap.Logger, assets *AssetLoader, opts Options) *VectorRenderer {
	return &VectorRenderer{logger: logger, assets: assets, opts: opts}
}

func (r *VectorRenderer) render(ctx context.Context, vm domain.ViewModel, th theme.Theme, spec layout.Spec) ([]byte, error) {
	if vm.Kind == domain.KindIdle {
		return r.renderIdle(th, spec)
	}

	f, err := newFaces(th)
	if err != nil {
		return nil, err
	}
	text := layoutText(vm, spec, f)

	a := r.assets.load(ctx, vm.ThumbnailURL, spec.FetchSize, true)
	var thumbURI string
	if a.thumb != nil {
		if thumbURI, err = thumbnail.DataURI(a.thumb); err != nil {
			r.logger.Debug("Thumbnail unavailable, using placeholder", zap.Error(err))
			thumbURI = ""
		}
	}
	bars := equalizer.Animated(spec)

	var buf bytes.Buffer
	openSVG(&buf, spec)
	buf.WriteString("<defs>\n")
	r.writeStyle(&buf, th)
	writeGradient(&buf, bars, a.palette)
	fmt.Fprintf(&buf, `<clipPath id="thumbClip"><rect x="%d" y="%d" width="%d" height="%d" rx="%g"/></clipPath>`+"\n",
		spec.ThumbX, spec.ThumbY, spec.ThumbSize, spec.ThumbSize, spec.ThumbRadius)
	fmt.Fprintf(&buf, `<clipPath id="textClip"><rect x="%d" y="0" width="%d" height="%d"/></clipPath>`+"\n",
		spec.TextX, spec.TextWidth, spec.Height)
	buf.WriteString("</defs>\n")

	if thumbURI != "" {
		fmt.Fprintf(&buf, `<image x="%d" y="%d" width="%d" height="%d" href="%s" clip-path="url(#thumbClip)"/>`+"\n",
			spec.ThumbX, spec.ThumbY, spec.ThumbSize, spec.ThumbSize, thumbURI)
	} else {
		writePlaceholder(&buf, vm.Kind, th, spec)
	}

	buf.WriteString(`<g clip-path="url(#textClip)">` + "\n")
	r.writeLine(&buf, "title", text.Title, spec.TextX, spec.TitleBaseline, titleMarqueeDur)
	if text.Subtitle.Full != "" {
		r.writeLine(&buf, "subtitle", text.Subtitle, spec.TextX, spec.SubtitleBaseline, subtitleMarqueeDur)
	}
	if text.Time != "" {
		fmt.Fprintf(&buf, `<text x="%d" y="%d" class="time">%s</text>`+"\n", spec.TextX, spec.TimeBaseline, escape(text.Time))
	}
	buf.WriteString("</g>\n")

	writeBars(&buf, bars)

	if text.ShowProgress {
		fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" class="progress-bg"/>`+"\n",
			spec.TextX, spec.ProgressY, spec.TextWidth, spec.ProgressHeight)
		if w := spec.ProgressWidth(vm.ProgressSeconds, vm.DurationSeconds); w > 0 {
			fmt.Fprintf(&buf, `<rect x="%d" y="%d" width="%d" height="%d" class="progress-fg"/>`+"\n",
				spec.TextX, spec.ProgressY, w, spec.ProgressHeight)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func openSVG(buf *bytes.Buffer, spec layout.Spec) {
	fmt.Fprintf(buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		spec.Width, spec.Height, spec.Width, spec.Height)
}

func (r *VectorRenderer) writeStyle(buf *bytes.Buffer, th theme.Theme) {
	buf.WriteString("<style>\n")
	if r.opts.EmbedFonts {
		writeFontFaces(buf)
	}
	fmt.Fprintf(buf, ".title { font-family: %s; fill: %s; font-size: %gpx; font-weight: bold; }\n", th.FontFamily, th.TextColor.Hex(), th.TitleSize)
	fmt.Fprintf(buf, ".subtitle { font-family: %s; fill: %s; font-size: %gpx; }\n", th.FontFamily, th.AccentColor.Hex(), th.SubtitleSize)
	fmt.Fprintf(buf, ".time { font-family: %s; fill: %s; font-size: %gpx; opacity: 0.9; }\n", th.FontFamily, th.TextColor.Hex(), th.TimeSize)
	fmt.Fprintf(buf, ".progress-bg { fill: %s; opacity: 0.3; }\n", th.ProgressBackground.Hex())
	fmt.Fprintf(buf, ".progress-fg { fill: %s; }\n", th.ProgressForeground.Hex())
	buf.WriteString("</style>\n")
}

func writeFontFaces(buf *bytes.Buffer) {
	for _, face := range []struct {
		weight string
		w      textlayout.Weight
	}{{"normal", textlayout.Regular}, {"bold", textlayout.Bold}} {
		fmt.Fprintf(buf, "@font-face { font-family: 'Go'; font-weight: %s; src: url(data:font/ttf;base64,%s) format('truetype'); }\n",
			face.weight, textlayout.TTFBase64(face.w))
	}
}

// writeGradient spans the gradient over the bar group in user space so each
// bar shows the slice of the gradient under it.
func writeGradient(buf *bytes.Buffer, row equalizer.Row, pal domain.Palette) {
	fmt.Fprintf(buf, `<linearGradient id="%s" gradientUnits="userSpaceOnUse" x1="%d" y1="0" x2="%d" y2="0">`,
		equalizer.GradientID, row.X, row.X+row.Width)
	for _, s := range equalizer.Stops(pal) {
		fmt.Fprintf(buf, `<stop offset="%d%%" stop-color="%s"/>`, s.Offset, rgb(s.Color))
	}
	buf.WriteString("</linearGradient>\n")
}

func writeBars(buf *bytes.Buffer, row equalizer.Row) {
	fill := "url(#" + equalizer.GradientID + ")"
	opacity := joinFloats(equalizer.OpacityPattern)
	buf.WriteString(`<g class="equalizer">` + "\n")
	for _, b := range row.Bars {
		heights := make([]string, len(b.Pattern))
		ys := make([]string, len(b.Pattern))
		for i, h := range b.Pattern {
			heights[i] = strconv.Itoa(h)
			ys[i] = strconv.Itoa(b.BaselineY - h)
		}
		timing := fmt.Sprintf(`dur="%.2fs" begin="%.2fs" repeatCount="indefinite"`, b.Duration, b.Phase)
		fmt.Fprintf(buf, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" opacity="0.95">`,
			b.X, b.BaselineY-b.Height, b.Width, b.Height, fill)
		fmt.Fprintf(buf, `<animate attributeName="height" values="%s" %s/>`, strings.Join(heights, ";"), timing)
		fmt.Fprintf(buf, `<animate attributeName="y" values="%s" %s/>`, strings.Join(ys, ";"), timing)
		fmt.Fprintf(buf, `<animate attributeName="opacity" values="%s" %s/>`, opacity, timing)
		buf.WriteString("</rect>\n")
	}
	buf.WriteString("</g>\n")
}

// writeLine emits a text line, truncated, or scrolling when marquee is on
// and the line overflows.
func (r *VectorRenderer) writeLine(buf *bytes.Buffer, class string, l line, x, y int, dur string) {
	if !r.opts.Marquee || l.Overflow == 0 {
		fmt.Fprintf(buf, `<text x="%d" y="%d" class="%s">%s</text>`+"\n", x, y, class, escape(l.Text))
		return
	}
	end := float64(x) - l.Overflow
	fmt.Fprintf(buf, `<text x="%d" y="%d" class="%s">%s<animate attributeName="x" values="%d;%.1f;%d" dur="%s" repeatCount="indefinite"/></text>`+"\n",
		x, y, class, escape(l.Full), x, end, x, dur)
}

func writePlaceholder(buf *bytes.Buffer, kind domain.ViewKind, th theme.Theme, spec layout.Spec) {
	fmt.Fprintf(buf, `<rect x="%d" y="%d" width="%d" height="%d" rx="%g" fill="%s" fill-opacity="%.3f"/>`+"\n",
		spec.ThumbX, spec.ThumbY, spec.ThumbSize, spec.ThumbSize, spec.ThumbRadius,
		th.ProgressBackground.Hex(), float64(spec.PlaceholderAlpha)/255)
	fill := th.AccentColor.Hex()
	for _, s := range placeholderGlyph(kind, spec) {
		if s.Circle {
			fmt.Fprintf(buf, `<circle cx="%g" cy="%g" r="%g" fill="%s"/>`+"\n", s.X+s.W/2, s.Y+s.H/2, s.W/2, fill)
			continue
		}
		fmt.Fprintf(buf, `<rect x="%g" y="%g" width="%g" height="%g" rx="%g" fill="%s"/>`+"\n", s.X, s.Y, s.W, s.H, s.Radius, fill)
	}
}

func placeholderGlyph(kind domain.ViewKind, spec layout.Spec) layout.Glyph {
	if kind == domain.KindTrack {
		return spec.NoteGlyph()
	}
	return spec.ScreenGlyph()
}

func (r *VectorRenderer) renderIdle(th theme.Theme, spec layout.Spec) ([]byte, error) {
	f, err := textlayout.NewFont(textlayout.Regular, spec.IdleTextSize)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	openSVG(&buf, spec)
	fmt.Fprintf(&buf, `<rect width="%d" height="%d" fill="%s"/>`+"\n", spec.Width, spec.Height, th.ProgressBackground.Hex())
	fmt.Fprintf(&buf, `<text x="%d" y="%d" text-anchor="middle" font-family="%s" font-size="%g" fill="%s">%s</text>`+"\n",
		spec.Width/2, textlayout.CenteredBaseline(spec.Height, f), escape(th.FontFamily), spec.IdleTextSize, th.TextColor.Hex(), idleText)
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// renderError is the one-line fallback document. It uses no fonts or assets.
func (r *VectorRenderer) renderError(_ domain.ViewModel, th theme.Theme, spec layout.Spec) []byte {
	var buf bytes.Buffer
	openSVG(&buf, spec)
	fmt.Fprintf(&buf, `<text x="10" y="20" font-family="%s" font-size="%g" fill="%s">%s</text>`+"\n",
		escape(th.FontFamily), spec.ErrorTextSize, th.TextColor.Hex(), errorText)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

func rgb(c color.RGBA) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

func joinFloats(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Join(parts, ";")
}
