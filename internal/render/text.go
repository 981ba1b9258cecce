package render

import (
	"fmt"

	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/genricoloni/playbadge/internal/layout"
	"github.com/genricoloni/playbadge/internal/textlayout"
	"github.com/genricoloni/playbadge/internal/theme"
)

const (
	idleText  = "Nothing playing"
	errorText = "Badge unavailable"
)

// faces holds the fonts of one render. They are not shared between renders.
type faces struct {
	title    *textlayout.Font
	subtitle *textlayout.Font
	time     *textlayout.Font
}

func newFaces(th theme.Theme) (faces, error) {
	title, err := textlayout.NewFont(textlayout.Bold, th.TitleSize)
	if err != nil {
		return faces{}, err
	}
	subtitle, err := textlayout.NewFont(textlayout.Regular, th.SubtitleSize)
	if err != nil {
		return faces{}, err
	}
	tf, err := textlayout.NewFont(textlayout.Regular, th.TimeSize)
	if err != nil {
		return faces{}, err
	}
	return faces{title: title, subtitle: subtitle, time: tf}, nil
}

// line is one fitted text line. Full keeps the untruncated text for the
// marquee variant.
type line struct {
	Text     string
	Full     string
	Overflow float64 // pixels past the budget, 0 when it fits
}

// textBlock is the text of a content badge after fitting.
type textBlock struct {
	Title    line
	Subtitle line
	// Time is empty when the duration is unknown.
	Time         string
	ShowProgress bool
}

func fit(text string, f *textlayout.Font, budget float64) line {
	l := line{Text: text, Full: text}
	if w := textlayout.Measure(text, f); w > budget {
		l.Overflow = w - budget
		l.Text = textlayout.TruncateToFit(text, f, budget)
	}
	return l
}

// layoutText fits the view's strings into the shared text budget. Both
// renderers call it so truncation points match.
func layoutText(vm domain.ViewModel, spec layout.Spec, f faces) textBlock {
	budget := float64(spec.TextWidth)
	tb := textBlock{
		Title:    fit(vm.PrimaryText, f.title, budget),
		Subtitle: fit(vm.SecondaryText, f.subtitle, budget),
	}
	if label := timeLabel(vm); label != "" {
		tb.Time = fit(label, f.time, budget).Text
		tb.ShowProgress = vm.State != domain.StatusStopped
	}
	return tb
}

// timeLabel formats the playback position. History records carry no
// meaningful position and show only their length.
func timeLabel(vm domain.ViewModel) string {
	if vm.DurationSeconds <= 0 {
		return ""
	}
	switch vm.State {
	case domain.StatusStopped:
		return "Last played · " + formatDuration(vm.DurationSeconds)
	case domain.StatusPaused:
		return "Paused · " + formatDuration(vm.ProgressSeconds) + " / " + formatDuration(vm.DurationSeconds)
	default:
		return formatDuration(vm.ProgressSeconds) + " / " + formatDuration(vm.DurationSeconds)
	}
}

// formatDuration renders seconds as h:mm:ss, or m:ss under an hour.
func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// errorLines are the lines of the bitmap error document.
func errorLines(vm domain.ViewModel) []string {
	var lines []string
	for _, s := range []string{vm.PrimaryText, vm.SecondaryText} {
		if s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		lines = []string{errorText}
	}
	return lines
}
