// Package layout holds the geometry shared by the vector and bitmap
// renderers. Both read positions from a single Spec so their outputs line up.
package layout

import "image"

const (
	thumbMargin      = 5
	thumbSize        = 80
	thumbGap         = 10
	rightMargin      = 10
	titleBaseline    = 16
	subtitleBaseline = 36
	timeBaseline     = 50
	barBaseline      = 81
	barWidth         = 2
	barGap           = 1
	staticBarInset   = 2
	progressY        = 85
	progressHeight   = 3
)

// Spec is the computed geometry of one badge.
type Spec struct {
	Width  int
	Height int

	ThumbX      int
	ThumbY      int
	ThumbSize   int
	ThumbRadius float64
	// FetchSize is the square the thumbnail is fitted into before placement.
	FetchSize int
	// PlaceholderAlpha is the opacity of the empty thumbnail slot (0-255).
	PlaceholderAlpha uint8

	TextX       int
	RightMargin int
	// TextWidth is the pixel budget every text line is truncated to.
	TextWidth int

	TitleBaseline    int
	SubtitleBaseline int
	TimeBaseline     int

	BarX           int
	BarBaseline    int
	BarWidth       int
	BarGap         int
	BarsWidth      int
	StaticBarInset int

	ProgressY      int
	ProgressHeight int

	IdleTextSize  float64
	ErrorTextSize float64
	ErrorLineStep int
}

// New computes the geometry for a badge of the given size.
func New(width, height int) Spec {
	textX := thumbMargin + thumbSize + thumbGap
	textWidth := max(width-textX-rightMargin, 0)
	return Spec{
		Width:            width,
		Height:           height,
		ThumbX:           thumbMargin,
		ThumbY:           thumbMargin,
		ThumbSize:        thumbSize,
		ThumbRadius:      8,
		FetchSize:        120,
		PlaceholderAlpha: 180,
		TextX:            textX,
		RightMargin:      rightMargin,
		TextWidth:        textWidth,
		TitleBaseline:    titleBaseline,
		SubtitleBaseline: subtitleBaseline,
		TimeBaseline:     timeBaseline,
		BarX:             textX,
		BarBaseline:      barBaseline,
		BarWidth:         barWidth,
		BarGap:           barGap,
		BarsWidth:        textWidth,
		StaticBarInset:   staticBarInset,
		ProgressY:        progressY,
		ProgressHeight:   progressHeight,
		IdleTextSize:     16,
		ErrorTextSize:    14,
		ErrorLineStep:    20,
	}
}

// BarPitch is the horizontal distance between the left edges of two bars.
func (s Spec) BarPitch() int { return s.BarWidth + s.BarGap }

// ThumbRect is the thumbnail slot.
func (s Spec) ThumbRect() image.Rectangle {
	return image.Rect(s.ThumbX, s.ThumbY, s.ThumbX+s.ThumbSize, s.ThumbY+s.ThumbSize)
}

// ProgressWidth is the filled part of the progress bar.
func (s Spec) ProgressWidth(progress, duration int) int {
	if duration <= 0 || progress <= 0 {
		return 0
	}
	if progress >= duration {
		return s.TextWidth
	}
	return s.TextWidth * progress / duration
}
