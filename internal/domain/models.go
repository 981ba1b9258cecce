package domain

import (
	"fmt"
	"image/color"
)

// PlayerStatus represents the current state of the media player
type PlayerStatus string

const (
	// StatusPlaying indicates the media is currently playing
	StatusPlaying PlayerStatus = "playing"
	// StatusPaused indicates the media is paused
	StatusPaused PlayerStatus = "paused"
	// StatusStopped indicates the media is stopped, or the record comes from history
	StatusStopped PlayerStatus = "stopped"
)

// ParseStatus maps a provider status string onto a PlayerStatus.
// Unknown values are treated as stopped.
func ParseStatus(s string) PlayerStatus {
	switch s {
	case "playing", "Playing":
		return StatusPlaying
	case "paused", "Paused", "buffering":
		return StatusPaused
	default:
		return StatusStopped
	}
}

// SessionRecord is the normalized record handed over by a session provider.
// A nil *SessionRecord means nothing is playing and no history is available.
type SessionRecord struct {
	// Type is the provider's content type: "track", "episode", "movie" or anything else
	Type   string       `json:"type"`
	Status PlayerStatus `json:"state"`

	Title        string `json:"title,omitempty"`
	TrackTitle   string `json:"track_title,omitempty"`
	Artist       string `json:"artist,omitempty"`
	Album        string `json:"album,omitempty"`
	ShowTitle    string `json:"show_title,omitempty"`
	Season       int    `json:"season,omitempty"`
	Episode      int    `json:"episode,omitempty"`
	EpisodeTitle string `json:"episode_title,omitempty"`
	Subtitle     string `json:"subtitle,omitempty"`
	Year         int    `json:"year,omitempty"`

	ProgressMs int64 `json:"progress_ms,omitempty"`
	DurationMs int64 `json:"duration_ms,omitempty"`

	ThumbURL string `json:"thumb,omitempty"`
	ArtURL   string `json:"art,omitempty"`

	// Player is the name of the source that produced the record (informational)
	Player string `json:"player,omitempty"`
}

// ViewKind discriminates the layouts a badge can take.
type ViewKind string

const (
	KindTrack   ViewKind = "track"
	KindEpisode ViewKind = "episode"
	KindMovie   ViewKind = "movie"
	KindGeneric ViewKind = "generic"
	KindIdle    ViewKind = "idle"
	KindError   ViewKind = "error"
)

// Content is the kind-specific part of a ViewModel. The set of
// implementations is closed: Track, Episode, Movie and Generic.
type Content interface {
	Kind() ViewKind
	// Lines returns the primary and secondary display strings.
	Lines() (primary, secondary string)
}

// Track is a music track.
type Track struct {
	Title  string
	Artist string
	Album  string
}

func (Track) Kind() ViewKind { return KindTrack }

func (t Track) Lines() (string, string) {
	return t.Title, t.Artist + " • " + t.Album
}

// Episode is a TV episode.
type Episode struct {
	Show   string
	Season int
	Number int
	Title  string
}

func (Episode) Kind() ViewKind { return KindEpisode }

func (e Episode) Lines() (string, string) {
	return fmt.Sprintf("%s • S%02dE%02d", e.Show, e.Season, e.Number), e.Title
}

// Movie is a film; the year is shown as secondary text when known.
type Movie struct {
	Title string
	Year  int
}

func (Movie) Kind() ViewKind { return KindMovie }

func (m Movie) Lines() (string, string) {
	if m.Year <= 0 {
		return m.Title, ""
	}
	return m.Title, fmt.Sprintf("%d", m.Year)
}

// Generic covers any other content type.
type Generic struct {
	Title    string
	Subtitle string
}

func (Generic) Kind() ViewKind { return KindGeneric }

func (g Generic) Lines() (string, string) { return g.Title, g.Subtitle }

// ViewModel is the per-render view consumed by both renderers.
type ViewModel struct {
	Kind          ViewKind
	State         PlayerStatus
	PrimaryText   string
	SecondaryText string
	// ProgressSeconds and DurationSeconds are non-negative; a zero duration
	// means the time label and progress bar are not shown.
	ProgressSeconds int
	DurationSeconds int
	ThumbnailURL    string
	// Content is nil for idle and error views.
	Content Content
}

// IdleView is the view for an absent session.
func IdleView() ViewModel {
	return ViewModel{Kind: KindIdle, State: StatusStopped}
}

// ErrorView keeps the display strings of vm and switches it to the error state.
func ErrorView(vm ViewModel) ViewModel {
	return ViewModel{
		Kind:          KindError,
		State:         vm.State,
		PrimaryText:   vm.PrimaryText,
		SecondaryText: vm.SecondaryText,
	}
}

// Palette is an ordered set of dominant colors, most dominant first.
type Palette []color.RGBA

// RenderConfig is the caller supplied render configuration.
type RenderConfig struct {
	Theme  string
	Width  int
	Height int
}

const (
	DefaultWidth = 400
	MinWidth     = 200
	MaxWidth     = 1200
	// BadgeHeight is fixed regardless of what the caller asks for.
	BadgeHeight = 90
)

// Normalize applies the width default and bounds and pins the height.
func (c RenderConfig) Normalize() RenderConfig {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	c.Width = min(max(c.Width, MinWidth), MaxWidth)
	c.Height = BadgeHeight
	return c
}
