// Package session turns provider records into the view model both
// renderers consume.
package session

import (
	"github.com/genricoloni/playbadge/internal/domain"
)

const (
	unknownTrack   = "Unknown Track"
	unknownArtist  = "Unknown Artist"
	unknownAlbum   = "Unknown Album"
	unknownShow    = "Unknown Show"
	unknownEpisode = "Unknown Episode"
	unknownTitle   = "Unknown Title"
)

// Adapt normalizes rec. A nil record yields the idle view; the adapter never
// produces the error view.
func Adapt(rec *domain.SessionRecord) domain.ViewModel {
	if rec == nil {
		return domain.IdleView()
	}

	content := contentOf(rec)
	primary, secondary := content.Lines()

	thumb := rec.ThumbURL
	if thumb == "" {
		thumb = rec.ArtURL
	}

	return domain.ViewModel{
		Kind:            content.Kind(),
		State:           domain.ParseStatus(string(rec.Status)),
		PrimaryText:     primary,
		SecondaryText:   secondary,
		ProgressSeconds: seconds(rec.ProgressMs),
		DurationSeconds: seconds(rec.DurationMs),
		ThumbnailURL:    thumb,
		Content:         content,
	}
}

func contentOf(rec *domain.SessionRecord) domain.Content {
	switch rec.Type {
	case "track", "":
		return domain.Track{
			Title:  firstOf(rec.TrackTitle, rec.Title, unknownTrack),
			Artist: firstOf(rec.Artist, unknownArtist),
			Album:  firstOf(rec.Album, unknownAlbum),
		}
	case "episode":
		return domain.Episode{
			Show:   firstOf(rec.ShowTitle, rec.Title, unknownShow),
			Season: max(rec.Season, 0),
			Number: max(rec.Episode, 0),
			Title:  firstOf(rec.EpisodeTitle, rec.Title, unknownEpisode),
		}
	case "movie":
		return domain.Movie{
			Title: firstOf(rec.Title, unknownTitle),
			Year:  rec.Year,
		}
	default:
		return domain.Generic{
			Title:    firstOf(rec.Title, unknownTitle),
			Subtitle: rec.Subtitle,
		}
	}
}

// seconds converts milliseconds, clamping negatives to zero.
func seconds(ms int64) int {
	if ms <= 0 {
		return 0
	}
	return int(ms / 1000)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
