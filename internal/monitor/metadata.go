package monitor

import (
	"strings"

	"github.com/genricoloni/playbadge/internal/domain"
	"github.com/godbus/dbus/v5"
)

const (
	mprisPrefix     = "org.mpris.MediaPlayer2."
	mprisPath       = "/org/mpris/MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"

	propMetadata = playerInterface + ".Metadata"
	propStatus   = playerInterface + ".PlaybackStatus"
	propPosition = playerInterface + ".Position"
)

// recordFromMetadata converts MPRIS metadata into a session record.
// Entries with artist or album information are tracks; anything else is
// generic content labelled with the player name.
func recordFromMetadata(metadata map[string]dbus.Variant, status, player string) domain.SessionRecord {
	rec := domain.SessionRecord{
		Type:   "generic",
		Status: domain.ParseStatus(status),
		Player: shortName(player),
	}

	if metadata == nil {
		return rec
	}

	rec.Title = stringOf(metadata["xesam:title"])
	rec.Album = stringOf(metadata["xesam:album"])

	// xesam:artist is a list, but some players send a plain string
	switch artists := valueOf(metadata["xesam:artist"]).(type) {
	case []string:
		if len(artists) > 0 {
			rec.Artist = artists[0]
		}
	case string:
		rec.Artist = artists
	}

	if art := stringOf(metadata["mpris:artUrl"]); art != "" {
		rec.ThumbURL = art
	}

	if us, ok := int64Of(metadata["mpris:length"]); ok && us > 0 {
		rec.DurationMs = us / 1000
	}

	if rec.Artist != "" || rec.Album != "" {
		rec.Type = "track"
	} else {
		rec.Subtitle = rec.Player
	}
	return rec
}

// shortName strips the MPRIS bus prefix and instance suffix:
// "org.mpris.MediaPlayer2.firefox.instance_1_42" becomes "firefox".
func shortName(player string) string {
	name, ok := strings.CutPrefix(player, mprisPrefix)
	if !ok {
		return player
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}

// valueOf returns nil for a missing entry.
func valueOf(v dbus.Variant) any {
	return v.Value()
}

func stringOf(v dbus.Variant) string {
	s, _ := valueOf(v).(string)
	return s
}

// int64Of accepts the integer types players use for times in microseconds.
func int64Of(v dbus.Variant) (int64, bool) {
	switch n := valueOf(v).(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
