package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/genricoloni/playbadge/internal/domain"
	"go.uber.org/zap"
)

// chanSource is a session source fed directly by the test.
type chanSource struct {
	events chan domain.SessionRecord
}

func newChanSource() *chanSource {
	return &chanSource{events: make(chan domain.SessionRecord, 10)}
}

func (s *chanSource) Start(ctx context.Context) error     { <-ctx.Done(); return ctx.Err() }
func (s *chanSource) Stop(context.Context) error          { return nil }
func (s *chanSource) Events() <-chan domain.SessionRecord { return s.events }

func track(title string, status domain.PlayerStatus) domain.SessionRecord {
	return domain.SessionRecord{
		Type:       "track",
		Title:      title,
		Artist:     "Artist",
		Album:      "Album",
		Status:     status,
		ProgressMs: 10_000,
		DurationMs: 200_000,
	}
}

func newTestTracker(clock *time.Time) *Tracker {
	tr := New(zap.NewNop(), newChanSource(), Options{})
	tr.now = func() time.Time { return *clock }
	return tr
}

func current(t *testing.T, tr *Tracker) *domain.SessionRecord {
	t.Helper()
	rec, err := tr.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	return rec
}

func TestCurrent_Empty(t *testing.T) {
	clock := time.Unix(1_000, 0)
	tr := newTestTracker(&clock)

	if rec := current(t, tr); rec != nil {
		t.Errorf("expected no session, got %+v", rec)
	}
}

func TestCurrent_ExtrapolatesPlayingProgress(t *testing.T) {
	clock := time.Unix(1_000, 0)
	tr := newTestTracker(&clock)

	tr.apply(track("One", domain.StatusPlaying))
	clock = clock.Add(5 * time.Second)

	rec := current(t, tr)
	if rec == nil || rec.ProgressMs != 15_000 {
		t.Fatalf("expected progress 15000, got %+v", rec)
	}

	clock = clock.Add(time.Hour)
	if rec := current(t, tr); rec.ProgressMs != 200_000 {
		t.Errorf("progress should clamp to duration, got %d", rec.ProgressMs)
	}
}

func TestCurrent_PausedProgressIsFrozen(t *testing.T) {
	clock := time.Unix(1_000, 0)
	tr := newTestTracker(&clock)

	tr.apply(track("One", domain.StatusPaused))
	clock = clock.Add(time.Minute)

	if rec := current(t, tr); rec.ProgressMs != 10_000 {
		t.Errorf("paused progress moved to %d", rec.ProgressMs)
	}
}

func TestApply_HistoryAndRotation(t *testing.T) {
	clock := time.Unix(0, 0)
	tr := newTestTracker(&clock)

	tr.apply(track("One", domain.StatusPlaying))
	tr.apply(track("Two", domain.StatusPlaying))
	// Same track again only refreshes the current session
	tr.apply(track("Two", domain.StatusPaused))
	tr.apply(domain.SessionRecord{Type: "generic", Status: domain.StatusStopped})

	history := tr.History()
	if len(history) != 2 || history[0].Title != "Two" || history[1].Title != "One" {
		t.Fatalf("unexpected history %+v", history)
	}
	for _, h := range history {
		if h.Status != domain.StatusStopped || h.ProgressMs != 0 {
			t.Errorf("history entries must be stopped with no progress: %+v", h)
		}
	}

	tests := []struct {
		at   int64
		want string
	}{
		{0, "Two"},
		{29, "Two"},
		{30, "One"},
		{60, "Two"},
	}
	for _, tt := range tests {
		clock = time.Unix(tt.at, 0)
		rec := current(t, tr)
		if rec == nil || rec.Title != tt.want {
			t.Errorf("at %ds: want %q, got %+v", tt.at, tt.want, rec)
		}
		if rec != nil && rec.Status != domain.StatusStopped {
			t.Errorf("at %ds: history record should be stopped", tt.at)
		}
	}
}

func TestApply_HistoryIsBounded(t *testing.T) {
	clock := time.Unix(0, 0)
	tr := New(zap.NewNop(), newChanSource(), Options{HistorySize: 3})
	tr.now = func() time.Time { return clock }

	for _, title := range []string{"A", "B", "C", "D", "E"} {
		tr.apply(track(title, domain.StatusPlaying))
	}
	tr.apply(domain.SessionRecord{Status: domain.StatusStopped})

	history := tr.History()
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	if history[0].Title != "E" || history[2].Title != "C" {
		t.Errorf("unexpected order %+v", history)
	}
}

func TestApply_StoppedWithoutCurrent(t *testing.T) {
	clock := time.Unix(0, 0)
	tr := newTestTracker(&clock)

	tr.apply(track("Late", domain.StatusStopped))
	tr.apply(domain.SessionRecord{Status: domain.StatusStopped})

	if history := tr.History(); len(history) != 1 || history[0].Title != "Late" {
		t.Errorf("unexpected history %+v", history)
	}
}

func TestApply_StopFromOtherPlayer(t *testing.T) {
	clock := time.Unix(0, 0)
	tr := newTestTracker(&clock)

	playing := track("One", domain.StatusPlaying)
	playing.Player = "spotify"
	tr.apply(playing)

	tr.apply(domain.SessionRecord{Type: "generic", Status: domain.StatusStopped, Player: "vlc"})
	if rec := current(t, tr); rec == nil || rec.Title != "One" || rec.Status != domain.StatusPlaying {
		t.Fatalf("another player's exit should not end the session, got %+v", rec)
	}
	if len(tr.History()) != 0 {
		t.Errorf("unexpected history %+v", tr.History())
	}

	tr.apply(domain.SessionRecord{Type: "generic", Status: domain.StatusStopped, Player: "spotify"})
	if rec := current(t, tr); rec == nil || rec.Status != domain.StatusStopped {
		t.Fatalf("expected the history record after the owner stopped, got %+v", rec)
	}
	if history := tr.History(); len(history) != 1 || history[0].Title != "One" {
		t.Errorf("unexpected history %+v", history)
	}
}

func TestRunLoop_Debounces(t *testing.T) {
	src := newChanSource()
	tr := New(zap.NewNop(), src, Options{Debounce: 20 * time.Millisecond})

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		if err := tr.Stop(context.Background()); err != nil {
			t.Errorf("Stop: %v", err)
		}
	}()

	for _, title := range []string{"Skip 1", "Skip 2", "Keeper"} {
		src.events <- track(title, domain.StatusPlaying)
	}

	deadline := time.After(2 * time.Second)
	for {
		rec := current(t, tr)
		if rec != nil {
			if rec.Title != "Keeper" {
				t.Fatalf("expected the last record to win, got %q", rec.Title)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("debounced record was never applied")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if history := tr.History(); len(history) != 0 {
		t.Errorf("skipped tracks must not reach history: %+v", history)
	}
}

func TestRunLoop_SourceClosedFlushesPending(t *testing.T) {
	src := newChanSource()
	tr := New(zap.NewNop(), src, Options{Debounce: time.Hour})

	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	src.events <- track("Last", domain.StatusPlaying)
	close(src.events)

	select {
	case <-tr.loopDone:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not end after the source closed")
	}
	if rec := current(t, tr); rec == nil || rec.Title != "Last" {
		t.Errorf("pending record was not applied: %+v", rec)
	}
	if err := tr.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
