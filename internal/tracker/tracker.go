package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/playbadge/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultDebounce    = 500 * time.Millisecond
	DefaultHistorySize = 10
	DefaultRotation    = 30 * time.Second

	// rotationWindow is how many recent entries take turns on an idle badge
	rotationWindow = 5
)

// Options tunes a Tracker. Zero values select the defaults; Rotation is
// counted in whole seconds.
type Options struct {
	Debounce    time.Duration
	HistorySize int
	Rotation    time.Duration
}

// Tracker consumes session records from a source and answers what is
// playing now. Bursts of records are debounced so that only the state the
// player settles on is kept. Finished sessions go into a bounded history that
// is shown, in rotation, while nothing plays.
type Tracker struct {
	logger *zap.Logger
	source domain.SessionSource
	opts   Options
	now    func() time.Time

	mu       sync.RWMutex
	current  *domain.SessionRecord
	since    time.Time // when current was recorded
	history  []domain.SessionRecord
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// New creates a tracker for source. Call Start to begin consuming events.
func New(logger *zap.Logger, source domain.SessionSource, opts Options) *Tracker {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.Rotation < time.Second {
		opts.Rotation = DefaultRotation
	}
	return &Tracker{
		logger: logger,
		source: source,
		opts:   opts,
		now:    time.Now,
	}
}

// Start launches the event loop in a goroutine and returns immediately.
// The loop outlives ctx; it ends on Stop or when the source closes its channel.
func (t *Tracker) Start(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.loopDone = make(chan struct{})

	t.logger.Info("Tracker starting", zap.Duration("debounce", t.opts.Debounce))
	go t.runLoop(loopCtx, t.loopDone)
	return nil
}

// Stop ends the event loop and waits for it, bounded by ctx.
func (t *Tracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	cancel, done := t.cancel, t.loopDone
	t.cancel = nil
	t.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		t.logger.Info("Tracker stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for tracker loop: %w", ctx.Err())
	}
}

// runLoop waits for a quiet period after the last record before applying
// it, so rapid skipping settles on the final track.
func (t *Tracker) runLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	events := t.source.Events()

	timer := time.NewTimer(t.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	var pending *domain.SessionRecord

	for {
		select {
		case <-ctx.Done():
			return

		case rec, ok := <-events:
			if !ok {
				t.logger.Info("Session source closed")
				if pending != nil {
					t.apply(*pending)
				}
				return
			}
			t.logger.Debug("Session record received, debouncing",
				zap.String("title", rec.Title),
				zap.String("status", string(rec.Status)))

			pending = &rec
			timer.Reset(t.opts.Debounce)

		case <-timer.C:
			if pending != nil {
				t.apply(*pending)
				pending = nil
			}
		}
	}
}

// apply folds a settled record into the current session and history.
func (t *Tracker) apply(rec domain.SessionRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rec.Status == domain.StatusStopped {
		if t.current != nil && !sameOwner(*t.current, rec) {
			t.logger.Debug("Ignoring stop from another player",
				zap.String("player", rec.Player),
				zap.String("current", t.current.Player))
			return
		}
		if t.current != nil {
			t.remember(*t.current)
			t.current = nil
		} else if rec.Title != "" {
			t.remember(rec)
		}
		t.logger.Info("Session ended", zap.Int("history", len(t.history)))
		return
	}

	if t.current != nil && !sameContent(*t.current, rec) {
		t.remember(*t.current)
	}

	t.current = &rec
	t.since = t.now()
	t.logger.Info("Session updated",
		zap.String("title", rec.Title),
		zap.String("artist", rec.Artist),
		zap.String("status", string(rec.Status)))
}

// remember pushes rec to the front of the history. A repeat of the newest
// entry replaces it. Caller holds t.mu.
func (t *Tracker) remember(rec domain.SessionRecord) {
	if rec.Title == "" && rec.TrackTitle == "" && rec.ShowTitle == "" {
		return
	}
	rec.Status = domain.StatusStopped
	rec.ProgressMs = 0

	if len(t.history) > 0 && sameContent(t.history[0], rec) {
		t.history[0] = rec
		return
	}
	t.history = append([]domain.SessionRecord{rec}, t.history...)
	if len(t.history) > t.opts.HistorySize {
		t.history = t.history[:t.opts.HistorySize]
	}
}

// Current implements domain.SessionProvider. A playing session has its
// progress advanced by the time since it was recorded.
func (t *Tracker) Current(context.Context) (*domain.SessionRecord, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()

	if t.current != nil {
		rec := *t.current
		if rec.Status == domain.StatusPlaying {
			rec.ProgressMs += now.Sub(t.since).Milliseconds()
			if rec.DurationMs > 0 && rec.ProgressMs > rec.DurationMs {
				rec.ProgressMs = rec.DurationMs
			}
		}
		return &rec, nil
	}

	n := min(len(t.history), rotationWindow)
	if n == 0 {
		return nil, nil
	}
	slot := now.Unix() / int64(t.opts.Rotation/time.Second)
	rec := t.history[int(slot%int64(n))]
	return &rec, nil
}

// History returns a copy of the finished sessions, newest first.
func (t *Tracker) History() []domain.SessionRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.SessionRecord(nil), t.history...)
}

func sameContent(a, b domain.SessionRecord) bool {
	return a.Type == b.Type &&
		a.Title == b.Title &&
		a.TrackTitle == b.TrackTitle &&
		a.Artist == b.Artist &&
		a.Album == b.Album &&
		a.ShowTitle == b.ShowTitle &&
		a.Season == b.Season &&
		a.Episode == b.Episode
}

// sameOwner reports whether stop may end current. Records without a player
// name match any player.
func sameOwner(current, stop domain.SessionRecord) bool {
	return current.Player == "" || stop.Player == "" || current.Player == stop.Player
}
