package monitor

import (
	"context"
	"sync"

	"github.com/genricoloni/playbadge/internal/domain"
)

// NopSource never reports a session. It backs deployments that only render
// idle badges or records supplied by other means.
type NopSource struct {
	events chan domain.SessionRecord
	once   sync.Once
}

// NewNopSource creates a source that emits nothing.
func NewNopSource() *NopSource {
	return &NopSource{events: make(chan domain.SessionRecord)}
}

// Start blocks until ctx is cancelled.
func (s *NopSource) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// Stop closes the events channel. It is safe to call more than once.
func (s *NopSource) Stop(context.Context) error {
	s.once.Do(func() { close(s.events) })
	return nil
}

func (s *NopSource) Events() <-chan domain.SessionRecord {
	return s.events
}
