package domain

import (
	"context"
	"time"
)

// SessionSource defines the interface for monitoring media playback events
// Implementations should handle D-Bus/MPRIS communication
type SessionSource interface {
	// Start begins monitoring for media events
	// It should block until context is cancelled or an error occurs
	Start(ctx context.Context) error

	// Stop gracefully stops the source
	Stop(ctx context.Context) error

	// Events returns a read-only channel that emits a record whenever
	// the playback state changes
	Events() <-chan SessionRecord
}

// SessionProvider answers "what is playing now".
type SessionProvider interface {
	// Current returns the active session, a history record when nothing is
	// playing, or nil when neither exists.
	Current(ctx context.Context) (*SessionRecord, error)
}

// Fetcher defines the interface for retrieving thumbnail bytes
//
//go:generate mockgen -destination=mocks/fetcher_mock.go -package=mocks github.com/genricoloni/playbadge/internal/domain Fetcher
type Fetcher interface {
	// Fetch downloads image data from a URL
	// Returns the raw image bytes or an error
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Cache stores rendered badges. Lifetime is owned by whoever constructs it.
type Cache interface {
	// Get returns the cached bytes and whether the key was present and fresh
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear drops every entry owned by this cache
	Clear(ctx context.Context) error
	Close() error
}
