// Package cache stores rendered badges so repeated requests for an unchanged
// session skip rendering.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/genricoloni/playbadge/internal/domain"
)

// Key identifies a rendered badge. Playback progress is left out, so a cached
// badge is reused for as long as its TTL while the session plays on.
func Key(format, theme string, width int, rec *domain.SessionRecord) string {
	var fingerprint any = "idle"
	if rec != nil {
		r := *rec
		r.ProgressMs = 0
		fingerprint = r
	}
	data, _ := json.Marshal([]any{format, theme, width, fingerprint})
	hash := sha256.Sum256(data)
	return fmt.Sprintf("badge:%s", hex.EncodeToString(hash[:]))
}

// Open creates the cache for backend: "memory", "redis" or "none".
func Open(ctx context.Context, backend string, redisCfg RedisConfig) (domain.Cache, error) {
	switch backend {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(ctx, redisCfg)
	case "none":
		return NewNull(), nil
	default:
		return nil, domain.NewError(domain.CodeInvalidInput, "unknown cache backend %q", backend)
	}
}

// Null is a cache that never stores anything.
type Null struct{}

// NewNull creates a disabled cache.
func NewNull() domain.Cache {
	return Null{}
}

func (Null) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Null) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Null) Clear(context.Context) error                              { return nil }
func (Null) Close() error                                             { return nil }

var _ domain.Cache = Null{}
