//go:build !linux

package monitor

import (
	"context"
	"errors"

	"github.com/genricoloni/playbadge/internal/domain"
	"go.uber.org/zap"
)

// ErrUnsupported is returned by Start on platforms without a session bus.
var ErrUnsupported = errors.New("MPRIS monitoring is only supported on Linux systems")

// MprisMonitor stub for non-Linux platforms
type MprisMonitor struct {
	logger *zap.Logger
	events chan domain.SessionRecord
}

// NewMprisMonitor creates a stub monitor whose Start always fails
func NewMprisMonitor(logger *zap.Logger) *MprisMonitor {
	ch := make(chan domain.SessionRecord)
	close(ch)
	return &MprisMonitor{logger: logger, events: ch}
}

func (m *MprisMonitor) Start(ctx context.Context) error {
	m.logger.Warn("MPRIS is unavailable on this platform")
	return ErrUnsupported
}

// Events returns a closed channel since monitoring is not available
func (m *MprisMonitor) Events() <-chan domain.SessionRecord {
	return m.events
}

func (m *MprisMonitor) Stop(ctx context.Context) error {
	return nil
}
