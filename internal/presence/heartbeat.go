// Package presence keeps a user's last-seen timestamp fresh.
package presence

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Pinger refreshes a presence timestamp once.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to the Pinger interface.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Heartbeat pings at a fixed interval until its context is cancelled.
type Heartbeat struct {
	pinger   Pinger
	interval time.Duration
	logger   *zap.Logger
}

func NewHeartbeat(pinger Pinger, interval time.Duration, logger *zap.Logger) *Heartbeat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Heartbeat{pinger: pinger, interval: interval, logger: logger}
}

// Run pings immediately, then on every tick. It returns when ctx is done.
// Ping failures are logged and do not stop the loop.
func (h *Heartbeat) Run(ctx context.Context) {
	if err := h.pinger.Ping(ctx); err != nil {
		h.logger.Warn("presence ping failed", zap.Error(err))
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.pinger.Ping(ctx); err != nil {
				h.logger.Warn("presence ping failed", zap.Error(err))
			}
		}
	}
}
