package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter paces operations at a fixed rate with optional jitter, so that
// repeated search-engine queries don't land on a metronome-regular cadence.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	ticker   *time.Ticker
	ch       <-chan time.Time
	interval time.Duration
	jitter   float64 // 0.0 to 1.0
}

// NewLimiter creates a limiter allowing rps operations per second.
// jitter is clamped to [0, 1]; a non-positive rps yields a limiter that
// never blocks.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{jitter: jitter}
	}

	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	interval := time.Duration(float64(time.Second) / rps)
	ticker := time.NewTicker(interval)

	return &Limiter{
		ticker:   ticker,
		ch:       ticker.C,
		interval: interval,
		jitter:   jitter,
	}
}

// Wait blocks until the next slot opens or the context is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.ch == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ch:
		if l.jitter > 0 {
			// Random extra delay in [0, jitter*interval). Negative jitter would
			// mean running early, which a ticker cannot do, so only the positive
			// half is applied.
			extra := time.Duration(rand.Float64() * l.jitter * float64(l.interval))
			if extra > 0 {
				select {
				case <-time.After(extra):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return nil
}

// Stop releases the limiter's ticker.
func (l *Limiter) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
}
