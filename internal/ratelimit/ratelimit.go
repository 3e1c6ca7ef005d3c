package ratelimit

import (
	"context"
	"time"
)

// Pacer spaces consecutive checks against the storefront. Wait blocks for
// the configured interval or until the context is cancelled.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer waits a constant interval on every call. It is pacing only,
// not a correctness mechanism: the interval keeps the checker from hammering
// the site between SKUs.
type FixedPacer struct {
	interval time.Duration
}

func NewFixedPacer(interval time.Duration) *FixedPacer {
	return &FixedPacer{interval: interval}
}

func (p *FixedPacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *FixedPacer) Interval() time.Duration {
	return p.interval
}
