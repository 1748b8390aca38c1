package browser

import (
	"context"
	"math/rand"
	"time"
)

// Pacer produces randomized delays within configured bounds, used between
// network-visible actions to avoid uniform, bot-like timing. The zero value
// never sleeps, which is what tests want.
type Pacer struct {
	Min time.Duration
	Max time.Duration
}

// NewPacer builds a pacer with the given bounds. Bounds are swapped if
// given out of order.
func NewPacer(min, max time.Duration) Pacer {
	if max < min {
		min, max = max, min
	}
	return Pacer{Min: min, Max: max}
}

// Delay returns a uniformly random duration within the pacer's bounds.
func (p Pacer) Delay() time.Duration {
	if p.Max <= 0 {
		return 0
	}
	if p.Max == p.Min {
		return p.Min
	}
	return p.Min + time.Duration(rand.Int63n(int64(p.Max-p.Min)))
}

// Wait sleeps for a jittered delay, returning early if ctx is cancelled.
func (p Pacer) Wait(ctx context.Context) error {
	d := p.Delay()
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
