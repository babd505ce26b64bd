package httpx

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Backoff computes exponential delays with optional symmetric jitter. It is
// shared by the HTTP retry loop and the cart write pipeline.
type Backoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewBackoff returns a Backoff with sane floors applied.
func NewBackoff(base, max time.Duration, jitter float64) *Backoff {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if max <= 0 {
		max = time.Second
	}
	if max < base {
		max = base
	}
	if jitter < 0 {
		jitter = 0
	}
	return &Backoff{
		BaseDelay: base,
		MaxDelay:  max,
		Jitter:    math.Min(jitter, 1),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ForAttempt returns the delay before retry number attempt (0-indexed).
func (b *Backoff) ForAttempt(attempt int) time.Duration {
	delay := b.BaseDelay
	if attempt > 0 {
		shift := attempt
		if shift > 30 {
			shift = 30
		}
		delay = b.BaseDelay << uint(shift)
		if delay <= 0 || delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return b.jitter(delay)
}

func (b *Backoff) jitter(delay time.Duration) time.Duration {
	if b.Jitter == 0 || delay <= 0 || b.rnd == nil {
		return delay
	}
	b.mu.Lock()
	factor := 1 + (b.rnd.Float64()*2-1)*b.Jitter
	b.mu.Unlock()
	if factor < 0 {
		factor = 0
	}
	return time.Duration(float64(delay) * factor)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
