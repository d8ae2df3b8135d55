package ratelimiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer is consulted between consecutive outbound requests so bulk
// submissions stay under the receivers' rate limits.
// Wait returns a non-nil error only if ctx is cancelled while waiting.
type Pacer interface {
	Wait(ctx context.Context) error
}

type noDelay struct{}

func (noDelay) Wait(ctx context.Context) error { return ctx.Err() }

// None never waits. Tests use it to avoid wall-clock sleeps.
func None() Pacer { return noDelay{} }

type fixedDelay struct {
	d time.Duration
}

// Fixed waits d between requests. A non-positive d behaves like None.
func Fixed(d time.Duration) Pacer {
	if d <= 0 {
		return None()
	}
	return fixedDelay{d: d}
}

func (f fixedDelay) Wait(ctx context.Context) error {
	t := time.NewTimer(f.d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// TokenBucket paces with a shared token bucket so it stays correct when
// several goroutines submit at once.
type TokenBucket struct {
	limiter *rate.Limiter
}

// PerSecond creates a TokenBucket with perSec tokens per second.
// Burst is 1: requests are spread evenly instead of fired in a burst.
func PerSecond(perSec float64) *TokenBucket {
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(perSec), 1)}
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// New picks the pacer for the configured values: a positive rate wins over
// a fixed delay.
func New(perSec float64, delay time.Duration) Pacer {
	if perSec > 0 {
		return PerSecond(perSec)
	}
	return Fixed(delay)
}
