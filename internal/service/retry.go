package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/notifyhub/indexnotify/internal/domain"
	"github.com/notifyhub/indexnotify/internal/ratelimiter"
)

// RetryPolicy is off when MaxRetries is zero: each endpoint or URL then gets
// exactly one attempt per call.
//
// Retry schedule when enabled:
//
//	retry 1 → Backoff[0]
//	retry 2 → Backoff[1]
//	retry N ≥ len(Backoff) → last Backoff entry (clamped)
//
// Only transport failures, 429 and 5xx are retried. IndexNow and the Indexing
// API are idempotent per URL, so a repeated notification is harmless.
type RetryPolicy struct {
	MaxRetries int
	Backoff    []time.Duration
}

func (p RetryPolicy) delay(retry int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	idx := retry
	if idx >= len(p.Backoff) {
		idx = len(p.Backoff) - 1
	}
	return p.Backoff[idx]
}

// do calls attempt until it reports no retry is needed, retries run out, or
// ctx is done. It returns the number of attempts made.
func (p RetryPolicy) do(ctx context.Context, attempt func() (retry bool)) int {
	attempts := 0
	for {
		attempts++
		if !attempt() || attempts > p.MaxRetries || ctx.Err() != nil {
			return attempts
		}
		if err := ratelimiter.Fixed(p.delay(attempts - 1)).Wait(ctx); err != nil {
			return attempts
		}
	}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func retryableErr(err error) bool {
	var terr *domain.TransportError
	if errors.As(err, &terr) {
		return true
	}
	var rej *domain.RemoteRejectionError
	if errors.As(err, &rej) {
		return retryableStatus(rej.StatusCode)
	}
	return false
}
