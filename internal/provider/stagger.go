package provider

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Stagger delays an upstream call so concurrent calls for one request do not
// hit the Yelp per-second limit together.
type Stagger interface {
	Wait(ctx context.Context) error
}

// JitterStagger sleeps a uniformly random duration in [Min, Max).
type JitterStagger struct {
	Min time.Duration
	Max time.Duration
}

// Wait sleeps for a random duration or until ctx is done.
func (j JitterStagger) Wait(ctx context.Context) error {
	d := j.Min
	if span := j.Max - j.Min; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStagger spaces calls with a token bucket shared across requests.
type LimiterStagger struct {
	Limiter *rate.Limiter
}

// NewLimiterStagger allows rps calls per second with the given burst.
func NewLimiterStagger(rps float64, burst int) LimiterStagger {
	if burst < 1 {
		burst = 1
	}
	return LimiterStagger{Limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the limiter admits one call.
func (l LimiterStagger) Wait(ctx context.Context) error {
	return l.Limiter.Wait(ctx)
}

// NoStagger dispatches immediately.
type NoStagger struct{}

// Wait returns immediately.
func (NoStagger) Wait(ctx context.Context) error {
	return ctx.Err()
}
