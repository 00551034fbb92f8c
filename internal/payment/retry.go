package payment

import (
	"context"
	"log"
	"time"
)

const DefaultMaxRetries = 3

// Retrier calls a Gateway up to maxRetries times, waiting 2^k units after
// failed attempt k before attempt k+1.
type Retrier struct {
	Gateway Gateway
	Unit    time.Duration

	// Sleep defaults to a timer wait on ctx; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnAttempt observes each attempt, e.g. for metrics.
	OnAttempt func(attempt int, ok bool)
}

func NewRetrier(g Gateway, unit time.Duration) *Retrier {
	return &Retrier{Gateway: g, Unit: unit}
}

// Backoff is the wait after failed attempt k (1-based).
func (r *Retrier) Backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * r.Unit
}

// Run returns true on the first successful attempt and false once
// maxRetries attempts have failed. maxRetries <= 0 uses DefaultMaxRetries.
func (r *Retrier) Run(ctx context.Context, maxRetries int) bool {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	wait := r.Sleep
	if wait == nil {
		wait = sleep
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("payment: attempt %d of %d", attempt, maxRetries)
		ok := r.Gateway.Attempt(ctx)
		if r.OnAttempt != nil {
			r.OnAttempt(attempt, ok)
		}
		if ok {
			return true
		}
		if attempt == maxRetries {
			break
		}
		if err := wait(ctx, r.Backoff(attempt)); err != nil {
			log.Printf("payment: backoff interrupted: %v", err)
			return false
		}
	}
	return false
}
