package payment

import (
	"context"
	"time"
)

// Gateway performs one payment attempt. Implementations enforce their own
// timeout and report only success or failure.
type Gateway interface {
	Attempt(ctx context.Context) bool
}

type GatewayFunc func(ctx context.Context) bool

func (f GatewayFunc) Attempt(ctx context.Context) bool { return f(ctx) }

// Simulated stands in for a payment provider: it waits Latency and succeeds.
type Simulated struct {
	Latency time.Duration
}

func (s Simulated) Attempt(ctx context.Context) bool {
	return sleep(ctx, s.Latency) == nil
}

// sleep parks only the calling goroutine.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
