package narrative

import (
	"context"
	"time"
)

// Clock abstracts wall time so the inter-stage delay is testable.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until the context is done, returning the
	// context error in that case.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
