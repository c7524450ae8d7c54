package resilience

import (
	"context"
	"errors"
	"time"
)

// ExecuteWithTimeout runs op under a deadline of d. If op does not return in time,
// ExecuteWithTimeout returns ErrTimeout without waiting for it; op sees its context
// cancelled. Cancellation of ctx itself is returned as ctx.Err().
func ExecuteWithTimeout(ctx context.Context, d time.Duration, op func(context.Context) error) error {
	if d <= 0 {
		return op(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- op(tctx) }()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return ErrTimeout
		}
		return err
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrTimeout
	}
}
