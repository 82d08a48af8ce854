package util

import (
	"context"
	"time"
)

// retryMaxDelay caps the exponential backoff between attempts.
const retryMaxDelay = 30 * time.Second

// Retry runs fn until it succeeds, up to maxAttempts times. Failed attempts
// back off exponentially from baseDelay, capped at retryMaxDelay. The last
// error is returned when every attempt fails; context cancellation wins over
// further attempts.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		delay := baseDelay << (attempt - 1)
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
