package internal

import (
	"context"
	"time"
)

// BaseDelay is the wait before the second attempt. It doubles after every failure.
var BaseDelay = 100 * time.Millisecond

// Backoff returns the wait after the given failed attempt (100ms, 200ms, 400ms, ...).
func Backoff(attempt int) time.Duration {
	return BaseDelay * time.Duration(1<<attempt)
}

// Retry calls fn up to maxAttempts times with exponential backoff, passing the attempt number
// starting at 0. Returns the last error if all attempts fail, or ctx.Err() if the context is
// cancelled while waiting.
func Retry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var err error
	for i := 0; i < maxAttempts; i++ {
		if err = fn(i); err == nil {
			return nil
		}
		if i < maxAttempts-1 {
			select {
			case <-time.After(Backoff(i)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

