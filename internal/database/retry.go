package database

import (
	"context"
	"time"
)

const (
	defaultRetryAttempts = 4
	defaultRetryBase     = 100 * time.Millisecond
)

// retryBusy runs op up to maxAttempts times, sleeping 2^attempt base units
// between attempts (attempt counted from 1). Non-transient errors propagate
// immediately; after the final attempt the last error is returned unchanged.
// Table creation and the WAL-mode switch on first launch can race with
// filesystem lock acquisition, which is the condition this absorbs.
func retryBusy(ctx context.Context, maxAttempts int, base time.Duration, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}
		if attempt == maxAttempts {
			return err
		}

		delay := base << uint(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
