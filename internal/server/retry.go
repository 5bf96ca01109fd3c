package server

import (
	"context"
	"time"

	"github.com/matzehuels/gitmorph/pkg/errors"
)

// retry runs fn up to attempts times, doubling delay after each failure.
// Only REPOSITORY errors are retried: git rewrites refs through lock files,
// so a read racing a commit can fail once and succeed a moment later.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !errors.Is(err, errors.ErrCodeRepository) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
