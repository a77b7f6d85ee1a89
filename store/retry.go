package store

import (
	"context"
	"errors"
	"time"
)

// Retry re-runs one logical attempt (allocate, compile, commit) when it
// fails with a retryable conflict. Identifier allocation conflicts are the
// only retryable kind: the identifier and everything derived from it must
// be recomputed, so the whole attempt runs again. Version conflicts are a
// business-level signal and pass through untouched.
type Retry struct {
	// MaxAttempts bounds the total number of attempts. Default: 3.
	MaxAttempts int

	// Backoff is the base delay; attempt n waits n * Backoff. Default: 100ms.
	Backoff time.Duration
}

// Retryer builds a Retry from the store's configuration.
func (s *Store) Retryer() Retry {
	return Retry{
		MaxAttempts: s.config.MaxAttempts,
		Backoff:     s.config.RetryBase,
	}
}

// Do invokes attempt until it succeeds, fails with a non-retryable error,
// or MaxAttempts is exhausted. The last error surfaces unchanged.
func (r Retry) Do(ctx context.Context, attempt func(context.Context) error) error {
	maxAttempts := r.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	backoff := r.Backoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	var err error
	for n := 1; n <= maxAttempts; n++ {
		err = attempt(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrAllocationConflict) {
			return err
		}
		if n == maxAttempts {
			break
		}

		timer := time.NewTimer(time.Duration(n) * backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
