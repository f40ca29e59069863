package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultAttempts   = 3
	DefaultMultiplier = time.Second
	DefaultMinWait    = 2 * time.Second
	DefaultMaxWait    = 10 * time.Second
)

// RetryPolicy retries a call with exponential backoff between attempts.
type RetryPolicy struct {
	Attempts   int
	Multiplier time.Duration
	MinWait    time.Duration
	MaxWait    time.Duration
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy makes three attempts, waiting 2s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   DefaultAttempts,
		Multiplier: DefaultMultiplier,
		MinWait:    DefaultMinWait,
		MaxWait:    DefaultMaxWait,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the wrapped error as is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Wait returns the delay after the given failed attempt (1-based):
// Multiplier * 2^(attempt-1) clamped to [MinWait, MaxWait].
func (p RetryPolicy) Wait(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.Multiplier
	for i := 1; i < attempt && d < p.MaxWait; i++ {
		d *= 2
	}
	if d < p.MinWait {
		d = p.MinWait
	}
	if p.MaxWait > 0 && d > p.MaxWait {
		d = p.MaxWait
	}
	return d
}

// Do calls fn until it succeeds, returns a Permanent error or the attempts
// run out. Exhaustion returns an error wrapping ErrGeneration and the last cause.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Wait(attempt)); err != nil {
			return fmt.Errorf("%w: %w", ErrGeneration, err)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrGeneration, attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
