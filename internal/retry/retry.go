// Package retry runs an operation again with exponential backoff until it
// succeeds, fails permanently, runs out of attempts, or its context ends.
package retry

import (
	"context"
	"errors"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Retryable decides whether err is worth another attempt. Nil retries
	// every error that is not marked Permanent.
	Retryable func(err error) bool
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 200 * time.Millisecond,
		MaxDelay:  2 * time.Second,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so Do returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Backoff is the wait sequence between attempts: doubling from BaseDelay,
// capped at MaxDelay, stopping after Attempts-1 waits.
func (p Policy) Backoff() goretry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Nanosecond
	}
	b := goretry.NewExponential(base)
	if p.MaxDelay > 0 {
		b = goretry.WithCappedDuration(p.MaxDelay, b)
	}
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return goretry.WithMaxRetries(uint64(attempts-1), b)
}

// Do calls fn up to p.Attempts times. The last error is returned unwrapped
// from any Permanent marker; if ctx ends while waiting, the last error is
// joined with ctx's.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	var last error
	err := goretry.Do(ctx, p.Backoff(), func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		last = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		return goretry.RetryableError(err)
	})
	if err != nil && last != nil && err != last && err == ctx.Err() {
		return errors.Join(last, err)
	}
	return err
}
