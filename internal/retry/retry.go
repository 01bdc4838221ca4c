// Package retry provides the explicit retry policy shared by subtitle fetches
// and session logins: bounded attempts, exponential backoff, jitter, and an
// injectable sleep so tests never wait on real timers.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Default policy values.
const (
	defaultAttempts  = 3
	defaultBaseDelay = 500 * time.Millisecond
	defaultMaxDelay  = 5 * time.Second
	defaultFactor    = 2.0
	defaultJitter    = 0.25
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy describes how an operation is retried. The zero value performs a
// single attempt with no delay.
type Policy struct {
	MaxAttempts int           // total attempts including the first; <1 means 1
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // upper bound on any single delay; 0 = uncapped
	Factor      float64       // multiplier per attempt; <1 means 1
	Jitter      float64       // fraction in [0,1]; delay varies by ±Jitter

	// Sleep defaults to TimeSleep.
	Sleep SleepFunc

	// Notify, when set, is called before each wait with the attempt that just
	// failed (1-based), the chosen delay and the error.
	Notify func(attempt int, delay time.Duration, err error)
}

// Default returns the policy used for subtitle downloads.
func Default() Policy {
	return Policy{
		MaxAttempts: defaultAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
		Factor:      defaultFactor,
		Jitter:      defaultJitter,
	}
}

// WithAttempts returns a copy of p with MaxAttempts replaced.
func (p Policy) WithAttempts(n int) Policy {
	p.MaxAttempts = n
	return p
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Do returns it immediately without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Attempts returns the effective attempt budget.
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}

	return p.MaxAttempts
}

// Do runs fn until it succeeds, returns a Permanent error, the attempt budget
// is spent, or ctx is done. attempt is 1-based. The last error is returned
// unwrapped from its Permanent marker so callers can match it with errors.Is.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = TimeSleep
	}

	maxAttempts := p.Attempts()

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry: canceled before attempt %d: %w", attempt, err)
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}

		var pe *permanentError
		if errors.As(err, &pe) {
			return pe.err
		}

		lastErr = err

		if attempt == maxAttempts {
			break
		}

		delay := p.Backoff(attempt - 1)
		if p.Notify != nil {
			p.Notify(attempt, delay, err)
		}

		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return fmt.Errorf("retry: canceled while waiting: %w", sleepErr)
		}
	}

	return lastErr
}

// Backoff returns the delay after the given zero-based retry index:
// BaseDelay * Factor^retry, capped at MaxDelay, with ±Jitter applied.
func (p Policy) Backoff(retry int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}

	factor := p.Factor
	if factor < 1 {
		factor = 1
	}

	backoff := float64(p.BaseDelay) * math.Pow(factor, float64(retry))
	if p.MaxDelay > 0 && backoff > float64(p.MaxDelay) {
		backoff = float64(p.MaxDelay)
	}

	if p.Jitter > 0 {
		jitter := math.Min(p.Jitter, 1)
		backoff += backoff * jitter * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand
	}

	return time.Duration(backoff)
}

// TimeSleep waits for the given duration or until the context is canceled.
func TimeSleep(ctx context.Context, d time.Duration) error {
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
