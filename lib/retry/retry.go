// Package retry runs an operation under a bounded attempt policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Strategy int

const (
	// None retries immediately.
	None Strategy = iota
	// Linear waits Step * attempt after each failed attempt.
	Linear
	// Exponential doubles the wait starting from Step.
	Exponential
)

// ErrExhausted is returned when every attempt failed with a retryable error.
var ErrExhausted = errors.New("retry attempts exhausted")

type Policy struct {
	MaxAttempts int
	Strategy    Strategy
	Step        time.Duration
	// Retryable reports whether a failed attempt may be repeated.
	// Nil treats every error as retryable.
	Retryable func(error) bool
	// Notify is called after each failed attempt that will be retried.
	Notify func(attempt int, err error, wait time.Duration)
	// Timer drives the waits. Nil uses a real timer.
	Timer backoff.Timer
}

// Operation is one attempt, numbered from 1.
type Operation func(ctx context.Context, attempt int) error

// Do runs op until it succeeds, fails with a non-retryable error, the
// context ends, or MaxAttempts is reached. On exhaustion the last error is
// returned wrapped with ErrExhausted; when the context ends it is wrapped
// with the context error.
func (p Policy) Do(ctx context.Context, op Operation) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	attempt := 0
	permanent := false
	var last error
	operation := func() error {
		attempt++
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		// an attempt cut short by the context keeps the previous outcome
		if last == nil || ctx.Err() == nil {
			last = err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		if p.Notify != nil {
			p.Notify(attempt, err, wait)
		}
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if p.MaxAttempts > 1 {
		b = backoff.WithMaxRetries(p.backOff(), uint64(p.MaxAttempts-1))
	}
	b = backoff.WithContext(b, ctx)
	err := backoff.RetryNotifyWithTimer(operation, b, notify, p.Timer)
	if err == nil {
		return nil
	}
	if permanent {
		return last
	}
	if ctx.Err() != nil {
		if last != nil {
			return fmt.Errorf("%w after %d attempts: %w", ctx.Err(), attempt, last)
		}
		return ctx.Err()
	}
	return &ExhaustedError{Attempts: attempt, Last: last}
}

func (p Policy) backOff() backoff.BackOff {
	switch p.Strategy {
	case Linear:
		return &linearBackOff{step: p.Step}
	case Exponential:
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = p.Step
		b.RandomizationFactor = 0
		b.Multiplier = 2
		b.MaxElapsedTime = 0
		return b
	default:
		return &backoff.ZeroBackOff{}
	}
}

type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return ErrExhausted.Error() + ": " + e.Last.Error()
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrExhausted, e.Last}
}

// linearBackOff waits step, 2*step, 3*step, ...
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}
