package utils

import (
	"context"
	"errors"
	"time"
)

var ErrPollTimeout = errors.New("poll deadline exceeded")

// PollFunc performs one attempt. done reports whether the awaited condition holds.
type PollFunc[T any] func(ctx context.Context) (value T, done bool, err error)

// PollUntil calls fn every interval until it reports done, returns an error,
// or the timeout measured from the first attempt elapses. The last attempt
// happens exactly at the deadline, so the call never overruns it by more than
// one attempt.
func PollUntil[T any](
	ctx context.Context, clock Clock, interval, timeout time.Duration, fn PollFunc[T],
) (T, error) {
	var zero T
	deadline := clock.Now().Add(timeout)
	for {
		value, done, err := fn(ctx)
		if err != nil {
			return zero, err
		}
		if done {
			return value, nil
		}

		remaining := deadline.Sub(clock.Now())
		if remaining <= 0 {
			return zero, ErrPollTimeout
		}
		wait := interval
		if remaining < wait {
			wait = remaining
		}
		if err := clock.Sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
}
