// Package wait provides bounded condition polling. Every suspension in the
// tool goes through For so that tests can inject a fake clock instead of
// sleeping on the wall clock.
package wait

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the condition never became true inside the
// window.
var ErrTimeout = errors.New("wait: condition not met before timeout")

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type wallClock struct{}

func (wallClock) Now() time.Time        { return time.Now() }
func (wallClock) Sleep(d time.Duration) { time.Sleep(d) }

// Options bounds a poll loop.
type Options struct {
	Timeout  time.Duration
	Interval time.Duration
	Clock    Clock // nil means wall clock
}

// For polls cond until it reports true, the window elapses, or ctx is
// cancelled. A non-nil error from cond aborts the loop immediately.
func For(ctx context.Context, opts Options, cond func() (bool, error)) error {
	clock := opts.Clock
	if clock == nil {
		clock = wallClock{}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	deadline := clock.Now().Add(opts.Timeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if !clock.Now().Before(deadline) {
			return ErrTimeout
		}
		clock.Sleep(interval)
	}
}

// Sleep pauses for d on the given clock, honoring ctx cancellation when the
// wall clock is in use.
func Sleep(ctx context.Context, clock Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if clock != nil {
		clock.Sleep(d)
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
