package wait

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when something sleeps on it.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

func TestFor_ConditionEventuallyTrue(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	calls := 0

	err := For(context.Background(), Options{Timeout: 10 * time.Second, Interval: time.Second, Clock: clock}, func() (bool, error) {
		calls++
		return calls >= 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	// Two sleeps of one second each.
	assert.Equal(t, time.Unix(2, 0), clock.now)
}

func TestFor_Timeout(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	calls := 0

	err := For(context.Background(), Options{Timeout: 3 * time.Second, Interval: time.Second, Clock: clock}, func() (bool, error) {
		calls++
		return false, nil
	})

	assert.ErrorIs(t, err, ErrTimeout)
	// Polled at t=0,1,2,3: four checks for a three-second window.
	assert.Equal(t, 4, calls)
}

func TestFor_ConditionError(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	boom := errors.New("boom")

	err := For(context.Background(), Options{Timeout: time.Minute, Interval: time.Second, Clock: clock}, func() (bool, error) {
		return false, boom
	})

	assert.ErrorIs(t, err, boom)
	// No time consumed: the first check aborted.
	assert.Equal(t, time.Unix(0, 0), clock.now)
}

func TestFor_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := For(ctx, Options{Timeout: time.Minute, Interval: time.Second, Clock: &fakeClock{}}, func() (bool, error) {
		return false, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
