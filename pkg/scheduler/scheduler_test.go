package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ogulcanaydogan/battery-guardian/pkg/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestScheduler_OrderByDeadline(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := scheduler.New(clock.Now)

	var order []string
	record := func(name string) scheduler.Action {
		return func(context.Context) { order = append(order, name) }
	}

	s.Enter(3*time.Second, record("third"))
	s.Enter(time.Second, record("first"))
	s.Enter(2*time.Second, record("second-a"))
	s.Enter(2*time.Second, record("second-b"))
	require.Equal(t, 4, s.Len())

	clock.now = clock.now.Add(5 * time.Second)
	delay, err := s.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, delay)
	assert.Equal(t, []string{"first", "second-a", "second-b", "third"}, order)
	assert.True(t, s.Empty())
}

func TestScheduler_NonBlockingRunsOnlyDueEntries(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := scheduler.New(clock.Now)

	ran := 0
	s.Enter(0, func(context.Context) { ran++ })
	s.Enter(10*time.Second, func(context.Context) { ran++ })

	delay, err := s.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
	assert.Equal(t, 10*time.Second, delay)
	assert.Equal(t, 1, s.Len())
}

func TestScheduler_Cancel(t *testing.T) {
	s := scheduler.New(nil)

	e := s.Enter(time.Hour, func(context.Context) {})
	assert.True(t, s.Cancel(e))
	assert.False(t, s.Cancel(e))
	assert.True(t, s.Empty())
}

func TestScheduler_CancelAllIsIdempotent(t *testing.T) {
	s := scheduler.New(nil)
	s.Enter(time.Hour, func(context.Context) {})
	s.Enter(2*time.Hour, func(context.Context) {})

	assert.Equal(t, 2, s.CancelAll())
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.CancelAll())
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_BlockingRunUntilEmpty(t *testing.T) {
	s := scheduler.New(nil)

	var count int
	var tick scheduler.Action
	tick = func(context.Context) {
		count++
		if count < 3 {
			s.Enter(5*time.Millisecond, tick)
		}
	}
	s.Enter(0, tick)

	_, err := s.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestScheduler_BlockingRunStopsOnCancelAll(t *testing.T) {
	s := scheduler.New(nil)
	s.Enter(time.Hour, func(context.Context) {})

	done := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background(), true)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	s.CancelAll()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after CancelAll")
	}
}

func TestScheduler_BlockingRunStopsOnContext(t *testing.T) {
	s := scheduler.New(nil)
	s.Enter(time.Hour, func(context.Context) {})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Run(ctx, true)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, s.Len())
}

func TestScheduler_Queue(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := scheduler.New(func() time.Time { return base })

	s.EnterAt(base.Add(2*time.Minute), func(context.Context) {})
	s.EnterAt(base.Add(time.Minute), func(context.Context) {})

	assert.Equal(t, []time.Time{base.Add(time.Minute), base.Add(2 * time.Minute)}, s.Queue())
}
