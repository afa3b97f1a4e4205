package eventlooptest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_ResolveOutOfOrder(t *testing.T) {
	s := New()
	var order []string

	s.Go(func(ctx context.Context) { order = append(order, "work-a") }, func() { order = append(order, "then-a") })
	s.Go(func(ctx context.Context) { order = append(order, "work-b") }, func() { order = append(order, "then-b") })
	assert.Equal(t, 2, s.Pending())
	assert.Empty(t, order)

	s.ResolveLast()
	s.ResolveAll()

	assert.Equal(t, []string{"work-b", "then-b", "work-a", "then-a"}, order)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_TimersFireOnAdvance(t *testing.T) {
	s := New()
	var fired []int

	s.AfterFunc(500*time.Millisecond, func() { fired = append(fired, 1) })
	s.AfterFunc(100*time.Millisecond, func() { fired = append(fired, 2) })

	s.Advance(99 * time.Millisecond)
	assert.Empty(t, fired)

	s.Advance(time.Millisecond)
	assert.Equal(t, []int{2}, fired)

	s.Advance(time.Second)
	assert.Equal(t, []int{2, 1}, fired)
	assert.Equal(t, 0, s.ActiveTimers())
}

func TestScheduler_StopPreventsFire(t *testing.T) {
	s := New()
	fired := false

	timer := s.AfterFunc(time.Second, func() { fired = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	s.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestScheduler_TimerArmedDuringAdvance(t *testing.T) {
	s := New()
	count := 0

	var rearm func()
	rearm = func() {
		count++
		if count < 3 {
			s.AfterFunc(100*time.Millisecond, rearm)
		}
	}
	s.AfterFunc(100*time.Millisecond, rearm)

	s.Advance(time.Second)
	assert.Equal(t, 3, count)
}

func TestScheduler_CloseCancelsJobContext(t *testing.T) {
	s := New()
	var seen error

	s.Go(func(ctx context.Context) { seen = ctx.Err() }, nil)
	s.Close()
	s.ResolveAll()

	assert.ErrorIs(t, seen, context.Canceled)
}
