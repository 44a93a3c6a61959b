package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPollerRunsImmediatelyAndOnTicks(t *testing.T) {
	var ticks atomic.Int32
	p := NewPoller(func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	})

	p.Start(20 * time.Millisecond)
	defer p.Stop()

	time.Sleep(70 * time.Millisecond)
	assert.GreaterOrEqual(t, ticks.Load(), int32(3))
}

func TestPollerStopIsDeterministic(t *testing.T) {
	var ticks atomic.Int32
	p := NewPoller(func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	})

	p.Start(10 * time.Millisecond)
	time.Sleep(35 * time.Millisecond)
	p.Stop()
	assert.False(t, p.Active())

	after := ticks.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())

	// Stopping twice must not panic.
	p.Stop()
}

func TestPollerRescheduleKeepsSingleLoop(t *testing.T) {
	var ticks atomic.Int32
	p := NewPoller(func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	})

	p.Start(time.Hour)
	p.Reschedule(time.Hour)
	p.Reschedule(time.Hour)
	defer p.Stop()

	// Only the immediate run per Start should have fired: three starts,
	// three immediate runs, no duplicated tickers racing.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), ticks.Load())
	assert.True(t, p.Active())
}

func TestPollerKick(t *testing.T) {
	var ticks atomic.Int32
	p := NewPoller(func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	})

	p.Start(time.Hour)
	defer p.Stop()
	time.Sleep(10 * time.Millisecond)

	before := ticks.Load()
	p.Kick()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before+1, ticks.Load())

	// Kick on a stopped poller is a no-op.
	p.Stop()
	p.Kick()
}

func TestPollerSurvivesFailingTask(t *testing.T) {
	var ticks atomic.Int32
	p := NewPoller(func(ctx context.Context) error {
		ticks.Add(1)
		return errors.New("network down")
	})

	p.Start(15 * time.Millisecond)
	defer p.Stop()

	// A failed tick is a missed poll, not a dead loop.
	time.Sleep(60 * time.Millisecond)
	assert.GreaterOrEqual(t, ticks.Load(), int32(3))
}

func TestPollerTaskCanEndTheLoop(t *testing.T) {
	var ticks atomic.Int32
	p := NewPoller(func(ctx context.Context) error {
		ticks.Add(1)
		return ErrStopPolling
	})

	p.Start(5 * time.Millisecond)
	assert.Eventually(t, func() bool { return !p.Active() }, time.Second, time.Millisecond)

	// The loop exited after its first run; no further ticks arrive.
	time.Sleep(25 * time.Millisecond)
	assert.Equal(t, int32(1), ticks.Load())

	// Stop after self-termination is a no-op.
	p.Stop()
}

func TestPollerRestartFromInsideTask(t *testing.T) {
	var p *Poller
	var restarted atomic.Bool
	p = NewPoller(func(ctx context.Context) error {
		if restarted.CompareAndSwap(false, true) {
			// A restart from inside a tick must neither hang nor let the
			// outgoing loop tear down its replacement.
			p.Start(time.Hour)
			return ErrStopPolling
		}
		return nil
	})

	p.Start(time.Hour)

	assert.Eventually(t, func() bool { return restarted.Load() && p.Active() },
		time.Second, time.Millisecond)

	p.Stop()
	assert.False(t, p.Active())
}
