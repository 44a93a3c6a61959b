package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/autjsmo/bar-ordini/utils"
)

// ErrStopPolling is returned by a poll task to wind the loop down from
// the inside. The loop exits after the current run; a later Start brings
// it back. This is how auth loss ends polling without anyone having to
// call Stop from within the tick that detected it.
var ErrStopPolling = errors.New("stop polling")

// Poller is the single scheduled-task abstraction each client role owns
// in place of scattered timers. At most one loop is current at a time:
// Start signals any previous loop to exit and replaces it without
// waiting, so it is safe to call from anywhere, including from inside a
// running tick. A failing task is treated as a missed tick; the loop
// keeps going unless the task returns ErrStopPolling.
type Poller struct {
	task func(context.Context) error

	mu       sync.Mutex
	stop     chan struct{}
	kick     chan struct{}
	done     chan struct{}
	interval time.Duration
	active   bool
}

func NewPoller(task func(context.Context) error) *Poller {
	return &Poller{task: task}
}

// Start begins polling at the given interval, replacing any running loop.
// The task also runs once immediately so a fresh view never waits a full
// interval for its first state. An outgoing loop that is mid-tick may
// overlap the new loop's first run by one request.
func (p *Poller) Start(interval time.Duration) {
	p.mu.Lock()
	if p.active {
		close(p.stop)
	}
	stop := make(chan struct{})
	kick := make(chan struct{}, 1)
	done := make(chan struct{})
	p.stop, p.kick, p.done = stop, kick, done
	p.interval = interval
	p.active = true
	p.mu.Unlock()

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if !p.runTick(stop) {
			return
		}
		for {
			select {
			case <-ticker.C:
				if !p.runTick(stop) {
					return
				}
			case <-kick:
				if !p.runTick(stop) {
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for any in-flight tick to finish.
// Safe to call when not running, but never from inside the task itself;
// a task ends its own loop by returning ErrStopPolling instead.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	close(p.stop)
	p.active = false
	done := p.done
	p.mu.Unlock()

	<-done
}

// Reschedule switches the polling interval, keeping a single loop.
func (p *Poller) Reschedule(interval time.Duration) {
	p.Start(interval)
}

// Kick requests an immediate unscheduled tick, so the client that just
// acted sees its own change without waiting for the next interval.
func (p *Poller) Kick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Active reports whether a loop is currently running.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Interval returns the cadence of the current loop.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// runTick executes one task run and reports whether the loop should keep
// going. On ErrStopPolling the loop releases the active flag, unless a
// newer loop has already replaced it.
func (p *Poller) runTick(stop chan struct{}) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := p.task(ctx)
	if errors.Is(err, ErrStopPolling) {
		p.mu.Lock()
		if p.stop == stop {
			p.active = false
		}
		p.mu.Unlock()
		return false
	}
	if err != nil && utils.ErrorLogger != nil {
		utils.ErrorLogger.Printf("poll tick failed: %v", err)
	}
	return true
}
