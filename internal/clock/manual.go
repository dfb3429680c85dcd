package clock

import (
	"context"
	"sync"
	"time"
)

// Manual is a Clock driven by hand. Sleeps return immediately and advance the
// clock; timers fire only from Advance or Fire.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
	slept  []time.Duration
}

type manualTimer struct {
	c       *Manual
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{c: m, at: m.now + d, f: f}
	m.timers = append(m.timers, t)
	return t
}

func (m *Manual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.slept = append(m.slept, d)
	m.now += d
	m.mu.Unlock()
	return nil
}

// Advance moves the clock forward and runs every timer that comes due, in
// order, on the calling goroutine.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	now := m.now
	var due []*manualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired && t.at <= now {
			t.fired = true
			due = append(due, t)
		}
	}
	m.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// Fire runs every pending timer regardless of its deadline.
func (m *Manual) Fire() {
	m.mu.Lock()
	var latest time.Duration
	for _, t := range m.timers {
		if !t.stopped && !t.fired && t.at > latest {
			latest = t.at
		}
	}
	d := latest - m.now
	m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.Advance(d)
}

// Pending returns the number of armed timers that have neither fired nor
// been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Armed returns the number of timers ever created.
func (m *Manual) Armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Slept returns the durations passed to Sleep, in call order.
func (m *Manual) Slept() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.slept...)
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
