package monitor

import (
	"sync"
	"time"
)

// fakeClock delivers ticks only when Advance is called. Each tick is handed
// to the receiving goroutine before Advance moves on, so ticks are never
// coalesced the way a real ticker drops them.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 6, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{
		clk:    f,
		ch:     make(chan time.Time),
		stopCh: make(chan struct{}),
		period: d,
		next:   f.now.Add(d),
	}
	f.tickers = append(f.tickers, t)
	return t
}

// active returns the number of tickers that have not been stopped.
func (f *fakeClock) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, firing every tick that falls due in
// order.
func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		var due *fakeTicker
		for _, t := range f.tickers {
			if t.stopped || t.next.After(target) {
				continue
			}
			if due == nil || t.next.Before(due.next) {
				due = t
			}
		}
		if due == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		at := due.next
		f.now = at
		due.next = at.Add(due.period)
		ch, stopCh := due.ch, due.stopCh
		f.mu.Unlock()

		select {
		case ch <- at:
		case <-stopCh:
		}
	}
}

type fakeTicker struct {
	clk     *fakeClock
	ch      chan time.Time
	stopCh  chan struct{}
	period  time.Duration
	next    time.Time
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Reset(d time.Duration) {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	t.period = d
	t.next = t.clk.now.Add(d)
}

func (t *fakeTicker) Stop() {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if !t.stopped {
		t.stopped = true
		close(t.stopCh)
	}
}
