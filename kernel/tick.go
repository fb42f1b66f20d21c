package kernel

import (
	"context"
	"sync/atomic"
	"time"
)

// Ticker is the periodic tick source. Fire is the interrupt body; Run drives
// it from a time.Ticker.
type Ticker struct {
	wake     *Wakeup
	periodMs uint32
	ms       atomic.Uint32
	ticks    atomic.Uint32
}

func NewTicker(w *Wakeup, periodMs uint32) *Ticker {
	if periodMs == 0 {
		periodMs = 1
	}
	return &Ticker{wake: w, periodMs: periodMs}
}

// Fire advances the timestamp by one period and raises WakeTick.
func (t *Ticker) Fire() {
	t.ms.Add(t.periodMs)
	t.ticks.Add(1)
	t.wake.Raise(WakeTick)
}

// Timestamp is milliseconds since the ticker started, wrapping at 2^32.
func (t *Ticker) Timestamp() uint32 { return t.ms.Load() }

// Ticks counts fired ticks.
func (t *Ticker) Ticks() uint32 { return t.ticks.Load() }

func (t *Ticker) PeriodMs() uint32 { return t.periodMs }

// Run fires once per period until ctx is done.
func (t *Ticker) Run(ctx context.Context) {
	tk := time.NewTicker(time.Duration(t.periodMs) * time.Millisecond)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			t.Fire()
		}
	}
}
