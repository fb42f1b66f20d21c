package kernel

import (
	"runtime"
	"sync/atomic"
)

// WakeBits identifies why the main loop woke.
type WakeBits uint32

const (
	WakeTick WakeBits = 1 << iota // periodic tick
	WakeScan                      // capacitive scan complete
	WakeHalt                      // loop shutdown requested
)

// Wakeup is the interrupt-to-main-loop handshake. Interrupt context only
// calls Raise; the main loop clears a bit only after it has queued the work
// the bit stands for, so a raised bit is never lost.
type Wakeup struct {
	bits   atomic.Uint32
	signal chan struct{}
}

// NewWakeup returns an empty wakeup source.
func NewWakeup() *Wakeup {
	return &Wakeup{signal: make(chan struct{}, 1)}
}

// Raise sets b. Safe from interrupt context and other goroutines.
func (w *Wakeup) Raise(b WakeBits) {
	w.bits.Or(uint32(b))
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// Pending returns the bits currently set.
func (w *Wakeup) Pending() WakeBits { return WakeBits(w.bits.Load()) }

// Has reports whether any bit of b is set.
func (w *Wakeup) Has(b WakeBits) bool { return w.Pending()&b != 0 }

// Clear drops b. Main loop only.
func (w *Wakeup) Clear(b WakeBits) { w.bits.And(^uint32(b)) }

// Wait blocks until some bit is pending. Platforms use it to model a
// sleeping core that resumes on the next interrupt.
func (w *Wakeup) Wait() {
	for w.Pending() == 0 {
		<-w.signal
	}
}

// Spin busy-waits until some bit is pending without letting the core sleep.
func (w *Wakeup) Spin() {
	for w.Pending() == 0 {
		// yield so tick and scan goroutines can run on a cooperative runtime
		runtime.Gosched()
	}
}
