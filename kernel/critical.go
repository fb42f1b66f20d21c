package kernel

import "sync"

// State is whatever the platform needs to restore after a critical section
// (the saved interrupt mask on hardware).
type State uintptr

// Critical masks interrupts around read-modify-write of shared kernel state.
// Sections never nest.
type Critical interface {
	Disable() State
	Restore(State)
}

// LockCritical is the host implementation: a mutex stands in for the
// interrupt mask.
type LockCritical struct {
	mu sync.Mutex
}

func (c *LockCritical) Disable() State {
	c.mu.Lock()
	return 0
}

func (c *LockCritical) Restore(State) {
	c.mu.Unlock()
}
