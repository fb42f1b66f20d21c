package sim

import (
	"sync"

	"hai-firmware/kernel"
)

// CPU blocks in every sleep mode until a wakeup bit is pending, the way
// the core resumes on the next interrupt.
type CPU struct {
	mu        sync.Mutex
	wake      *kernel.Wakeup
	mainClock bool

	Deep, Switched, Light int
}

func NewCPU(w *kernel.Wakeup) *CPU {
	return &CPU{wake: w, mainClock: true}
}

func (c *CPU) DeepSleep() {
	c.mu.Lock()
	c.Deep++
	c.mu.Unlock()
	c.wake.Wait()
}

func (c *CPU) SleepClockSwitched() {
	c.mu.Lock()
	c.Switched++
	c.mainClock = false
	c.mu.Unlock()
	c.wake.Wait()
	c.mu.Lock()
	c.mainClock = true
	c.mu.Unlock()
}

func (c *CPU) Sleep() {
	c.mu.Lock()
	c.Light++
	c.mu.Unlock()
	c.wake.Wait()
}

// MainClock reports whether the main oscillator drives the system clock.
func (c *CPU) MainClock() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mainClock
}

// Counts returns deep, clock-switched and plain sleep entries.
func (c *CPU) Counts() (deep, switched, light int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Deep, c.Switched, c.Light
}
