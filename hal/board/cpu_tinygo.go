//go:build tinygo

package board

import "hai-firmware/kernel"

// cpu blocks the main goroutine on the wakeup source; the TinyGo scheduler
// idles the core until the tick or scan goroutine runs. The hooks select
// the chip's low-power mode around the wait.
type cpu struct {
	wake *kernel.Wakeup

	enterDeep, exitDeep  func()
	clockSlow, clockFast func()
}

func (c *cpu) DeepSleep() {
	call(c.enterDeep)
	c.wake.Wait()
	call(c.exitDeep)
}

func (c *cpu) SleepClockSwitched() {
	call(c.clockSlow)
	c.wake.Wait()
	call(c.clockFast)
}

func (c *cpu) Sleep() { c.wake.Wait() }

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
