//go:build tinygo

package board

import (
	"runtime/interrupt"

	"hai-firmware/kernel"
)

// irqCritical masks interrupts. Unlike the host lock it nests.
type irqCritical struct{}

func (irqCritical) Disable() kernel.State { return kernel.State(interrupt.Disable()) }

func (irqCritical) Restore(s kernel.State) { interrupt.Restore(interrupt.State(s)) }
