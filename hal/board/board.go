// Package board builds the target hardware behind the hal interfaces. The
// per-chip constructors are compiled only under TinyGo; NoRadio and the
// Board bundle build everywhere.
package board

import (
	"io"

	"hai-firmware/hal"
	"hai-firmware/kernel"
)

// Board is one of each collaborator plus the wakeup and tick sources.
type Board struct {
	// Name selects the embedded config override.
	Name string

	Wake   *kernel.Wakeup
	Ticker *kernel.Ticker
	Crit   kernel.Critical

	Radio  hal.Radio
	Cap    hal.CapSense
	ADC    hal.ADC
	CPU    hal.CPU
	Switch hal.Switch
	RGB    hal.RGB

	// MuxOut drives the two debug output slots.
	MuxOut func(slot, bits uint8)
	// Console receives error-log dumps.
	Console io.Writer
}
