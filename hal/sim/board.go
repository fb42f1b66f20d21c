package sim

import (
	"hai-firmware/bus"
	"hai-firmware/kernel"
)

// Board bundles one of each simulated collaborator around a shared wakeup
// source and tick counter.
type Board struct {
	Wake   *kernel.Wakeup
	Ticker *kernel.Ticker
	Crit   *kernel.LockCritical

	Radio  *Radio
	Cap    *CapSense
	ADC    *ADC
	CPU    *CPU
	Switch *Pin
	RGB    *RGB
}

// ADCHighLimit is the simulated 12-bit converter's full scale.
const ADCHighLimit = 4095

// NewBoard builds a board ticking every tickMs. conn may be nil.
func NewBoard(conn *bus.Connection, tickMs uint32) *Board {
	w := kernel.NewWakeup()
	tk := kernel.NewTicker(w, tickMs)
	cs := NewCapSense(w)
	cs.Latency = 1
	return &Board{
		Wake:   w,
		Ticker: tk,
		Crit:   &kernel.LockCritical{},
		Radio:  NewRadio(conn, tk.Timestamp),
		Cap:    cs,
		ADC:    NewADC(ADCHighLimit),
		CPU:    NewCPU(w),
		Switch: &Pin{},
		RGB:    NewRGB(conn),
	}
}

// Tick is the tick interrupt: in-flight scans advance, then WakeTick is
// raised.
func (b *Board) Tick() {
	b.Cap.Tick()
	b.Ticker.Fire()
}
