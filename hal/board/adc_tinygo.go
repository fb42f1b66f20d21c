//go:build tinygo

package board

import (
	"machine"

	"hai-firmware/hal"
)

// adc wraps machine.ADC. Get blocks for the whole conversion, so
// StartConversion does the work and Done is immediately true.
type adc struct {
	pins  []machine.Pin
	refMv [2]uint32
	cur   machine.ADC
	set   bool
	raw   uint16
	done  bool
}

func newADC(refInternalMv, refSupplyMv uint32, pins ...machine.Pin) *adc {
	machine.InitADC()
	return &adc{pins: pins, refMv: [2]uint32{refInternalMv, refSupplyMv}}
}

func (a *adc) Configure(ch hal.ADCChannel, ref hal.Reference) {
	if int(ch) >= len(a.pins) {
		println("[board] adc channel", ch, "out of range")
		return
	}
	a.cur = machine.ADC{Pin: a.pins[ch]}
	a.cur.Configure(machine.ADCConfig{Reference: a.refMv[ref&1], Resolution: 12})
	a.set = true
	a.done = false
}

func (a *adc) StartConversion() {
	a.raw = a.cur.Get()
	a.done = true
}

func (a *adc) Done() bool { return a.done }

func (a *adc) ReadRaw() int32 {
	a.done = false
	return int32(a.raw)
}

// RestoreDefaults returns the measured pin to a floating input.
func (a *adc) RestoreDefaults() {
	if a.set {
		a.cur.Pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		a.set = false
	}
}

// HighLimit is full scale of machine.ADC.Get, which always scales to 16 bits.
func (a *adc) HighLimit() int32 { return 0xFFFF }
