//go:build nrf52840

package board

import (
	"device/nrf"
	"machine"

	"hai-firmware/kernel"
)

// Pin map for the nRF52840 carrier.
const (
	pinBattEnable = machine.P0_13
	pinBattSense  = machine.P0_04
	pinPixel      = machine.P0_16
	pinDebug0     = machine.P1_10
	pinDebug1     = machine.P1_11
)

var capPins = []machine.Pin{
	machine.P0_02, machine.P0_03, machine.P0_28, machine.P0_29, // slider
	machine.P0_30,                // guard
	machine.P0_31, machine.P0_05, // wrist high, wrist low
}

// Device names the embedded config override for this board.
const Device = "nrf52840"

// New brings up the nRF52840 board advertising as deviceName, with ticks
// every tickMs.
func New(deviceName string, tickMs uint32) (*Board, error) {
	w := kernel.NewWakeup()
	rd, err := newRadio(deviceName)
	if err != nil {
		return nil, err
	}
	return &Board{
		Name:   Device,
		Wake:   w,
		Ticker: kernel.NewTicker(w, tickMs),
		Crit:   irqCritical{},
		Radio:  rd,
		Cap:    newCapSense(w, 4, capPins...),
		ADC:    newADC(600, 0, pinBattSense),
		CPU: &cpu{
			wake:      w,
			enterDeep: func() { nrf.POWER.TASKS_LOWPWR.Set(1) },
			exitDeep:  func() { nrf.POWER.TASKS_CONSTLAT.Set(1) },
		},
		Switch:  newOutPin(pinBattEnable),
		RGB:     newPixel(pinPixel),
		MuxOut:  debugPins(pinDebug0, pinDebug1),
		Console: machine.Serial,
	}, nil
}
