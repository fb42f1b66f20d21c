//go:build rp2040

package board

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"hai-firmware/kernel"
)

// Pin map for the rp2040 carrier. There is no radio; the error log and
// debug trace go out on UART0.
const (
	pinBattEnable = machine.GPIO22
	pinBattSense  = machine.ADC0
	pinPixel      = machine.GPIO16
	pinDebug0     = machine.GPIO14
	pinDebug1     = machine.GPIO15
	pinUartTX     = machine.GPIO0
	pinUartRX     = machine.GPIO1
	consoleBaud   = 115200
)

var capPins = []machine.Pin{
	machine.GPIO2, machine.GPIO3, machine.GPIO4, machine.GPIO5, // slider
	machine.GPIO6,                // guard
	machine.GPIO7, machine.GPIO8, // wrist high, wrist low
}

// Device names the embedded config override for this board.
const Device = "rp2040"

// New brings up the rp2040 board with ticks every tickMs. deviceName is
// unused: the board has no radio to advertise it.
func New(deviceName string, tickMs uint32) (*Board, error) {
	_ = deviceName
	w := kernel.NewWakeup()

	console := uartx.UART0
	if err := console.Configure(uartx.UARTConfig{
		BaudRate: consoleBaud,
		TX:       pinUartTX,
		RX:       pinUartRX,
	}); err != nil {
		return nil, err
	}

	return &Board{
		Name:    Device,
		Wake:    w,
		Ticker:  kernel.NewTicker(w, tickMs),
		Crit:    irqCritical{},
		Radio:   NoRadio{},
		Cap:     newCapSense(w, 4, capPins...),
		ADC:     newADC(0, 0, pinBattSense),
		CPU:     &cpu{wake: w},
		Switch:  newOutPin(pinBattEnable),
		RGB:     newPixel(pinPixel),
		MuxOut:  debugPins(pinDebug0, pinDebug1),
		Console: console,
	}, nil
}
