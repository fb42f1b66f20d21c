//go:build tinygo

package board

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

type outPin struct{ p machine.Pin }

func newOutPin(p machine.Pin) *outPin {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return &outPin{p: p}
}

func (o *outPin) Set(on bool) { o.p.Set(on) }
func (o *outPin) Get() bool   { return o.p.Get() }

// pixel is a single WS2812 indicator.
type pixel struct {
	dev ws2812.Device
	buf [1]color.RGBA
}

func newPixel(p machine.Pin) *pixel {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &pixel{dev: ws2812.New(p)}
}

func (x *pixel) SetColor(r, g, b uint8) {
	x.buf[0] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
	if err := x.dev.WriteColors(x.buf[:]); err != nil {
		println("[board] ws2812:", err.Error())
	}
}

// debugPins drives one pin per mux slot: high while any routed bit is set.
func debugPins(pins ...machine.Pin) func(slot, bits uint8) {
	for _, p := range pins {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}
	return func(slot, bits uint8) {
		if int(slot) < len(pins) {
			pins[slot].Set(bits != 0)
		}
	}
}
