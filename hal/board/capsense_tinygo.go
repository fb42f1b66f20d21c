//go:build tinygo

package board

import (
	"machine"

	"hai-firmware/hal"
	"hai-firmware/kernel"
	"hai-firmware/types"
)

// Charge-time sensing: each electrode is discharged, released to its
// pull-up, and the loops until it reads high are counted. A finger adds
// capacitance and so counts.
const (
	maxCount   = 2000
	calSamples = 8
	// Counts above baseline that make an electrode active.
	activeDelta = 12
	// Slider positions span 0..sliderSpan.
	sliderSpan = 100
)

type capSense struct {
	wake   *kernel.Wakeup
	pins   []machine.Pin
	slider int

	base   []uint16
	counts []uint16
	mask   uint8
	pos    uint8
	awake  bool
}

// newCapSense treats the first slider pins as the slider, in order; the
// rest are standalone electrodes addressed by SensorID.
func newCapSense(w *kernel.Wakeup, slider int, pins ...machine.Pin) *capSense {
	c := &capSense{
		wake:   w,
		pins:   pins,
		slider: slider,
		base:   make([]uint16, len(pins)),
		counts: make([]uint16, len(pins)),
		pos:    types.NoTouch,
	}
	for i := range pins {
		var sum uint32
		for n := 0; n < calSamples; n++ {
			sum += uint32(c.charge(i))
		}
		c.base[i] = uint16(sum / calSamples)
	}
	return c
}

func (c *capSense) charge(i int) uint16 {
	p := c.pins[i]
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	var n uint16
	for !p.Get() && n < maxCount {
		n++
	}
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return n
}

func (c *capSense) Wake()  { c.awake = true }
func (c *capSense) Sleep() { c.awake = false }

// StartScan measures every slider electrode synchronously and signals
// completion straight away.
func (c *capSense) StartScan() {
	var mask uint8
	var sum, weighted uint32
	for i := 0; i < c.slider; i++ {
		v := c.charge(i)
		c.counts[i] = v
		if v < c.base[i]+activeDelta {
			continue
		}
		mask |= 1 << i
		d := uint32(v - c.base[i])
		sum += d
		if c.slider > 1 {
			weighted += d * uint32(i*sliderSpan/(c.slider-1))
		}
	}
	c.mask = mask
	c.pos = types.NoTouch
	if sum > 0 {
		c.pos = uint8(weighted / sum)
	}
	c.wake.Raise(kernel.WakeScan)
}

func (c *capSense) Busy() bool { return false }

func (c *capSense) Centroid() (uint8, bool) { return c.pos, c.pos != types.NoTouch }

func (c *capSense) ActiveMask() uint8 { return c.mask }

func (c *capSense) PrepareSensor(id hal.SensorID) {
	if int(id) < len(c.pins) {
		c.counts[id] = c.charge(int(id))
	}
}

func (c *capSense) RestoreSensor(id hal.SensorID) {
	if int(id) < len(c.pins) {
		c.pins[id].Low()
	}
}

func (c *capSense) SensorRaw(id hal.SensorID) uint16 {
	if int(id) >= len(c.pins) || c.counts[id] < c.base[id] {
		return 0
	}
	return c.counts[id] - c.base[id]
}
