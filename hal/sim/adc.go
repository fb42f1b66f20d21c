package sim

import (
	"sync"

	"hai-firmware/hal"
)

// ADC converts a settable input. A conversion reports Done after Polls
// calls to Done.
type ADC struct {
	mu    sync.Mutex
	raw   int32
	limit int32
	Polls int

	running bool
	left    int

	Channel    hal.ADCChannel
	Ref        hal.Reference
	Configured bool
	Restores   int
	Starts     int
}

// NewADC returns a converter with the given full-scale value.
func NewADC(highLimit int32) *ADC {
	return &ADC{limit: highLimit}
}

// SetRaw sets the next conversion result.
func (a *ADC) SetRaw(raw int32) {
	a.mu.Lock()
	a.raw = raw
	a.mu.Unlock()
}

// SetMilliV sets the input so that raw*scale/HighLimit reads mv, rounding
// the raw value up.
func (a *ADC) SetMilliV(mv, scale int32) {
	a.SetRaw((mv*a.limit + scale - 1) / scale)
}

func (a *ADC) Configure(ch hal.ADCChannel, ref hal.Reference) {
	a.mu.Lock()
	a.Channel, a.Ref, a.Configured = ch, ref, true
	a.mu.Unlock()
}

func (a *ADC) StartConversion() {
	a.mu.Lock()
	a.Starts++
	a.running = true
	a.left = a.Polls
	a.mu.Unlock()
}

func (a *ADC) Done() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return false
	}
	if a.left > 0 {
		a.left--
		return false
	}
	return true
}

func (a *ADC) ReadRaw() int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
	if a.raw > a.limit {
		return a.limit
	}
	return a.raw
}

func (a *ADC) RestoreDefaults() {
	a.mu.Lock()
	a.Restores++
	a.Configured = false
	a.mu.Unlock()
}

func (a *ADC) HighLimit() int32 { return a.limit }
