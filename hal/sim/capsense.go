package sim

import (
	"sync"

	"hai-firmware/hal"
	"hai-firmware/kernel"
	"hai-firmware/types"
)

// Frame is what the slider reads during one scan.
type Frame struct {
	Centroid uint8 `yaml:"centroid"`
	Mask     uint8 `yaml:"mask"`
}

// Idle is the frame with nothing on the slider.
var Idle = Frame{Centroid: types.NoTouch}

// CapSense completes a scan Latency ticks after it starts, raising WakeScan
// like the end-of-scan interrupt. Latency 0 completes inside StartScan.
type CapSense struct {
	mu      sync.Mutex
	wake    *kernel.Wakeup
	Latency int

	frame    Frame
	last     Frame
	busy     bool
	left     int
	awake    bool
	raw      map[hal.SensorID]uint16
	prepared map[hal.SensorID]bool

	Scans int
}

func NewCapSense(w *kernel.Wakeup) *CapSense {
	return &CapSense{
		wake:     w,
		frame:    Idle,
		last:     Idle,
		raw:      map[hal.SensorID]uint16{},
		prepared: map[hal.SensorID]bool{},
	}
}

// SetFrame sets what the next completed scan reports.
func (c *CapSense) SetFrame(f Frame) {
	c.mu.Lock()
	c.frame = f
	c.mu.Unlock()
}

// SetRaw sets the raw count SensorRaw reports for id.
func (c *CapSense) SetRaw(id hal.SensorID, v uint16) {
	c.mu.Lock()
	c.raw[id] = v
	c.mu.Unlock()
}

func (c *CapSense) Wake() {
	c.mu.Lock()
	c.awake = true
	c.mu.Unlock()
}

func (c *CapSense) Sleep() {
	c.mu.Lock()
	c.awake = false
	c.mu.Unlock()
}

func (c *CapSense) Awake() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awake
}

func (c *CapSense) StartScan() {
	c.mu.Lock()
	c.Scans++
	c.busy = true
	c.left = c.Latency
	done := c.left <= 0
	c.mu.Unlock()
	if done {
		c.finish()
	}
}

// Tick advances an in-flight scan by one tick.
func (c *CapSense) Tick() {
	c.mu.Lock()
	if !c.busy {
		c.mu.Unlock()
		return
	}
	c.left--
	done := c.left <= 0
	c.mu.Unlock()
	if done {
		c.finish()
	}
}

func (c *CapSense) finish() {
	c.mu.Lock()
	c.busy = false
	c.last = c.frame
	c.mu.Unlock()
	c.wake.Raise(kernel.WakeScan)
}

func (c *CapSense) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

func (c *CapSense) Centroid() (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last.Centroid, c.last.Centroid != types.NoTouch
}

func (c *CapSense) ActiveMask() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last.Mask
}

func (c *CapSense) PrepareSensor(id hal.SensorID) {
	c.mu.Lock()
	c.prepared[id] = true
	c.mu.Unlock()
}

func (c *CapSense) RestoreSensor(id hal.SensorID) {
	c.mu.Lock()
	delete(c.prepared, id)
	c.mu.Unlock()
}

// Prepared reports whether id is currently set up for a raw measurement.
func (c *CapSense) Prepared(id hal.SensorID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prepared[id]
}

func (c *CapSense) SensorRaw(id hal.SensorID) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw[id]
}
