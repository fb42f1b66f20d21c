// Package sim provides host implementations of the hal collaborators for
// tests and the simulator. Devices are deterministic: nothing completes
// until the owner advances them.
package sim

import (
	"sync"

	"hai-firmware/bus"
	"hai-firmware/errcode"
	"hai-firmware/hal"
	"hai-firmware/types"
)

// Radio is a scripted BLE stack. Notifications are recorded and, when a
// connection is attached, published on ble/notify/<characteristic>.
type Radio struct {
	mu        sync.Mutex
	state     hal.LowPowerState
	enabled   map[hal.Characteristic]bool
	connected bool
	failNext  int
	pending   []bool
	onConnect func(bool)

	Sent        []types.Notification
	Firmware    string
	Advertising int
	LowPowerReq int
	Pumps       int

	conn  *bus.Connection
	clock func() uint32
}

func NewRadio(conn *bus.Connection, clock func() uint32) *Radio {
	if clock == nil {
		clock = func() uint32 { return 0 }
	}
	return &Radio{
		state:   hal.RadioDeepSleepReady,
		enabled: map[hal.Characteristic]bool{},
		conn:    conn,
		clock:   clock,
	}
}

func (r *Radio) ProcessEvents() {
	r.mu.Lock()
	r.Pumps++
	evs := r.pending
	r.pending = nil
	fn := r.onConnect
	r.mu.Unlock()
	for _, c := range evs {
		r.mu.Lock()
		r.connected = c
		if !c {
			for k := range r.enabled {
				r.enabled[k] = false
			}
		}
		r.mu.Unlock()
		if fn != nil {
			fn(c)
		}
	}
}

func (r *Radio) RequestLowPower() {
	r.mu.Lock()
	r.LowPowerReq++
	r.mu.Unlock()
}

func (r *Radio) LowPowerState() hal.LowPowerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Radio) SetLowPowerState(s hal.LowPowerState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Radio) Notify(c hal.Characteristic, b []byte) error {
	r.mu.Lock()
	if !r.connected {
		r.mu.Unlock()
		return errcode.NotConnected
	}
	if r.failNext > 0 {
		r.failNext--
		r.mu.Unlock()
		return errcode.Wrap(errcode.NotifyFailed, "sim.Notify", c.String())
	}
	n := types.Notification{Char: c.String(), Data: append([]byte(nil), b...), TS: r.clock()}
	r.Sent = append(r.Sent, n)
	conn := r.conn
	r.mu.Unlock()

	if conn != nil {
		conn.Publish(conn.NewMessage(bus.T(types.TopicBLE, "notify", n.Char), n, false))
	}
	return nil
}

func (r *Radio) NotificationsEnabled(c hal.Characteristic) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected && r.enabled[c]
}

func (r *Radio) StartAdvertising() error {
	r.mu.Lock()
	r.Advertising++
	r.mu.Unlock()
	return nil
}

func (r *Radio) SetConnectHandler(fn func(connected bool)) {
	r.mu.Lock()
	r.onConnect = fn
	r.mu.Unlock()
}

func (r *Radio) SetFirmwareRevision(v string) {
	r.mu.Lock()
	r.Firmware = v
	r.mu.Unlock()
}

// Connect queues a connection event delivered by the next ProcessEvents.
func (r *Radio) Connect() { r.queue(true) }

// Disconnect queues a disconnection event; subscriptions are dropped.
func (r *Radio) Disconnect() { r.queue(false) }

func (r *Radio) queue(c bool) {
	r.mu.Lock()
	r.pending = append(r.pending, c)
	r.mu.Unlock()
}

// Subscribe stands in for the central writing the CCCD.
func (r *Radio) Subscribe(c hal.Characteristic, on bool) {
	r.mu.Lock()
	r.enabled[c] = on
	r.mu.Unlock()
}

// FailNotifies makes the next n notifications fail.
func (r *Radio) FailNotifies(n int) {
	r.mu.Lock()
	r.failNext = n
	r.mu.Unlock()
}

func (r *Radio) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// Notifications returns a copy of everything sent so far.
func (r *Radio) Notifications() []types.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Notification(nil), r.Sent...)
}
