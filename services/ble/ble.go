// Package ble forwards battery and touch results to the radio. It runs on
// every main-loop wake so the stack is pumped at least once per connection
// interval.
package ble

import (
	"encoding/binary"

	"hai-firmware/errlog"
	"hai-firmware/hal"
	"hai-firmware/kernel"
	"hai-firmware/services/config"
	"hai-firmware/services/testmux"
	"hai-firmware/types"
)

type State uint8

const Pump State = 0

// Process-specific error-log codes.
const (
	ErrBatteryNotify errlog.Code = errlog.FirstLocal + iota
	ErrTouchNotify
	ErrAdvertise
)

const (
	dbgEnter uint8 = 0x01
	dbgBatt  uint8 = 0x02
	dbgTouch uint8 = 0x04
)

// TouchPacketLen is the size of the touch centroid characteristic value.
const TouchPacketLen = 4

// FirmwareReporter is implemented by radios that expose a device
// information firmware revision.
type FirmwareReporter interface {
	SetFirmwareRevision(v string)
}

type Deps struct {
	Radio   hal.Radio
	Battery *types.BatteryResult
	Touch   *types.TouchResult
}

type Process struct {
	proc  *kernel.Proc[State]
	d     Deps
	fw    config.Firmware
	probe *testmux.Probe

	connected bool
	pkt       [TouchPacketLen]byte
}

func New(cfg config.Config, d Deps) *Process {
	b := &Process{d: d, fw: cfg.Firmware}
	b.proc = kernel.NewProc[State](kernel.Config{
		ID:        kernel.ID(config.PIDBLE),
		Name:      "ble",
		Enabled:   cfg.BLE.Enabled,
		EveryWake: true,
	}, Pump, b)
	return b
}

func (b *Process) Proc() *kernel.Proc[State] { return b.proc }

// Init registers the debug probe, publishes the firmware revision and
// hooks connection events. Advertising starts here.
func (b *Process) Init(m *testmux.Mux) {
	if p, err := m.Register(config.PIDBLE); err != nil {
		b.proc.Log(errlog.RegisterTestMux)
	} else {
		b.probe = p
	}
	if !b.proc.Enabled() {
		return
	}
	if fr, ok := b.d.Radio.(FirmwareReporter); ok {
		fr.SetFirmwareRevision(b.fw.String())
	}
	b.d.Radio.SetConnectHandler(b.onConnect)
	b.advertise()
}

func (b *Process) Connected() bool { return b.connected }

func (b *Process) onConnect(connected bool) {
	b.connected = connected
	if connected {
		println("[ble] connected")
		return
	}
	println("[ble] disconnected")
	b.advertise()
}

func (b *Process) advertise() {
	if err := b.d.Radio.StartAdvertising(); err != nil {
		println("[ble] advertise:", err.Error())
		b.proc.Log(ErrAdvertise)
	}
}

func (b *Process) Step(p *kernel.Proc[State]) (State, kernel.Action) {
	b.probe.Set(dbgEnter)
	defer b.probe.Clear(dbgEnter)

	switch p.State() {
	case Pump:
		b.d.Radio.ProcessEvents()
		b.sendBattery()
		b.sendTouch()
		return Pump, kernel.Done()
	}
	return p.Fault()
}

func (b *Process) sendBattery() {
	r := b.d.Battery
	if r == nil || !r.DataReady || !b.d.Radio.NotificationsEnabled(hal.CharBatteryLevel) {
		return
	}
	b.probe.Set(dbgBatt)
	if err := b.d.Radio.Notify(hal.CharBatteryLevel, []byte{r.Level}); err != nil {
		b.proc.Log(ErrBatteryNotify)
	}
	r.DataReady = false
	b.probe.Clear(dbgBatt)
}

func (b *Process) sendTouch() {
	r := b.d.Touch
	if r == nil || !r.DataReady || !b.d.Radio.NotificationsEnabled(hal.CharTouchCentroid) {
		return
	}
	b.probe.Set(dbgTouch)
	binary.LittleEndian.PutUint32(b.pkt[:], uint32(r.Centroid))
	if err := b.d.Radio.Notify(hal.CharTouchCentroid, b.pkt[:]); err != nil {
		b.proc.Log(ErrTouchNotify)
	}
	r.DataReady = false
	b.probe.Clear(dbgTouch)
}
