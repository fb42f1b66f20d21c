// Package system assembles the fixed process table, the main loop and the
// power arbitrator around a board's collaborators.
package system

import (
	"context"

	"hai-firmware/bus"
	"hai-firmware/errcode"
	"hai-firmware/errlog"
	"hai-firmware/hal"
	"hai-firmware/kernel"
	"hai-firmware/power"
	"hai-firmware/services/battery"
	"hai-firmware/services/ble"
	"hai-firmware/services/config"
	"hai-firmware/services/led"
	"hai-firmware/services/testmux"
	"hai-firmware/services/touch"
	"hai-firmware/types"
)

// Error-log codes recorded under config.PIDSystem.
const (
	ErrSwitchFirmwareMux errlog.Code = errlog.FirstLocal + iota
	ErrSwitchHardwareMux
)

// Board is everything the system needs from the hardware.
type Board struct {
	Wake  *kernel.Wakeup
	Crit  kernel.Critical
	Clock func() uint32

	Radio  hal.Radio
	Cap    hal.CapSense
	ADC    hal.ADC
	CPU    hal.CPU
	Switch hal.Switch
	RGB    hal.RGB

	// MuxOut receives routed debug probe bits. Nil discards them.
	MuxOut testmux.Output
}

type System struct {
	Cfg   config.Config
	Log   *errlog.Log
	Sched *kernel.Scheduler
	Mutex *kernel.Mutex
	Loop  *kernel.Loop
	Mux   *testmux.Mux
	// Arb is nil when sleep is disabled; the loop then busy-waits.
	Arb *power.Arbitrator

	Battery *battery.Process
	BLE     *ble.Process
	LED     *led.Process
	Touch   *touch.Process

	board  Board
	conn   *bus.Connection
	faults [config.MaxProcesses]uint32
	lastPD power.Decision
}

// New validates cfg, builds every process and registers them in the fixed
// order battery, ble, led, touch. conn may be nil; with a connection the
// system publishes telemetry.
func New(cfg config.Config, b Board, conn *bus.Connection) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.Wake == nil {
		return nil, errcode.Wrap(errcode.InvalidConfig, "system.New", "no wakeup source")
	}
	if b.Clock == nil {
		b.Clock = func() uint32 { return 0 }
	}

	s := &System{Cfg: cfg, Log: errlog.New(), board: b, conn: conn, lastPD: power.Decision(0xFF)}
	s.Sched = kernel.NewScheduler(b.Crit, s.Log)
	s.Mutex = kernel.NewMutex(b.Crit)
	s.Mux = testmux.New(s.Log, b.MuxOut)

	s.Battery = battery.New(cfg, battery.Deps{ADC: b.ADC, Switch: b.Switch, Mutex: s.Mutex})
	s.Touch = touch.New(cfg, touch.Deps{Cap: b.Cap, Mutex: s.Mutex, Clock: b.Clock, Wake: b.Wake})
	s.BLE = ble.New(cfg, ble.Deps{Radio: b.Radio, Battery: s.Battery.Result(), Touch: s.Touch.Result()})
	s.LED = led.New(cfg, b.RGB, s.Touch)

	for _, r := range []kernel.Runnable{s.Battery.Proc(), s.BLE.Proc(), s.LED.Proc(), s.Touch.Proc()} {
		if err := s.Sched.Register(r); err != nil {
			return nil, err
		}
	}

	s.Battery.Init(s.Mux)
	s.BLE.Init(s.Mux)
	s.LED.Init(s.Mux)
	s.Touch.Init(s.Mux)

	var sl kernel.Sleeper
	if cfg.EnableSleep {
		s.Arb = power.NewArbitrator(s.Sched, b.Wake, b.Radio, b.CPU)
		sl = s.Arb
	}
	s.Loop = kernel.NewLoop(s.Sched, b.Wake, sl)
	s.Loop.BindWakeup(kernel.WakeScan, kernel.ID(config.PIDTouch))
	s.initDebugMux()

	s.wireTelemetry()
	println("[system] firmware", cfg.Firmware.String(), "processes", len(s.Sched.Processes()))
	return s, nil
}

// initDebugMux registers the system's debug channel with the loop and
// routes the configured slots and hardware channels. Failures are logged
// and otherwise ignored.
func (s *System) initDebugMux() {
	p, err := s.Mux.Register(config.PIDSystem)
	if err != nil {
		s.Log.Log(config.PIDSystem, errlog.RegisterTestMux)
	} else {
		s.Loop.Trace(p)
	}

	d := s.Cfg.DebugMux
	for slot, r := range []struct{ pid, ch uint8 }{{d.Slot0, d.Signal0}, {d.Slot1, d.Signal1}} {
		if err := s.Mux.Select(uint8(slot), r.pid); err != nil {
			s.Log.Log(config.PIDSystem, ErrSwitchFirmwareMux)
		}
		if err := s.Mux.SelectSignal(uint8(slot), r.ch); err != nil {
			s.Log.Log(config.PIDSystem, ErrSwitchHardwareMux)
		}
	}
}

// Run serves bus requests (when connected) and runs the main loop until
// ctx is done.
func (s *System) Run(ctx context.Context) error {
	if s.conn != nil {
		svc := NewService(s.Log, s.Sched)
		if err := svc.Start(ctx, s.conn); err != nil {
			return err
		}
	}
	return s.Loop.Run(ctx)
}

// Faults returns how many default-state faults pid has logged.
func (s *System) Faults(pid uint8) uint32 {
	if int(pid) >= len(s.faults) {
		return 0
	}
	return s.faults[pid]
}

func (s *System) wireTelemetry() {
	s.Log.OnLog(func(e errlog.Entry) {
		if e.Code != errlog.DefaultState || int(e.PID) >= len(s.faults) {
			return
		}
		s.faults[e.PID]++
		if s.conn == nil {
			return
		}
		name := ""
		if d, ok := s.Sched.Lookup(kernel.ID(e.PID)); ok {
			name = d.Name()
		}
		s.publish(bus.T(types.TopicProc, name, "fault"),
			types.ProcFault{PID: e.PID, Name: name, Count: s.faults[e.PID]}, true)
	})

	if s.conn == nil {
		return
	}
	config.Publish(s.conn, s.Cfg)

	s.Battery.OnLevel(func(r types.BatteryResult) {
		s.publish(bus.T(types.TopicBatt, "level"), r, true)
	})
	s.Touch.OnGesture(func(g types.Gesture, centroid uint8) {
		s.publish(bus.T(types.TopicTouch, "gesture"),
			types.GestureEvent{Gesture: g.String(), Centroid: centroid, TS: s.board.Clock()}, false)
	})
	if s.Arb != nil {
		s.Arb.OnDecision(func(d power.Decision) {
			// Only changes are published; the loop decides on every wake.
			if d == s.lastPD {
				return
			}
			s.lastPD = d
			s.publish(bus.T(types.TopicPower, "decision"), types.PowerEvent{
				Decision: d.String(),
				Radio:    s.board.Radio.LowPowerState().String(),
				TS:       s.board.Clock(),
			}, true)
		})
	}
}

func (s *System) publish(t bus.Topic, payload any, retained bool) {
	s.conn.Publish(s.conn.NewMessage(t, payload, retained))
}
