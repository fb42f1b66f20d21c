// Package battery measures the cell through a switched divider on the
// shared ADC and publishes a 0..100 level.
package battery

import (
	"hai-firmware/errlog"
	"hai-firmware/hal"
	"hai-firmware/kernel"
	"hai-firmware/services/config"
	"hai-firmware/services/testmux"
	"hai-firmware/types"
	"hai-firmware/x/mathx"
)

type State uint8

const (
	Start State = iota
	WaitMutex
	StartADC
	WaitConversion
	ReleaseADC
	Compute
)

// Debug probe bits.
const (
	dbgEnter   uint8 = 0x01
	dbgSettle  uint8 = 0x02
	dbgConvert uint8 = 0x04
	dbgCompute uint8 = 0x08
)

type Deps struct {
	ADC    hal.ADC
	Switch hal.Switch
	Mutex  *kernel.Mutex
}

type Process struct {
	proc *kernel.Proc[State]
	cfg  config.Battery
	d    Deps

	probe *testmux.Probe

	raw     int32
	holding bool
	result  types.BatteryResult
	onLevel func(types.BatteryResult)
}

func New(cfg config.Config, d Deps) *Process {
	b := &Process{cfg: cfg.Battery, d: d}
	b.proc = kernel.NewProc[State](kernel.Config{
		ID:      kernel.ID(config.PIDBattery),
		Name:    "batt",
		Enabled: cfg.Battery.Enabled,
		Period:  cfg.Ticks(cfg.Battery.PeriodMs),
	}, Start, b)
	b.proc.OnFault(b.release)
	return b
}

func (b *Process) Proc() *kernel.Proc[State] { return b.proc }

// Init registers the debug probe; failure is logged and otherwise ignored.
func (b *Process) Init(m *testmux.Mux) {
	p, err := m.Register(config.PIDBattery)
	if err != nil {
		b.proc.Log(errlog.RegisterTestMux)
		return
	}
	b.probe = p
}

// Result is the latest measurement. The reader clears DataReady.
func (b *Process) Result() *types.BatteryResult { return &b.result }

// OnLevel installs an observer called after each measurement.
func (b *Process) OnLevel(fn func(types.BatteryResult)) { b.onLevel = fn }

func (b *Process) Step(p *kernel.Proc[State]) (State, kernel.Action) {
	b.probe.Set(dbgEnter)
	defer b.probe.Clear(dbgEnter)

	switch p.State() {
	case Start:
		if !p.Holding() {
			b.d.Switch.Set(true)
			b.probe.Set(dbgSettle)
		}
		return p.Hold(b.cfg.SettleTicks+1, Start, WaitMutex)

	case WaitMutex:
		b.probe.Clear(dbgSettle)
		if !b.d.Mutex.TryLock(p.ID()) {
			return WaitMutex, kernel.NextTick()
		}
		b.holding = true
		return StartADC, kernel.Continue()

	case StartADC:
		b.d.ADC.Configure(hal.ADCChannel(b.cfg.Channel), hal.RefInternal)
		b.d.ADC.StartConversion()
		p.VetoDeepSleep(true)
		b.probe.Set(dbgConvert)
		return WaitConversion, kernel.Continue()

	case WaitConversion:
		if !b.d.ADC.Done() {
			return WaitConversion, kernel.Continue()
		}
		b.raw = b.d.ADC.ReadRaw()
		return ReleaseADC, kernel.Continue()

	case ReleaseADC:
		b.release()
		b.probe.Clear(dbgConvert)
		return Compute, kernel.Continue()

	case Compute:
		b.probe.Set(dbgCompute)
		lvl, mv := Level(b.raw, b.d.ADC.HighLimit(), b.cfg)
		b.result = types.BatteryResult{Level: lvl, MilliV: mv, Raw: b.raw, DataReady: true}
		println("[batt] level", lvl, "mV", mv)
		if b.onLevel != nil {
			b.onLevel(b.result)
		}
		b.probe.Clear(dbgCompute)
		return Start, kernel.Done()
	}
	return p.Fault()
}

// release undoes everything a measurement may hold: ADC configuration,
// deep-sleep veto, divider switch and the ADC mutex.
func (b *Process) release() {
	b.d.ADC.RestoreDefaults()
	b.proc.VetoDeepSleep(false)
	b.d.Switch.Set(false)
	if b.holding {
		b.d.Mutex.Unlock()
		b.holding = false
	}
}

// Level converts a raw reading to percent and millivolts. Readings above
// MaxMilliV are full; below MinMilliV empty.
func Level(raw, highLimit int32, cfg config.Battery) (uint8, int32) {
	mv := mathx.MulDiv(raw, cfg.ResistorScale(), highLimit)
	if mv > cfg.MaxMilliV {
		return 100, mv
	}
	return uint8(mathx.Window(mv, cfg.MinMilliV, cfg.MaxMilliV, 100)), mv
}
