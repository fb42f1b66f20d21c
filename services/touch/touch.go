// Package touch scans the capacitive slider, classifies gestures, and runs
// a slower wrist-presence measurement between slider scans.
package touch

import (
	"hai-firmware/errlog"
	"hai-firmware/hal"
	"hai-firmware/kernel"
	"hai-firmware/services/config"
	"hai-firmware/services/testmux"
	"hai-firmware/types"
)

type State uint8

const (
	StartScan State = iota
	WaitScan
	ProcessResults
	ScanHigh
	ProcessHigh
	ScanLow
	ProcessLow
	Finish
)

const (
	dbgEnter   uint8 = 0x01
	dbgScan    uint8 = 0x02
	dbgWait    uint8 = 0x04
	dbgProcess uint8 = 0x08
	dbgWrist   uint8 = 0x10
)

type Deps struct {
	Cap hal.CapSense
	// Mutex guards the analog mux the wrist electrodes share with the ADC.
	Mutex *kernel.Mutex
	// Clock is a millisecond timestamp; it paces the wrist scan.
	Clock func() uint32
	// Wake, if set, has its scan-complete bit acknowledged once results are
	// read.
	Wake *kernel.Wakeup
}

type Process struct {
	proc  *kernel.Proc[State]
	cfg   config.Touch
	d     Deps
	g     *gestureContext
	probe *testmux.Probe

	result    types.TouchResult
	onGesture func(types.Gesture, uint8)

	wrist     types.WristResult
	wristLast uint32
	high, low uint16
	holding   bool
	prepared  hal.SensorID
	armed     bool
}

func New(cfg config.Config, d Deps) *Process {
	idle := cfg.Ticks(cfg.Touch.IdlePeriodMs)
	t := &Process{
		cfg:    cfg.Touch,
		d:      d,
		g:      newGestureContext(cfg.Touch, cfg.Ticks(cfg.Touch.ActivePeriodMs), idle),
		result: types.TouchResult{Centroid: types.NoTouch},
	}
	if t.d.Clock == nil {
		t.d.Clock = func() uint32 { return 0 }
	}
	t.proc = kernel.NewProc[State](kernel.Config{
		ID:      kernel.ID(config.PIDTouch),
		Name:    "touch",
		Enabled: cfg.Touch.Enabled,
		Period:  idle,
	}, StartScan, t)
	t.proc.OnFault(t.release)
	t.wristLast = t.d.Clock()
	return t
}

func (t *Process) Proc() *kernel.Proc[State] { return t.proc }

func (t *Process) Init(m *testmux.Mux) {
	p, err := m.Register(config.PIDTouch)
	if err != nil {
		t.proc.Log(errlog.RegisterTestMux)
		return
	}
	t.probe = p
}

// Result is the latest scan outcome. The reader clears DataReady.
func (t *Process) Result() *types.TouchResult { return &t.result }

// Gesture returns the current gesture and a counter that advances with
// every new one.
func (t *Process) Gesture() (types.Gesture, uint32) { return t.g.gesture, t.g.seq }

func (t *Process) Wrist() types.WristResult { return t.wrist }

// OnGesture installs an observer called once per new gesture.
func (t *Process) OnGesture(fn func(g types.Gesture, centroid uint8)) { t.onGesture = fn }

func (t *Process) Step(p *kernel.Proc[State]) (State, kernel.Action) {
	t.probe.Set(dbgEnter)
	defer t.probe.Clear(dbgEnter)

	switch p.State() {
	case StartScan:
		t.probe.Set(dbgScan)
		t.d.Cap.Wake()
		t.d.Cap.StartScan()
		p.VetoDeepSleep(true)
		t.probe.Clear(dbgScan)
		return WaitScan, kernel.Continue()

	case WaitScan:
		t.probe.Set(dbgWait)
		defer t.probe.Clear(dbgWait)
		if t.d.Cap.Busy() {
			// The scan-complete wakeup queues us again.
			return WaitScan, kernel.Done()
		}
		if t.d.Wake != nil {
			// A completion that raced this poll must not restart the scan.
			t.d.Wake.Clear(kernel.WakeScan)
		}
		t.d.Cap.Sleep()
		p.VetoDeepSleep(false)
		return ProcessResults, kernel.Continue()

	case ProcessResults:
		t.probe.Set(dbgProcess)
		defer t.probe.Clear(dbgProcess)
		t.process(p)
		if t.wristDue() {
			return ScanHigh, kernel.Continue()
		}
		return StartScan, kernel.Done()

	case ScanHigh:
		if !t.d.Mutex.TryLock(p.ID()) {
			return ScanHigh, kernel.NextTick()
		}
		t.holding = true
		t.probe.Set(dbgWrist)
		p.VetoDeepSleep(true)
		t.prepare(hal.SensorID(t.cfg.Wrist.High))
		return ProcessHigh, kernel.NextTick()

	case ProcessHigh:
		t.high = t.measure()
		return ScanLow, kernel.Continue()

	case ScanLow:
		t.prepare(hal.SensorID(t.cfg.Wrist.Low))
		return ProcessLow, kernel.NextTick()

	case ProcessLow:
		t.low = t.measure()
		return Finish, kernel.Continue()

	case Finish:
		t.wrist = types.WristResult{
			High:    t.high,
			Low:     t.low,
			Present: min(t.high, t.low) >= t.cfg.Wrist.Threshold,
		}
		t.wristLast = t.d.Clock()
		t.release()
		t.probe.Clear(dbgWrist)
		return StartScan, kernel.Done()
	}
	return p.Fault()
}

func (t *Process) process(p *kernel.Proc[State]) {
	pos, ok := t.d.Cap.Centroid()
	if !ok {
		pos = types.NoTouch
	}
	_, seq := t.Gesture()
	t.g.classify(t.d.Cap.ActiveMask(), pos)
	if p.Period() != t.g.period {
		p.SetPeriod(t.g.period)
	}

	t.result = types.TouchResult{Centroid: t.g.centroid, Gesture: t.g.gesture, DataReady: true}
	if t.g.seq != seq {
		println("[touch] gesture", t.g.gesture.String(), "dist", t.g.distance, "v", t.g.velocity)
		if t.onGesture != nil {
			t.onGesture(t.g.gesture, t.g.centroid)
		}
	}
}

func (t *Process) wristDue() bool {
	if !t.cfg.Wrist.Enabled {
		return false
	}
	return t.d.Clock()-t.wristLast >= t.cfg.Wrist.PeriodMs
}

func (t *Process) prepare(id hal.SensorID) {
	t.d.Cap.PrepareSensor(id)
	t.prepared = id
	t.armed = true
}

func (t *Process) measure() uint16 {
	v := t.d.Cap.SensorRaw(t.prepared)
	t.d.Cap.RestoreSensor(t.prepared)
	t.armed = false
	return v
}

// release puts the scan engine back to sleep and drops the wrist
// measurement's pin, veto and mutex.
func (t *Process) release() {
	if t.armed {
		t.d.Cap.RestoreSensor(t.prepared)
		t.armed = false
	}
	t.d.Cap.Sleep()
	t.proc.VetoDeepSleep(false)
	if t.holding {
		t.d.Mutex.Unlock()
		t.holding = false
	}
}
