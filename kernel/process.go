package kernel

import "hai-firmware/errlog"

// Config describes one entry in the build-time process table.
type Config struct {
	ID      ID
	Name    string
	Enabled bool
	// Period is the timer reload in ticks. Zero means never timer-enqueued.
	Period uint16
	// EveryWake processes are enqueued on every main-loop wake instead of
	// by countdown.
	EveryWake bool
}

// Descriptor is the scheduler-visible part of a process. The scheduler owns
// countdown; the process owns everything else.
type Descriptor struct {
	id        ID
	name      string
	enabled   bool
	everyWake bool
	period    uint16
	countdown uint16

	latched bool
	remain  uint16

	s *Scheduler
}

func (d *Descriptor) ID() ID            { return d.id }
func (d *Descriptor) Name() string      { return d.name }
func (d *Descriptor) Enabled() bool     { return d.enabled }
func (d *Descriptor) Period() uint16    { return d.period }
func (d *Descriptor) Countdown() uint16 { return d.countdown }

// Enable lets the timer enqueue the process again.
func (d *Descriptor) Enable() { d.enabled = true }

// Disable stops future timer enqueues. An activation already queued in the
// current pass still runs.
func (d *Descriptor) Disable() { d.enabled = false }

// SetPeriod changes the reload value; the running countdown is untouched.
func (d *Descriptor) SetPeriod(ticks uint16) { d.period = ticks }

// Wake queues the process now.
func (d *Descriptor) Wake() {
	if d.s != nil {
		d.s.Enqueue(d.id)
	}
}

func (d *Descriptor) VetoSleep(on bool) {
	if d.s != nil {
		d.s.setVeto(&d.s.sleepVeto, d.id, on)
	}
}

func (d *Descriptor) VetoDeepSleep(on bool) {
	if d.s != nil {
		d.s.setVeto(&d.s.deepVeto, d.id, on)
	}
}

// Log records code against this process in the scheduler's error log.
func (d *Descriptor) Log(code errlog.Code) {
	if d.s != nil && d.s.log != nil {
		d.s.log.Log(uint8(d.id), code)
	}
}

// Runnable is what the scheduler dispatches. *Proc[S] implements it.
type Runnable interface {
	Desc() *Descriptor
	RunStep()
}

type actionKind uint8

const (
	actContinue actionKind = iota
	actDequeue
	actNextTick
	actSleep
)

// Action is what a step asks the scheduler to do with the process next.
type Action struct {
	kind  actionKind
	ticks uint16
}

// Continue keeps the process queued; it runs again in the next pass.
func Continue() Action { return Action{kind: actContinue} }

// Done dequeues the process until its countdown or a wake source queues it.
func Done() Action { return Action{kind: actDequeue} }

// NextTick dequeues the process and queues it again at the next tick.
func NextTick() Action { return Action{kind: actNextTick} }

// SleepFor dequeues the process and overrides its countdown.
func SleepFor(ticks uint16) Action { return Action{kind: actSleep, ticks: ticks} }

func (a Action) String() string {
	switch a.kind {
	case actContinue:
		return "continue"
	case actDequeue:
		return "done"
	case actNextTick:
		return "next_tick"
	case actSleep:
		return "sleep"
	}
	return "unknown"
}

// Stateful is the constraint on process state enums.
type Stateful interface{ ~uint8 }

// Machine is a process transition function. Step must not block.
type Machine[S Stateful] interface {
	Step(p *Proc[S]) (S, Action)
}

// MachineFunc adapts a plain function to Machine.
type MachineFunc[S Stateful] func(p *Proc[S]) (S, Action)

func (f MachineFunc[S]) Step(p *Proc[S]) (S, Action) { return f(p) }

// Proc couples a Descriptor with a typed state machine.
type Proc[S Stateful] struct {
	Descriptor
	state   S
	init    S
	m       Machine[S]
	onFault func()
	faults  uint32
}

// NewProc builds a process from its table entry; register it with a
// Scheduler before running the loop.
func NewProc[S Stateful](cfg Config, init S, m Machine[S]) *Proc[S] {
	return &Proc[S]{
		Descriptor: Descriptor{
			id:        cfg.ID,
			name:      cfg.Name,
			enabled:   cfg.Enabled,
			everyWake: cfg.EveryWake,
			period:    cfg.Period,
			countdown: cfg.Period,
		},
		state: init,
		init:  init,
		m:     m,
	}
}

func (p *Proc[S]) Desc() *Descriptor { return &p.Descriptor }

// State is the state the next step will run in.
func (p *Proc[S]) State() S { return p.state }

// Jump forces the next step to run in s, dropping any Hold latch. Debug
// tooling and tests use it.
func (p *Proc[S]) Jump(s S) {
	p.state = s
	p.latched = false
	p.remain = 0
}

// Faults counts trips through Fault since boot.
func (p *Proc[S]) Faults() uint32 { return p.faults }

// OnFault installs a hook that releases resources the process may hold
// (mutex, vetoes, pins) when it faults.
func (p *Proc[S]) OnFault(fn func()) { p.onFault = fn }

// RunStep runs one transition and applies its action.
func (p *Proc[S]) RunStep() {
	next, act := p.m.Step(p)
	p.state = next
	p.apply(act)
}

func (p *Proc[S]) apply(a Action) {
	s := p.s
	if s == nil {
		return
	}
	switch a.kind {
	case actContinue:
	case actDequeue:
		s.Dequeue(p.id)
	case actNextTick:
		s.Defer(p.id)
	case actSleep:
		p.countdown = a.ticks
		s.Dequeue(p.id)
	}
}

// Repeat spends n activations in repeat (each ending with ra) before moving
// to dest with da. The first call latches n-1 remaining repeats, so n counts
// the entering activation too. n <= 1 goes straight to dest.
func (p *Proc[S]) Repeat(n uint16, repeat S, ra Action, dest S, da Action) (S, Action) {
	if !p.latched {
		if n <= 1 {
			return dest, da
		}
		p.latched = true
		p.remain = n - 1
		return repeat, ra
	}
	if p.remain > 1 {
		p.remain--
		return repeat, ra
	}
	p.latched = false
	p.remain = 0
	return dest, da
}

// Hold re-enters repeat on each of the next n-1 ticks, then continues into
// dest in the same pass.
func (p *Proc[S]) Hold(n uint16, repeat, dest S) (S, Action) {
	return p.Repeat(n, repeat, NextTick(), dest, Continue())
}

// Holding reports whether a Hold/Repeat latch is armed.
func (p *Proc[S]) Holding() bool { return p.latched }

// Fault is the unknown-state fallback: log a default-state error, release
// held resources, reset to the initial state, and disable the process.
func (p *Proc[S]) Fault() (S, Action) {
	p.faults++
	p.Log(errlog.DefaultState)
	println("[sched] fault", p.name, "state", uint8(p.state))
	if p.onFault != nil {
		p.onFault()
	}
	p.latched = false
	p.remain = 0
	p.enabled = false
	return p.init, Done()
}
