package kernel

import (
	"hai-firmware/errcode"
	"hai-firmware/errlog"
)

// Scheduler owns the process table and the four scheduling masks. Every mask
// mutation goes through the critical section.
type Scheduler struct {
	crit Critical
	log  *errlog.Log

	active   Mask
	nextTick Mask
	// sleepVeto and deepVeto bits are owned by the processes that set them.
	sleepVeto Mask
	deepVeto  Mask

	procs      []Runnable
	registered Mask
}

// NewScheduler returns an empty scheduler. log may be nil.
func NewScheduler(crit Critical, log *errlog.Log) *Scheduler {
	if crit == nil {
		crit = &LockCritical{}
	}
	return &Scheduler{crit: crit, log: log}
}

// Register appends r to the dispatch order. Registration order is dispatch
// order.
func (s *Scheduler) Register(r Runnable) error {
	d := r.Desc()
	if d.id >= MaxProcesses {
		return errcode.Wrap(errcode.TooManyProcesses, "kernel.Register", d.name)
	}
	if s.registered.Has(d.id) {
		return errcode.Wrap(errcode.AlreadyRegistered, "kernel.Register", d.name)
	}
	d.s = s
	s.procs = append(s.procs, r)
	s.registered = s.registered.With(d.id)
	return nil
}

// Lookup returns the descriptor registered under id.
func (s *Scheduler) Lookup(id ID) (*Descriptor, bool) {
	for _, r := range s.procs {
		if d := r.Desc(); d.id == id {
			return d, true
		}
	}
	return nil, false
}

// Processes returns the descriptors in dispatch order.
func (s *Scheduler) Processes() []*Descriptor {
	out := make([]*Descriptor, 0, len(s.procs))
	for _, r := range s.procs {
		out = append(out, r.Desc())
	}
	return out
}

func (s *Scheduler) Log() *errlog.Log { return s.log }

// Enqueue marks id runnable in the current pass. Idempotent.
func (s *Scheduler) Enqueue(id ID) {
	st := s.crit.Disable()
	s.active = s.active.With(id)
	s.crit.Restore(st)
}

// Dequeue removes id from the active queue.
func (s *Scheduler) Dequeue(id ID) {
	st := s.crit.Disable()
	s.active = s.active.Without(id)
	s.crit.Restore(st)
}

// Defer moves id from the active queue to the next-tick queue.
func (s *Scheduler) Defer(id ID) {
	st := s.crit.Disable()
	s.nextTick = s.nextTick.With(id)
	s.active = s.active.Without(id)
	s.crit.Restore(st)
}

// Merge folds deferred processes into the active queue. Called once per
// tick boundary.
func (s *Scheduler) Merge() {
	st := s.crit.Disable()
	s.active |= s.nextTick
	s.nextTick = 0
	s.crit.Restore(st)
}

// TickUpdate decrements every timed process's countdown and enqueues those
// that expire, reloading them from their period. Disabled processes are
// dropped from the active queue and their countdown is frozen.
func (s *Scheduler) TickUpdate() {
	var due, drop Mask
	for _, r := range s.procs {
		d := r.Desc()
		if !d.enabled {
			drop = drop.With(d.id)
			continue
		}
		if d.everyWake || d.period == 0 {
			continue
		}
		if d.countdown <= 1 {
			due = due.With(d.id)
			d.countdown = d.period
			continue
		}
		d.countdown--
	}
	st := s.crit.Disable()
	s.active = (s.active | due) &^ drop
	s.crit.Restore(st)
}

// WakeUpdate enqueues every enabled every-wake process.
func (s *Scheduler) WakeUpdate() {
	var due Mask
	for _, r := range s.procs {
		if d := r.Desc(); d.everyWake && d.enabled {
			due = due.With(d.id)
		}
	}
	if due != 0 {
		st := s.crit.Disable()
		s.active |= due
		s.crit.Restore(st)
	}
}

// Dispatch runs queued processes in registration order, pass after pass,
// until the queue is empty or stop reports true before a pass. A process
// enqueued mid-pass runs later in the same pass if it comes after the
// current one. It returns the number of steps run.
func (s *Scheduler) Dispatch(stop func() bool) int {
	steps := 0
	for s.Active() != 0 {
		if stop != nil && stop() {
			return steps
		}
		for _, r := range s.procs {
			if !s.Active().Has(r.Desc().id) {
				continue
			}
			r.RunStep()
			steps++
		}
	}
	return steps
}

// Active returns the current active queue.
func (s *Scheduler) Active() Mask {
	st := s.crit.Disable()
	m := s.active
	s.crit.Restore(st)
	return m
}

// Snapshot copies all four masks under one critical section.
func (s *Scheduler) Snapshot() Masks {
	st := s.crit.Disable()
	m := Masks{
		Active:        s.active,
		NextTick:      s.nextTick,
		SleepVeto:     s.sleepVeto,
		DeepSleepVeto: s.deepVeto,
	}
	s.crit.Restore(st)
	return m
}

// WithVetoes runs fn inside the critical section with the current veto
// masks. fn must not call back into the scheduler.
func (s *Scheduler) WithVetoes(fn func(sleepVeto, deepVeto Mask)) {
	st := s.crit.Disable()
	fn(s.sleepVeto, s.deepVeto)
	s.crit.Restore(st)
}

func (s *Scheduler) setVeto(m *Mask, id ID, on bool) {
	st := s.crit.Disable()
	if on {
		*m = m.With(id)
	} else {
		*m = m.Without(id)
	}
	s.crit.Restore(st)
}
