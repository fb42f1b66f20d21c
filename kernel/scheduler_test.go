package kernel

import (
	"context"
	"errors"
	"testing"

	"hai-firmware/errcode"
	"hai-firmware/errlog"
)

type st uint8

func newProc(t *testing.T, s *Scheduler, cfg Config, f MachineFunc[st]) *Proc[st] {
	t.Helper()
	p := NewProc[st](cfg, 0, f)
	if err := s.Register(p); err != nil {
		t.Fatalf("register %s: %v", cfg.Name, err)
	}
	return p
}

func TestDeferMergeRoundTrip(t *testing.T) {
	s := NewScheduler(nil, nil)
	s.Enqueue(4)
	s.Defer(4)

	m := s.Snapshot()
	if m.Active.Has(4) || !m.NextTick.Has(4) {
		t.Fatalf("after defer: active=%b next=%b", m.Active, m.NextTick)
	}
	s.Merge()
	m = s.Snapshot()
	if !m.Active.Has(4) || m.NextTick != 0 {
		t.Fatalf("after merge: active=%b next=%b", m.Active, m.NextTick)
	}
}

func TestDisabledProcessDroppedAtTickUpdate(t *testing.T) {
	s := NewScheduler(nil, nil)
	p := newProc(t, s, Config{ID: 2, Name: "p", Enabled: true, Period: 1}, func(*Proc[st]) (st, Action) {
		return 0, Done()
	})

	s.Enqueue(2)
	p.Disable()
	s.TickUpdate()
	if s.Active().Has(2) {
		t.Fatal("disabled process still queued after tick update")
	}
	for i := 0; i < 5; i++ {
		s.TickUpdate()
	}
	if s.Active().Has(2) {
		t.Fatal("disabled process timer-enqueued")
	}

	p.Enable()
	s.TickUpdate()
	if !s.Active().Has(2) {
		t.Fatal("re-enabled process not enqueued")
	}
}

func TestDisabledEveryWakeDroppedAtTickUpdate(t *testing.T) {
	s := NewScheduler(nil, nil)
	p := newProc(t, s, Config{ID: 1, Name: "w", Enabled: true, EveryWake: true}, func(*Proc[st]) (st, Action) {
		return 0, Done()
	})

	s.Enqueue(1)
	p.Disable()
	s.TickUpdate()
	if s.Active().Has(1) {
		t.Fatal("disabled every-wake process still queued after tick update")
	}
	s.WakeUpdate()
	if s.Active().Has(1) {
		t.Fatal("disabled every-wake process enqueued on wake")
	}
}

func TestTickUpdateReloadsFromPeriod(t *testing.T) {
	s := NewScheduler(nil, nil)
	newProc(t, s, Config{ID: 0, Name: "p", Enabled: true, Period: 3}, func(*Proc[st]) (st, Action) {
		return 0, Done()
	})

	var due []int
	for tick := 1; tick <= 9; tick++ {
		s.TickUpdate()
		if s.Active().Has(0) {
			due = append(due, tick)
			s.Dequeue(0)
		}
	}
	want := []int{3, 6, 9}
	if len(due) != len(want) {
		t.Fatalf("due ticks = %v, want %v", due, want)
	}
	for i := range want {
		if due[i] != want[i] {
			t.Fatalf("due ticks = %v, want %v", due, want)
		}
	}
}

func TestDispatchRegistrationOrderAndMidPassEnqueue(t *testing.T) {
	s := NewScheduler(nil, nil)
	var order []ID
	runs := map[ID]int{}
	step := func(p *Proc[st]) (st, Action) {
		id := p.ID()
		order = append(order, id)
		runs[id]++
		switch {
		case id == 5 && runs[id] == 1:
			s.Enqueue(1)
			s.Enqueue(3)
		case id == 3:
			s.Enqueue(5)
		}
		return 0, Done()
	}
	newProc(t, s, Config{ID: 5, Name: "a", Enabled: true}, step)
	newProc(t, s, Config{ID: 1, Name: "b", Enabled: true}, step)
	newProc(t, s, Config{ID: 3, Name: "c", Enabled: true}, step)

	s.Enqueue(5)
	n := s.Dispatch(nil)

	want := []ID{5, 1, 3, 5}
	if n != len(want) || len(order) != len(want) {
		t.Fatalf("order = %v (steps %d), want %v", order, n, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestDispatchStopsWhenTickPending(t *testing.T) {
	s := NewScheduler(nil, nil)
	newProc(t, s, Config{ID: 0, Name: "spin", Enabled: true}, func(*Proc[st]) (st, Action) {
		return 0, Continue()
	})
	s.Enqueue(0)

	passes := 0
	n := s.Dispatch(func() bool {
		passes++
		return passes > 3
	})
	if n != 3 {
		t.Fatalf("steps = %d, want 3", n)
	}
	if !s.Active().Has(0) {
		t.Fatal("continuing process lost its queue bit")
	}
}

func TestHoldWaitsTicksThenContinues(t *testing.T) {
	const (
		start st = iota
		dest
	)
	s := NewScheduler(nil, nil)
	w := NewWakeup()
	l := NewLoop(s, w, nil)

	tick := 0
	reached := -1
	newProc(t, s, Config{ID: 0, Name: "h", Enabled: true}, func(p *Proc[st]) (st, Action) {
		switch p.State() {
		case start:
			return p.Hold(3, start, dest)
		case dest:
			reached = tick
			return start, Done()
		}
		return p.Fault()
	})

	s.Enqueue(0)
	l.Iterate()
	for tick = 1; tick <= 4 && reached < 0; tick++ {
		w.Raise(WakeTick)
		l.Iterate()
	}
	if reached != 2 {
		t.Fatalf("dest reached at tick %d, want 2", reached)
	}
}

func TestRepeatSingleGoesStraightToDest(t *testing.T) {
	p := NewProc[st](Config{ID: 0}, 0, MachineFunc[st](func(*Proc[st]) (st, Action) { return 0, Done() }))
	next, act := p.Repeat(1, 1, NextTick(), 2, Continue())
	if next != 2 || act.String() != "continue" || p.Holding() {
		t.Fatalf("got state %d action %s holding %v", next, act, p.Holding())
	}
}

func TestSleepForOverridesCountdown(t *testing.T) {
	s := NewScheduler(nil, nil)
	w := NewWakeup()
	l := NewLoop(s, w, nil)

	var ranAt []int
	tick := 0
	newProc(t, s, Config{ID: 0, Name: "s", Enabled: true, Period: 10}, func(*Proc[st]) (st, Action) {
		ranAt = append(ranAt, tick)
		return 0, SleepFor(2)
	})

	s.Enqueue(0)
	l.Iterate()
	for tick = 1; tick <= 4; tick++ {
		w.Raise(WakeTick)
		l.Iterate()
	}
	want := []int{0, 2, 4}
	if len(ranAt) != len(want) {
		t.Fatalf("ran at %v, want %v", ranAt, want)
	}
	for i := range want {
		if ranAt[i] != want[i] {
			t.Fatalf("ran at %v, want %v", ranAt, want)
		}
	}
}

func TestFaultLogsResetsAndDisables(t *testing.T) {
	log := errlog.New()
	s := NewScheduler(nil, log)
	released := false
	p := newProc(t, s, Config{ID: 3, Name: "f", Enabled: true, Period: 1}, func(p *Proc[st]) (st, Action) {
		if p.State() == 0 {
			return 9, Continue()
		}
		return p.Fault()
	})
	p.OnFault(func() { released = true })

	s.Enqueue(3)
	s.Dispatch(nil)

	if p.State() != 0 || p.Enabled() || !released || p.Faults() != 1 {
		t.Fatalf("state=%d enabled=%v released=%v faults=%d", p.State(), p.Enabled(), released, p.Faults())
	}
	if s.Active().Has(3) {
		t.Fatal("faulted process still queued")
	}
	es := log.Entries()
	if len(es) != 1 || es[0].PID != 3 || es[0].Code != errlog.DefaultState {
		t.Fatalf("log = %+v", es)
	}
	s.TickUpdate()
	if s.Active().Has(3) {
		t.Fatal("faulted process re-enqueued by timer")
	}
}

func TestRegisterRejectsDuplicateAndOutOfRange(t *testing.T) {
	s := NewScheduler(nil, nil)
	f := MachineFunc[st](func(*Proc[st]) (st, Action) { return 0, Done() })
	if err := s.Register(NewProc[st](Config{ID: 1, Name: "a"}, 0, f)); err != nil {
		t.Fatal(err)
	}
	err := s.Register(NewProc[st](Config{ID: 1, Name: "b"}, 0, f))
	if errcode.Of(err) != errcode.AlreadyRegistered {
		t.Fatalf("duplicate: %v", err)
	}
	err = s.Register(NewProc[st](Config{ID: MaxProcesses, Name: "c"}, 0, f))
	if errcode.Of(err) != errcode.TooManyProcesses {
		t.Fatalf("out of range: %v", err)
	}
	if len(s.Processes()) != 1 {
		t.Fatalf("processes = %d", len(s.Processes()))
	}
}

func TestVetoMasks(t *testing.T) {
	s := NewScheduler(nil, nil)
	p := newProc(t, s, Config{ID: 6, Name: "v"}, func(*Proc[st]) (st, Action) { return 0, Done() })

	p.VetoDeepSleep(true)
	p.VetoSleep(true)
	s.WithVetoes(func(sv, dv Mask) {
		if !sv.Has(6) || !dv.Has(6) {
			t.Fatalf("vetoes = %b %b", sv, dv)
		}
	})
	p.VetoDeepSleep(false)
	p.VetoSleep(false)
	if m := s.Snapshot(); m.SleepVeto != 0 || m.DeepSleepVeto != 0 {
		t.Fatalf("vetoes not cleared: %+v", m)
	}
}

func TestWakeBindingAndEveryWake(t *testing.T) {
	s := NewScheduler(nil, nil)
	w := NewWakeup()
	l := NewLoop(s, w, nil)

	scans, wakes := 0, 0
	newProc(t, s, Config{ID: 0, Name: "every", Enabled: true, EveryWake: true}, func(*Proc[st]) (st, Action) {
		wakes++
		return 0, Done()
	})
	newProc(t, s, Config{ID: 1, Name: "scan", Enabled: true, Period: 100}, func(*Proc[st]) (st, Action) {
		scans++
		return 0, Done()
	})
	l.BindWakeup(WakeScan, 1)

	w.Raise(WakeScan)
	l.Iterate()
	if scans != 1 || w.Has(WakeScan) {
		t.Fatalf("scans=%d pending=%b", scans, w.Pending())
	}
	l.Iterate()
	if wakes != 2 || scans != 1 {
		t.Fatalf("wakes=%d scans=%d", wakes, scans)
	}
}

type traceLog struct {
	bits  uint8
	edges []uint8
}

func (r *traceLog) Set(m uint8)   { r.bits |= m; r.edges = append(r.edges, r.bits) }
func (r *traceLog) Clear(m uint8) { r.bits &^= m; r.edges = append(r.edges, r.bits) }

func TestLoopTracesPhases(t *testing.T) {
	s := NewScheduler(nil, nil)
	w := NewWakeup()
	l := NewLoop(s, w, nil)
	tr := &traceLog{}
	l.Trace(tr)

	var during uint8
	newProc(t, s, Config{ID: 0, Name: "p", Enabled: true, Period: 1}, func(*Proc[st]) (st, Action) {
		during = tr.bits
		return 0, Done()
	})

	w.Raise(WakeTick)
	l.Iterate()
	want := []uint8{TraceTick, 0, TraceDispatch, 0}
	if len(tr.edges) != len(want) {
		t.Fatalf("edges = %v, want %v", tr.edges, want)
	}
	for i := range want {
		if tr.edges[i] != want[i] {
			t.Fatalf("edges = %v, want %v", tr.edges, want)
		}
	}
	if during != TraceDispatch {
		t.Fatalf("bits during step = %#x", during)
	}

	// Nothing queued: no dispatch edge.
	tr.edges = nil
	l.Iterate()
	if len(tr.edges) != 0 {
		t.Fatalf("idle iterate traced %v", tr.edges)
	}
}

func TestLoopRunReturnsOnCancel(t *testing.T) {
	s := NewScheduler(nil, nil)
	w := NewWakeup()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewLoop(s, w, nil).Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
}

func TestTickerFire(t *testing.T) {
	w := NewWakeup()
	tk := NewTicker(w, 10)
	tk.Fire()
	tk.Fire()
	if tk.Timestamp() != 20 || tk.Ticks() != 2 || !w.Has(WakeTick) {
		t.Fatalf("ts=%d ticks=%d pending=%b", tk.Timestamp(), tk.Ticks(), w.Pending())
	}
}
