package kernel

import "context"

// Sleeper picks and enters a sleep depth once the queue has drained.
// It must return once any wakeup bit is pending.
type Sleeper interface {
	Sleep()
}

// Tracer receives the loop's phase bits.
type Tracer interface {
	Set(mask uint8)
	Clear(mask uint8)
}

// Loop phase bits raised on the tracer while the phase runs.
const (
	TraceTick     uint8 = 0x01
	TraceDispatch uint8 = 0x02
	TraceSleep    uint8 = 0x04
)

type nopTracer struct{}

func (nopTracer) Set(uint8)   {}
func (nopTracer) Clear(uint8) {}

type binding struct {
	bit WakeBits
	id  ID
}

// Loop is the main loop: tick bookkeeping, wake bindings, dispatch, sleep.
type Loop struct {
	s        *Scheduler
	wake     *Wakeup
	sleeper  Sleeper
	bindings []binding
	trace    Tracer
	iters    uint32
}

// NewLoop ties a scheduler to its wakeup source. A nil sleeper busy-waits
// between wakes.
func NewLoop(s *Scheduler, w *Wakeup, sl Sleeper) *Loop {
	return &Loop{s: s, wake: w, sleeper: sl, trace: nopTracer{}}
}

// Trace reports loop phases to t. A nil t turns tracing off.
func (l *Loop) Trace(t Tracer) {
	if t == nil {
		t = nopTracer{}
	}
	l.trace = t
}

// BindWakeup makes bit enqueue id; the bit is cleared once id is queued.
func (l *Loop) BindWakeup(bit WakeBits, id ID) {
	l.bindings = append(l.bindings, binding{bit: bit, id: id})
}

func (l *Loop) Iterations() uint32 { return l.iters }

// Iterate runs one wake's worth of work without sleeping. It reports
// whether a tick boundary was processed.
func (l *Loop) Iterate() bool {
	l.iters++
	ticked := false
	if l.wake.Has(WakeTick) {
		l.trace.Set(TraceTick)
		l.s.Merge()
		l.wake.Clear(WakeTick)
		l.s.TickUpdate()
		l.trace.Clear(TraceTick)
		ticked = true
	}
	for _, b := range l.bindings {
		if l.wake.Has(b.bit) {
			l.s.Enqueue(b.id)
			l.wake.Clear(b.bit)
		}
	}
	l.s.WakeUpdate()
	if l.s.Active() != 0 {
		l.trace.Set(TraceDispatch)
		l.s.Dispatch(func() bool { return l.wake.Has(WakeTick) })
		l.trace.Clear(TraceDispatch)
	}
	return ticked
}

// Run waits for the first tick and then iterates until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { l.wake.Raise(WakeHalt) })
	defer stop()

	for !l.wake.Has(WakeTick | WakeHalt) {
		l.wake.Wait()
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Iterate()
		if l.wake.Has(WakeTick | WakeHalt) {
			continue
		}
		l.trace.Set(TraceSleep)
		if l.sleeper != nil {
			l.sleeper.Sleep()
		} else {
			l.wake.Spin()
		}
		l.trace.Clear(TraceSleep)
	}
}
