// Package power picks the deepest sleep the radio and the process vetoes
// allow once the run queue has drained.
package power

import (
	"hai-firmware/hal"
	"hai-firmware/kernel"
)

// Decision is one arbitration outcome.
type Decision uint8

const (
	// WakePending: work arrived while dispatching; go round again.
	WakePending Decision = iota
	// RadioBusy: the radio is transitioning; do not sleep.
	RadioBusy
	DeepSleep
	// SleepClockSwitched: CPU sleep with the main oscillator stopped.
	SleepClockSwitched
	Sleep
	// BusyWait: every sleep depth is vetoed; spin until the next wakeup.
	BusyWait

	numDecisions
)

var decisionNames = [numDecisions]string{
	WakePending:        "wake_pending",
	RadioBusy:          "radio_busy",
	DeepSleep:          "deep_sleep",
	SleepClockSwitched: "sleep_clock_switched",
	Sleep:              "sleep",
	BusyWait:           "busy_wait",
}

func (d Decision) String() string {
	if d < numDecisions {
		return decisionNames[d]
	}
	return "unknown"
}

// Decide is the arbitration rule. It has no side effects.
func Decide(pending kernel.WakeBits, radio hal.LowPowerState, sleepVeto, deepVeto kernel.Mask) Decision {
	if pending != 0 {
		return WakePending
	}
	if radio == hal.RadioDeepSleepReady && deepVeto == 0 {
		return DeepSleep
	}
	if radio == hal.RadioTransitioning {
		return RadioBusy
	}
	switch {
	case deepVeto == 0:
		return SleepClockSwitched
	case sleepVeto == 0:
		return Sleep
	default:
		return BusyWait
	}
}

// Arbitrator applies Decide once per main-loop iteration. It implements
// kernel.Sleeper.
type Arbitrator struct {
	sched *kernel.Scheduler
	wake  *kernel.Wakeup
	radio hal.Radio
	cpu   hal.CPU

	last   Decision
	counts [numDecisions]uint32
	notify func(Decision)
}

func NewArbitrator(s *kernel.Scheduler, w *kernel.Wakeup, radio hal.Radio, cpu hal.CPU) *Arbitrator {
	return &Arbitrator{sched: s, wake: w, radio: radio, cpu: cpu}
}

// OnDecision installs an observer called after each decision, before the
// CPU sleeps.
func (a *Arbitrator) OnDecision(fn func(Decision)) { a.notify = fn }

// Sleep decides inside the scheduler's critical section and then enters the
// chosen mode. A wakeup raised after the decision is latched by the wakeup
// source, so the sleep below returns at once.
func (a *Arbitrator) Sleep() {
	d := WakePending
	a.sched.WithVetoes(func(sleepVeto, deepVeto kernel.Mask) {
		if a.wake.Pending() != 0 {
			return
		}
		a.radio.RequestLowPower()
		d = Decide(a.wake.Pending(), a.radio.LowPowerState(), sleepVeto, deepVeto)
	})

	a.last = d
	a.counts[d]++
	if a.notify != nil {
		a.notify(d)
	}

	switch d {
	case DeepSleep:
		a.cpu.DeepSleep()
	case SleepClockSwitched:
		a.cpu.SleepClockSwitched()
	case Sleep:
		a.cpu.Sleep()
	case BusyWait:
		a.wake.Spin()
	}
}

func (a *Arbitrator) Last() Decision { return a.last }

// Count returns how often d was chosen.
func (a *Arbitrator) Count(d Decision) uint32 {
	if d >= numDecisions {
		return 0
	}
	return a.counts[d]
}
