package led

import (
	"testing"

	"hai-firmware/hal/sim"
	"hai-firmware/kernel"
	"hai-firmware/services/config"
	"hai-firmware/types"
)

type fakeGestures struct {
	g   types.Gesture
	seq uint32
}

func (f *fakeGestures) Gesture() (types.Gesture, uint32) { return f.g, f.seq }

func (f *fakeGestures) emit(g types.Gesture) {
	f.g = g
	f.seq++
}

func newRig(t *testing.T) (*kernel.Scheduler, *sim.RGB, *fakeGestures, *Process) {
	return newRigCfg(t, config.Defaults())
}

func newRigCfg(t *testing.T, cfg config.Config) (*kernel.Scheduler, *sim.RGB, *fakeGestures, *Process) {
	t.Helper()
	s := kernel.NewScheduler(nil, nil)
	rgb := sim.NewRGB(nil)
	src := &fakeGestures{}
	l := New(cfg, rgb, src)
	if err := s.Register(l.Proc()); err != nil {
		t.Fatal(err)
	}
	return s, rgb, src, l
}

func tick(s *kernel.Scheduler) {
	s.TickUpdate()
	s.Dispatch(nil)
}

func TestGestureColours(t *testing.T) {
	tests := []struct {
		g    types.Gesture
		want types.Color
	}{
		{types.Tap, types.Color{B: 0xFF}},
		{types.SwipeLeft, types.Color{G: 0xFF}},
		{types.SwipeRight, types.Color{R: 0xFF}},
		{types.LargeObject, types.Color{R: 0xFF, G: 0xFF, B: 0xFF}},
	}
	for _, tc := range tests {
		t.Run(tc.g.String(), func(t *testing.T) {
			s, rgb, src, _ := newRig(t)
			src.emit(tc.g)
			tick(s)
			if got := rgb.Color(); got != tc.want {
				t.Fatalf("colour = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestOnTimeThenOff(t *testing.T) {
	s, rgb, src, l := newRig(t)
	onTicks := int(l.onRuns)

	src.emit(types.Tap)
	for i := 0; i < onTicks-1; i++ {
		tick(s)
	}
	if rgb.Color() == (types.Color{}) {
		t.Fatal("LED off before on-time elapsed")
	}
	tick(s)
	if rgb.Color() != (types.Color{}) {
		t.Fatalf("LED still %+v after %d ticks", rgb.Color(), onTicks)
	}

	// The same gesture seen again is not a new event.
	tick(s)
	if rgb.Color() != (types.Color{}) {
		t.Fatal("stale gesture relit the LED")
	}
}

func TestOnTimeIndependentOfPeriod(t *testing.T) {
	cfg := config.Defaults()
	cfg.LED.PeriodMs = 5 * cfg.TickMs
	s, rgb, src, _ := newRigCfg(t, cfg)
	period := int(cfg.Ticks(cfg.LED.PeriodMs))
	onTime := int(cfg.Ticks(cfg.LED.OnTimeMs))

	src.emit(types.Tap)
	lit := 0
	for rgb.Color() == (types.Color{}) {
		if lit++; lit > period {
			t.Fatal("LED never lit")
		}
		tick(s)
	}
	n := 0
	for rgb.Color() != (types.Color{}) {
		if n++; n > 2*onTime {
			t.Fatalf("LED still on after %d ticks", n)
		}
		tick(s)
	}
	if n > onTime || n < onTime-period {
		t.Fatalf("LED on for %d ticks, want about %d", n, onTime)
	}
}

func TestNoGestureLeavesLEDOff(t *testing.T) {
	s, rgb, src, _ := newRig(t)
	src.emit(types.NoGesture)
	tick(s)
	if len(rgb.History) != 0 {
		t.Fatalf("history = %v", rgb.History)
	}
}
