// Package led lights the indicator for each new gesture and turns it off
// after a fixed on-time.
package led

import (
	"hai-firmware/errlog"
	"hai-firmware/hal"
	"hai-firmware/kernel"
	"hai-firmware/services/config"
	"hai-firmware/services/testmux"
	"hai-firmware/types"
	"hai-firmware/x/timex"
)

type State uint8

const Update State = 0

const dbgEnter uint8 = 0x01

// GestureSource reports the current gesture and a counter that advances
// with each new one.
type GestureSource interface {
	Gesture() (types.Gesture, uint32)
}

var (
	off   = types.Color{}
	blue  = types.Color{B: 0xFF}
	green = types.Color{G: 0xFF}
	red   = types.Color{R: 0xFF}
	white = types.Color{R: 0xFF, G: 0xFF, B: 0xFF}
)

// ColorFor maps a gesture to its indicator colour.
func ColorFor(g types.Gesture) (types.Color, bool) {
	switch g {
	case types.Tap:
		return blue, true
	case types.SwipeLeft:
		return green, true
	case types.SwipeRight:
		return red, true
	case types.LargeObject:
		return white, true
	}
	return off, false
}

type Process struct {
	proc  *kernel.Proc[State]
	rgb   hal.RGB
	src   GestureSource
	probe *testmux.Probe

	// onRuns is the on-time counted in LED activations.
	onRuns uint16
	left   uint16
	seq    uint32
	color  types.Color
}

func New(cfg config.Config, rgb hal.RGB, src GestureSource) *Process {
	l := &Process{
		rgb:    rgb,
		src:    src,
		onRuns: timex.TicksFromMs(cfg.LED.OnTimeMs, cfg.LED.PeriodMs),
	}
	l.proc = kernel.NewProc[State](kernel.Config{
		ID:      kernel.ID(config.PIDLED),
		Name:    "led",
		Enabled: cfg.LED.Enabled,
		Period:  cfg.Ticks(cfg.LED.PeriodMs),
	}, Update, l)
	l.proc.OnFault(func() { l.set(off) })
	return l
}

func (l *Process) Proc() *kernel.Proc[State] { return l.proc }

func (l *Process) Init(m *testmux.Mux) {
	p, err := m.Register(config.PIDLED)
	if err != nil {
		l.proc.Log(errlog.RegisterTestMux)
		return
	}
	l.probe = p
}

func (l *Process) Color() types.Color { return l.color }

func (l *Process) Step(p *kernel.Proc[State]) (State, kernel.Action) {
	l.probe.Set(dbgEnter)
	defer l.probe.Clear(dbgEnter)

	switch p.State() {
	case Update:
		g, seq := l.src.Gesture()
		if seq != l.seq || g == types.LargeObject {
			l.seq = seq
			if c, ok := ColorFor(g); ok {
				l.set(c)
				l.left = l.onRuns
			}
		}
		if l.left > 0 {
			l.left--
			if l.left == 0 {
				l.set(off)
			}
		}
		return Update, kernel.Done()
	}
	return p.Fault()
}

func (l *Process) set(c types.Color) {
	if c == l.color {
		return
	}
	l.color = c
	l.rgb.SetColor(c.R, c.G, c.B)
}
