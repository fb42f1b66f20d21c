//go:build debugmux

package system

import (
	"testing"

	"hai-firmware/hal/sim"
	"hai-firmware/kernel"
	"hai-firmware/services/config"
)

type muxPins struct {
	writes [2]int
	seen   [2]uint8
}

func (m *muxPins) out(slot, bits uint8) {
	m.writes[slot]++
	m.seen[slot] |= bits
}

func TestDebugMuxRoutesLoopAndBLE(t *testing.T) {
	cfg := config.Defaults()
	b := sim.NewBoard(nil, cfg.TickMs)
	pins := &muxPins{}
	bd := boardOf(b)
	bd.MuxOut = pins.out
	sys, err := New(cfg, bd, nil)
	if err != nil {
		t.Fatal(err)
	}

	if pid, ok := sys.Mux.Routed(0); !ok || pid != config.PIDSystem {
		t.Fatalf("slot 0 = %d,%v", pid, ok)
	}
	if pid, ok := sys.Mux.Routed(1); !ok || pid != config.PIDBLE {
		t.Fatalf("slot 1 = %d,%v", pid, ok)
	}
	if got := sys.Mux.Signals(); got != 0x11 {
		t.Fatalf("hardware select = %#x, want 0x11", got)
	}

	for i := 0; i < 50; i++ {
		b.Tick()
		sys.Loop.Iterate()
	}
	if pins.writes[0] == 0 || pins.writes[1] == 0 {
		t.Fatalf("writes = %v", pins.writes)
	}
	if pins.seen[0]&(kernel.TraceTick|kernel.TraceDispatch) != kernel.TraceTick|kernel.TraceDispatch {
		t.Fatalf("system bits seen = %#x", pins.seen[0])
	}
	if es := sys.Log.Entries(); len(es) != 0 {
		t.Fatalf("log = %+v", es)
	}
}

func TestDebugMuxBadRoutingLogged(t *testing.T) {
	cfg := config.Defaults()
	// Valid config, but nothing registers pid 9.
	cfg.DebugMux.Slot1 = 9
	sys, err := New(cfg, boardOf(sim.NewBoard(nil, cfg.TickMs)), nil)
	if err != nil {
		t.Fatal(err)
	}
	es := sys.Log.Entries()
	var n int
	for _, e := range es {
		if e.PID == config.PIDSystem && e.Code == ErrSwitchFirmwareMux {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("log = %+v", es)
	}
	if _, ok := sys.Mux.Routed(1); ok {
		t.Fatal("slot 1 routed to unregistered pid")
	}
}
