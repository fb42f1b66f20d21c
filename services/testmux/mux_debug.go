//go:build debugmux

package testmux

import (
	"hai-firmware/errcode"
	"hai-firmware/errlog"
	"hai-firmware/services/config"
)

const Enabled = true

type Mux struct {
	log    *errlog.Log
	out    Output
	probes [maxProbes]*Probe
	slots  [Slots]*Probe
	// hw holds slot 0's channel in the low nibble and slot 1's in the high.
	hw uint8
}

// New returns a mux logging failures to log and writing routed bits to out.
func New(log *errlog.Log, out Output) *Mux {
	return &Mux{log: log, out: out}
}

func (m *Mux) fail(code errlog.Code, c errcode.Code, op string) error {
	if m.log != nil {
		m.log.Log(config.PIDTestMux, code)
	}
	return errcode.Wrap(c, op, "")
}

func probeIndex(pid uint8) int {
	if pid == config.PIDSystem {
		return config.MaxProcesses
	}
	return int(pid)
}

// Register hands pid its probe. Each pid registers once.
func (m *Mux) Register(pid uint8) (*Probe, error) {
	if !validPID(pid) {
		return nil, m.fail(ErrOutOfRange, errcode.UnknownProcess, "testmux.Register")
	}
	i := probeIndex(pid)
	if m.probes[i] != nil {
		return nil, m.fail(ErrAlreadyRegistered, errcode.AlreadyRegistered, "testmux.Register")
	}
	p := &Probe{pid: pid, out: m.out}
	m.probes[i] = p
	return p, nil
}

// Select routes pid's probe to slot, unrouting whatever was there.
func (m *Mux) Select(slot uint8, pid uint8) error {
	if !validPID(pid) || slot >= Slots {
		return m.fail(ErrOutOfRange, errcode.UnknownProcess, "testmux.Select")
	}
	p := m.probes[probeIndex(pid)]
	if p == nil {
		return m.fail(ErrNotRegistered, errcode.NotRegistered, "testmux.Select")
	}
	if p.routed {
		return m.fail(ErrAlreadyAssigned, errcode.AlreadyAssigned, "testmux.Select")
	}
	if prev := m.slots[slot]; prev != nil {
		prev.routed = false
	}
	p.routed = true
	p.slot = slot
	m.slots[slot] = p
	p.emit()
	return nil
}

// SelectSignal points slot's hardware mux at channel ch.
func (m *Mux) SelectSignal(slot uint8, ch uint8) error {
	if ch >= Channels || slot >= Slots {
		return m.fail(ErrChannelOutOfRange, errcode.ChannelOutOfRange, "testmux.SelectSignal")
	}
	shift := 4 * slot
	m.hw = m.hw&^(0x0F<<shift) | ch<<shift
	return nil
}

// Signals is the hardware mux select register.
func (m *Mux) Signals() uint8 { return m.hw }

// Routed returns the pid whose probe drives slot.
func (m *Mux) Routed(slot uint8) (uint8, bool) {
	if slot >= Slots || m.slots[slot] == nil {
		return 0, false
	}
	return m.slots[slot].pid, true
}
