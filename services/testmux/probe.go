// Package testmux routes per-process debug bits to two output slots and
// selects the hardware debug mux channels. Without the debugmux build tag
// every call is a no-op with the same API.
package testmux

import (
	"hai-firmware/errlog"
	"hai-firmware/services/config"
)

// Error-log codes recorded under config.PIDTestMux.
const (
	ErrOutOfRange errlog.Code = errlog.FirstLocal + iota
	ErrAlreadyRegistered
	ErrNotRegistered
	ErrAlreadyAssigned
	ErrChannelOutOfRange
)

const (
	// Slots is the number of firmware debug outputs.
	Slots = 2
	// Channels is the number of hardware mux inputs per slot.
	Channels = config.DebugChannels

	maxProbes = config.MaxProcesses + 1
)

// Output receives the routed probe's bits whenever they change.
type Output func(slot uint8, bits uint8)

// Probe is one process's debug byte. A nil *Probe is valid and discards
// everything.
type Probe struct {
	pid    uint8
	bits   uint8
	routed bool
	slot   uint8
	out    Output
}

func (p *Probe) Set(mask uint8) {
	if p == nil {
		return
	}
	p.bits |= mask
	p.emit()
}

func (p *Probe) Clear(mask uint8) {
	if p == nil {
		return
	}
	p.bits &^= mask
	p.emit()
}

func (p *Probe) Bits() uint8 {
	if p == nil {
		return 0
	}
	return p.bits
}

func (p *Probe) emit() {
	if p.routed && p.out != nil {
		p.out(p.slot, p.bits)
	}
}

func validPID(pid uint8) bool {
	return pid < config.MaxProcesses || pid == config.PIDSystem
}
