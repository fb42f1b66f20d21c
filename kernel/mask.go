// Package kernel is the cooperative scheduler: a bit-mask work queue driven by
// a periodic tick, per-process state machines stepped to completion, veto
// masks consulted by the power arbitrator, and the ADC mutex.
package kernel

// MaxProcesses bounds the process table; one bit per process in every Mask.
const MaxProcesses = 32

// ID identifies a process. It is the bit position in every scheduler mask.
type ID uint8

// Mask is a set of process bits.
type Mask uint32

// Bit returns the mask with only id set.
func Bit(id ID) Mask { return Mask(1) << id }

// Has reports whether id is in m.
func (m Mask) Has(id ID) bool { return m&Bit(id) != 0 }

// With returns m with id set.
func (m Mask) With(id ID) Mask { return m | Bit(id) }

// Without returns m with id cleared.
func (m Mask) Without(id ID) Mask { return m &^ Bit(id) }

// Masks is a point-in-time copy of the four scheduler bit-sets.
type Masks struct {
	Active        Mask
	NextTick      Mask
	SleepVeto     Mask
	DeepSleepVeto Mask
}
