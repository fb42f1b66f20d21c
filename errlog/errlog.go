// Package errlog is the postmortem error log: a fixed-capacity, append-only
// array of (process id, code) pairs. Once full, further errors are dropped so
// the earliest failures survive.
package errlog

import (
	"io"
	"sync"

	"hai-firmware/x/conv"
)

// Capacity is the number of entries the log retains.
const Capacity = 128

// Code is a process-local error number.
type Code uint8

// Codes shared by every process. Process-specific codes start at FirstLocal.
const (
	DefaultState    Code = 0
	RegisterTestMux Code = 1
	FirstLocal      Code = 2
)

// Entry is one logged failure.
type Entry struct {
	PID  uint8
	Code Code
}

// Log is safe to call from any context; the critical section is tiny.
type Log struct {
	mu      sync.Mutex
	entries [Capacity]Entry
	n       int
	dropped uint32
	onLog   func(Entry)
}

// New returns an empty log.
func New() *Log { return &Log{} }

// OnLog installs an observer called after each retained entry (debug pin,
// telemetry). It must not call back into the log.
func (l *Log) OnLog(fn func(Entry)) {
	l.mu.Lock()
	l.onLog = fn
	l.mu.Unlock()
}

// Log records (pid, code). It reports false when the entry was dropped.
func (l *Log) Log(pid uint8, code Code) bool {
	l.mu.Lock()
	if l.n >= Capacity {
		l.dropped++
		l.mu.Unlock()
		return false
	}
	e := Entry{PID: pid, Code: code}
	l.entries[l.n] = e
	l.n++
	fn := l.onLog
	l.mu.Unlock()

	println("[errlog] pid", pid, "code", uint8(code))
	if fn != nil {
		fn(e)
	}
	return true
}

// Count returns the number of retained entries.
func (l *Log) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

// Dropped returns how many entries arrived after the log filled.
func (l *Log) Dropped() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Entries copies the retained entries in arrival order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, l.n)
	copy(out, l.entries[:l.n])
	return out
}

// Clear empties the log.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = [Capacity]Entry{}
	l.n = 0
	l.dropped = 0
	l.mu.Unlock()
}

// Dump writes one "pid:code" line per entry followed by a count trailer.
func (l *Log) Dump(w io.Writer) error {
	entries := l.Entries()
	buf := make([]byte, 0, 16)
	for _, e := range entries {
		buf = conv.AppendUint(buf[:0], uint64(e.PID))
		buf = append(buf, ':')
		buf = conv.AppendUint(buf, uint64(e.Code))
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	buf = append(buf[:0], "count="...)
	buf = conv.AppendUint(buf, uint64(len(entries)))
	buf = append(buf, " dropped="...)
	buf = conv.AppendUint(buf, uint64(l.Dropped()))
	buf = append(buf, '\n')
	_, err := w.Write(buf)
	return err
}
