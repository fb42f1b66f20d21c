package kernel

// Mutex guards a shared peripheral between processes. It never blocks:
// callers poll TryLock once per activation and wait in their own state.
type Mutex struct {
	crit   Critical
	locked bool
	owner  ID
}

// NewMutex returns an unlocked mutex guarded by crit.
func NewMutex(crit Critical) *Mutex {
	if crit == nil {
		crit = &LockCritical{}
	}
	return &Mutex{crit: crit}
}

// TryLock takes the mutex for id if it is free.
func (m *Mutex) TryLock(id ID) bool {
	st := m.crit.Disable()
	ok := !m.locked
	if ok {
		m.locked = true
		m.owner = id
	}
	m.crit.Restore(st)
	return ok
}

// Unlock releases the mutex regardless of owner.
func (m *Mutex) Unlock() {
	st := m.crit.Disable()
	m.locked = false
	m.crit.Restore(st)
}

// Release unlocks only if id holds the mutex. Fault hooks use it.
func (m *Mutex) Release(id ID) bool {
	st := m.crit.Disable()
	ok := m.locked && m.owner == id
	if ok {
		m.locked = false
	}
	m.crit.Restore(st)
	return ok
}

func (m *Mutex) Locked() bool {
	st := m.crit.Disable()
	l := m.locked
	m.crit.Restore(st)
	return l
}

// Owner returns the holder, if any.
func (m *Mutex) Owner() (ID, bool) {
	st := m.crit.Disable()
	id, l := m.owner, m.locked
	m.crit.Restore(st)
	return id, l
}
