package timex

// TicksFromMs converts a millisecond interval into whole ticks of tickMs,
// never returning less than one tick.
func TicksFromMs(ms, tickMs uint32) uint16 {
	if tickMs == 0 {
		tickMs = 1
	}
	n := ms / tickMs
	if n == 0 {
		n = 1
	}
	if n > 0xFFFF {
		n = 0xFFFF
	}
	return uint16(n)
}
