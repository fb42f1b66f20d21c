package types

// ------------------------
// Telemetry payloads (published on the bus by the system and the simulator)
// ------------------------

// Topic roots.
const (
	TopicPower  = "power"
	TopicBLE    = "ble"
	TopicProc   = "proc"
	TopicErrlog = "errlog"
	TopicConfig = "config"
	TopicLED    = "led"
	TopicBatt   = "battery"
	TopicTouch  = "touch"
)

// PowerEvent is one arbitration outcome.
type PowerEvent struct {
	Decision string `json:"decision"`
	Radio    string `json:"radio"`
	TS       uint32 `json:"ts_ms"`
}

// Notification is one value sent to the connected central.
type Notification struct {
	Char string `json:"char"`
	Data []byte `json:"data"`
	TS   uint32 `json:"ts_ms"`
}

// ProcFault is published when a process trips its fault path.
type ProcFault struct {
	PID   uint8  `json:"pid"`
	Name  string `json:"name"`
	Count uint32 `json:"count"`
}

// GestureEvent is published whenever the touch classifier produces a
// gesture.
type GestureEvent struct {
	Gesture  string `json:"gesture"`
	Centroid uint8  `json:"centroid"`
	TS       uint32 `json:"ts_ms"`
}

// Color is an indicator setting.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// SchedState is a copy of the scheduler's bit masks, one bit per process.
type SchedState struct {
	Active        uint32 `json:"active"`
	NextTick      uint32 `json:"next_tick"`
	SleepVeto     uint32 `json:"sleep_veto"`
	DeepSleepVeto uint32 `json:"deep_sleep_veto"`
}
