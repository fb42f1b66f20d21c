package types

// ------------------------
// Process results (single writer, single reader)
// ------------------------

// BatteryResult is written by the battery process and consumed by BLE.
type BatteryResult struct {
	Level     uint8 `json:"level"` // percent, 0..100
	MilliV    int32 `json:"mV"`
	Raw       int32 `json:"raw"`
	DataReady bool  `json:"-"`
}

// NoTouch is the centroid reported while nothing touches the slider.
const NoTouch uint8 = 0xFF

type Gesture uint8

const (
	NoGesture   Gesture = 0x00
	Tap         Gesture = 0x01
	SwipeLeft   Gesture = 0x02
	SwipeRight  Gesture = 0x03
	LargeObject Gesture = 0xFF
)

func (g Gesture) String() string {
	switch g {
	case NoGesture:
		return "none"
	case Tap:
		return "tap"
	case SwipeLeft:
		return "swipe_left"
	case SwipeRight:
		return "swipe_right"
	case LargeObject:
		return "large_object"
	}
	return "unknown"
}

// TouchResult is written by the touch process once per completed scan.
type TouchResult struct {
	Centroid  uint8   `json:"centroid"`
	Gesture   Gesture `json:"gesture"`
	DataReady bool    `json:"-"`
}

// WristResult is the outcome of the slower wrist-presence scan.
type WristResult struct {
	High    uint16 `json:"high"`
	Low     uint16 `json:"low"`
	Present bool   `json:"present"`
}
