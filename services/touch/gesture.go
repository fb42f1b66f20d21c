package touch

import (
	"hai-firmware/services/config"
	"hai-firmware/types"
	"hai-firmware/x/mathx"
)

// gestureContext turns one completed scan at a time into slider gestures.
// Gestures are one-scan events except LargeObject, which stays latched until
// every electrode is idle.
type gestureContext struct {
	cfg          config.Touch
	activePeriod uint16
	idlePeriod   uint16

	gesture  types.Gesture
	seq      uint32
	centroid uint8
	period   uint16

	largeCount uint8
	touchDown  bool
	start      uint8
	last       uint8
	duration   uint16

	// Last release, kept for telemetry.
	distance  uint8
	rightward bool
	velocity  uint8
}

func newGestureContext(cfg config.Touch, activePeriod, idlePeriod uint16) *gestureContext {
	return &gestureContext{
		cfg:          cfg,
		activePeriod: activePeriod,
		idlePeriod:   idlePeriod,
		centroid:     types.NoTouch,
		period:       idlePeriod,
	}
}

// classify consumes one scan: the active-electrode mask and the slider
// centroid (types.NoTouch when none).
func (g *gestureContext) classify(mask, centroid uint8) {
	slider := mask & g.cfg.SliderMask

	if g.gesture != types.LargeObject {
		g.gesture = types.NoGesture
	}

	if slider == g.cfg.SliderMask {
		g.largeCount++
		if g.largeCount >= g.cfg.LargeObjectDebounce {
			if g.gesture != types.LargeObject {
				g.seq++
			}
			g.gesture = types.LargeObject
			g.largeCount = 0
		}
	} else {
		g.largeCount = 0
	}
	if slider == 0 {
		g.gesture = types.NoGesture
	}

	if g.gesture == types.LargeObject {
		g.centroid = types.NoTouch
		g.distance, g.velocity, g.rightward = 0, 0, false
		g.duration = 0
		return
	}

	g.centroid = centroid
	if slider != 0 {
		if centroid != types.NoTouch {
			g.last = centroid
		}
		if !g.touchDown && centroid != types.NoTouch {
			g.start = g.last
			g.touchDown = true
			g.period = g.activePeriod
		}
		if g.duration < 0xFFFF {
			g.duration++
		}
		return
	}

	if g.touchDown {
		g.touchDown = false
		g.period = g.idlePeriod
		g.release(g.last)
	}
	g.duration = 0
}

func (g *gestureContext) release(end uint8) {
	g.distance = mathx.AbsDiff(end, g.start)
	g.rightward = end > g.start
	g.velocity = 0
	if g.duration > 0 {
		g.velocity = uint8(uint16(g.distance) / g.duration)
	}

	c := g.cfg
	switch {
	case g.distance > c.SwipeMinDistance && mathx.Between(g.duration, c.SwipeMinTicks, c.SwipeMaxTicks):
		if g.rightward {
			g.gesture = types.SwipeRight
		} else {
			g.gesture = types.SwipeLeft
		}
	case g.distance < c.TapMaxDistance && mathx.Between(g.duration, c.TapMinTicks, c.TapMaxTicks):
		g.gesture = types.Tap
	default:
		g.gesture = types.NoGesture
	}
	if g.gesture != types.NoGesture {
		g.seq++
	}
}
