package main

import (
	"errors"
	"sort"

	"gopkg.in/yaml.v3"

	"hai-firmware/hal"
	"hai-firmware/hal/sim"
	"hai-firmware/services/config"
)

// Scenario scripts the simulated board: a config override plus inputs that
// change at given ticks.
type Scenario struct {
	Ticks  uint32    `yaml:"ticks"`
	Device string    `yaml:"device"`
	Config yaml.Node `yaml:"config"`
	Events []Event   `yaml:"events"`
}

// Event is applied before the tick At fires. Zero-valued fields are left
// alone.
type Event struct {
	At        uint32     `yaml:"at"`
	Touch     *sim.Frame `yaml:"touch"`
	Release   bool       `yaml:"release"`
	BatteryMv int32      `yaml:"battery_mv"`
	Wrist     *Wrist     `yaml:"wrist"`
	// Radio is one of connect, disconnect, subscribe, unsubscribe, fail,
	// active, ready, transitioning.
	Radio string `yaml:"radio"`
	Char  string `yaml:"char"`
}

type Wrist struct {
	High uint16 `yaml:"high"`
	Low  uint16 `yaml:"low"`
}

const defaultScenario = `
ticks: 3000
device: sim
events:
  - {at: 0, battery_mv: 3100, wrist: {high: 300, low: 260}}
  - {at: 5, radio: connect}
  - {at: 6, radio: subscribe, char: battery_level}
  - {at: 6, radio: subscribe, char: touch_centroid}
  - {at: 200, touch: {centroid: 40, mask: 1}}
  - {at: 230, release: true}
  - {at: 400, touch: {centroid: 5, mask: 1}}
  - {at: 410, touch: {centroid: 25, mask: 3}}
  - {at: 420, touch: {centroid: 50, mask: 6}}
  - {at: 430, release: true}
  - {at: 800, touch: {centroid: 0xFF, mask: 15}}
  - {at: 1100, release: true}
  - {at: 1500, battery_mv: 2300}
  - {at: 1600, radio: transitioning}
  - {at: 1610, radio: ready}
  - {at: 2000, radio: disconnect}
  - {at: 2500, radio: connect}
  - {at: 2501, radio: subscribe, char: battery_level}
`

var errBadEvent = errors.New("scenario: bad event")

// LoadScenario parses raw and sorts its events by tick.
func LoadScenario(raw []byte) (*Scenario, error) {
	sc := &Scenario{Ticks: 1000, Device: "sim"}
	if err := yaml.Unmarshal(raw, sc); err != nil {
		return nil, err
	}
	for _, e := range sc.Events {
		if e.Radio != "" && !knownRadio(e.Radio) {
			return nil, errors.Join(errBadEvent, errors.New("unknown radio action "+e.Radio))
		}
		if (e.Radio == "subscribe" || e.Radio == "unsubscribe") && !knownChar(e.Char) {
			return nil, errors.Join(errBadEvent, errors.New("unknown characteristic "+e.Char))
		}
	}
	sort.SliceStable(sc.Events, func(i, j int) bool { return sc.Events[i].At < sc.Events[j].At })
	return sc, nil
}

// Build resolves the device override and then the scenario's own config
// section on top of it.
func (sc *Scenario) Build() (config.Config, error) {
	cfg, err := config.ForDevice(sc.Device)
	if err != nil {
		return cfg, err
	}
	if sc.Config.Kind == 0 {
		return cfg, nil
	}
	raw, err := yaml.Marshal(&sc.Config)
	if err != nil {
		return cfg, err
	}
	return config.LoadYAML(cfg, raw)
}

func knownRadio(s string) bool {
	switch s {
	case "connect", "disconnect", "subscribe", "unsubscribe", "fail",
		"active", "ready", "transitioning":
		return true
	}
	return false
}

func parseChar(s string) (hal.Characteristic, bool) {
	for _, c := range []hal.Characteristic{hal.CharBatteryLevel, hal.CharTouchCentroid} {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

func knownChar(s string) bool {
	_, ok := parseChar(s)
	return ok
}

// apply sets the board inputs for e.
func apply(e Event, b *sim.Board, cfg config.Config) {
	if e.Touch != nil {
		b.Cap.SetFrame(*e.Touch)
	}
	if e.Release {
		b.Cap.SetFrame(sim.Idle)
	}
	if e.BatteryMv > 0 {
		b.ADC.SetMilliV(e.BatteryMv, cfg.Battery.ResistorScale())
	}
	if e.Wrist != nil {
		b.Cap.SetRaw(hal.SensorID(cfg.Touch.Wrist.High), e.Wrist.High)
		b.Cap.SetRaw(hal.SensorID(cfg.Touch.Wrist.Low), e.Wrist.Low)
	}
	switch e.Radio {
	case "connect":
		b.Radio.Connect()
	case "disconnect":
		b.Radio.Disconnect()
	case "subscribe", "unsubscribe":
		c, _ := parseChar(e.Char)
		b.Radio.Subscribe(c, e.Radio == "subscribe")
	case "fail":
		b.Radio.FailNotifies(1)
	case "active":
		b.Radio.SetLowPowerState(hal.RadioActive)
	case "ready":
		b.Radio.SetLowPowerState(hal.RadioDeepSleepReady)
	case "transitioning":
		b.Radio.SetLowPowerState(hal.RadioTransitioning)
	}
}
