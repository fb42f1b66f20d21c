// Package config holds the build-time process table and tuning constants.
// Boards and the simulator start from Defaults, may layer a YAML override on
// top, and must pass Validate before the system is built.
package config

import (
	"hai-firmware/errcode"
	"hai-firmware/x/conv"
	"hai-firmware/x/timex"

	"gopkg.in/yaml.v3"
)

// Process IDs. The table order below is also the dispatch order.
const (
	PIDBattery uint8 = 0
	PIDBLE     uint8 = 1
	PIDLED     uint8 = 2
	PIDTouch   uint8 = 3

	// MaxProcesses is the width of the scheduler masks.
	MaxProcesses = 32

	// PIDSystem and PIDTestMux tag error-log entries and debug probes that
	// belong to no scheduled process.
	PIDSystem  uint8 = MaxProcesses
	PIDTestMux uint8 = MaxProcesses + 1
)

type Config struct {
	TickMs      uint32   `yaml:"tick_ms"`
	EnableSleep bool     `yaml:"enable_sleep"`
	Firmware    Firmware `yaml:"firmware"`
	Battery     Battery  `yaml:"battery"`
	Touch       Touch    `yaml:"touch"`
	LED         LED      `yaml:"led"`
	BLE         BLE      `yaml:"ble"`
	DebugMux    DebugMux `yaml:"debug_mux"`
}

type Firmware struct {
	Major uint8 `yaml:"major"`
	Minor uint8 `yaml:"minor"`
}

// String renders "vM.mm".
func (f Firmware) String() string {
	b := make([]byte, 0, 8)
	b = append(b, 'v')
	b = conv.AppendUint(b, uint64(f.Major))
	b = append(b, '.')
	if f.Minor < 10 {
		b = append(b, '0')
	}
	b = conv.AppendUint(b, uint64(f.Minor))
	return string(b)
}

type Battery struct {
	Enabled     bool   `yaml:"enabled"`
	PeriodMs    uint32 `yaml:"period_ms"`
	SettleTicks uint16 `yaml:"settle_ticks"`
	Channel     uint8  `yaml:"channel"`
	VRefMilliV  int32  `yaml:"vref_mv"`
	RTopOhm     int32  `yaml:"r_top_ohm"`
	RBottomOhm  int32  `yaml:"r_bottom_ohm"`
	MinMilliV   int32  `yaml:"min_mv"`
	MaxMilliV   int32  `yaml:"max_mv"`
}

// ResistorScale is the battery voltage, in mV, that reads full scale
// through the divider.
func (b Battery) ResistorScale() int32 {
	return b.VRefMilliV * (b.RTopOhm + b.RBottomOhm) / b.RBottomOhm
}

type Touch struct {
	Enabled        bool   `yaml:"enabled"`
	ActivePeriodMs uint32 `yaml:"active_period_ms"`
	IdlePeriodMs   uint32 `yaml:"idle_period_ms"`

	TapMinTicks      uint16 `yaml:"tap_min_ticks"`
	TapMaxTicks      uint16 `yaml:"tap_max_ticks"`
	TapMaxDistance   uint8  `yaml:"tap_max_distance"`
	SwipeMinTicks    uint16 `yaml:"swipe_min_ticks"`
	SwipeMaxTicks    uint16 `yaml:"swipe_max_ticks"`
	SwipeMinDistance uint8  `yaml:"swipe_min_distance"`

	LargeObjectDebounce uint8 `yaml:"large_object_debounce"`
	SliderMask          uint8 `yaml:"slider_mask"`

	Wrist Wrist `yaml:"wrist"`
}

// Wrist is the slower presence scan run between slider scans.
type Wrist struct {
	Enabled   bool   `yaml:"enabled"`
	PeriodMs  uint32 `yaml:"period_ms"`
	High      uint8  `yaml:"high_sensor"`
	Low       uint8  `yaml:"low_sensor"`
	Threshold uint16 `yaml:"threshold"`
}

type LED struct {
	Enabled  bool   `yaml:"enabled"`
	PeriodMs uint32 `yaml:"period_ms"`
	OnTimeMs uint32 `yaml:"on_time_ms"`
}

type BLE struct {
	Enabled    bool   `yaml:"enabled"`
	DeviceName string `yaml:"device_name"`
}

// DebugMux picks which probes drive the two debug outputs and which
// hardware mux channel each output is switched to. It only takes effect in
// debugmux builds.
type DebugMux struct {
	Slot0   uint8 `yaml:"slot0_pid"`
	Slot1   uint8 `yaml:"slot1_pid"`
	Signal0 uint8 `yaml:"signal0"`
	Signal1 uint8 `yaml:"signal1"`
}

// DebugChannels is the number of hardware debug mux inputs per output.
const DebugChannels = 16

func debugPID(pid uint8) bool { return pid < MaxProcesses || pid == PIDSystem }

// Defaults is the production table.
func Defaults() Config {
	return Config{
		TickMs:      10,
		EnableSleep: true,
		Firmware:    Firmware{Major: 1, Minor: 0},
		Battery: Battery{
			Enabled:     true,
			PeriodMs:    1000,
			SettleTicks: 1,
			Channel:     0,
			VRefMilliV:  1024,
			RTopOhm:     30000,
			RBottomOhm:  10000,
			MinMilliV:   2000,
			MaxMilliV:   3300,
		},
		Touch: Touch{
			Enabled:             true,
			ActivePeriodMs:      10,
			IdlePeriodMs:        100,
			TapMinTicks:         1,
			TapMaxTicks:         50,
			TapMaxDistance:      15,
			SwipeMinTicks:       1,
			SwipeMaxTicks:       50,
			SwipeMinDistance:    30,
			LargeObjectDebounce: 10,
			SliderMask:          0x0F,
			Wrist: Wrist{
				Enabled:   true,
				PeriodMs:  1000,
				High:      5,
				Low:       6,
				Threshold: 200,
			},
		},
		LED: LED{
			Enabled:  true,
			PeriodMs: 10,
			OnTimeMs: 1000,
		},
		BLE: BLE{
			Enabled:    true,
			DeviceName: "HAI",
		},
		DebugMux: DebugMux{
			Slot0:   PIDSystem,
			Slot1:   PIDBLE,
			Signal0: 1,
			Signal1: 1,
		},
	}
}

// Ticks converts a period in milliseconds to scheduler ticks.
func (c Config) Ticks(ms uint32) uint16 { return timex.TicksFromMs(ms, c.TickMs) }

func invalid(msg string) error {
	return &errcode.E{C: errcode.InvalidConfig, Op: "config.Validate", Msg: msg}
}

// Validate checks the relations the kernel and processes rely on.
func (c Config) Validate() error {
	switch {
	case c.TickMs == 0:
		return invalid("tick_ms must be > 0")
	case c.Battery.PeriodMs < c.TickMs:
		return invalid("battery period shorter than a tick")
	case c.Battery.RBottomOhm <= 0 || c.Battery.RTopOhm < 0:
		return invalid("battery divider resistors")
	case c.Battery.VRefMilliV <= 0:
		return invalid("battery vref_mv must be > 0")
	case c.Battery.MinMilliV >= c.Battery.MaxMilliV:
		return invalid("battery min_mv must be below max_mv")
	case c.Touch.ActivePeriodMs < c.TickMs || c.Touch.IdlePeriodMs < c.TickMs:
		return invalid("touch scan periods shorter than a tick")
	case c.Touch.IdlePeriodMs%c.Touch.ActivePeriodMs != 0:
		return invalid("touch idle period must be a multiple of the active period")
	case c.Touch.TapMinTicks >= c.Touch.TapMaxTicks:
		return invalid("touch tap tick window empty")
	case c.Touch.SwipeMinTicks >= c.Touch.SwipeMaxTicks:
		return invalid("touch swipe tick window empty")
	case c.Touch.SliderMask == 0:
		return invalid("touch slider_mask empty")
	case c.Touch.LargeObjectDebounce == 0:
		return invalid("touch large_object_debounce must be > 0")
	case c.Touch.Wrist.Enabled && c.Touch.Wrist.PeriodMs%c.Touch.IdlePeriodMs != 0:
		return invalid("wrist period must be a multiple of the idle scan period")
	case c.LED.PeriodMs < c.TickMs:
		return invalid("led period shorter than a tick")
	case c.Firmware.Minor > 99:
		return invalid("firmware minor must be < 100")
	case !debugPID(c.DebugMux.Slot0) || !debugPID(c.DebugMux.Slot1):
		return invalid("debug_mux slot pid out of range")
	case c.DebugMux.Slot0 == c.DebugMux.Slot1:
		return invalid("debug_mux slots must name different pids")
	case c.DebugMux.Signal0 >= DebugChannels || c.DebugMux.Signal1 >= DebugChannels:
		return invalid("debug_mux signal channel out of range")
	}
	return nil
}

// LoadYAML applies a YAML override on top of base and validates the result.
// Keys absent from raw keep their base value.
func LoadYAML(base Config, raw []byte) (Config, error) {
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, &errcode.E{C: errcode.InvalidConfig, Op: "config.LoadYAML", Msg: err.Error(), Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// EmbeddedConfigLookup resolves the override compiled in for a device.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// ForDevice returns the defaults with the device's embedded override, if
// any, applied.
func ForDevice(device string) (Config, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		cfg := Defaults()
		return cfg, cfg.Validate()
	}
	return LoadYAML(Defaults(), raw)
}
