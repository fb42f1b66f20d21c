package config

import (
	"testing"
	"time"

	"hai-firmware/bus"
	"hai-firmware/errcode"
	"hai-firmware/types"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if got := cfg.Battery.ResistorScale(); got != 4096 {
		t.Fatalf("ResistorScale = %d, want 4096", got)
	}
	if got := cfg.Ticks(cfg.Battery.PeriodMs); got != 100 {
		t.Fatalf("battery period = %d ticks, want 100", got)
	}
	if got := cfg.Ticks(cfg.Touch.IdlePeriodMs); got != 10 {
		t.Fatalf("idle scan = %d ticks, want 10", got)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"zero tick", func(c *Config) { c.TickMs = 0 }},
		{"min above max", func(c *Config) { c.Battery.MinMilliV = 3400 }},
		{"idle not multiple", func(c *Config) { c.Touch.IdlePeriodMs = 25; c.Touch.ActivePeriodMs = 10 }},
		{"tap window empty", func(c *Config) { c.Touch.TapMinTicks = 50 }},
		{"no slider", func(c *Config) { c.Touch.SliderMask = 0 }},
		{"wrist period", func(c *Config) { c.Touch.Wrist.PeriodMs = 150 }},
		{"minor", func(c *Config) { c.Firmware.Minor = 100 }},
		{"debug slot pid", func(c *Config) { c.DebugMux.Slot1 = PIDTestMux }},
		{"debug same pid", func(c *Config) { c.DebugMux.Slot1 = c.DebugMux.Slot0 }},
		{"debug channel", func(c *Config) { c.DebugMux.Signal0 = DebugChannels }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mut(&cfg)
			if err := cfg.Validate(); errcode.Of(err) != errcode.InvalidConfig {
				t.Fatalf("Validate = %v, want invalid_config", err)
			}
		})
	}
}

func TestLoadYAMLOverridesOnlyGivenKeys(t *testing.T) {
	raw := []byte(`
battery:
  min_mv: 2100
touch:
  wrist:
    enabled: false
`)
	cfg, err := LoadYAML(Defaults(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Battery.MinMilliV != 2100 || cfg.Battery.MaxMilliV != 3300 {
		t.Fatalf("battery = %+v", cfg.Battery)
	}
	if cfg.Touch.Wrist.Enabled || cfg.Touch.Wrist.PeriodMs != 1000 {
		t.Fatalf("wrist = %+v", cfg.Touch.Wrist)
	}
}

func TestLoadYAMLInvalidKeepsBase(t *testing.T) {
	base := Defaults()
	cfg, err := LoadYAML(base, []byte("battery:\n  min_mv: 5000\n"))
	if errcode.Of(err) != errcode.InvalidConfig {
		t.Fatalf("err = %v", err)
	}
	if cfg.Battery.MinMilliV != base.Battery.MinMilliV {
		t.Fatal("invalid override leaked into result")
	}
	if _, err := LoadYAML(base, []byte("battery: [")); errcode.Of(err) != errcode.InvalidConfig {
		t.Fatalf("syntax error = %v", err)
	}
}

func TestForDevice(t *testing.T) {
	old := EmbeddedConfigLookup
	t.Cleanup(func() { EmbeddedConfigLookup = old })

	cfg, err := ForDevice("rp2040")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BLE.Enabled || cfg.Touch.Wrist.Enabled {
		t.Fatalf("rp2040 override not applied: ble=%v wrist=%v", cfg.BLE.Enabled, cfg.Touch.Wrist.Enabled)
	}

	EmbeddedConfigLookup = func(string) ([]byte, bool) { return nil, false }
	cfg, err = ForDevice("unknown")
	if err != nil || !cfg.BLE.Enabled {
		t.Fatalf("unknown device: %v %+v", err, cfg.BLE)
	}
}

func TestFirmwareString(t *testing.T) {
	for _, tc := range []struct {
		fw   Firmware
		want string
	}{
		{Firmware{1, 0}, "v1.00"},
		{Firmware{2, 7}, "v2.07"},
		{Firmware{10, 42}, "v10.42"},
	} {
		if got := tc.fw.String(); got != tc.want {
			t.Errorf("%+v = %q, want %q", tc.fw, got, tc.want)
		}
	}
}

func TestPublishRetainedPerSection(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("config")
	Publish(conn, Defaults())

	sub := conn.Subscribe(bus.T(types.TopicConfig, "#"))
	got := map[string]any{}
	deadline := time.After(300 * time.Millisecond)
	for len(got) < 7 {
		select {
		case m := <-sub.Channel():
			key, _ := m.Topic[1].(string)
			got[key] = m.Payload
		case <-deadline:
			t.Fatalf("got %d sections: %v", len(got), got)
		}
	}
	if fw, _ := got["firmware"].(string); fw != "v1.00" {
		t.Fatalf("firmware = %#v", got["firmware"])
	}
	if bt, ok := got["battery"].(Battery); !ok || bt.MaxMilliV != 3300 {
		t.Fatalf("battery = %#v", got["battery"])
	}
}
