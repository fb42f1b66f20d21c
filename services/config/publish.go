package config

import (
	"hai-firmware/bus"
	"hai-firmware/types"
)

// Publish posts each section of cfg as a retained message on
// config/<section> so monitors see the active table.
func Publish(conn *bus.Connection, cfg Config) {
	sections := []struct {
		key string
		val any
	}{
		{"tick_ms", cfg.TickMs},
		{"enable_sleep", cfg.EnableSleep},
		{"firmware", cfg.Firmware.String()},
		{"battery", cfg.Battery},
		{"touch", cfg.Touch},
		{"led", cfg.LED},
		{"ble", cfg.BLE},
	}
	for _, s := range sections {
		conn.Publish(conn.NewMessage(bus.T(types.TopicConfig, s.key), s.val, true))
	}
}
