package config

// Per-device overrides, keyed by the name the board reports.

// The nRF SAADC reads the divider against 0.6 V with 1/6 gain.
const cfgNRF52840 = `
ble:
  device_name: HAI-nRF
battery:
  vref_mv: 3600
`

// The rp2040 board has no radio and no wrist electrodes.
const cfgRP2040 = `
ble:
  enabled: false
touch:
  wrist:
    enabled: false
`

const cfgSim = `
touch:
  wrist:
    threshold: 150
`

var embeddedConfigs = map[string][]byte{
	"nrf52840": []byte(cfgNRF52840),
	"rp2040":   []byte(cfgRP2040),
	"sim":      []byte(cfgSim),
}
