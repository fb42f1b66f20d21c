//go:build tinygo

package main

import (
	"context"
	"time"

	"hai-firmware/hal/board"
	"hai-firmware/services/config"
	"hai-firmware/services/system"
)

// Error-log dumps go to the console this often when the log has grown.
const dumpEvery = 10 * time.Second

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	cfg, err := config.ForDevice(board.Device)
	if err != nil {
		println("[main] config:", err.Error(), "- using defaults")
		cfg = config.Defaults()
	}

	b, err := board.New(cfg.BLE.DeviceName, cfg.TickMs)
	if err != nil {
		println("[main] board:", err.Error())
		cfg.BLE.Enabled = false
		b, err = board.New("", cfg.TickMs)
		if err != nil {
			halt(err)
		}
	}

	sys, err := system.New(cfg, system.Board{
		Wake:   b.Wake,
		Crit:   b.Crit,
		Clock:  b.Ticker.Timestamp,
		Radio:  b.Radio,
		Cap:    b.Cap,
		ADC:    b.ADC,
		CPU:    b.CPU,
		Switch: b.Switch,
		RGB:    b.RGB,
		MuxOut: b.MuxOut,
	}, nil)
	if err != nil {
		halt(err)
	}

	ctx := context.Background()
	go b.Ticker.Run(ctx)
	go dumpLog(sys, b)

	if err := sys.Run(ctx); err != nil {
		halt(err)
	}
}

// dumpLog writes the error log to the console whenever it has grown.
func dumpLog(sys *system.System, b *board.Board) {
	if b.Console == nil {
		return
	}
	last := -1
	for {
		if n := sys.Log.Count(); n != last {
			last = n
			if err := sys.Log.Dump(b.Console); err != nil {
				println("[main] dump:", err.Error())
			}
		}
		time.Sleep(dumpEvery)
	}
}

func halt(err error) {
	for {
		println("[main] fatal:", err.Error())
		time.Sleep(5 * time.Second)
	}
}
