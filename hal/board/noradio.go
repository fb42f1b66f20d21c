package board

import (
	"hai-firmware/errcode"
	"hai-firmware/hal"
)

// NoRadio stands in on boards without BLE. It never holds the CPU awake.
type NoRadio struct{}

func (NoRadio) ProcessEvents()                               {}
func (NoRadio) RequestLowPower()                             {}
func (NoRadio) LowPowerState() hal.LowPowerState             { return hal.RadioDeepSleepReady }
func (NoRadio) NotificationsEnabled(hal.Characteristic) bool { return false }
func (NoRadio) SetConnectHandler(func(bool))                 {}

func (NoRadio) Notify(hal.Characteristic, []byte) error { return errcode.NotConnected }
func (NoRadio) StartAdvertising() error {
	return errcode.Wrap(errcode.AdvFailed, "board.NoRadio", "no radio")
}
