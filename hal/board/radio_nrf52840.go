//go:build nrf52840

package board

import (
	"sync/atomic"

	"tinygo.org/x/bluetooth"

	"hai-firmware/errcode"
	"hai-firmware/hal"
)

// Touch slider service and centroid characteristic.
var (
	touchServiceUUID = bluetooth.NewUUID([16]byte{0x6e, 0x40, 0x00, 0x01, 0xb5, 0xa3, 0xf3, 0x93,
		0xe0, 0xa9, 0xe5, 0x0e, 0x24, 0xdc, 0xca, 0x9e})
	touchCentroidUUID = bluetooth.NewUUID([16]byte{0x6e, 0x40, 0x00, 0x02, 0xb5, 0xa3, 0xf3, 0x93,
		0xe0, 0xa9, 0xe5, 0x0e, 0x24, 0xdc, 0xca, 0x9e})
)

// radio is the SoftDevice GATT server: battery service, touch service and
// device information. Connection callbacks arrive from the stack's event
// handler and are delivered from ProcessEvents on the main loop.
type radio struct {
	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement

	batt, touch, fwRev bluetooth.Characteristic

	// Latched by the stack callback, consumed by ProcessEvents.
	gotConnect, gotDisconnect atomic.Bool

	connected atomic.Bool
	onConnect func(bool)
}

func newRadio(name string) (*radio, error) {
	r := &radio{adapter: bluetooth.DefaultAdapter}
	if err := r.adapter.Enable(); err != nil {
		return nil, err
	}
	r.adapter.SetConnectHandler(func(_ bluetooth.Device, connected bool) {
		if connected {
			r.gotConnect.Store(true)
		} else {
			r.gotDisconnect.Store(true)
		}
	})

	services := []*bluetooth.Service{
		{
			UUID: bluetooth.ServiceUUIDBattery,
			Characteristics: []bluetooth.CharacteristicConfig{{
				Handle: &r.batt,
				UUID:   bluetooth.CharacteristicUUIDBatteryLevel,
				Value:  []byte{0},
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission,
			}},
		},
		{
			UUID: touchServiceUUID,
			Characteristics: []bluetooth.CharacteristicConfig{{
				Handle: &r.touch,
				UUID:   touchCentroidUUID,
				Value:  []byte{0xFF, 0, 0, 0},
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission,
			}},
		},
		{
			UUID: bluetooth.ServiceUUIDDeviceInformation,
			Characteristics: []bluetooth.CharacteristicConfig{{
				Handle: &r.fwRev,
				UUID:   bluetooth.CharacteristicUUIDFirmwareRevisionString,
				Value:  []byte("v0.00"),
				Flags:  bluetooth.CharacteristicReadPermission,
			}},
		},
	}
	for _, s := range services {
		if err := r.adapter.AddService(s); err != nil {
			return nil, err
		}
	}

	r.adv = r.adapter.DefaultAdvertisement()
	if err := r.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    name,
		ServiceUUIDs: []bluetooth.UUID{bluetooth.ServiceUUIDBattery},
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// ProcessEvents delivers connection changes latched by the stack callback.
func (r *radio) ProcessEvents() {
	// A disconnect and reconnect within one wake end connected.
	if r.gotDisconnect.Swap(false) {
		r.connected.Store(false)
		if r.onConnect != nil {
			r.onConnect(false)
		}
	}
	if r.gotConnect.Swap(false) {
		r.connected.Store(true)
		if r.onConnect != nil {
			r.onConnect(true)
		}
	}
}

// The SoftDevice schedules its own radio activity; the CPU may always
// request low power.
func (r *radio) RequestLowPower() {}

func (r *radio) LowPowerState() hal.LowPowerState {
	if r.connected.Load() {
		return hal.RadioActive
	}
	return hal.RadioDeepSleepReady
}

func (r *radio) char(c hal.Characteristic) (*bluetooth.Characteristic, bool) {
	switch c {
	case hal.CharBatteryLevel:
		return &r.batt, true
	case hal.CharTouchCentroid:
		return &r.touch, true
	}
	return nil, false
}

func (r *radio) Notify(c hal.Characteristic, b []byte) error {
	ch, ok := r.char(c)
	if !ok {
		return errcode.UnknownCharacteristic
	}
	if !r.connected.Load() {
		return errcode.NotConnected
	}
	if _, err := ch.Write(b); err != nil {
		return &errcode.E{C: errcode.NotifyFailed, Op: "board.Notify", Msg: c.String(), Err: err}
	}
	return nil
}

// NotificationsEnabled reports the connection state: the stack does not
// surface CCCD writes, and Write is a no-op notification without them.
func (r *radio) NotificationsEnabled(c hal.Characteristic) bool {
	_, ok := r.char(c)
	return ok && r.connected.Load()
}

func (r *radio) StartAdvertising() error {
	if err := r.adv.Start(); err != nil {
		return &errcode.E{C: errcode.AdvFailed, Op: "board.StartAdvertising", Err: err}
	}
	return nil
}

func (r *radio) SetConnectHandler(fn func(connected bool)) { r.onConnect = fn }

func (r *radio) SetFirmwareRevision(v string) {
	if _, err := r.fwRev.Write([]byte(v)); err != nil {
		println("[board] firmware revision:", err.Error())
	}
}
