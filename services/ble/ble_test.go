package ble

import (
	"bytes"
	"testing"

	"hai-firmware/errlog"
	"hai-firmware/hal"
	"hai-firmware/hal/sim"
	"hai-firmware/kernel"
	"hai-firmware/services/config"
	"hai-firmware/services/testmux"
	"hai-firmware/types"
)

type rig struct {
	s     *kernel.Scheduler
	log   *errlog.Log
	radio *sim.Radio
	batt  types.BatteryResult
	touch types.TouchResult
	b     *Process
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{log: errlog.New(), radio: sim.NewRadio(nil, nil)}
	r.s = kernel.NewScheduler(nil, r.log)
	r.b = New(config.Defaults(), Deps{Radio: r.radio, Battery: &r.batt, Touch: &r.touch})
	if err := r.s.Register(r.b.Proc()); err != nil {
		t.Fatal(err)
	}
	r.b.Init(testmux.New(r.log, nil))
	return r
}

// wake runs one main-loop wake: every-wake processes are queued and run.
func (r *rig) wake() {
	r.s.WakeUpdate()
	r.s.Dispatch(nil)
}

func (r *rig) connect(chars ...hal.Characteristic) {
	r.radio.Connect()
	r.wake()
	for _, c := range chars {
		r.radio.Subscribe(c, true)
	}
}

func TestInitAdvertisesAndReportsFirmware(t *testing.T) {
	r := newRig(t)
	if r.radio.Advertising != 1 {
		t.Fatalf("advertising = %d, want 1", r.radio.Advertising)
	}
	if r.radio.Firmware != "v1.00" {
		t.Fatalf("firmware = %q", r.radio.Firmware)
	}
}

func TestPumpsEveryWake(t *testing.T) {
	r := newRig(t)
	for i := 0; i < 3; i++ {
		r.wake()
	}
	if r.radio.Pumps != 3 {
		t.Fatalf("pumps = %d, want 3", r.radio.Pumps)
	}
}

func TestBatteryNotification(t *testing.T) {
	r := newRig(t)
	r.connect(hal.CharBatteryLevel)

	r.batt = types.BatteryResult{Level: 42, DataReady: true}
	r.wake()

	sent := r.radio.Notifications()
	if len(sent) != 1 || sent[0].Char != hal.CharBatteryLevel.String() || !bytes.Equal(sent[0].Data, []byte{42}) {
		t.Fatalf("sent = %+v", sent)
	}
	if r.batt.DataReady {
		t.Fatal("DataReady not cleared")
	}

	r.wake()
	if n := len(r.radio.Notifications()); n != 1 {
		t.Fatalf("consumed result resent: %d notifications", n)
	}
}

func TestTouchPacketLittleEndian(t *testing.T) {
	r := newRig(t)
	r.connect(hal.CharTouchCentroid)

	r.touch = types.TouchResult{Centroid: 0x2A, DataReady: true}
	r.wake()
	r.touch = types.TouchResult{Centroid: types.NoTouch, DataReady: true}
	r.wake()

	sent := r.radio.Notifications()
	want := [][]byte{{0x2A, 0, 0, 0}, {0xFF, 0, 0, 0}}
	if len(sent) != len(want) {
		t.Fatalf("sent %d notifications, want %d", len(sent), len(want))
	}
	for i, w := range want {
		if !bytes.Equal(sent[i].Data, w) {
			t.Fatalf("packet %d = % x, want % x", i, sent[i].Data, w)
		}
	}
}

func TestNotificationsDisabledKeepsResult(t *testing.T) {
	r := newRig(t)
	r.connect()

	r.batt = types.BatteryResult{Level: 10, DataReady: true}
	r.wake()
	if len(r.radio.Notifications()) != 0 {
		t.Fatal("notified without subscription")
	}
	if !r.batt.DataReady {
		t.Fatal("result consumed without being sent")
	}
}

func TestNotifyFailureLogged(t *testing.T) {
	r := newRig(t)
	r.connect(hal.CharBatteryLevel)
	r.radio.FailNotifies(1)

	r.batt = types.BatteryResult{Level: 50, DataReady: true}
	r.wake()

	es := r.log.Entries()
	if len(es) != 1 || es[0].PID != config.PIDBLE || es[0].Code != ErrBatteryNotify {
		t.Fatalf("log = %+v", es)
	}
	if r.batt.DataReady {
		t.Fatal("failed result should still be consumed")
	}
}

func TestDisconnectRestartsAdvertising(t *testing.T) {
	r := newRig(t)
	r.connect()
	if !r.b.Connected() {
		t.Fatal("not connected")
	}
	r.radio.Disconnect()
	r.wake()
	if r.b.Connected() {
		t.Fatal("still connected")
	}
	if r.radio.Advertising != 2 {
		t.Fatalf("advertising = %d, want 2", r.radio.Advertising)
	}
}
