// Package hal declares the collaborators the kernel and its processes drive:
// radio stack, capacitive scan engine, ADC, CPU sleep modes and pins.
// Implementations live in hal/sim (host) and hal/board (TinyGo targets).
package hal

// LowPowerState is the radio's readiness for the CPU to sleep.
type LowPowerState uint8

const (
	// RadioActive: the radio is idle enough for CPU sleep but needs the
	// main clock and cannot tolerate deep sleep.
	RadioActive LowPowerState = iota
	RadioDeepSleepReady
	// RadioTransitioning: mid state change; do not sleep at all.
	RadioTransitioning
)

func (s LowPowerState) String() string {
	switch s {
	case RadioActive:
		return "active"
	case RadioDeepSleepReady:
		return "deep_sleep_ready"
	case RadioTransitioning:
		return "transitioning"
	}
	return "unknown"
}

// Characteristic names a notifiable value the radio exposes.
type Characteristic uint8

const (
	CharBatteryLevel Characteristic = iota
	CharTouchCentroid
)

func (c Characteristic) String() string {
	switch c {
	case CharBatteryLevel:
		return "battery_level"
	case CharTouchCentroid:
		return "touch_centroid"
	}
	return "unknown"
}

// Radio is the BLE stack.
type Radio interface {
	// ProcessEvents pumps pending stack events; called every wake.
	ProcessEvents()
	RequestLowPower()
	LowPowerState() LowPowerState
	Notify(c Characteristic, b []byte) error
	NotificationsEnabled(c Characteristic) bool
	StartAdvertising() error
	// SetConnectHandler installs the connect/disconnect callback. It may run
	// from ProcessEvents.
	SetConnectHandler(fn func(connected bool))
}

// SensorID selects a capacitive electrode for a raw measurement.
type SensorID uint8

// CapSense is the capacitive scan engine. Completion is signalled through
// the wakeup source, not a return value.
type CapSense interface {
	Wake()
	StartScan()
	Busy() bool
	Sleep()
	// Centroid is the slider position of the last scan; ok is false when
	// nothing touches the slider.
	Centroid() (pos uint8, ok bool)
	// ActiveMask has one bit per electrode reading active in the last scan.
	ActiveMask() uint8
	PrepareSensor(id SensorID)
	RestoreSensor(id SensorID)
	SensorRaw(id SensorID) uint16
}

// ADCChannel and Reference select the converter input and reference.
type ADCChannel uint8
type Reference uint8

const (
	RefInternal Reference = iota
	RefSupply
)

// ADC is a single-conversion analog converter shared through kernel.Mutex.
type ADC interface {
	Configure(ch ADCChannel, ref Reference)
	StartConversion()
	Done() bool
	ReadRaw() int32
	RestoreDefaults()
	// HighLimit is the full-scale raw value.
	HighLimit() int32
}

// CPU sleep modes. Each returns once a wakeup bit is pending.
type CPU interface {
	DeepSleep()
	// SleepClockSwitched moves the system clock off the main oscillator,
	// sleeps, and restores the main oscillator on wake.
	SleepClockSwitched()
	Sleep()
}

// Switch is a digital output, such as the battery measurement enable.
type Switch interface {
	Set(on bool)
	Get() bool
}

// RGB is the indicator LED.
type RGB interface {
	SetColor(r, g, b uint8)
}
