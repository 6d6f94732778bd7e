package bridge

import (
	"github.com/doudar/swiftcontrol/internal/gatt"
)

// registerCompanionProfiles adds the services a real KICKR BIKE exposes
// alongside FTMS and Zwift Ride, so discovery over either transport matches
// the hardware's advertised set.
func registerCompanionProfiles(m *gatt.Mirror, serial string) error {
	// Device Information.
	err := m.RegisterService(gatt.DeviceInfoService, []gatt.CharacteristicSpec{
		{UUID: gatt.ManufacturerName, Props: gatt.PropRead, Value: []byte("Wahoo Fitness")},
		{UUID: gatt.ModelNumber, Props: gatt.PropRead, Value: []byte("KICKR BIKE")},
		{UUID: gatt.SerialNumber, Props: gatt.PropRead, Value: []byte(serial)},
		{UUID: gatt.HardwareRevision, Props: gatt.PropRead, Value: []byte("1.4")},
		{UUID: gatt.FirmwareRevision, Props: gatt.PropRead, Value: []byte("2.0.1")},
	})
	if err != nil {
		return err
	}

	// Cycling Power. The feature word advertises power balance and crank
	// revolution support, matching the hardware.
	err = m.RegisterService(gatt.CyclingPowerService, []gatt.CharacteristicSpec{
		{UUID: gatt.CyclingPowerMeasurement, Props: gatt.PropNotify},
		{UUID: gatt.CyclingPowerFeature, Props: gatt.PropRead, Value: []byte{0x09, 0x00, 0x00, 0x00}},
		{UUID: gatt.SensorLocation, Props: gatt.PropRead, Value: []byte{0x0d}}, // rear hub
	})
	if err != nil {
		return err
	}

	// Cycling Speed and Cadence.
	err = m.RegisterService(gatt.CSCService, []gatt.CharacteristicSpec{
		{UUID: gatt.CSCMeasurement, Props: gatt.PropNotify},
		{UUID: gatt.CSCFeature, Props: gatt.PropRead, Value: []byte{0x03, 0x00}}, // wheel + crank
	})
	if err != nil {
		return err
	}

	// Heart Rate, relayed when a strap is paired to the trainer.
	return m.RegisterService(gatt.HeartRateService, []gatt.CharacteristicSpec{
		{UUID: gatt.HeartRateMeasurement, Props: gatt.PropNotify},
	})
}
