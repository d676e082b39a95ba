package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"argus-sensors/pkg/gatt"
)

func TestMonitorRoutesMeasurements(t *testing.T) {
	m := NewMonitor(0, nil)
	t0 := time.Now()

	power, err := gatt.PowerMeasurement{InstantaneousPower: 180}.MarshalBinary()
	require.NoError(t, err)
	_, err = m.OnCharacteristicValue(gatt.PowerMeasurementCharUUID, power, t0)
	require.NoError(t, err)

	_, err = m.OnCharacteristicValue(gatt.HRMeasurementCharUUID, []byte{0x00, 0x8C}, t0)
	require.NoError(t, err)

	s := m.Snapshot()
	require.NotNil(t, s.PowerWatts)
	require.Equal(t, 180, *s.PowerWatts)
	require.NotNil(t, s.HeartRate)
	require.Equal(t, uint16(140), s.HeartRate.HeartRate)
	require.Nil(t, s.SpeedKPH)
}

func TestMonitorStoresAttributes(t *testing.T) {
	m := NewMonitor(0, nil)
	now := time.Now()

	r, err := m.OnCharacteristicValue(gatt.CSCFeatureCharUUID, []byte{0x03, 0x00}, now)
	require.NoError(t, err)
	require.Equal(t, "attribute", r.Kind)

	_, err = m.OnCharacteristicValue(gatt.SensorLocationCharUUID, []byte{0x0C}, now)
	require.NoError(t, err)
	_, err = m.OnCharacteristicValue(gatt.ManufacturerNameCharUUID, []byte("Wahoo\x00"), now)
	require.NoError(t, err)

	s := m.Snapshot()
	require.NotNil(t, s.Attributes.CSCFeatures)
	require.True(t, s.Attributes.CSCFeatures.Has(gatt.CSCWheelRevolutionsSupported|gatt.CSCCrankRevolutionsSupported))
	require.NotNil(t, s.Attributes.SensorLocation)
	require.Equal(t, gatt.SensorLocation(12), *s.Attributes.SensorLocation)
	require.Equal(t, "Wahoo", s.Attributes.DeviceInfo["2a29"])

	// O snapshot é uma cópia.
	s.Attributes.DeviceInfo["2a29"] = "x"
	require.Equal(t, "Wahoo", m.Snapshot().Attributes.DeviceInfo["2a29"])

	m.Reset()
	require.Nil(t, m.Snapshot().Attributes.CSCFeatures)
}

func TestMonitorUnknownCharacteristic(t *testing.T) {
	m := NewMonitor(0, nil)
	_, err := m.OnCharacteristicValue(gatt.HRControlPointCharUUID, []byte{0x01}, time.Now())
	require.ErrorIs(t, err, gatt.ErrUnknownCharacteristic)
}

func TestMonitorCSCSpeedTakesPriority(t *testing.T) {
	m := NewMonitor(0, nil)
	t0 := time.Now()

	for i, p := range []gatt.Payload{cscPayload(t0, 0, 10, 0), cscPayload(t0, time.Second, 12, 1024)} {
		_, err := m.OnCharacteristicValue(p.Characteristic, p.Data, p.Timestamp)
		require.NoError(t, err, "amostra %d", i)
	}
	pw := gatt.PowerMeasurement{InstantaneousPower: 100}
	for i := range 2 {
		pw.Wheel = &gatt.WheelRevolutions{CumulativeRevolutions: uint32(i * 10), LastEventTime: uint16(i * 2048)}
		data, err := pw.MarshalBinary()
		require.NoError(t, err)
		_, err = m.OnCharacteristicValue(gatt.PowerMeasurementCharUUID, data, t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	s := m.Snapshot()
	require.InDelta(t, 15.3576, *s.SpeedKPH, 1e-9)
	require.Equal(t, 100, *s.PowerWatts)
}

func TestMonitorSetWheelCircumference(t *testing.T) {
	m := NewMonitor(0, nil)
	m.SetWheelCircumference(210)
	require.Equal(t, 210.0, m.Tracker(gatt.CSCMeasurementCharUUID).State().Calibration.WheelCircumferenceCM)
	require.Equal(t, 210.0, m.Tracker(gatt.PowerMeasurementCharUUID).State().Calibration.WheelCircumferenceCM)
}
