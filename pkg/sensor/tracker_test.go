package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"argus-sensors/pkg/gatt"
)

func cscPayload(t0 time.Time, offset time.Duration, revs uint32, ticks uint16) gatt.Payload {
	data := gatt.MarshalCSC(gatt.CyclingMeasurement{
		Wheel: &gatt.WheelRevolutions{CumulativeRevolutions: revs, LastEventTime: ticks},
	})
	return gatt.Payload{Characteristic: gatt.CSCMeasurementCharUUID, Data: data, Timestamp: t0.Add(offset)}
}

func TestTrackerDiscardsBurst(t *testing.T) {
	tr := NewTracker(KindCSC, CSCCalibration(), nil)
	t0 := time.Now()

	r, err := tr.Process(cscPayload(t0, 0, 10, 0))
	require.NoError(t, err)
	require.False(t, r.Discarded)

	// Duplicada 0.5s depois: descartada e o estado não muda.
	r, err = tr.Process(cscPayload(t0, 500*time.Millisecond, 11, 512))
	require.NoError(t, err)
	require.True(t, r.Discarded)
	require.Equal(t, uint32(10), tr.State().Current.Wheel.CumulativeRevolutions)
	require.Nil(t, tr.State().Previous)

	r, err = tr.Process(cscPayload(t0, time.Second, 12, 1024))
	require.NoError(t, err)
	require.False(t, r.Discarded)
	require.NotNil(t, r.SpeedKPH)
	require.InDelta(t, 15.3576, *r.SpeedKPH, 1e-9)
	require.Equal(t, "csc", r.Kind)
	require.Equal(t, "2a5b", r.Characteristic)
}

func TestTrackerKeepsStateOnDecodeError(t *testing.T) {
	tr := NewTracker(KindCSC, CSCCalibration(), nil)
	t0 := time.Now()

	_, err := tr.Process(cscPayload(t0, 0, 10, 0))
	require.NoError(t, err)
	before := tr.State()

	_, err = tr.Process(gatt.Payload{Characteristic: gatt.CSCMeasurementCharUUID, Data: []byte{0x01, 0x02}, Timestamp: t0.Add(2 * time.Second)})
	require.ErrorIs(t, err, gatt.ErrTruncatedPayload)
	require.Equal(t, before, tr.State())
}

func TestTrackerPower(t *testing.T) {
	tr := NewTracker(KindPower, PowerCalibration(), nil)
	data, err := gatt.PowerMeasurement{InstantaneousPower: 250}.MarshalBinary()
	require.NoError(t, err)

	r, err := tr.Process(gatt.Payload{Characteristic: gatt.PowerMeasurementCharUUID, Data: data, Timestamp: time.Now()})
	require.NoError(t, err)
	require.NotNil(t, r.PowerWatts)
	require.Equal(t, 250, *r.PowerWatts)
	require.Equal(t, "power", r.Kind)
}

func TestTrackerHeartRate(t *testing.T) {
	tr := NewTracker(KindHeartRate, Calibration{}, nil)

	r, err := tr.Process(gatt.Payload{Characteristic: gatt.HRMeasurementCharUUID, Data: []byte{0x19, 0x4B, 0x00, 0x10, 0x00}, Timestamp: time.Now()})
	require.NoError(t, err)
	require.NotNil(t, r.HeartRate)
	require.Equal(t, uint16(75), r.HeartRate.HeartRate)
	require.Equal(t, r.HeartRate, tr.HeartRate())

	tr.Reset()
	require.Nil(t, tr.HeartRate())
}

func TestTrackerSetWheelCircumference(t *testing.T) {
	tr := NewTracker(KindCSC, CSCCalibration(), nil)
	tr.SetWheelCircumference(200)
	require.Equal(t, 200.0, tr.State().Calibration.WheelCircumferenceCM)
	require.Equal(t, 200.0, tr.filter.WheelCircumferenceCM)
}
