package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"argus-sensors/pkg/gatt"
)

func ptr[T any](v T) *T { return &v }

func TestRequiredIntervalDefault(t *testing.T) {
	require.Equal(t, DefaultBurstInterval, RequiredInterval(213.3, nil))
	require.Equal(t, DefaultBurstInterval, RequiredInterval(213.3, ptr(0.0)))
}

func TestRequiredIntervalClamp(t *testing.T) {
	// 3 km/h: uma volta leva mais de 2s, limitado a 1.5s.
	require.Equal(t, MaxBurstInterval, RequiredInterval(213.3, ptr(3.0)))
	// 60 km/h: uma volta leva ~0.13s, limitado a 0.5s.
	require.Equal(t, MinBurstInterval, RequiredInterval(213.3, ptr(60.0)))
}

func TestRequiredIntervalScalesWithSpeed(t *testing.T) {
	// 213.3 cm a 7.6788 km/h (213.3 cm/s) = 1 volta/s, 90% = 0.9s.
	got := RequiredInterval(213.3, ptr(7.6788))
	require.InDelta(t, float64(900*time.Millisecond), float64(got), float64(time.Millisecond))
}

func TestBurstFilterAccept(t *testing.T) {
	f := BurstFilter{WheelCircumferenceCM: 213.3}
	t0 := time.Now()
	last := &gatt.CyclingMeasurement{Timestamp: t0}

	require.True(t, f.Accept(nil, nil, t0))
	require.False(t, f.Accept(last, nil, t0.Add(500*time.Millisecond)))
	require.False(t, f.Accept(last, nil, t0.Add(800*time.Millisecond)))
	require.True(t, f.Accept(last, nil, t0.Add(time.Second)))
}
