package gatt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeHeartRate8Bit(t *testing.T) {
	m, err := DecodeHeartRate([]byte{0x00, 0x4B})
	require.NoError(t, err)
	require.Equal(t, uint16(75), m.HeartRate)
	require.False(t, m.Wide)
	require.Equal(t, ContactNotSupported, m.Contact)
	require.Nil(t, m.EnergyExpended)
	_, ok := m.RRInterval()
	require.False(t, ok)
}

func TestDecodeHeartRate16BitWithEnergy(t *testing.T) {
	// Flags 0x19: valor em 16 bits, energia presente e bit de RR sem nenhum intervalo.
	m, err := DecodeHeartRate([]byte{0x19, 0x4B, 0x00, 0x10, 0x00})
	require.NoError(t, err)
	require.True(t, m.Wide)
	require.Equal(t, uint16(75), m.HeartRate)
	require.NotNil(t, m.EnergyExpended)
	require.Equal(t, uint16(16), *m.EnergyExpended)
	_, ok := m.RRInterval()
	require.False(t, ok)
}

func TestDecodeHeartRateContactStatus(t *testing.T) {
	tests := []struct {
		flags byte
		want  ContactStatus
	}{
		{0x00, ContactNotSupported},
		{0x02, ContactNotSupported},
		{0x04, ContactNotDetected},
		{0x06, ContactDetected},
		{0x16, ContactDetected},
	}
	for _, tt := range tests {
		data := []byte{tt.flags, 60}
		if tt.flags&hrFlagRRInterval != 0 {
			data = append(data, 0x00, 0x04)
		}
		m, err := DecodeHeartRate(data)
		require.NoError(t, err)
		require.Equal(t, tt.want, m.Contact, "flags 0x%02x", tt.flags)
	}
}

func TestDecodeHeartRateRRIntervals(t *testing.T) {
	m, err := DecodeHeartRate([]byte{0x10, 0x48, 0x00, 0x04, 0x10, 0x04})
	require.NoError(t, err)
	require.Equal(t, uint16(72), m.HeartRate)
	require.Equal(t, []uint16{1024, 1040}, m.RRIntervals)
	rr, ok := m.RRInterval()
	require.True(t, ok)
	require.Equal(t, uint16(1024), rr)
}

func TestDecodeHeartRateTruncated(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x01, 0x4B},                   // valor de 16 bits cortado
		{0x08, 0x4B, 0x10},             // energia cortada
		{0x10, 0x4B, 0x00, 0x04, 0x01}, // intervalo RR cortado
	}
	for _, p := range payloads {
		m, err := DecodeHeartRate(p)
		require.ErrorIs(t, err, ErrTruncatedPayload, "payload % x", p)
		require.Zero(t, m, "payload % x", p)
	}
}

func TestHeartRateRoundTrip(t *testing.T) {
	energy := uint16(512)
	tests := []HeartRateMeasurement{
		{HeartRate: 61},
		{HeartRate: 300, Wide: true, Contact: ContactDetected},
		{HeartRate: 140, Contact: ContactNotDetected, EnergyExpended: &energy},
		{HeartRate: 98, Wide: true, EnergyExpended: &energy, RRIntervals: []uint16{640, 655}},
	}
	for _, want := range tests {
		data, err := want.MarshalBinary()
		require.NoError(t, err)
		got, err := DecodeHeartRate(data)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestBodySensorLocation(t *testing.T) {
	l, err := DecodeBodySensorLocation([]byte{0x01})
	require.NoError(t, err)
	require.Equal(t, BodyChest, l)
	require.Equal(t, "Chest", l.String())

	l, err = DecodeBodySensorLocation([]byte{0x07})
	require.NoError(t, err)
	require.Equal(t, BodyUnknown, l)
	require.False(t, l.Known())

	_, err = DecodeBodySensorLocation(nil)
	require.ErrorIs(t, err, ErrTruncatedPayload)
}

func TestResetEnergyExpendedCommand(t *testing.T) {
	require.Equal(t, []byte{0x01}, ResetEnergyExpendedCommand())
}
