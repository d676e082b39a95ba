package ble

import (
	"context"
	"testing"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/require"

	"argus-sensors/pkg/gatt"
	"argus-sensors/pkg/wahoo"
)

func TestSimServicesLayout(t *testing.T) {
	svcs := NewSimServices(context.Background(), NewSimulator(0), &LinkState{}, nil)
	require.Len(t, svcs, 4)

	profile := &ble.Profile{Services: svcs}

	for _, u := range MeasurementChars {
		c := gatt.FindCharacteristic(profile, u)
		require.NotNil(t, c, gatt.Key(u))
		require.NotZero(t, c.Property&ble.CharNotify, gatt.Key(u))
	}

	for _, u := range []ble.UUID{gatt.CSCFeatureCharUUID, gatt.PowerFeatureCharUUID, gatt.SensorLocationCharUUID, gatt.ManufacturerNameCharUUID} {
		c := gatt.FindCharacteristic(profile, u)
		require.NotNil(t, c, gatt.Key(u))
		require.NotZero(t, c.Property&ble.CharRead, gatt.Key(u))
	}

	trainer := gatt.FindCharacteristic(profile, wahoo.TrainerCharUUID)
	require.NotNil(t, trainer)
	require.NotZero(t, trainer.Property&ble.CharWrite)
	require.NotZero(t, trainer.Property&ble.CharNotify)
}
