package ble

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignalLevel(t *testing.T) {
	tests := []struct {
		rssi, levels, want int
	}{
		{-120, 5, 0},
		{-100, 5, 0},
		{-55, 5, 4},
		{-30, 5, 4},
		{-78, 5, 1}, // 22*4/45 = 1.95
		{-70, 5, 2}, // 30*4/45 = 2.67
		{-60, 5, 3}, // 40*4/45 = 3.56
		{-60, 0, 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, SignalLevel(tt.rssi, tt.levels), "rssi %d", tt.rssi)
	}
}
