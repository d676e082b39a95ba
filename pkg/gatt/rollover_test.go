package gatt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDelta(t *testing.T) {
	require.Equal(t, uint8(5), Delta[uint8](10, 5, math.MaxUint8))
	require.Equal(t, uint8(0), Delta[uint8](7, 7, math.MaxUint8))

	// Contador deu a volta: 10 -> 255 -> 0 -> 5 são 251 passos.
	require.Equal(t, uint8(251), Delta[uint8](5, 10, 255))
	require.Equal(t, uint16(251), Delta[uint16](5, 10, 255))
}

func TestDeltaWrapBoundary(t *testing.T) {
	require.Equal(t, uint16(1), Delta[uint16](0, math.MaxUint16, math.MaxUint16))
	require.Equal(t, uint32(1), Delta[uint32](0, math.MaxUint32, math.MaxUint32))
	require.Equal(t, uint32(11), Delta[uint32](5, math.MaxUint32-5, math.MaxUint32))

	// Para contadores de largura total o resultado coincide com a subtração modular.
	var a, b uint16 = 3, 65530
	require.Equal(t, a-b, Delta(a, b, math.MaxUint16))
}
