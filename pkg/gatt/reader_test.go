package gatt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderSequential(t *testing.T) {
	r := NewReader([]byte{0x01, 0x34, 0x12, 0x78, 0x56, 0x34, 0x12, 0xFE, 0xFF})

	u8, err := r.ReadUint8("a")
	require.NoError(t, err)
	require.Equal(t, uint8(1), u8)

	u16, err := r.ReadUint16("b")
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), u16)

	u32, err := r.ReadUint32("c")
	require.NoError(t, err)
	require.Equal(t, uint32(0x12345678), u32)

	i16, err := r.ReadInt16("d")
	require.NoError(t, err)
	require.Equal(t, int16(-2), i16)

	require.Equal(t, 9, r.Offset())
	require.Zero(t, r.Remaining())
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	_, err := r.ReadUint16("first")
	require.NoError(t, err)

	_, err = r.ReadUint32("wide")
	require.ErrorIs(t, err, ErrTruncatedPayload)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, "wide", de.Field)
	require.Equal(t, 2, de.Offset)
	require.Equal(t, 4, de.Need)
	require.Equal(t, 1, de.Have)

	// O cursor não anda numa leitura que falhou.
	require.Equal(t, 2, r.Offset())

	_, err = NewReader(nil).ReadUint8("empty")
	require.ErrorIs(t, err, ErrTruncatedPayload)
	require.NotErrorIs(t, err, ErrUnknownCharacteristic)
}
