package gatt

import (
	"encoding/binary"
	"time"
)

// WheelRevolutions agrupa os dois campos de roda, que sempre chegam juntos.
type WheelRevolutions struct {
	CumulativeRevolutions uint32 `json:"cumulative_revolutions"`
	LastEventTime         uint16 `json:"last_event_time"` // Ticks do relógio do sensor
}

// CrankRevolutions agrupa os dois campos de pedivela.
type CrankRevolutions struct {
	CumulativeRevolutions uint16 `json:"cumulative_revolutions"`
	LastEventTime         uint16 `json:"last_event_time"` // Ticks de 1/1024 s
}

// CyclingMeasurement é o formato comum às medições de Potência e de
// Velocidade/Cadência. Wheel e Crank são nil quando a flag correspondente
// não estava presente.
type CyclingMeasurement struct {
	Timestamp time.Time         `json:"timestamp"`
	Wheel     *WheelRevolutions `json:"wheel,omitempty"`
	Crank     *CrankRevolutions `json:"crank,omitempty"`
}

// Flags da medição de velocidade e cadência (0x2A5B), um único byte.
const (
	cscFlagWheelData = 1 << 0
	cscFlagCrankData = 1 << 1
)

// CSCFeatures é o bitset da característica 0x2A5C.
type CSCFeatures uint16

const (
	CSCWheelRevolutionsSupported  CSCFeatures = 1 << 0
	CSCCrankRevolutionsSupported  CSCFeatures = 1 << 1
	CSCMultipleLocationsSupported CSCFeatures = 1 << 2
)

func (f CSCFeatures) Has(bit CSCFeatures) bool { return f&bit == bit }

// DecodeCSCFeatures lê o bitset de 16 bits do serviço de Velocidade/Cadência.
func DecodeCSCFeatures(data []byte) (CSCFeatures, error) {
	v, err := NewReader(data).ReadUint16("csc features")
	return CSCFeatures(v), err
}

// DecodeCSC decodifica o payload da característica 0x2A5B. O Timestamp
// fica zerado; quem recebeu a notificação é quem sabe a hora de chegada.
func DecodeCSC(data []byte) (CyclingMeasurement, error) {
	var m CyclingMeasurement
	r := NewReader(data)

	flags, err := r.ReadUint8("flags")
	if err != nil {
		return m, err
	}
	if flags&cscFlagWheelData != 0 {
		if m.Wheel, err = readWheel(r); err != nil {
			return CyclingMeasurement{}, err
		}
	}
	if flags&cscFlagCrankData != 0 {
		if m.Crank, err = readCrank(r); err != nil {
			return CyclingMeasurement{}, err
		}
	}
	return m, nil
}

// MarshalCSC codifica a medição no formato da característica 0x2A5B.
func MarshalCSC(m CyclingMeasurement) []byte {
	out := []byte{0}
	if m.Wheel != nil {
		out[0] |= cscFlagWheelData
		out = appendWheel(out, m.Wheel)
	}
	if m.Crank != nil {
		out[0] |= cscFlagCrankData
		out = appendCrank(out, m.Crank)
	}
	return out
}

func readWheel(r *Reader) (*WheelRevolutions, error) {
	revs, err := r.ReadUint32("cumulative wheel revolutions")
	if err != nil {
		return nil, err
	}
	t, err := r.ReadUint16("last wheel event time")
	if err != nil {
		return nil, err
	}
	return &WheelRevolutions{CumulativeRevolutions: revs, LastEventTime: t}, nil
}

func readCrank(r *Reader) (*CrankRevolutions, error) {
	revs, err := r.ReadUint16("cumulative crank revolutions")
	if err != nil {
		return nil, err
	}
	t, err := r.ReadUint16("last crank event time")
	if err != nil {
		return nil, err
	}
	return &CrankRevolutions{CumulativeRevolutions: revs, LastEventTime: t}, nil
}

func appendWheel(out []byte, w *WheelRevolutions) []byte {
	out = binary.LittleEndian.AppendUint32(out, w.CumulativeRevolutions)
	return binary.LittleEndian.AppendUint16(out, w.LastEventTime)
}

func appendCrank(out []byte, c *CrankRevolutions) []byte {
	out = binary.LittleEndian.AppendUint16(out, c.CumulativeRevolutions)
	return binary.LittleEndian.AppendUint16(out, c.LastEventTime)
}
