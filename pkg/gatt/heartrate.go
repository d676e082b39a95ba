package gatt

import "encoding/binary"

// Flags da medição de frequência cardíaca (0x2A37).
const (
	hrFlagUint16Value    = 0x01
	hrFlagContactBits    = 0x06
	hrFlagEnergyExpended = 0x08
	hrFlagRRInterval     = 0x10
)

// ContactStatus indica se o sensor está em contato com a pele.
type ContactStatus uint8

const (
	ContactNotSupported ContactStatus = iota
	ContactNotDetected
	ContactDetected
)

func (c ContactStatus) String() string {
	switch c {
	case ContactNotDetected:
		return "not detected"
	case ContactDetected:
		return "detected"
	}
	return "not supported"
}

// HeartRateMeasurement é uma notificação decodificada do monitor cardíaco.
// Criada a cada decodificação e nunca alterada depois.
type HeartRateMeasurement struct {
	HeartRate      uint16        `json:"heart_rate"`
	Wide           bool          `json:"-"` // Valor veio em 16 bits.
	Contact        ContactStatus `json:"contact"`
	EnergyExpended *uint16       `json:"energy_expended,omitempty"` // kJ acumulados
	RRIntervals    []uint16      `json:"rr_intervals,omitempty"`    // Unidades de 1/1024 s
}

// RRInterval retorna o primeiro intervalo RR da notificação, se houver.
func (m HeartRateMeasurement) RRInterval() (uint16, bool) {
	if len(m.RRIntervals) == 0 {
		return 0, false
	}
	return m.RRIntervals[0], true
}

// DecodeHeartRate decodifica o payload da característica 0x2A37.
// A leitura é estritamente sequencial: a posição de cada campo opcional
// depende dos que vieram antes. Os intervalos RR ocupam o resto do payload.
func DecodeHeartRate(data []byte) (HeartRateMeasurement, error) {
	var m HeartRateMeasurement
	r := NewReader(data)

	flags, err := r.ReadUint8("flags")
	if err != nil {
		return HeartRateMeasurement{}, err
	}

	if flags&hrFlagUint16Value != 0 {
		m.Wide = true
		if m.HeartRate, err = r.ReadUint16("heart rate"); err != nil {
			return HeartRateMeasurement{}, err
		}
	} else {
		v, err := r.ReadUint8("heart rate")
		if err != nil {
			return HeartRateMeasurement{}, err
		}
		m.HeartRate = uint16(v)
	}

	switch (flags & hrFlagContactBits) >> 1 {
	case 2:
		m.Contact = ContactNotDetected
	case 3:
		m.Contact = ContactDetected
	}

	if flags&hrFlagEnergyExpended != 0 {
		v, err := r.ReadUint16("energy expended")
		if err != nil {
			return HeartRateMeasurement{}, err
		}
		m.EnergyExpended = &v
	}

	if flags&hrFlagRRInterval != 0 {
		for r.Remaining() > 0 {
			v, err := r.ReadUint16("rr interval")
			if err != nil {
				return HeartRateMeasurement{}, err
			}
			m.RRIntervals = append(m.RRIntervals, v)
		}
	}
	return m, nil
}

// MarshalBinary codifica a medição no formato da característica 0x2A37.
func (m HeartRateMeasurement) MarshalBinary() ([]byte, error) {
	var flags byte
	out := []byte{0}

	if m.Wide || m.HeartRate > 0xFF {
		flags |= hrFlagUint16Value
		out = binary.LittleEndian.AppendUint16(out, m.HeartRate)
	} else {
		out = append(out, byte(m.HeartRate))
	}

	switch m.Contact {
	case ContactNotDetected:
		flags |= 2 << 1
	case ContactDetected:
		flags |= 3 << 1
	}

	if m.EnergyExpended != nil {
		flags |= hrFlagEnergyExpended
		out = binary.LittleEndian.AppendUint16(out, *m.EnergyExpended)
	}
	if len(m.RRIntervals) > 0 {
		flags |= hrFlagRRInterval
		for _, rr := range m.RRIntervals {
			out = binary.LittleEndian.AppendUint16(out, rr)
		}
	}
	out[0] = flags
	return out, nil
}

// ResetEnergyExpendedCommand é o comando do Heart Rate Control Point (0x2A39)
// que zera a energia acumulada.
func ResetEnergyExpendedCommand() []byte {
	return []byte{0x01}
}
