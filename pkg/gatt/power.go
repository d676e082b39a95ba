package gatt

import "encoding/binary"

// Flags da medição de potência (0x2A63), 16 bits.
// Só os campos até os dados de pedivela são lidos; o que vem depois
// (magnitudes extremas, ângulos, energia acumulada) é ignorado.
const (
	powerFlagPedalBalance      = 1 << 0
	powerFlagBalanceLeft       = 1 << 1
	powerFlagAccumulatedTorque = 1 << 2
	powerFlagTorqueSourceCrank = 1 << 3
	powerFlagWheelData         = 1 << 4
	powerFlagCrankData         = 1 << 5
)

// PowerMeasurement é uma notificação decodificada do medidor de potência.
type PowerMeasurement struct {
	CyclingMeasurement
	// Watts, sempre presente.
	InstantaneousPower int16 `json:"instantaneous_power"`
	// Unidades de 1/2 %.
	PedalPowerBalance    *uint8 `json:"pedal_power_balance,omitempty"`
	BalanceReferenceLeft bool   `json:"balance_reference_left,omitempty"`
	// Unidades de 1/32 Nm.
	AccumulatedTorque *uint16 `json:"accumulated_torque,omitempty"`
	TorqueSourceCrank bool    `json:"torque_source_crank,omitempty"`
}

// DecodePower decodifica o payload da característica 0x2A63.
// A potência instantânea vem sempre logo depois das flags.
func DecodePower(data []byte) (PowerMeasurement, error) {
	var m PowerMeasurement
	r := NewReader(data)

	flags, err := r.ReadUint16("flags")
	if err != nil {
		return m, err
	}
	if m.InstantaneousPower, err = r.ReadInt16("instantaneous power"); err != nil {
		return PowerMeasurement{}, err
	}

	if flags&powerFlagPedalBalance != 0 {
		v, err := r.ReadUint8("pedal power balance")
		if err != nil {
			return PowerMeasurement{}, err
		}
		m.PedalPowerBalance = &v
		m.BalanceReferenceLeft = flags&powerFlagBalanceLeft != 0
	}
	if flags&powerFlagAccumulatedTorque != 0 {
		v, err := r.ReadUint16("accumulated torque")
		if err != nil {
			return PowerMeasurement{}, err
		}
		m.AccumulatedTorque = &v
		m.TorqueSourceCrank = flags&powerFlagTorqueSourceCrank != 0
	}
	if flags&powerFlagWheelData != 0 {
		if m.Wheel, err = readWheel(r); err != nil {
			return PowerMeasurement{}, err
		}
	}
	if flags&powerFlagCrankData != 0 {
		if m.Crank, err = readCrank(r); err != nil {
			return PowerMeasurement{}, err
		}
	}
	return m, nil
}

// MarshalBinary codifica a medição no formato da característica 0x2A63.
func (m PowerMeasurement) MarshalBinary() ([]byte, error) {
	var flags uint16
	out := make([]byte, 2, 16)
	out = binary.LittleEndian.AppendUint16(out, uint16(m.InstantaneousPower))

	if m.PedalPowerBalance != nil {
		flags |= powerFlagPedalBalance
		if m.BalanceReferenceLeft {
			flags |= powerFlagBalanceLeft
		}
		out = append(out, *m.PedalPowerBalance)
	}
	if m.AccumulatedTorque != nil {
		flags |= powerFlagAccumulatedTorque
		if m.TorqueSourceCrank {
			flags |= powerFlagTorqueSourceCrank
		}
		out = binary.LittleEndian.AppendUint16(out, *m.AccumulatedTorque)
	}
	if m.Wheel != nil {
		flags |= powerFlagWheelData
		out = appendWheel(out, m.Wheel)
	}
	if m.Crank != nil {
		flags |= powerFlagCrankData
		out = appendCrank(out, m.Crank)
	}
	binary.LittleEndian.PutUint16(out[0:2], flags)
	return out, nil
}

// PowerFeatures é o bitset da característica 0x2A65.
type PowerFeatures uint32

const (
	PowerPedalBalanceSupported          PowerFeatures = 1 << 0
	PowerAccumulatedTorqueSupported     PowerFeatures = 1 << 1
	PowerWheelRevolutionsSupported      PowerFeatures = 1 << 2
	PowerCrankRevolutionsSupported      PowerFeatures = 1 << 3
	PowerExtremeMagnitudesSupported     PowerFeatures = 1 << 4
	PowerExtremeAnglesSupported         PowerFeatures = 1 << 5
	PowerDeadSpotAnglesSupported        PowerFeatures = 1 << 6
	PowerAccumulatedEnergySupported     PowerFeatures = 1 << 7
	PowerOffsetCompensationIndicator    PowerFeatures = 1 << 8
	PowerOffsetCompensationSupported    PowerFeatures = 1 << 9
	PowerContentMaskingSupported        PowerFeatures = 1 << 10
	PowerMultipleLocationsSupported     PowerFeatures = 1 << 11
	PowerCrankLengthAdjustmentSupported PowerFeatures = 1 << 12
	PowerChainLengthAdjustmentSupported PowerFeatures = 1 << 13
	PowerChainWeightAdjustmentSupported PowerFeatures = 1 << 14
	PowerSpanLengthAdjustmentSupported  PowerFeatures = 1 << 15
)

func (f PowerFeatures) Has(bit PowerFeatures) bool { return f&bit == bit }

// DecodePowerFeatures lê o bitset de recursos. Sensores antigos enviam
// só 16 bits; quando há 4 bytes, a palavra alta também é lida.
func DecodePowerFeatures(data []byte) (PowerFeatures, error) {
	r := NewReader(data)
	lo, err := r.ReadUint16("power features")
	if err != nil {
		return 0, err
	}
	f := PowerFeatures(lo)
	if r.Remaining() >= 2 {
		hi, _ := r.ReadUint16("power features (high)")
		f |= PowerFeatures(hi) << 16
	}
	return f, nil
}
