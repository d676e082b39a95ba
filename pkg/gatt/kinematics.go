package gatt

import "math"

const (
	// DefaultWheelCircumferenceCM é a circunferência de uma roda 700x23c.
	DefaultWheelCircumferenceCM = 213.3

	// Resolução do relógio de roda, em ticks por segundo, de cada serviço.
	CSCWheelTimeResolution   = 1024
	PowerWheelTimeResolution = 2048

	// O relógio de pedivela é de 1/1024 s em todos os serviços.
	CrankTimeResolution = 1024

	cmToKm      = 0.00001
	minsPerHour = 60.0
)

// WheelSpeedKPH calcula a velocidade em km/h a partir de duas medições
// sucessivas. Retorna false quando alguma das duas não tem dados de roda.
// Se o relógio do sensor não avançou, a velocidade é 0 (e não ausente).
func WheelSpeedKPH(current, previous CyclingMeasurement, wheelCircumferenceCM float64, wheelTimeResolution int) (float64, bool) {
	if current.Wheel == nil || previous.Wheel == nil {
		return 0, false
	}

	revs := Delta(current.Wheel.CumulativeRevolutions, previous.Wheel.CumulativeRevolutions, math.MaxUint32)
	ticks := Delta(current.Wheel.LastEventTime, previous.Wheel.LastEventTime, math.MaxUint16)

	seconds := float64(ticks) / float64(wheelTimeResolution)
	if seconds <= 0 {
		return 0, true
	}
	wheelRPM := float64(revs) / (seconds / 60)
	return wheelRPM * wheelCircumferenceCM * cmToKm * minsPerHour, true
}

// CrankRPM calcula a cadência em rotações por minuto.
func CrankRPM(current, previous CyclingMeasurement) (float64, bool) {
	if current.Crank == nil || previous.Crank == nil {
		return 0, false
	}

	revs := Delta(current.Crank.CumulativeRevolutions, previous.Crank.CumulativeRevolutions, math.MaxUint16)
	ticks := Delta(current.Crank.LastEventTime, previous.Crank.LastEventTime, math.MaxUint16)

	seconds := float64(ticks) / CrankTimeResolution
	if seconds <= 0 {
		return 0, true
	}
	return float64(revs) / (seconds / 60), true
}
