// Package sensor transforma medições decodificadas em grandezas físicas
// (velocidade, cadência, potência), guardando o estado de cada característica.
package sensor

import "argus-sensors/pkg/gatt"

// Calibration são as constantes do sensor, fornecidas na configuração.
type Calibration struct {
	WheelCircumferenceCM float64 `json:"wheel_circumference_cm"`
	WheelTimeResolution  int     `json:"wheel_time_resolution"` // 1024 (CSC) ou 2048 (Potência)
}

// CSCCalibration retorna a calibração padrão do serviço de Velocidade/Cadência.
func CSCCalibration() Calibration {
	return Calibration{WheelCircumferenceCM: gatt.DefaultWheelCircumferenceCM, WheelTimeResolution: gatt.CSCWheelTimeResolution}
}

// PowerCalibration retorna a calibração padrão do serviço de Potência.
func PowerCalibration() Calibration {
	return Calibration{WheelCircumferenceCM: gatt.DefaultWheelCircumferenceCM, WheelTimeResolution: gatt.PowerWheelTimeResolution}
}

// Derived são os valores calculados após aceitar uma medição.
// Campos nil significam "ainda não calculável".
type Derived struct {
	SpeedKPH   *float64 `json:"speed_kph,omitempty"`
	CrankRPM   *float64 `json:"crank_rpm,omitempty"`
	PowerWatts *int     `json:"power_watts,omitempty"`
}

// State é o estado de uma característica de ciclismo: a medição atual, a
// anterior e os valores derivados delas. Não há histórico além de um passo.
type State struct {
	Calibration Calibration
	Current     *gatt.CyclingMeasurement
	Previous    *gatt.CyclingMeasurement
	Derived     Derived
}

// Update aceita uma nova medição: a atual vira a anterior e os valores
// derivados são recalculados. power é a potência instantânea quando a
// medição veio do serviço de Potência.
//
// Update não altera o estado recebido; o chamador substitui o seu.
func Update(state State, m gatt.CyclingMeasurement, power *int16) (State, Derived) {
	next := State{Calibration: state.Calibration, Previous: state.Current, Current: &m}

	if power != nil {
		w := int(*power)
		next.Derived.PowerWatts = &w
	}

	if next.Previous != nil {
		if kph, ok := gatt.WheelSpeedKPH(m, *next.Previous, state.Calibration.WheelCircumferenceCM, state.Calibration.WheelTimeResolution); ok {
			next.Derived.SpeedKPH = &kph
		}
		if rpm, ok := gatt.CrankRPM(m, *next.Previous); ok {
			next.Derived.CrankRPM = &rpm
		}
	}
	return next, next.Derived
}
