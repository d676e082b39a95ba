package sensor

import (
	"time"

	"argus-sensors/pkg/gatt"
)

// Limites do intervalo mínimo entre amostras aceitas.
const (
	DefaultBurstInterval = 800 * time.Millisecond
	MinBurstInterval     = 500 * time.Millisecond
	MaxBurstInterval     = 1500 * time.Millisecond
)

// RequiredInterval calcula o intervalo mínimo entre amostras: 90% do tempo
// de uma volta de roda na última velocidade conhecida, limitado a
// [0.5s, 1.5s]. Sem velocidade positiva conhecida, usa 0.8s.
func RequiredInterval(wheelCircumferenceCM float64, lastSpeedKPH *float64) time.Duration {
	if lastSpeedKPH == nil || *lastSpeedKPH <= 0 || wheelCircumferenceCM <= 0 {
		return DefaultBurstInterval
	}
	speedCMS := *lastSpeedKPH * 100000 / 3600
	interval := time.Duration(wheelCircumferenceCM / speedCMS * 0.9 * float64(time.Second))
	return min(max(interval, MinBurstInterval), MaxBurstInterval)
}

// BurstFilter descarta notificações duplicadas de sensores de
// velocidade/cadência baratos, que às vezes mandam a mesma leitura em
// rajadas de duas ou três.
type BurstFilter struct {
	WheelCircumferenceCM float64
}

// Accept diz se uma amostra que chegou em now deve substituir a última
// aceita. A primeira amostra é sempre aceita.
func (f BurstFilter) Accept(last *gatt.CyclingMeasurement, lastSpeedKPH *float64, now time.Time) bool {
	if last == nil {
		return true
	}
	return now.Sub(last.Timestamp) > RequiredInterval(f.WheelCircumferenceCM, lastSpeedKPH)
}
