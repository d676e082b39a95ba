package ble

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"argus-sensors/pkg/gatt"
	"argus-sensors/pkg/wahoo"
)

// Simulator é o modelo físico do sensor virtual: a partir de potência,
// cadência e velocidade, acumula revoluções e os tempos de evento como um
// sensor real faria.
type Simulator struct {
	sync.RWMutex
	PowerWatts int
	CadenceRPM float64
	SpeedKPH   float64
	HeartRate  int
	Level      uint8
	ErgTarget  *uint16
	Noise      bool // Ruído de ±2 W na potência.

	wheelCM float64
	clock   float64 // Segundos desde o início da simulação.

	wheelPos, crankPos         float64 // Revoluções fracionárias.
	wheelRevs                  uint32
	crankRevs                  uint16
	wheelEventSec, crankEvtSec float64
	energyJ                    float64
}

// NewSimulator cria o modelo com valores de um pedal leve.
func NewSimulator(wheelCircumferenceCM float64) *Simulator {
	if wheelCircumferenceCM <= 0 {
		wheelCircumferenceCM = gatt.DefaultWheelCircumferenceCM
	}
	return &Simulator{
		PowerWatts: 150,
		CadenceRPM: 85,
		SpeedKPH:   28,
		HeartRate:  120,
		wheelCM:    wheelCircumferenceCM,
	}
}

// Advance avança o relógio da simulação em dt.
func (s *Simulator) Advance(dt time.Duration) {
	s.Lock()
	defer s.Unlock()

	sec := dt.Seconds()
	if sec <= 0 {
		return
	}
	s.clock += sec
	s.energyJ += float64(s.PowerWatts) * sec

	wheelRate := s.SpeedKPH * 100000 / 3600 / s.wheelCM // voltas/s
	if wheelRate > 0 {
		s.wheelPos += wheelRate * sec
		if whole := math.Floor(s.wheelPos); uint32(whole) != s.wheelRevs {
			s.wheelRevs = uint32(whole)
			s.wheelEventSec = s.clock - (s.wheelPos-whole)/wheelRate
		}
	}

	crankRate := s.CadenceRPM / 60
	if crankRate > 0 {
		s.crankPos += crankRate * sec
		if whole := math.Floor(s.crankPos); uint16(uint64(whole)) != s.crankRevs {
			s.crankRevs = uint16(uint64(whole))
			s.crankEvtSec = s.clock - (s.crankPos-whole)/crankRate
		}
	}
}

func ticks(sec float64, resolution int) uint16 {
	return uint16(uint64(sec * float64(resolution)))
}

func (s *Simulator) wheel(resolution int) *gatt.WheelRevolutions {
	return &gatt.WheelRevolutions{CumulativeRevolutions: s.wheelRevs, LastEventTime: ticks(s.wheelEventSec, resolution)}
}

func (s *Simulator) crank() *gatt.CrankRevolutions {
	return &gatt.CrankRevolutions{CumulativeRevolutions: s.crankRevs, LastEventTime: ticks(s.crankEvtSec, gatt.CrankTimeResolution)}
}

// CSCMeasurement monta a medição de velocidade e cadência atual.
func (s *Simulator) CSCMeasurement() gatt.CyclingMeasurement {
	s.RLock()
	defer s.RUnlock()
	return gatt.CyclingMeasurement{Wheel: s.wheel(gatt.CSCWheelTimeResolution), Crank: s.crank()}
}

// PowerMeasurement monta a medição de potência atual, com dados de roda
// no relógio de 1/2048 s.
func (s *Simulator) PowerMeasurement() gatt.PowerMeasurement {
	s.RLock()
	defer s.RUnlock()
	power := s.PowerWatts
	if s.Noise && power > 0 {
		power += rand.Intn(5) - 2
	}
	balance := uint8(100) // 50% em unidades de 1/2 %
	return gatt.PowerMeasurement{
		CyclingMeasurement: gatt.CyclingMeasurement{Wheel: s.wheel(gatt.PowerWheelTimeResolution), Crank: s.crank()},
		InstantaneousPower: int16(max(power, 0)),
		PedalPowerBalance:  &balance,
	}
}

// HeartRateMeasurement monta a medição cardíaca atual.
func (s *Simulator) HeartRateMeasurement() gatt.HeartRateMeasurement {
	s.RLock()
	defer s.RUnlock()
	kj := uint16(min(s.energyJ/1000, math.MaxUint16))
	return gatt.HeartRateMeasurement{
		HeartRate:      uint16(max(s.HeartRate, 0)),
		Contact:        gatt.ContactDetected,
		EnergyExpended: &kj,
	}
}

// ResetEnergy zera a energia acumulada (HR Control Point).
func (s *Simulator) ResetEnergy() {
	s.Lock()
	defer s.Unlock()
	s.energyJ = 0
}

// Apply aplica um comando do rolo. ERG fixa a potência no alvo; nível
// escolhe uma potência proporcional à resistência.
func (s *Simulator) Apply(c wahoo.Command) {
	s.Lock()
	defer s.Unlock()
	switch c.OpCode {
	case wahoo.OpSetErgMode:
		w := c.Watts
		s.ErgTarget = &w
		s.PowerWatts = int(w)
	case wahoo.OpSetLevelMode:
		s.ErgTarget = nil
		s.Level = c.Level
		s.PowerWatts = 50 + int(c.Level)*25
	}
	// Frequência cardíaca acompanha a potência.
	s.HeartRate = 80 + int(float64(s.PowerWatts)*0.3)
}
