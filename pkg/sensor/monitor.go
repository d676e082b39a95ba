package sensor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-ble/ble"

	"argus-sensors/pkg/gatt"
)

// Attributes são os valores estáticos, normalmente lidos uma vez por conexão.
type Attributes struct {
	CSCFeatures    *gatt.CSCFeatures        `json:"csc_features,omitempty"`
	PowerFeatures  *gatt.PowerFeatures      `json:"power_features,omitempty"`
	SensorLocation *gatt.SensorLocation     `json:"sensor_location,omitempty"`
	BodyLocation   *gatt.BodySensorLocation `json:"body_location,omitempty"`
	DeviceInfo     map[string]string        `json:"device_info,omitempty"`
}

// Snapshot é a visão consolidada de todos os sensores acompanhados.
type Snapshot struct {
	SpeedKPH   *float64                   `json:"speed_kph,omitempty"`
	CrankRPM   *float64                   `json:"crank_rpm,omitempty"`
	PowerWatts *int                       `json:"power_watts,omitempty"`
	HeartRate  *gatt.HeartRateMeasurement `json:"heart_rate,omitempty"`
	Attributes Attributes                 `json:"attributes"`
}

// Monitor recebe os valores brutos do transporte (onCharacteristicValue) e
// encaminha cada um ao Tracker da sua característica.
type Monitor struct {
	sync.RWMutex
	trackers map[string]*Tracker
	attrs    Attributes
	logger   *slog.Logger
}

// NewMonitor cria um Monitor com trackers para CSC, Potência e Frequência
// Cardíaca. wheelCircumferenceCM <= 0 usa o padrão de 213.3 cm.
func NewMonitor(wheelCircumferenceCM float64, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	csc, power := CSCCalibration(), PowerCalibration()
	if wheelCircumferenceCM > 0 {
		csc.WheelCircumferenceCM = wheelCircumferenceCM
		power.WheelCircumferenceCM = wheelCircumferenceCM
	}
	return &Monitor{
		trackers: map[string]*Tracker{
			gatt.Key(gatt.CSCMeasurementCharUUID):   NewTracker(KindCSC, csc, logger),
			gatt.Key(gatt.PowerMeasurementCharUUID): NewTracker(KindPower, power, logger),
			gatt.Key(gatt.HRMeasurementCharUUID):    NewTracker(KindHeartRate, Calibration{}, logger),
		},
		attrs:  Attributes{DeviceInfo: map[string]string{}},
		logger: logger,
	}
}

// Tracker retorna o tracker da característica, ou nil.
func (m *Monitor) Tracker(id ble.UUID) *Tracker {
	m.RLock()
	defer m.RUnlock()
	return m.trackers[gatt.Key(id)]
}

// OnCharacteristicValue processa um valor bruto que chegou em at.
func (m *Monitor) OnCharacteristicValue(id ble.UUID, data []byte, at time.Time) (Reading, error) {
	p := gatt.Payload{Characteristic: id, Data: data, Timestamp: at}
	if t := m.Tracker(id); t != nil {
		return t.Process(p)
	}

	r := Reading{Characteristic: gatt.Key(id), Kind: "attribute", Timestamp: at}
	v, err := gatt.Decode(p)
	if err != nil {
		return r, err
	}
	r.Attribute = v

	m.Lock()
	defer m.Unlock()
	switch a := v.(type) {
	case gatt.CSCFeatures:
		m.attrs.CSCFeatures = &a
		m.logger.Info("[SENSOR] recursos CSC identificados", "features", uint16(a))
	case gatt.PowerFeatures:
		m.attrs.PowerFeatures = &a
		m.logger.Info("[SENSOR] recursos de potência identificados", "features", uint32(a))
	case gatt.SensorLocation:
		m.attrs.SensorLocation = &a
	case gatt.BodySensorLocation:
		m.attrs.BodyLocation = &a
	case gatt.DeviceString:
		m.attrs.DeviceInfo[gatt.Key(a.Characteristic)] = a.Value
	}
	return r, nil
}

// Snapshot junta os últimos valores de todos os trackers. A velocidade do
// sensor CSC tem prioridade sobre a do medidor de potência.
func (m *Monitor) Snapshot() Snapshot {
	m.RLock()
	defer m.RUnlock()

	var s Snapshot
	csc := m.trackers[gatt.Key(gatt.CSCMeasurementCharUUID)].State().Derived
	power := m.trackers[gatt.Key(gatt.PowerMeasurementCharUUID)].State().Derived

	s.SpeedKPH = firstNonNil(csc.SpeedKPH, power.SpeedKPH)
	s.CrankRPM = firstNonNil(csc.CrankRPM, power.CrankRPM)
	s.PowerWatts = power.PowerWatts
	s.HeartRate = m.trackers[gatt.Key(gatt.HRMeasurementCharUUID)].HeartRate()

	s.Attributes = m.attrs
	s.Attributes.DeviceInfo = make(map[string]string, len(m.attrs.DeviceInfo))
	for k, v := range m.attrs.DeviceInfo {
		s.Attributes.DeviceInfo[k] = v
	}
	return s
}

// SetWheelCircumference aplica a nova circunferência a todos os trackers.
func (m *Monitor) SetWheelCircumference(cm float64) {
	m.RLock()
	defer m.RUnlock()
	for _, t := range m.trackers {
		t.SetWheelCircumference(cm)
	}
	m.logger.Info("[SENSOR] circunferência da roda atualizada", "cm", cm)
}

// Reset limpa medições e atributos; usado quando a conexão cai.
func (m *Monitor) Reset() {
	m.Lock()
	defer m.Unlock()
	for _, t := range m.trackers {
		t.Reset()
	}
	m.attrs = Attributes{DeviceInfo: map[string]string{}}
}

func firstNonNil[T any](vs ...*T) *T {
	for _, v := range vs {
		if v != nil {
			return v
		}
	}
	return nil
}
