package sensor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"argus-sensors/pkg/gatt"
)

// Kind identifica qual medição um Tracker acompanha.
type Kind int

const (
	KindCSC Kind = iota
	KindPower
	KindHeartRate
)

func (k Kind) String() string {
	switch k {
	case KindCSC:
		return "csc"
	case KindPower:
		return "power"
	case KindHeartRate:
		return "heart_rate"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Reading é o resultado de processar uma notificação.
type Reading struct {
	Characteristic string    `json:"characteristic"`
	Kind           string    `json:"kind"`
	Timestamp      time.Time `json:"timestamp"`
	Discarded      bool      `json:"discarded,omitempty"` // Barrada pelo filtro de rajadas
	Derived
	HeartRate *gatt.HeartRateMeasurement `json:"heart_rate,omitempty"`
	Attribute any                        `json:"attribute,omitempty"` // Features, localização, strings
}

// Tracker guarda o estado de UMA característica de medição. O mutex garante
// no máximo uma decodificação+atualização em andamento por característica,
// mesmo que o transporte entregue notificações em goroutines diferentes.
type Tracker struct {
	sync.Mutex
	kind      Kind
	state     State
	filter    *BurstFilter // Só para CSC
	heartRate *gatt.HeartRateMeasurement
	logger    *slog.Logger
}

// NewTracker cria um Tracker. logger pode ser nil.
func NewTracker(kind Kind, cal Calibration, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Tracker{
		kind:   kind,
		state:  State{Calibration: cal},
		logger: logger.With("kind", kind.String()),
	}
	if kind == KindCSC {
		t.filter = &BurstFilter{WheelCircumferenceCM: cal.WheelCircumferenceCM}
	}
	return t
}

func (t *Tracker) Kind() Kind { return t.kind }

// Process decodifica o payload e, se a amostra for aceita, atualiza o estado.
// Erros de decodificação são por amostra: o estado anterior é mantido.
func (t *Tracker) Process(p gatt.Payload) (Reading, error) {
	t.Lock()
	defer t.Unlock()

	r := Reading{Characteristic: gatt.Key(p.Characteristic), Kind: t.kind.String(), Timestamp: p.Timestamp}

	switch t.kind {
	case KindHeartRate:
		m, err := gatt.DecodeHeartRate(p.Data)
		if err != nil {
			return r, t.fail(p, err)
		}
		t.heartRate = &m
		r.HeartRate = &m
		return r, nil

	case KindPower:
		m, err := gatt.DecodePower(p.Data)
		if err != nil {
			return r, t.fail(p, err)
		}
		m.Timestamp = p.Timestamp
		t.state, r.Derived = Update(t.state, m.CyclingMeasurement, &m.InstantaneousPower)
		return r, nil

	case KindCSC:
		m, err := gatt.DecodeCSC(p.Data)
		if err != nil {
			return r, t.fail(p, err)
		}
		m.Timestamp = p.Timestamp
		if !t.filter.Accept(t.state.Current, t.state.Derived.SpeedKPH, p.Timestamp) {
			t.logger.Debug("[SENSOR] amostra descartada pelo filtro de rajadas",
				"since_last", p.Timestamp.Sub(t.state.Current.Timestamp),
				"required", RequiredInterval(t.filter.WheelCircumferenceCM, t.state.Derived.SpeedKPH))
			r.Discarded = true
			r.Derived = t.state.Derived
			return r, nil
		}
		t.state, r.Derived = Update(t.state, m, nil)
		return r, nil
	}
	return r, fmt.Errorf("sensor: tipo de tracker inválido %d", int(t.kind))
}

func (t *Tracker) fail(p gatt.Payload, err error) error {
	t.logger.Warn("[SENSOR] payload inválido descartado", "characteristic", gatt.Key(p.Characteristic), "payload", fmt.Sprintf("% x", p.Data), "err", err)
	return fmt.Errorf("sensor %s: %w", t.kind, err)
}

// State retorna uma cópia do estado atual.
func (t *Tracker) State() State {
	t.Lock()
	defer t.Unlock()
	return t.state
}

// HeartRate retorna a última medição cardíaca, se houver.
func (t *Tracker) HeartRate() *gatt.HeartRateMeasurement {
	t.Lock()
	defer t.Unlock()
	return t.heartRate
}

// SetWheelCircumference troca a circunferência sem perder as medições.
func (t *Tracker) SetWheelCircumference(cm float64) {
	t.Lock()
	defer t.Unlock()
	t.state.Calibration.WheelCircumferenceCM = cm
	if t.filter != nil {
		t.filter.WheelCircumferenceCM = cm
	}
}

// Reset descarta as medições, por exemplo após uma reconexão.
func (t *Tracker) Reset() {
	t.Lock()
	defer t.Unlock()
	t.state = State{Calibration: t.state.Calibration}
	t.heartRate = nil
}
