package wahoo

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ErgSettleInterval é o tempo que o rolo leva para ajustar a carga depois
// de um comando ERG.
const ErgSettleInterval = 2 * time.Second

// WriteFunc escreve um comando na característica do rolo.
type WriteFunc func(cmd []byte) error

// ErgWriter limita as escritas de ERG: a primeira sai na hora e, enquanto
// o rolo se ajusta, só o alvo mais recente é guardado e enviado no
// próximo intervalo. Um comando de nível cancela o alvo pendente.
type ErgWriter struct {
	mu       sync.Mutex
	write    WriteFunc
	interval time.Duration
	pending  *uint16
	kick     chan struct{}
	writeMu  sync.Mutex
	logger   *slog.Logger
}

// NewErgWriter cria o writer. interval <= 0 usa ErgSettleInterval.
func NewErgWriter(write WriteFunc, interval time.Duration, logger *slog.Logger) *ErgWriter {
	if interval <= 0 {
		interval = ErgSettleInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ErgWriter{write: write, interval: interval, kick: make(chan struct{}, 1), logger: logger}
}

// SetErg agenda a potência alvo; nunca bloqueia.
func (w *ErgWriter) SetErg(watts uint16) {
	w.mu.Lock()
	w.pending = &watts
	w.mu.Unlock()
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// SetLevel descarta o ERG pendente e escreve o nível imediatamente.
func (w *ErgWriter) SetLevel(level uint8) error {
	w.mu.Lock()
	w.pending = nil
	w.mu.Unlock()
	return w.send(LevelCommand(level))
}

// Unlock escreve o comando de desbloqueio.
func (w *ErgWriter) Unlock() error {
	return w.send(UnlockCommand())
}

func (w *ErgWriter) send(cmd []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.write(cmd)
}

func (w *ErgWriter) takePending() (uint16, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return 0, false
	}
	watts := *w.pending
	w.pending = nil
	return watts, true
}

// Run envia os alvos ERG até o contexto ser cancelado.
func (w *ErgWriter) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.kick:
		}

		for {
			watts, ok := w.takePending()
			if !ok {
				break
			}
			if err := w.send(ErgCommand(watts)); err != nil {
				w.logger.Warn("[WAHOO] falha ao escrever ERG", "watts", watts, "err", err)
			} else {
				w.logger.Debug("[WAHOO] ERG enviado", "watts", watts)
			}

			t := time.NewTimer(w.interval)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
	}
}
