package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"argus-sensors/pkg/ble"
	"argus-sensors/pkg/sensor"
)

// BroadcastInterval é o período do statusUpdate enviado aos dashboards.
const BroadcastInterval = 500 * time.Millisecond

var ErrUnknownCommand = errors.New("web: comando desconhecido")

// Command é a mensagem enviada pelo dashboard.
type Command struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatusUpdate é o estado enviado periodicamente a todos os dashboards.
type StatusUpdate struct {
	Type   string          `json:"type"`
	Sensor sensor.Snapshot `json:"sensor"`
	Link   ble.LinkStatus  `json:"link"`
}

// ReadingUpdate é enviada a cada leitura aceita.
type ReadingUpdate struct {
	Type    string         `json:"type"`
	Reading sensor.Reading `json:"reading"`
}

// Hub mantém os dashboards conectados e traduz seus comandos.
type Hub struct {
	sync.Mutex
	clients  map[*websocket.Conn]string // conexão -> id do cliente
	upgrader websocket.Upgrader
	readings chan sensor.Reading

	mon       *sensor.Monitor
	link      *ble.LinkState
	commands  chan<- ble.TrainerCommand
	cancel    context.CancelFunc
	staticDir string
	logger    *slog.Logger
}

// NewHub cria o hub. commands pode ser nil quando não há rolo a controlar;
// staticDir vazio desativa o servidor de arquivos do dashboard.
func NewHub(mon *sensor.Monitor, link *ble.LinkState, commands chan<- ble.TrainerCommand, cancel context.CancelFunc, staticDir string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		clients:   make(map[*websocket.Conn]string),
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		readings:  make(chan sensor.Reading, 64),
		mon:       mon,
		link:      link,
		commands:  commands,
		cancel:    cancel,
		staticDir: staticDir,
		logger:    logger,
	}
}

// HubRoutine gerencia o ciclo de vida do servidor web.
func HubRoutine(ctx context.Context, addr string, hub *Hub, wg *sync.WaitGroup) {
	defer wg.Done()
	hub.logger.Info("[WEB] Goroutine do Hub Web iniciada.")
	server := &http.Server{Addr: addr, Handler: hub.Handler()}

	go hub.broadcastLoop(ctx)

	go func() {
		hub.logger.Info("[WEB] Servidor web iniciado", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hub.logger.Error("[WEB] ❌ Falha ao iniciar servidor web", "err", err)
			if hub.cancel != nil {
				hub.cancel()
			}
		}
	}()

	<-ctx.Done()
	hub.logger.Info("[WEB] Desligando o servidor web...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		hub.logger.Warn("[WEB] Erro no desligamento do servidor web", "err", err)
	}
	hub.closeAll()
	hub.logger.Info("[WEB] Servidor web desligado.")
}

// Handler expõe /ws e, se configurado, os arquivos do dashboard.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	if h.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(h.staticDir)))
	}
	return mux
}

// Publish implementa ble.ReadingSink. Leituras são descartadas se os
// dashboards estiverem atrasados.
func (h *Hub) Publish(r sensor.Reading) {
	select {
	case h.readings <- r:
	default:
	}
}

// ClientCount retorna quantos dashboards estão conectados.
func (h *Hub) ClientCount() int {
	h.Lock()
	defer h.Unlock()
	return len(h.clients)
}

// Status monta o statusUpdate atual.
func (h *Hub) Status() StatusUpdate {
	return StatusUpdate{Type: "statusUpdate", Sensor: h.mon.Snapshot(), Link: h.link.Status()}
}

// Broadcast envia o statusUpdate a todos os dashboards.
func (h *Hub) Broadcast() {
	msg, err := json.Marshal(h.Status())
	if err != nil {
		h.logger.Error("[WEB] Falha ao serializar status", "err", err)
		return
	}
	h.send(msg)
}

func (h *Hub) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(BroadcastInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Broadcast()
		case r := <-h.readings:
			msg, err := json.Marshal(ReadingUpdate{Type: "reading", Reading: r})
			if err != nil {
				h.logger.Warn("[WEB] Falha ao serializar leitura", "err", err)
				continue
			}
			h.send(msg)
		}
	}
}

func (h *Hub) send(msg []byte) {
	h.Lock()
	defer h.Unlock()
	for conn, id := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("[WEB] Removendo cliente com erro de escrita", "client", id, "err", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) closeAll() {
	h.Lock()
	defer h.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("[WEB] Falha no upgrade", "err", err)
		return
	}

	id := uuid.NewString()
	h.Lock()
	h.clients[conn] = id
	h.Unlock()
	h.logger.Info("[WEB] Novo cliente web conectado", "client", id, "addr", conn.RemoteAddr())

	defer func() {
		h.Lock()
		delete(h.clients, conn)
		h.Unlock()
		conn.Close()
		h.logger.Info("[WEB] Cliente web desconectado", "client", id)
	}()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		if err := h.HandleCommand(cmd); err != nil {
			h.logger.Warn("[WEB] Comando rejeitado", "client", id, "type", cmd.Type, "err", err)
		}
	}
}

// HandleCommand aplica um comando do dashboard.
func (h *Hub) HandleCommand(cmd Command) error {
	switch cmd.Type {
	case "setWheelCircumference":
		var p struct {
			CM float64 `json:"cm"`
		}
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("web: %s: %w", cmd.Type, err)
		}
		if p.CM <= 0 {
			return fmt.Errorf("web: circunferência inválida %v", p.CM)
		}
		h.mon.SetWheelCircumference(p.CM)

	case "setErgWatts":
		var p struct {
			Watts uint16 `json:"watts"`
		}
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("web: %s: %w", cmd.Type, err)
		}
		return h.forward(ble.TrainerCommand{Kind: ble.CommandErg, Watts: p.Watts})

	case "setLevel":
		var p struct {
			Level uint8 `json:"level"`
		}
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("web: %s: %w", cmd.Type, err)
		}
		return h.forward(ble.TrainerCommand{Kind: ble.CommandLevel, Level: p.Level})

	case "resetEnergy":
		return h.forward(ble.TrainerCommand{Kind: ble.CommandResetEnergy})

	case "shutdown":
		h.logger.Info("[WEB] Comando de desligamento recebido!")
		if h.cancel != nil {
			h.cancel()
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return nil
}

func (h *Hub) forward(c ble.TrainerCommand) error {
	if h.commands == nil {
		return errors.New("web: nenhum rolo conectado")
	}
	select {
	case h.commands <- c:
		return nil
	default:
		return errors.New("web: fila de comandos cheia")
	}
}
