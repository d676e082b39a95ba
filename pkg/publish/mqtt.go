// Package publish envia as leituras aceitas para um broker MQTT, uma
// mensagem JSON por leitura no tópico <prefixo>/<sensor>/reading.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"argus-sensors/pkg/config"
	"argus-sensors/pkg/sensor"
)

const keepAlive = 30 * time.Second

// PahoClient é o subconjunto do cliente paho usado aqui.
type PahoClient interface {
	Connect(ctx context.Context, packet *paho.Connect) (*paho.Connack, error)
	Publish(ctx context.Context, packet *paho.Publish) (*paho.PublishResponse, error)
	Disconnect(packet *paho.Disconnect) error
}

// Publisher implementa ble.ReadingSink publicando cada leitura no broker.
type Publisher struct {
	client PahoClient
	prefix string
	queue  chan sensor.Reading
	logger *slog.Logger
}

// New cria um Publisher sobre um cliente já conectado.
func New(client PahoClient, topicPrefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{client: client, prefix: topicPrefix, queue: make(chan sensor.Reading, 128), logger: logger}
}

// Dial abre a conexão TCP com o broker e faz o CONNECT.
func Dial(ctx context.Context, cfg config.MQTT, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("publish: conectando a %s: %w", cfg.Broker, err)
	}

	clientID := "argus-sensors-" + uuid.NewString()
	client := paho.NewClient(paho.ClientConfig{
		ClientID: clientID,
		Conn:     conn,
		OnClientError: func(err error) {
			logger.Error("[MQTT] Erro no cliente", "err", err)
		},
	})

	ack, err := client.Connect(ctx, &paho.Connect{
		ClientID:   clientID,
		CleanStart: true,
		KeepAlive:  uint16(keepAlive.Seconds()),
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("publish: CONNECT: %w", err)
	}
	if ack.ReasonCode != 0 {
		_ = conn.Close()
		return nil, fmt.Errorf("publish: broker recusou a conexão (reason code %d)", ack.ReasonCode)
	}
	logger.Info("[MQTT] ✅ Conectado ao broker", "broker", cfg.Broker, "client_id", clientID)
	return New(client, cfg.TopicPrefix, logger), nil
}

// Topic retorna o tópico das leituras de um sensor ("csc", "power", ...).
func (p *Publisher) Topic(sensorKind string) string {
	return p.prefix + "/" + sensorKind + "/reading"
}

// Publish enfileira a leitura; descarta se a fila estiver cheia.
func (p *Publisher) Publish(r sensor.Reading) {
	select {
	case p.queue <- r:
	default:
		p.logger.Warn("[MQTT] Fila cheia, leitura descartada", "kind", r.Kind)
	}
}

// Run publica as leituras enfileiradas até o contexto ser cancelado.
func (p *Publisher) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-p.queue:
			if err := p.send(ctx, r); err != nil {
				p.logger.Warn("[MQTT] Falha ao publicar", "kind", r.Kind, "err", err)
			}
		}
	}
}

func (p *Publisher) send(ctx context.Context, r sensor.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	pub := &paho.Publish{
		QoS:     0,
		Topic:   p.Topic(r.Kind),
		Payload: payload,
		Properties: &paho.PublishProperties{
			ContentType: "application/json",
		},
	}
	res, err := p.client.Publish(ctx, pub)
	if err != nil {
		return err
	}
	// Com QoS 0 o paho pode devolver (nil, nil).
	if res != nil && res.ReasonCode >= 0x80 {
		return fmt.Errorf("publish: reason code %d", res.ReasonCode)
	}
	return nil
}

// Close envia DISCONNECT ao broker.
func (p *Publisher) Close() error {
	return p.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
}
