package ble

import (
	"context"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"

	"argus-sensors/pkg/config"
	"argus-sensors/pkg/gatt"
	"argus-sensors/pkg/sensor"
	"argus-sensors/pkg/wahoo"
)

// ReadingSink recebe cada leitura aceita. Publish não deve bloquear.
type ReadingSink interface {
	Publish(r sensor.Reading)
}

// Sinks repassa cada leitura a vários destinos.
type Sinks []ReadingSink

func (s Sinks) Publish(r sensor.Reading) {
	for _, sink := range s {
		sink.Publish(r)
	}
}

// ClientRoutine gerencia a conexão com o sensor físico: descobre o perfil,
// lê os atributos, assina as medições e encaminha os comandos do rolo.
func ClientRoutine(ctx context.Context, cfg *config.AppConfig, mon *sensor.Monitor, commandChan <-chan TrainerCommand, sink ReadingSink, link *LinkState, logger *slog.Logger, wg *sync.WaitGroup) {
	// Garante que o WaitGroup seja notificado quando a goroutine terminar.
	defer wg.Done()
	logger.Info("[CLIENTE] Goroutine do cliente iniciada.")

	// Configura qual adaptador Bluetooth físico usar (ex: hci0).
	d, err := linux.NewDevice(ble.OptDeviceID(cfg.AdapterID))
	if err != nil {
		logger.Error("[CLIENTE] ❌ Falha ao selecionar adaptador", "adapter", cfg.AdapterID, "err", err)
		return
	}
	ble.SetDefaultDevice(d)

	// Loop para sempre tentar se reconectar se a conexão cair.
	for {
		if ctx.Err() != nil {
			return
		}
		logger.Info("[CLIENTE] Procurando pelo sensor", "mac", cfg.SensorMAC, "adapter", cfg.AdapterID)

		client, err := ble.Connect(ctx, func(a ble.Advertisement) bool {
			return strings.EqualFold(a.Addr().String(), cfg.SensorMAC)
		})
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		if done := runSession(ctx, client, mon, commandChan, sink, link, logger); done {
			return
		}
	}
}

// runSession cuida de uma conexão. Retorna true quando o contexto foi cancelado.
func runSession(ctx context.Context, client ble.Client, mon *sensor.Monitor, commandChan <-chan TrainerCommand, sink ReadingSink, link *LinkState, logger *slog.Logger) bool {
	rssi := client.ReadRSSI()
	logger.Info("[CLIENTE] ✅ Conectado ao sensor!", "name", client.Name(), "rssi", rssi)

	link.Lock()
	link.SensorConnected = true
	link.SensorName = client.Name()
	link.RSSI = rssi
	link.SignalLevel = SignalLevel(rssi, SignalLevels)
	link.Unlock()

	// Canal sinalizado pela biblioteca quando a conexão for perdida.
	disconnectedChan := client.Disconnected()

	sessionCtx, cancelSession := context.WithCancel(ctx)
	var sessionWG sync.WaitGroup
	defer func() {
		cancelSession()
		sessionWG.Wait()
		mon.Reset()
		link.Lock()
		link.SensorConnected = false
		link.TrainerFound = false
		link.Unlock()
	}()

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		logger.Error("[CLIENTE] ❌ Falha ao descobrir perfil", "err", err)
		client.CancelConnection()
		return ctx.Err() != nil
	}

	readAttributes(client, profile, mon, logger)

	subscribed := 0
	for _, u := range MeasurementChars {
		c := gatt.FindCharacteristic(profile, u)
		if c == nil {
			continue
		}
		id := c.UUID
		handler := func(data []byte) {
			r, err := mon.OnCharacteristicValue(id, data, time.Now())
			if err != nil || r.Discarded {
				return
			}
			if sink != nil {
				sink.Publish(r)
			}
		}
		if err := client.Subscribe(c, false, handler); err != nil {
			logger.Warn("[CLIENTE] Falha ao se inscrever", "characteristic", gatt.Key(id), "err", err)
			continue
		}
		subscribed++
	}
	if subscribed == 0 {
		logger.Error("[CLIENTE] ❌ Nenhuma característica de medição encontrada.")
		client.CancelConnection()
		return ctx.Err() != nil
	}
	logger.Info("[CLIENTE] 🔔 Lendo medições do sensor...", "characteristics", subscribed)

	erg := setupTrainer(sessionCtx, client, profile, link, logger, &sessionWG)

	rssiTicker := time.NewTicker(5 * time.Second)
	defer rssiTicker.Stop()

	for {
		select {
		case <-disconnectedChan:
			logger.Warn("[CLIENTE] 🔌 Desconectado do sensor. Tentando reconectar...")
			return false

		case <-rssiTicker.C:
			rssi := client.ReadRSSI()
			link.Lock()
			link.RSSI = rssi
			link.SignalLevel = SignalLevel(rssi, SignalLevels)
			link.Unlock()

		case cmd := <-commandChan:
			handleCommand(client, profile, erg, cmd, logger)

		case <-ctx.Done():
			logger.Info("[CLIENTE] Encerrando a goroutine do cliente.")
			client.CancelConnection()
			return true
		}
	}
}

// readAttributes lê features, localização e informações do dispositivo.
func readAttributes(client ble.Client, profile *ble.Profile, mon *sensor.Monitor, logger *slog.Logger) {
	for _, u := range AttributeChars {
		c := gatt.FindCharacteristic(profile, u)
		if c == nil || c.Property&ble.CharRead == 0 {
			continue
		}
		data, err := client.ReadCharacteristic(c)
		if err != nil {
			logger.Warn("[CLIENTE] Falha ao ler atributo", "characteristic", gatt.Key(c.UUID), "err", err)
			continue
		}
		if _, err := mon.OnCharacteristicValue(c.UUID, data, time.Now()); err != nil {
			logger.Warn("[CLIENTE] Atributo inválido", "characteristic", gatt.Key(c.UUID), "payload", hex.EncodeToString(data), "err", err)
		}
	}
}

// setupTrainer procura a característica Wahoo, desbloqueia o rolo e inicia
// o ErgWriter. Retorna nil se o sensor não for um rolo Wahoo.
func setupTrainer(ctx context.Context, client ble.Client, profile *ble.Profile, link *LinkState, logger *slog.Logger, wg *sync.WaitGroup) *wahoo.ErgWriter {
	tc := gatt.FindCharacteristic(profile, wahoo.TrainerCharUUID)
	if tc == nil {
		return nil
	}

	if err := client.Subscribe(tc, false, func(data []byte) {
		r, err := wahoo.ParseResponse(data)
		if err != nil {
			logger.Warn("[CLIENTE] Resposta do rolo não reconhecida", "payload", hex.EncodeToString(data), "err", err)
			return
		}
		logger.Debug("[CLIENTE] Resposta do rolo", "opcode", r.OpCode.String(), "success", r.Success)
	}); err != nil {
		logger.Warn("[CLIENTE] Falha ao se inscrever no rolo", "err", err)
	}

	erg := wahoo.NewErgWriter(func(cmd []byte) error {
		logger.Debug("[CLIENTE] >> Comando do rolo", "payload", hex.EncodeToString(cmd))
		return client.WriteCharacteristic(tc, cmd, false)
	}, wahoo.ErgSettleInterval, logger)

	if err := erg.Unlock(); err != nil {
		logger.Warn("[CLIENTE] Falha ao desbloquear o rolo", "err", err)
	}
	link.Lock()
	link.TrainerFound = true
	link.Unlock()

	wg.Add(1)
	go erg.Run(ctx, wg)
	logger.Info("[CLIENTE] 🚲 Rolo Wahoo encontrado e desbloqueado.")
	return erg
}

func handleCommand(client ble.Client, profile *ble.Profile, erg *wahoo.ErgWriter, cmd TrainerCommand, logger *slog.Logger) {
	switch cmd.Kind {
	case CommandResetEnergy:
		cp := gatt.FindCharacteristic(profile, gatt.HRControlPointCharUUID)
		if cp == nil {
			logger.Warn("[CLIENTE] -- Sensor sem HR Control Point.")
			return
		}
		if err := client.WriteCharacteristic(cp, gatt.ResetEnergyExpendedCommand(), false); err != nil {
			logger.Warn("[CLIENTE] Erro ao zerar energia", "err", err)
		}

	case CommandErg, CommandLevel:
		if erg == nil {
			logger.Warn("[CLIENTE] -- Comando de resistência recebido, mas o sensor não é um rolo.")
			return
		}
		if cmd.Kind == CommandErg {
			erg.SetErg(cmd.Watts)
			return
		}
		if err := erg.SetLevel(cmd.Level); err != nil {
			logger.Warn("[CLIENTE] Erro ao enviar nível", "level", cmd.Level, "err", err)
		}
	}
}
