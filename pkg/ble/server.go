package ble

import (
	"context"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"

	"argus-sensors/pkg/config"
	"argus-sensors/pkg/gatt"
	"argus-sensors/pkg/wahoo"
)

// Intervalos de notificação do sensor virtual.
const (
	SimTickInterval         = 50 * time.Millisecond
	MeasurementInterval     = 1 * time.Second
	HeartRateNotifyInterval = 2 * time.Second
)

// Valores estáticos expostos pelo sensor virtual.
var (
	SimCSCFeatures   = gatt.CSCWheelRevolutionsSupported | gatt.CSCCrankRevolutionsSupported
	SimPowerFeatures = gatt.PowerPedalBalanceSupported | gatt.PowerWheelRevolutionsSupported | gatt.PowerCrankRevolutionsSupported
	SimDeviceInfo    = map[string]string{
		gatt.Key(gatt.ManufacturerNameCharUUID): "Argus Sensors",
		gatt.Key(gatt.ModelNumberCharUUID):      "ArgusSim",
		gatt.Key(gatt.SerialNumberCharUUID):     "0001",
		gatt.Key(gatt.FirmwareRevisionCharUUID): "1.0.0",
	}
)

// ServerRoutine anuncia o sensor virtual (Potência + CSC + Frequência
// Cardíaca + rolo Wahoo) e envia as medições geradas pelo Simulator.
func ServerRoutine(ctx context.Context, cfg *config.AppConfig, sim *Simulator, link *LinkState, logger *slog.Logger, wg *sync.WaitGroup) {
	defer wg.Done()
	logger.Info("[SERVIDOR] Goroutine do servidor iniciada.")

	d, err := linux.NewDevice(ble.OptDeviceID(cfg.AdapterID))
	if err != nil {
		logger.Error("[SERVIDOR] ❌ Falha ao selecionar adaptador", "adapter", cfg.AdapterID, "err", err)
		return
	}
	ble.SetDefaultDevice(d)

	// O relógio da simulação avança independente de haver apps inscritos.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(SimTickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sim.Advance(SimTickInterval)
			}
		}
	}()

	for _, svc := range NewSimServices(ctx, sim, link, logger) {
		if err := d.AddService(svc); err != nil {
			logger.Error("[SERVIDOR] ❌ Falha ao adicionar serviço", "service", gatt.Key(svc.UUID), "err", err)
			return
		}
	}

	for ctx.Err() == nil {
		logger.Info("[SERVIDOR] 📣 Anunciando", "name", cfg.VirtualSensorName)
		err = ble.AdvertiseNameAndServices(ctx, cfg.VirtualSensorName, gatt.PowerSvcUUID, gatt.CSCSvcUUID, gatt.HeartRateSvcUUID, gatt.DeviceInfoSvcUUID)
		if err != nil && ctx.Err() == nil {
			logger.Warn("[SERVIDOR] Ciclo de anúncio terminado. Reiniciando...", "err", err)
		}
	}
	logger.Info("[SERVIDOR] Encerrando a goroutine do servidor.")
}

// NewSimServices monta os serviços GATT do sensor virtual.
func NewSimServices(ctx context.Context, sim *Simulator, link *LinkState, logger *slog.Logger) []*ble.Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// --- Potência ---
	powerSvc := ble.NewService(gatt.PowerSvcUUID)
	powerSvc.NewCharacteristic(gatt.PowerMeasurementCharUUID).HandleNotify(notifyLoop(ctx, "POTÊNCIA", MeasurementInterval, link, logger, func() []byte {
		data, _ := sim.PowerMeasurement().MarshalBinary()
		return data
	}))
	powerSvc.NewCharacteristic(gatt.PowerFeatureCharUUID).HandleRead(readValue(le32(uint32(SimPowerFeatures))))
	powerSvc.NewCharacteristic(gatt.SensorLocationCharUUID).HandleRead(readValue(gatt.EncodeSensorLocation(gatt.LocationRearWheel)))

	trainerChar := powerSvc.NewCharacteristic(wahoo.TrainerCharUUID)
	responses := make(chan []byte, 4)
	trainerChar.HandleWrite(ble.WriteHandlerFunc(func(req ble.Request, rsp ble.ResponseWriter) {
		data := req.Data()
		logger.Info("[SERVIDOR] << Comando do rolo recebido", "payload", hex.EncodeToString(data))
		cmd, err := wahoo.ParseCommand(data)
		if err != nil {
			logger.Warn("[SERVIDOR] Comando do rolo inválido", "err", err)
			return
		}
		sim.Apply(cmd)
		select {
		case responses <- wahoo.Acknowledge(cmd):
		default:
		}
	}))
	trainerChar.HandleNotify(ble.NotifyHandlerFunc(func(req ble.Request, ntf ble.Notifier) {
		logger.Info("[SERVIDOR] App inscrito para respostas do rolo", "addr", req.Conn().RemoteAddr())
		for {
			select {
			case <-ctx.Done():
				return
			case <-ntf.Context().Done():
				return
			case r := <-responses:
				if _, err := ntf.Write(r); err != nil {
					return
				}
			}
		}
	}))

	// --- Velocidade e Cadência ---
	cscSvc := ble.NewService(gatt.CSCSvcUUID)
	cscSvc.NewCharacteristic(gatt.CSCMeasurementCharUUID).HandleNotify(notifyLoop(ctx, "CSC", MeasurementInterval, link, logger, func() []byte {
		return gatt.MarshalCSC(sim.CSCMeasurement())
	}))
	cscSvc.NewCharacteristic(gatt.CSCFeatureCharUUID).HandleRead(readValue(le16(uint16(SimCSCFeatures))))

	// --- Frequência Cardíaca ---
	hrSvc := ble.NewService(gatt.HeartRateSvcUUID)
	hrSvc.NewCharacteristic(gatt.HRMeasurementCharUUID).HandleNotify(notifyLoop(ctx, "F.C.", HeartRateNotifyInterval, link, logger, func() []byte {
		data, _ := sim.HeartRateMeasurement().MarshalBinary()
		return data
	}))
	hrSvc.NewCharacteristic(gatt.BodySensorLocationUUID).HandleRead(readValue([]byte{byte(gatt.BodyChest)}))
	hrSvc.NewCharacteristic(gatt.HRControlPointCharUUID).HandleWrite(ble.WriteHandlerFunc(func(req ble.Request, rsp ble.ResponseWriter) {
		if len(req.Data()) > 0 && req.Data()[0] == gatt.ResetEnergyExpendedCommand()[0] {
			logger.Info("[SERVIDOR] Energia acumulada zerada.")
			sim.ResetEnergy()
		}
	}))

	// --- Informações do Dispositivo ---
	deviceInfoSvc := ble.NewService(gatt.DeviceInfoSvcUUID)
	for _, u := range []ble.UUID{gatt.ManufacturerNameCharUUID, gatt.ModelNumberCharUUID, gatt.SerialNumberCharUUID, gatt.FirmwareRevisionCharUUID} {
		deviceInfoSvc.NewCharacteristic(u).HandleRead(readValue([]byte(SimDeviceInfo[gatt.Key(u)])))
	}

	return []*ble.Service{powerSvc, cscSvc, hrSvc, deviceInfoSvc}
}

// notifyLoop envia payload() a cada intervalo enquanto o app estiver inscrito.
func notifyLoop(ctx context.Context, name string, interval time.Duration, link *LinkState, logger *slog.Logger, payload func() []byte) ble.NotifyHandler {
	return ble.NotifyHandlerFunc(func(req ble.Request, ntf ble.Notifier) {
		logger.Info("[SERVIDOR] ✅ App inscrito", "char", name, "addr", req.Conn().RemoteAddr())
		link.Lock()
		link.AppConnected = true
		link.Unlock()
		defer func() {
			link.Lock()
			link.AppConnected = false
			link.Unlock()
			logger.Info("[SERVIDOR] 🔌 App desinscrito", "char", name, "addr", req.Conn().RemoteAddr())
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ntf.Context().Done():
				return
			case <-ticker.C:
				data := payload()
				logger.Debug("[SERVIDOR] Enviando notificação", "char", name, "payload", hex.EncodeToString(data))
				if _, err := ntf.Write(data); err != nil {
					return
				}
			}
		}
	})
}

func readValue(v []byte) ble.ReadHandler {
	return ble.ReadHandlerFunc(func(req ble.Request, rsp ble.ResponseWriter) {
		rsp.Write(v)
	})
}

func le16(v uint16) []byte { return []byte{byte(v), byte(v >> 8)} }

func le32(v uint32) []byte { return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)} }
