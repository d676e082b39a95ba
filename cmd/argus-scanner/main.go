// argus-scanner: descobre o perfil de um sensor BLE, mostra os atributos
// decodificados e mede o jitter das notificações de uma característica.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"

	argusble "argus-sensors/pkg/ble"
	"argus-sensors/pkg/config"
	"argus-sensors/pkg/gatt"
	"argus-sensors/pkg/sensor"
)

const numSamples = 200

var measurementByName = map[string]ble.UUID{
	"power": gatt.PowerMeasurementCharUUID,
	"csc":   gatt.CSCMeasurementCharUUID,
	"hr":    gatt.HRMeasurementCharUUID,
}

func main() {
	macAddress := flag.String("mac", "", "Endereço MAC do dispositivo a ser testado (obrigatório)")
	adapterID := flag.Int("adapter", 0, "ID do adaptador HCI a ser usado (ex: 0 para hci0)")
	discoverMode := flag.Bool("discover", false, "Apenas descobre e lista todos os serviços e características")
	charName := flag.String("char", "power", "Característica para a análise de jitter: power, csc ou hr")
	verbose := flag.Bool("v", false, "Mostra cada medição decodificada")
	flag.Parse()

	logger := config.NewLogger(os.Stderr, "info")
	if *verbose {
		logger = config.NewLogger(os.Stderr, "debug")
	}

	if *macAddress == "" {
		logger.Error("O argumento --mac é obrigatório.")
		flag.Usage()
		os.Exit(1)
	}
	target, ok := measurementByName[*charName]
	if !ok {
		logger.Error("Característica desconhecida", "char", *charName)
		os.Exit(1)
	}

	fmt.Printf("🔎 Iniciando Argus Scanner para o dispositivo: %s\n", *macAddress)

	d, err := linux.NewDevice(ble.OptDeviceID(*adapterID))
	if err != nil {
		logger.Error("❌ Falha ao selecionar adaptador", "adapter", *adapterID, "err", err)
		os.Exit(1)
	}
	ble.SetDefaultDevice(d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	fmt.Printf("📡 Procurando por %s via hci%d...\n", *macAddress, *adapterID)
	client, err := ble.Connect(ctx, func(a ble.Advertisement) bool {
		return strings.EqualFold(a.Addr().String(), *macAddress)
	})
	if err != nil {
		logger.Error("❌ Falha ao conectar", "err", err)
		os.Exit(1)
	}
	defer client.CancelConnection()
	rssi := client.ReadRSSI()
	fmt.Printf("✅ Conectado ao dispositivo! RSSI: %d dBm (sinal %d/%d)\n", rssi, argusble.SignalLevel(rssi, argusble.SignalLevels), argusble.SignalLevels-1)

	fmt.Println("🔍 Descobrindo perfil do dispositivo...")
	profile, err := client.DiscoverProfile(true)
	if err != nil {
		logger.Error("❌ Falha ao descobrir perfil", "err", err)
		os.Exit(1)
	}

	if *discoverMode {
		fmt.Println("--- Modo de Descoberta ---")
		printProfile(client, profile)
		return
	}

	fmt.Println("--- Modo de Análise de Jitter ---")
	char := gatt.FindCharacteristic(profile, target)
	if char == nil {
		logger.Error("❌ Característica não encontrada. Tente o modo --discover.", "char", gatt.Key(target))
		os.Exit(1)
	}
	fmt.Println("🔔 Característica encontrada. Iniciando coleta de dados...")

	mon := sensor.NewMonitor(0, logger)
	intervals := make([]float64, 0, numSamples)
	done := make(chan struct{})
	var lastPacketTime time.Time

	handler := func(data []byte) {
		now := time.Now()
		if r, err := mon.OnCharacteristicValue(char.UUID, data, now); err == nil {
			logger.Debug("medição", "reading", describe(r))
		}
		if lastPacketTime.IsZero() {
			lastPacketTime = now
			return
		}
		intervals = append(intervals, float64(now.Sub(lastPacketTime).Microseconds())/1000)
		lastPacketTime = now
		fmt.Printf("\r📊 Coletando amostras: %d/%d", len(intervals), numSamples)
		if len(intervals) == numSamples {
			close(done)
		}
	}

	if err := client.Subscribe(char, false, handler); err != nil {
		logger.Error("❌ Falha ao se inscrever", "err", err)
		os.Exit(1)
	}
	defer client.Unsubscribe(char, false)

	select {
	case <-done:
		fmt.Println("\n🏁 Coleta de dados finalizada.")
	case <-ctx.Done():
		fmt.Println("\n⚠️ Coleta interrompida.")
		return
	}

	printResults(intervals)
	printSnapshot(mon.Snapshot())
}

// printProfile lista o perfil e decodifica o que for legível.
func printProfile(client ble.Client, p *ble.Profile) {
	fmt.Println("-----------------------------------------")
	for _, s := range p.Services {
		fmt.Printf("Serviço: %s (%s)\n", s.UUID, ble.Name(s.UUID))
		for _, c := range s.Characteristics {
			fmt.Printf("  - Característica: %s (%s), Propriedades: 0x%02x\n", c.UUID, ble.Name(c.UUID), uint8(c.Property))
			if c.Property&ble.CharRead == 0 {
				continue
			}
			data, err := client.ReadCharacteristic(c)
			if err != nil {
				continue
			}
			v, err := gatt.Decode(gatt.Payload{Characteristic: c.UUID, Data: data, Timestamp: time.Now()})
			if err != nil {
				fmt.Printf("      valor: % x\n", data)
				continue
			}
			fmt.Printf("      valor: %v\n", describeAttribute(v))
		}
	}
	fmt.Println("-----------------------------------------")
}

func describeAttribute(v any) string {
	switch a := v.(type) {
	case gatt.DeviceString:
		return a.Value
	case gatt.CSCFeatures:
		return fmt.Sprintf("roda=%t pedivela=%t múltiplas localizações=%t",
			a.Has(gatt.CSCWheelRevolutionsSupported), a.Has(gatt.CSCCrankRevolutionsSupported), a.Has(gatt.CSCMultipleLocationsSupported))
	case gatt.PowerFeatures:
		return fmt.Sprintf("0x%08x", uint32(a))
	}
	return fmt.Sprint(v)
}

func describe(r sensor.Reading) string {
	var parts []string
	if r.PowerWatts != nil {
		parts = append(parts, fmt.Sprintf("%d W", *r.PowerWatts))
	}
	if r.SpeedKPH != nil {
		parts = append(parts, fmt.Sprintf("%.1f km/h", *r.SpeedKPH))
	}
	if r.CrankRPM != nil {
		parts = append(parts, fmt.Sprintf("%.0f rpm", *r.CrankRPM))
	}
	if r.HeartRate != nil {
		parts = append(parts, fmt.Sprintf("%d bpm", r.HeartRate.HeartRate))
	}
	if r.Discarded {
		parts = append(parts, "descartada")
	}
	return strings.Join(parts, ", ")
}

func printResults(intervals []float64) {
	if len(intervals) < 2 {
		fmt.Println("Não há dados suficientes para análise.")
		return
	}
	var sum, varianceSum float64
	minInterval := math.MaxFloat64
	maxInterval := 0.0
	for _, interval := range intervals {
		sum += interval
		minInterval = min(minInterval, interval)
		maxInterval = max(maxInterval, interval)
	}
	mean := sum / float64(len(intervals))
	for _, interval := range intervals {
		varianceSum += math.Pow(interval-mean, 2)
	}
	stdDev := math.Sqrt(varianceSum / float64(len(intervals)))
	fmt.Println("\n--- Relatório de Análise de Sinal BLE ---")
	fmt.Println("-----------------------------------------")
	fmt.Printf("Total de Amostras Coletadas: %d\n", len(intervals))
	fmt.Printf("Intervalo Médio:             %.2f ms\n", mean)
	fmt.Printf("Intervalo Mínimo:            %.2f ms\n", minInterval)
	fmt.Printf("Intervalo Máximo:            %.2f ms\n", maxInterval)
	fmt.Printf("Desvio Padrão (Jitter):      %.2f ms\n", stdDev)
	fmt.Println("-----------------------------------------")
	var conclusion string
	switch {
	case stdDev < 5.0:
		conclusion = "✅ Jitter MUITO BAIXO. Notificações regulares, típico de hardware dedicado."
	case stdDev < 15.0:
		conclusion = "⚠️ Jitter MODERADO. Pode haver interferência ou o sensor agrupa notificações."
	default:
		conclusion = "🚨 Jitter ALTO. Espere rajadas de amostras duplicadas; o filtro de rajadas vai descartá-las."
	}
	fmt.Printf("Conclusão: %s\n", conclusion)
}

func printSnapshot(s sensor.Snapshot) {
	fmt.Println("--- Últimos valores ---")
	if s.PowerWatts != nil {
		fmt.Printf("Potência:   %d W\n", *s.PowerWatts)
	}
	if s.SpeedKPH != nil {
		fmt.Printf("Velocidade: %.1f km/h\n", *s.SpeedKPH)
	}
	if s.CrankRPM != nil {
		fmt.Printf("Cadência:   %.0f rpm\n", *s.CrankRPM)
	}
	if s.HeartRate != nil {
		fmt.Printf("F.C.:       %d bpm (contato: %s)\n", s.HeartRate.HeartRate, s.HeartRate.Contact)
	}
}
