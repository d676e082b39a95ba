// sensor-sim: anuncia um sensor virtual de Potência + Velocidade/Cadência +
// Frequência Cardíaca (com a característica de controle Wahoo), útil para
// testar o sensor-monitor sem hardware.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"argus-sensors/pkg/ble"
	"argus-sensors/pkg/config"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Arquivo de configuração (JSON ou YAML)")
	speed := flag.Float64("speed", 28, "Velocidade simulada em km/h")
	cadence := flag.Float64("cadence", 85, "Cadência simulada em rpm")
	power := flag.Int("power", 150, "Potência inicial em watts")
	noise := flag.Bool("noise", true, "Adiciona ruído de ±2 W à potência")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		config.NewLogger(os.Stderr, config.DefaultLogLevel).Error("❌ Erro ao carregar configuração", "path", *configPath, "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("Sinal de interrupção recebido, encerrando...")
		cancel()
	}()

	sim := ble.NewSimulator(cfg.WheelCircumferenceCM)
	sim.SpeedKPH = *speed
	sim.CadenceRPM = *cadence
	sim.PowerWatts = *power
	sim.Noise = *noise
	link := &ble.LinkState{}

	var wg sync.WaitGroup
	wg.Add(1)
	go ble.ServerRoutine(ctx, cfg, sim, link, logger, &wg)

	// Relatório periódico do estado simulado.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sim.RLock()
				logger.Info("[SIM] Estado", "power", sim.PowerWatts, "speed_kph", sim.SpeedKPH, "cadence", sim.CadenceRPM, "hr", sim.HeartRate, "app", link.Status().AppConnected)
				sim.RUnlock()
			}
		}
	}()

	wg.Wait()
	logger.Info("Simulador encerrado.")
}
