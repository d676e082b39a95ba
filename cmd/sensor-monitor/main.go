// sensor-monitor: conecta a um sensor BLE (potência, velocidade/cadência,
// frequência cardíaca ou rolo Wahoo), calcula velocidade, cadência e
// potência e publica tudo no dashboard web e, opcionalmente, no MQTT.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"argus-sensors/internal/web"
	"argus-sensors/pkg/ble"
	"argus-sensors/pkg/config"
	"argus-sensors/pkg/publish"
	"argus-sensors/pkg/sensor"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Arquivo de configuração (JSON ou YAML)")
	staticDir := flag.String("web", "", "Diretório com os arquivos do dashboard (opcional)")
	flag.Parse()

	// 1. Carrega as configurações.
	cfg, err := config.Load(*configPath)
	if err != nil {
		config.NewLogger(os.Stderr, config.DefaultLogLevel).Error("❌ Erro ao carregar configuração", "path", *configPath, "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)
	logger.Info("Iniciando Argus Sensors - Monitor...", "sensor", cfg.SensorMAC)

	// 2. Contexto cancelado por Ctrl+C ou pelo comando "shutdown" do dashboard.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("Sinal de interrupção recebido, encerrando...")
		cancel()
	}()

	// 3. Estado compartilhado entre as goroutines.
	var wg sync.WaitGroup
	commandChannel := make(chan ble.TrainerCommand, 10) // Comandos do dashboard para o rolo.
	mon := sensor.NewMonitor(cfg.WheelCircumferenceCM, logger)
	link := &ble.LinkState{}

	hub := web.NewHub(mon, link, commandChannel, cancel, *staticDir, logger)
	sinks := ble.Sinks{hub}

	if cfg.MQTT.Enabled {
		pub, err := publish.Dial(ctx, cfg.MQTT, logger)
		if err != nil {
			logger.Error("❌ Falha ao conectar ao broker MQTT", "err", err)
			os.Exit(1)
		}
		defer pub.Close()
		sinks = append(sinks, pub)
		wg.Add(1)
		go pub.Run(ctx, &wg)
	}

	// 4. Goroutines principais.
	wg.Add(2)
	go ble.ClientRoutine(ctx, cfg, mon, commandChannel, sinks, link, logger, &wg)
	go web.HubRoutine(ctx, cfg.WebAddr, hub, &wg)

	logger.Info("✅ Aplicação rodando.", "dashboard", cfg.WebAddr)

	wg.Wait()
	logger.Info("Aplicação encerrada.")
}
