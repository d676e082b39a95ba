// real-trainer-tester: uma ferramenta para medir a latência de RTT dos
// comandos de um rolo Wahoo real (comando escrito -> resposta notificada).
package main

import (
	"context"
	"encoding/hex"
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

	"argus-sensors/pkg/config"
	"argus-sensors/pkg/gatt"
	"argus-sensors/pkg/wahoo"
)

func main() {
	mac := flag.String("mac", "", "MAC Address do rolo de treino real")
	adapterID := flag.Int("adapter", 0, "ID do adaptador HCI (ex: hci0)")
	samples := flag.Int("n", 10, "Número de amostras de latência a coletar")
	level := flag.Int("level", 1, "Nível de resistência usado como ping (0-9)")
	flag.Parse()

	logger := config.NewLogger(os.Stderr, "info")
	if *mac == "" {
		logger.Error("❌ O argumento --mac é obrigatório.")
		os.Exit(1)
	}

	fmt.Printf("🔎 Iniciando Teste de Latência para Rolo Real: %s...\n", *mac)

	d, err := linux.NewDevice(ble.OptDeviceID(*adapterID))
	if err != nil {
		logger.Error("❌ Falha ao selecionar adaptador", "err", err)
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

	fmt.Printf("📡 Procurando por %s...\n", *mac)
	client, err := ble.Connect(ctx, func(a ble.Advertisement) bool {
		return strings.EqualFold(a.Addr().String(), *mac)
	})
	if err != nil {
		logger.Error("❌ Falha ao conectar", "err", err)
		os.Exit(1)
	}
	fmt.Println("✅ Conectado!")
	defer client.CancelConnection()

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		logger.Error("❌ Falha ao descobrir perfil", "err", err)
		os.Exit(1)
	}

	tc := gatt.FindCharacteristic(profile, wahoo.TrainerCharUUID)
	if tc == nil {
		logger.Error("❌ Característica de controle Wahoo não encontrada.", "uuid", wahoo.TrainerCharUUID.String())
		os.Exit(1)
	}

	pongChan := make(chan wahoo.Response, 1)

	fmt.Println("🔔 Inscrevendo-se para receber respostas do rolo...")
	if err := client.Subscribe(tc, false, func(data []byte) {
		r, err := wahoo.ParseResponse(data)
		if err != nil {
			logger.Warn("[TESTER] Resposta inesperada recebida", "payload", hex.EncodeToString(data), "err", err)
			return
		}
		select {
		case pongChan <- r:
		default:
		}
	}); err != nil {
		logger.Error("❌ Falha ao se inscrever", "err", err)
		os.Exit(1)
	}
	defer client.Unsubscribe(tc, false)

	if err := client.WriteCharacteristic(tc, wahoo.UnlockCommand(), false); err != nil {
		logger.Error("❌ Falha ao desbloquear o rolo", "err", err)
		os.Exit(1)
	}
	time.Sleep(2 * time.Second)
	drain(pongChan)

	ping := wahoo.LevelCommand(uint8(*level))
	latencies := []time.Duration{}
	fmt.Printf("🚀 Iniciando teste de latência (coletando %d amostras)...\n", *samples)
	fmt.Println("--------------------------------------------------")

	for i := 0; i < *samples; i++ {
		fmt.Printf("   Amostra %d/%d... ", i+1, *samples)
		startTime := time.Now()

		if err := client.WriteCharacteristic(tc, ping, false); err != nil {
			fmt.Println("Erro ao enviar ping:", err)
			continue
		}

	wait:
		for {
			select {
			case r := <-pongChan:
				if r.OpCode != wahoo.OpSetLevelMode {
					continue
				}
				latency := time.Since(startTime)
				if !r.Success {
					fmt.Printf("Rolo recusou o comando (%v)\n", latency)
					break wait
				}
				latencies = append(latencies, latency)
				fmt.Printf("Pong recebido! Latência: %v\n", latency)
				break wait
			case <-time.After(3 * time.Second):
				fmt.Println("Timeout! Nenhuma resposta recebida.")
				break wait
			case <-ctx.Done():
				fmt.Println("Teste cancelado.")
				return
			}
		}
		time.Sleep(1 * time.Second)
	}

	printLatencyStats(latencies)
}

func drain(ch <-chan wahoo.Response) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func printLatencyStats(latencies []time.Duration) {
	if len(latencies) == 0 {
		fmt.Println("Nenhum dado de latência foi coletado.")
		return
	}
	var sum time.Duration
	minLatency := time.Hour
	maxLatency := time.Duration(0)
	for _, l := range latencies {
		sum += l
		minLatency = min(minLatency, l)
		maxLatency = max(maxLatency, l)
	}
	mean := sum / time.Duration(len(latencies))
	var varianceSum float64
	for _, l := range latencies {
		varianceSum += math.Pow(float64(l-mean), 2)
	}
	stdDev := time.Duration(math.Sqrt(varianceSum / float64(len(latencies))))

	fmt.Println("\n--- Relatório Final de Latência (RTT) ---")
	fmt.Println("--------------------------------------------------")
	fmt.Printf("Total de Amostras: %d\n", len(latencies))
	fmt.Printf("Latência Média:    %v\n", mean)
	fmt.Printf("Latência Mínima:   %v\n", minLatency)
	fmt.Printf("Latência Máxima:   %v\n", maxLatency)
	fmt.Printf("Jitter (Desv. Padrão): %v\n", stdDev)
	fmt.Println("--------------------------------------------------")

	switch {
	case stdDev > 20*time.Millisecond:
		fmt.Println("🚨 Conclusão: Jitter ALTO. Comandos ERG podem chegar atrasados ao rolo.")
	case mean > 100*time.Millisecond:
		fmt.Println("⚠️  Conclusão: Latência ALTA. Conexão ruim ou adaptador sobrecarregado.")
	default:
		fmt.Println("✅ Conclusão: Latência e Jitter baixos.")
	}
}
