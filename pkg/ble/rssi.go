package ble

// Faixa usada para converter RSSI em barras de sinal.
const (
	RSSIMin      = -100
	RSSIMax      = -55
	SignalLevels = 5
)

// SignalLevel converte um RSSI (dBm) para um nível entre 0 e numLevels-1.
func SignalLevel(rssi, numLevels int) int {
	if numLevels < 1 {
		return 0
	}
	if rssi <= RSSIMin {
		return 0
	}
	if rssi >= RSSIMax {
		return numLevels - 1
	}
	return int(float64(rssi-RSSIMin) * float64(numLevels-1) / float64(RSSIMax-RSSIMin))
}
