// Package ble contém toda a lógica Bluetooth Low Energy (BLE) do projeto:
// a conexão com o sensor real e o sensor virtual usado para testes.
package ble

import (
	"sync"

	"github.com/go-ble/ble"

	"argus-sensors/pkg/gatt"
)

// --- ESTRUTURAS DE ESTADO ---
// As instâncias são criadas em main.go e compartilhadas (via ponteiros) entre as goroutines.

// LinkState guarda o estado da conexão com o sensor, exibido pelo hub web.
type LinkState struct {
	sync.RWMutex
	SensorConnected bool
	AppConnected    bool // Algum app inscrito no sensor virtual.
	SensorName      string
	RSSI            int
	SignalLevel     int // 0..SignalLevels-1
	TrainerFound    bool
}

// LinkStatus é a cópia de LinkState enviada ao dashboard.
type LinkStatus struct {
	SensorConnected bool   `json:"sensor_connected"`
	AppConnected    bool   `json:"app_connected"`
	SensorName      string `json:"sensor_name,omitempty"`
	RSSI            int    `json:"rssi"`
	SignalLevel     int    `json:"signal_level"`
	TrainerFound    bool   `json:"trainer_found"`
}

// Status copia o estado sob o lock de leitura.
func (l *LinkState) Status() LinkStatus {
	l.RLock()
	defer l.RUnlock()
	return LinkStatus{
		SensorConnected: l.SensorConnected,
		AppConnected:    l.AppConnected,
		SensorName:      l.SensorName,
		RSSI:            l.RSSI,
		SignalLevel:     l.SignalLevel,
		TrainerFound:    l.TrainerFound,
	}
}

// CommandKind identifica um comando de resistência vindo da UI.
type CommandKind int

const (
	CommandErg CommandKind = iota
	CommandLevel
	CommandResetEnergy
)

// TrainerCommand é enviado pelo hub à goroutine do cliente.
type TrainerCommand struct {
	Kind  CommandKind
	Watts uint16
	Level uint8
}

// --- CARACTERÍSTICAS USADAS PELO CLIENTE ---

// MeasurementChars são as características de medição assinadas por notificação.
var MeasurementChars = []ble.UUID{
	gatt.HRMeasurementCharUUID,
	gatt.PowerMeasurementCharUUID,
	gatt.CSCMeasurementCharUUID,
}

// AttributeChars são lidas uma vez por conexão.
var AttributeChars = []ble.UUID{
	gatt.CSCFeatureCharUUID,
	gatt.PowerFeatureCharUUID,
	gatt.SensorLocationCharUUID,
	gatt.BodySensorLocationUUID,
	gatt.ManufacturerNameCharUUID,
	gatt.ModelNumberCharUUID,
	gatt.SerialNumberCharUUID,
	gatt.HardwareRevisionCharUUID,
	gatt.FirmwareRevisionCharUUID,
	gatt.SoftwareRevisionCharUUID,
}
