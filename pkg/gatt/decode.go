package gatt

import (
	"strings"
	"time"

	"github.com/go-ble/ble"
)

// Payload é um valor bruto entregue pelo transporte BLE: uma notificação
// ou leitura de uma característica, com a hora de chegada.
// Os bytes não são retidos além da chamada de decodificação.
type Payload struct {
	Characteristic ble.UUID
	Data           []byte
	Timestamp      time.Time
}

// DeviceString é o valor de uma característica de Device Information.
type DeviceString struct {
	Characteristic ble.UUID
	Value          string
}

// Decode escolhe o decodificador pela característica e retorna um dos tipos
// HeartRateMeasurement, PowerMeasurement, CyclingMeasurement (CSC),
// CSCFeatures, PowerFeatures, SensorLocation, BodySensorLocation ou
// DeviceString. Medições de ciclismo recebem o Timestamp do payload.
//
// CSC e Potência compartilham a característica 0x2A5D; o valor é o mesmo.
// CSCFeatures e PowerFeatures têm UUIDs distintos.
func Decode(p Payload) (any, error) {
	switch Key(p.Characteristic) {
	case Key(HRMeasurementCharUUID):
		return DecodeHeartRate(p.Data)
	case Key(BodySensorLocationUUID):
		return DecodeBodySensorLocation(p.Data)
	case Key(CSCMeasurementCharUUID):
		m, err := DecodeCSC(p.Data)
		m.Timestamp = p.Timestamp
		return m, err
	case Key(CSCFeatureCharUUID):
		return DecodeCSCFeatures(p.Data)
	case Key(SensorLocationCharUUID):
		return DecodeSensorLocation(p.Data)
	case Key(PowerMeasurementCharUUID):
		m, err := DecodePower(p.Data)
		m.Timestamp = p.Timestamp
		return m, err
	case Key(PowerFeatureCharUUID):
		return DecodePowerFeatures(p.Data)
	case Key(ManufacturerNameCharUUID), Key(ModelNumberCharUUID), Key(SerialNumberCharUUID),
		Key(HardwareRevisionCharUUID), Key(FirmwareRevisionCharUUID), Key(SoftwareRevisionCharUUID):
		return DeviceString{Characteristic: p.Characteristic, Value: DecodeString(p.Data)}, nil
	}
	return nil, &DecodeError{Kind: UnknownCharacteristic, Field: p.Characteristic.String()}
}

// DecodeString lê uma string UTF-8 de Device Information. Alguns sensores
// preenchem o fim com bytes nulos.
func DecodeString(data []byte) string {
	return strings.TrimRight(string(data), "\x00")
}
