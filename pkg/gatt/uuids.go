package gatt

import (
	"strings"

	"github.com/go-ble/ble"
)

// --- UUIDs DOS SERVIÇOS E CARACTERÍSTICAS PADRÃO (Bluetooth SIG) ---
var (
	// Serviços
	HeartRateSvcUUID  = ble.MustParse("0000180d-0000-1000-8000-00805f9b34fb") // Frequência Cardíaca
	CSCSvcUUID        = ble.MustParse("00001816-0000-1000-8000-00805f9b34fb") // Velocidade e Cadência de Ciclismo
	PowerSvcUUID      = ble.MustParse("00001818-0000-1000-8000-00805f9b34fb") // Potência de Ciclismo
	DeviceInfoSvcUUID = ble.MustParse("0000180a-0000-1000-8000-00805f9b34fb") // Informações do Dispositivo

	// Características de medição
	HRMeasurementCharUUID    = ble.MustParse("00002a37-0000-1000-8000-00805f9b34fb")
	BodySensorLocationUUID   = ble.MustParse("00002a38-0000-1000-8000-00805f9b34fb")
	HRControlPointCharUUID   = ble.MustParse("00002a39-0000-1000-8000-00805f9b34fb")
	CSCMeasurementCharUUID   = ble.MustParse("00002a5b-0000-1000-8000-00805f9b34fb")
	CSCFeatureCharUUID       = ble.MustParse("00002a5c-0000-1000-8000-00805f9b34fb")
	SensorLocationCharUUID   = ble.MustParse("00002a5d-0000-1000-8000-00805f9b34fb") // Compartilhada por CSC e Potência
	PowerMeasurementCharUUID = ble.MustParse("00002a63-0000-1000-8000-00805f9b34fb")
	PowerFeatureCharUUID     = ble.MustParse("00002a65-0000-1000-8000-00805f9b34fb")
	PowerControlPointUUID    = ble.MustParse("00002a66-0000-1000-8000-00805f9b34fb")

	// Informações do dispositivo (strings UTF-8)
	SystemIDCharUUID         = ble.MustParse("00002a23-0000-1000-8000-00805f9b34fb")
	ModelNumberCharUUID      = ble.MustParse("00002a24-0000-1000-8000-00805f9b34fb")
	SerialNumberCharUUID     = ble.MustParse("00002a25-0000-1000-8000-00805f9b34fb")
	FirmwareRevisionCharUUID = ble.MustParse("00002a26-0000-1000-8000-00805f9b34fb")
	HardwareRevisionCharUUID = ble.MustParse("00002a27-0000-1000-8000-00805f9b34fb")
	SoftwareRevisionCharUUID = ble.MustParse("00002a28-0000-1000-8000-00805f9b34fb")
	ManufacturerNameCharUUID = ble.MustParse("00002a29-0000-1000-8000-00805f9b34fb")
)

const sigBaseSuffix = "00001000800000805f9b34fb"

// Key normaliza um UUID para comparação: minúsculo, sem hífens, e reduzido
// à forma de 16 bits quando pertence à base do Bluetooth SIG. Assim
// "2A37" e "00002a37-0000-1000-8000-00805f9b34fb" resultam na mesma chave.
func Key(u ble.UUID) string {
	return KeyString(u.String())
}

// KeyString é a versão de Key para UUIDs já em texto.
func KeyString(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "-", ""))
	if len(s) == 32 && strings.HasPrefix(s, "0000") && strings.HasSuffix(s, sigBaseSuffix) {
		return s[4:8]
	}
	return s
}

// SameUUID compara dois UUIDs pela forma normalizada.
func SameUUID(a, b ble.UUID) bool {
	return Key(a) == Key(b)
}

// FindCharacteristic procura uma característica dentro de um perfil BLE.
func FindCharacteristic(p *ble.Profile, u ble.UUID) *ble.Characteristic {
	if p == nil {
		return nil
	}
	target := Key(u)
	for _, s := range p.Services {
		for _, c := range s.Characteristics {
			if Key(c.UUID) == target {
				return c
			}
		}
	}
	return nil
}
