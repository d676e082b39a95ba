package gatt

// SensorLocation é o local de montagem de um sensor de ciclismo (0x2A5D).
// Compartilhado pelos serviços de Potência e de Velocidade/Cadência.
type SensorLocation uint8

const (
	LocationOther SensorLocation = iota
	LocationTopOfShoe
	LocationInShoe
	LocationHip
	LocationFrontWheel
	LocationLeftCrank
	LocationRightCrank
	LocationLeftPedal
	LocationRightPedal
	LocationFrontHub
	LocationRearDropout
	LocationChainstay
	LocationRearWheel
	LocationRearHub
	LocationChest
	LocationSpider
	LocationChainRing

	// LocationUnknown é retornado quando o byte lido está fora da faixa conhecida.
	LocationUnknown SensorLocation = 0xFF
)

var sensorLocationNames = [...]string{
	"Other", "Top of Shoe", "In Shoe", "Hip", "Front Wheel", "Left Crank",
	"Right Crank", "Left Pedal", "Right Pedal", "Front Hub", "Rear Dropout",
	"Chainstay", "Rear Wheel", "Rear Hub", "Chest", "Spider", "Chain Ring",
}

func (l SensorLocation) Known() bool { return int(l) < len(sensorLocationNames) }

func (l SensorLocation) String() string {
	if l.Known() {
		return sensorLocationNames[l]
	}
	return "Unknown"
}

// DecodeSensorLocation lê o byte de localização. Valores fora da faixa
// viram LocationUnknown sem erro; só um payload vazio falha.
func DecodeSensorLocation(data []byte) (SensorLocation, error) {
	v, err := NewReader(data).ReadUint8("sensor location")
	if err != nil {
		return LocationUnknown, err
	}
	if l := SensorLocation(v); l.Known() {
		return l, nil
	}
	return LocationUnknown, nil
}

// EncodeSensorLocation é usado pelo sensor virtual.
func EncodeSensorLocation(l SensorLocation) []byte { return []byte{byte(l)} }

// BodySensorLocation é o local do monitor cardíaco no corpo (0x2A38).
type BodySensorLocation uint8

const (
	BodyOther BodySensorLocation = iota
	BodyChest
	BodyWrist
	BodyFinger
	BodyHand
	BodyEarLobe
	BodyFoot

	BodyUnknown BodySensorLocation = 0xFF
)

var bodyLocationNames = [...]string{"Other", "Chest", "Wrist", "Finger", "Hand", "Ear Lobe", "Foot"}

func (l BodySensorLocation) Known() bool { return int(l) < len(bodyLocationNames) }

func (l BodySensorLocation) String() string {
	if l.Known() {
		return bodyLocationNames[l]
	}
	return "Unknown"
}

func DecodeBodySensorLocation(data []byte) (BodySensorLocation, error) {
	v, err := NewReader(data).ReadUint8("body sensor location")
	if err != nil {
		return BodyUnknown, err
	}
	if l := BodySensorLocation(v); l.Known() {
		return l, nil
	}
	return BodyUnknown, nil
}
