package gatt

// Counter reúne os contadores sem sinal usados pelos sensores.
type Counter interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Delta calcula quanto um contador cumulativo avançou entre duas leituras,
// considerando que ele pode ter dado a volta ao passar de maxValue.
// Ex.: Delta(5, 10, 255) == 251.
func Delta[T Counter](newValue, oldValue, maxValue T) T {
	if oldValue <= newValue {
		return newValue - oldValue
	}
	return (maxValue - oldValue) + newValue + 1
}
