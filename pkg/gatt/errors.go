package gatt

import (
	"errors"
	"fmt"
)

// Kind classifica as falhas de decodificação.
type Kind int

const (
	// TruncatedPayload indica que o buffer é menor do que o layout indicado pelas flags.
	TruncatedPayload Kind = iota
	// UnknownCharacteristic indica que não existe decodificador para a característica.
	UnknownCharacteristic
)

var (
	ErrTruncatedPayload      = errors.New("gatt: payload truncado")
	ErrUnknownCharacteristic = errors.New("gatt: característica desconhecida")
)

// DecodeError descreve uma falha recuperável ao decodificar uma amostra.
// O chamador deve registrar e descartar a amostra.
type DecodeError struct {
	Kind   Kind
	Field  string // Campo que estava sendo lido.
	Offset int    // Posição do cursor no momento da falha.
	Need   int    // Bytes necessários para o campo.
	Have   int    // Bytes que ainda restavam.
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case TruncatedPayload:
		return fmt.Sprintf("gatt: payload truncado ao ler %s (offset %d, precisa %d, restam %d)", e.Field, e.Offset, e.Need, e.Have)
	case UnknownCharacteristic:
		return fmt.Sprintf("gatt: característica desconhecida %s", e.Field)
	}
	return "gatt: erro de decodificação"
}

// Is permite usar errors.Is com os erros sentinela do pacote.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrTruncatedPayload:
		return e.Kind == TruncatedPayload
	case ErrUnknownCharacteristic:
		return e.Kind == UnknownCharacteristic
	}
	return false
}
