// Package wahoo codifica os comandos da característica proprietária de
// controle dos rolos Wahoo, exposta dentro do serviço de Potência.
// O protocolo não é documentado publicamente.
package wahoo

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-ble/ble"
)

// TrainerCharUUID é a característica de controle do rolo (write + notify).
var TrainerCharUUID = ble.MustParse("a026e005-0a7d-4ab3-97fa-f1500f9feb8b")

// OpCode identifica o comando enviado ao rolo.
type OpCode uint8

const (
	OpUnlock       OpCode = 32
	OpSetLevelMode OpCode = 65
	OpSetErgMode   OpCode = 66
	OpSetSimMode   OpCode = 67
)

func (o OpCode) Known() bool {
	switch o {
	case OpUnlock, OpSetLevelMode, OpSetErgMode, OpSetSimMode:
		return true
	}
	return false
}

func (o OpCode) String() string {
	switch o {
	case OpUnlock:
		return "unlock"
	case OpSetLevelMode:
		return "level"
	case OpSetErgMode:
		return "erg"
	case OpSetSimMode:
		return "sim"
	}
	return fmt.Sprintf("opcode(%d)", uint8(o))
}

const resultSuccess = 0x01

var (
	ErrUnknownOpCode = errors.New("wahoo: opcode desconhecido")
	ErrShortResponse = errors.New("wahoo: resposta curta")
	ErrShortCommand  = errors.New("wahoo: comando curto")
)

// UnlockCommand precisa ser escrito logo após a conexão, antes de
// qualquer outro comando.
func UnlockCommand() []byte {
	return []byte{byte(OpUnlock), 0xEE, 0xFC}
}

// LevelCommand coloca o rolo no modo de resistência por nível.
func LevelCommand(level uint8) []byte {
	return []byte{byte(OpSetLevelMode), level}
}

// ErgCommand coloca o rolo em modo ERG com a potência alvo em watts.
func ErgCommand(watts uint16) []byte {
	return binary.LittleEndian.AppendUint16([]byte{byte(OpSetErgMode)}, watts)
}

// Command é um comando decodificado; usado pelo sensor virtual.
type Command struct {
	OpCode OpCode
	Level  uint8  // Só em OpSetLevelMode
	Watts  uint16 // Só em OpSetErgMode
	Raw    []byte
}

// ParseCommand decodifica um comando escrito na característica.
func ParseCommand(data []byte) (Command, error) {
	if len(data) == 0 {
		return Command{}, ErrShortCommand
	}
	c := Command{OpCode: OpCode(data[0]), Raw: data}
	switch c.OpCode {
	case OpSetLevelMode:
		if len(data) < 2 {
			return c, fmt.Errorf("wahoo: comando level: %w", ErrShortCommand)
		}
		c.Level = data[1]
	case OpSetErgMode:
		if len(data) < 3 {
			return c, fmt.Errorf("wahoo: comando erg: %w", ErrShortCommand)
		}
		c.Watts = binary.LittleEndian.Uint16(data[1:3])
	case OpUnlock, OpSetSimMode:
	default:
		return c, fmt.Errorf("%w: %d", ErrUnknownOpCode, data[0])
	}
	return c, nil
}

// Response é a notificação que o rolo manda depois de cada comando.
// Formato: resultado (0x01 = sucesso), opcode, dados específicos.
type Response struct {
	OpCode  OpCode
	Success bool
	Data    []byte
}

// ParseResponse classifica uma notificação da característica do rolo.
func ParseResponse(data []byte) (Response, error) {
	if len(data) < 2 {
		return Response{}, ErrShortResponse
	}
	r := Response{OpCode: OpCode(data[1]), Success: data[0] == resultSuccess, Data: data[2:]}
	if !r.OpCode.Known() {
		return r, fmt.Errorf("%w: %d", ErrUnknownOpCode, data[1])
	}
	return r, nil
}

// Acknowledge monta a resposta de sucesso para um comando, como o rolo
// real faz. O ERG ecoa a potência: 01 42 01 00 w1 w2.
func Acknowledge(c Command) []byte {
	out := []byte{resultSuccess, byte(c.OpCode)}
	if c.OpCode == OpSetErgMode {
		out = append(out, 0x01, 0x00)
		out = binary.LittleEndian.AppendUint16(out, c.Watts)
	}
	return out
}
