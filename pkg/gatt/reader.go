package gatt

import "encoding/binary"

// Reader lê campos little-endian em sequência a partir de um buffer,
// avançando o cursor a cada leitura. Usado pelos registros de layout
// variável, onde as flags do início decidem quais campos vêm depois.
type Reader struct {
	buf []byte
	off int
}

// NewReader cria um leitor posicionado no início de data.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// Offset retorna a posição atual do cursor.
func (r *Reader) Offset() int { return r.off }

// Remaining retorna quantos bytes ainda não foram lidos.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(field string, n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, &DecodeError{Kind: TruncatedPayload, Field: field, Offset: r.off, Need: n, Have: r.Remaining()}
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadUint8(field string) (uint8, error) {
	b, err := r.take(field, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUint16(field string) (uint16, error) {
	b, err := r.take(field, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadInt16(field string) (int16, error) {
	v, err := r.ReadUint16(field)
	return int16(v), err
}

func (r *Reader) ReadUint32(field string) (uint32, error) {
	b, err := r.take(field, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
