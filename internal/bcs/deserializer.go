package bcs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrUnexpectedEOF    = errors.New("bcs: unexpected end of input")
	ErrNonCanonicalUleb = errors.New("bcs: non-canonical uleb128")
	ErrUlebOverflow     = errors.New("bcs: uleb128 overflows u32")
	ErrTrailingBytes    = errors.New("bcs: trailing bytes")
)

// Deserializer reads BCS values from a byte slice. Like Serializer it keeps
// the first error and turns later reads into zero values.
type Deserializer struct {
	data []byte
	pos  int
	err  error
}

func NewDeserializer(data []byte) *Deserializer {
	return &Deserializer{data: data}
}

func (d *Deserializer) Err() error {
	return d.err
}

func (d *Deserializer) Remaining() int {
	return len(d.data) - d.pos
}

// Finish reports the first read error, or ErrTrailingBytes if input is left.
func (d *Deserializer) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.Remaining() != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, d.Remaining())
	}
	return nil
}

func (d *Deserializer) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.Remaining() < n {
		d.err = fmt.Errorf("%w: need %d, have %d", ErrUnexpectedEOF, n, d.Remaining())
		return nil
	}
	out := d.data[d.pos : d.pos+n]
	d.pos += n
	return out
}

func (d *Deserializer) U8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *Deserializer) U64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *Deserializer) Uleb128() uint32 {
	var (
		value uint64
		shift uint
	)
	for i := 0; i < 5; i++ {
		b := d.take(1)
		if b == nil {
			return 0
		}
		digit := b[0] & 0x7f
		value |= uint64(digit) << shift
		if b[0]&0x80 == 0 {
			if i > 0 && digit == 0 {
				d.err = ErrNonCanonicalUleb
				return 0
			}
			if value > 0xffffffff {
				d.err = ErrUlebOverflow
				return 0
			}
			return uint32(value)
		}
		shift += 7
	}
	if d.err == nil {
		d.err = ErrUlebOverflow
	}
	return 0
}

func (d *Deserializer) FixedBytes(n int) []byte {
	b := d.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (d *Deserializer) ReadBytes() []byte {
	n := d.Uleb128()
	if d.err != nil {
		return nil
	}
	if n > MaxSequenceLength {
		d.err = fmt.Errorf("%w: %d", ErrSequenceTooLong, n)
		return nil
	}
	return d.FixedBytes(int(n))
}

func (d *Deserializer) Str() string {
	b := d.ReadBytes()
	if d.err != nil {
		return ""
	}
	if !utf8.Valid(b) {
		d.err = ErrInvalidUTF8
		return ""
	}
	return string(b)
}
