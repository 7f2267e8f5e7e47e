// Package bcs implements the subset of Binary Canonical Serialization used by
// Aptos framework proof challenges and transaction envelopes.
package bcs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxSequenceLength is the largest length prefix BCS accepts for strings and
// byte vectors.
const MaxSequenceLength = 1<<31 - 1

var (
	ErrSequenceTooLong = errors.New("bcs: sequence longer than max length")
	ErrInvalidUTF8     = errors.New("bcs: string is not valid utf-8")
)

// Serializer appends BCS values to an internal buffer. The first failure is
// kept and every later write becomes a no-op, so callers check Err once.
type Serializer struct {
	buf []byte
	err error
}

func NewSerializer() *Serializer {
	return &Serializer{}
}

func (s *Serializer) Err() error {
	return s.err
}

// Bytes returns the encoded output. It is nil when a write failed.
func (s *Serializer) Bytes() []byte {
	if s.err != nil {
		return nil
	}
	return s.buf
}

func (s *Serializer) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *Serializer) U8(v uint8) {
	if s.err != nil {
		return
	}
	s.buf = append(s.buf, v)
}

func (s *Serializer) U64(v uint64) {
	if s.err != nil {
		return
	}
	s.buf = binary.LittleEndian.AppendUint64(s.buf, v)
}

// Uleb128 writes v as an unsigned LEB128 varint, the form BCS uses for
// sequence lengths and enum variant indices.
func (s *Serializer) Uleb128(v uint32) {
	if s.err != nil {
		return
	}
	s.buf = AppendUleb128(s.buf, v)
}

// FixedBytes writes b verbatim with no length prefix.
func (s *Serializer) FixedBytes(b []byte) {
	if s.err != nil {
		return
	}
	s.buf = append(s.buf, b...)
}

// WriteBytes writes a length-prefixed byte vector.
func (s *Serializer) WriteBytes(b []byte) {
	if s.err != nil {
		return
	}
	if len(b) > MaxSequenceLength {
		s.fail(fmt.Errorf("%w: %d bytes", ErrSequenceTooLong, len(b)))
		return
	}
	s.Uleb128(uint32(len(b)))
	s.FixedBytes(b)
}

func (s *Serializer) Str(v string) {
	if s.err != nil {
		return
	}
	if !utf8.ValidString(v) {
		s.fail(ErrInvalidUTF8)
		return
	}
	if len(v) > MaxSequenceLength {
		s.fail(fmt.Errorf("%w: %d bytes", ErrSequenceTooLong, len(v)))
		return
	}
	s.Uleb128(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

// AppendUleb128 appends the ULEB128 form of v to dst.
func AppendUleb128(dst []byte, v uint32) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v&0x7f)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// SerializeBytes is a shortcut for a standalone length-prefixed byte vector,
// the form entry function arguments take.
func SerializeBytes(b []byte) ([]byte, error) {
	s := NewSerializer()
	s.WriteBytes(b)
	return s.Bytes(), s.Err()
}

func SerializeU8(v uint8) []byte {
	return []byte{v}
}
