package asm

import (
	"encoding/binary"
	"fmt"
)

var zero [64]byte

// Fixup is a location in a Section whose value depends on a symbol that is unknown when the instruction is
// encoded. Kind is the architecture-specific relocation kind.
type Fixup struct {
	// Offset is the byte offset of the patched word in the section.
	Offset int
	Value  Expr
	Kind   uint32
	Pos    Pos
}

// Section is an append-only buffer of encoded instructions and data.
//
// The zero value is a valid, empty section.
type Section struct {
	Name   string
	code   []byte
	fixups []Fixup
}

// NewSection constructs an empty Section with the given name.
func NewSection(name string) *Section {
	return &Section{Name: name}
}

// Len returns the number of bytes written so far, which is also the offset of the next write.
func (s *Section) Len() int { return len(s.code) }

// Bytes returns the content of the section.
//
// The returned slice remains valid until more bytes are written to the section.
func (s *Section) Bytes() []byte { return s.code }

// Fixups returns the fixups recorded so far, in offset order.
func (s *Section) Fixups() []Fixup { return s.fixups }

// AddFixup records a fixup on the word at offset.
func (s *Section) AddFixup(f Fixup) {
	s.fixups = append(s.fixups, f)
}

// SetFixups replaces the pending fixups, e.g. after the local ones are resolved.
func (s *Section) SetFixups(fs []Fixup) {
	s.fixups = fs
}

// Align pads the section with zeros to a multiple of n bytes. n must be a power of two.
func (s *Section) Align(n int) error {
	if n <= 0 || n&(n-1) != 0 {
		return fmt.Errorf("alignment must be a power of two: %d", n)
	}
	for pad := (n - len(s.code)%n) % n; pad > 0; {
		chunk := pad
		if chunk > len(zero) {
			chunk = len(zero)
		}
		s.code = append(s.code, zero[:chunk]...)
		pad -= chunk
	}
	return nil
}

// WriteByte appends one byte.
func (s *Section) WriteByte(b byte) error {
	s.code = append(s.code, b)
	return nil
}

// WriteUint16 appends u in little endian.
func (s *Section) WriteUint16(u uint16) {
	s.code = binary.LittleEndian.AppendUint16(s.code, u)
}

// WriteUint32 appends u in little endian.
func (s *Section) WriteUint32(u uint32) {
	s.code = binary.LittleEndian.AppendUint32(s.code, u)
}

// Uint32At reads the little endian word at offset.
func (s *Section) Uint32At(offset int) uint32 {
	return binary.LittleEndian.Uint32(s.code[offset : offset+4])
}

// PutUint32At overwrites the little endian word at offset.
func (s *Section) PutUint32At(offset int, u uint32) {
	binary.LittleEndian.PutUint32(s.code[offset:offset+4], u)
}

// Write implements io.Writer.
func (s *Section) Write(b []byte) (int, error) {
	s.code = append(s.code, b...)
	return len(b), nil
}

// Reset empties the section, keeping the allocated memory.
func (s *Section) Reset() {
	s.code = s.code[:0]
	s.fixups = s.fixups[:0]
}
