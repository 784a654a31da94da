package asm

import "fmt"

// Register represents architecture-specific registers.
type Register byte

// NilRegister is the only architecture-independent register, and
// can be used to indicate that no register is specified.
const NilRegister Register = 0

// Opcode represents architecture-specific instructions, as resolved by the instruction matcher.
type Opcode uint16

// Pos is a location in assembly source. Line and Col are 1-based; the zero value is an unknown location.
type Pos struct {
	Line, Col uint32
}

// IsValid returns true if this is a known location.
func (p Pos) IsValid() bool { return p.Line > 0 }

// String implements fmt.Stringer.
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Span is the source range of an operand: Start is its first character and End its last.
type Span struct {
	Start, End Pos
}
