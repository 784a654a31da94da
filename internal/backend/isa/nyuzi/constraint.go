package nyuzi

import (
	"github.com/tetratelabs/nyuzi/internal/backend/reg"
	"github.com/tetratelabs/nyuzi/internal/ir"
)

// ConstraintType is the kind of an inline assembly operand constraint.
type ConstraintType byte

const (
	ConstraintUnknown ConstraintType = iota
	// ConstraintRegClass is a register of a class: "s" for scalar and "v" for vector registers.
	ConstraintRegClass
	// ConstraintMemory is a memory operand: "m".
	ConstraintMemory
)

// ConstraintType returns the kind of the inline assembly constraint c.
func (l *TargetLowering) ConstraintType(c string) ConstraintType {
	if len(c) != 1 {
		return ConstraintUnknown
	}
	switch c[0] {
	case 's', 'v':
		return ConstraintRegClass
	case 'm':
		return ConstraintMemory
	}
	return ConstraintUnknown
}

// RegForInlineAsmConstraint returns the register file for an operand of type t with constraint c. It returns false
// if the constraint is not a register class, or if the class cannot hold t.
func (l *TargetLowering) RegForInlineAsmConstraint(c string, t ir.Type) (reg.RegType, bool) {
	if l.ConstraintType(c) != ConstraintRegClass || !t.IsValue() {
		return reg.RegTypeInvalid, false
	}
	typ := reg.RegTypeScalar
	if c == "v" {
		if !l.IsLegalVectorType(t) {
			return reg.RegTypeInvalid, false
		}
		typ = reg.RegTypeVector
	} else if t.IsVector() && t.Elem() != ir.TypeI1 {
		return reg.RegTypeInvalid, false
	}
	return typ, true
}
