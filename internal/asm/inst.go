package asm

import (
	"fmt"
	"strings"
)

// InstOperandKind is the kind of a resolved instruction operand.
type InstOperandKind byte

const (
	InstOperandInvalid InstOperandKind = iota
	InstOperandReg
	InstOperandImm
	InstOperandExpr
)

// InstOperand is a fully resolved operand of an Inst: a register, a constant or an unresolved expression.
type InstOperand struct {
	kind InstOperandKind
	reg  Register
	imm  int64
	expr Expr
}

// RegOperand returns a register InstOperand.
func RegOperand(r Register) InstOperand { return InstOperand{kind: InstOperandReg, reg: r} }

// ImmOperand returns a constant InstOperand.
func ImmOperand(v int64) InstOperand { return InstOperand{kind: InstOperandImm, imm: v} }

// ExprOperand returns an expression InstOperand.
func ExprOperand(e Expr) InstOperand { return InstOperand{kind: InstOperandExpr, expr: e} }

// Kind returns the operand kind.
func (o InstOperand) Kind() InstOperandKind { return o.kind }

// Reg returns the register of an InstOperandReg.
func (o InstOperand) Reg() Register {
	if o.kind != InstOperandReg {
		panic("BUG: not a register operand")
	}
	return o.reg
}

// Imm returns the value of an InstOperandImm.
func (o InstOperand) Imm() int64 {
	if o.kind != InstOperandImm {
		panic("BUG: not an immediate operand")
	}
	return o.imm
}

// Expr returns the expression of an InstOperandExpr.
func (o InstOperand) Expr() Expr {
	if o.kind != InstOperandExpr {
		panic("BUG: not an expression operand")
	}
	return o.expr
}

// AsExpr returns the operand value as an expression, for both immediates and expressions.
func (o InstOperand) AsExpr() Expr {
	switch o.kind {
	case InstOperandImm:
		return Const(o.imm)
	case InstOperandExpr:
		return o.expr
	}
	panic("BUG: register operand has no expression")
}

// String implements fmt.Stringer.
func (o InstOperand) String() string {
	switch o.kind {
	case InstOperandReg:
		return fmt.Sprintf("r%d", o.reg)
	case InstOperandImm:
		return fmt.Sprintf("#%d", o.imm)
	case InstOperandExpr:
		return o.expr.String()
	}
	return "?"
}

// Inst is an instruction whose opcode is resolved, ready to be encoded or printed.
type Inst struct {
	Opcode   Opcode
	Operands []InstOperand
	// Loc is the location of the mnemonic.
	Loc Pos
}

// AddOperand appends an operand.
func (i *Inst) AddOperand(o InstOperand) {
	i.Operands = append(i.Operands, o)
}

// String implements fmt.Stringer.
func (i *Inst) String() string {
	ops := make([]string, len(i.Operands))
	for j, o := range i.Operands {
		ops[j] = o.String()
	}
	return fmt.Sprintf("<Inst %d %s>", i.Opcode, strings.Join(ops, ", "))
}
