package asm

import "fmt"

// OperandKind is the active variant of an Operand.
type OperandKind byte

const (
	OperandKindInvalid OperandKind = iota
	// OperandKindToken is a literal token, such as the mnemonic.
	OperandKindToken
	// OperandKindRegister is a register reference.
	OperandKindRegister
	// OperandKindImmediate is an immediate expression, possibly symbolic.
	OperandKindImmediate
	// OperandKindMemory is a base register plus an optional offset expression.
	OperandKindMemory
)

var operandKindNames = [...]string{
	OperandKindInvalid:   "invalid",
	OperandKindToken:     "token",
	OperandKindRegister:  "register",
	OperandKindImmediate: "immediate",
	OperandKindMemory:    "memory",
}

// String implements fmt.Stringer.
func (k OperandKind) String() string { return operandKindNames[k] }

// Operand is a parsed operand of one instruction. Exactly one variant is active, selected by Kind, and reading the
// payload of another variant panics.
//
// Operands are created by the New*Operand factories and never modified afterwards.
type Operand struct {
	kind OperandKind
	span Span

	tok  string
	reg  Register
	expr Expr
}

// NewTokenOperand returns a token operand, e.g. the mnemonic.
func NewTokenOperand(tok string, pos Pos) *Operand {
	return &Operand{kind: OperandKindToken, tok: tok, span: Span{Start: pos, End: pos}}
}

// NewRegisterOperand returns a register operand.
func NewRegisterOperand(reg Register, start, end Pos) *Operand {
	return &Operand{kind: OperandKindRegister, reg: reg, span: Span{Start: start, End: end}}
}

// NewImmediateOperand returns an immediate operand.
func NewImmediateOperand(val Expr, start, end Pos) *Operand {
	if val == nil {
		panic("BUG: immediate operand without expression")
	}
	return &Operand{kind: OperandKindImmediate, expr: val, span: Span{Start: start, End: end}}
}

// NewMemoryOperand returns a memory operand. offset may be nil when the source has no offset, which is encoded as zero.
func NewMemoryOperand(base Register, offset Expr, start, end Pos) *Operand {
	return &Operand{kind: OperandKindMemory, reg: base, expr: offset, span: Span{Start: start, End: end}}
}

// Kind returns the active variant.
func (o *Operand) Kind() OperandKind { return o.kind }

// Span returns the source range of this operand.
func (o *Operand) Span() Span { return o.span }

// StartPos returns the location of the first character of this operand.
func (o *Operand) StartPos() Pos { return o.span.Start }

// EndPos returns the location of the last character of this operand.
func (o *Operand) EndPos() Pos { return o.span.End }

func (o *Operand) IsToken() bool { return o.kind == OperandKindToken }
func (o *Operand) IsReg() bool   { return o.kind == OperandKindRegister }
func (o *Operand) IsImm() bool   { return o.kind == OperandKindImmediate }
func (o *Operand) IsMem() bool   { return o.kind == OperandKindMemory }

func (o *Operand) mustBe(k OperandKind) {
	if o.kind != k {
		panic(fmt.Sprintf("BUG: invalid operand access: %s operand read as %s", o.kind, k))
	}
}

// Token returns the token text. Panics unless Kind is OperandKindToken.
func (o *Operand) Token() string {
	o.mustBe(OperandKindToken)
	return o.tok
}

// Reg returns the register. Panics unless Kind is OperandKindRegister.
func (o *Operand) Reg() Register {
	o.mustBe(OperandKindRegister)
	return o.reg
}

// Imm returns the immediate expression. Panics unless Kind is OperandKindImmediate.
func (o *Operand) Imm() Expr {
	o.mustBe(OperandKindImmediate)
	return o.expr
}

// MemBase returns the base register. Panics unless Kind is OperandKindMemory.
func (o *Operand) MemBase() Register {
	o.mustBe(OperandKindMemory)
	return o.reg
}

// MemOff returns the offset expression, nil when absent. Panics unless Kind is OperandKindMemory.
func (o *Operand) MemOff() Expr {
	o.mustBe(OperandKindMemory)
	return o.expr
}

// AddRegOperands appends the register to inst.
func (o *Operand) AddRegOperands(inst *Inst) {
	inst.AddOperand(RegOperand(o.Reg()))
}

// AddImmOperands appends the immediate to inst.
func (o *Operand) AddImmOperands(inst *Inst) {
	addExpr(inst, o.Imm())
}

// AddMemOperands appends the base register followed by the offset to inst.
func (o *Operand) AddMemOperands(inst *Inst) {
	inst.AddOperand(RegOperand(o.MemBase()))
	addExpr(inst, o.MemOff())
}

// addExpr adds constant expressions as immediates. A nil expression is zero. Expressions that fail to fold are
// added as they are, for the encoder to report.
func addExpr(inst *Inst, e Expr) {
	if e == nil {
		inst.AddOperand(ImmOperand(0))
		return
	}
	if v, err := e.Evaluate(); err == nil {
		inst.AddOperand(ImmOperand(v))
		return
	}
	inst.AddOperand(ExprOperand(e))
}

// String implements fmt.Stringer.
func (o *Operand) String() string {
	switch o.kind {
	case OperandKindToken:
		return "Tok " + o.tok
	case OperandKindRegister:
		return fmt.Sprintf("Reg %d", o.reg)
	case OperandKindImmediate:
		return "Imm " + o.expr.String()
	case OperandKindMemory:
		if o.expr == nil {
			return fmt.Sprintf("Mem %d 0", o.reg)
		}
		return fmt.Sprintf("Mem %d %s", o.reg, o.expr)
	}
	return "invalid"
}
