package asm_nyuzi

import (
	"fmt"
	"io"
	"strings"

	"github.com/tetratelabs/nyuzi/internal/asm"
)

// FormatInst returns inst in assembly syntax.
func FormatInst(inst *asm.Inst) string {
	d := Desc(inst.Opcode)
	var ops []string
	next := 0
	for _, c := range d.Form.Classes() {
		o := inst.Operands[next]
		next++
		switch {
		case c.IsMemory():
			ops = append(ops, formatMemory(o.Reg(), inst.Operands[next]))
			next++
		case o.Kind() == asm.InstOperandReg:
			ops = append(ops, RegisterName(o.Reg()))
		case o.Kind() == asm.InstOperandImm:
			ops = append(ops, fmt.Sprintf("%d", o.Imm()))
		default:
			ops = append(ops, o.Expr().String())
		}
	}
	if len(ops) == 0 {
		return d.Mnemonic
	}
	return d.Mnemonic + " " + strings.Join(ops, ", ")
}

func formatMemory(base asm.Register, off asm.InstOperand) string {
	if off.Kind() == asm.InstOperandExpr {
		if base == REG_PC {
			// Label form.
			return off.Expr().String()
		}
		// The indexed form only starts with a number or a sign.
		s := off.Expr().String()
		if !strings.HasPrefix(s, "-") {
			s = "+" + s
		}
		return fmt.Sprintf("%s(%s)", s, RegisterName(base))
	}
	if off.Imm() == 0 {
		return fmt.Sprintf("(%s)", RegisterName(base))
	}
	return fmt.Sprintf("%d(%s)", off.Imm(), RegisterName(base))
}

// Printer is an asm.Streamer which writes assembly text.
type Printer struct {
	w   io.Writer
	err error
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) printf(format string, args ...interface{}) error {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
	return p.err
}

// EmitInstruction implements asm.Streamer.EmitInstruction
func (p *Printer) EmitInstruction(inst *asm.Inst) error {
	return p.printf("\t%s\n", FormatInst(inst))
}

// EmitLabel implements asm.Streamer.EmitLabel
func (p *Printer) EmitLabel(name string, _ asm.Pos) error {
	return p.printf("%s:\n", name)
}

// EmitValue implements asm.Streamer.EmitValue
func (p *Printer) EmitValue(value asm.Expr, size int, _ asm.Pos) error {
	switch size {
	case 1:
		return p.printf("\t.byte %s\n", value)
	case 2:
		return p.printf("\t.short %s\n", value)
	}
	return p.printf("\t.word %s\n", value)
}

// EmitAlign implements asm.Streamer.EmitAlign
func (p *Printer) EmitAlign(alignment int, _ asm.Pos) error {
	return p.printf("\t.align %d\n", alignment)
}

// EmitGlobal implements asm.Streamer.EmitGlobal
func (p *Printer) EmitGlobal(name string, _ asm.Pos) error {
	return p.printf("\t.globl %s\n", name)
}

// SwitchSection implements asm.Streamer.SwitchSection
func (p *Printer) SwitchSection(name string, _ asm.Pos) error {
	return p.printf("\t%s\n", name)
}
