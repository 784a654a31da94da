package asm_nyuzi

import (
	"errors"
	"fmt"

	"github.com/tetratelabs/nyuzi/internal/asm"
	"github.com/tetratelabs/nyuzi/internal/reloc"
)

// ErrOutOfRange is returned when a constant does not fit in its encoding field.
var ErrOutOfRange = errors.New("value out of range")

// Encode appends the encoding of inst to s. Operands which are not constant are encoded as zero and recorded as
// fixups on s.
func Encode(inst *asm.Inst, s *asm.Section) error {
	e := encoder{inst: inst, desc: Desc(inst.Opcode)}
	word, err := e.encode()
	if err != nil {
		return fmt.Errorf("%w: %s", err, e.desc) // Ensure the error is debuggable by including the instruction.
	}
	if e.fixup != nil {
		e.fixup.Offset = s.Len()
		s.AddFixup(*e.fixup)
	}
	s.WriteUint32(word)
	return nil
}

type encoder struct {
	inst  *asm.Inst
	desc  *InstrDesc
	next  int
	fixup *asm.Fixup
}

func (e *encoder) operand() asm.InstOperand {
	if e.next >= len(e.inst.Operands) {
		panic(fmt.Sprintf("BUG: too few operands for %s: %s", e.desc, e.inst))
	}
	o := e.inst.Operands[e.next]
	e.next++
	return o
}

func (e *encoder) reg() asm.Register {
	return e.operand().Reg()
}

func (e *encoder) regField() uint32 {
	return RegisterIndex(e.reg())
}

func (e *encoder) encode() (word uint32, err error) {
	f := &forms[e.desc.Form]
	switch f.format {
	case FormatR:
		word = e.encodeR(f)
	case FormatI:
		word, err = e.encodeI(f)
	case FormatM:
		word, err = e.encodeM(f)
	case FormatB:
		word, err = e.encodeB()
	case FormatMoveHi:
		word, err = e.encodeMoveHi()
	case FormatFixed:
		word = e.desc.Op
	}
	if err == nil && e.next != len(e.inst.Operands) {
		panic(fmt.Sprintf("BUG: too many operands for %s: %s", e.desc, e.inst))
	}
	return
}

func (e *encoder) encodeR(f *formInfo) uint32 {
	var src1, src2, mask uint32
	dst := e.regField()
	if f.masked {
		mask = e.regField()
	}
	if len(f.classes)-boolToInt(f.masked) == 2 {
		// Unary operations take their source in src2.
		src2 = e.regField()
	} else {
		src1 = e.regField()
		src2 = e.regField()
	}
	return 0b110<<29 | f.fmt<<26 | e.desc.Op<<20 | src2<<15 | mask<<10 | dst<<5 | src1
}

func (e *encoder) encodeI(f *formInfo) (uint32, error) {
	var src1, mask uint32
	dst := e.regField()
	if f.masked {
		mask = e.regField()
	}
	if len(f.classes)-boolToInt(f.masked) == 3 {
		src1 = e.regField()
	}
	if f.masked {
		imm, err := e.immediate(e.operand(), 9, reloc.R_NYUZI_LO13)
		if err != nil {
			return 0, err
		}
		return f.fmt<<29 | e.desc.Op<<24 | imm<<15 | mask<<10 | dst<<5 | src1, nil
	}
	imm, err := e.immediate(e.operand(), 14, reloc.R_NYUZI_LO13)
	if err != nil {
		return 0, err
	}
	return f.fmt<<29 | e.desc.Op<<24 | imm<<10 | dst<<5 | src1, nil
}

func (e *encoder) encodeM(f *formInfo) (uint32, error) {
	var mask uint32
	r := e.regField()
	if f.masked {
		mask = e.regField()
	}
	baseReg := e.reg()
	memClass := f.classes[len(f.classes)-1]
	if IsVectorRegister(baseReg) != memClass.IsVectorMemory() {
		return 0, fmt.Errorf("invalid base register %s", RegisterName(baseReg))
	}
	base := RegisterIndex(baseReg)

	var load uint32
	if e.desc.Load {
		load = 1
	}
	word := 0b10<<30 | load<<29 | e.desc.Op<<25 | r<<5 | base
	if memClass.MaxBits() == 10 {
		kind := reloc.R_NYUZI_LO13
		if baseReg == REG_PC {
			kind = reloc.R_NYUZI_PCREL_MEM_EXT
		}
		imm, err := e.immediate(e.operand(), 10, kind)
		if err != nil {
			return 0, err
		}
		return word | imm<<15 | mask<<10, nil
	}
	kind := reloc.R_NYUZI_LO13
	if baseReg == REG_PC {
		kind = reloc.R_NYUZI_PCREL_MEM
	}
	imm, err := e.immediate(e.operand(), 15, kind)
	if err != nil {
		return 0, err
	}
	return word | imm<<10, nil
}

func (e *encoder) encodeB() (uint32, error) {
	var src, offset uint32
	var err error
	switch e.desc.Form {
	case FormTarget:
		offset, err = e.branchTarget(e.operand())
	case FormReg:
		src = e.regField()
	case FormRegTarget:
		src = e.regField()
		offset, err = e.branchTarget(e.operand())
	default:
		panic(fmt.Sprintf("BUG: invalid branch form %s", e.desc.Form))
	}
	if err != nil {
		return 0, err
	}
	return 0xf<<28 | e.desc.Op<<25 | offset<<5 | src, nil
}

func (e *encoder) encodeMoveHi() (uint32, error) {
	dst := e.regField()
	o := e.operand()
	if o.Kind() == asm.InstOperandExpr {
		e.addFixup(o.Expr(), reloc.R_NYUZI_HI19)
		return 0xe<<28 | dst, nil
	}
	v := o.Imm()
	if v < 0 || v >= 1<<19 {
		return 0, fmt.Errorf("%w: %d does not fit in 19 bits", ErrOutOfRange, v)
	}
	return 0xe<<28 | uint32(v)<<5 | dst, nil
}

// branchTarget returns the offset field of a branch. A constant target is a byte displacement from the next
// instruction.
func (e *encoder) branchTarget(o asm.InstOperand) (uint32, error) {
	if o.Kind() == asm.InstOperandExpr {
		e.addFixup(o.Expr(), reloc.R_NYUZI_BRANCH)
		return 0, nil
	}
	return branchOffset(o.Imm())
}

func branchOffset(disp int64) (uint32, error) {
	if disp%4 != 0 {
		return 0, fmt.Errorf("%w: misaligned branch displacement %d", ErrOutOfRange, disp)
	}
	if !fitsSigned(disp/4, 20) {
		return 0, fmt.Errorf("%w: branch displacement %d does not fit in 20 bits", ErrOutOfRange, disp)
	}
	return uint32(disp/4) & (1<<20 - 1), nil
}

// immediate returns the signed field of the given width holding o.
func (e *encoder) immediate(o asm.InstOperand, bits int, kind reloc.Kind) (uint32, error) {
	if o.Kind() == asm.InstOperandExpr {
		if kind == reloc.R_NYUZI_LO13 && bits < 14 {
			return 0, fmt.Errorf("expression %s cannot be relocated in a %d-bit field", o.Expr(), bits)
		}
		e.addFixup(o.Expr(), kind)
		return 0, nil
	}
	v := o.Imm()
	if !fitsSigned(v, bits) {
		return 0, fmt.Errorf("%w: %d does not fit in %d bits", ErrOutOfRange, v, bits)
	}
	return uint32(v) & (1<<bits - 1), nil
}

func (e *encoder) addFixup(value asm.Expr, kind reloc.Kind) {
	if e.fixup != nil {
		panic(fmt.Sprintf("BUG: two fixups in %s", e.inst))
	}
	e.fixup = &asm.Fixup{Value: value, Kind: uint32(kind), Pos: e.inst.Loc}
}

// ApplyFixup returns word with the field of kind set to value. value is the resolved symbol address, or, for the PC
// relative kinds, the byte displacement from the next instruction.
func ApplyFixup(word uint32, kind reloc.Kind, value int64) (uint32, error) {
	switch kind {
	case reloc.R_NYUZI_BRANCH:
		offset, err := branchOffset(value)
		if err != nil {
			return 0, err
		}
		return word&^((1<<20-1)<<5) | offset<<5, nil
	case reloc.R_NYUZI_PCREL_MEM:
		if !fitsSigned(value, 15) {
			return 0, fmt.Errorf("%w: PC relative offset %d does not fit in 15 bits", ErrOutOfRange, value)
		}
		return word&^((1<<15-1)<<10) | (uint32(value)&(1<<15-1))<<10, nil
	case reloc.R_NYUZI_PCREL_MEM_EXT:
		if !fitsSigned(value, 10) {
			return 0, fmt.Errorf("%w: PC relative offset %d does not fit in 10 bits", ErrOutOfRange, value)
		}
		return word&^((1<<10-1)<<15) | (uint32(value)&(1<<10-1))<<15, nil
	case reloc.R_NYUZI_ABS32:
		if value < -(1<<31) || value >= 1<<32 {
			return 0, fmt.Errorf("%w: %d does not fit in 32 bits", ErrOutOfRange, value)
		}
		return uint32(value), nil
	case reloc.R_NYUZI_HI19:
		return word&^((1<<19-1)<<5) | (uint32(value)>>13)<<5, nil
	case reloc.R_NYUZI_LO13:
		return word&^((1<<13-1)<<10) | (uint32(value)&(1<<13-1))<<10, nil
	}
	return 0, fmt.Errorf("%w: relocation kind %d", reloc.ErrIllegalValue, kind)
}

func fitsSigned(v int64, bits int) bool {
	return v >= -(1<<(bits-1)) && v <= 1<<(bits-1)-1
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
