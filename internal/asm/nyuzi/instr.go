package asm_nyuzi

import (
	"fmt"

	"github.com/tetratelabs/nyuzi/internal/asm"
	"github.com/tetratelabs/nyuzi/internal/subtarget"
)

// OperandClass is the kind of source operand accepted at one position of an instruction form.
type OperandClass byte

const (
	OperandClassInvalid OperandClass = iota
	OperandClassScalarReg
	OperandClassVectorReg
	// OperandClassSImm13 is a signed 13-bit immediate of an unmasked arithmetic instruction.
	OperandClassSImm13
	// OperandClassSImm8 is a signed 8-bit immediate of a masked arithmetic instruction.
	OperandClassSImm8
	// OperandClassImm is an unconstrained immediate such as a branch target.
	OperandClassImm
	// OperandClassMemS10 is a scalar base register with a signed 10-bit offset.
	OperandClassMemS10
	// OperandClassMemS15 is a scalar base register with a signed 15-bit offset.
	OperandClassMemS15
	// OperandClassMemV10 is a vector base register with a signed 10-bit offset.
	OperandClassMemV10
	// OperandClassMemV15 is a vector base register with a signed 15-bit offset.
	OperandClassMemV15
)

var operandClassNames = [...]string{
	OperandClassInvalid:   "Invalid",
	OperandClassScalarReg: "ScalarReg",
	OperandClassVectorReg: "VectorReg",
	OperandClassSImm13:    "SImm13",
	OperandClassSImm8:     "SImm8",
	OperandClassImm:       "Imm",
	OperandClassMemS10:    "MemS10",
	OperandClassMemS15:    "MemS15",
	OperandClassMemV10:    "MemV10",
	OperandClassMemV15:    "MemV15",
}

// String implements fmt.Stringer.
func (c OperandClass) String() string { return operandClassNames[c] }

// IsMemory returns true for the memory operand classes.
func (c OperandClass) IsMemory() bool {
	return c >= OperandClassMemS10 && c <= OperandClassMemV15
}

// IsVectorMemory returns true if the base register of this memory class is a vector register.
func (c OperandClass) IsVectorMemory() bool {
	return c == OperandClassMemV10 || c == OperandClassMemV15
}

// HasCustomParser returns true if operands of this class are parsed by a class-specific parser rather than the
// generic register/immediate/expression fallback.
func (c OperandClass) HasCustomParser() bool {
	return c == OperandClassSImm13 || c == OperandClassSImm8 || c.IsMemory()
}

// MaxBits returns the signed width of the immediate or offset of this class, or zero if unconstrained.
func (c OperandClass) MaxBits() int {
	switch c {
	case OperandClassSImm13:
		return 13
	case OperandClassSImm8:
		return 8
	case OperandClassMemS10, OperandClassMemV10:
		return 10
	case OperandClassMemS15, OperandClassMemV15:
		return 15
	}
	return 0
}

// Accepts returns true if op is of the shape this class expects.
func (c OperandClass) Accepts(op *asm.Operand) bool {
	switch c {
	case OperandClassScalarReg:
		return op.IsReg() && IsScalarRegister(op.Reg())
	case OperandClassVectorReg:
		return op.IsReg() && IsVectorRegister(op.Reg())
	case OperandClassSImm13, OperandClassSImm8, OperandClassImm:
		return op.IsImm()
	case OperandClassMemS10, OperandClassMemS15, OperandClassMemV10, OperandClassMemV15:
		return op.IsMem()
	}
	return false
}

// addOperands appends the machine operands of op, as accepted by this class.
func (c OperandClass) addOperands(op *asm.Operand, inst *asm.Inst) {
	switch {
	case c == OperandClassScalarReg || c == OperandClassVectorReg:
		op.AddRegOperands(inst)
	case c.IsMemory():
		op.AddMemOperands(inst)
	default:
		op.AddImmOperands(inst)
	}
}

// Format is the top level encoding format of an instruction.
type Format byte

const (
	// FormatR is register arithmetic: 110 fmt(3) op(6) src2(5) mask(5) dst(5) src1(5).
	FormatR Format = iota
	// FormatI is immediate arithmetic: 0 fmt(2) op(5) imm(14) dst(5) src1(5), where masked forms split imm into
	// imm(9) mask(5).
	FormatI
	// FormatM is a load or store: 10 load(1) op(4) imm(15) reg(5) base(5), where masked forms split imm into
	// imm(10) mask(5).
	FormatM
	// FormatB is a branch: 1111 type(3) offset(20) src(5).
	FormatB
	// FormatMoveHi is 1110 0000 imm(19) dst(5).
	FormatMoveHi
	// FormatFixed instructions have no operands and a fixed encoding.
	FormatFixed
)

// Form is the operand shape of an instruction, which also determines how the operands map to encoding fields.
//
// Letters name operand classes in order: S is a scalar register, V a vector register, I an immediate. Mask forms
// take a scalar mask register right after the destination.
type Form byte

const (
	FormSSS Form = iota
	FormVVS
	FormVVV
	FormVVSMask
	FormVVVMask
	FormSSI
	FormVVI
	FormVVIMask
	FormSVS
	FormSVV
	FormSVI
	FormSS
	FormVS
	FormVV
	FormVSMask
	FormVVMask
	FormSI
	FormVI
	FormVIMask
	// FormScalarMem is a scalar load or store.
	FormScalarMem
	// FormScalarMem10 is a scalar memory operation with a short offset.
	FormScalarMem10
	// FormBlockMem is a block vector load or store.
	FormBlockMem
	FormBlockMemMask
	// FormGatherMem is a gather load or scatter store.
	FormGatherMem
	FormGatherMemMask
	// FormTarget is a branch to a label.
	FormTarget
	// FormReg is an indirect branch.
	FormReg
	// FormRegTarget is a conditional branch.
	FormRegTarget
	FormMoveHi
	FormNone
	formEnd
)

type formInfo struct {
	name    string
	classes []OperandClass
	format  Format
	// fmt is the fmt field of FormatR and FormatI.
	fmt    uint32
	masked bool
	// vector forms require the vector unit.
	vector bool
}

const (
	clsS  = OperandClassScalarReg
	clsV  = OperandClassVectorReg
	clsI  = OperandClassSImm13
	clsI8 = OperandClassSImm8
)

var forms = [formEnd]formInfo{
	FormSSS:           {name: "SSS", classes: []OperandClass{clsS, clsS, clsS}, format: FormatR, fmt: 0},
	FormVVS:           {name: "VVS", classes: []OperandClass{clsV, clsV, clsS}, format: FormatR, fmt: 1, vector: true},
	FormVVV:           {name: "VVV", classes: []OperandClass{clsV, clsV, clsV}, format: FormatR, fmt: 4, vector: true},
	FormVVSMask:       {name: "VVSMask", classes: []OperandClass{clsV, clsS, clsV, clsS}, format: FormatR, fmt: 2, masked: true, vector: true},
	FormVVVMask:       {name: "VVVMask", classes: []OperandClass{clsV, clsS, clsV, clsV}, format: FormatR, fmt: 5, masked: true, vector: true},
	FormSSI:           {name: "SSI", classes: []OperandClass{clsS, clsS, clsI}, format: FormatI, fmt: 0},
	FormVVI:           {name: "VVI", classes: []OperandClass{clsV, clsV, clsI}, format: FormatI, fmt: 1, vector: true},
	FormVVIMask:       {name: "VVIMask", classes: []OperandClass{clsV, clsS, clsV, clsI8}, format: FormatI, fmt: 2, masked: true, vector: true},
	FormSVS:           {name: "SVS", classes: []OperandClass{clsS, clsV, clsS}, format: FormatR, fmt: 1, vector: true},
	FormSVV:           {name: "SVV", classes: []OperandClass{clsS, clsV, clsV}, format: FormatR, fmt: 4, vector: true},
	FormSVI:           {name: "SVI", classes: []OperandClass{clsS, clsV, clsI}, format: FormatI, fmt: 1, vector: true},
	FormSS:            {name: "SS", classes: []OperandClass{clsS, clsS}, format: FormatR, fmt: 0},
	FormVS:            {name: "VS", classes: []OperandClass{clsV, clsS}, format: FormatR, fmt: 1, vector: true},
	FormVV:            {name: "VV", classes: []OperandClass{clsV, clsV}, format: FormatR, fmt: 4, vector: true},
	FormVSMask:        {name: "VSMask", classes: []OperandClass{clsV, clsS, clsS}, format: FormatR, fmt: 2, masked: true, vector: true},
	FormVVMask:        {name: "VVMask", classes: []OperandClass{clsV, clsS, clsV}, format: FormatR, fmt: 5, masked: true, vector: true},
	FormSI:            {name: "SI", classes: []OperandClass{clsS, clsI}, format: FormatI, fmt: 0},
	FormVI:            {name: "VI", classes: []OperandClass{clsV, clsI}, format: FormatI, fmt: 1, vector: true},
	FormVIMask:        {name: "VIMask", classes: []OperandClass{clsV, clsS, clsI8}, format: FormatI, fmt: 2, masked: true, vector: true},
	FormScalarMem:     {name: "ScalarMem", classes: []OperandClass{clsS, OperandClassMemS15}, format: FormatM},
	FormScalarMem10:   {name: "ScalarMem10", classes: []OperandClass{clsS, OperandClassMemS10}, format: FormatM},
	FormBlockMem:      {name: "BlockMem", classes: []OperandClass{clsV, OperandClassMemS15}, format: FormatM, vector: true},
	FormBlockMemMask:  {name: "BlockMemMask", classes: []OperandClass{clsV, clsS, OperandClassMemS10}, format: FormatM, masked: true, vector: true},
	FormGatherMem:     {name: "GatherMem", classes: []OperandClass{clsV, OperandClassMemV15}, format: FormatM, vector: true},
	FormGatherMemMask: {name: "GatherMemMask", classes: []OperandClass{clsV, clsS, OperandClassMemV10}, format: FormatM, masked: true, vector: true},
	FormTarget:        {name: "Target", classes: []OperandClass{OperandClassImm}, format: FormatB},
	FormReg:           {name: "Reg", classes: []OperandClass{clsS}, format: FormatB},
	FormRegTarget:     {name: "RegTarget", classes: []OperandClass{clsS, OperandClassImm}, format: FormatB},
	FormMoveHi:        {name: "MoveHi", classes: []OperandClass{clsS, OperandClassImm}, format: FormatMoveHi},
	FormNone:          {name: "None", format: FormatFixed},
}

// String implements fmt.Stringer.
func (f Form) String() string { return forms[f].name }

// Classes returns the operand classes of this form, excluding the mnemonic.
func (f Form) Classes() []OperandClass { return forms[f].classes }

// Masked returns true if the second operand of this form is a mask register.
func (f Form) Masked() bool { return forms[f].masked }

// InstrDesc describes one instruction: a mnemonic with one operand form.
type InstrDesc struct {
	Mnemonic string
	Form     Form
	// Op is the opcode field for the format, or the whole instruction word for FormatFixed.
	Op uint32
	// Load is the load bit of FormatM.
	Load bool
	// Features must all be enabled for the instruction to be accepted.
	Features subtarget.FeatureBits
}

// Format returns the encoding format.
func (d *InstrDesc) Format() Format { return forms[d.Form].format }

// String implements fmt.Stringer.
func (d *InstrDesc) String() string { return fmt.Sprintf("%s(%s)", d.Mnemonic, d.Form) }

// Operand form groups.
var (
	intBinaryForms   = []Form{FormSSS, FormVVS, FormVVV, FormVVSMask, FormVVVMask, FormSSI, FormVVI, FormVVIMask}
	regBinaryForms   = []Form{FormSSS, FormVVS, FormVVV, FormVVSMask, FormVVVMask}
	intCompareForms  = []Form{FormSSS, FormSVS, FormSVV, FormSSI, FormSVI}
	fpCompareForms   = []Form{FormSSS, FormSVS, FormSVV}
	unaryForms       = []Form{FormSS, FormVS, FormVV, FormVSMask, FormVVMask}
	moveForms        = []Form{FormSS, FormVS, FormVV, FormVSMask, FormVVMask, FormSI, FormVI, FormVIMask}
	vectorOnlyForms  = []Form{FormVVV, FormVVVMask}
	getLaneForms     = []Form{FormSVS, FormSVI}
	scalarMemForms   = []Form{FormScalarMem}
	blockMemForms    = []Form{FormBlockMem, FormBlockMemMask}
	gatherMemForms   = []Form{FormGatherMem, FormGatherMemMask}
	branchForms      = []Form{FormTarget, FormReg}
	condBranchForms  = []Form{FormRegTarget}
	noOperandForms   = []Form{FormNone}
	shortMemoryForms = []Form{FormScalarMem10}
)

type instrSpec struct {
	mnemonic string
	op       uint32
	forms    []Form
	load     bool
	features subtarget.FeatureBits
}

// instrSpecs is the instruction set. Entries of the same mnemonic are matched in order.
var instrSpecs = []instrSpec{
	{mnemonic: "or", op: 0x00, forms: intBinaryForms},
	{mnemonic: "and", op: 0x01, forms: intBinaryForms},
	{mnemonic: "xor", op: 0x03, forms: intBinaryForms},
	{mnemonic: "add_i", op: 0x05, forms: intBinaryForms},
	{mnemonic: "sub_i", op: 0x06, forms: intBinaryForms},
	{mnemonic: "mull_i", op: 0x07, forms: intBinaryForms},
	{mnemonic: "mulhu_i", op: 0x08, forms: regBinaryForms},
	{mnemonic: "ashr", op: 0x09, forms: intBinaryForms},
	{mnemonic: "shr", op: 0x0a, forms: intBinaryForms},
	{mnemonic: "shl", op: 0x0b, forms: intBinaryForms},
	{mnemonic: "clz", op: 0x0c, forms: unaryForms},
	{mnemonic: "shuffle", op: 0x0d, forms: vectorOnlyForms},
	{mnemonic: "ctz", op: 0x0e, forms: unaryForms},
	{mnemonic: "move", op: 0x0f, forms: moveForms},
	{mnemonic: "cmpeq_i", op: 0x10, forms: intCompareForms},
	{mnemonic: "cmpne_i", op: 0x11, forms: intCompareForms},
	{mnemonic: "cmpgt_i", op: 0x12, forms: intCompareForms},
	{mnemonic: "cmpge_i", op: 0x13, forms: intCompareForms},
	{mnemonic: "cmplt_i", op: 0x14, forms: intCompareForms},
	{mnemonic: "cmple_i", op: 0x15, forms: intCompareForms},
	{mnemonic: "cmpgt_u", op: 0x16, forms: intCompareForms},
	{mnemonic: "cmpge_u", op: 0x17, forms: intCompareForms},
	{mnemonic: "cmplt_u", op: 0x18, forms: intCompareForms},
	{mnemonic: "cmple_u", op: 0x19, forms: intCompareForms},
	{mnemonic: "getlane", op: 0x1a, forms: getLaneForms},
	{mnemonic: "ftoi", op: 0x1b, forms: unaryForms},
	{mnemonic: "reciprocal", op: 0x1c, forms: unaryForms},
	{mnemonic: "sext_8", op: 0x1d, forms: unaryForms},
	{mnemonic: "sext_16", op: 0x1e, forms: unaryForms},
	{mnemonic: "mulhs_i", op: 0x1f, forms: regBinaryForms},
	{mnemonic: "add_f", op: 0x20, forms: regBinaryForms},
	{mnemonic: "sub_f", op: 0x21, forms: regBinaryForms},
	{mnemonic: "mul_f", op: 0x22, forms: regBinaryForms},
	{mnemonic: "div_i", op: 0x24, forms: regBinaryForms, features: subtarget.FeatureHWDiv},
	{mnemonic: "itof", op: 0x2a, forms: unaryForms},
	{mnemonic: "cmpgt_f", op: 0x2c, forms: fpCompareForms},
	{mnemonic: "cmpge_f", op: 0x2d, forms: fpCompareForms},
	{mnemonic: "cmplt_f", op: 0x2e, forms: fpCompareForms},
	{mnemonic: "cmple_f", op: 0x2f, forms: fpCompareForms},
	{mnemonic: "cmpeq_f", op: 0x30, forms: fpCompareForms},
	{mnemonic: "cmpne_f", op: 0x31, forms: fpCompareForms},

	{mnemonic: "load_u8", op: 0x0, forms: scalarMemForms, load: true},
	{mnemonic: "load_s8", op: 0x1, forms: scalarMemForms, load: true},
	{mnemonic: "load_u16", op: 0x2, forms: scalarMemForms, load: true},
	{mnemonic: "load_s16", op: 0x3, forms: scalarMemForms, load: true},
	{mnemonic: "load_32", op: 0x4, forms: scalarMemForms, load: true},
	{mnemonic: "load_sync", op: 0x5, forms: scalarMemForms, load: true},
	{mnemonic: "memadd_32", op: 0x6, forms: shortMemoryForms, load: true, features: subtarget.FeatureMemOps},
	{mnemonic: "load_v", op: 0x7, forms: blockMemForms, load: true},
	{mnemonic: "load_gath", op: 0xd, forms: gatherMemForms, load: true},
	{mnemonic: "store_8", op: 0x0, forms: scalarMemForms},
	{mnemonic: "store_16", op: 0x2, forms: scalarMemForms},
	{mnemonic: "store_32", op: 0x4, forms: scalarMemForms},
	{mnemonic: "store_sync", op: 0x5, forms: scalarMemForms},
	{mnemonic: "store_v", op: 0x7, forms: blockMemForms},
	{mnemonic: "store_scat", op: 0xd, forms: gatherMemForms},

	{mnemonic: "b", op: 0x3, forms: branchForms},
	{mnemonic: "bz", op: 0x1, forms: condBranchForms},
	{mnemonic: "bnz", op: 0x2, forms: condBranchForms},
	{mnemonic: "call", op: 0x4, forms: branchForms},
	{mnemonic: "movehi", forms: []Form{FormMoveHi}},

	{mnemonic: "nop", op: 0x00000000, forms: noOperandForms},
	// b ra
	{mnemonic: "ret", op: 0xf0000000 | uint32(REG_RA-REG_S0), forms: noOperandForms},
	{mnemonic: "eret", op: 0xf0000000 | 7<<25, forms: noOperandForms},
	{mnemonic: "membar", op: 0xe2000000, forms: noOperandForms, features: subtarget.FeatureV60},
}

var (
	instrDescs []InstrDesc
	mnemonics  = map[string][]asm.Opcode{}
)

func init() {
	// Opcode zero is invalid.
	instrDescs = append(instrDescs, InstrDesc{})
	for _, spec := range instrSpecs {
		for _, f := range spec.forms {
			d := InstrDesc{Mnemonic: spec.mnemonic, Form: f, Op: spec.op, Load: spec.load, Features: spec.features}
			if forms[f].masked {
				d.Mnemonic += "_mask"
			}
			if forms[f].vector {
				d.Features |= subtarget.FeatureHVX
			}
			// The branch type of an indirect branch differs from the direct one.
			if f == FormReg {
				switch spec.mnemonic {
				case "b":
					d.Op = 0x0
				case "call":
					d.Op = 0x6
				}
			}
			mnemonics[d.Mnemonic] = append(mnemonics[d.Mnemonic], asm.Opcode(len(instrDescs)))
			instrDescs = append(instrDescs, d)
		}
	}
}

// Desc returns the description of op.
func Desc(op asm.Opcode) *InstrDesc {
	if op == 0 || int(op) >= len(instrDescs) {
		panic(fmt.Sprintf("BUG: invalid opcode %d", op))
	}
	return &instrDescs[op]
}

// InstructionName returns the mnemonic of op.
func InstructionName(op asm.Opcode) string {
	return Desc(op).Mnemonic
}

// Opcodes returns every valid opcode.
func Opcodes() []asm.Opcode {
	ret := make([]asm.Opcode, 0, len(instrDescs)-1)
	for op := 1; op < len(instrDescs); op++ {
		ret = append(ret, asm.Opcode(op))
	}
	return ret
}

// LookupOpcode returns the opcode of mnemonic with the given form.
func LookupOpcode(mnemonic string, form Form) (asm.Opcode, bool) {
	for _, op := range mnemonics[mnemonic] {
		if instrDescs[op].Form == form {
			return op, true
		}
	}
	return 0, false
}

// MustLookupOpcode is like LookupOpcode but panics if the instruction does not exist.
func MustLookupOpcode(mnemonic string, form Form) asm.Opcode {
	op, ok := LookupOpcode(mnemonic, form)
	if !ok {
		panic(fmt.Sprintf("BUG: no %s form of %s", form, mnemonic))
	}
	return op
}

// IsMnemonic returns true if name is the mnemonic of at least one instruction.
func IsMnemonic(name string) bool {
	_, ok := mnemonics[name]
	return ok
}

// CustomOperandClasses returns the classes with a custom parser that the operand at index, counting the mnemonic
// as index 0, may have for mnemonic. Classes are unique and in table order.
func CustomOperandClasses(mnemonic string, index int) (ret []OperandClass) {
	if index < 1 {
		return nil
	}
	for _, op := range mnemonics[mnemonic] {
		classes := instrDescs[op].Form.Classes()
		if index > len(classes) {
			continue
		}
		c := classes[index-1]
		if !c.HasCustomParser() {
			continue
		}
		dup := false
		for _, e := range ret {
			dup = dup || e == c
		}
		if !dup {
			ret = append(ret, c)
		}
	}
	return
}
