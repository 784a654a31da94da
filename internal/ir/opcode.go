package ir

import "fmt"

// Opcode is the operation of a Node. Opcodes from OpcodeTargetBegin on are defined by targets.
type Opcode uint16

const (
	OpcodeInvalid Opcode = iota

	// OpcodeEntryToken is the chain at the start of the function.
	OpcodeEntryToken
	// OpcodeTokenFactor merges its chain operands into one chain.
	OpcodeTokenFactor
	OpcodeUndef
	// OpcodeMergeValues returns its operands as its results.
	OpcodeMergeValues

	// OpcodeConstant is an integer constant which may still need materializing.
	OpcodeConstant
	OpcodeConstantFP
	// OpcodeTargetConstant is an integer constant which is encoded as an immediate as is.
	OpcodeTargetConstant
	OpcodeGlobalAddress
	OpcodeTargetGlobalAddress
	OpcodeExternalSymbol
	OpcodeTargetExternalSymbol
	OpcodeBlockAddress
	OpcodeTargetBlockAddress
	OpcodeConstantPool
	OpcodeTargetConstantPool
	OpcodeJumpTable
	OpcodeTargetJumpTable
	OpcodeFrameIndex
	// OpcodeRegister names a physical or virtual register, an operand of the register copies.
	OpcodeRegister
	// OpcodeBasicBlock names a block, an operand of the branches.
	OpcodeBasicBlock

	// OpcodeCopyToReg is `chain, glue = CopyToReg chain, reg, value [, glue]`.
	OpcodeCopyToReg
	// OpcodeCopyFromReg is `value, chain, glue = CopyFromReg chain, reg [, glue]`.
	OpcodeCopyFromReg
	// OpcodeCallSeqStart is `chain, glue = CallSeqStart chain, bytes`, opening the outgoing argument area.
	OpcodeCallSeqStart
	// OpcodeCallSeqEnd is `chain, glue = CallSeqEnd chain, bytes, glue`.
	OpcodeCallSeqEnd

	// OpcodeLoad is `value, chain = Load chain, ptr`.
	OpcodeLoad
	// OpcodeStore is `chain = Store chain, value, ptr`.
	OpcodeStore

	OpcodeAdd
	OpcodeSub
	OpcodeMul
	OpcodeMulHU
	OpcodeMulHS
	OpcodeSDiv
	OpcodeUDiv
	OpcodeSRem
	OpcodeURem
	OpcodeAnd
	OpcodeOr
	OpcodeXor
	OpcodeShl
	OpcodeSra
	OpcodeSrl
	OpcodeRotl
	OpcodeRotr

	OpcodeFAdd
	OpcodeFSub
	OpcodeFMul
	OpcodeFDiv
	OpcodeFRem
	OpcodeFNeg
	OpcodeFAbs
	OpcodeFSqrt
	// OpcodeBitcast reinterprets the bits of its operand as another type of the same size.
	OpcodeBitcast

	// OpcodeSetCC compares its two operands with the node's condition code.
	OpcodeSetCC
	// OpcodeSelect is `Select cond, t, f`.
	OpcodeSelect
	// OpcodeSelectCC is `SelectCC lhs, rhs, t, f` with a condition code.
	OpcodeSelectCC
	// OpcodeVSelect is a lane wise Select with a vector condition.
	OpcodeVSelect

	// OpcodeBr is `chain = Br chain, block`.
	OpcodeBr
	// OpcodeBrCond is `chain = BrCond chain, cond, block`.
	OpcodeBrCond
	// OpcodeBrCC is `chain = BrCC chain, lhs, rhs, block` with a condition code.
	OpcodeBrCC
	// OpcodeBrJT is `chain = BrJT chain, table, index`.
	OpcodeBrJT
	// OpcodeBrInd is `chain = BrInd chain, address`.
	OpcodeBrInd

	OpcodeBuildVector
	OpcodeScalarToVector
	// OpcodeVectorShuffle selects lanes of its two operands by the node's mask.
	OpcodeVectorShuffle
	// OpcodeInsertVectorElt is `InsertVectorElt vector, value, index`.
	OpcodeInsertVectorElt
	// OpcodeExtractVectorElt is `ExtractVectorElt vector, index`.
	OpcodeExtractVectorElt

	OpcodeCTLZ
	OpcodeCTTZ
	// OpcodeCTLZZeroUndef is CTLZ with an undefined result for zero.
	OpcodeCTLZZeroUndef
	OpcodeCTTZZeroUndef
	OpcodeCTPop

	// OpcodeSignExtendInReg sign extends the low bits of its operand, as many as the size of the node's extension
	// type.
	OpcodeSignExtendInReg
	OpcodeSIntToFP
	OpcodeUIntToFP
	OpcodeFPToSInt
	OpcodeFPToUInt

	// OpcodeFrameAddr is `FrameAddr depth`.
	OpcodeFrameAddr
	// OpcodeReturnAddr is `ReturnAddr depth`.
	OpcodeReturnAddr

	// OpcodeVAStart is `chain = VAStart chain, ptr`.
	OpcodeVAStart
	OpcodeVAArg
	OpcodeVAEnd
	OpcodeVACopy

	// The atomic read-modify-write operations are `value, chain = op chain, ptr, value`, where the result is the
	// previous value in memory.
	OpcodeAtomicLoadAdd
	OpcodeAtomicLoadSub
	OpcodeAtomicLoadAnd
	OpcodeAtomicLoadOr
	OpcodeAtomicLoadXor
	OpcodeAtomicLoadNand
	OpcodeAtomicSwap
	// OpcodeAtomicCmpSwap is `value, chain = AtomicCmpSwap chain, ptr, expected, new`.
	OpcodeAtomicCmpSwap
	OpcodeAtomicFence

	// OpcodeTargetBegin is the first target specific opcode.
	OpcodeTargetBegin
)

var opcodeNames = [OpcodeTargetBegin]string{
	OpcodeInvalid:              "invalid",
	OpcodeEntryToken:           "EntryToken",
	OpcodeTokenFactor:          "TokenFactor",
	OpcodeUndef:                "undef",
	OpcodeMergeValues:          "merge_values",
	OpcodeConstant:             "Constant",
	OpcodeConstantFP:           "ConstantFP",
	OpcodeTargetConstant:       "TargetConstant",
	OpcodeGlobalAddress:        "GlobalAddress",
	OpcodeTargetGlobalAddress:  "TargetGlobalAddress",
	OpcodeExternalSymbol:       "ExternalSymbol",
	OpcodeTargetExternalSymbol: "TargetExternalSymbol",
	OpcodeBlockAddress:         "BlockAddress",
	OpcodeTargetBlockAddress:   "TargetBlockAddress",
	OpcodeConstantPool:         "ConstantPool",
	OpcodeTargetConstantPool:   "TargetConstantPool",
	OpcodeJumpTable:            "JumpTable",
	OpcodeTargetJumpTable:      "TargetJumpTable",
	OpcodeFrameIndex:           "FrameIndex",
	OpcodeRegister:             "Register",
	OpcodeBasicBlock:           "BasicBlock",
	OpcodeCopyToReg:            "CopyToReg",
	OpcodeCopyFromReg:          "CopyFromReg",
	OpcodeCallSeqStart:         "callseq_start",
	OpcodeCallSeqEnd:           "callseq_end",
	OpcodeLoad:                 "load",
	OpcodeStore:                "store",
	OpcodeAdd:                  "add",
	OpcodeSub:                  "sub",
	OpcodeMul:                  "mul",
	OpcodeMulHU:                "mulhu",
	OpcodeMulHS:                "mulhs",
	OpcodeSDiv:                 "sdiv",
	OpcodeUDiv:                 "udiv",
	OpcodeSRem:                 "srem",
	OpcodeURem:                 "urem",
	OpcodeAnd:                  "and",
	OpcodeOr:                   "or",
	OpcodeXor:                  "xor",
	OpcodeShl:                  "shl",
	OpcodeSra:                  "sra",
	OpcodeSrl:                  "srl",
	OpcodeRotl:                 "rotl",
	OpcodeRotr:                 "rotr",
	OpcodeFAdd:                 "fadd",
	OpcodeFSub:                 "fsub",
	OpcodeFMul:                 "fmul",
	OpcodeFDiv:                 "fdiv",
	OpcodeFRem:                 "frem",
	OpcodeFNeg:                 "fneg",
	OpcodeFAbs:                 "fabs",
	OpcodeFSqrt:                "fsqrt",
	OpcodeBitcast:              "bitcast",
	OpcodeSetCC:                "setcc",
	OpcodeSelect:               "select",
	OpcodeSelectCC:             "select_cc",
	OpcodeVSelect:              "vselect",
	OpcodeBr:                   "br",
	OpcodeBrCond:               "brcond",
	OpcodeBrCC:                 "br_cc",
	OpcodeBrJT:                 "br_jt",
	OpcodeBrInd:                "brind",
	OpcodeBuildVector:          "BUILD_VECTOR",
	OpcodeScalarToVector:       "scalar_to_vector",
	OpcodeVectorShuffle:        "vector_shuffle",
	OpcodeInsertVectorElt:      "insert_vector_elt",
	OpcodeExtractVectorElt:     "extract_vector_elt",
	OpcodeCTLZ:                 "ctlz",
	OpcodeCTTZ:                 "cttz",
	OpcodeCTLZZeroUndef:        "ctlz_zero_undef",
	OpcodeCTTZZeroUndef:        "cttz_zero_undef",
	OpcodeCTPop:                "ctpop",
	OpcodeSignExtendInReg:      "sign_extend_inreg",
	OpcodeSIntToFP:             "sint_to_fp",
	OpcodeUIntToFP:             "uint_to_fp",
	OpcodeFPToSInt:             "fp_to_sint",
	OpcodeFPToUInt:             "fp_to_uint",
	OpcodeFrameAddr:            "frameaddr",
	OpcodeReturnAddr:           "returnaddr",
	OpcodeVAStart:              "vastart",
	OpcodeVAArg:                "vaarg",
	OpcodeVAEnd:                "vaend",
	OpcodeVACopy:               "vacopy",
	OpcodeAtomicLoadAdd:        "atomic_load_add",
	OpcodeAtomicLoadSub:        "atomic_load_sub",
	OpcodeAtomicLoadAnd:        "atomic_load_and",
	OpcodeAtomicLoadOr:         "atomic_load_or",
	OpcodeAtomicLoadXor:        "atomic_load_xor",
	OpcodeAtomicLoadNand:       "atomic_load_nand",
	OpcodeAtomicSwap:           "atomic_swap",
	OpcodeAtomicCmpSwap:        "atomic_cmp_swap",
	OpcodeAtomicFence:          "atomic_fence",
}

// String implements fmt.Stringer. Target opcodes are named by the DAG's TargetNodeName.
func (o Opcode) String() string {
	if o < OpcodeTargetBegin {
		return opcodeNames[o]
	}
	return fmt.Sprintf("target+%d", o-OpcodeTargetBegin)
}

// IsTarget returns true for target specific opcodes.
func (o Opcode) IsTarget() bool {
	return o >= OpcodeTargetBegin
}

// CondCode is the comparison of SetCC, SelectCC and BrCC.
//
// The U* codes are unsigned comparisons of integers, and unordered comparisons of floats, which are true if either
// operand is NaN. The O* codes are ordered float comparisons. The others are signed integer comparisons, and float
// comparisons where the result for NaN does not matter.
type CondCode byte

const (
	CondInvalid CondCode = iota
	CondEQ
	CondNE
	CondGT
	CondGE
	CondLT
	CondLE
	CondUEQ
	CondUNE
	CondUGT
	CondUGE
	CondULT
	CondULE
	CondOEQ
	CondONE
	CondOGT
	CondOGE
	CondOLT
	CondOLE
	// CondO is true if neither operand is NaN.
	CondO
	// CondUO is true if either operand is NaN.
	CondUO
	condEnd
)

var condCodeNames = [condEnd]string{
	CondInvalid: "invalid",
	CondEQ:      "seteq",
	CondNE:      "setne",
	CondGT:      "setgt",
	CondGE:      "setge",
	CondLT:      "setlt",
	CondLE:      "setle",
	CondUEQ:     "setueq",
	CondUNE:     "setune",
	CondUGT:     "setugt",
	CondUGE:     "setuge",
	CondULT:     "setult",
	CondULE:     "setule",
	CondOEQ:     "setoeq",
	CondONE:     "setone",
	CondOGT:     "setogt",
	CondOGE:     "setoge",
	CondOLT:     "setolt",
	CondOLE:     "setole",
	CondO:       "seto",
	CondUO:      "setuo",
}

// String implements fmt.Stringer.
func (c CondCode) String() string { return condCodeNames[c] }

// Inverse returns the condition which is true exactly when c is false, for operands of the given type.
func (c CondCode) Inverse(float bool) CondCode {
	switch c {
	case CondEQ:
		return CondNE
	case CondNE:
		return CondEQ
	case CondGT:
		return CondLE
	case CondGE:
		return CondLT
	case CondLT:
		return CondGE
	case CondLE:
		return CondGT
	case CondO:
		return CondUO
	case CondUO:
		return CondO
	}
	if !float {
		switch c {
		case CondUGT:
			return CondULE
		case CondUGE:
			return CondULT
		case CondULT:
			return CondUGE
		case CondULE:
			return CondUGT
		}
		panic(fmt.Sprintf("BUG: %s is not an integer condition", c))
	}
	// Inverting a float comparison swaps ordered and unordered.
	switch c {
	case CondUEQ:
		return CondONE
	case CondUNE:
		return CondOEQ
	case CondUGT:
		return CondOLE
	case CondUGE:
		return CondOLT
	case CondULT:
		return CondOGE
	case CondULE:
		return CondOGT
	case CondOEQ:
		return CondUNE
	case CondONE:
		return CondUEQ
	case CondOGT:
		return CondULE
	case CondOGE:
		return CondULT
	case CondOLT:
		return CondUGE
	case CondOLE:
		return CondUGT
	}
	panic(fmt.Sprintf("BUG: invalid condition %s", c))
}

// IsUnordered returns true for the float conditions which are true when an operand is NaN.
func (c CondCode) IsUnordered() bool {
	return c >= CondUEQ && c <= CondULE || c == CondUO
}

// Swapped returns the condition for the swapped operands.
func (c CondCode) Swapped() CondCode {
	switch c {
	case CondGT:
		return CondLT
	case CondGE:
		return CondLE
	case CondLT:
		return CondGT
	case CondLE:
		return CondGE
	case CondUGT:
		return CondULT
	case CondUGE:
		return CondULE
	case CondULT:
		return CondUGT
	case CondULE:
		return CondUGE
	case CondOGT:
		return CondOLT
	case CondOGE:
		return CondOLE
	case CondOLT:
		return CondOGT
	case CondOLE:
		return CondOGE
	}
	return c
}
