package nyuzi

import (
	"fmt"

	"github.com/tetratelabs/nyuzi/internal/asm"
	asm_nyuzi "github.com/tetratelabs/nyuzi/internal/asm/nyuzi"
	"github.com/tetratelabs/nyuzi/internal/backend"
	"github.com/tetratelabs/nyuzi/internal/ir"
)

// Machine instructions are the instructions of the assembler, plus the pseudo instructions below which custom
// inserters expand.
const pseudoBegin backend.Opcode = 0x8000

const (
	// PseudoSelect is `dst = SELECT pred, t, f`.
	PseudoSelect = pseudoBegin + iota
	// The atomic read-modify-write pseudos are `old = op ptr, value`.
	PseudoAtomicLoadAdd
	PseudoAtomicLoadSub
	PseudoAtomicLoadAnd
	PseudoAtomicLoadOr
	PseudoAtomicLoadXor
	PseudoAtomicLoadNand
	PseudoAtomicSwap
	// PseudoAtomicCmpSwap is `old = ATOMIC_CMP_SWAP ptr, expected, new`.
	PseudoAtomicCmpSwap
	pseudoEnd
)

var pseudoNames = [pseudoEnd - pseudoBegin]string{
	PseudoSelect - pseudoBegin:         "SELECT",
	PseudoAtomicLoadAdd - pseudoBegin:  "ATOMIC_LOAD_ADD",
	PseudoAtomicLoadSub - pseudoBegin:  "ATOMIC_LOAD_SUB",
	PseudoAtomicLoadAnd - pseudoBegin:  "ATOMIC_LOAD_AND",
	PseudoAtomicLoadOr - pseudoBegin:   "ATOMIC_LOAD_OR",
	PseudoAtomicLoadXor - pseudoBegin:  "ATOMIC_LOAD_XOR",
	PseudoAtomicLoadNand - pseudoBegin: "ATOMIC_LOAD_NAND",
	PseudoAtomicSwap - pseudoBegin:     "ATOMIC_SWAP",
	PseudoAtomicCmpSwap - pseudoBegin:  "ATOMIC_CMP_SWAP",
}

// OpcodeName names machine opcodes in backend.Function.Format.
func OpcodeName(op backend.Opcode) string {
	if op >= pseudoBegin {
		if op >= pseudoEnd {
			panic(fmt.Sprintf("BUG: invalid pseudo opcode %#x", uint16(op)))
		}
		return pseudoNames[op-pseudoBegin]
	}
	return asm_nyuzi.InstructionName(asm.Opcode(op))
}

// UsesCustomInserter returns true for the pseudo instructions which EmitInstrWithCustomInserter expands.
func UsesCustomInserter(op backend.Opcode) bool {
	return op >= pseudoBegin && op < pseudoEnd
}

// PseudoForAtomic returns the pseudo instruction selected for an atomic read-modify-write node.
func PseudoForAtomic(op ir.Opcode) backend.Opcode {
	switch op {
	case ir.OpcodeAtomicLoadAdd:
		return PseudoAtomicLoadAdd
	case ir.OpcodeAtomicLoadSub:
		return PseudoAtomicLoadSub
	case ir.OpcodeAtomicLoadAnd:
		return PseudoAtomicLoadAnd
	case ir.OpcodeAtomicLoadOr:
		return PseudoAtomicLoadOr
	case ir.OpcodeAtomicLoadXor:
		return PseudoAtomicLoadXor
	case ir.OpcodeAtomicLoadNand:
		return PseudoAtomicLoadNand
	case ir.OpcodeAtomicSwap:
		return PseudoAtomicSwap
	case ir.OpcodeAtomicCmpSwap:
		return PseudoAtomicCmpSwap
	}
	panic(fmt.Sprintf("BUG: %s is not an atomic read-modify-write", op))
}

func machineOpcode(mnemonic string, form asm_nyuzi.Form) backend.Opcode {
	return backend.Opcode(asm_nyuzi.MustLookupOpcode(mnemonic, form))
}

// Machine opcodes emitted by the custom inserters.
var (
	opLoadSync  = machineOpcode("load_sync", asm_nyuzi.FormScalarMem)
	opStoreSync = machineOpcode("store_sync", asm_nyuzi.FormScalarMem)
	opMove      = machineOpcode("move", asm_nyuzi.FormSS)
	opCmpNE     = machineOpcode("cmpne_i", asm_nyuzi.FormSSS)
	opBz        = machineOpcode("bz", asm_nyuzi.FormRegTarget)
	opBnz       = machineOpcode("bnz", asm_nyuzi.FormRegTarget)
	opXorImm    = machineOpcode("xor", asm_nyuzi.FormSSI)

	atomicBinaryOps = map[backend.Opcode]backend.Opcode{
		PseudoAtomicLoadAdd:  machineOpcode("add_i", asm_nyuzi.FormSSS),
		PseudoAtomicLoadSub:  machineOpcode("sub_i", asm_nyuzi.FormSSS),
		PseudoAtomicLoadAnd:  machineOpcode("and", asm_nyuzi.FormSSS),
		PseudoAtomicLoadOr:   machineOpcode("or", asm_nyuzi.FormSSS),
		PseudoAtomicLoadXor:  machineOpcode("xor", asm_nyuzi.FormSSS),
		PseudoAtomicLoadNand: machineOpcode("and", asm_nyuzi.FormSSS),
	}
)
