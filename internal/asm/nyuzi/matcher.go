package asm_nyuzi

import (
	"github.com/tetratelabs/nyuzi/internal/asm"
	"github.com/tetratelabs/nyuzi/internal/subtarget"
)

// MatchResult is the outcome of MatchInstruction.
type MatchResult byte

const (
	MatchSuccess MatchResult = iota
	// MatchMissingFeature means the operands match a form that the enabled features do not allow.
	MatchMissingFeature
	// MatchMnemonicFail means no instruction has this mnemonic.
	MatchMnemonicFail
	// MatchInvalidOperand means no form of the mnemonic accepts the operands.
	MatchInvalidOperand
)

var matchResultNames = [...]string{
	MatchSuccess:        "Success",
	MatchMissingFeature: "MissingFeature",
	MatchMnemonicFail:   "MnemonicFail",
	MatchInvalidOperand: "InvalidOperand",
}

// String implements fmt.Stringer.
func (r MatchResult) String() string { return matchResultNames[r] }

// NoErrorInfo is the error info of a match which does not point at an operand.
const NoErrorInfo = -1

// MatchInstruction resolves the parsed operands to an instruction. The first operand is the mnemonic token.
//
// On MatchInvalidOperand, errorInfo is the index of the first operand rejected by the form that accepted the
// longest prefix of operands. It is len(operands) when every form needs more operands than given.
func MatchInstruction(operands []*asm.Operand, features subtarget.FeatureBits) (inst *asm.Inst, result MatchResult, errorInfo int) {
	if len(operands) == 0 || !operands[0].IsToken() {
		panic("BUG: operands must start with the mnemonic")
	}
	candidates := mnemonics[operands[0].Token()]
	if len(candidates) == 0 {
		return nil, MatchMnemonicFail, NoErrorInfo
	}

	errorInfo = NoErrorInfo
	missingFeature := false
	for _, op := range candidates {
		d := &instrDescs[op]
		mismatch := matchOperands(d.Form.Classes(), operands)
		if mismatch >= 0 {
			if mismatch > errorInfo {
				errorInfo = mismatch
			}
			continue
		}
		if features&d.Features != d.Features {
			missingFeature = true
			continue
		}

		inst = &asm.Inst{Opcode: op, Loc: operands[0].StartPos()}
		for i, c := range d.Form.Classes() {
			c.addOperands(operands[i+1], inst)
		}
		return inst, MatchSuccess, NoErrorInfo
	}
	if missingFeature {
		return nil, MatchMissingFeature, NoErrorInfo
	}
	return nil, MatchInvalidOperand, errorInfo
}

// matchOperands returns the index in operands of the first mismatch, or -1 if classes accept all the operands.
func matchOperands(classes []OperandClass, operands []*asm.Operand) int {
	for i, c := range classes {
		if i+1 >= len(operands) {
			return len(operands)
		}
		if !c.Accepts(operands[i+1]) {
			return i + 1
		}
	}
	if len(operands) > len(classes)+1 {
		return len(classes) + 1
	}
	return -1
}
