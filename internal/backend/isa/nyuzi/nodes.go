package nyuzi

import (
	"fmt"

	"github.com/tetratelabs/nyuzi/internal/ir"
)

// Target node kinds produced by lowering.
const (
	// NodeCall is `chain, glue = CALL chain, callee, argregs..., [glue]`. The call clobbers the caller saved
	// registers.
	NodeCall = ir.OpcodeTargetBegin + iota
	// NodeRetFlag is `chain = RET_FLAG chain, retregs..., [glue]`.
	NodeRetFlag
	// NodeSplat copies a scalar into every lane of a vector.
	NodeSplat
	// NodeSelCondResult is `SEL_COND_RESULT pred, t, f` on a scalar predicate. It becomes control flow.
	NodeSelCondResult
	// NodeReciprocalEst is the hardware estimate of 1/x.
	NodeReciprocalEst
	// NodeBrJT is `chain = BR_JT chain, dest, table`, an indirect branch through a jump table entry.
	NodeBrJT
	// NodeJTWrapper is the address of a jump table.
	NodeJTWrapper
	// NodeMoveHi sets the upper 19 bits of a register and clears the lower 13.
	NodeMoveHi
	// NodeOrLo is `ORLO hi, lo`, which ors the unsigned lower 13 bits of lo into hi.
	NodeOrLo
	// NodeWrapper is the PC relative address of a symbol.
	NodeWrapper
	// NodeGetLane is `GETLANE vector, index`.
	NodeGetLane
	// NodeShuffle is `SHUFFLE vector, indices`, where lane i of the result is lane indices[i] of vector.
	NodeShuffle
	// NodeBlend is `BLEND mask, a, b`. Lane i is taken from a if bit lanes-1-i of mask is set, and from b otherwise.
	NodeBlend
	// NodeCTLZ counts leading zeros, and is 32 for zero.
	NodeCTLZ
	// NodeCTTZ counts trailing zeros, and is 32 for zero.
	NodeCTTZ
	// NodeItoF converts a signed integer to floating point.
	NodeItoF
	NodeSext8
	NodeSext16
	// NodeBrInd is `chain = BRIND chain, address`.
	NodeBrInd
	nodeEnd
)

var nodeNames = [nodeEnd - ir.OpcodeTargetBegin]string{
	NodeCall - ir.OpcodeTargetBegin:          "CALL",
	NodeRetFlag - ir.OpcodeTargetBegin:       "RET_FLAG",
	NodeSplat - ir.OpcodeTargetBegin:         "SPLAT",
	NodeSelCondResult - ir.OpcodeTargetBegin: "SEL_COND_RESULT",
	NodeReciprocalEst - ir.OpcodeTargetBegin: "RECIPROCAL_EST",
	NodeBrJT - ir.OpcodeTargetBegin:          "BR_JT",
	NodeJTWrapper - ir.OpcodeTargetBegin:     "JT_WRAPPER",
	NodeMoveHi - ir.OpcodeTargetBegin:        "MOVEHI",
	NodeOrLo - ir.OpcodeTargetBegin:          "ORLO",
	NodeWrapper - ir.OpcodeTargetBegin:       "WRAPPER",
	NodeGetLane - ir.OpcodeTargetBegin:       "GETLANE",
	NodeShuffle - ir.OpcodeTargetBegin:       "SHUFFLE",
	NodeBlend - ir.OpcodeTargetBegin:         "BLEND",
	NodeCTLZ - ir.OpcodeTargetBegin:          "CTLZ",
	NodeCTTZ - ir.OpcodeTargetBegin:          "CTTZ",
	NodeItoF - ir.OpcodeTargetBegin:          "ITOF",
	NodeSext8 - ir.OpcodeTargetBegin:         "SEXT8",
	NodeSext16 - ir.OpcodeTargetBegin:        "SEXT16",
	NodeBrInd - ir.OpcodeTargetBegin:         "BRIND",
}

// TargetNodeName returns the name of a target node kind.
func TargetNodeName(op ir.Opcode) string {
	if op < ir.OpcodeTargetBegin || op >= nodeEnd {
		panic(fmt.Sprintf("BUG: %s is not a target node", op))
	}
	return nodeNames[op-ir.OpcodeTargetBegin]
}
