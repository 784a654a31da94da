// Package nyuzi lowers the generic selection DAG to Nyuzi target nodes, and expands the pseudo instructions which
// need control flow.
package nyuzi

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/tetratelabs/nyuzi/internal/ir"
	"github.com/tetratelabs/nyuzi/internal/subtarget"
)

// Action is how the target handles a generic operation.
type Action byte

const (
	// ActionLegal means the operation is selected as is.
	ActionLegal Action = iota
	// ActionCustom means LowerOperation rewrites the operation.
	ActionCustom
	// ActionExpand means the generic legalizer rewrites the operation into others.
	ActionExpand
	// ActionPromote means the generic legalizer performs the operation on a wider type.
	ActionPromote
)

var actionNames = [...]string{
	ActionLegal:   "Legal",
	ActionCustom:  "Custom",
	ActionExpand:  "Expand",
	ActionPromote: "Promote",
}

// String implements fmt.Stringer.
func (a Action) String() string { return actionNames[a] }

// JumpTableEncoding is the format of jump table entries.
type JumpTableEncoding byte

const (
	// JumpTableBlockAddress entries are absolute 32-bit block addresses.
	JumpTableBlockAddress JumpTableEncoding = iota
	// JumpTableLabelDifference32 entries are 32-bit offsets of the blocks from the table.
	JumpTableLabelDifference32
)

// String implements fmt.Stringer.
func (e JumpTableEncoding) String() string {
	if e == JumpTableLabelDifference32 {
		return "LabelDifference32"
	}
	return "BlockAddress"
}

type lowerFunc func(l *TargetLowering, ctx *LoweringContext, n *ir.Node) ir.Value

// lowerFuncs are the handlers of the Custom operations. A handler returns the replacement of the node, or the zero
// Value if the node is legal as is.
var lowerFuncs = [ir.OpcodeTargetBegin]lowerFunc{
	ir.OpcodeConstant:           (*TargetLowering).lowerConstant,
	ir.OpcodeConstantFP:         (*TargetLowering).lowerConstantFP,
	ir.OpcodeGlobalAddress:      (*TargetLowering).lowerAddress,
	ir.OpcodeBlockAddress:       (*TargetLowering).lowerAddress,
	ir.OpcodeConstantPool:       (*TargetLowering).lowerAddress,
	ir.OpcodeJumpTable:          (*TargetLowering).lowerJumpTable,
	ir.OpcodeBrJT:               (*TargetLowering).lowerBrJT,
	ir.OpcodeBrInd:              (*TargetLowering).lowerBrInd,
	ir.OpcodeBuildVector:        (*TargetLowering).lowerBuildVector,
	ir.OpcodeScalarToVector:     (*TargetLowering).lowerScalarToVector,
	ir.OpcodeVectorShuffle:      (*TargetLowering).lowerVectorShuffle,
	ir.OpcodeInsertVectorElt:    (*TargetLowering).lowerInsertVectorElt,
	ir.OpcodeExtractVectorElt:   (*TargetLowering).lowerExtractVectorElt,
	ir.OpcodeSelectCC:           (*TargetLowering).lowerSelectCC,
	ir.OpcodeSetCC:              (*TargetLowering).lowerSetCC,
	ir.OpcodeFDiv:               (*TargetLowering).lowerFDiv,
	ir.OpcodeFNeg:               (*TargetLowering).lowerFNeg,
	ir.OpcodeFAbs:               (*TargetLowering).lowerFAbs,
	ir.OpcodeCTLZ:               (*TargetLowering).lowerCountZeros,
	ir.OpcodeCTTZ:               (*TargetLowering).lowerCountZeros,
	ir.OpcodeCTLZZeroUndef:      (*TargetLowering).lowerCountZeros,
	ir.OpcodeCTTZZeroUndef:      (*TargetLowering).lowerCountZeros,
	ir.OpcodeUIntToFP:           (*TargetLowering).lowerUIntToFP,
	ir.OpcodeFrameAddr:          (*TargetLowering).lowerFrameAddr,
	ir.OpcodeReturnAddr:         (*TargetLowering).lowerReturnAddr,
	ir.OpcodeSignExtendInReg:    (*TargetLowering).lowerSignExtendInReg,
	ir.OpcodeVAStart:            (*TargetLowering).lowerVAStart,
}

var (
	customOps = []ir.Opcode{
		ir.OpcodeConstant, ir.OpcodeConstantFP, ir.OpcodeGlobalAddress, ir.OpcodeBlockAddress,
		ir.OpcodeConstantPool, ir.OpcodeJumpTable, ir.OpcodeBrJT, ir.OpcodeBrInd, ir.OpcodeSelectCC, ir.OpcodeSetCC,
		ir.OpcodeFDiv, ir.OpcodeFNeg, ir.OpcodeFAbs, ir.OpcodeCTLZ, ir.OpcodeCTTZ, ir.OpcodeCTLZZeroUndef,
		ir.OpcodeCTTZZeroUndef, ir.OpcodeUIntToFP, ir.OpcodeFrameAddr, ir.OpcodeReturnAddr,
		ir.OpcodeSignExtendInReg, ir.OpcodeVAStart,
	}
	vectorOps = []ir.Opcode{
		ir.OpcodeBuildVector, ir.OpcodeScalarToVector, ir.OpcodeVectorShuffle, ir.OpcodeInsertVectorElt,
		ir.OpcodeExtractVectorElt,
	}
	expandOps = []ir.Opcode{
		ir.OpcodeSelect, ir.OpcodeBrCond, ir.OpcodeRotl, ir.OpcodeRotr, ir.OpcodeCTPop, ir.OpcodeFRem,
		ir.OpcodeFSqrt, ir.OpcodeVAArg, ir.OpcodeVAEnd, ir.OpcodeVACopy, ir.OpcodeSRem,
		ir.OpcodeURem,
	}
)

// TargetLowering lowers the DAGs of functions for one subtarget. It is immutable once created, so it can be shared
// by concurrent compilations which each own their LoweringContext.
type TargetLowering struct {
	st      *subtarget.Subtarget
	logger  logrus.FieldLogger
	actions [ir.OpcodeTargetBegin]Action
}

// NewTargetLowering returns the TargetLowering for st. logger may be nil.
func NewTargetLowering(st *subtarget.Subtarget, logger logrus.FieldLogger) *TargetLowering {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	l := &TargetLowering{st: st, logger: logger}
	l.initActions()
	for op, a := range l.actions {
		if a == ActionCustom && lowerFuncs[op] == nil {
			panic(fmt.Sprintf("BUG: no lowering for %s", ir.Opcode(op)))
		}
	}
	return l
}

func (l *TargetLowering) initActions() {
	for _, op := range customOps {
		l.actions[op] = ActionCustom
	}
	vector := ActionExpand
	if l.st.HasExtendedVector() {
		vector = ActionCustom
	}
	for _, op := range vectorOps {
		l.actions[op] = vector
	}
	for _, op := range expandOps {
		l.actions[op] = ActionExpand
	}
	if !l.st.HasHardwareDivide() {
		l.actions[ir.OpcodeSDiv] = ActionExpand
		l.actions[ir.OpcodeUDiv] = ActionExpand
	}
	l.actions[ir.OpcodeFPToUInt] = ActionPromote
}

// Subtarget returns the subtarget l lowers for.
func (l *TargetLowering) Subtarget() *subtarget.Subtarget { return l.st }

// OperationAction returns how the target handles op.
func (l *TargetLowering) OperationAction(op ir.Opcode) Action {
	if op.IsTarget() {
		return ActionLegal
	}
	return l.actions[op]
}

// LowerOperation rewrites a node whose operation is Custom, and returns its replacement, or the zero Value if the
// node is legal as is. A node without a handler is a bug of the caller.
func (l *TargetLowering) LowerOperation(ctx *LoweringContext, n *ir.Node) ir.Value {
	var f lowerFunc
	if op := n.Opcode(); !op.IsTarget() {
		f = lowerFuncs[op]
	}
	if f == nil {
		panic(fmt.Sprintf("BUG: no lowering for %s", ctx.DAG.Format(n.Result(0))))
	}
	ret := f(l, ctx, n)
	if ret.Valid() {
		l.logger.WithFields(logrus.Fields{"node": n.ID(), "opcode": n.Opcode().String()}).Debug("lowered node")
	}
	return ret
}

// Legalize lowers every Custom node reachable from the root of the DAG, including the nodes created by lowering,
// and replaces their uses. Expand and Promote operations are left to the generic legalizer.
func (l *TargetLowering) Legalize(ctx *LoweringContext) {
	z := legalizer{l: l, ctx: ctx, repl: map[*ir.Node]ir.Value{}}
	ctx.DAG.SetRoot(z.value(ctx.DAG.Root()))
}

type legalizer struct {
	l    *TargetLowering
	ctx  *LoweringContext
	repl map[*ir.Node]ir.Value
}

func (z *legalizer) value(v ir.Value) ir.Value {
	r := z.node(v.Node)
	return ir.Value{Node: r.Node, Res: r.Res + v.Res}
}

func (z *legalizer) node(n *ir.Node) ir.Value {
	if r, ok := z.repl[n]; ok {
		return r
	}
	ret := n.Result(0)
	z.repl[n] = ret
	for i, o := range n.Operands() {
		n.SetOperand(i, z.value(o))
	}
	if z.l.OperationAction(n.Opcode()) == ActionCustom {
		if lowered := z.l.LowerOperation(z.ctx, n); lowered.Valid() {
			ret = z.value(lowered)
		}
	}
	z.repl[n] = ret
	return ret
}

// IsIntDivCheap returns true if integer division is cheaper than the multiply and shift sequences replacing it,
// which is only the case with hardware divide.
func (l *TargetLowering) IsIntDivCheap(ir.Type) bool {
	return l.st.HasHardwareDivide()
}

// IsOffsetFoldingLegal returns false: address offsets are added separately instead of folded into relocations.
func (l *TargetLowering) IsOffsetFoldingLegal(ga *ir.Node) bool {
	return false
}

// ShouldInsertFencesForAtomic returns true: atomic operations are bracketed by fences.
func (l *TargetLowering) ShouldInsertFencesForAtomic() bool {
	return true
}

// GetSetCCResultType returns the type of a comparison of two operands of type t: i32 for scalars, and a lane mask
// for vectors.
func (l *TargetLowering) GetSetCCResultType(t ir.Type) ir.Type {
	if t.IsVector() {
		return t.WithElem(ir.TypeI1)
	}
	return ir.TypeI32
}

// JumpTableEncoding returns the format of jump table entries.
func (l *TargetLowering) JumpTableEncoding() JumpTableEncoding {
	if l.st.IsPositionIndependent() {
		return JumpTableLabelDifference32
	}
	return JumpTableBlockAddress
}

// IsLegalVectorType returns true for the vector types held in vector registers.
func (l *TargetLowering) IsLegalVectorType(t ir.Type) bool {
	lanes := l.st.VectorLanes()
	return lanes != 0 && t.Lanes() == lanes && (t.Elem() == ir.TypeI32 || t.Elem() == ir.TypeF32)
}
