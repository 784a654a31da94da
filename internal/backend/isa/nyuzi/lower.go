package nyuzi

import (
	"fmt"
	"math"

	"github.com/tetratelabs/nyuzi/internal/asm"
	asm_nyuzi "github.com/tetratelabs/nyuzi/internal/asm/nyuzi"
	"github.com/tetratelabs/nyuzi/internal/backend/reg"
	"github.com/tetratelabs/nyuzi/internal/ir"
)

var (
	fpReg = scalarReg(asm_nyuzi.REG_FP)
	spReg = scalarReg(asm_nyuzi.REG_SP)
	raReg = scalarReg(asm_nyuzi.REG_RA)
)

// returnAddressOffset is where the prologue saves the return address, relative to the frame pointer.
const returnAddressOffset = 4

func scalarReg(r asm.Register) reg.RealReg {
	return reg.ScalarReg(int(asm_nyuzi.RegisterIndex(r)))
}

func fitsSImm13(v int64) bool {
	return v >= -(1<<12) && v < 1<<12
}

// materialize returns v built by a movehi of its upper 19 bits and an or of its lower 13 bits.
func materialize(d *ir.DAG, v uint32, t ir.Type) ir.Value {
	hi := d.Op(NodeMoveHi, t, d.TargetConstant(int64(v>>13), ir.TypeI32))
	if lo := v & 0x1fff; lo != 0 {
		return d.Op(NodeOrLo, t, hi, d.TargetConstant(int64(lo), ir.TypeI32))
	}
	return hi
}

// intConstant returns the constant v of type t, materialized unless it fits an immediate. Vector constants are
// splatted, except lane masks which are scalars.
func (l *TargetLowering) intConstant(d *ir.DAG, v int64, t ir.Type) ir.Value {
	if t.IsVector() && t.Elem() != ir.TypeI1 {
		return d.Op(NodeSplat, t, l.intConstant(d, v, t.Elem()))
	}
	if fitsSImm13(v) || t.Elem() == ir.TypeI1 {
		return d.Constant(v, t)
	}
	return materialize(d, uint32(v), t)
}

// fpConstant returns the floating point constant f of type t, as the bits of an integer constant.
func (l *TargetLowering) fpConstant(d *ir.DAG, f float32, t ir.Type) ir.Value {
	if t.IsVector() {
		return d.Op(NodeSplat, t, l.fpConstant(d, f, t.Elem()))
	}
	return d.Op(ir.OpcodeBitcast, t, l.intConstant(d, int64(int32(math.Float32bits(f))), ir.TypeI32))
}

// constantBits returns the bits of v if it is a constant, materialized or not. A splat returns the bits of a lane.
func constantBits(v ir.Value) (uint32, bool) {
	n := v.Node
	switch n.Opcode() {
	case ir.OpcodeConstant, ir.OpcodeTargetConstant:
		return uint32(n.ConstantValue()), true
	case ir.OpcodeConstantFP:
		return math.Float32bits(n.FloatValue()), true
	case NodeMoveHi:
		hi, ok := constantBits(n.Operand(0))
		return hi << 13, ok
	case NodeOrLo:
		hi, ok1 := constantBits(n.Operand(0))
		lo, ok2 := constantBits(n.Operand(1))
		return hi | lo&0x1fff, ok1 && ok2
	case ir.OpcodeBitcast, NodeSplat:
		return constantBits(n.Operand(0))
	}
	return 0, false
}

func (l *TargetLowering) lowerConstant(ctx *LoweringContext, n *ir.Node) ir.Value {
	t, v := n.Types()[0], n.ConstantValue()
	if t.IsVector() && t.Elem() != ir.TypeI1 {
		return ctx.DAG.Op(NodeSplat, t, l.intConstant(ctx.DAG, v, t.Elem()))
	}
	if fitsSImm13(v) || t.Elem() == ir.TypeI1 {
		return ir.Value{}
	}
	return materialize(ctx.DAG, uint32(v), t)
}

func (l *TargetLowering) lowerConstantFP(ctx *LoweringContext, n *ir.Node) ir.Value {
	return l.fpConstant(ctx.DAG, n.FloatValue(), n.Types()[0])
}

// lowerAddress lowers GlobalAddress, BlockAddress and ConstantPool. The absolute form is a movehi/orlo pair
// relocated by the linker, and the position independent form is a PC relative wrapper. Offsets are added
// afterwards.
func (l *TargetLowering) lowerAddress(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	var sym ir.Value
	switch n.Opcode() {
	case ir.OpcodeGlobalAddress:
		sym = d.GlobalAddress(n.Symbol(), 0, true)
	case ir.OpcodeBlockAddress:
		sym = d.BlockAddress(n.Symbol(), 0, true)
	case ir.OpcodeConstantPool:
		sym = d.ConstantPool(n.Index(), 0, true)
	default:
		panic(fmt.Sprintf("BUG: %s is not an address", n.Opcode()))
	}

	var addr ir.Value
	if l.st.IsPositionIndependent() {
		addr = d.Op(NodeWrapper, ir.TypeI32, sym)
	} else {
		addr = d.Op(NodeOrLo, ir.TypeI32, d.Op(NodeMoveHi, ir.TypeI32, sym), sym)
	}
	if off := n.Offset(); off != 0 {
		addr = d.Op(ir.OpcodeAdd, ir.TypeI32, addr, l.intConstant(d, off, ir.TypeI32))
	}
	return addr
}

func (l *TargetLowering) lowerJumpTable(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	return d.Op(NodeJTWrapper, ir.TypeI32, d.JumpTable(n.Index(), true))
}

// jumpTableIndex returns the index of the jump table addressed by v, lowered or not.
func jumpTableIndex(v ir.Value) int {
	switch v.Opcode() {
	case ir.OpcodeJumpTable, ir.OpcodeTargetJumpTable:
		return v.Node.Index()
	case NodeJTWrapper:
		return v.Node.Operand(0).Node.Index()
	}
	panic(fmt.Sprintf("BUG: %s is not a jump table", v.Opcode()))
}

// lowerBrJT lowers `BrJT chain, table, index` into a load of the table entry and an indirect branch. Under the
// label difference encoding, entries are relative to the table.
func (l *TargetLowering) lowerBrJT(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	chain, index := n.Operand(0), n.Operand(2)
	table := d.JumpTable(jumpTableIndex(n.Operand(1)), true)
	base := d.Op(NodeJTWrapper, ir.TypeI32, table)
	entry := d.Op(ir.OpcodeAdd, ir.TypeI32, base, d.Op(ir.OpcodeShl, ir.TypeI32, index, d.Constant(2, ir.TypeI32)))
	ld := d.Load(ir.TypeI32, chain, entry)
	dest := ld.Result(0)
	if l.JumpTableEncoding() == JumpTableLabelDifference32 {
		dest = d.Op(ir.OpcodeAdd, ir.TypeI32, dest, base)
	}
	return d.Op(NodeBrJT, ir.TypeOther, ld.Result(1), dest, table)
}

func (l *TargetLowering) lowerBrInd(ctx *LoweringContext, n *ir.Node) ir.Value {
	return ctx.DAG.Op(NodeBrInd, ir.TypeOther, n.Operand(0), n.Operand(1))
}

// lowerSelectCC compares into a predicate and selects on it. A lane mask selects lane wise with a blend, and a
// scalar predicate becomes control flow after selection.
func (l *TargetLowering) lowerSelectCC(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	lhs, rhs, tv, fv := n.Operand(0), n.Operand(1), n.Operand(2), n.Operand(3)
	cond := d.SetCC(l.GetSetCCResultType(lhs.Type()), lhs, rhs, n.CondCode())
	if lowered := l.lowerSetCC(ctx, cond.Node); lowered.Valid() {
		cond = lowered
	}
	if cond.Type().IsVector() {
		return d.Op(NodeBlend, tv.Type(), cond, tv, fv)
	}
	return d.Op(NodeSelCondResult, tv.Type(), cond, tv, fv)
}

// lowerSetCC lowers the float comparisons the hardware lacks. The hardware compares are ordered, so an unordered
// comparison is the inverse of the opposite ordered one.
func (l *TargetLowering) lowerSetCC(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	t, lhs, rhs, cc := n.Types()[0], n.Operand(0), n.Operand(1), n.CondCode()
	if !lhs.Type().IsFloat() {
		return ir.Value{}
	}
	ordered := func() ir.Value {
		return d.Op(ir.OpcodeAnd, t, d.SetCC(t, lhs, lhs, ir.CondOEQ), d.SetCC(t, rhs, rhs, ir.CondOEQ))
	}
	switch {
	case cc == ir.CondO:
		return ordered()
	case cc == ir.CondUO:
		return d.Op(ir.OpcodeXor, t, ordered(), l.allTrue(d, t))
	case cc.IsUnordered():
		return d.Op(ir.OpcodeXor, t, d.SetCC(t, lhs, rhs, cc.Inverse(true)), l.allTrue(d, t))
	}
	return ir.Value{}
}

// allTrue returns the true value of a comparison result of type t.
func (l *TargetLowering) allTrue(d *ir.DAG, t ir.Type) ir.Value {
	if t.IsVector() {
		return d.Constant(-1, t)
	}
	return d.Constant(1, t)
}

// lowerFDiv divides by multiplying with the reciprocal estimate, refined by two Newton-Raphson iterations
// e' = e * (2 - y * e).
func (l *TargetLowering) lowerFDiv(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	t, x, y := n.Types()[0], n.Operand(0), n.Operand(1)
	est := d.Op(NodeReciprocalEst, t, y)
	two := l.fpConstant(d, 2.0, t)
	for i := 0; i < 2; i++ {
		e := d.Op(ir.OpcodeFMul, t, y, est)
		e = d.Op(ir.OpcodeFSub, t, two, e)
		est = d.Op(ir.OpcodeFMul, t, est, e)
	}
	if bits, ok := constantBits(x); ok && bits == math.Float32bits(1.0) {
		return est
	}
	return d.Op(ir.OpcodeFMul, t, x, est)
}

func (l *TargetLowering) lowerFNeg(ctx *LoweringContext, n *ir.Node) ir.Value {
	return l.signBitOp(ctx.DAG, n, ir.OpcodeXor, math.MinInt32)
}

func (l *TargetLowering) lowerFAbs(ctx *LoweringContext, n *ir.Node) ir.Value {
	return l.signBitOp(ctx.DAG, n, ir.OpcodeAnd, math.MaxInt32)
}

// signBitOp applies op with mask to the bits of the float operand of n.
func (l *TargetLowering) signBitOp(d *ir.DAG, n *ir.Node, op ir.Opcode, mask int64) ir.Value {
	t := n.Types()[0]
	it := t.WithElem(ir.TypeI32)
	bits := d.Op(ir.OpcodeBitcast, it, n.Operand(0))
	return d.Op(ir.OpcodeBitcast, t, d.Op(op, it, bits, l.intConstant(d, mask, it)))
}

// lowerCountZeros maps the counts to the hardware ones, which are defined for zero.
func (l *TargetLowering) lowerCountZeros(ctx *LoweringContext, n *ir.Node) ir.Value {
	op := NodeCTTZ
	if n.Opcode() == ir.OpcodeCTLZ || n.Opcode() == ir.OpcodeCTLZZeroUndef {
		op = NodeCTLZ
	}
	return ctx.DAG.Op(op, n.Types()[0], n.Operand(0))
}

// lowerUIntToFP converts as signed, and adds 2^32 when the operand was negative as signed.
func (l *TargetLowering) lowerUIntToFP(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	t, x := n.Types()[0], n.Operand(0)
	conv := d.Op(NodeItoF, t, x)
	adjusted := d.Op(ir.OpcodeFAdd, t, conv, l.fpConstant(d, 4294967296.0, t))
	negative := d.SetCC(l.GetSetCCResultType(x.Type()), x, l.intConstant(d, 0, x.Type()), ir.CondLT)
	if t.IsVector() {
		return d.Op(NodeBlend, t, negative, adjusted, conv)
	}
	return d.Op(NodeSelCondResult, t, negative, adjusted, conv)
}

func depthOf(n *ir.Node) int64 {
	depth := n.Operand(0)
	if !depth.Node.IsConstant() {
		panic(fmt.Sprintf("BUG: non constant depth of %s", n.Opcode()))
	}
	return depth.Node.ConstantValue()
}

func (l *TargetLowering) lowerFrameAddr(ctx *LoweringContext, n *ir.Node) ir.Value {
	return l.frameAddress(ctx, depthOf(n))
}

// frameAddress returns the frame pointer of the depth-th caller. Each frame saves the frame pointer of its caller
// at the frame pointer.
func (l *TargetLowering) frameAddress(ctx *LoweringContext, depth int64) ir.Value {
	d := ctx.DAG
	ctx.Func.Frame.FrameAddressTaken = true
	addr := d.CopyFromReg(d.EntryToken(), reg.FromRealReg(fpReg), ir.TypeI32, ir.Value{}).Result(0)
	for ; depth > 0; depth-- {
		addr = d.Load(ir.TypeI32, d.EntryToken(), addr).Result(0)
	}
	return addr
}

func (l *TargetLowering) lowerReturnAddr(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	ctx.Func.Frame.ReturnAddressTaken = true
	depth := depthOf(n)
	if depth == 0 {
		return d.CopyFromReg(d.EntryToken(), ctx.LiveIn(raReg), ir.TypeI32, ir.Value{}).Result(0)
	}
	frame := l.frameAddress(ctx, depth)
	addr := d.Op(ir.OpcodeAdd, ir.TypeI32, frame, d.Constant(returnAddressOffset, ir.TypeI32))
	return d.Load(ir.TypeI32, d.EntryToken(), addr).Result(0)
}

func (l *TargetLowering) lowerSignExtendInReg(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	t, x := n.Types()[0], n.Operand(0)
	switch n.ExtType().Elem().Bits() {
	case 1:
		shift := l.intConstant(d, 31, t)
		return d.Op(ir.OpcodeSra, t, d.Op(ir.OpcodeShl, t, x, shift), shift)
	case 8:
		return d.Op(NodeSext8, t, x)
	case 16:
		return d.Op(NodeSext16, t, x)
	}
	return x
}

// lowerVAStart stores the address of the first variadic argument to the va_list.
func (l *TargetLowering) lowerVAStart(ctx *LoweringContext, n *ir.Node) ir.Value {
	if !ctx.Func.Frame.HasVarArgs {
		panic("BUG: va_start in a function without variadic arguments")
	}
	d := ctx.DAG
	return d.Store(n.Operand(0), d.FrameIndex(ctx.Func.Frame.VarArgsFrameIndex), n.Operand(1))
}
