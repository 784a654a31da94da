package nyuzi

import (
	"github.com/tetratelabs/nyuzi/internal/ir"
)

// laneBit returns the bit selecting lane i in a mask of the given lanes. Lane 0 is the most significant bit.
func laneBit(i, lanes int) int64 {
	return int64(1) << (lanes - 1 - i)
}

func (l *TargetLowering) lowerScalarToVector(ctx *LoweringContext, n *ir.Node) ir.Value {
	return ctx.DAG.Op(NodeSplat, n.Types()[0], n.Operand(0))
}

// lowerBuildVector splats the first element, and blends in each element that differs from it.
func (l *TargetLowering) lowerBuildVector(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	t, ops := n.Types()[0], n.Operands()
	first := ops[0]
	acc := d.Op(NodeSplat, t, first)
	for i := 1; i < len(ops); i++ {
		if ops[i] == first || ops[i].Opcode() == ir.OpcodeUndef {
			continue
		}
		mask := l.intConstant(d, laneBit(i, t.Lanes()), ir.TypeI32)
		acc = d.Op(NodeBlend, t, mask, d.Op(NodeSplat, t, ops[i]), acc)
	}
	return acc
}

// lowerInsertVectorElt blends a splat of the element into the lane selected by the index. A constant index past the
// last lane makes the result undefined.
func (l *TargetLowering) lowerInsertVectorElt(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	t, vec, val, idx := n.Types()[0], n.Operand(0), n.Operand(1), n.Operand(2)
	var mask ir.Value
	if idx.Node.IsConstant() {
		if i := idx.Node.ConstantValue(); i < 0 || i >= int64(t.Lanes()) {
			return d.Undef(t)
		}
		mask = l.intConstant(d, laneBit(int(idx.Node.ConstantValue()), t.Lanes()), ir.TypeI32)
	} else {
		mask = d.Op(ir.OpcodeSrl, ir.TypeI32, l.intConstant(d, laneBit(0, t.Lanes()), ir.TypeI32), idx)
	}
	return d.Op(NodeBlend, t, mask, d.Op(NodeSplat, t, val), vec)
}

func (l *TargetLowering) lowerExtractVectorElt(ctx *LoweringContext, n *ir.Node) ir.Value {
	return ctx.DAG.Op(NodeGetLane, n.Types()[0], n.Operand(0), n.Operand(1))
}

type shuffleKind byte

const (
	shuffleInvalid shuffleKind = iota
	// shuffleIdentityA returns the first operand.
	shuffleIdentityA
	// shuffleIdentityB returns the second operand.
	shuffleIdentityB
	// shuffleSplat repeats one lane.
	shuffleSplat
	// shuffleSingleSource permutes the lanes of one operand.
	shuffleSingleSource
	// shuffleBlend takes each lane i from lane i of either operand.
	shuffleBlend
	// shuffleTwoSource is any other mask.
	shuffleTwoSource
)

// classifyShuffle returns the kind of the shuffle mask over vectors of the given lanes, and the source lane of a
// splat. Undefined lanes, -1, match anything.
func classifyShuffle(mask []int, lanes int) (kind shuffleKind, splat int) {
	if len(mask) != lanes {
		return shuffleInvalid, 0
	}
	identityA, identityB, isSplat, blend, onlyA, onlyB := true, true, true, true, true, true
	splat = -1
	for i, m := range mask {
		if m < -1 || m >= 2*lanes {
			return shuffleInvalid, 0
		}
		if m < 0 {
			continue
		}
		identityA = identityA && m == i
		identityB = identityB && m == i+lanes
		blend = blend && (m == i || m == i+lanes)
		onlyA = onlyA && m < lanes
		onlyB = onlyB && m >= lanes
		if splat < 0 {
			splat = m
		} else if m != splat {
			isSplat = false
		}
	}
	switch {
	case identityA:
		return shuffleIdentityA, 0
	case identityB:
		return shuffleIdentityB, 0
	case isSplat:
		return shuffleSplat, splat
	case onlyA || onlyB:
		return shuffleSingleSource, 0
	case blend:
		return shuffleBlend, 0
	}
	return shuffleTwoSource, 0
}

// IsShuffleMaskLegal returns true if a shuffle of vectors of type t by mask lowers to at most one permute or blend.
func (l *TargetLowering) IsShuffleMaskLegal(mask []int, t ir.Type) bool {
	if !l.IsLegalVectorType(t) {
		return false
	}
	kind, _ := classifyShuffle(mask, t.Lanes())
	return kind != shuffleInvalid && kind != shuffleTwoSource
}

func (l *TargetLowering) lowerVectorShuffle(ctx *LoweringContext, n *ir.Node) ir.Value {
	d := ctx.DAG
	t, a, b, mask := n.Types()[0], n.Operand(0), n.Operand(1), n.Mask()
	lanes := t.Lanes()
	kind, splat := classifyShuffle(mask, lanes)
	switch kind {
	case shuffleIdentityA:
		return a
	case shuffleIdentityB:
		return b
	case shuffleSplat:
		src := a
		if splat >= lanes {
			src, splat = b, splat-lanes
		}
		lane := d.Op(NodeGetLane, t.Elem(), src, d.Constant(int64(splat), ir.TypeI32))
		return d.Op(NodeSplat, t, lane)
	case shuffleSingleSource:
		src := a
		for _, m := range mask {
			if m >= lanes {
				src = b
				break
			}
		}
		return d.Op(NodeShuffle, t, src, l.shuffleIndices(ctx, mask, t))
	case shuffleBlend:
		return d.Op(NodeBlend, t, l.intConstant(d, lanesFromA(mask, lanes), ir.TypeI32), a, b)
	case shuffleTwoSource:
		indices := l.shuffleIndices(ctx, mask, t)
		fromA := d.Op(NodeShuffle, t, a, indices)
		fromB := d.Op(NodeShuffle, t, b, indices)
		return d.Op(NodeBlend, t, l.intConstant(d, lanesFromA(mask, lanes), ir.TypeI32), fromA, fromB)
	}
	panic("BUG: invalid shuffle mask for " + t.String())
}

// lanesFromA returns the mask of the lanes taken from the first operand. Undefined lanes are taken from it too.
func lanesFromA(mask []int, lanes int) (bits int64) {
	for i, m := range mask {
		if m < lanes {
			bits |= laneBit(i, lanes)
		}
	}
	return
}

// shuffleIndices returns the vector of source lanes of mask, built as a lowered BUILD_VECTOR.
func (l *TargetLowering) shuffleIndices(ctx *LoweringContext, mask []int, t ir.Type) ir.Value {
	d := ctx.DAG
	it := t.WithElem(ir.TypeI32)
	indices := make([]ir.Value, len(mask))
	byLane := map[int]ir.Value{}
	for i, m := range mask {
		lane := 0
		if m >= 0 {
			lane = m % len(mask)
		}
		v, ok := byLane[lane]
		if !ok {
			v = d.Constant(int64(lane), ir.TypeI32)
			byLane[lane] = v
		}
		indices[i] = v
	}
	bv := d.Op(ir.OpcodeBuildVector, it, indices...)
	return l.lowerBuildVector(ctx, bv.Node)
}
