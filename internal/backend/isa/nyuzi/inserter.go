package nyuzi

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tetratelabs/nyuzi/internal/backend"
	"github.com/tetratelabs/nyuzi/internal/backend/reg"
)

// EmitInstrWithCustomInserter expands the pseudo instruction at index i of blk into control flow, and returns the
// block holding the instructions which followed it.
func (l *TargetLowering) EmitInstrWithCustomInserter(fn *backend.Function, blk *backend.Block, i int) *backend.Block {
	instr := blk.Instrs()[i]
	var ret *backend.Block
	switch op := instr.Opcode; {
	case op == PseudoSelect:
		ret = l.EmitSelectCC(fn, blk, i)
	case op == PseudoAtomicCmpSwap:
		ret = l.EmitAtomicCmpSwap(fn, blk, i)
	case atomicBinaryOps[op] != 0 || op == PseudoAtomicSwap:
		ret = l.EmitAtomicBinary(fn, blk, i)
	default:
		panic(fmt.Sprintf("BUG: %s has no custom inserter", OpcodeName(op)))
	}
	l.logger.WithFields(logrus.Fields{"instr": OpcodeName(instr.Opcode), "block": blk.ID(), "blocks": len(fn.Layout())}).
		Debug("expanded pseudo instruction")
	return ret
}

// takePseudo splits blk after the pseudo at index i, removes the pseudo, and returns it with the block which now
// holds the instructions after it and the successors of blk.
func takePseudo(fn *backend.Function, blk *backend.Block, i int, op ...backend.Opcode) (*backend.Instr, *backend.Block) {
	instr := blk.Instrs()[i]
	ok := false
	for _, o := range op {
		ok = ok || instr.Opcode == o
	}
	if !ok {
		panic(fmt.Sprintf("BUG: unexpected %s", OpcodeName(instr.Opcode)))
	}
	tail := fn.SplitAfter(blk, i)
	blk.RemoveLast()
	return instr, tail
}

// EmitSelectCC expands `dst = SELECT pred, t, f` into a diamond:
//
//	thisBB:
//	    bnz pred, sinkBB
//	copy0BB:
//	    (falls through)
//	sinkBB:
//	    dst = phi [t, thisBB], [f, copy0BB]
func (l *TargetLowering) EmitSelectCC(fn *backend.Function, blk *backend.Block, i int) *backend.Block {
	instr, sink := takePseudo(fn, blk, i, PseudoSelect)
	dst, pred, t, f := instr.Defs[0], instr.Uses[0], instr.Uses[1], instr.Uses[2]

	copy0 := fn.NewBlockAfter(blk.ID())
	blk.Append(&backend.Instr{Opcode: opBnz, Uses: []reg.VReg{pred}, Blocks: []backend.BlockID{sink.ID()}})
	fn.AddEdge(blk.ID(), copy0.ID())
	fn.AddEdge(blk.ID(), sink.ID())
	fn.AddEdge(copy0.ID(), sink.ID())

	sink.Prepend(backend.NewPhi(dst,
		backend.PhiIncoming{Value: t, Block: blk.ID()},
		backend.PhiIncoming{Value: f, Block: copy0.ID()},
	))
	return sink
}

// EmitAtomicBinary expands `old = ATOMIC_LOAD_<op> ptr, value` into a retry loop:
//
//	loopBB:
//	    load_sync old, (ptr)
//	    new = op old, value
//	    move success, new
//	    store_sync success, (ptr)
//	    bz success, loopBB
//	exitBB:
//
// store_sync overwrites its source register with whether the store succeeded, hence the copy.
func (l *TargetLowering) EmitAtomicBinary(fn *backend.Function, blk *backend.Block, i int) *backend.Block {
	instr, exit := takePseudo(fn, blk, i, PseudoAtomicLoadAdd, PseudoAtomicLoadSub, PseudoAtomicLoadAnd,
		PseudoAtomicLoadOr, PseudoAtomicLoadXor, PseudoAtomicLoadNand, PseudoAtomicSwap)
	old, ptr, value := instr.Defs[0], instr.Uses[0], instr.Uses[1]

	loop := fn.NewBlockAfter(blk.ID())
	fn.AddEdge(blk.ID(), loop.ID())

	loop.Append(&backend.Instr{Opcode: opLoadSync, Defs: []reg.VReg{old}, Uses: []reg.VReg{ptr}, Imms: []int64{0}})
	var result reg.VReg
	switch instr.Opcode {
	case PseudoAtomicSwap:
		result = value
	case PseudoAtomicLoadNand:
		and := fn.AllocateVReg(reg.RegTypeScalar)
		result = fn.AllocateVReg(reg.RegTypeScalar)
		loop.Append(
			&backend.Instr{Opcode: atomicBinaryOps[instr.Opcode], Defs: []reg.VReg{and}, Uses: []reg.VReg{old, value}},
			&backend.Instr{Opcode: opXorImm, Defs: []reg.VReg{result}, Uses: []reg.VReg{and}, Imms: []int64{-1}},
		)
	default:
		result = fn.AllocateVReg(reg.RegTypeScalar)
		loop.Append(&backend.Instr{Opcode: atomicBinaryOps[instr.Opcode], Defs: []reg.VReg{result}, Uses: []reg.VReg{old, value}})
	}
	success := fn.AllocateVReg(reg.RegTypeScalar)
	loop.Append(
		&backend.Instr{Opcode: opMove, Defs: []reg.VReg{success}, Uses: []reg.VReg{result}},
		&backend.Instr{Opcode: opStoreSync, Defs: []reg.VReg{success}, Uses: []reg.VReg{success, ptr}, Imms: []int64{0}},
		&backend.Instr{Opcode: opBz, Uses: []reg.VReg{success}, Blocks: []backend.BlockID{loop.ID()}},
	)
	fn.AddEdge(loop.ID(), loop.ID())
	fn.AddEdge(loop.ID(), exit.ID())
	return exit
}

// EmitAtomicCmpSwap expands `old = ATOMIC_CMP_SWAP ptr, expected, new` into a retry loop:
//
//	loop1BB:
//	    load_sync old, (ptr)
//	    cmpne_i differs, old, expected
//	    bnz differs, exitBB
//	loop2BB:
//	    move success, new
//	    store_sync success, (ptr)
//	    bz success, loop1BB
//	exitBB:
func (l *TargetLowering) EmitAtomicCmpSwap(fn *backend.Function, blk *backend.Block, i int) *backend.Block {
	instr, exit := takePseudo(fn, blk, i, PseudoAtomicCmpSwap)
	old, ptr, expected, newValue := instr.Defs[0], instr.Uses[0], instr.Uses[1], instr.Uses[2]

	loop1 := fn.NewBlockAfter(blk.ID())
	loop2 := fn.NewBlockAfter(loop1.ID())
	fn.AddEdge(blk.ID(), loop1.ID())

	differs := fn.AllocateVReg(reg.RegTypeScalar)
	loop1.Append(
		&backend.Instr{Opcode: opLoadSync, Defs: []reg.VReg{old}, Uses: []reg.VReg{ptr}, Imms: []int64{0}},
		&backend.Instr{Opcode: opCmpNE, Defs: []reg.VReg{differs}, Uses: []reg.VReg{old, expected}},
		&backend.Instr{Opcode: opBnz, Uses: []reg.VReg{differs}, Blocks: []backend.BlockID{exit.ID()}},
	)
	fn.AddEdge(loop1.ID(), loop2.ID())
	fn.AddEdge(loop1.ID(), exit.ID())

	success := fn.AllocateVReg(reg.RegTypeScalar)
	loop2.Append(
		&backend.Instr{Opcode: opMove, Defs: []reg.VReg{success}, Uses: []reg.VReg{newValue}},
		&backend.Instr{Opcode: opStoreSync, Defs: []reg.VReg{success}, Uses: []reg.VReg{success, ptr}, Imms: []int64{0}},
		&backend.Instr{Opcode: opBz, Uses: []reg.VReg{success}, Blocks: []backend.BlockID{loop1.ID()}},
	)
	fn.AddEdge(loop2.ID(), loop1.ID())
	fn.AddEdge(loop2.ID(), exit.ID())
	return exit
}
