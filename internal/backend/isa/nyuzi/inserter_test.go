package nyuzi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/nyuzi/internal/backend"
	"github.com/tetratelabs/nyuzi/internal/backend/reg"
	"github.com/tetratelabs/nyuzi/internal/ir"
	"github.com/tetratelabs/nyuzi/internal/subtarget"
)

func requireFunction(t *testing.T, exp string, fn *backend.Function) {
	if diff := cmp.Diff(exp, fn.Format(OpcodeName)); diff != "" {
		t.Fatalf("unexpected function (-want +got):\n%s", diff)
	}
}

func scalars(fn *backend.Function, n int) []reg.VReg {
	ret := make([]reg.VReg, n)
	for i := range ret {
		ret[i] = fn.AllocateVReg(reg.RegTypeScalar)
	}
	return ret
}

func TestTargetLowering_EmitSelectCC(t *testing.T) {
	l := NewTargetLowering(subtarget.MustNew("v60", ""), nil)
	fn := backend.NewFunction("f")
	entry := fn.NewBlock()
	r := scalars(fn, 5)
	entry.Append(
		&backend.Instr{Opcode: PseudoSelect, Defs: r[:1], Uses: r[1:4]},
		&backend.Instr{Opcode: opMove, Defs: r[4:5], Uses: r[:1]},
	)

	sink := l.EmitInstrWithCustomInserter(fn, entry, 0)
	require.Equal(t, backend.BlockID(1), sink.ID())
	requireFunction(t, `blk0: preds=[] succs=[blk2 blk1]
	bnz v129?scalar, blk1
blk2: preds=[blk0] succs=[blk1]
blk1: preds=[blk0 blk2] succs=[]
	v128?scalar = phi [v130?scalar, blk0], [v131?scalar, blk2]
	v132?scalar = move v128?scalar
`, fn)
}

func TestTargetLowering_EmitAtomicBinary(t *testing.T) {
	l := NewTargetLowering(subtarget.MustNew("v60", ""), nil)
	fn := backend.NewFunction("f")
	entry := fn.NewBlock()
	r := scalars(fn, 3)
	entry.Append(&backend.Instr{Opcode: PseudoAtomicLoadAdd, Defs: r[:1], Uses: r[1:3]})

	exit := l.EmitInstrWithCustomInserter(fn, entry, 0)
	require.Equal(t, backend.BlockID(1), exit.ID())
	requireFunction(t, `blk0: preds=[] succs=[blk2]
blk2: preds=[blk0 blk2] succs=[blk2 blk1]
	v128?scalar = load_sync v129?scalar, #0
	v131?scalar = add_i v128?scalar, v130?scalar
	v132?scalar = move v131?scalar
	v132?scalar = store_sync v132?scalar, v129?scalar, #0
	bz v132?scalar, blk2
blk1: preds=[blk2] succs=[]
`, fn)
}

func TestTargetLowering_EmitAtomicBinary_Ops(t *testing.T) {
	for _, tc := range []struct {
		name   string
		pseudo backend.Opcode
		expOps []string
	}{
		{name: "sub", pseudo: PseudoAtomicLoadSub, expOps: []string{"v131?scalar = sub_i v128?scalar, v130?scalar"}},
		{name: "and", pseudo: PseudoAtomicLoadAnd, expOps: []string{"v131?scalar = and v128?scalar, v130?scalar"}},
		{name: "or", pseudo: PseudoAtomicLoadOr, expOps: []string{"v131?scalar = or v128?scalar, v130?scalar"}},
		{name: "xor", pseudo: PseudoAtomicLoadXor, expOps: []string{"v131?scalar = xor v128?scalar, v130?scalar"}},
		{
			name:   "nand",
			pseudo: PseudoAtomicLoadNand,
			expOps: []string{"v131?scalar = and v128?scalar, v130?scalar", "v132?scalar = xor v131?scalar, #-1"},
		},
		{name: "swap", pseudo: PseudoAtomicSwap},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			l := NewTargetLowering(subtarget.MustNew("v60", ""), nil)
			fn := backend.NewFunction("f")
			entry := fn.NewBlock()
			r := scalars(fn, 3)
			entry.Append(&backend.Instr{Opcode: tc.pseudo, Defs: r[:1], Uses: r[1:3]})
			l.EmitInstrWithCustomInserter(fn, entry, 0)

			loop := fn.Block(2).Instrs()
			require.Len(t, loop, len(tc.expOps)+4)
			for i, exp := range tc.expOps {
				require.Equal(t, exp, loop[i+1].Format(OpcodeName))
			}
			move := loop[len(tc.expOps)+1]
			require.Equal(t, opMove, move.Opcode)
			if tc.pseudo == PseudoAtomicSwap {
				require.Equal(t, r[2], move.Uses[0])
			} else {
				require.Equal(t, loop[len(tc.expOps)].Defs[0], move.Uses[0])
			}
		})
	}
}

func TestTargetLowering_EmitAtomicCmpSwap(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	l := NewTargetLowering(subtarget.MustNew("v60", ""), logger)

	fn := backend.NewFunction("f")
	entry, next := fn.NewBlock(), fn.NewBlock()
	r := scalars(fn, 5)
	entry.Append(
		&backend.Instr{Opcode: PseudoAtomicCmpSwap, Defs: r[:1], Uses: r[1:4]},
		&backend.Instr{Opcode: opMove, Defs: r[4:5], Uses: r[:1]},
	)
	fn.AddEdge(entry.ID(), next.ID())

	exit := l.EmitInstrWithCustomInserter(fn, entry, 0)
	require.Equal(t, backend.BlockID(2), exit.ID())
	requireFunction(t, `blk0: preds=[] succs=[blk3]
blk3: preds=[blk0 blk4] succs=[blk4 blk2]
	v128?scalar = load_sync v129?scalar, #0
	v133?scalar = cmpne_i v128?scalar, v130?scalar
	bnz v133?scalar, blk2
blk4: preds=[blk3] succs=[blk3 blk2]
	v134?scalar = move v131?scalar
	v134?scalar = store_sync v134?scalar, v129?scalar, #0
	bz v134?scalar, blk3
blk2: preds=[blk3 blk4] succs=[blk1]
	v132?scalar = move v128?scalar
blk1: preds=[blk2] succs=[]
`, fn)

	entryLog := hook.LastEntry()
	require.NotNil(t, entryLog)
	require.Equal(t, "expanded pseudo instruction", entryLog.Message)
	require.Equal(t, "ATOMIC_CMP_SWAP", entryLog.Data["instr"])
}

func TestTargetLowering_EmitInstrWithCustomInserter_NotPseudo(t *testing.T) {
	l := NewTargetLowering(subtarget.MustNew("v60", ""), nil)
	fn := backend.NewFunction("f")
	entry := fn.NewBlock()
	r := scalars(fn, 2)
	entry.Append(&backend.Instr{Opcode: opMove, Defs: r[:1], Uses: r[1:]})
	require.Panics(t, func() { l.EmitInstrWithCustomInserter(fn, entry, 0) })
	require.Panics(t, func() { l.EmitSelectCC(fn, entry, 0) })
}

func TestOpcodeName(t *testing.T) {
	require.Equal(t, "SELECT", OpcodeName(PseudoSelect))
	require.Equal(t, "ATOMIC_LOAD_NAND", OpcodeName(PseudoAtomicLoadNand))
	require.Equal(t, "load_sync", OpcodeName(opLoadSync))
	require.Panics(t, func() { OpcodeName(pseudoEnd) })
	require.True(t, UsesCustomInserter(PseudoAtomicSwap))
	require.False(t, UsesCustomInserter(opMove))
	require.Equal(t, PseudoAtomicCmpSwap, PseudoForAtomic(ir.OpcodeAtomicCmpSwap))
	require.Equal(t, PseudoAtomicLoadNand, PseudoForAtomic(ir.OpcodeAtomicLoadNand))
	require.Panics(t, func() { PseudoForAtomic(ir.OpcodeAtomicFence) })
}
