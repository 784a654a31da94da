package nyuzi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/nyuzi/internal/backend"
	"github.com/tetratelabs/nyuzi/internal/backend/reg"
	"github.com/tetratelabs/nyuzi/internal/ir"
)

func TestTargetLowering_LowerFormalArguments(t *testing.T) {
	t.Run("registers", func(t *testing.T) {
		l, ctx := newTestLowering("v60", "")
		d := ctx.DAG
		values := l.LowerFormalArguments(ctx, d.EntryToken(), []ir.Type{ir.TypeI32, ir.TypeV16F32, ir.TypeF32}, false)
		require.Len(t, values, 3)
		for i, exp := range []reg.RealReg{reg.ScalarReg(0), reg.VectorReg(0), reg.ScalarReg(1)} {
			require.Equal(t, ir.OpcodeCopyFromReg, values[i].Opcode())
			require.Equal(t, ctx.LiveIns()[exp], values[i].Node.Operand(1).Node.Reg())
		}
		require.Equal(t, ir.TypeV16F32, values[1].Type())
		require.Equal(t, 0, ctx.Func.Frame.NumFixedObjects())
		require.False(t, ctx.VarArgs)
	})

	t.Run("stack", func(t *testing.T) {
		l, ctx := newTestLowering("v60", "")
		d := ctx.DAG
		params := make([]ir.Type, 10)
		for i := range params {
			params[i] = ir.TypeI32
		}
		values := l.LowerFormalArguments(ctx, d.EntryToken(), params, false)
		requireDAG(t, ctx, "t0: ch = EntryToken\nt1: i32 = FrameIndex<-1>\nt2: i32,ch = load t0, t1\n", values[8])
		requireDAG(t, ctx, "t0: ch = EntryToken\nt1: i32 = FrameIndex<-2>\nt2: i32,ch = load t0, t1\n", values[9])
		require.Equal(t, backend.FrameObject{Size: 4, Align: 1, Offset: 4, Fixed: true}, ctx.Func.Frame.Object(-2))
		require.Len(t, ctx.LiveIns(), 8)
	})

	t.Run("variadic", func(t *testing.T) {
		l, ctx := newTestLowering("v60", "")
		d := ctx.DAG
		values := l.LowerFormalArguments(ctx, d.EntryToken(), []ir.Type{ir.TypeI32, ir.TypeI32}, true)
		require.Equal(t, ir.OpcodeLoad, values[0].Opcode())
		require.True(t, ctx.VarArgs)
		frame := &ctx.Func.Frame
		require.True(t, frame.HasVarArgs)
		require.Equal(t, -3, frame.VarArgsFrameIndex)
		require.Equal(t, int64(8), frame.Object(-3).Offset)

		requireDAG(t, ctx, `t0: ch = EntryToken
t1: i32 = FrameIndex<-3>
t2: i32 = undef
t3: ch = store t0, t1, t2
`, l.LowerOperation(ctx, d.Op(ir.OpcodeVAStart, ir.TypeOther, d.EntryToken(), d.Undef(ir.TypeI32)).Node))
	})

	t.Run("va_start without variadic arguments", func(t *testing.T) {
		l, ctx := newTestLowering("v60", "")
		d := ctx.DAG
		vaStart := d.Op(ir.OpcodeVAStart, ir.TypeOther, d.EntryToken(), d.Undef(ir.TypeI32))
		require.Panics(t, func() { l.LowerOperation(ctx, vaStart.Node) })
	})
}

func TestTargetLowering_LowerCall(t *testing.T) {
	l, ctx := newTestLowering("v60", "")
	d := ctx.DAG
	a, b := d.Undef(ir.TypeI32), d.Undef(ir.TypeV16I32)
	ret := l.LowerCall(ctx, &CallInfo{
		Chain:   d.EntryToken(),
		Callee:  d.GlobalAddress("callee", 0, false),
		Args:    []ir.Value{a, b},
		Results: []ir.Type{ir.TypeI32},
	})
	require.Len(t, ret.Values, 1)
	requireDAG(t, ctx, `t0: ch = EntryToken
t1: i32 = TargetConstant<0>
t2: ch,glue = callseq_start t0, t1
t3: i32 = Register<s0>
t4: i32 = undef
t5: ch,glue = CopyToReg t2, t3, t4
t6: v16i32 = Register<v0>
t7: v16i32 = undef
t8: ch,glue = CopyToReg t5, t6, t7, t5:1
t9: i32 = TargetGlobalAddress<callee>
t10: i32 = Register<s0>
t11: v16i32 = Register<v0>
t12: ch,glue = CALL t8, t9, t10, t11, t8:1
t13: i32 = TargetConstant<0>
t14: ch,glue = callseq_end t12, t13, t12:1
t15: i32 = Register<s0>
t16: i32,ch,glue = CopyFromReg t14, t15, t14:1
`, ret.Values[0])
	require.Equal(t, ir.Value{Node: ret.Values[0].Node, Res: 1}, ret.Chain)
	require.Equal(t, ir.Value{Node: ret.Values[0].Node, Res: 2}, ret.Glue)
	require.True(t, ctx.Func.Frame.HasCalls)
	require.Equal(t, int64(0), ctx.Func.Frame.MaxCallFrameSize)
}

func TestTargetLowering_LowerCall_Stack(t *testing.T) {
	for _, tc := range []struct {
		name    string
		args    int
		varArgs bool
		expTF   bool
	}{
		{name: "ninth argument", args: 9},
		{name: "variadic", args: 2, varArgs: true, expTF: true},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			l, ctx := newTestLowering("v60", "")
			d := ctx.DAG
			args := make([]ir.Value, tc.args)
			for i := range args {
				args[i] = d.Undef(ir.TypeI32)
			}
			ret := l.LowerCall(ctx, &CallInfo{
				Chain:   d.EntryToken(),
				Callee:  d.ExternalSymbol("memcpy", false),
				Args:    args,
				VarArgs: tc.varArgs,
			})
			require.Empty(t, ret.Values)
			require.Equal(t, ir.OpcodeCallSeqEnd, ret.Chain.Opcode())

			s := d.Format(ret.Chain)
			require.Contains(t, s, "TargetConstant<64>")
			require.Contains(t, s, "Register<s29>")
			require.Contains(t, s, "TargetExternalSymbol<memcpy>")
			require.Contains(t, s, "store")
			if tc.expTF {
				require.Contains(t, s, "TokenFactor")
			} else {
				require.NotContains(t, s, "TokenFactor")
			}
			require.Equal(t, int64(64), ctx.Func.Frame.MaxCallFrameSize)
		})
	}
}

func TestTargetLowering_LowerReturn(t *testing.T) {
	l, ctx := newTestLowering("v60", "")
	d := ctx.DAG
	requireDAG(t, ctx, `t0: ch = EntryToken
t1: i32 = Register<s0>
t2: i32 = undef
t3: ch,glue = CopyToReg t0, t1, t2
t4: f32 = Register<s1>
t5: f32 = undef
t6: ch,glue = CopyToReg t3, t4, t5, t3:1
t7: ch = RET_FLAG t6, t6:1
`, l.LowerReturn(ctx, d.EntryToken(), []ir.Value{d.Undef(ir.TypeI32), d.Undef(ir.TypeF32)}))

	requireDAG(t, ctx, "t0: ch = EntryToken\nt1: ch = RET_FLAG t0\n", l.LowerReturn(ctx, d.EntryToken(), nil))

	three := []ir.Value{d.Undef(ir.TypeI32), d.Undef(ir.TypeI32), d.Undef(ir.TypeI32)}
	require.Panics(t, func() { l.LowerReturn(ctx, d.EntryToken(), three) })
}

func TestTargetLowering_CanLowerReturn(t *testing.T) {
	l, _ := newTestLowering("v4", "")
	require.True(t, l.CanLowerReturn(nil))
	require.True(t, l.CanLowerReturn([]ir.Type{ir.TypeI32, ir.TypeF32}))
	require.True(t, l.CanLowerReturn([]ir.Type{ir.TypeV16I32, ir.TypeI32, ir.TypeV16F32, ir.TypeI32}))
	require.False(t, l.CanLowerReturn([]ir.Type{ir.TypeI32, ir.TypeI32, ir.TypeI32}))
	require.False(t, l.CanLowerReturn([]ir.Type{ir.TypeV16I32, ir.TypeV16I32, ir.TypeV16I32}))
}
