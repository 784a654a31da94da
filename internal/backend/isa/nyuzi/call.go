package nyuzi

import (
	"fmt"

	"github.com/tetratelabs/nyuzi/internal/backend"
	"github.com/tetratelabs/nyuzi/internal/backend/reg"
	"github.com/tetratelabs/nyuzi/internal/ir"
)

// abiRegInfo is the calling convention: the first eight scalar and vector arguments are passed in s0-s7 and
// v0-v7, and the first two scalar and vector results are returned in s0-s1 and v0-v1. The rest goes on the stack.
type abiRegInfo struct{}

var (
	argScalarRegs, argVectorRegs       = regRange(reg.ScalarReg, 8), regRange(reg.VectorReg, 8)
	resultScalarRegs, resultVectorRegs = argScalarRegs[:2], argVectorRegs[:2]
)

func regRange(f func(int) reg.RealReg, n int) []reg.RealReg {
	regs := make([]reg.RealReg, n)
	for i := range regs {
		regs[i] = f(i)
	}
	return regs
}

// ArgsResultsRegs implements backend.FunctionABIRegInfo.
func (abiRegInfo) ArgsResultsRegs() (argScalars, argVectors, resultScalars, resultVectors []reg.RealReg) {
	return argScalarRegs, argVectorRegs, resultScalarRegs, resultVectorRegs
}

// StackSlot implements backend.FunctionABIRegInfo. Vectors are aligned to the vector width.
func (abiRegInfo) StackSlot(typ ir.Type) (size, align int64) {
	if backend.RegTypeOf(typ) == reg.RegTypeVector {
		return int64(typ.Bits() / 8), StackAlignment
	}
	return 4, 4
}

func newABI(params, results []ir.Type, varArgs bool) *backend.FunctionABI[abiRegInfo] {
	abi := backend.NewFunctionABI(abiRegInfo{})
	abi.Init(params, results, varArgs)
	return abi
}

// CanLowerReturn returns true if the results fit in the result registers.
func (l *TargetLowering) CanLowerReturn(results []ir.Type) bool {
	return newABI(nil, results, false).RetStackSize == 0
}

// LowerFormalArguments returns the values of the incoming arguments of the function. Register arguments are
// copied from their live-in registers, and stack arguments are loaded from fixed objects.
func (l *TargetLowering) LowerFormalArguments(ctx *LoweringContext, chain ir.Value, params []ir.Type, varArgs bool) []ir.Value {
	d, frame := ctx.DAG, &ctx.Func.Frame
	abi := newABI(params, nil, varArgs)
	values := make([]ir.Value, len(params))
	for i := range abi.Args {
		arg := &abi.Args[i]
		if arg.Kind == backend.ABIArgKindReg {
			values[i] = d.CopyFromReg(chain, ctx.LiveIn(arg.Reg.RealReg()), arg.Type, ir.Value{}).Result(0)
			continue
		}
		size, _ := abiRegInfo{}.StackSlot(arg.Type)
		fi := frame.CreateFixedObject(size, arg.Offset)
		values[i] = d.Load(arg.Type, chain, d.FrameIndex(fi)).Result(0)
	}
	ctx.VarArgs = varArgs
	if varArgs {
		frame.HasVarArgs = true
		frame.VarArgsFrameIndex = frame.CreateFixedObject(4, abi.ArgStackSize)
	}
	return values
}

// CallInfo is a call to lower.
type CallInfo struct {
	Chain   ir.Value
	Callee  ir.Value
	Args    []ir.Value
	Results []ir.Type
	VarArgs bool
}

// CallResult is a lowered call.
type CallResult struct {
	// Chain is the chain after the call.
	Chain ir.Value
	// Glue is the glue of the last result copy.
	Glue ir.Value
	// Values are the results.
	Values []ir.Value
}

// LowerCall lowers a call into the call sequence: the stack arguments are stored in the outgoing argument area, the
// register arguments are copied to their registers, and the results are copied from theirs.
func (l *TargetLowering) LowerCall(ctx *LoweringContext, ci *CallInfo) *CallResult {
	d, frame := ctx.DAG, &ctx.Func.Frame
	params := make([]ir.Type, len(ci.Args))
	for i, a := range ci.Args {
		params[i] = a.Type()
	}
	if !l.CanLowerReturn(ci.Results) {
		panic(fmt.Sprintf("BUG: %d results do not fit in the result registers", len(ci.Results)))
	}
	abi := newABI(params, ci.Results, ci.VarArgs)

	bytes := backend.AlignTo(abi.ArgStackSize, StackAlignment)
	frame.HasCalls = true
	if bytes > frame.MaxCallFrameSize {
		frame.MaxCallFrameSize = bytes
	}
	chain := d.CallSeqStart(ci.Chain, bytes).Result(0)

	var stores []ir.Value
	for i := range abi.Args {
		arg := &abi.Args[i]
		if arg.Kind != backend.ABIArgKindStack {
			continue
		}
		sp := d.CopyFromReg(chain, reg.FromRealReg(spReg), ir.TypeI32, ir.Value{}).Result(0)
		addr := d.Op(ir.OpcodeAdd, ir.TypeI32, sp, d.Constant(arg.Offset, ir.TypeI32))
		stores = append(stores, d.Store(chain, ci.Args[i], addr))
	}
	if len(stores) > 0 {
		chain = d.TokenFactor(stores...)
	}

	var glue ir.Value
	for i := range abi.Args {
		arg := &abi.Args[i]
		if arg.Kind != backend.ABIArgKindReg {
			continue
		}
		cp := d.CopyToReg(chain, arg.Reg, ci.Args[i], glue)
		chain, glue = cp.Result(0), cp.Result(1)
	}

	callee := ci.Callee
	switch callee.Opcode() {
	case ir.OpcodeGlobalAddress:
		callee = d.GlobalAddress(callee.Node.Symbol(), callee.Node.Offset(), true)
	case ir.OpcodeExternalSymbol:
		callee = d.ExternalSymbol(callee.Node.Symbol(), true)
	}
	ops := []ir.Value{chain, callee}
	for i := range abi.Args {
		if arg := &abi.Args[i]; arg.Kind == backend.ABIArgKindReg {
			ops = append(ops, d.Register(arg.Reg, arg.Type))
		}
	}
	if glue.Valid() {
		ops = append(ops, glue)
	}
	call := d.NewNode(NodeCall, []ir.Type{ir.TypeOther, ir.TypeGlue}, ops...)
	end := d.CallSeqEnd(call.Result(0), bytes, call.Result(1))
	chain, glue = end.Result(0), end.Result(1)

	ret := &CallResult{Values: make([]ir.Value, len(abi.Rets))}
	for i := range abi.Rets {
		r := &abi.Rets[i]
		cp := d.CopyFromReg(chain, r.Reg, r.Type, glue)
		ret.Values[i] = cp.Result(0)
		chain, glue = cp.Result(1), cp.Result(2)
	}
	ret.Chain, ret.Glue = chain, glue
	return ret
}

// LowerReturn copies the values to the result registers and returns the RET_FLAG.
func (l *TargetLowering) LowerReturn(ctx *LoweringContext, chain ir.Value, values []ir.Value) ir.Value {
	d := ctx.DAG
	results := make([]ir.Type, len(values))
	for i, v := range values {
		results[i] = v.Type()
	}
	if !l.CanLowerReturn(results) {
		panic(fmt.Sprintf("BUG: %d results do not fit in the result registers", len(results)))
	}
	abi := newABI(nil, results, false)

	var glue ir.Value
	for i := range abi.Rets {
		cp := d.CopyToReg(chain, abi.Rets[i].Reg, values[i], glue)
		chain, glue = cp.Result(0), cp.Result(1)
	}
	ops := []ir.Value{chain}
	if glue.Valid() {
		ops = append(ops, glue)
	}
	return d.Op(NodeRetFlag, ir.TypeOther, ops...)
}
