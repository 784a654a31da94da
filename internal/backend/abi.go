package backend

import (
	"fmt"

	"github.com/tetratelabs/nyuzi/internal/backend/reg"
	"github.com/tetratelabs/nyuzi/internal/ir"
)

// FunctionABIRegInfo is implemented by targets to give the registers of their calling convention.
type FunctionABIRegInfo interface {
	// ArgsResultsRegs returns the registers used for passing parameters and results.
	ArgsResultsRegs() (argScalars, argVectors, resultScalars, resultVectors []reg.RealReg)
	// StackSlot returns the size and alignment of a stack argument of type typ.
	StackSlot(typ ir.Type) (size, align int64)
}

type (
	// FunctionABI assigns the arguments and results of a signature to registers and stack slots.
	FunctionABI[R FunctionABIRegInfo] struct {
		r R

		Args, Rets                 []ABIArg
		ArgStackSize, RetStackSize int64

		ArgRealRegs []reg.VReg
		RetRealRegs []reg.VReg
	}

	// ABIArg represents either argument or return value's location.
	ABIArg struct {
		// Index is the index of the argument.
		Index int
		// Kind is the kind of the argument.
		Kind ABIArgKind
		// Reg is valid if Kind == ABIArgKindReg.
		// This VReg must be based on RealReg.
		Reg reg.VReg
		// Offset is valid if Kind == ABIArgKindStack.
		// This is the offset from the beginning of either arg or ret stack slot.
		Offset int64
		// Type is the type of the argument.
		Type ir.Type
	}

	// ABIArgKind is the kind of ABI argument.
	ABIArgKind byte
)

const (
	// ABIArgKindReg represents an argument passed in a register.
	ABIArgKindReg = iota
	// ABIArgKindStack represents an argument passed in the stack.
	ABIArgKindStack
)

// String implements fmt.Stringer.
func (a *ABIArg) String() string {
	if a.Kind == ABIArgKindReg {
		return fmt.Sprintf("args[%d]: %s in %s", a.Index, a.Type, a.Reg)
	}
	return fmt.Sprintf("args[%d]: %s at sp+%d", a.Index, a.Type, a.Offset)
}

// String implements fmt.Stringer.
func (a ABIArgKind) String() string {
	switch a {
	case ABIArgKindReg:
		return "reg"
	case ABIArgKindStack:
		return "stack"
	default:
		panic("BUG")
	}
}

// NewFunctionABI returns a FunctionABI for the registers of r.
func NewFunctionABI[R FunctionABIRegInfo](r R) *FunctionABI[R] {
	return &FunctionABI[R]{r: r}
}

// Init assigns the locations of the given signature. Every argument of a variadic signature is passed on the stack,
// so callees can walk them in memory.
func (a *FunctionABI[R]) Init(params, results []ir.Type, varArgs bool) {
	argScalars, argVectors, resultScalars, resultVectors := a.r.ArgsResultsRegs()
	if varArgs {
		argScalars, argVectors = nil, nil
	}

	if len(a.Rets) < len(results) {
		a.Rets = make([]ABIArg, len(results))
	}
	a.Rets = a.Rets[:len(results)]
	a.RetStackSize = a.setABIArgs(a.Rets, results, resultScalars, resultVectors)
	if len(a.Args) < len(params) {
		a.Args = make([]ABIArg, len(params))
	}
	a.Args = a.Args[:len(params)]
	a.ArgStackSize = a.setABIArgs(a.Args, params, argScalars, argVectors)

	// Gather the real registers usages in arg/return.
	a.RetRealRegs = a.RetRealRegs[:0]
	for i := range a.Rets {
		if r := &a.Rets[i]; r.Kind == ABIArgKindReg {
			a.RetRealRegs = append(a.RetRealRegs, r.Reg)
		}
	}
	a.ArgRealRegs = a.ArgRealRegs[:0]
	for i := range a.Args {
		if arg := &a.Args[i]; arg.Kind == ABIArgKindReg {
			a.ArgRealRegs = append(a.ArgRealRegs, arg.Reg)
		}
	}
}

// setABIArgs sets the ABI arguments in the given slice. This assumes that len(s) >= len(types).
func (a *FunctionABI[R]) setABIArgs(s []ABIArg, types []ir.Type, scalars, vectors []reg.RealReg) (stackSize int64) {
	var stackOffset int64
	scalarIndex, vectorIndex := 0, 0
	for i, typ := range types {
		arg := &s[i]
		arg.Index = i
		arg.Type = typ
		regs, next := scalars, &scalarIndex
		if RegTypeOf(typ) == reg.RegTypeVector {
			regs, next = vectors, &vectorIndex
		}
		if *next < len(regs) {
			arg.Kind = ABIArgKindReg
			arg.Reg = reg.FromRealReg(regs[*next])
			arg.Offset = 0
			*next++
			continue
		}
		size, align := a.r.StackSlot(typ)
		arg.Kind = ABIArgKindStack
		arg.Reg = reg.VRegInvalid
		arg.Offset = AlignTo(stackOffset, align)
		stackOffset = arg.Offset + size
	}
	return stackOffset
}

// RegTypeOf returns the register file holding values of typ. Lane masks are scalars.
func RegTypeOf(typ ir.Type) reg.RegType {
	if typ.IsVector() && typ.Elem() != ir.TypeI1 {
		return reg.RegTypeVector
	}
	if !typ.IsValue() {
		panic(fmt.Sprintf("BUG: no register holds %s", typ))
	}
	return reg.RegTypeScalar
}
