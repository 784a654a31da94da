package nyuzi

import (
	"github.com/tetratelabs/nyuzi/internal/backend"
	"github.com/tetratelabs/nyuzi/internal/backend/reg"
	"github.com/tetratelabs/nyuzi/internal/ir"
)

// LoweringContext is the state of lowering one function. It must not be shared between compilations.
type LoweringContext struct {
	DAG  *ir.DAG
	Func *backend.Function

	// VarArgs is true if the function takes variadic arguments.
	VarArgs bool

	liveIns map[reg.RealReg]reg.VReg
}

// NewLoweringContext returns the context of lowering the DAG of fn.
func NewLoweringContext(dag *ir.DAG, fn *backend.Function) *LoweringContext {
	dag.TargetNodeName = TargetNodeName
	return &LoweringContext{DAG: dag, Func: fn, liveIns: map[reg.RealReg]reg.VReg{}}
}

// LiveIn returns the virtual register which holds the value of r at the entry of the function.
func (c *LoweringContext) LiveIn(r reg.RealReg) reg.VReg {
	v, ok := c.liveIns[r]
	if !ok {
		v = c.Func.AllocateVReg(r.RegType())
		c.liveIns[r] = v
	}
	return v
}

// LiveIns returns the physical registers read at the entry of the function, with their virtual registers.
func (c *LoweringContext) LiveIns() map[reg.RealReg]reg.VReg {
	return c.liveIns
}
