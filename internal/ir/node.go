package ir

import (
	"fmt"
	"math"

	"github.com/tetratelabs/nyuzi/internal/backend/reg"
)

// NodeID is the index of a Node in its DAG.
type NodeID uint32

// Node is an operation of a DAG. Its operands are results of other nodes, so the nodes of a function form a
// directed acyclic graph. Side effects are ordered by chain results, of TypeOther.
//
// Node is flattened like ssa.Instruction: every payload field is shared by the opcodes which need one, and the
// accessors panic on a node of another opcode.
type Node struct {
	id       NodeID
	op       Opcode
	types    []Type
	operands []Value

	// u64 is the constant bits, the frame, jump table or constant pool index, the block, or the register.
	u64    uint64
	sym    string
	offset int64
	cc     CondCode
	mask   []int
	// vt is the extension type of OpcodeSignExtendInReg and the memory type of loads and stores.
	vt Type
}

// Value is one result of a Node.
type Value struct {
	Node *Node
	Res  int
}

// Valid returns false for the zero Value.
func (v Value) Valid() bool {
	return v.Node != nil
}

// Type returns the type of v.
func (v Value) Type() Type {
	return v.Node.types[v.Res]
}

// Opcode returns the opcode of the node of v.
func (v Value) Opcode() Opcode {
	return v.Node.op
}

// ID returns the NodeID of n.
func (n *Node) ID() NodeID { return n.id }

// Opcode returns the operation of n.
func (n *Node) Opcode() Opcode { return n.op }

// Types returns the result types of n.
func (n *Node) Types() []Type { return n.types }

// NumResults returns the number of results of n.
func (n *Node) NumResults() int { return len(n.types) }

// Result returns the i-th result of n.
func (n *Node) Result(i int) Value {
	if i >= len(n.types) {
		panic(fmt.Sprintf("BUG: %s has %d results", n.op, len(n.types)))
	}
	return Value{Node: n, Res: i}
}

// Operands returns the operands of n.
func (n *Node) Operands() []Value { return n.operands }

// NumOperands returns the number of operands of n.
func (n *Node) NumOperands() int { return len(n.operands) }

// Operand returns the i-th operand of n.
func (n *Node) Operand(i int) Value { return n.operands[i] }

// SetOperand replaces the i-th operand of n.
func (n *Node) SetOperand(i int, v Value) { n.operands[i] = v }

func (n *Node) check(ops ...Opcode) {
	for _, op := range ops {
		if n.op == op {
			return
		}
	}
	panic(fmt.Sprintf("BUG: invalid payload access on %s", n.op))
}

// IsConstant returns true for integer constants.
func (n *Node) IsConstant() bool {
	return n.op == OpcodeConstant || n.op == OpcodeTargetConstant
}

// ConstantValue returns the value of an integer constant.
func (n *Node) ConstantValue() int64 {
	n.check(OpcodeConstant, OpcodeTargetConstant)
	return int64(n.u64)
}

// FloatValue returns the value of OpcodeConstantFP.
func (n *Node) FloatValue() float32 {
	n.check(OpcodeConstantFP)
	return math.Float32frombits(uint32(n.u64))
}

// Symbol returns the symbol of an address node.
func (n *Node) Symbol() string {
	n.check(OpcodeGlobalAddress, OpcodeTargetGlobalAddress, OpcodeExternalSymbol, OpcodeTargetExternalSymbol,
		OpcodeBlockAddress, OpcodeTargetBlockAddress)
	return n.sym
}

// Offset returns the byte offset of an address node from its symbol.
func (n *Node) Offset() int64 {
	n.check(OpcodeGlobalAddress, OpcodeTargetGlobalAddress, OpcodeBlockAddress, OpcodeTargetBlockAddress,
		OpcodeConstantPool, OpcodeTargetConstantPool)
	return n.offset
}

// Index returns the index of a frame, jump table or constant pool node.
func (n *Node) Index() int {
	n.check(OpcodeFrameIndex, OpcodeJumpTable, OpcodeTargetJumpTable, OpcodeConstantPool, OpcodeTargetConstantPool)
	return int(int64(n.u64))
}

// Reg returns the register of OpcodeRegister.
func (n *Node) Reg() reg.VReg {
	n.check(OpcodeRegister)
	return reg.VReg(n.u64)
}

// Block returns the block of OpcodeBasicBlock.
func (n *Node) Block() int {
	n.check(OpcodeBasicBlock)
	return int(n.u64)
}

// CondCode returns the condition of a comparison.
func (n *Node) CondCode() CondCode {
	n.check(OpcodeSetCC, OpcodeSelectCC, OpcodeBrCC)
	return n.cc
}

// Mask returns the lane selection of OpcodeVectorShuffle. Lane i of the result is lane Mask()[i] of the
// concatenation of the operands, or undefined if it is negative.
func (n *Node) Mask() []int {
	n.check(OpcodeVectorShuffle)
	return n.mask
}

// ExtType returns the type whose size OpcodeSignExtendInReg extends from.
func (n *Node) ExtType() Type {
	n.check(OpcodeSignExtendInReg)
	return n.vt
}

// MemType returns the type in memory of a load or a store.
func (n *Node) MemType() Type {
	n.check(OpcodeLoad, OpcodeStore)
	return n.vt
}

// IsAtomic returns true for the atomic memory operations.
func (n *Node) IsAtomic() bool {
	return n.op >= OpcodeAtomicLoadAdd && n.op <= OpcodeAtomicFence
}
