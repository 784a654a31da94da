// Package ir is the selection DAG which the target lowering rewrites: nodes of generic operations over typed values,
// ordered by chain results.
package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tetratelabs/nyuzi/internal/backend/reg"
	"github.com/tetratelabs/nyuzi/internal/pool"
)

// DAG holds the nodes of one function, or one block of it. Nodes are allocated from an arena and released all at
// once by Reset, so a DAG can be reused across functions.
type DAG struct {
	nodes pool.Arena[NodeID, Node]
	entry Value
	root  Value

	// TargetNodeName names target opcodes in Format. Target opcodes are printed by number if nil.
	TargetNodeName func(Opcode) string
}

// NewDAG returns a new DAG.
func NewDAG() *DAG {
	d := &DAG{}
	d.Reset()
	return d
}

// Reset releases every node and starts a new function.
func (d *DAG) Reset() {
	d.nodes.Reset()
	d.entry = d.NewNode(OpcodeEntryToken, []Type{TypeOther}).Result(0)
	d.root = d.entry
}

// EntryToken returns the chain at the start of the function.
func (d *DAG) EntryToken() Value { return d.entry }

// Root returns the last chain of the function.
func (d *DAG) Root() Value { return d.root }

// SetRoot sets the last chain of the function.
func (d *DAG) SetRoot(v Value) { d.root = v }

// NumNodes returns the number of allocated nodes.
func (d *DAG) NumNodes() int { return d.nodes.Len() }

// Node returns the node with the given ID.
func (d *DAG) Node(id NodeID) *Node { return d.nodes.Get(id) }

// NewNode allocates a node with the given results and operands.
func (d *DAG) NewNode(op Opcode, types []Type, operands ...Value) *Node {
	for i, o := range operands {
		if !o.Valid() {
			panic(fmt.Sprintf("BUG: operand %d of %s is invalid", i, d.opName(op)))
		}
	}
	id, n := d.nodes.Allocate()
	n.id = id
	n.op = op
	n.types = types
	n.operands = operands
	return n
}

// Op returns the only result of a new node.
func (d *DAG) Op(op Opcode, t Type, operands ...Value) Value {
	return d.NewNode(op, []Type{t}, operands...).Result(0)
}

// Undef returns an undefined value.
func (d *DAG) Undef(t Type) Value {
	return d.Op(OpcodeUndef, t)
}

// TokenFactor returns a chain which follows every given chain.
func (d *DAG) TokenFactor(chains ...Value) Value {
	if len(chains) == 1 {
		return chains[0]
	}
	return d.Op(OpcodeTokenFactor, TypeOther, chains...)
}

// MergeValues returns a node whose results are the given values.
func (d *DAG) MergeValues(values ...Value) *Node {
	types := make([]Type, len(values))
	for i, v := range values {
		types[i] = v.Type()
	}
	return d.NewNode(OpcodeMergeValues, types, values...)
}

// Constant returns an integer constant, splatted for a vector type.
func (d *DAG) Constant(v int64, t Type) Value {
	return d.constant(OpcodeConstant, v, t)
}

// TargetConstant returns an integer constant which is used as an immediate as is.
func (d *DAG) TargetConstant(v int64, t Type) Value {
	return d.constant(OpcodeTargetConstant, v, t)
}

func (d *DAG) constant(op Opcode, v int64, t Type) Value {
	if !t.IsInt() {
		panic(fmt.Sprintf("BUG: integer constant of type %s", t))
	}
	n := d.NewNode(op, []Type{t})
	n.u64 = uint64(v)
	return n.Result(0)
}

// ConstantFP returns a floating point constant, splatted for a vector type.
func (d *DAG) ConstantFP(v float32, t Type) Value {
	if !t.IsFloat() {
		panic(fmt.Sprintf("BUG: floating point constant of type %s", t))
	}
	n := d.NewNode(OpcodeConstantFP, []Type{t})
	n.u64 = uint64(math.Float32bits(v))
	return n.Result(0)
}

// GlobalAddress returns the address of a global symbol plus offset.
func (d *DAG) GlobalAddress(sym string, offset int64, target bool) Value {
	return d.symbolNode(pick(target, OpcodeTargetGlobalAddress, OpcodeGlobalAddress), sym, offset)
}

// ExternalSymbol returns the address of a symbol which is not a global of the module, such as a runtime function.
func (d *DAG) ExternalSymbol(sym string, target bool) Value {
	return d.symbolNode(pick(target, OpcodeTargetExternalSymbol, OpcodeExternalSymbol), sym, 0)
}

// BlockAddress returns the address of a labeled block plus offset.
func (d *DAG) BlockAddress(label string, offset int64, target bool) Value {
	return d.symbolNode(pick(target, OpcodeTargetBlockAddress, OpcodeBlockAddress), label, offset)
}

func (d *DAG) symbolNode(op Opcode, sym string, offset int64) Value {
	n := d.NewNode(op, []Type{TypeI32})
	n.sym = sym
	n.offset = offset
	return n.Result(0)
}

// ConstantPool returns the address of the index-th constant pool entry plus offset.
func (d *DAG) ConstantPool(index int, offset int64, target bool) Value {
	n := d.NewNode(pick(target, OpcodeTargetConstantPool, OpcodeConstantPool), []Type{TypeI32})
	n.u64 = uint64(index)
	n.offset = offset
	return n.Result(0)
}

// JumpTable returns the address of the index-th jump table.
func (d *DAG) JumpTable(index int, target bool) Value {
	n := d.NewNode(pick(target, OpcodeTargetJumpTable, OpcodeJumpTable), []Type{TypeI32})
	n.u64 = uint64(index)
	return n.Result(0)
}

// FrameIndex returns the address of a stack object. Fixed objects have negative indices.
func (d *DAG) FrameIndex(index int) Value {
	n := d.NewNode(OpcodeFrameIndex, []Type{TypeI32})
	n.u64 = uint64(int64(index))
	return n.Result(0)
}

// Register returns the operand naming r.
func (d *DAG) Register(r reg.VReg, t Type) Value {
	n := d.NewNode(OpcodeRegister, []Type{t})
	n.u64 = uint64(r)
	return n.Result(0)
}

// BasicBlock returns the operand naming a block.
func (d *DAG) BasicBlock(block int) Value {
	n := d.NewNode(OpcodeBasicBlock, []Type{TypeOther})
	n.u64 = uint64(block)
	return n.Result(0)
}

// CopyToReg copies v to r after chain. glue may be the zero Value. The results are the chain and the glue.
func (d *DAG) CopyToReg(chain Value, r reg.VReg, v, glue Value) *Node {
	operands := []Value{chain, d.Register(r, v.Type()), v}
	if glue.Valid() {
		operands = append(operands, glue)
	}
	return d.NewNode(OpcodeCopyToReg, []Type{TypeOther, TypeGlue}, operands...)
}

// CopyFromReg reads r after chain. glue may be the zero Value. The results are the value, the chain and the glue.
func (d *DAG) CopyFromReg(chain Value, r reg.VReg, t Type, glue Value) *Node {
	operands := []Value{chain, d.Register(r, t)}
	if glue.Valid() {
		operands = append(operands, glue)
	}
	return d.NewNode(OpcodeCopyFromReg, []Type{t, TypeOther, TypeGlue}, operands...)
}

// CallSeqStart opens a call sequence which passes bytes bytes of arguments on the stack.
func (d *DAG) CallSeqStart(chain Value, bytes int64) *Node {
	return d.NewNode(OpcodeCallSeqStart, []Type{TypeOther, TypeGlue}, chain, d.TargetConstant(bytes, TypeI32))
}

// CallSeqEnd closes a call sequence. glue is the glue of the call.
func (d *DAG) CallSeqEnd(chain Value, bytes int64, glue Value) *Node {
	return d.NewNode(OpcodeCallSeqEnd, []Type{TypeOther, TypeGlue}, chain, d.TargetConstant(bytes, TypeI32), glue)
}

// Load loads a t from ptr. The results are the value and the chain.
func (d *DAG) Load(t Type, chain, ptr Value) *Node {
	n := d.NewNode(OpcodeLoad, []Type{t, TypeOther}, chain, ptr)
	n.vt = t
	return n
}

// Store stores v at ptr and returns the chain.
func (d *DAG) Store(chain, v, ptr Value) Value {
	n := d.NewNode(OpcodeStore, []Type{TypeOther}, chain, v, ptr)
	n.vt = v.Type()
	return n.Result(0)
}

// SetCC compares lhs and rhs, and returns t, which is i32 or a lane mask.
func (d *DAG) SetCC(t Type, lhs, rhs Value, cc CondCode) Value {
	n := d.NewNode(OpcodeSetCC, []Type{t}, lhs, rhs)
	n.cc = cc
	return n.Result(0)
}

// SelectCC returns tv if lhs and rhs compare true by cc, and fv otherwise.
func (d *DAG) SelectCC(lhs, rhs, tv, fv Value, cc CondCode) Value {
	n := d.NewNode(OpcodeSelectCC, []Type{tv.Type()}, lhs, rhs, tv, fv)
	n.cc = cc
	return n.Result(0)
}

// BrCC branches to block if lhs and rhs compare true by cc and returns the chain.
func (d *DAG) BrCC(chain, lhs, rhs Value, cc CondCode, block int) Value {
	n := d.NewNode(OpcodeBrCC, []Type{TypeOther}, chain, lhs, rhs, d.BasicBlock(block))
	n.cc = cc
	return n.Result(0)
}

// VectorShuffle returns the vector whose lane i is lane mask[i] of the concatenation of a and b.
func (d *DAG) VectorShuffle(a, b Value, mask []int) Value {
	if len(mask) != a.Type().Lanes() {
		panic(fmt.Sprintf("BUG: shuffle mask of %d lanes for %s", len(mask), a.Type()))
	}
	n := d.NewNode(OpcodeVectorShuffle, []Type{a.Type()}, a, b)
	n.mask = mask
	return n.Result(0)
}

// SignExtendInReg sign extends the low ext.Bits() bits of v.
func (d *DAG) SignExtendInReg(v Value, ext Type) Value {
	n := d.NewNode(OpcodeSignExtendInReg, []Type{v.Type()}, v)
	n.vt = ext
	return n.Result(0)
}

// Atomic returns an atomic memory operation. The results are the previous value and the chain.
func (d *DAG) Atomic(op Opcode, chain, ptr Value, values ...Value) *Node {
	if op < OpcodeAtomicLoadAdd || op > OpcodeAtomicCmpSwap {
		panic(fmt.Sprintf("BUG: %s is not an atomic read-modify-write", op))
	}
	return d.NewNode(op, []Type{values[0].Type(), TypeOther}, append([]Value{chain, ptr}, values...)...)
}

func pick(target bool, t, f Opcode) Opcode {
	if target {
		return t
	}
	return f
}

func (d *DAG) opName(op Opcode) string {
	if op.IsTarget() && d.TargetNodeName != nil {
		return d.TargetNodeName(op)
	}
	return op.String()
}

// Format returns the nodes reachable from the given values, one per line, with every node after its operands.
// Nodes are numbered in that order, so the output only depends on the shape of the graph.
func (d *DAG) Format(roots ...Value) string {
	f := formatter{d: d, names: map[*Node]string{}}
	for _, r := range roots {
		f.visit(r.Node)
	}
	return f.b.String()
}

type formatter struct {
	d     *DAG
	names map[*Node]string
	next  int
	b     strings.Builder
}

func (f *formatter) visit(n *Node) {
	if _, ok := f.names[n]; ok {
		return
	}
	// Mark before the operands, the graph is acyclic.
	f.names[n] = ""
	for _, o := range n.operands {
		f.visit(o.Node)
	}
	name := "t" + strconv.Itoa(f.next)
	f.next++
	f.names[n] = name

	types := make([]string, len(n.types))
	for i, t := range n.types {
		types[i] = t.String()
	}
	f.b.WriteString(name)
	f.b.WriteString(": ")
	f.b.WriteString(strings.Join(types, ","))
	f.b.WriteString(" = ")
	f.b.WriteString(f.d.opName(n.op))
	if p := n.payload(); p != "" {
		f.b.WriteString("<" + p + ">")
	}
	for i, o := range n.operands {
		if i == 0 {
			f.b.WriteByte(' ')
		} else {
			f.b.WriteString(", ")
		}
		f.b.WriteString(f.names[o.Node])
		if o.Res != 0 {
			f.b.WriteString(":" + strconv.Itoa(o.Res))
		}
	}
	f.b.WriteByte('\n')
}

func (n *Node) payload() string {
	switch n.op {
	case OpcodeConstant, OpcodeTargetConstant:
		return strconv.FormatInt(int64(n.u64), 10)
	case OpcodeConstantFP:
		return strconv.FormatFloat(float64(n.FloatValue()), 'g', -1, 32)
	case OpcodeGlobalAddress, OpcodeTargetGlobalAddress, OpcodeBlockAddress, OpcodeTargetBlockAddress:
		if n.offset != 0 {
			return fmt.Sprintf("%s%+d", n.sym, n.offset)
		}
		return n.sym
	case OpcodeExternalSymbol, OpcodeTargetExternalSymbol:
		return n.sym
	case OpcodeConstantPool, OpcodeTargetConstantPool:
		if n.offset != 0 {
			return fmt.Sprintf("%d%+d", n.Index(), n.offset)
		}
		return strconv.Itoa(n.Index())
	case OpcodeFrameIndex, OpcodeJumpTable, OpcodeTargetJumpTable:
		return strconv.Itoa(n.Index())
	case OpcodeRegister:
		return n.Reg().String()
	case OpcodeBasicBlock:
		return "blk" + strconv.Itoa(n.Block())
	case OpcodeSetCC, OpcodeSelectCC, OpcodeBrCC:
		return n.cc.String()
	case OpcodeVectorShuffle:
		lanes := make([]string, len(n.mask))
		for i, l := range n.mask {
			lanes[i] = strconv.Itoa(l)
		}
		return strings.Join(lanes, ",")
	case OpcodeSignExtendInReg:
		return n.vt.String()
	}
	return ""
}
