package backend

import (
	"fmt"
	"strings"

	"github.com/tetratelabs/nyuzi/internal/backend/reg"
	"github.com/tetratelabs/nyuzi/internal/pool"
)

// BlockID is the index of a Block in its Function.
type BlockID uint32

// String implements fmt.Stringer.
func (b BlockID) String() string {
	return fmt.Sprintf("blk%d", b)
}

// Block is a basic block of machine instructions.
type Block struct {
	id           BlockID
	instrs       []*Instr
	succs, preds []BlockID
}

// ID returns the BlockID of b.
func (b *Block) ID() BlockID { return b.id }

// Instrs returns the instructions of b.
func (b *Block) Instrs() []*Instr { return b.instrs }

// Succs returns the successors of b in the order the edges were added.
func (b *Block) Succs() []BlockID { return b.succs }

// Preds returns the predecessors of b in the order the edges were added.
func (b *Block) Preds() []BlockID { return b.preds }

// Append adds instructions at the end of b.
func (b *Block) Append(instrs ...*Instr) {
	b.instrs = append(b.instrs, instrs...)
}

// RemoveLast removes the last instruction of b and returns it.
func (b *Block) RemoveLast() *Instr {
	if len(b.instrs) == 0 {
		panic(fmt.Sprintf("BUG: %s is empty", b.id))
	}
	last := b.instrs[len(b.instrs)-1]
	b.instrs = b.instrs[:len(b.instrs)-1]
	return last
}

// Prepend adds instructions at the start of b.
func (b *Block) Prepend(instrs ...*Instr) {
	b.instrs = append(append([]*Instr(nil), instrs...), b.instrs...)
}

// Function is a function of machine instructions. Blocks are allocated from an arena and addressed by BlockID, and
// the layout order is kept separately so blocks can be inserted anywhere.
type Function struct {
	Name  string
	Frame FrameInfo

	blocks     pool.Arena[BlockID, Block]
	layout     []BlockID
	nextVRegID reg.VRegID
}

// NewFunction returns an empty Function.
func NewFunction(name string) *Function {
	return &Function{Name: name, nextVRegID: reg.VRegIDNonReservedBegin}
}

// NewBlock allocates a block at the end of the layout.
func (f *Function) NewBlock() *Block {
	b := f.allocateBlock()
	f.layout = append(f.layout, b.id)
	return b
}

// NewBlockAfter allocates a block placed right after the given block in the layout.
func (f *Function) NewBlockAfter(after BlockID) *Block {
	b := f.allocateBlock()
	for i, id := range f.layout {
		if id == after {
			f.layout = append(f.layout[:i+1], append([]BlockID{b.id}, f.layout[i+1:]...)...)
			return b
		}
	}
	panic(fmt.Sprintf("BUG: %s is not in the layout", after))
}

func (f *Function) allocateBlock() *Block {
	id, b := f.blocks.Allocate()
	b.id = id
	return b
}

// Block returns the block with the given ID.
func (f *Function) Block(id BlockID) *Block {
	return f.blocks.Get(id)
}

// Layout returns the blocks in layout order.
func (f *Function) Layout() []BlockID {
	return f.layout
}

// AddEdge adds the control flow edge from -> to.
func (f *Function) AddEdge(from, to BlockID) {
	fb, tb := f.Block(from), f.Block(to)
	fb.succs = append(fb.succs, to)
	tb.preds = append(tb.preds, from)
}

// RemoveEdge removes the control flow edge from -> to.
func (f *Function) RemoveEdge(from, to BlockID) {
	fb, tb := f.Block(from), f.Block(to)
	var ok bool
	if fb.succs, ok = removeID(fb.succs, to); !ok {
		panic(fmt.Sprintf("BUG: no edge %s -> %s", from, to))
	}
	tb.preds, _ = removeID(tb.preds, from)
}

func removeID(ids []BlockID, id BlockID) ([]BlockID, bool) {
	for i, x := range ids {
		if x == id {
			return append(ids[:i], ids[i+1:]...), true
		}
	}
	return ids, false
}

// TransferSuccessors moves every successor edge of from to to, and renames from to to in the PHIs of the
// successors.
func (f *Function) TransferSuccessors(from, to BlockID) {
	fb := f.Block(from)
	succs := append([]BlockID(nil), fb.succs...)
	for _, s := range succs {
		f.RemoveEdge(from, s)
		f.AddEdge(to, s)
		for _, instr := range f.Block(s).instrs {
			if !instr.IsPhi() {
				break
			}
			for i, b := range instr.Blocks {
				if b == from {
					instr.Blocks[i] = to
				}
			}
		}
	}
}

// SplitAfter moves the instructions of b after index i into a new block placed after b, which takes over the
// successors of b. b is left without successors.
func (f *Function) SplitAfter(b *Block, i int) *Block {
	rest := append([]*Instr(nil), b.instrs[i+1:]...)
	b.instrs = b.instrs[:i+1]
	nb := f.NewBlockAfter(b.id)
	// NewBlockAfter may have grown the arena, but blocks never move.
	nb.instrs = rest
	f.TransferSuccessors(b.id, nb.id)
	return nb
}

// AllocateVReg returns a new virtual register.
func (f *Function) AllocateVReg(typ reg.RegType) reg.VReg {
	r := reg.FromVRegID(f.nextVRegID, typ)
	f.nextVRegID++
	return r
}

// Format returns the function as text, naming target opcodes with namer.
func (f *Function) Format(namer func(Opcode) string) string {
	var b strings.Builder
	for _, id := range f.layout {
		blk := f.Block(id)
		fmt.Fprintf(&b, "%s: preds=%s succs=%s\n", id, formatIDs(blk.preds), formatIDs(blk.succs))
		for _, instr := range blk.instrs {
			b.WriteByte('\t')
			b.WriteString(instr.Format(namer))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatIDs(ids []BlockID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return "[" + strings.Join(s, " ") + "]"
}
