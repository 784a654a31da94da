// Package backend is the machine level IR: functions made of blocks with explicit successor lists, holding target
// instructions over virtual registers. Custom inserters of a target rewrite it when an instruction expands into
// control flow.
package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tetratelabs/nyuzi/internal/backend/reg"
)

// Opcode is a target instruction opcode.
type Opcode uint16

// OpcodePhi merges values at the start of a block: Uses[i] is the value incoming from Blocks[i].
const OpcodePhi Opcode = 0xffff

// Instr is a machine instruction.
type Instr struct {
	Opcode Opcode
	Defs   []reg.VReg
	Uses   []reg.VReg
	Imms   []int64
	// Blocks are the branch targets, or the incoming blocks of a PHI.
	Blocks []BlockID
}

// NewPhi returns a PHI defining dst.
func NewPhi(dst reg.VReg, incoming ...PhiIncoming) *Instr {
	i := &Instr{Opcode: OpcodePhi, Defs: []reg.VReg{dst}}
	for _, in := range incoming {
		i.Uses = append(i.Uses, in.Value)
		i.Blocks = append(i.Blocks, in.Block)
	}
	return i
}

// PhiIncoming is one incoming value of a PHI.
type PhiIncoming struct {
	Value reg.VReg
	Block BlockID
}

// IsPhi returns true for PHI instructions.
func (i *Instr) IsPhi() bool { return i.Opcode == OpcodePhi }

// Format returns the instruction as text, naming its opcode with namer.
func (i *Instr) Format(namer func(Opcode) string) string {
	var b strings.Builder
	for j, d := range i.Defs {
		if j > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.String())
	}
	if len(i.Defs) > 0 {
		b.WriteString(" = ")
	}
	if i.IsPhi() {
		b.WriteString("phi")
		for j, u := range i.Uses {
			if j > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, " [%s, %s]", u, i.Blocks[j])
		}
		return b.String()
	}

	b.WriteString(namer(i.Opcode))
	var ops []string
	for _, u := range i.Uses {
		ops = append(ops, u.String())
	}
	for _, imm := range i.Imms {
		ops = append(ops, "#"+strconv.FormatInt(imm, 10))
	}
	for _, blk := range i.Blocks {
		ops = append(ops, blk.String())
	}
	if len(ops) > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Join(ops, ", "))
	}
	return b.String()
}
