// Package reloc names the relocation kinds recorded by the encoder and consumed by linker-side readers and writers.
package reloc

import (
	"errors"
	"fmt"
)

// Kind is an ELF relocation type of the Nyuzi architecture.
type Kind uint32

const (
	R_NYUZI_NONE Kind = iota
	// R_NYUZI_BRANCH is a 20-bit word offset relative to the next instruction.
	R_NYUZI_BRANCH
	// R_NYUZI_ABS32 is an absolute 32-bit address.
	R_NYUZI_ABS32
	// R_NYUZI_PCREL_MEM is the 15-bit byte offset of a PC relative load or store.
	R_NYUZI_PCREL_MEM
	// R_NYUZI_HI19 is bits 31:13 of an absolute address, for movehi.
	R_NYUZI_HI19
	// R_NYUZI_LO13 is bits 12:0 of an absolute address, for an immediate arithmetic instruction.
	R_NYUZI_LO13
	// R_NYUZI_PCREL_MEM_EXT is the 10-bit byte offset of a PC relative masked or block load or store, at bit 15.
	R_NYUZI_PCREL_MEM_EXT
)

// ErrIllegalValue is returned when a name or a kind has no mapping.
var ErrIllegalValue = errors.New("illegal value")

var kindNames = map[Kind]string{
	R_NYUZI_BRANCH:        "R_NYUZI_BRANCH",
	R_NYUZI_ABS32:         "R_NYUZI_ABS32",
	R_NYUZI_PCREL_MEM:     "R_NYUZI_PCREL_MEM",
	R_NYUZI_HI19:          "R_NYUZI_HI19",
	R_NYUZI_LO13:          "R_NYUZI_LO13",
	R_NYUZI_PCREL_MEM_EXT: "R_NYUZI_PCREL_MEM_EXT",
}

var kindsByName = func() map[string]Kind {
	ret := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		ret[name] = k
	}
	return ret
}()

// KindFromString returns the Kind named str, or ErrIllegalValue.
func KindFromString(str string) (Kind, error) {
	if k, ok := kindsByName[str]; ok {
		return k, nil
	}
	return R_NYUZI_NONE, fmt.Errorf("%w: relocation %q", ErrIllegalValue, str)
}

// StringFromKind returns the name of k, or ErrIllegalValue.
func StringFromKind(k Kind) (string, error) {
	if name, ok := kindNames[k]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: relocation kind %d", ErrIllegalValue, uint32(k))
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint32(k))
}

// Kinds returns every named kind in numeric order.
func Kinds() []Kind {
	return []Kind{R_NYUZI_BRANCH, R_NYUZI_ABS32, R_NYUZI_PCREL_MEM, R_NYUZI_HI19, R_NYUZI_LO13, R_NYUZI_PCREL_MEM_EXT}
}
