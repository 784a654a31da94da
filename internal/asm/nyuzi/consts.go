package asm_nyuzi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tetratelabs/nyuzi/internal/asm"
)

// Nyuzi-specific registers.
//
// Scalar registers come first so that a register is a vector register iff it is at or above REG_V0.
const (
	// Scalar registers.
	REG_S0 asm.Register = asm.NilRegister + 1 + iota
	REG_S1
	REG_S2
	REG_S3
	REG_S4
	REG_S5
	REG_S6
	REG_S7
	REG_S8
	REG_S9
	REG_S10
	REG_S11
	REG_S12
	REG_S13
	REG_S14
	REG_S15
	REG_S16
	REG_S17
	REG_S18
	REG_S19
	REG_S20
	REG_S21
	REG_S22
	REG_S23
	REG_S24
	REG_S25
	REG_S26
	REG_S27
	REG_S28
	REG_S29
	REG_S30
	REG_S31

	// Vector registers.

	REG_V0
	REG_V1
	REG_V2
	REG_V3
	REG_V4
	REG_V5
	REG_V6
	REG_V7
	REG_V8
	REG_V9
	REG_V10
	REG_V11
	REG_V12
	REG_V13
	REG_V14
	REG_V15
	REG_V16
	REG_V17
	REG_V18
	REG_V19
	REG_V20
	REG_V21
	REG_V22
	REG_V23
	REG_V24
	REG_V25
	REG_V26
	REG_V27
	REG_V28
	REG_V29
	REG_V30
	REG_V31
)

// Scalar registers with a fixed role.
const (
	REG_FP = REG_S28
	REG_SP = REG_S29
	REG_RA = REG_S30
	REG_PC = REG_S31
)

var registerAliases = map[string]asm.Register{
	"fp": REG_FP,
	"sp": REG_SP,
	"ra": REG_RA,
	"pc": REG_PC,
}

// IsScalarRegister returns true if reg is one of s0 to s31.
func IsScalarRegister(reg asm.Register) bool {
	return reg >= REG_S0 && reg <= REG_S31
}

// IsVectorRegister returns true if reg is one of v0 to v31.
func IsVectorRegister(reg asm.Register) bool {
	return reg >= REG_V0 && reg <= REG_V31
}

// RegisterIndex returns the 5-bit number of reg in its register file.
func RegisterIndex(reg asm.Register) uint32 {
	switch {
	case IsScalarRegister(reg):
		return uint32(reg - REG_S0)
	case IsVectorRegister(reg):
		return uint32(reg - REG_V0)
	}
	panic(fmt.Sprintf("BUG: invalid register %d", reg))
}

// RegisterName returns the assembly name of reg.
func RegisterName(reg asm.Register) string {
	switch reg {
	case REG_FP:
		return "fp"
	case REG_SP:
		return "sp"
	case REG_RA:
		return "ra"
	case REG_PC:
		return "pc"
	}
	switch {
	case IsScalarRegister(reg):
		return "s" + strconv.Itoa(int(reg-REG_S0))
	case IsVectorRegister(reg):
		return "v" + strconv.Itoa(int(reg-REG_V0))
	}
	return "nil"
}

// MatchRegisterName resolves a register name, returning asm.NilRegister if name is not a register.
func MatchRegisterName(name string) asm.Register {
	if reg, ok := registerAliases[name]; ok {
		return reg
	}
	if len(name) < 2 || len(name) > 3 {
		return asm.NilRegister
	}
	var base asm.Register
	switch name[0] {
	case 's':
		base = REG_S0
	case 'v':
		base = REG_V0
	default:
		return asm.NilRegister
	}
	digits := name[1:]
	if (len(digits) > 1 && digits[0] == '0') || strings.ContainsAny(digits, "+-") {
		return asm.NilRegister
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n > 31 {
		return asm.NilRegister
	}
	return base + asm.Register(n)
}
