// Package reg defines the registers shared by the IR and the machine backend.
package reg

import "fmt"

// VReg represents a register which holds a value. A VReg may or may not be a physical register, and the info of
// the physical register can be obtained by RealReg.
//
// The lower 32 bits are the ID, the next 8 bits the RealReg, and the next 8 bits the RegType.
type VReg uint64

// VRegID is the lower 32bit of VReg, which is the pure identifier of VReg without RealReg info.
type VRegID uint32

// RealReg numbers the physical registers: 1-32 are the scalar registers s0-s31 and 33-64 the vector registers
// v0-v31.
type RealReg byte

const (
	RealRegInvalid RealReg = 0

	realRegScalarBegin RealReg = 1
	realRegVectorBegin RealReg = 33
	realRegEnd         RealReg = 65
)

const (
	vRegIDInvalid VRegID = 1 << 31
	// VRegIDNonReservedBegin is the first ID of virtual registers. IDs below it are the physical registers.
	VRegIDNonReservedBegin          = vRegIDReservedForRealNum
	vRegIDReservedForRealNum VRegID = 128
	VRegInvalid                     = VReg(vRegIDInvalid)
)

// ScalarReg returns the RealReg of the scalar register s<i>.
func ScalarReg(i int) RealReg {
	if i < 0 || i >= 32 {
		panic(fmt.Sprintf("BUG: invalid scalar register %d", i))
	}
	return realRegScalarBegin + RealReg(i)
}

// VectorReg returns the RealReg of the vector register v<i>.
func VectorReg(i int) RealReg {
	if i < 0 || i >= 32 {
		panic(fmt.Sprintf("BUG: invalid vector register %d", i))
	}
	return realRegVectorBegin + RealReg(i)
}

// Index returns the register number of r within its register file.
func (r RealReg) Index() int {
	if r >= realRegVectorBegin {
		return int(r - realRegVectorBegin)
	}
	return int(r - realRegScalarBegin)
}

// RegType returns the register file of r.
func (r RealReg) RegType() RegType {
	switch {
	case r == RealRegInvalid || r >= realRegEnd:
		return RegTypeInvalid
	case r >= realRegVectorBegin:
		return RegTypeVector
	default:
		return RegTypeScalar
	}
}

// String implements fmt.Stringer.
func (r RealReg) String() string {
	switch r.RegType() {
	case RegTypeScalar:
		return fmt.Sprintf("s%d", r.Index())
	case RegTypeVector:
		return fmt.Sprintf("v%d", r.Index())
	}
	return "invalid"
}

// RealReg returns the RealReg of this VReg.
func (v VReg) RealReg() RealReg {
	return RealReg(v >> 32)
}

// IsRealReg returns true if this VReg is backed by a physical register.
func (v VReg) IsRealReg() bool {
	return v.RealReg() != RealRegInvalid
}

// FromRealReg returns the pre-colored VReg of the given RealReg.
func FromRealReg(r RealReg) VReg {
	typ := r.RegType()
	if typ == RegTypeInvalid {
		panic(fmt.Sprintf("invalid real reg %d", r))
	}
	return VReg(r).SetRealReg(r).SetRegType(typ)
}

// FromVRegID returns the virtual register with the given ID and type.
func FromVRegID(id VRegID, typ RegType) VReg {
	return VReg(id).SetRegType(typ)
}

// SetRealReg sets the RealReg of this VReg and returns the updated VReg.
func (v VReg) SetRealReg(r RealReg) VReg {
	return VReg(r)<<32 | (v & 0xff_00_ffffffff)
}

// RegType returns the RegType of this VReg.
func (v VReg) RegType() RegType {
	return RegType(v >> 40)
}

// SetRegType sets the RegType of this VReg and returns the updated VReg.
func (v VReg) SetRegType(t RegType) VReg {
	return VReg(t)<<40 | (v & 0x00_ff_ffffffff)
}

// ID returns the VRegID of this VReg.
func (v VReg) ID() VRegID {
	return VRegID(v & 0xffffffff)
}

// Valid returns true if this VReg is Valid.
func (v VReg) Valid() bool {
	return v.ID() != vRegIDInvalid && v.RegType() != RegTypeInvalid
}

// String implements fmt.Stringer.
func (v VReg) String() string {
	if v.IsRealReg() {
		return v.RealReg().String()
	}
	return fmt.Sprintf("v%d?%s", v.ID(), v.RegType())
}

// RegType represents the register file of a register.
type RegType byte

const (
	RegTypeInvalid RegType = iota
	RegTypeScalar
	RegTypeVector
	NumRegType
)

// String implements fmt.Stringer.
func (r RegType) String() string {
	switch r {
	case RegTypeScalar:
		return "scalar"
	case RegTypeVector:
		return "vector"
	default:
		return "invalid"
	}
}
