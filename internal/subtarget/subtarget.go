// Package subtarget describes the per-CPU facts of a Nyuzi target: architecture version, vector unit availability
// and scheduling mode. A Subtarget is immutable once constructed and is safe to share between concurrent compilations.
package subtarget

import (
	"errors"
	"fmt"
	"strings"
)

// Arch is the architecture version. Versions are ordered, so a newer version implies every older one.
type Arch byte

const (
	V4 Arch = iota
	V5
	V55
	V60
)

var archNames = [...]string{V4: "v4", V5: "v5", V55: "v55", V60: "v60"}

// String implements fmt.Stringer.
func (a Arch) String() string {
	if int(a) < len(archNames) {
		return archNames[a]
	}
	return fmt.Sprintf("Arch(%d)", a)
}

const (
	// smallDataThreshold is the largest object size in bytes placed in the small data section.
	smallDataThreshold = 8
	// slots is the number of instructions issued per packet.
	slots = 4
	// vectorLanesSingle is the lane count of a 32-bit element vector in single-width mode.
	vectorLanesSingle = 16
)

// ErrUnknownCPU is returned by New when the CPU name has no entry in the processor table.
var ErrUnknownCPU = errors.New("unknown CPU")

// Subtarget holds the facts derived from a CPU name and a feature string.
//
// Note: fields are unexported so that the only way to obtain different facts is constructing a new Subtarget.
type Subtarget struct {
	cpu      string
	arch     Arch
	features FeatureBits
}

// New initializes a Subtarget from the CPU name and a feature string such as "+hvx,-memops".
//
// An empty cpu selects the generic processor. Unrecognized feature tokens are ignored.
func New(cpu, features string) (*Subtarget, error) {
	if cpu == "" {
		cpu = GenericCPU
	}
	proc, ok := lookupProcessor(cpu)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCPU, cpu)
	}
	s := &Subtarget{cpu: proc.name, arch: proc.arch, features: proc.features}
	s.applyFeatureString(features)
	return s, nil
}

// MustNew is like New, but panics on error. This is intended for tests and static initialization.
func MustNew(cpu, features string) *Subtarget {
	s, err := New(cpu, features)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Subtarget) applyFeatureString(fs string) {
	for _, tok := range strings.Split(fs, ",") {
		tok = strings.TrimSpace(strings.ToLower(tok))
		if tok == "" {
			continue
		}
		enable := true
		switch tok[0] {
		case '+':
			tok = tok[1:]
		case '-':
			enable = false
			tok = tok[1:]
		}
		if arch, ok := archFromName(tok); ok {
			// Architecture tokens imply every older version, and disabling one is meaningless.
			if enable && arch > s.arch {
				s.arch = arch
			}
			continue
		}
		f, ok := featureFromName(tok)
		if !ok {
			continue
		}
		if enable {
			s.features |= f
		} else {
			s.features &^= f
		}
	}
}

// CPU returns the processor name this Subtarget was initialized with.
func (s *Subtarget) CPU() string { return s.cpu }

// Arch returns the architecture version.
func (s *Subtarget) Arch() Arch { return s.arch }

// HasVersionAtLeast returns true when the architecture version is v or newer.
func (s *Subtarget) HasVersionAtLeast(v Arch) bool { return s.arch >= v }

// HasVersionOnly returns true when the architecture version is exactly v.
func (s *Subtarget) HasVersionOnly(v Arch) bool { return s.arch == v }

// UsesMemOps returns true when memory-operand arithmetic may be emitted.
func (s *Subtarget) UsesMemOps() bool { return s.has(FeatureMemOps) }

// HasExtendedVector returns true when the extended vector unit is present, regardless of width.
func (s *Subtarget) HasExtendedVector() bool { return s.has(FeatureHVX) }

// UsesExtendedVectorSingle returns true when the vector unit is present in single-width mode.
func (s *Subtarget) UsesExtendedVectorSingle() bool {
	return s.has(FeatureHVX) && !s.has(FeatureHVXDouble)
}

// UsesExtendedVectorDouble returns true when the vector unit is present in double-width mode.
//
// The double-width flag alone is meaningless without the vector unit.
func (s *Subtarget) UsesExtendedVectorDouble() bool {
	return s.has(FeatureHVX) && s.has(FeatureHVXDouble)
}

// VectorLanes returns the number of 32-bit lanes of a vector register, or zero without a vector unit.
func (s *Subtarget) VectorLanes() int {
	switch {
	case s.UsesExtendedVectorDouble():
		return 2 * vectorLanesSingle
	case s.UsesExtendedVectorSingle():
		return vectorLanesSingle
	default:
		return 0
	}
}

// ModeIEEERoundNear returns true when floating point rounding must be IEEE round-to-nearest.
func (s *Subtarget) ModeIEEERoundNear() bool { return s.has(FeatureIEEERndNear) }

// UsesBackSkipBackScheduling returns true when back-skip-back scheduling is enabled.
func (s *Subtarget) UsesBackSkipBackScheduling() bool { return s.has(FeatureBSB) }

// HasHardwareDivide returns true when integer division is implemented in hardware.
func (s *Subtarget) HasHardwareDivide() bool { return s.has(FeatureHWDiv) }

// IsPositionIndependent returns true when code must be generated position independent.
func (s *Subtarget) IsPositionIndependent() bool { return s.has(FeaturePIC) }

// SmallDataThreshold returns the largest size in bytes of an object placed in the small data section.
func (s *Subtarget) SmallDataThreshold() uint32 { return smallDataThreshold }

// Slots returns the number of instructions in an issue packet.
func (s *Subtarget) Slots() int { return slots }

// FeatureBits returns the feature set used to gate instructions, including the implied architecture bits.
func (s *Subtarget) FeatureBits() FeatureBits {
	bits := s.features
	if s.arch >= V5 {
		bits |= FeatureV5
	}
	if s.arch >= V55 {
		bits |= FeatureV55
	}
	if s.arch >= V60 {
		bits |= FeatureV60
	}
	// Same rule as UsesExtendedVectorDouble.
	if !s.has(FeatureHVX) {
		bits &^= FeatureHVXDouble
	}
	return bits
}

func (s *Subtarget) has(f FeatureBits) bool { return s.features&f != 0 }

// String implements fmt.Stringer.
func (s *Subtarget) String() string {
	return fmt.Sprintf("cpu=%s arch=%s features=%s", s.cpu, s.arch, s.FeatureBits())
}
