package subtarget

import "strings"

// FeatureBits is a bit set of subtarget capabilities. The assembly matcher gates instructions on these bits.
type FeatureBits uint32

const (
	// FeatureMemOps enables memory-operand arithmetic (memadd and friends).
	FeatureMemOps FeatureBits = 1 << iota
	// FeatureHVX enables the extended vector unit.
	FeatureHVX
	// FeatureHVXDouble selects the double-width vector variant. Only meaningful with FeatureHVX.
	FeatureHVXDouble
	// FeatureIEEERndNear forces IEEE round-to-nearest.
	FeatureIEEERndNear
	// FeatureBSB enables back-skip-back scheduling.
	FeatureBSB
	// FeatureHWDiv enables the hardware integer divider.
	FeatureHWDiv
	// FeaturePIC requests position independent code.
	FeaturePIC
	// FeatureV5 and the following are implied by the architecture version and cannot be set from a feature string.
	FeatureV5
	FeatureV55
	FeatureV60
)

// featureNames is the feature-string spelling of each settable bit.
var featureNames = []struct {
	name string
	bit  FeatureBits
}{
	{"memops", FeatureMemOps},
	{"hvx", FeatureHVX},
	{"hvx-double", FeatureHVXDouble},
	{"ieee-rnd-near", FeatureIEEERndNear},
	{"bsb", FeatureBSB},
	{"hwdiv", FeatureHWDiv},
	{"pic", FeaturePIC},
}

var impliedNames = []struct {
	name string
	bit  FeatureBits
}{
	{"v5", FeatureV5},
	{"v55", FeatureV55},
	{"v60", FeatureV60},
}

func featureFromName(name string) (FeatureBits, bool) {
	for _, f := range featureNames {
		if f.name == name {
			return f.bit, true
		}
	}
	return 0, false
}

func archFromName(name string) (Arch, bool) {
	for a, n := range archNames {
		if n == name {
			return Arch(a), true
		}
	}
	return 0, false
}

// Has returns true if every bit in f is set.
func (b FeatureBits) Has(f FeatureBits) bool { return b&f == f }

// String implements fmt.Stringer, e.g. "memops|hvx|v5".
func (b FeatureBits) String() string {
	var names []string
	for _, f := range featureNames {
		if b&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	for _, f := range impliedNames {
		if b&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// GenericCPU is the processor selected by an empty CPU name.
const GenericCPU = "generic"

type processor struct {
	name     string
	arch     Arch
	features FeatureBits
}

// processors holds the CPU dependent defaults.
var processors = []processor{
	{name: GenericCPU, arch: V60, features: FeatureMemOps | FeatureHVX | FeatureBSB},
	{name: "v4", arch: V4},
	{name: "v5", arch: V5, features: FeatureMemOps},
	{name: "v55", arch: V55, features: FeatureMemOps},
	{name: "v60", arch: V60, features: FeatureMemOps | FeatureHVX | FeatureBSB},
}

func lookupProcessor(name string) (processor, bool) {
	name = strings.ToLower(name)
	for _, p := range processors {
		if p.name == name {
			return p, true
		}
	}
	return processor{}, false
}

// CPUs returns the names of the known processors.
func CPUs() []string {
	ret := make([]string, len(processors))
	for i, p := range processors {
		ret[i] = p.name
	}
	return ret
}
