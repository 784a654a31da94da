package subtarget

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_defaults(t *testing.T) {
	for _, tc := range []struct {
		cpu                   string
		arch                  Arch
		memOps, vector, bsb   bool
		expectedFeatureString string
	}{
		{cpu: "v4", arch: V4, expectedFeatureString: "none"},
		{cpu: "v5", arch: V5, memOps: true, expectedFeatureString: "memops|v5"},
		{cpu: "v55", arch: V55, memOps: true, expectedFeatureString: "memops|v5|v55"},
		{cpu: "v60", arch: V60, memOps: true, vector: true, bsb: true, expectedFeatureString: "memops|hvx|bsb|v5|v55|v60"},
		{cpu: "", arch: V60, memOps: true, vector: true, bsb: true, expectedFeatureString: "memops|hvx|bsb|v5|v55|v60"},
		{cpu: "V55", arch: V55, memOps: true, expectedFeatureString: "memops|v5|v55"},
	} {
		tc := tc
		t.Run(tc.cpu, func(t *testing.T) {
			s, err := New(tc.cpu, "")
			require.NoError(t, err)
			require.Equal(t, tc.arch, s.Arch())
			require.Equal(t, tc.memOps, s.UsesMemOps())
			require.Equal(t, tc.vector, s.HasExtendedVector())
			require.Equal(t, tc.bsb, s.UsesBackSkipBackScheduling())
			require.Equal(t, tc.expectedFeatureString, s.FeatureBits().String())
			require.Equal(t, uint32(8), s.SmallDataThreshold())
			require.Equal(t, 4, s.Slots())
		})
	}
}

func TestNew_unknownCPU(t *testing.T) {
	_, err := New("v99", "")
	require.True(t, errors.Is(err, ErrUnknownCPU))
	require.EqualError(t, err, `unknown CPU: "v99"`)
	require.Panics(t, func() { MustNew("v99", "") })
}

func TestNew_featureString(t *testing.T) {
	for _, tc := range []struct {
		name, cpu, fs string
		check         func(t *testing.T, s *Subtarget)
	}{
		{
			name: "disable memops", cpu: "v5", fs: "-memops",
			check: func(t *testing.T, s *Subtarget) { require.False(t, s.UsesMemOps()) },
		},
		{
			name: "enable vector on v4", cpu: "v4", fs: "+hvx",
			check: func(t *testing.T, s *Subtarget) {
				require.True(t, s.UsesExtendedVectorSingle())
				require.Equal(t, 16, s.VectorLanes())
			},
		},
		{
			name: "double", cpu: "v60", fs: "+hvx-double",
			check: func(t *testing.T, s *Subtarget) {
				require.True(t, s.UsesExtendedVectorDouble())
				require.False(t, s.UsesExtendedVectorSingle())
				require.Equal(t, 32, s.VectorLanes())
			},
		},
		{
			name: "unknown tokens are ignored", cpu: "v4", fs: "+bogus,,-nope, +hwdiv ",
			check: func(t *testing.T, s *Subtarget) {
				require.True(t, s.HasHardwareDivide())
				require.Equal(t, "hwdiv", s.FeatureBits().String())
			},
		},
		{
			name: "arch tokens only raise", cpu: "v55", fs: "+v5,+v60,-v60",
			check: func(t *testing.T, s *Subtarget) { require.Equal(t, V60, s.Arch()) },
		},
		{
			name: "bare names enable", cpu: "v4", fs: "pic,ieee-rnd-near",
			check: func(t *testing.T, s *Subtarget) {
				require.True(t, s.IsPositionIndependent())
				require.True(t, s.ModeIEEERoundNear())
			},
		},
		{
			name: "later tokens win", cpu: "v4", fs: "+pic,-pic",
			check: func(t *testing.T, s *Subtarget) { require.False(t, s.IsPositionIndependent()) },
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(tc.cpu, tc.fs)
			require.NoError(t, err)
			tc.check(t, s)
		})
	}
}

func TestSubtarget_HasVersionAtLeast(t *testing.T) {
	all := []Arch{V4, V5, V55, V60}
	for _, own := range all {
		s := MustNew(own.String(), "")
		for _, v := range all {
			require.Equal(t, v <= own, s.HasVersionAtLeast(v), "%s >= %s", own, v)
			require.Equal(t, v == own, s.HasVersionOnly(v), "%s == %s", own, v)
		}
	}
}

func TestSubtarget_doubleVectorRequiresVectorUnit(t *testing.T) {
	for _, fs := range []string{"+hvx-double", "+hvx-double,-hvx", "-hvx,+hvx-double"} {
		s := MustNew("v4", fs)
		require.False(t, s.UsesExtendedVectorDouble(), fs)
		require.False(t, s.UsesExtendedVectorSingle(), fs)
		require.Zero(t, s.VectorLanes(), fs)
		require.False(t, s.FeatureBits().Has(FeatureHVXDouble), fs)
	}
}

func TestSubtarget_String(t *testing.T) {
	s := MustNew("v5", "+hwdiv")
	require.Equal(t, "cpu=v5 arch=v5 features=memops|hwdiv|v5", s.String())
	require.Equal(t, "Arch(9)", Arch(9).String())
}

func TestCPUs(t *testing.T) {
	require.Equal(t, []string{"generic", "v4", "v5", "v55", "v60"}, CPUs())
}
