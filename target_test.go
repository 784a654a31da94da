package nyuzi

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/nyuzi/internal/asmparser"
	asm_nyuzi "github.com/tetratelabs/nyuzi/internal/asm/nyuzi"
	"github.com/tetratelabs/nyuzi/internal/ir"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.Empty(t, r.Targets())

	_, err := r.Lookup("nyuzi")
	require.True(t, errors.Is(err, ErrUnknownTarget))

	require.NoError(t, r.Register(NyuziTarget))
	err = r.Register(NyuziTarget)
	require.True(t, errors.Is(err, ErrDuplicateTarget))
	require.EqualError(t, err, `duplicate target: "nyuzi"`)

	target, err := r.Lookup("nyuzi")
	require.NoError(t, err)
	require.Equal(t, NyuziTarget, target)
	require.Equal(t, []Target{NyuziTarget}, r.Targets())

	require.Panics(t, func() { NewRegistry(NyuziTarget, NyuziTarget) })
	require.Equal(t, []Target{NyuziTarget}, NewDefaultRegistry().Targets())
}

func TestNyuziTarget_NewAsmParser(t *testing.T) {
	tests := []struct {
		name        string
		config      *TargetConfig
		source      string
		expected    string
		expectedErr error
	}{
		{
			name:     "scalar",
			config:   NewTargetConfig().WithCPU("v4"),
			source:   "add_i s1, s2, 3",
			expected: "\tadd_i s1, s2, 3\n",
		},
		{
			name:     "vector",
			config:   NewTargetConfig(),
			source:   "add_i v1, v2, s3",
			expected: "\tadd_i v1, v2, s3\n",
		},
		{
			name:        "vector on scalar cpu",
			config:      NewTargetConfig().WithCPU("v4"),
			source:      "add_i v1, v2, s3",
			expectedErr: asmparser.ErrMissingFeature,
		},
	}
	for _, tt := range tests {
		tc := tt

		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			p, err := NyuziTarget.NewAsmParser(tc.config, asm_nyuzi.NewPrinter(&out))
			require.NoError(t, err)

			err = p.Parse([]byte(tc.source))
			if tc.expectedErr != nil {
				require.True(t, errors.Is(err, tc.expectedErr), err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, out.String())
		})
	}

	t.Run("unknown cpu", func(t *testing.T) {
		_, err := NyuziTarget.NewAsmParser(NewTargetConfig().WithCPU("x86"), asm_nyuzi.NewPrinter(&bytes.Buffer{}))
		require.Error(t, err)
	})
}

func TestNyuziTarget_NewLowering(t *testing.T) {
	// Lowering names the result for callers which keep it.
	var l Lowering
	l, err := NyuziTarget.NewLowering(NewTargetConfig().WithCPU("v4").WithFeatures("+hwdiv"))
	require.NoError(t, err)
	require.True(t, l.IsIntDivCheap(ir.TypeI32))
	require.False(t, l.Subtarget().HasExtendedVector())

	l, err = NyuziTarget.NewLowering(NewTargetConfig().WithRelocationModel(RelocationModelPIC))
	require.NoError(t, err)
	require.False(t, l.IsIntDivCheap(ir.TypeI32))
	require.True(t, l.Subtarget().IsPositionIndependent())

	_, err = NyuziTarget.NewLowering(NewTargetConfig().WithCPU("x86"))
	require.Error(t, err)
}
