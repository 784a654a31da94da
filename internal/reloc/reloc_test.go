package reloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindFromString(t *testing.T) {
	for _, k := range Kinds() {
		name, err := StringFromKind(k)
		require.NoError(t, err)
		actual, err := KindFromString(name)
		require.NoError(t, err)
		require.Equal(t, k, actual)
		require.Equal(t, name, k.String())
	}
}

func TestIllegalValue(t *testing.T) {
	t.Run("name", func(t *testing.T) {
		for _, name := range []string{"", "R_NYUZI_NONE", "r_nyuzi_branch", "R_VECTORPROC_ABS32"} {
			k, err := KindFromString(name)
			require.True(t, errors.Is(err, ErrIllegalValue), name)
			require.Equal(t, R_NYUZI_NONE, k)
		}
	})
	t.Run("kind", func(t *testing.T) {
		for _, k := range []Kind{R_NYUZI_NONE, R_NYUZI_PCREL_MEM_EXT + 1, 0xffffffff} {
			_, err := StringFromKind(k)
			require.ErrorIs(t, err, ErrIllegalValue)
		}
		_, err := StringFromKind(100)
		require.EqualError(t, err, "illegal value: relocation kind 100")
		require.Equal(t, "Kind(100)", Kind(100).String())
	})
}
