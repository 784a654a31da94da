package asm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/nyuzi/internal/asm"
)

func TestSectionZeroValue(t *testing.T) {
	var s asm.Section
	require.Equal(t, 0, s.Len())
	require.Equal(t, ([]byte)(nil), s.Bytes())
	require.Nil(t, s.Fixups())
}

func TestSectionWrite(t *testing.T) {
	s := asm.NewSection(".text")
	require.NoError(t, s.WriteByte(0xff))
	s.WriteUint16(0x0201)
	n, err := s.Write([]byte{3})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	s.WriteUint32(0x07060504)
	require.Equal(t, []byte{0xff, 1, 2, 3, 4, 5, 6, 7}, s.Bytes())
	require.Equal(t, uint32(0x07060504), s.Uint32At(4))

	s.PutUint32At(4, 0xdeadbeef)
	require.Equal(t, uint32(0xdeadbeef), s.Uint32At(4))

	s.Reset()
	require.Equal(t, 0, s.Len())
}

func TestSectionAlign(t *testing.T) {
	for _, tc := range []struct {
		name     string
		written  int
		align    int
		expLen   int
		expError string
	}{
		{name: "aligned", written: 8, align: 4, expLen: 8},
		{name: "pad", written: 5, align: 4, expLen: 8},
		{name: "large", written: 1, align: 128, expLen: 128},
		{name: "one", written: 3, align: 1, expLen: 3},
		{name: "not power of two", written: 3, align: 3, expError: "alignment must be a power of two: 3"},
		{name: "zero", written: 3, align: 0, expError: "alignment must be a power of two: 0"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var s asm.Section
			_, _ = s.Write(make([]byte, tc.written))
			err := s.Align(tc.align)
			if tc.expError != "" {
				require.EqualError(t, err, tc.expError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expLen, s.Len())
		})
	}
}

func TestSectionFixups(t *testing.T) {
	var s asm.Section
	s.AddFixup(asm.Fixup{Offset: 4, Value: asm.Symbol("foo"), Kind: 1})
	require.Equal(t, []asm.Fixup{{Offset: 4, Value: asm.Symbol("foo"), Kind: 1}}, s.Fixups())
	s.SetFixups(nil)
	require.Empty(t, s.Fixups())
}
