package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type itemID uint32

func TestArena(t *testing.T) {
	var a Arena[itemID, int]
	var ptrs []*int
	for i := 0; i < chunkSize*2+5; i++ {
		id, v := a.Allocate()
		require.Equal(t, itemID(i), id)
		require.Equal(t, 0, *v)
		*v = i
		ptrs = append(ptrs, v)
	}
	require.Equal(t, chunkSize*2+5, a.Len())
	for i, ptr := range ptrs {
		require.Same(t, ptr, a.Get(itemID(i)))
		require.Equal(t, i, *a.Get(itemID(i)))
	}
	require.Panics(t, func() { a.Get(chunkSize*2 + 5) })

	a.Reset()
	require.Equal(t, 0, a.Len())
	require.Panics(t, func() { a.Get(0) })
	// Chunks are reused and zeroed.
	id, v := a.Allocate()
	require.Equal(t, itemID(0), id)
	require.Equal(t, 0, *v)
	require.Same(t, ptrs[0], v)
	require.Len(t, a.chunks, 3)
}

func TestArena_ResetEmpty(t *testing.T) {
	var a Arena[itemID, string]
	a.Reset()
	require.Equal(t, 0, a.Len())
}
