// Package pool provides the arenas backing the compiler's graphs. Items are addressed by a typed index, so graphs
// refer to them by small integer IDs instead of pointers, and a whole graph is released at once.
package pool

import "fmt"

// chunkSize is the number of items per chunk. Chunks are never reallocated, so item pointers stay valid until Reset.
const chunkSize = 128

// Arena holds items of type T, numbered by ID in allocation order. The zero value is an empty Arena.
type Arena[ID ~uint32, T any] struct {
	chunks [][]T
	n      int
}

// Len returns the number of items allocated since the last Reset, which is also the next ID.
func (a *Arena[ID, T]) Len() int { return a.n }

// Allocate returns the ID of a new zero item and a pointer to it.
func (a *Arena[ID, T]) Allocate() (ID, *T) {
	c, i := a.n/chunkSize, a.n%chunkSize
	if c == len(a.chunks) {
		a.chunks = append(a.chunks, make([]T, chunkSize))
	}
	id := ID(a.n)
	a.n++
	return id, &a.chunks[c][i]
}

// Get returns the item with the given ID.
func (a *Arena[ID, T]) Get(id ID) *T {
	if int(id) >= a.n {
		panic(fmt.Sprintf("BUG: ID %d out of range, %d allocated", id, a.n))
	}
	return &a.chunks[int(id)/chunkSize][int(id)%chunkSize]
}

// Reset releases every item. The chunks in use are zeroed and kept for reuse.
func (a *Arena[ID, T]) Reset() {
	for _, c := range a.chunks[:(a.n+chunkSize-1)/chunkSize] {
		clear(c)
	}
	a.n = 0
}
