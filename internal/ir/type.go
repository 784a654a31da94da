package ir

import "fmt"

// Type is the value type of a node result.
type Type byte

const (
	TypeInvalid Type = iota
	TypeI1
	TypeI8
	TypeI16
	TypeI32
	TypeF32
	TypeV16I1
	TypeV16I32
	TypeV16F32
	TypeV32I1
	TypeV32I32
	TypeV32F32
	// TypeOther is the type of chain results, which order side effects.
	TypeOther
	// TypeGlue ties two nodes together so nothing is scheduled between them.
	TypeGlue
	typeEnd
)

type typeInfo struct {
	name  string
	elem  Type
	lanes int
	bits  int
}

var typeInfos = [typeEnd]typeInfo{
	TypeInvalid: {name: "invalid"},
	TypeI1:      {name: "i1", elem: TypeI1, lanes: 1, bits: 1},
	TypeI8:      {name: "i8", elem: TypeI8, lanes: 1, bits: 8},
	TypeI16:     {name: "i16", elem: TypeI16, lanes: 1, bits: 16},
	TypeI32:     {name: "i32", elem: TypeI32, lanes: 1, bits: 32},
	TypeF32:     {name: "f32", elem: TypeF32, lanes: 1, bits: 32},
	TypeV16I1:   {name: "v16i1", elem: TypeI1, lanes: 16, bits: 16},
	TypeV16I32:  {name: "v16i32", elem: TypeI32, lanes: 16, bits: 512},
	TypeV16F32:  {name: "v16f32", elem: TypeF32, lanes: 16, bits: 512},
	TypeV32I1:   {name: "v32i1", elem: TypeI1, lanes: 32, bits: 32},
	TypeV32I32:  {name: "v32i32", elem: TypeI32, lanes: 32, bits: 1024},
	TypeV32F32:  {name: "v32f32", elem: TypeF32, lanes: 32, bits: 1024},
	TypeOther:   {name: "ch"},
	TypeGlue:    {name: "glue"},
}

// String implements fmt.Stringer.
func (t Type) String() string {
	if t >= typeEnd {
		return fmt.Sprintf("Type(%d)", t)
	}
	return typeInfos[t].name
}

// IsValue returns true unless t is invalid, a chain or glue.
func (t Type) IsValue() bool {
	return t > TypeInvalid && t < TypeOther
}

// IsVector returns true for the vector types.
func (t Type) IsVector() bool {
	return t.Lanes() > 1
}

// Lanes returns the number of elements of a vector type, and 1 for a scalar type.
func (t Type) Lanes() int {
	return typeInfos[t].lanes
}

// Elem returns the element type of a vector type, and t itself for a scalar type.
func (t Type) Elem() Type {
	return typeInfos[t].elem
}

// Bits returns the size of t in bits.
func (t Type) Bits() int {
	return typeInfos[t].bits
}

// IsInt returns true for integer and integer vector types.
func (t Type) IsInt() bool {
	switch t.Elem() {
	case TypeI1, TypeI8, TypeI16, TypeI32:
		return true
	}
	return false
}

// IsFloat returns true for floating point and floating point vector types.
func (t Type) IsFloat() bool {
	return t.Elem() == TypeF32
}

// VectorOf returns the vector type with the given element type and lane count.
func VectorOf(elem Type, lanes int) (Type, bool) {
	for t := TypeV16I1; t <= TypeV32F32; t++ {
		if typeInfos[t].elem == elem && typeInfos[t].lanes == lanes {
			return t, true
		}
	}
	return TypeInvalid, false
}

// MustVectorOf is like VectorOf, but panics if there is no such type.
func MustVectorOf(elem Type, lanes int) Type {
	t, ok := VectorOf(elem, lanes)
	if !ok {
		panic(fmt.Sprintf("BUG: no vector of %d %s", lanes, elem))
	}
	return t
}

// WithElem returns the type with the shape of t and the given element type.
func (t Type) WithElem(elem Type) Type {
	if !t.IsVector() {
		return elem
	}
	return MustVectorOf(elem, t.Lanes())
}
