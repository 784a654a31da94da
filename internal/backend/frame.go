package backend

import "fmt"

// FrameObject is a stack object of a function.
type FrameObject struct {
	Size, Align int64
	// Offset is the offset from the incoming stack pointer. It is only known in advance for fixed objects.
	Offset int64
	Fixed  bool
}

// FrameInfo describes the stack frame of a function as lowering builds it.
//
// Objects are addressed by frame index: local objects have indices from 0, and fixed objects, which live at known
// offsets in the caller's outgoing argument area, have negative indices from -1.
type FrameInfo struct {
	objects, fixed []FrameObject

	// HasCalls is true if the function calls another.
	HasCalls bool
	// FrameAddressTaken is true if the function reads its frame address.
	FrameAddressTaken bool
	// ReturnAddressTaken is true if the function reads its return address.
	ReturnAddressTaken bool
	// HasVarArgs is true if the function takes variadic arguments, and VarArgsFrameIndex is the fixed object at the
	// first of them.
	HasVarArgs        bool
	VarArgsFrameIndex int
	// MaxCallFrameSize is the largest outgoing argument area of the calls of the function.
	MaxCallFrameSize int64
}

// CreateStackObject adds a local object and returns its frame index.
func (fi *FrameInfo) CreateStackObject(size, align int64) int {
	if align <= 0 || align&(align-1) != 0 {
		panic(fmt.Sprintf("BUG: invalid alignment %d", align))
	}
	fi.objects = append(fi.objects, FrameObject{Size: size, Align: align})
	return len(fi.objects) - 1
}

// CreateFixedObject adds an object at the given offset from the incoming stack pointer and returns its frame
// index.
func (fi *FrameInfo) CreateFixedObject(size, offset int64) int {
	fi.fixed = append(fi.fixed, FrameObject{Size: size, Align: 1, Offset: offset, Fixed: true})
	return -len(fi.fixed)
}

// Object returns the object with the given frame index.
func (fi *FrameInfo) Object(index int) FrameObject {
	if index < 0 {
		return fi.fixed[-index-1]
	}
	return fi.objects[index]
}

// NumObjects returns the number of local objects.
func (fi *FrameInfo) NumObjects() int { return len(fi.objects) }

// NumFixedObjects returns the number of fixed objects.
func (fi *FrameInfo) NumFixedObjects() int { return len(fi.fixed) }

// MaxAlign returns the largest alignment of the local objects, at least 1.
func (fi *FrameInfo) MaxAlign() int64 {
	max := int64(1)
	for _, o := range fi.objects {
		if o.Align > max {
			max = o.Align
		}
	}
	return max
}

// LocalSize returns the size of the local objects laid out in order with their alignment.
func (fi *FrameInfo) LocalSize() int64 {
	var size int64
	for _, o := range fi.objects {
		size = AlignTo(size, o.Align) + o.Size
	}
	return size
}

// AlignTo rounds v up to a multiple of align, which is a power of two.
func AlignTo(v, align int64) int64 {
	return (v + align - 1) &^ (align - 1)
}
