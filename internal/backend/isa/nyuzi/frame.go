package nyuzi

import "github.com/tetratelabs/nyuzi/internal/backend"

// Frame layout facts. The stack grows down, and is kept aligned to the vector width so vector spills need no
// realignment.
const (
	StackAlignment          = 64
	TransientStackAlignment = 64
	LocalAreaOffset         = 0
	StackGrowsDown          = true
)

// savedRegsSize is the size of the frame pointer and return address saved by the prologue.
const savedRegsSize = 8

// maxReservedCallFrameSize is the largest outgoing argument area addressed from sp by a 15-bit memory offset.
const maxReservedCallFrameSize = 1<<14 - 1

// HasFP returns true if fn needs a frame pointer.
func HasFP(fn *backend.Function) bool {
	return fn.Frame.FrameAddressTaken || fn.Frame.HasVarArgs
}

// HasReservedCallFrame returns true if the outgoing argument area is allocated once in the prologue rather than
// around each call.
func HasReservedCallFrame(fn *backend.Function) bool {
	return fn.Frame.MaxCallFrameSize <= maxReservedCallFrameSize
}

// EstimateStackSize returns the size of the frame of fn before register allocation: the local objects, the saved
// registers of a function which calls or has a frame pointer, and the reserved call frame.
func EstimateStackSize(fn *backend.Function) int64 {
	f := &fn.Frame
	size := f.LocalSize()
	if f.HasCalls || HasFP(fn) {
		size = backend.AlignTo(size, 4) + savedRegsSize
	}
	if f.HasCalls && HasReservedCallFrame(fn) {
		size += f.MaxCallFrameSize
	}
	align := f.MaxAlign()
	if align < StackAlignment {
		align = StackAlignment
	}
	return backend.AlignTo(size, align)
}
