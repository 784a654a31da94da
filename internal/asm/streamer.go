package asm

// Streamer receives the output of the assembly parser, in source order.
//
// Implementations encode (see asm_nyuzi.ObjectStreamer) or print the instructions.
type Streamer interface {
	// EmitInstruction is called for each successfully matched instruction. The instruction must not be modified
	// after this call.
	EmitInstruction(inst *Inst) error
	// EmitLabel defines name at the current location.
	EmitLabel(name string, pos Pos) error
	// EmitValue emits size bytes holding value, e.g. for a ".word" directive.
	EmitValue(value Expr, size int, pos Pos) error
	// EmitAlign pads the current section to a multiple of alignment bytes.
	EmitAlign(alignment int, pos Pos) error
	// EmitGlobal marks name as visible outside the object.
	EmitGlobal(name string, pos Pos) error
	// SwitchSection makes name the current section, creating it if needed.
	SwitchSection(name string, pos Pos) error
}
