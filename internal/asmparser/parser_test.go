package asmparser

import (
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/nyuzi/internal/asm"
	asm_nyuzi "github.com/tetratelabs/nyuzi/internal/asm/nyuzi"
	"github.com/tetratelabs/nyuzi/internal/subtarget"
)

//go:generate mockgen -write_package_comment=false -package=$GOPACKAGE -destination=mock_asm_test.go github.com/tetratelabs/nyuzi/internal/asm Streamer

func newTestParser(t *testing.T, cpu, features string) (*Parser, *MockStreamer) {
	out := NewMockStreamer(gomock.NewController(t))
	return New(subtarget.MustNew(cpu, features), out, nil), out
}

// captureInstructions records every emitted instruction.
func captureInstructions(out *MockStreamer) *[]*asm.Inst {
	var insts []*asm.Inst
	out.EXPECT().EmitInstruction(gomock.Any()).DoAndReturn(func(inst *asm.Inst) error {
		insts = append(insts, inst)
		return nil
	}).AnyTimes()
	return &insts
}

// requireDiagnostic requires err to hold exactly one diagnostic, of the given category and location.
func requireDiagnostic(t *testing.T, err error, expectedPos asm.Pos, expectedErr error) *Diagnostic {
	var list DiagnosticList
	require.ErrorAs(t, err, &list)
	require.Len(t, list, 1)
	require.Equal(t, expectedPos, list[0].Pos, list[0].Error())
	require.ErrorIs(t, list[0], expectedErr)
	return list[0]
}

func at(col uint32) asm.Pos { return asm.Pos{Line: 1, Col: col} }

func TestParser_Instructions(t *testing.T) {
	r := asm.RegOperand
	c := asm.ImmOperand
	tests := []struct {
		name     string
		input    string
		expected *asm.Inst
	}{
		{
			name:  "register",
			input: "add_i s1, s2, s3",
			expected: &asm.Inst{
				Opcode:   asm_nyuzi.MustLookupOpcode("add_i", asm_nyuzi.FormSSS),
				Operands: []asm.InstOperand{r(asm_nyuzi.REG_S1), r(asm_nyuzi.REG_S2), r(asm_nyuzi.REG_S3)},
			},
		},
		{
			name:  "immediate",
			input: "add_i s1, s2, -(2+2)",
			expected: &asm.Inst{
				Opcode:   asm_nyuzi.MustLookupOpcode("add_i", asm_nyuzi.FormSSI),
				Operands: []asm.InstOperand{r(asm_nyuzi.REG_S1), r(asm_nyuzi.REG_S2), c(-4)},
			},
		},
		{
			name:  "symbolic immediate",
			input: "add_i s1, s2, foo",
			expected: &asm.Inst{
				Opcode:   asm_nyuzi.MustLookupOpcode("add_i", asm_nyuzi.FormSSI),
				Operands: []asm.InstOperand{r(asm_nyuzi.REG_S1), r(asm_nyuzi.REG_S2), asm.ExprOperand(asm.Symbol("foo"))},
			},
		},
		{
			name:  "masked vector",
			input: "add_i_mask v1, s2, v3, 127",
			expected: &asm.Inst{
				Opcode:   asm_nyuzi.MustLookupOpcode("add_i_mask", asm_nyuzi.FormVVIMask),
				Operands: []asm.InstOperand{r(asm_nyuzi.REG_V1), r(asm_nyuzi.REG_S2), r(asm_nyuzi.REG_V3), c(127)},
			},
		},
		{
			name:  "aliases",
			input: "move fp, sp",
			expected: &asm.Inst{
				Opcode:   asm_nyuzi.MustLookupOpcode("move", asm_nyuzi.FormSS),
				Operands: []asm.InstOperand{r(asm_nyuzi.REG_FP), r(asm_nyuzi.REG_SP)},
			},
		},
		{
			name:  "label memory",
			input: "load_32 s0, foo",
			expected: &asm.Inst{
				Opcode:   asm_nyuzi.MustLookupOpcode("load_32", asm_nyuzi.FormScalarMem),
				Operands: []asm.InstOperand{r(asm_nyuzi.REG_S0), r(asm_nyuzi.REG_PC), asm.ExprOperand(asm.Symbol("foo"))},
			},
		},
		{
			name:  "indexed memory",
			input: "store_32 s3, -12(sp)",
			expected: &asm.Inst{
				Opcode:   asm_nyuzi.MustLookupOpcode("store_32", asm_nyuzi.FormScalarMem),
				Operands: []asm.InstOperand{r(asm_nyuzi.REG_S3), r(asm_nyuzi.REG_SP), c(-12)},
			},
		},
		{
			name:  "memory without offset",
			input: "load_gath v1, (v2)",
			expected: &asm.Inst{
				Opcode:   asm_nyuzi.MustLookupOpcode("load_gath", asm_nyuzi.FormGatherMem),
				Operands: []asm.InstOperand{r(asm_nyuzi.REG_V1), r(asm_nyuzi.REG_V2), c(0)},
			},
		},
		{
			name:  "branch",
			input: "bnz s4, loop",
			expected: &asm.Inst{
				Opcode:   asm_nyuzi.MustLookupOpcode("bnz", asm_nyuzi.FormRegTarget),
				Operands: []asm.InstOperand{r(asm_nyuzi.REG_S4), asm.ExprOperand(asm.Symbol("loop"))},
			},
		},
		{
			name:     "no operands",
			input:    "ret",
			expected: &asm.Inst{Opcode: asm_nyuzi.MustLookupOpcode("ret", asm_nyuzi.FormNone)},
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			p, out := newTestParser(t, "v60", "")
			insts := captureInstructions(out)
			require.NoError(t, p.Parse([]byte(tc.input)))
			require.Len(t, *insts, 1)
			actual := (*insts)[0]
			require.Equal(t, tc.expected.Opcode, actual.Opcode, asm_nyuzi.InstructionName(actual.Opcode))
			require.Equal(t, tc.expected.Operands, actual.Operands)
			require.Equal(t, at(1), actual.Loc)
		})
	}
}

func TestInSignedRange(t *testing.T) {
	for bits := 1; bits < 64; bits++ {
		max := int64(1)<<(bits-1) - 1
		min := -max - 1
		require.True(t, inSignedRange(max, bits), bits)
		require.True(t, inSignedRange(min, bits), bits)
		require.False(t, inSignedRange(max+1, bits), bits)
		require.False(t, inSignedRange(min-1, bits), bits)
	}
	require.True(t, inSignedRange(-1<<63, 64))
	require.True(t, inSignedRange(1<<63-1, 64))
}

func TestParser_ImmediateRange(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		// 13 bits
		{input: "add_i s1, s2, 4095", ok: true},
		{input: "add_i s1, s2, 4096"},
		{input: "add_i s1, s2, -4096", ok: true},
		{input: "add_i s1, s2, -4097"},
		{input: "add_i s1, s2, 4000+95", ok: true},
		{input: "add_i s1, s2, 4000+96"},
		{input: "add_i s1, s2, +4096"},
		// 8 bits
		{input: "add_i_mask v1, s2, v3, 127", ok: true},
		{input: "add_i_mask v1, s2, v3, 128"},
		{input: "add_i_mask v1, s2, v3, -128", ok: true},
		{input: "add_i_mask v1, s2, v3, -129"},
		// Unconstrained without a class specific parser, short of overflowing the folding.
		{input: "movehi s1, 2147483648", ok: true},
		{input: "movehi s1, 0x80000000", ok: true},
		{input: "movehi s1, -2147483649", ok: true},
		{input: "movehi s1, 9223372036854775807", ok: true},
		{input: "movehi s1, 0x100000000*0x100000000"},
		{input: "movehi s1, 9223372036854775807+1"},
		{input: "movehi s1, -9223372036854775807-2"},
		{input: "movehi s1, 1<<63"},
		// Folding overflow is reported for class specific immediates too.
		{input: "add_i s1, s2, 0x100000000*0x100000000"},
		{input: "add_i_mask v1, s2, v3, 4294967296*4294967296"},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.input, func(t *testing.T) {
			p, out := newTestParser(t, "v60", "")
			insts := captureInstructions(out)
			err := p.Parse([]byte(tc.input))
			if tc.ok {
				// movehi rejects wide values later, when encoding.
				require.NoError(t, err)
				require.Len(t, *insts, 1)
				return
			}
			// The error is at the start of the expression.
			exprCol := uint32(len(tc.input)) - uint32(len(lastOperand(tc.input))) + 1
			requireDiagnostic(t, err, at(exprCol), ErrImmediateOutOfRange)
			require.Empty(t, *insts)
		})
	}
}

func lastOperand(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			return s[i+1:]
		}
	}
	return s
}

func TestParser_MemoryOffsetRange(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		// 15 bits
		{input: "load_32 s0, 16383(s1)", ok: true},
		{input: "load_32 s0, 16384(s1)"},
		{input: "load_32 s0, -16384(s1)", ok: true},
		{input: "load_32 s0, -16385(s1)"},
		// 10 bits
		{input: "memadd_32 s0, 511(s1)", ok: true},
		{input: "memadd_32 s0, 512(s1)"},
		{input: "memadd_32 s0, -512(s1)", ok: true},
		{input: "memadd_32 s0, -513(s1)"},
		{input: "memadd_32 s0, -4096(s1)"},
		{input: "load_gath_mask v0, s1, 600(v2)"},
		{input: "load_32 s0, 0x100000000*0x100000000(s1)"},
		{input: "memadd_32 s0, 1<<62+1<<62(s1)"},
		// Symbolic offsets are checked by the encoder.
		{input: "load_32 s0, +foo(s1)", ok: true},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.input, func(t *testing.T) {
			p, out := newTestParser(t, "v60", "")
			insts := captureInstructions(out)
			err := p.Parse([]byte(tc.input))
			if tc.ok {
				require.NoError(t, err)
				require.Len(t, *insts, 1)
				return
			}
			offsetCol := uint32(len(tc.input)) - uint32(len(lastOperand(tc.input))) + 1
			requireDiagnostic(t, err, at(offsetCol), ErrOffsetOutOfRange)
			require.Empty(t, *insts)
		})
	}
}

func TestParser_ConstantOverflow(t *testing.T) {
	tests := []struct {
		input       string
		expectedCol uint32
		expectedErr error
	}{
		{input: "add_i s1, s2, 0xffffffffffffffff", expectedCol: 15, expectedErr: ErrIntegerOutOfRange},
		{input: "load_32 s0, 0xfffffffffffffffc(s1)", expectedCol: 13, expectedErr: ErrIntegerOutOfRange},
		{input: "movehi s1, 18446744073709551615", expectedCol: 12, expectedErr: ErrIntegerOutOfRange},
		{input: "load_32 s0, foo+(1<<63)", expectedCol: 13, expectedErr: ErrOffsetOutOfRange},
		{input: "movehi s1, (1<<62)*4", expectedCol: 12, expectedErr: ErrImmediateOutOfRange},
		{input: "movehi s1, 1/0", expectedCol: 12, expectedErr: asm.ErrDivideByZero},
		{input: ".word 0x100000000*0x100000000", expectedCol: 7, expectedErr: ErrValueOutOfRange},
		{input: ".word 0, foo-(1<<63)", expectedCol: 10, expectedErr: ErrValueOutOfRange},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.input, func(t *testing.T) {
			p, out := newTestParser(t, "v60", "")
			insts := captureInstructions(out)
			out.EXPECT().EmitValue(asm.Const(0), 4, at(7)).Return(nil).AnyTimes()
			err := p.Parse([]byte(tc.input))
			d := requireDiagnostic(t, err, at(tc.expectedCol), tc.expectedErr)
			require.Equal(t, DiagnosticKindParse, d.Kind)
			require.ErrorIs(t, d, tc.expectedErr)
			require.Empty(t, *insts)
		})
	}
}

func TestParser_MemoryBaseRegisterClass(t *testing.T) {
	for i := 0; i < 32; i++ {
		scalar, vector := fmt.Sprintf("s%d", i), fmt.Sprintf("v%d", i)
		tests := []struct {
			input string
			ok    bool
		}{
			{input: "load_32 s0, 4(" + scalar + ")", ok: true},
			{input: "load_32 s0, 4(" + vector + ")"},
			{input: "load_gath v0, 4(" + vector + ")", ok: true},
			{input: "load_gath v0, 4(" + scalar + ")"},
			{input: "load_v_mask v0, s1, (" + scalar + ")", ok: true},
			{input: "store_scat_mask v0, s1, (" + scalar + ")"},
		}
		for _, tc := range tests {
			p, out := newTestParser(t, "v60", "")
			insts := captureInstructions(out)
			err := p.Parse([]byte(tc.input))
			if tc.ok {
				require.NoError(t, err, tc.input)
				require.Len(t, *insts, 1)
				continue
			}
			// The error is at the base register.
			regCol := uint32(len(tc.input)) - uint32(len(vector)) // same length as scalar
			requireDiagnostic(t, err, at(regCol), ErrInvalidOperand)
			require.Empty(t, *insts)
		}
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name, cpu, features, input string
		expectedPos                asm.Pos
		expectedErr                error
	}{
		{name: "missing rparen", input: "load_32 s0, 4(s1", expectedPos: at(17), expectedErr: ErrMissingRParen},
		{name: "missing rparen before comma", input: "load_32 s0, 4(s1, s2", expectedPos: at(17), expectedErr: ErrMissingRParen},
		{name: "missing lparen", input: "load_32 s0, 4 s1", expectedPos: at(15), expectedErr: ErrMissingLParen},
		{name: "missing base", input: "load_32 s0, 4()", expectedPos: at(15), expectedErr: ErrInvalidRegister},
		{name: "invalid base", input: "load_32 s0, (s32)", expectedPos: at(14), expectedErr: ErrInvalidRegister},
		{name: "too few operands", input: "add_i s1, s2", expectedPos: at(1), expectedErr: ErrTooFewOperands},
		{name: "invalid operand", input: "add_i s1, v2, s3", expectedPos: at(11), expectedErr: ErrInvalidOperand},
		{name: "extra operand", input: "nop s1", expectedPos: at(5), expectedErr: ErrInvalidOperand},
		{name: "mnemonic", input: "frob s1", expectedPos: at(1), expectedErr: ErrUnrecognizedMnemonic},
		{name: "vector unit", cpu: "v4", input: "add_i v1, v2, v3", expectedPos: at(1), expectedErr: ErrMissingFeature},
		{name: "hardware divide", input: "div_i s1, s2, s3", expectedPos: at(1), expectedErr: ErrMissingFeature},
		{name: "memops", cpu: "v4", input: "memadd_32 s1, (s2)", expectedPos: at(1), expectedErr: ErrMissingFeature},
		{name: "membar", cpu: "v55", input: "membar", expectedPos: at(1), expectedErr: ErrMissingFeature},
		{name: "unknown operand", input: "add_i s1, s2, )", expectedPos: at(15), expectedErr: ErrUnknownOperand},
		{name: "missing comma", input: "add_i s1 s2", expectedPos: at(10), expectedErr: ErrExpectedEndOfStatement},
		{name: "unbalanced", input: "add_i s1, s2, (1+2", expectedPos: at(19), expectedErr: ErrUnbalancedParentheses},
		{name: "dangling operator", input: "add_i s1, s2, 1+", expectedPos: at(17), expectedErr: ErrExpectedExpression},
		{name: "unknown directive", input: ".frob 1", expectedPos: at(1), expectedErr: ErrUnknownDirective},
		{name: "not a statement", input: "4", expectedPos: at(1), expectedErr: ErrUnexpectedToken},
		{name: "symbolic alignment", input: ".align foo", expectedPos: at(8), expectedErr: ErrInvalidAlignment},
		{name: "global without name", input: ".globl 1", expectedPos: at(8), expectedErr: ErrExpectedIdentifier},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			cpu := tc.cpu
			if cpu == "" {
				cpu = "v60"
			}
			p, out := newTestParser(t, cpu, tc.features)
			insts := captureInstructions(out)
			d := requireDiagnostic(t, p.Parse([]byte(tc.input)), tc.expectedPos, tc.expectedErr)
			require.Equal(t, tc.input, d.Context)
			require.Empty(t, *insts)
		})
	}
}

func TestParser_LexError(t *testing.T) {
	p, out := newTestParser(t, "v60", "")
	captureInstructions(out)
	err := p.Parse([]byte("add_i s1, s2, @"))
	var list DiagnosticList
	require.ErrorAs(t, err, &list)
	require.Len(t, list, 1)
	require.Equal(t, at(15), list[0].Pos)
	require.Equal(t, "unexpected character '@'", list[0].Message())
}

func TestParser_DiagnosticMessage(t *testing.T) {
	p, out := newTestParser(t, "v60", "")
	captureInstructions(out)
	err := p.Parse([]byte("\tload_32 s0, 4(s1\n"))
	require.EqualError(t, err, `1:18: missing ) in "load_32 s0, 4(s1"`)

	var list DiagnosticList
	require.ErrorAs(t, err, &list)
	require.Equal(t, DiagnosticKindParse, list[0].Kind)
	require.Equal(t, "missing )", list[0].Message())
}

func TestParser_Recovery(t *testing.T) {
	p, out := newTestParser(t, "v60", "")
	insts := captureInstructions(out)
	err := p.Parse([]byte(`add_i s1, s2, 99999
	add_i s1, s2, 1
	frob
	add_i s1, s2, 2 ; bad s1
`))

	var list DiagnosticList
	require.ErrorAs(t, err, &list)
	require.Equal(t, 3, len(list), err.Error())
	require.Equal(t, asm.Pos{Line: 1, Col: 15}, list[0].Pos)
	require.ErrorIs(t, list[0], ErrImmediateOutOfRange)
	require.Equal(t, asm.Pos{Line: 3, Col: 2}, list[1].Pos)
	require.ErrorIs(t, list[1], ErrUnrecognizedMnemonic)
	require.Equal(t, asm.Pos{Line: 4, Col: 20}, list[2].Pos)
	require.ErrorIs(t, list[2], ErrUnrecognizedMnemonic)

	// errors.Is sees through the list.
	require.ErrorIs(t, err, ErrUnrecognizedMnemonic)
	require.Len(t, *insts, 2)
	require.Equal(t, []asm.InstOperand{
		asm.RegOperand(asm_nyuzi.REG_S1), asm.RegOperand(asm_nyuzi.REG_S2), asm.ImmOperand(2),
	}, (*insts)[1].Operands)
}

func TestParser_EmitError(t *testing.T) {
	p, out := newTestParser(t, "v60", "")
	out.EXPECT().EmitInstruction(gomock.Any()).Return(asm_nyuzi.ErrOutOfRange)
	err := p.Parse([]byte("nop"))
	d := requireDiagnostic(t, err, at(1), asm_nyuzi.ErrOutOfRange)
	require.Equal(t, DiagnosticKindEmit, d.Kind)
}

func TestParser_LabelsAndDirectives(t *testing.T) {
	p, out := newTestParser(t, "v60", "")
	gomock.InOrder(
		out.EXPECT().SwitchSection(".data", asm.Pos{Line: 1, Col: 1}),
		out.EXPECT().EmitGlobal("table", asm.Pos{Line: 2, Col: 1}),
		out.EXPECT().EmitLabel("table", asm.Pos{Line: 3, Col: 1}),
		out.EXPECT().EmitValue(asm.Const(1), 4, asm.Pos{Line: 3, Col: 14}),
		out.EXPECT().EmitValue(&asm.BinaryExpr{Op: asm.BinaryOpAdd, X: asm.Symbol("start"), Y: asm.Const(4)}, 4, asm.Pos{Line: 3, Col: 17}),
		out.EXPECT().EmitValue(asm.Const(-1), 2, asm.Pos{Line: 4, Col: 8}),
		out.EXPECT().EmitValue(asm.Const(0xff), 1, asm.Pos{Line: 5, Col: 7}),
		out.EXPECT().EmitAlign(64, asm.Pos{Line: 6, Col: 1}),
		out.EXPECT().EmitAlign(16, asm.Pos{Line: 7, Col: 1}),
		out.EXPECT().SwitchSection(".text", asm.Pos{Line: 8, Col: 1}),
		out.EXPECT().EmitLabel("start", asm.Pos{Line: 9, Col: 1}),
		out.EXPECT().EmitLabel("again", asm.Pos{Line: 9, Col: 8}),
		out.EXPECT().EmitInstruction(gomock.Any()),
		out.EXPECT().SwitchSection("rodata", asm.Pos{Line: 10, Col: 1}),
	)
	err := p.Parse([]byte(`.data
.globl table
table: .word 1, start+4
.short -1
.byte 0xff
.align 64
.p2align 4
.text
start: again: nop
.section rodata
`))
	require.NoError(t, err)
}

// TestParser_RoundTrip parses the printed form of every instruction.
func TestParser_RoundTrip(t *testing.T) {
	for _, op := range asm_nyuzi.Opcodes() {
		d := asm_nyuzi.Desc(op)
		expected := &asm.Inst{Opcode: op}
		for i, c := range d.Form.Classes() {
			switch c {
			case asm_nyuzi.OperandClassScalarReg:
				expected.AddOperand(asm.RegOperand(asm_nyuzi.REG_S0 + asm.Register(i+1)))
			case asm_nyuzi.OperandClassVectorReg:
				expected.AddOperand(asm.RegOperand(asm_nyuzi.REG_V0 + asm.Register(i+1)))
			case asm_nyuzi.OperandClassSImm13:
				expected.AddOperand(asm.ImmOperand(-5))
			case asm_nyuzi.OperandClassSImm8:
				expected.AddOperand(asm.ImmOperand(7))
			case asm_nyuzi.OperandClassImm:
				expected.AddOperand(asm.ImmOperand(64))
			case asm_nyuzi.OperandClassMemS10, asm_nyuzi.OperandClassMemS15:
				expected.AddOperand(asm.RegOperand(asm_nyuzi.REG_S9))
				expected.AddOperand(asm.ImmOperand(12))
			case asm_nyuzi.OperandClassMemV10, asm_nyuzi.OperandClassMemV15:
				expected.AddOperand(asm.RegOperand(asm_nyuzi.REG_V9))
				expected.AddOperand(asm.ImmOperand(0))
			default:
				t.Fatalf("unexpected class %s", c)
			}
		}
		text := asm_nyuzi.FormatInst(expected)

		t.Run(text, func(t *testing.T) {
			p, out := newTestParser(t, "v60", "+hwdiv")
			insts := captureInstructions(out)
			require.NoError(t, p.Parse([]byte(text)))
			require.Len(t, *insts, 1)
			actual := (*insts)[0]
			require.Equal(t, d.String(), asm_nyuzi.Desc(actual.Opcode).String())
			require.Equal(t, expected.Operands, actual.Operands)
		})
	}
}
