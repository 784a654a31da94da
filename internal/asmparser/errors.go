package asmparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tetratelabs/nyuzi/internal/asm"
)

var (
	ErrImmediateOutOfRange    = errors.New("immediate operand out of range")
	ErrOffsetOutOfRange       = errors.New("offset out of range")
	ErrValueOutOfRange        = errors.New("value out of range")
	ErrIntegerOutOfRange      = errors.New("integer out of range")
	ErrMissingLParen          = errors.New("missing (")
	ErrMissingRParen          = errors.New("missing )")
	ErrInvalidRegister        = errors.New("invalid register")
	ErrInvalidOperand         = errors.New("invalid operand for instruction")
	ErrTooFewOperands         = errors.New("too few operands for instruction")
	ErrMissingFeature         = errors.New("instruction use requires option to be enabled")
	ErrUnrecognizedMnemonic   = errors.New("unrecognized instruction mnemonic")
	ErrUnknownOperand         = errors.New("unknown operand")
	ErrUnexpectedToken        = errors.New("unexpected token")
	ErrUnknownDirective       = errors.New("unknown directive")
	ErrExpectedExpression     = errors.New("expected expression")
	ErrUnbalancedParentheses  = errors.New("unbalanced parentheses")
	ErrExpectedIdentifier     = errors.New("expected identifier")
	ErrInvalidAlignment       = errors.New("invalid alignment")
	ErrExpectedEndOfStatement = errors.New("expected end of statement")
)

// DiagnosticKind is the stage which produced a Diagnostic.
type DiagnosticKind byte

const (
	// DiagnosticKindParse is a syntax error.
	DiagnosticKindParse DiagnosticKind = iota
	// DiagnosticKindMatch is an instruction that does not resolve to an opcode.
	DiagnosticKindMatch
	// DiagnosticKindEmit is an error returned by the asm.Streamer.
	DiagnosticKindEmit
)

var diagnosticKindNames = [...]string{
	DiagnosticKindParse: "parse",
	DiagnosticKindMatch: "match",
	DiagnosticKindEmit:  "emit",
}

// String implements fmt.Stringer.
func (k DiagnosticKind) String() string { return diagnosticKindNames[k] }

// Diagnostic is an error located in the assembly source.
//
// Use errors.Is with the Err* variables of this package to check the category.
type Diagnostic struct {
	Pos  asm.Pos
	Kind DiagnosticKind
	// Context is the text of the statement, if known.
	Context string
	cause   error
}

func newDiagnostic(kind DiagnosticKind, pos asm.Pos, cause error) *Diagnostic {
	return &Diagnostic{Pos: pos, Kind: kind, cause: cause}
}

// Message returns the error without its location.
func (d *Diagnostic) Message() string {
	return d.cause.Error()
}

func (d *Diagnostic) Error() string {
	if d.Context == "" {
		return fmt.Sprintf("%s: %v", d.Pos, d.cause)
	}
	return fmt.Sprintf("%s: %v in %q", d.Pos, d.cause, d.Context)
}

func (d *Diagnostic) Unwrap() error {
	return d.cause
}

// DiagnosticList is the error returned when one or more statements fail. Diagnostics are in source order.
type DiagnosticList []*Diagnostic

func (l DiagnosticList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:", len(l))
	for _, d := range l {
		b.WriteString("\n\t")
		b.WriteString(d.Error())
	}
	return b.String()
}

// Unwrap allows errors.Is and errors.As to match any of the diagnostics.
func (l DiagnosticList) Unwrap() []error {
	ret := make([]error, len(l))
	for i, d := range l {
		ret[i] = d
	}
	return ret
}
