// Package asmparser parses Nyuzi assembly source and emits the instructions, labels and data it contains to an
// asm.Streamer.
package asmparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tetratelabs/nyuzi/internal/asm"
	asm_nyuzi "github.com/tetratelabs/nyuzi/internal/asm/nyuzi"
	"github.com/tetratelabs/nyuzi/internal/subtarget"
)

// state is the progress of parsing one instruction statement.
type state byte

const (
	stateExpectMnemonic state = iota
	// stateExpectOperand follows the mnemonic or a comma.
	stateExpectOperand
	// stateExpectComma follows an operand.
	stateExpectComma
	// stateExpectEnd follows the mnemonic, which may be the whole statement.
	stateExpectEnd
	stateDone
	stateError
)

var stateNames = [...]string{
	stateExpectMnemonic: "ExpectMnemonic",
	stateExpectOperand:  "ExpectOperand",
	stateExpectComma:    "ExpectComma",
	stateExpectEnd:      "ExpectEnd",
	stateDone:           "Done",
	stateError:          "Error",
}

// String implements fmt.Stringer.
func (s state) String() string { return stateNames[s] }

// Parser parses assembly source for one subtarget. A Parser is not safe for concurrent use.
type Parser struct {
	features subtarget.FeatureBits
	out      asm.Streamer
	logger   logrus.FieldLogger

	toks  []token
	next  int
	lines []string
}

// New returns a Parser which emits to out the instructions that st enables. logger may be nil.
func New(st *subtarget.Subtarget, out asm.Streamer, logger logrus.FieldLogger) *Parser {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Parser{features: st.FeatureBits(), out: out, logger: logger}
}

// Parse parses source, emitting each statement as it is parsed.
//
// A failing statement does not stop parsing: it is skipped up to the end of the statement, and the returned error
// is a DiagnosticList of every failure.
func (p *Parser) Parse(source []byte) error {
	p.toks, p.next = lex(source), 0
	p.lines = strings.Split(string(source), "\n")

	var diags DiagnosticList
	for p.peek().typ != tokenEOF {
		err := p.parseStatement()
		if err == nil {
			continue
		}
		d, ok := err.(*Diagnostic)
		if !ok {
			panic(fmt.Sprintf("BUG: undiagnosed error: %v", err))
		}
		d.Context = p.line(d.Pos)
		p.logger.WithFields(logrus.Fields{"pos": d.Pos.String(), "kind": d.Kind.String()}).
			Debugf("skipping statement: %v", d.cause)
		diags = append(diags, d)
		p.skipStatement()
	}
	if len(diags) > 0 {
		return diags
	}
	return nil
}

func (p *Parser) peek() token {
	return p.toks[p.next]
}

func (p *Parser) advance() token {
	t := p.toks[p.next]
	if t.typ != tokenEOF {
		p.next++
	}
	return t
}

// lastEnd returns the end of the last consumed token.
func (p *Parser) lastEnd() asm.Pos {
	if p.next == 0 {
		return asm.Pos{}
	}
	return p.toks[p.next-1].end
}

// skipStatement consumes tokens through the end of the current statement.
func (p *Parser) skipStatement() {
	for {
		switch p.advance().typ {
		case tokenEndOfStatement, tokenEOF:
			return
		}
	}
}

func (p *Parser) line(pos asm.Pos) string {
	if !pos.IsValid() || int(pos.Line) > len(p.lines) {
		return ""
	}
	return strings.TrimSpace(p.lines[pos.Line-1])
}

func (p *Parser) parseError(pos asm.Pos, cause error) *Diagnostic {
	return newDiagnostic(DiagnosticKindParse, pos, cause)
}

// expectEndOfStatement consumes the end of the statement.
func (p *Parser) expectEndOfStatement() error {
	t := p.peek()
	switch t.typ {
	case tokenEndOfStatement:
		p.advance()
		return nil
	case tokenInvalid:
		return p.parseError(t.pos, t.err)
	}
	return p.parseError(t.pos, fmt.Errorf("%w, found %s", ErrExpectedEndOfStatement, t))
}

// parseStatement parses one statement: any number of labels, then an optional directive or instruction.
func (p *Parser) parseStatement() error {
	for {
		t := p.peek()
		switch t.typ {
		case tokenEndOfStatement:
			p.advance()
			return nil
		case tokenInvalid:
			return p.parseError(t.pos, t.err)
		case tokenIdentifier:
		default:
			return p.parseError(t.pos, fmt.Errorf("%w: %s", ErrUnexpectedToken, t))
		}

		p.advance()
		if p.peek().typ == tokenColon {
			p.advance()
			if err := p.out.EmitLabel(t.text, t.pos); err != nil {
				return newDiagnostic(DiagnosticKindEmit, t.pos, err)
			}
			continue
		}
		if strings.HasPrefix(t.text, ".") {
			return p.parseDirective(t)
		}
		return p.parseInstruction(t)
	}
}

// parseInstruction parses the operands following the mnemonic, then resolves and emits the instruction.
func (p *Parser) parseInstruction(mnemonic token) error {
	var operands []*asm.Operand
	var err error
	s := stateExpectMnemonic
	for s != stateDone && s != stateError {
		switch s {
		case stateExpectMnemonic:
			operands = append(operands, asm.NewTokenOperand(mnemonic.text, mnemonic.pos))
			s = stateExpectEnd
		case stateExpectEnd:
			if p.peek().typ == tokenEndOfStatement {
				s = stateDone
			} else {
				s = stateExpectOperand
			}
		case stateExpectOperand:
			var op *asm.Operand
			if op, err = p.parseOperand(mnemonic.text, len(operands)); err != nil {
				s = stateError
				break
			}
			operands = append(operands, op)
			s = stateExpectComma
		case stateExpectComma:
			switch p.peek().typ {
			case tokenComma:
				p.advance()
				s = stateExpectOperand
			case tokenEndOfStatement:
				s = stateDone
			default:
				err, s = p.expectEndOfStatement(), stateError
			}
		default:
			panic(fmt.Sprintf("BUG: invalid parser state %s", s))
		}
	}
	if s == stateError {
		return err
	}
	if err = p.matchAndEmit(operands); err != nil {
		return err
	}
	return p.expectEndOfStatement()
}

// matchAndEmit resolves operands to an instruction and emits it.
func (p *Parser) matchAndEmit(operands []*asm.Operand) error {
	idLoc := operands[0].StartPos()
	inst, result, errorInfo := asm_nyuzi.MatchInstruction(operands, p.features)
	switch result {
	case asm_nyuzi.MatchSuccess:
		if err := p.out.EmitInstruction(inst); err != nil {
			return newDiagnostic(DiagnosticKindEmit, idLoc, err)
		}
		return nil
	case asm_nyuzi.MatchMissingFeature:
		return newDiagnostic(DiagnosticKindMatch, idLoc, ErrMissingFeature)
	case asm_nyuzi.MatchMnemonicFail:
		return newDiagnostic(DiagnosticKindMatch, idLoc, ErrUnrecognizedMnemonic)
	case asm_nyuzi.MatchInvalidOperand:
		loc := idLoc
		if errorInfo != asm_nyuzi.NoErrorInfo {
			if errorInfo >= len(operands) {
				return newDiagnostic(DiagnosticKindMatch, idLoc, ErrTooFewOperands)
			}
			if pos := operands[errorInfo].StartPos(); pos.IsValid() {
				loc = pos
			}
		}
		return newDiagnostic(DiagnosticKindMatch, loc, ErrInvalidOperand)
	}
	panic(fmt.Sprintf("BUG: invalid match result %s", result))
}
