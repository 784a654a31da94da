package asmparser

import (
	"errors"
	"fmt"

	"github.com/tetratelabs/nyuzi/internal/asm"
	asm_nyuzi "github.com/tetratelabs/nyuzi/internal/asm/nyuzi"
)

// unconstrainedBits is the width of immediates at positions without a class-specific parser. Only overflow of
// the constant folding itself is reported for them; the encoder checks the field width.
const unconstrainedBits = 64

// parseOperand parses the operand at index of the instruction named mnemonic. Index zero is the mnemonic.
//
// Operand classes with a specific parser are tried first. Then, in order, a register, an immediate and any
// expression, the first match winning.
func (p *Parser) parseOperand(mnemonic string, index int) (*asm.Operand, error) {
	for _, c := range asm_nyuzi.CustomOperandClasses(mnemonic, index) {
		var op *asm.Operand
		var err error
		switch {
		case c.IsMemory():
			op, err = p.parseMemoryOperand(c.MaxBits(), c.IsVectorMemory())
		default:
			op, err = p.parseImmediate(c.MaxBits())
		}
		if err != nil || op != nil {
			return op, err
		}
	}

	if op := p.parseRegister(); op != nil {
		return op, nil
	}
	if op, err := p.parseImmediate(unconstrainedBits); err != nil || op != nil {
		return op, err
	}

	start := p.peek()
	if !startsExpression(start) {
		if start.typ == tokenInvalid {
			return nil, p.parseError(start.pos, start.err)
		}
		return nil, p.parseError(start.pos, fmt.Errorf("%w: %s", ErrUnknownOperand, start))
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err = p.checkConstant(e, start.pos, unconstrainedBits, ErrImmediateOutOfRange); err != nil {
		return nil, err
	}
	return asm.NewImmediateOperand(e, start.pos, p.lastEnd()), nil
}

// parseRegister returns the register named by the current token, or nil without consuming anything if it does not
// name one.
func (p *Parser) parseRegister() *asm.Operand {
	t := p.peek()
	if t.typ != tokenIdentifier {
		return nil
	}
	reg := asm_nyuzi.MatchRegisterName(t.text)
	if reg == asm.NilRegister {
		return nil
	}
	p.advance()
	return asm.NewRegisterOperand(reg, t.pos, t.end)
}

// parseImmediate parses an expression starting with a sign or an integer. It returns nil without consuming anything
// for any other token.
//
// A constant value must fit in a signed integer of maxBits bits. Symbolic values are checked when they are resolved.
func (p *Parser) parseImmediate(maxBits int) (*asm.Operand, error) {
	start := p.peek()
	switch start.typ {
	case tokenPlus, tokenMinus, tokenInteger:
	default:
		return nil, nil
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err = p.checkConstant(e, start.pos, maxBits, ErrImmediateOutOfRange); err != nil {
		return nil, err
	}
	return asm.NewImmediateOperand(e, start.pos, p.lastEnd()), nil
}

// parseMemoryOperand parses either a label, which is addressed relative to pc, or an indexed address:
//
//	[offset] '(' register ')'
//
// The base register must be a vector register if isVector, otherwise a scalar register.
func (p *Parser) parseMemoryOperand(maxBits int, isVector bool) (*asm.Operand, error) {
	start := p.peek()
	if start.typ == tokenIdentifier {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err = p.checkConstant(e, start.pos, unconstrainedBits, ErrOffsetOutOfRange); err != nil {
			return nil, err
		}
		return asm.NewMemoryOperand(asm_nyuzi.REG_PC, e, start.pos, p.lastEnd()), nil
	}

	var offset asm.Expr
	switch start.typ {
	case tokenInteger, tokenMinus, tokenPlus:
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err = p.checkConstant(e, start.pos, maxBits, ErrOffsetOutOfRange); err != nil {
			return nil, err
		}
		offset = e
	case tokenInvalid:
		return nil, p.parseError(start.pos, start.err)
	}

	if t := p.peek(); t.typ != tokenLParen {
		return nil, p.parseError(t.pos, ErrMissingLParen)
	}
	p.advance()

	regTok := p.peek()
	base := p.parseRegister()
	if base == nil {
		return nil, p.parseError(regTok.pos, ErrInvalidRegister)
	}
	if asm_nyuzi.IsVectorRegister(base.Reg()) != isVector {
		return nil, p.parseError(regTok.pos, fmt.Errorf("%w: %s base register", ErrInvalidOperand, regTok.text))
	}

	end := p.peek()
	if end.typ != tokenRParen {
		return nil, p.parseError(end.pos, ErrMissingRParen)
	}
	p.advance()
	return asm.NewMemoryOperand(base.Reg(), offset, start.pos, end.end), nil
}

// checkConstant returns a diagnostic at pos if e folds to a value which does not fit in a signed integer of maxBits
// bits, or fails to fold for a reason other than a symbol reference. Folding overflow is reported as rangeErr.
func (p *Parser) checkConstant(e asm.Expr, pos asm.Pos, maxBits int, rangeErr error) error {
	v, err := e.Evaluate()
	switch {
	case err == nil:
		if !inSignedRange(v, maxBits) {
			return p.parseError(pos, fmt.Errorf("%w: %d does not fit in %d bits", rangeErr, v, maxBits))
		}
	case errors.Is(err, asm.ErrOverflow):
		return p.parseError(pos, fmt.Errorf("%w: %v", rangeErr, err))
	case !errors.Is(err, asm.ErrNotConstant):
		return p.parseError(pos, err)
	}
	return nil
}

// inSignedRange returns true if v is in [-(2^(bits-1)), 2^(bits-1)-1]. Widths of 64 bits or more accept any value.
func inSignedRange(v int64, bits int) bool {
	if bits >= 64 {
		return true
	}
	if bits < 1 {
		panic(fmt.Sprintf("BUG: invalid immediate width %d", bits))
	}
	return v >= -(1<<(bits-1)) && v <= 1<<(bits-1)-1
}
