package asmparser

import (
	"fmt"

	"github.com/tetratelabs/nyuzi/internal/asm"
)

// startsExpression returns true if an expression may begin with t.
func startsExpression(t token) bool {
	switch t.typ {
	case tokenInteger, tokenIdentifier, tokenPlus, tokenMinus, tokenTilde, tokenLParen:
		return true
	}
	return false
}

// parseExpression parses
//
//	expr = term { ('+' | '-' | '|' | '^') term }
func (p *Parser) parseExpression() (asm.Expr, error) {
	x, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		var op asm.BinaryOp
		switch p.peek().typ {
		case tokenPlus:
			op = asm.BinaryOpAdd
		case tokenMinus:
			op = asm.BinaryOpSub
		case tokenPipe:
			op = asm.BinaryOpOr
		case tokenCaret:
			op = asm.BinaryOpXor
		default:
			return x, nil
		}
		p.advance()
		y, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		x = &asm.BinaryExpr{Op: op, X: x, Y: y}
	}
}

// parseTerm parses
//
//	term = factor { ('*' | '/' | '%' | '<<' | '>>' | '&') factor }
func (p *Parser) parseTerm() (asm.Expr, error) {
	x, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		var op asm.BinaryOp
		switch p.peek().typ {
		case tokenStar:
			op = asm.BinaryOpMul
		case tokenSlash:
			op = asm.BinaryOpDiv
		case tokenPercent:
			op = asm.BinaryOpMod
		case tokenShl:
			op = asm.BinaryOpShl
		case tokenShr:
			op = asm.BinaryOpShr
		case tokenAmp:
			op = asm.BinaryOpAnd
		default:
			return x, nil
		}
		p.advance()
		y, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		x = &asm.BinaryExpr{Op: op, X: x, Y: y}
	}
}

// parseFactor parses
//
//	factor = integer | symbol | ('+' | '-' | '~') factor | '(' expr ')'
//
// A sign applied to an integer folds into the constant.
func (p *Parser) parseFactor() (asm.Expr, error) {
	t := p.peek()
	switch t.typ {
	case tokenInteger:
		p.advance()
		return asm.Const(t.val), nil
	case tokenIdentifier:
		p.advance()
		return asm.Symbol(t.text), nil
	case tokenPlus, tokenMinus, tokenTilde:
		p.advance()
		x, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		if c, ok := x.(*asm.ConstExpr); ok {
			switch t.typ {
			case tokenPlus:
				return c, nil
			case tokenMinus:
				return asm.Const(-c.Value), nil
			}
		}
		return &asm.UnaryExpr{Op: t.text[0], X: x}, nil
	case tokenLParen:
		p.advance()
		x, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if r := p.peek(); r.typ != tokenRParen {
			return nil, p.parseError(r.pos, ErrUnbalancedParentheses)
		}
		p.advance()
		return x, nil
	case tokenInvalid:
		return nil, p.parseError(t.pos, t.err)
	}
	return nil, p.parseError(t.pos, fmt.Errorf("%w, found %s", ErrExpectedExpression, t))
}
