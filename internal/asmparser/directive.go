package asmparser

import "fmt"

// valueDirectives maps data directives to the size of each value.
var valueDirectives = map[string]int{
	".byte":  1,
	".short": 2,
	".word":  4,
	".long":  4,
}

// parseDirective parses the statement starting with the directive name.
func (p *Parser) parseDirective(name token) error {
	if size, ok := valueDirectives[name.text]; ok {
		return p.parseValues(name, size)
	}

	var err error
	switch name.text {
	case ".text", ".data":
		err = p.out.SwitchSection(name.text, name.pos)
	case ".section":
		var section token
		if section, err = p.expectIdentifier(); err != nil {
			return err
		}
		err = p.out.SwitchSection(section.text, name.pos)
	case ".globl", ".global":
		var sym token
		if sym, err = p.expectIdentifier(); err != nil {
			return err
		}
		err = p.out.EmitGlobal(sym.text, name.pos)
	case ".align", ".p2align":
		start := p.peek()
		e, perr := p.parseExpression()
		if perr != nil {
			return perr
		}
		v, everr := e.Evaluate()
		if everr != nil || v < 0 || (name.text == ".p2align" && v > 30) {
			return p.parseError(start.pos, fmt.Errorf("%w: %s", ErrInvalidAlignment, e))
		}
		if name.text == ".p2align" {
			v = 1 << v
		}
		err = p.out.EmitAlign(int(v), name.pos)
	default:
		return p.parseError(name.pos, fmt.Errorf("%w: %s", ErrUnknownDirective, name.text))
	}
	if err != nil {
		return newDiagnostic(DiagnosticKindEmit, name.pos, err)
	}
	return p.expectEndOfStatement()
}

// parseValues parses a comma separated list of expressions, emitting each with the given size.
func (p *Parser) parseValues(name token, size int) error {
	for {
		start := p.peek()
		e, err := p.parseExpression()
		if err != nil {
			return err
		}
		if err = p.checkConstant(e, start.pos, unconstrainedBits, ErrValueOutOfRange); err != nil {
			return err
		}
		if err = p.out.EmitValue(e, size, start.pos); err != nil {
			return newDiagnostic(DiagnosticKindEmit, start.pos, err)
		}
		if p.peek().typ != tokenComma {
			return p.expectEndOfStatement()
		}
		p.advance()
	}
}

func (p *Parser) expectIdentifier() (token, error) {
	t := p.peek()
	if t.typ != tokenIdentifier {
		return t, p.parseError(t.pos, fmt.Errorf("%w, found %s", ErrExpectedIdentifier, t))
	}
	p.advance()
	return t, nil
}

