package asmparser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tetratelabs/nyuzi/internal/asm"
)

// isIdentStart is true for bytes which may begin an identifier.
func isIdentStart(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b == '_' || b == '.' || b == '$'
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

var singleByteTokens = [256]tokenType{
	'+': tokenPlus,
	'-': tokenMinus,
	'*': tokenStar,
	'/': tokenSlash,
	'%': tokenPercent,
	'&': tokenAmp,
	'|': tokenPipe,
	'^': tokenCaret,
	'~': tokenTilde,
	'(': tokenLParen,
	')': tokenRParen,
	',': tokenComma,
	':': tokenColon,
	';': tokenEndOfStatement,
}

// lex splits source into tokens. The result always ends with tokenEOF, preceded by a tokenEndOfStatement if the
// source does not end with one.
//
// Lexical errors do not stop lexing: they are returned as tokenInvalid, so the parser reports them in the context of
// their statement and continues with the next one.
//
// Comments start with '#' or "//" and run to the end of the line.
func lex(source []byte) []token {
	var tokens []token
	line, col := uint32(1), uint32(1)
	emit := func(typ tokenType, start, end int, startCol uint32) {
		tokens = append(tokens, token{
			typ:  typ,
			text: string(source[start:end]),
			pos:  asm.Pos{Line: line, Col: startCol},
			end:  asm.Pos{Line: line, Col: startCol + uint32(end-start) - 1},
		})
	}

	end := len(source)
	for i := 0; i < end; {
		b := source[i]
		switch {
		case b == '\n':
			emit(tokenEndOfStatement, i, i+1, col)
			line++
			col = 1
			i++
			continue
		case b == ' ' || b == '\t' || b == '\r':
		case b == '#' || (b == '/' && i+1 < end && source[i+1] == '/'):
			// Line comment: skip to the '\n', which ends the statement.
			for i < end && source[i] != '\n' {
				i++
				col++
			}
			continue
		case isIdentStart(b):
			start := i
			for i < end && isIdentPart(source[i]) {
				i++
			}
			emit(tokenIdentifier, start, i, col)
			col += uint32(i - start)
			continue
		case isDigit(b):
			start := i
			for i < end && (isIdentPart(source[i])) {
				i++
			}
			emit(tokenInteger, start, i, col)
			tok := &tokens[len(tokens)-1]
			if v, err := strconv.ParseInt(tok.text, 0, 64); errors.Is(err, strconv.ErrRange) {
				tok.typ, tok.err = tokenInvalid, fmt.Errorf("%w: %s", ErrIntegerOutOfRange, tok.text)
			} else if err != nil {
				tok.typ, tok.err = tokenInvalid, fmt.Errorf("invalid integer %s", tok.text)
			} else {
				tok.val = v
			}
			col += uint32(i - start)
			continue
		case (b == '<' || b == '>') && i+1 < end && source[i+1] == b:
			typ := tokenShl
			if b == '>' {
				typ = tokenShr
			}
			emit(typ, i, i+2, col)
			i += 2
			col += 2
			continue
		case singleByteTokens[b] != tokenInvalid:
			emit(singleByteTokens[b], i, i+1, col)
		default:
			emit(tokenInvalid, i, i+1, col)
			tokens[len(tokens)-1].err = fmt.Errorf("unexpected character %q", b)
		}
		i++
		col++
	}

	if n := len(tokens); n == 0 || tokens[n-1].typ != tokenEndOfStatement {
		emit(tokenEndOfStatement, end, end, col)
		tokens[len(tokens)-1].end = tokens[len(tokens)-1].pos
	}
	tokens = append(tokens, token{typ: tokenEOF, pos: asm.Pos{Line: line, Col: col}, end: asm.Pos{Line: line, Col: col}})
	return tokens
}
