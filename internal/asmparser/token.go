package asmparser

import (
	"fmt"

	"github.com/tetratelabs/nyuzi/internal/asm"
)

// tokenType is the kind of a lexical token of assembly source.
type tokenType byte

const (
	tokenInvalid tokenType = iota
	// tokenEOF ends the token stream.
	tokenEOF
	// tokenEndOfStatement is a newline or ';'.
	tokenEndOfStatement
	// tokenIdentifier is a mnemonic, register, label, symbol or directive: a letter, '_', '.' or '$' followed by
	// any of those or digits.
	tokenIdentifier
	// tokenInteger is an unsigned decimal, hexadecimal (0x), binary (0b) or octal (leading 0) literal.
	tokenInteger
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPercent
	tokenAmp
	tokenPipe
	tokenCaret
	tokenTilde
	tokenShl
	tokenShr
	tokenLParen
	tokenRParen
	tokenComma
	tokenColon
)

var tokenNames = [...]string{
	tokenInvalid:        "invalid",
	tokenEOF:            "end of input",
	tokenEndOfStatement: "end of statement",
	tokenIdentifier:     "identifier",
	tokenInteger:        "integer",
	tokenPlus:           "'+'",
	tokenMinus:          "'-'",
	tokenStar:           "'*'",
	tokenSlash:          "'/'",
	tokenPercent:        "'%'",
	tokenAmp:            "'&'",
	tokenPipe:           "'|'",
	tokenCaret:          "'^'",
	tokenTilde:          "'~'",
	tokenShl:            "'<<'",
	tokenShr:            "'>>'",
	tokenLParen:         "'('",
	tokenRParen:         "')'",
	tokenComma:          "','",
	tokenColon:          "':'",
}

// String returns the name of the token type, used in error messages.
func (t tokenType) String() string {
	return tokenNames[t]
}

// token is one lexical token.
type token struct {
	typ  tokenType
	text string
	// val is the value of a tokenInteger.
	val int64
	// pos is the location of the first character, end of the last.
	pos, end asm.Pos
	// err explains a tokenInvalid.
	err error
}

// String implements fmt.Stringer.
func (t token) String() string {
	switch t.typ {
	case tokenIdentifier, tokenInteger:
		return fmt.Sprintf("%s %s", t.typ, t.text)
	}
	return t.typ.String()
}
