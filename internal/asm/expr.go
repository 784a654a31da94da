package asm

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrNotConstant is returned by Expr.Evaluate for an expression which references a symbol.
	ErrNotConstant = errors.New("expression is not constant")

	// ErrOverflow is returned by Expr.Evaluate when an intermediate value does not fit in 64 bits.
	ErrOverflow = errors.New("value does not fit in 64 bits")

	ErrDivideByZero = errors.New("division by zero")
	ErrInvalidShift = errors.New("negative shift amount")
)

// Expr is an assembler expression: a constant, a symbol reference, or an arithmetic combination of both.
//
// Expressions are immutable and may be shared between operands. Symbolic expressions are left for the encoder or
// linker to resolve.
type Expr interface {
	fmt.Stringer
	// Evaluate folds the expression into a constant. The error is ErrNotConstant when it references a symbol.
	// Arithmetic never wraps: a result outside the int64 range is ErrOverflow.
	Evaluate() (int64, error)
	expr()
}

// ConstExpr is an integer constant.
type ConstExpr struct {
	Value int64
}

// SymbolRefExpr references a label or an external symbol by name.
type SymbolRefExpr struct {
	Name string
}

// UnaryExpr is a prefix operation: '-', '+', '~'.
type UnaryExpr struct {
	Op byte
	X  Expr
}

// BinaryOp is the operator of a BinaryExpr.
type BinaryOp byte

const (
	BinaryOpAdd BinaryOp = iota
	BinaryOpSub
	BinaryOpMul
	BinaryOpDiv
	BinaryOpMod
	BinaryOpAnd
	BinaryOpOr
	BinaryOpXor
	BinaryOpShl
	BinaryOpShr
)

var binaryOpNames = [...]string{
	BinaryOpAdd: "+",
	BinaryOpSub: "-",
	BinaryOpMul: "*",
	BinaryOpDiv: "/",
	BinaryOpMod: "%",
	BinaryOpAnd: "&",
	BinaryOpOr:  "|",
	BinaryOpXor: "^",
	BinaryOpShl: "<<",
	BinaryOpShr: ">>",
}

// String implements fmt.Stringer.
func (o BinaryOp) String() string { return binaryOpNames[o] }

// BinaryExpr is an infix operation.
type BinaryExpr struct {
	Op   BinaryOp
	X, Y Expr
}

// Const is a convenience for &ConstExpr{Value: v}.
func Const(v int64) *ConstExpr { return &ConstExpr{Value: v} }

// Symbol is a convenience for &SymbolRefExpr{Name: name}.
func Symbol(name string) *SymbolRefExpr { return &SymbolRefExpr{Name: name} }

func (*ConstExpr) expr()     {}
func (*SymbolRefExpr) expr() {}
func (*UnaryExpr) expr()     {}
func (*BinaryExpr) expr()    {}

// Evaluate implements Expr.Evaluate.
func (e *ConstExpr) Evaluate() (int64, error) { return e.Value, nil }

// Evaluate implements Expr.Evaluate.
func (e *SymbolRefExpr) Evaluate() (int64, error) { return 0, ErrNotConstant }

// Evaluate implements Expr.Evaluate.
func (e *UnaryExpr) Evaluate() (int64, error) {
	x, err := e.X.Evaluate()
	if err != nil {
		return 0, err
	}
	switch e.Op {
	case '-':
		if x == math.MinInt64 {
			return 0, fmt.Errorf("%w: -(%d)", ErrOverflow, x)
		}
		return -x, nil
	case '+':
		return x, nil
	case '~':
		return ^x, nil
	}
	panic(fmt.Sprintf("BUG: invalid unary operator %q", e.Op))
}

// Evaluate implements Expr.Evaluate.
func (e *BinaryExpr) Evaluate() (int64, error) {
	x, errX := e.X.Evaluate()
	y, errY := e.Y.Evaluate()
	// Errors other than ErrNotConstant win, so that a symbolic operand does not hide an overflow in the other one.
	for _, err := range [...]error{errX, errY} {
		if err != nil && !errors.Is(err, ErrNotConstant) {
			return 0, err
		}
	}
	if errX != nil {
		return 0, errX
	}
	if errY != nil {
		return 0, errY
	}

	overflow := func() (int64, error) {
		return 0, fmt.Errorf("%w: %d%s%d", ErrOverflow, x, e.Op, y)
	}
	switch e.Op {
	case BinaryOpAdd:
		if (y > 0 && x > math.MaxInt64-y) || (y < 0 && x < math.MinInt64-y) {
			return overflow()
		}
		return x + y, nil
	case BinaryOpSub:
		if (y < 0 && x > math.MaxInt64+y) || (y > 0 && x < math.MinInt64+y) {
			return overflow()
		}
		return x - y, nil
	case BinaryOpMul:
		if x == 0 || y == 0 {
			return 0, nil
		}
		p := x * y
		if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return overflow()
		}
		return p, nil
	case BinaryOpDiv:
		if y == 0 {
			return 0, ErrDivideByZero
		}
		if x == math.MinInt64 && y == -1 {
			return overflow()
		}
		return x / y, nil
	case BinaryOpMod:
		if y == 0 {
			return 0, ErrDivideByZero
		}
		return x % y, nil
	case BinaryOpAnd:
		return x & y, nil
	case BinaryOpOr:
		return x | y, nil
	case BinaryOpXor:
		return x ^ y, nil
	case BinaryOpShl:
		if y < 0 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidShift, y)
		}
		if x == 0 {
			return 0, nil
		}
		if y > 63 || (x<<uint(y))>>uint(y) != x {
			return overflow()
		}
		return x << uint(y), nil
	case BinaryOpShr:
		if y < 0 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidShift, y)
		}
		return x >> uint(y), nil
	}
	panic(fmt.Sprintf("BUG: invalid binary operator %d", e.Op))
}

// String implements fmt.Stringer.
func (e *ConstExpr) String() string { return strconv.FormatInt(e.Value, 10) }

// String implements fmt.Stringer.
func (e *SymbolRefExpr) String() string { return e.Name }

// String implements fmt.Stringer.
func (e *UnaryExpr) String() string { return string(e.Op) + parenthesize(e.X) }

// String implements fmt.Stringer.
func (e *BinaryExpr) String() string {
	return parenthesize(e.X) + e.Op.String() + parenthesize(e.Y)
}

func parenthesize(e Expr) string {
	switch e.(type) {
	case *BinaryExpr:
		return "(" + e.String() + ")"
	case *ConstExpr:
		if s := e.String(); s[0] == '-' {
			return "(" + s + ")"
		}
	}
	return e.String()
}

// Symbols returns the names of the symbols referenced by e, in order of appearance.
func Symbols(e Expr) (names []string) {
	switch e := e.(type) {
	case *SymbolRefExpr:
		names = append(names, e.Name)
	case *UnaryExpr:
		names = append(names, Symbols(e.X)...)
	case *BinaryExpr:
		names = append(names, Symbols(e.X)...)
		names = append(names, Symbols(e.Y)...)
	}
	return
}

// EvaluateWith folds e like Expr.Evaluate, resolving symbols with lookup. The error is ErrNotConstant when lookup
// does not know one of them.
func EvaluateWith(e Expr, lookup func(name string) (int64, bool)) (int64, error) {
	return bind(e, lookup).Evaluate()
}

// bind replaces the symbols known to lookup with their values.
func bind(e Expr, lookup func(name string) (int64, bool)) Expr {
	switch e := e.(type) {
	case *SymbolRefExpr:
		if v, ok := lookup(e.Name); ok {
			return Const(v)
		}
	case *UnaryExpr:
		return &UnaryExpr{Op: e.Op, X: bind(e.X, lookup)}
	case *BinaryExpr:
		return &BinaryExpr{Op: e.Op, X: bind(e.X, lookup), Y: bind(e.Y, lookup)}
	}
	return e
}
