package shellapi

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

// BasicArith is a default ArithmeticEvaluator for callers that don't need
// bash's full arithmetic grammar (assignment operators, pre/post ++/--,
// the comma operator): bash's C-style operator precedence is close enough
// to Go's that parsing the expression with go/parser and walking the
// resulting expression tree covers the common case — binary and unary
// arithmetic, comparisons, bitwise operators, short-circuiting &&/||, and
// parenthesisation — without hand-rolling a second expression grammar
// next to the one already parsed out of "$((...))" words.
type BasicArith struct{}

func (BasicArith) Eval(ctx context.Context, expression string, vars VariableStore) (int64, error) {
	expr, err := parser.ParseExpr(expression)
	if err != nil {
		return 0, fmt.Errorf("shellapi: arithmetic syntax error: %w", err)
	}
	return evalArithExpr(expr, vars)
}

func evalArithExpr(e ast.Expr, vars VariableStore) (int64, error) {
	switch n := e.(type) {
	case *ast.ParenExpr:
		return evalArithExpr(n.X, vars)

	case *ast.BasicLit:
		if n.Kind != token.INT {
			return 0, fmt.Errorf("shellapi: non-integer literal %q", n.Value)
		}
		return strconv.ParseInt(n.Value, 0, 64)

	case *ast.Ident:
		v := vars.Get(n.Name)
		if !v.IsSet() {
			return 0, nil
		}
		s := v.Scalar()
		if s == "" {
			return 0, nil
		}
		return strconv.ParseInt(s, 10, 64)

	case *ast.UnaryExpr:
		x, err := evalArithExpr(n.X, vars)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.SUB:
			return -x, nil
		case token.ADD:
			return x, nil
		case token.XOR:
			return ^x, nil
		case token.NOT:
			return boolToInt(x == 0), nil
		}
		return 0, fmt.Errorf("shellapi: unsupported unary operator %s", n.Op)

	case *ast.BinaryExpr:
		return evalArithBinary(n, vars)
	}
	return 0, fmt.Errorf("shellapi: unsupported arithmetic expression %T", e)
}

func evalArithBinary(n *ast.BinaryExpr, vars VariableStore) (int64, error) {
	if n.Op == token.LAND || n.Op == token.LOR {
		x, err := evalArithExpr(n.X, vars)
		if err != nil {
			return 0, err
		}
		if n.Op == token.LAND && x == 0 {
			return 0, nil
		}
		if n.Op == token.LOR && x != 0 {
			return 1, nil
		}
		y, err := evalArithExpr(n.Y, vars)
		if err != nil {
			return 0, err
		}
		return boolToInt(y != 0), nil
	}

	x, err := evalArithExpr(n.X, vars)
	if err != nil {
		return 0, err
	}
	y, err := evalArithExpr(n.Y, vars)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case token.ADD:
		return x + y, nil
	case token.SUB:
		return x - y, nil
	case token.MUL:
		return x * y, nil
	case token.QUO:
		if y == 0 {
			return 0, fmt.Errorf("shellapi: division by zero")
		}
		return x / y, nil
	case token.REM:
		if y == 0 {
			return 0, fmt.Errorf("shellapi: division by zero")
		}
		return x % y, nil
	case token.AND:
		return x & y, nil
	case token.OR:
		return x | y, nil
	case token.XOR:
		return x ^ y, nil
	case token.SHL:
		return x << uint(y), nil
	case token.SHR:
		return x >> uint(y), nil
	case token.EQL:
		return boolToInt(x == y), nil
	case token.NEQ:
		return boolToInt(x != y), nil
	case token.LSS:
		return boolToInt(x < y), nil
	case token.LEQ:
		return boolToInt(x <= y), nil
	case token.GTR:
		return boolToInt(x > y), nil
	case token.GEQ:
		return boolToInt(x >= y), nil
	}
	return 0, fmt.Errorf("shellapi: unsupported binary operator %s", n.Op)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
