package morph

import (
	"github.com/spf13/cast"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

// foldBinary collapses arithmetic and concatenation over literals.
// Folding keeps the combined annotation so units survive into the
// parameter list.
func foldBinary(e *ast.BinaryExpr) (ast.Expr, ast.TreeIdentity, error) {
	left, lok := e.Left.(*ast.Literal)
	right, rok := e.Right.(*ast.Literal)
	if !lok || !rok {
		return e, ast.SameTree, nil
	}

	if e.Op == "||" {
		ls, err1 := cast.ToStringE(left.Value)
		rs, err2 := cast.ToStringE(right.Value)
		if err1 != nil || err2 != nil {
			return e, ast.SameTree, nil
		}
		return foldedLiteral(e, ls+rs), ast.NewTree, nil
	}

	if li, lerr := toInt(left.Value); lerr == nil {
		if ri, rerr := toInt(right.Value); rerr == nil {
			switch e.Op {
			case "+":
				return foldedLiteral(e, li+ri), ast.NewTree, nil
			case "-":
				return foldedLiteral(e, li-ri), ast.NewTree, nil
			case "*":
				return foldedLiteral(e, li*ri), ast.NewTree, nil
			case "/":
				if ri == 0 {
					// Let the backend raise division by zero.
					return e, ast.SameTree, nil
				}
				// Integer division truncates, the same way the
				// backend divides two integers.
				return foldedLiteral(e, li/ri), ast.NewTree, nil
			}
			return e, ast.SameTree, nil
		}
	}

	lf, err1 := cast.ToFloat64E(left.Value)
	rf, err2 := cast.ToFloat64E(right.Value)
	if err1 != nil || err2 != nil {
		return e, ast.SameTree, nil
	}
	switch e.Op {
	case "+":
		return foldedLiteral(e, lf+rf), ast.NewTree, nil
	case "-":
		return foldedLiteral(e, lf-rf), ast.NewTree, nil
	case "*":
		return foldedLiteral(e, lf*rf), ast.NewTree, nil
	case "/":
		if rf == 0 {
			// Let the backend raise division by zero.
			return e, ast.SameTree, nil
		}
		return foldedLiteral(e, lf/rf), ast.NewTree, nil
	}
	return e, ast.SameTree, nil
}

func foldUnary(e *ast.UnaryExpr) (ast.Expr, ast.TreeIdentity, error) {
	if e.Op == "+" {
		return e.Operand, ast.NewTree, nil
	}
	lit, ok := e.Operand.(*ast.Literal)
	if !ok {
		return e, ast.SameTree, nil
	}
	if i, err := toInt(lit.Value); err == nil {
		return foldedLiteral(e, -i), ast.NewTree, nil
	}
	if f, err := cast.ToFloat64E(lit.Value); err == nil {
		return foldedLiteral(e, -f), ast.NewTree, nil
	}
	return e, ast.SameTree, nil
}

func foldedLiteral(e ast.Expr, v interface{}) *ast.Literal {
	lit := ast.NewLiteral(e.Position(), v, e.Info().Type)
	lit.Meta = e.Info()
	return lit
}

// toInt converts only genuinely integral values; cast.ToInt64E would
// happily truncate floats.
func toInt(v interface{}) (int64, error) {
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	}
	return 0, sql.ErrTypeMismatch.New("not an integer")
}
