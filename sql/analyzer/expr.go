package analyzer

import (
	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

// resolveExpr annotates an expression bottom up. Every returned node has
// a FieldInfo; any resolution failure aborts the whole annotation.
func (a *Annotator) resolveExpr(ctx *sql.Context, s *scope, e ast.Expr, depth int) (ast.Expr, error) {
	switch e := e.(type) {
	case *ast.ColumnRef:
		if e.Col != nil {
			// Star expansion binds its references directly.
			return e, nil
		}
		n := *e
		if e.Table != "" {
			col, f, err := s.lookupQualified(e.Table, e.Name)
			if err != nil {
				return nil, err
			}
			// The frame name is the canonical qualifier; rewriting to
			// it keeps the reference consistent with the FROM clause,
			// delimited aliases included.
			n.Table = f.name
			n.TableQuoted = f.quoted
			n.Col = col
		} else {
			col, err := s.lookupUnqualified(e.Name)
			if err != nil {
				return nil, err
			}
			n.Col = col
		}
		n.Meta = n.Col.FieldInfo()
		return &n, nil

	case *ast.Literal:
		return e, nil

	case *ast.Star:
		return nil, sql.ErrInternalMorph.New("star not expanded before resolution")

	case *ast.FunctionCall:
		return a.resolveFunctionCall(ctx, s, e, depth)

	case *ast.Geometry:
		return a.resolveGeometry(ctx, s, e, depth)

	case *ast.UnaryExpr:
		operand, err := a.resolveExpr(ctx, s, e.Operand, depth)
		if err != nil {
			return nil, err
		}
		if !sql.IsNumeric(operand.Info().Type) && !sql.IsNull(operand.Info().Type) {
			return nil, sql.ErrTypeMismatch.New("sign applied to " + operand.Info().Type.Name())
		}
		n := *e
		n.Operand = operand
		n.Meta = operand.Info()
		return &n, nil

	case *ast.BinaryExpr:
		left, err := a.resolveExpr(ctx, s, e.Left, depth)
		if err != nil {
			return nil, err
		}
		right, err := a.resolveExpr(ctx, s, e.Right, depth)
		if err != nil {
			return nil, err
		}
		n := *e
		n.Left, n.Right = left, right
		n.Meta, err = combineOperands(e.Op, left.Info(), right.Info())
		if err != nil {
			return nil, err
		}
		return &n, nil

	case *ast.Comparison:
		left, err := a.resolveExpr(ctx, s, e.Left, depth)
		if err != nil {
			return nil, err
		}
		right, err := a.resolveExpr(ctx, s, e.Right, depth)
		if err != nil {
			return nil, err
		}
		if !sql.Comparable(left.Info().Type, right.Info().Type) {
			return nil, sql.ErrTypeMismatch.New(
				"cannot compare " + left.Info().Type.Name() + " with " + right.Info().Type.Name())
		}
		n := *e
		n.Left, n.Right = left, right
		n.Meta = sql.NewFieldInfo(sql.Boolean)
		return &n, nil

	case *ast.Not:
		child, err := a.resolveExpr(ctx, s, e.Child, depth)
		if err != nil {
			return nil, err
		}
		n := *e
		n.Child = child
		n.Meta = sql.NewFieldInfo(sql.Boolean)
		return &n, nil

	case *ast.And:
		left, err := a.resolveExpr(ctx, s, e.Left, depth)
		if err != nil {
			return nil, err
		}
		right, err := a.resolveExpr(ctx, s, e.Right, depth)
		if err != nil {
			return nil, err
		}
		n := *e
		n.Left, n.Right = left, right
		n.Meta = sql.NewFieldInfo(sql.Boolean)
		return &n, nil

	case *ast.Or:
		left, err := a.resolveExpr(ctx, s, e.Left, depth)
		if err != nil {
			return nil, err
		}
		right, err := a.resolveExpr(ctx, s, e.Right, depth)
		if err != nil {
			return nil, err
		}
		n := *e
		n.Left, n.Right = left, right
		n.Meta = sql.NewFieldInfo(sql.Boolean)
		return &n, nil

	case *ast.Between:
		operand, err := a.resolveExpr(ctx, s, e.Operand, depth)
		if err != nil {
			return nil, err
		}
		lo, err := a.resolveExpr(ctx, s, e.Lo, depth)
		if err != nil {
			return nil, err
		}
		hi, err := a.resolveExpr(ctx, s, e.Hi, depth)
		if err != nil {
			return nil, err
		}
		for _, b := range []ast.Expr{lo, hi} {
			if !sql.Comparable(operand.Info().Type, b.Info().Type) {
				return nil, sql.ErrTypeMismatch.New(
					"BETWEEN bound of type " + b.Info().Type.Name())
			}
		}
		n := *e
		n.Operand, n.Lo, n.Hi = operand, lo, hi
		n.Meta = sql.NewFieldInfo(sql.Boolean)
		return &n, nil

	case *ast.InList:
		operand, err := a.resolveExpr(ctx, s, e.Operand, depth)
		if err != nil {
			return nil, err
		}
		n := *e
		n.Operand = operand
		if e.Subquery != nil {
			sub, err := a.annotateQuery(ctx, e.Subquery, s, depth+1)
			if err != nil {
				return nil, err
			}
			if len(sub.Schema()) != 1 {
				return nil, sql.ErrTypeMismatch.New("IN subquery must yield exactly one column")
			}
			n.Subquery = sub
		} else {
			values := make([]ast.Expr, len(e.Values))
			for i, v := range e.Values {
				rv, err := a.resolveExpr(ctx, s, v, depth)
				if err != nil {
					return nil, err
				}
				if !sql.Comparable(operand.Info().Type, rv.Info().Type) {
					return nil, sql.ErrTypeMismatch.New(
						"IN list value of type " + rv.Info().Type.Name())
				}
				values[i] = rv
			}
			n.Values = values
		}
		n.Meta = sql.NewFieldInfo(sql.Boolean)
		return &n, nil

	case *ast.Like:
		operand, err := a.resolveExpr(ctx, s, e.Operand, depth)
		if err != nil {
			return nil, err
		}
		pattern, err := a.resolveExpr(ctx, s, e.Pattern, depth)
		if err != nil {
			return nil, err
		}
		for _, c := range []ast.Expr{operand, pattern} {
			t := c.Info().Type
			if !sql.IsNull(t) && t != sql.Text {
				return nil, sql.ErrTypeMismatch.New("LIKE requires text operands")
			}
		}
		n := *e
		n.Operand, n.Pattern = operand, pattern
		n.Meta = sql.NewFieldInfo(sql.Boolean)
		return &n, nil

	case *ast.NullCheck:
		operand, err := a.resolveExpr(ctx, s, e.Operand, depth)
		if err != nil {
			return nil, err
		}
		n := *e
		n.Operand = operand
		n.Meta = sql.NewFieldInfo(sql.Boolean)
		return &n, nil

	case *ast.Exists:
		sub, err := a.annotateQuery(ctx, e.Subquery, s, depth+1)
		if err != nil {
			return nil, err
		}
		n := *e
		n.Subquery = sub
		n.Meta = sql.NewFieldInfo(sql.Boolean)
		return &n, nil
	}
	return nil, sql.ErrInternalMorph.New("unknown expression node")
}

func (a *Annotator) resolveFunctionCall(ctx *sql.Context, s *scope, e *ast.FunctionCall, depth int) (ast.Expr, error) {
	n := *e

	if e.Star {
		// COUNT(*) has no argument to type.
		sig, err := a.Functions.Function(e.Name, []sql.Type{sql.Double})
		if err != nil {
			return nil, err
		}
		n.Sig = sig
		n.Meta = &sql.FieldInfo{Type: sig.Return, Unit: sig.Unit, UCD: sig.UCD}
		return &n, nil
	}

	args := make([]ast.Expr, len(e.Args))
	types := make([]sql.Type, len(e.Args))
	for i, arg := range e.Args {
		ra, err := a.resolveExpr(ctx, s, arg, depth)
		if err != nil {
			return nil, err
		}
		args[i] = ra
		types[i] = ra.Info().Type
	}

	sig, err := a.Functions.Function(e.Name, types)
	if err != nil {
		return nil, err
	}

	n.Args = args
	n.Sig = sig
	n.Meta = &sql.FieldInfo{Type: sig.Return, Unit: sig.Unit, UCD: sig.UCD}

	// DISTANCE and friends return degrees whatever their inputs; plain
	// math keeps the single input's unit only for functions that do not
	// change dimension (ABS and the rounding family).
	if sig.Unit == "" && len(args) == 1 && preservesUnit(sig.Name) {
		n.Meta.Unit = args[0].Info().Unit
		n.Meta.UCD = args[0].Info().UCD
	}
	return &n, nil
}

func preservesUnit(name string) bool {
	switch name {
	case "ABS", "CEILING", "FLOOR", "ROUND", "TRUNCATE", "MIN", "MAX", "AVG", "SUM":
		return true
	}
	return false
}

func (a *Annotator) resolveGeometry(ctx *sql.Context, s *scope, e *ast.Geometry, depth int) (ast.Expr, error) {
	args := make([]ast.Expr, len(e.Args))
	for i, arg := range e.Args {
		ra, err := a.resolveExpr(ctx, s, arg, depth)
		if err != nil {
			return nil, err
		}
		t := ra.Info().Type
		if e.Kind != ast.GeomRegion && !sql.IsNumeric(t) && !sql.IsNull(t) {
			return nil, sql.ErrTypeMismatch.New(
				e.Kind.String() + " coordinate of type " + t.Name())
		}
		args[i] = ra
	}

	var t sql.Type
	switch e.Kind {
	case ast.GeomPoint:
		t = sql.Point
	case ast.GeomCircle:
		t = sql.Circle
	case ast.GeomBox, ast.GeomPolygon:
		// The backend has no spherical box; both become polygons.
		t = sql.Polygon
	case ast.GeomRegion:
		t = sql.Region
	default:
		return nil, sql.ErrInternalMorph.New("unknown geometry kind")
	}

	n := *e
	n.Args = args
	n.Meta = &sql.FieldInfo{Type: t, Unit: "deg", CoordSys: e.CoordSys}
	return &n, nil
}

// combineOperands derives the annotation of an arithmetic or
// concatenation expression from its operands.
func combineOperands(op string, left, right *sql.FieldInfo) (*sql.FieldInfo, error) {
	if op == "||" {
		for _, fi := range []*sql.FieldInfo{left, right} {
			if !sql.IsNull(fi.Type) && fi.Type != sql.Text {
				return nil, sql.ErrTypeMismatch.New("|| requires text operands")
			}
		}
		return sql.NewFieldInfo(sql.Text), nil
	}
	for _, fi := range []*sql.FieldInfo{left, right} {
		if !sql.IsNumeric(fi.Type) && !sql.IsNull(fi.Type) {
			return nil, sql.ErrTypeMismatch.New(
				op + " applied to " + fi.Type.Name())
		}
	}
	if op == "*" || op == "/" {
		return sql.CombineMultiplicative(op, left, right), nil
	}
	return sql.CombineAdditive(left, right), nil
}
