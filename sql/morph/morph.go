// Package morph rewrites annotated query trees into trees that only
// use constructs the Postgres backend understands. Geometry
// constructors become pgsphere calls, geometry predicates become
// operators, and foldable arithmetic collapses into literals.
package morph

import (
	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

// Morpher drives the backend rewrite. The zero value is not usable;
// construct one with New.
type Morpher struct {
	Coords *CoordRegistry
}

func New() *Morpher {
	return &Morpher{Coords: NewCoordRegistry()}
}

// Morph rewrites q for the backend. The input tree must be fully
// annotated; unannotated nodes surface as ErrInternalMorph.
func (m *Morpher) Morph(ctx *sql.Context, q ast.QueryExpression) (ast.QueryExpression, error) {
	span, ctx := ctx.Span("morph")
	defer span.Finish()

	out, err := m.morphQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	ctx.Logger().Debug("query morphed for backend")
	return out, nil
}

func (m *Morpher) morphQuery(ctx *sql.Context, q ast.QueryExpression) (ast.QueryExpression, error) {
	switch q := q.(type) {
	case *ast.SelectQuery:
		return m.morphSelect(ctx, q)
	case *ast.SetOp:
		n := *q
		left, err := m.morphQuery(ctx, q.Left)
		if err != nil {
			return nil, err
		}
		right, err := m.morphQuery(ctx, q.Right)
		if err != nil {
			return nil, err
		}
		n.Left, n.Right = left, right
		return &n, nil
	}
	return nil, sql.ErrInternalMorph.New("unknown query node")
}

func (m *Morpher) morphSelect(ctx *sql.Context, q *ast.SelectQuery) (*ast.SelectQuery, error) {
	n := *q

	items := make([]*ast.SelectItem, len(q.Items))
	for i, item := range q.Items {
		e, err := m.morphValue(ctx, item.Expr)
		if err != nil {
			return nil, err
		}
		items[i] = &ast.SelectItem{Expr: e, Alias: item.Alias}
	}
	n.Items = items

	from := make([]ast.TableExpr, len(q.From))
	for i, te := range q.From {
		f, err := m.morphTableExpr(ctx, te)
		if err != nil {
			return nil, err
		}
		from[i] = f
	}
	n.From = from

	if q.Where != nil {
		w, err := m.morphCondition(ctx, q.Where)
		if err != nil {
			return nil, err
		}
		n.Where = w
	}

	groupBy := make([]ast.Expr, len(q.GroupBy))
	for i, g := range q.GroupBy {
		e, err := m.morphValue(ctx, g)
		if err != nil {
			return nil, err
		}
		groupBy[i] = e
	}
	n.GroupBy = groupBy

	if q.Having != nil {
		h, err := m.morphCondition(ctx, q.Having)
		if err != nil {
			return nil, err
		}
		n.Having = h
	}

	orderBy := make([]*ast.SortField, len(q.OrderBy))
	for i, sf := range q.OrderBy {
		nsf := *sf
		if nsf.Expr != nil {
			e, err := m.morphValue(ctx, nsf.Expr)
			if err != nil {
				return nil, err
			}
			nsf.Expr = e
		}
		orderBy[i] = &nsf
	}
	n.OrderBy = orderBy

	return &n, nil
}

func (m *Morpher) morphTableExpr(ctx *sql.Context, te ast.TableExpr) (ast.TableExpr, error) {
	switch te := te.(type) {
	case *ast.TableRef:
		return te, nil
	case *ast.SubqueryRef:
		n := *te
		sub, err := m.morphQuery(ctx, te.Query)
		if err != nil {
			return nil, err
		}
		n.Query = sub
		return &n, nil
	case *ast.Join:
		n := *te
		left, err := m.morphTableExpr(ctx, te.Left)
		if err != nil {
			return nil, err
		}
		right, err := m.morphTableExpr(ctx, te.Right)
		if err != nil {
			return nil, err
		}
		n.Left, n.Right = left, right
		if te.On != nil {
			on, err := m.morphCondition(ctx, te.On)
			if err != nil {
				return nil, err
			}
			n.On = on
		}
		return &n, nil
	}
	return nil, sql.ErrInternalMorph.New("unknown table expression")
}

// morphCondition walks a boolean tree. Geometry predicates are only
// legal here, as comparisons of CONTAINS or INTERSECTS against 0 or 1.
func (m *Morpher) morphCondition(ctx *sql.Context, e ast.Expr) (ast.Expr, error) {
	switch e := e.(type) {
	case *ast.And:
		left, err := m.morphCondition(ctx, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := m.morphCondition(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		n := *e
		n.Left, n.Right = left, right
		return &n, nil
	case *ast.Or:
		left, err := m.morphCondition(ctx, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := m.morphCondition(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		n := *e
		n.Left, n.Right = left, right
		return &n, nil
	case *ast.Not:
		child, err := m.morphCondition(ctx, e.Child)
		if err != nil {
			return nil, err
		}
		n := *e
		n.Child = child
		return &n, nil
	case *ast.Comparison:
		if geo := geoPredicate(e); geo != nil {
			return m.morphGeoPredicate(ctx, geo)
		}
		return m.morphValueChildren(ctx, e)
	case *ast.Exists:
		n := *e
		sub, err := m.morphQuery(ctx, e.Subquery)
		if err != nil {
			return nil, err
		}
		n.Subquery = sub
		return &n, nil
	case *ast.InList:
		if e.Subquery != nil {
			n := *e
			operand, err := m.morphValue(ctx, e.Operand)
			if err != nil {
				return nil, err
			}
			sub, err := m.morphQuery(ctx, e.Subquery)
			if err != nil {
				return nil, err
			}
			n.Operand, n.Subquery = operand, sub
			return &n, nil
		}
		return m.morphValueChildren(ctx, e)
	default:
		return m.morphValueChildren(ctx, e)
	}
}

// morphValueChildren runs the value pipeline over every child of a
// predicate whose own shape survives.
func (m *Morpher) morphValueChildren(ctx *sql.Context, e ast.Expr) (ast.Expr, error) {
	children := e.Children()
	if len(children) == 0 {
		return e, nil
	}
	out := make([]ast.Expr, len(children))
	for i, c := range children {
		mc, err := m.morphValue(ctx, c)
		if err != nil {
			return nil, err
		}
		out[i] = mc
	}
	return e.WithChildren(out...)
}

// morphValue lowers geometry and scalar constructs and folds constant
// arithmetic, bottom up.
func (m *Morpher) morphValue(ctx *sql.Context, e ast.Expr) (ast.Expr, error) {
	e, err := m.alignFrames(e)
	if err != nil {
		return nil, err
	}
	out, _, err := ast.TransformExpr(e, func(e ast.Expr) (ast.Expr, ast.TreeIdentity, error) {
		switch e := e.(type) {
		case *ast.Geometry:
			g, err := m.lowerGeometry(ctx, e)
			if err != nil {
				return nil, ast.SameTree, err
			}
			return g, ast.NewTree, nil
		case *ast.FunctionCall:
			return m.lowerFunction(ctx, e)
		case *ast.BinaryExpr:
			return foldBinary(e)
		case *ast.UnaryExpr:
			return foldUnary(e)
		}
		return e, ast.SameTree, nil
	})
	return out, err
}
