// Package analyzer resolves a parse tree against a metadata catalog and a
// function registry, producing an annotated tree and the output column
// schema of the query. It fails on the first unresolvable identifier; no
// partially annotated tree ever leaves this package.
package analyzer

import (
	"strconv"
	"strings"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

// MaxDepth bounds subquery nesting during annotation.
const MaxDepth = 64

// Annotator resolves identifiers and types for one catalog snapshot. It
// holds no per-query state, so one Annotator may serve concurrent
// compilations as long as the snapshot and registry stay untouched.
type Annotator struct {
	Catalog   *sql.Catalog
	Functions *sql.FunctionRegistry
}

// New creates an Annotator over a catalog snapshot and function registry.
func New(catalog *sql.Catalog, functions *sql.FunctionRegistry) *Annotator {
	return &Annotator{Catalog: catalog, Functions: functions}
}

// Annotate resolves the query tree. On success the returned tree has
// every column reference bound to a catalog column, every function call
// bound to a signature, and a result schema on each query node.
func (a *Annotator) Annotate(ctx *sql.Context, q ast.QueryExpression) (ast.QueryExpression, error) {
	span, ctx := ctx.Span("annotate")
	defer span.Finish()

	annotated, err := a.annotateQuery(ctx, q, nil, 0)
	if err != nil {
		return nil, err
	}
	ctx.Logger().WithField("catalog", a.Catalog.Version()).
		Debugf("annotated query with %d output columns", len(annotated.Schema()))
	return annotated, nil
}

func (a *Annotator) annotateQuery(ctx *sql.Context, q ast.QueryExpression, outer *scope, depth int) (ast.QueryExpression, error) {
	if depth > MaxDepth {
		return nil, sql.ErrRecursionLimit.New(MaxDepth)
	}

	switch q := q.(type) {
	case *ast.SelectQuery:
		return a.annotateSelect(ctx, q, outer, depth)

	case *ast.SetOp:
		left, err := a.annotateQuery(ctx, q.Left, outer, depth+1)
		if err != nil {
			return nil, err
		}
		right, err := a.annotateQuery(ctx, q.Right, outer, depth+1)
		if err != nil {
			return nil, err
		}
		if len(left.Schema()) != len(right.Schema()) {
			return nil, sql.ErrTypeMismatch.New(
				"set operation operands have different column counts")
		}
		n := *q
		n.Left, n.Right = left, right
		return &n, nil
	}
	return nil, sql.ErrInternalMorph.New("unknown query node")
}

func (a *Annotator) annotateSelect(ctx *sql.Context, q *ast.SelectQuery, outer *scope, depth int) (*ast.SelectQuery, error) {
	n := *q

	// Resolve the FROM clause first; it defines the scope everything
	// else resolves in.
	from, s, err := a.resolveFrom(ctx, n.From, outer, depth)
	if err != nil {
		return nil, err
	}
	n.From = from

	items, err := a.expandStars(n.Items, s)
	if err != nil {
		return nil, err
	}

	resolved := make([]*ast.SelectItem, len(items))
	for i, item := range items {
		e, err := a.resolveExpr(ctx, s, item.Expr, depth)
		if err != nil {
			return nil, err
		}
		resolved[i] = &ast.SelectItem{Expr: e, Alias: item.Alias}
	}
	n.Items = resolved

	if n.Where != nil {
		w, err := a.resolveExpr(ctx, s, n.Where, depth)
		if err != nil {
			return nil, err
		}
		if hasAggregate(w) {
			return nil, sql.ErrUnsupportedFeature.New("aggregate function in WHERE")
		}
		n.Where = w
	}

	if len(n.GroupBy) > 0 {
		keys := make([]ast.Expr, len(n.GroupBy))
		for i, g := range n.GroupBy {
			k, err := a.resolveExpr(ctx, s, g, depth)
			if err != nil {
				return nil, err
			}
			keys[i] = k
		}
		n.GroupBy = keys
		if err := validateGrouping(n.Items, keys); err != nil {
			return nil, err
		}
	}

	if n.Having != nil {
		h, err := a.resolveExpr(ctx, s, n.Having, depth)
		if err != nil {
			return nil, err
		}
		n.Having = h
	}

	order := make([]*ast.SortField, len(n.OrderBy))
	for i, sf := range n.OrderBy {
		nsf := *sf
		if nsf.Ordinal > 0 {
			if nsf.Ordinal > len(n.Items) {
				return nil, sql.ErrUnknownColumn.New(strconv.Itoa(nsf.Ordinal))
			}
		} else if aliased := sortAlias(n.Items, nsf.Expr); aliased != nil {
			nsf.Expr = aliased
		} else {
			e, err := a.resolveExpr(ctx, s, nsf.Expr, depth)
			if err != nil {
				return nil, err
			}
			nsf.Expr = e
		}
		order[i] = &nsf
	}
	n.OrderBy = order

	n.ResultColumns = buildSchema(n.Items)
	return &n, nil
}

// sortAlias resolves a bare sort key against the select list aliases,
// which take precedence over input columns the way they do in the
// backend. It returns nil when the key names no alias.
func sortAlias(items []*ast.SelectItem, e ast.Expr) ast.Expr {
	ref, ok := e.(*ast.ColumnRef)
	if !ok || ref.Table != "" {
		return nil
	}
	for _, item := range items {
		if item.Alias == "" {
			continue
		}
		if ref.Quoted {
			if item.Alias == ref.Name {
				return item.Expr
			}
		} else if strings.EqualFold(item.Alias, ref.Name) {
			return item.Expr
		}
	}
	return nil
}

// resolveFrom resolves every table expression and builds the scope the
// rest of the query is annotated in.
func (a *Annotator) resolveFrom(ctx *sql.Context, from []ast.TableExpr, outer *scope, depth int) ([]ast.TableExpr, *scope, error) {
	s := &scope{parent: outer}
	resolved := make([]ast.TableExpr, len(from))
	for i, te := range from {
		r, err := a.resolveTableExpr(ctx, te, s, depth)
		if err != nil {
			return nil, nil, err
		}
		resolved[i] = r
	}
	return resolved, s, nil
}

func (a *Annotator) resolveTableExpr(ctx *sql.Context, te ast.TableExpr, s *scope, depth int) (ast.TableExpr, error) {
	switch te := te.(type) {
	case *ast.TableRef:
		table, err := a.Catalog.Table(te.Name)
		if err != nil {
			return nil, err
		}
		n := *te
		n.Table = table
		if err := s.addFrame(n.RefName(), n.RefQuoted(), table.Columns); err != nil {
			return nil, err
		}
		return &n, nil

	case *ast.SubqueryRef:
		sub, err := a.annotateQuery(ctx, te.Query, s.parent, depth+1)
		if err != nil {
			return nil, err
		}
		n := *te
		n.Query = sub
		cols := make(sql.Schema, len(sub.Schema()))
		for i, oc := range sub.Schema() {
			cols[i] = &sql.Column{
				Name:   oc.Name,
				Source: n.Alias,
				Type:   oc.Type,
				Unit:   oc.Unit,
				UCD:    oc.UCD,
			}
		}
		if err := s.addFrame(n.Alias, n.AliasQuoted, cols); err != nil {
			return nil, err
		}
		return &n, nil

	case *ast.Join:
		left, err := a.resolveTableExpr(ctx, te.Left, s, depth)
		if err != nil {
			return nil, err
		}
		right, err := a.resolveTableExpr(ctx, te.Right, s, depth)
		if err != nil {
			return nil, err
		}
		n := *te
		n.Left, n.Right = left, right

		if len(n.Using) > 0 || n.Natural {
			if err := s.markShared(left, right, n.Using, n.Natural); err != nil {
				return nil, err
			}
		}
		if n.On != nil {
			on, err := a.resolveExpr(ctx, s, n.On, depth)
			if err != nil {
				return nil, err
			}
			n.On = on
		}
		return &n, nil
	}
	return nil, sql.ErrInternalMorph.New("unknown table expression")
}
