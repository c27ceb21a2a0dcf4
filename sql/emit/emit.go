// Package emit renders a morphed query tree into Postgres SQL.
// Rendering is deterministic: the same tree always produces the same
// string and the same parameter list.
package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

// Emit renders q. Scalar literals become positional parameters ($1, $2,
// ...) in tree order; literals inside backend calls are inlined since
// index-backed functions like q3c_radial_query only plan well with
// constant arguments.
func Emit(ctx *sql.Context, q ast.QueryExpression) (string, []interface{}, error) {
	span, ctx := ctx.Span("emit")
	defer span.Finish()

	r := &renderer{}
	if err := r.queryExpr(q); err != nil {
		return "", nil, err
	}
	sqlText := r.b.String()
	ctx.Logger().WithField("parameters", len(r.params)).Debug("query rendered")
	return sqlText, r.params, nil
}

type renderer struct {
	b      strings.Builder
	params []interface{}
	inline int
}

func (r *renderer) write(s string) { r.b.WriteString(s) }

func (r *renderer) writef(f string, a ...interface{}) { fmt.Fprintf(&r.b, f, a...) }

func (r *renderer) queryExpr(q ast.QueryExpression) error {
	switch q := q.(type) {
	case *ast.SelectQuery:
		return r.selectQuery(q)
	case *ast.SetOp:
		r.write("(")
		if err := r.queryExpr(q.Left); err != nil {
			return err
		}
		r.write(") ")
		r.write(q.Op.String())
		if q.All {
			r.write(" ALL")
		}
		r.write(" (")
		if err := r.queryExpr(q.Right); err != nil {
			return err
		}
		r.write(")")
		return nil
	}
	return sql.ErrInternalMorph.New("unknown query node")
}

func (r *renderer) selectQuery(q *ast.SelectQuery) error {
	r.write("SELECT ")
	if q.Distinct {
		r.write("DISTINCT ")
	}
	for i, item := range q.Items {
		if i > 0 {
			r.write(", ")
		}
		if err := r.expr(item.Expr); err != nil {
			return err
		}
		if item.Alias != "" {
			r.write(" AS ")
			r.write(quoteIfNeeded(item.Alias))
		}
	}

	if len(q.From) > 0 {
		r.write(" FROM ")
		for i, te := range q.From {
			if i > 0 {
				r.write(", ")
			}
			if err := r.tableExpr(te); err != nil {
				return err
			}
		}
	}

	if q.Where != nil {
		r.write(" WHERE ")
		if err := r.expr(q.Where); err != nil {
			return err
		}
	}

	if len(q.GroupBy) > 0 {
		r.write(" GROUP BY ")
		for i, g := range q.GroupBy {
			if i > 0 {
				r.write(", ")
			}
			if err := r.expr(g); err != nil {
				return err
			}
		}
	}

	if q.Having != nil {
		r.write(" HAVING ")
		if err := r.expr(q.Having); err != nil {
			return err
		}
	}

	if len(q.OrderBy) > 0 {
		r.write(" ORDER BY ")
		for i, sf := range q.OrderBy {
			if i > 0 {
				r.write(", ")
			}
			if sf.Ordinal > 0 {
				r.write(strconv.Itoa(sf.Ordinal))
			} else if err := r.expr(sf.Expr); err != nil {
				return err
			}
			if sf.Desc {
				r.write(" DESC")
			}
		}
	}

	if q.Limit != nil {
		r.writef(" LIMIT %d", *q.Limit)
	}
	return nil
}

func (r *renderer) tableExpr(te ast.TableExpr) error {
	switch te := te.(type) {
	case *ast.TableRef:
		r.write(tableName(te.Name))
		if te.Alias != "" {
			r.write(" AS ")
			r.write(aliasName(te.Alias, te.AliasQuoted))
		}
		return nil

	case *ast.SubqueryRef:
		r.write("(")
		if err := r.queryExpr(te.Query); err != nil {
			return err
		}
		r.write(") AS ")
		r.write(aliasName(te.Alias, te.AliasQuoted))
		return nil

	case *ast.Join:
		if err := r.tableExpr(te.Left); err != nil {
			return err
		}
		if te.Natural {
			r.write(" NATURAL")
		}
		r.write(joinWord(te.Type))
		if err := r.tableExpr(te.Right); err != nil {
			return err
		}
		if te.On != nil {
			r.write(" ON ")
			if err := r.expr(te.On); err != nil {
				return err
			}
		}
		if len(te.Using) > 0 {
			r.write(" USING (")
			for i, c := range te.Using {
				if i > 0 {
					r.write(", ")
				}
				r.write(quoteIfNeeded(c))
			}
			r.write(")")
		}
		return nil
	}
	return sql.ErrInternalMorph.New("unknown table expression")
}

func joinWord(t ast.JoinType) string {
	switch t {
	case ast.JoinLeft:
		return " LEFT JOIN "
	case ast.JoinRight:
		return " RIGHT JOIN "
	case ast.JoinFull:
		return " FULL JOIN "
	}
	return " JOIN "
}

func (r *renderer) expr(e ast.Expr) error {
	switch e := e.(type) {
	case *ast.ColumnRef:
		r.write(columnName(e))
		return nil

	case *ast.Literal:
		return r.literal(e)

	case *ast.Call:
		return r.call(e)

	case *ast.FunctionCall:
		return r.functionCall(e)

	case *ast.BinaryExpr:
		r.write("(")
		if err := r.expr(e.Left); err != nil {
			return err
		}
		r.write(" " + e.Op + " ")
		if err := r.expr(e.Right); err != nil {
			return err
		}
		r.write(")")
		return nil

	case *ast.UnaryExpr:
		r.write(e.Op)
		return r.expr(e.Operand)

	case *ast.Comparison:
		if err := r.operand(e.Left); err != nil {
			return err
		}
		r.write(" " + comparisonOp(e.Op) + " ")
		return r.operand(e.Right)

	case *ast.And:
		if err := r.boolOperand(e.Left); err != nil {
			return err
		}
		r.write(" AND ")
		return r.boolOperand(e.Right)

	case *ast.Or:
		if err := r.boolOperand(e.Left); err != nil {
			return err
		}
		r.write(" OR ")
		return r.boolOperand(e.Right)

	case *ast.Not:
		r.write("NOT ")
		return r.boolOperand(e.Child)

	case *ast.Between:
		if err := r.operand(e.Operand); err != nil {
			return err
		}
		if e.Negated {
			r.write(" NOT")
		}
		r.write(" BETWEEN ")
		if err := r.operand(e.Lo); err != nil {
			return err
		}
		r.write(" AND ")
		return r.operand(e.Hi)

	case *ast.InList:
		if err := r.operand(e.Operand); err != nil {
			return err
		}
		if e.Negated {
			r.write(" NOT")
		}
		r.write(" IN (")
		if e.Subquery != nil {
			if err := r.queryExpr(e.Subquery); err != nil {
				return err
			}
		} else {
			for i, v := range e.Values {
				if i > 0 {
					r.write(", ")
				}
				if err := r.expr(v); err != nil {
					return err
				}
			}
		}
		r.write(")")
		return nil

	case *ast.Like:
		if err := r.operand(e.Operand); err != nil {
			return err
		}
		if e.Negated {
			r.write(" NOT")
		}
		r.write(" LIKE ")
		return r.operand(e.Pattern)

	case *ast.NullCheck:
		if err := r.operand(e.Operand); err != nil {
			return err
		}
		if e.Negated {
			r.write(" IS NOT NULL")
		} else {
			r.write(" IS NULL")
		}
		return nil

	case *ast.Exists:
		r.write("EXISTS (")
		if err := r.queryExpr(e.Subquery); err != nil {
			return err
		}
		r.write(")")
		return nil
	}
	return sql.ErrInternalMorph.New(fmt.Sprintf("cannot render %T", e))
}

// operand parenthesizes composite comparison operands so operator
// precedence never depends on the reader.
func (r *renderer) operand(e ast.Expr) error {
	switch e.(type) {
	case *ast.ColumnRef, *ast.Literal, *ast.Call, *ast.FunctionCall:
		return r.expr(e)
	}
	r.write("(")
	if err := r.expr(e); err != nil {
		return err
	}
	r.write(")")
	return nil
}

func (r *renderer) boolOperand(e ast.Expr) error {
	switch e.(type) {
	case *ast.And, *ast.Or:
		r.write("(")
		if err := r.expr(e); err != nil {
			return err
		}
		r.write(")")
		return nil
	}
	return r.expr(e)
}

func comparisonOp(op string) string {
	if op == "!=" {
		return "<>"
	}
	return op
}

// call renders a backend call. Literal arguments inline.
func (r *renderer) call(e *ast.Call) error {
	r.write(e.Name)
	r.write("(")
	r.inline++
	for i, a := range e.Args {
		if i > 0 {
			r.write(", ")
		}
		if err := r.expr(a); err != nil {
			r.inline--
			return err
		}
	}
	r.inline--
	r.write(")")
	return nil
}

// functionCall renders a scalar function through its signature
// template, or as name(args) when the signature has none.
func (r *renderer) functionCall(e *ast.FunctionCall) error {
	if e.Sig == nil {
		return sql.ErrInternalMorph.New("unresolved function " + e.Name)
	}
	if e.Sig.Template == "" {
		r.write(strings.ToLower(e.Name))
		r.write("(")
		if e.Distinct {
			r.write("DISTINCT ")
		}
		if e.Star {
			r.write("*")
		}
		for i, a := range e.Args {
			if i > 0 {
				r.write(", ")
			}
			if err := r.expr(a); err != nil {
				return err
			}
		}
		r.write(")")
		return nil
	}

	// Referenced arguments render in declaration order so the parameter
	// list stays in tree order whatever the template does with them.
	// Arguments the template drops, like the seed of RAND, must not
	// bind parameters either.
	refs := templateRefs(e.Sig.Template, len(e.Args))
	rendered := make([]string, len(e.Args))
	for i, a := range e.Args {
		if !refs[i] {
			continue
		}
		frag, err := r.fragment(a)
		if err != nil {
			return err
		}
		rendered[i] = frag
	}
	r.write(expandTemplate(e.Sig.Template, rendered))
	return nil
}

// templateRefs reports which arguments a template actually mentions.
func templateRefs(tpl string, n int) []bool {
	refs := make([]bool, n)
	for i := 0; i+1 < len(tpl); i++ {
		if tpl[i] != '$' {
			continue
		}
		switch next := tpl[i+1]; {
		case next == '*':
			for j := range refs {
				refs[j] = true
			}
			i++
		case next >= '1' && next <= '9':
			if k := int(next - '1'); k < n {
				refs[k] = true
			}
			i++
		}
	}
	return refs
}

func (r *renderer) fragment(e ast.Expr) (string, error) {
	sub := &renderer{params: r.params, inline: r.inline}
	err := sub.expr(e)
	r.params = sub.params
	return sub.b.String(), err
}

// expandTemplate substitutes $1..$9 and $* in a single pass, so argument
// fragments that themselves contain $N parameter placeholders stay intact.
func expandTemplate(tpl string, args []string) string {
	var b strings.Builder
	for i := 0; i < len(tpl); i++ {
		if tpl[i] != '$' || i+1 == len(tpl) {
			b.WriteByte(tpl[i])
			continue
		}
		next := tpl[i+1]
		switch {
		case next == '*':
			b.WriteString(strings.Join(args, ", "))
			i++
		case next >= '1' && next <= '9':
			n := int(next - '1')
			if n < len(args) {
				b.WriteString(args[n])
			}
			i++
		default:
			b.WriteByte(tpl[i])
		}
	}
	return b.String()
}

func (r *renderer) literal(e *ast.Literal) error {
	if e.Value == nil {
		r.write("NULL")
		return nil
	}
	if r.inline > 0 {
		return r.inlineLiteral(e)
	}
	r.params = append(r.params, e.Value)
	r.writef("$%d", len(r.params))
	return nil
}

func (r *renderer) inlineLiteral(e *ast.Literal) error {
	switch v := e.Value.(type) {
	case string:
		r.write("'" + strings.ReplaceAll(v, "'", "''") + "'")
	case float64:
		r.write(strconv.FormatFloat(v, 'g', -1, 64))
	case int64:
		r.write(strconv.FormatInt(v, 10))
	case int32:
		r.write(strconv.FormatInt(int64(v), 10))
	case int:
		r.write(strconv.Itoa(v))
	case bool:
		if v {
			r.write("TRUE")
		} else {
			r.write("FALSE")
		}
	default:
		return sql.ErrInternalMorph.New(fmt.Sprintf("cannot inline literal %T", e.Value))
	}
	return nil
}

func columnName(e *ast.ColumnRef) string {
	name := strings.ToLower(e.Name)
	quoted := e.Quoted
	if e.Col != nil {
		name = e.Col.Name
		quoted = e.Col.CaseSensitive
		if !quoted {
			name = strings.ToLower(name)
		}
	}
	if quoted {
		name = quoteIdent(name)
	}
	if e.Table != "" {
		qualifier := strings.ToLower(e.Table)
		if e.TableQuoted {
			qualifier = quoteIdent(e.Table)
		}
		return qualifier + "." + name
	}
	return name
}

func tableName(name string) string {
	return strings.ToLower(name)
}

func aliasName(name string, quoted bool) string {
	if quoted {
		return quoteIdent(name)
	}
	return strings.ToLower(name)
}

func quoteIfNeeded(name string) string {
	if name != strings.ToLower(name) || strings.ContainsAny(name, " \"-") {
		return quoteIdent(name)
	}
	return name
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
