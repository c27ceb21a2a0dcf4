// Package parse contains the lexer and recursive descent parser for the
// ADQL dialect: SQL-92 SELECT with TOP, the geometry constructors and the
// extended function set. Parsing is purely syntactic; nothing here touches
// a catalog.
package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/ast"
)

// MaxDepth bounds expression and query nesting so adversarial input
// cannot blow the stack.
const MaxDepth = 64

// Parse turns query text into a syntax tree, or fails with ErrSyntax
// carrying the position of the offending token.
func Parse(ctx *sql.Context, query string) (ast.QueryExpression, error) {
	span, _ := ctx.Span("parse")
	defer span.Finish()

	toks, err := newLexer(query).lex()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	q, err := p.parseQueryExpression()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != EOF {
		return nil, p.errExpected("end of query")
	}
	return q, nil
}

type parser struct {
	toks  []Token
	pos   int
	depth int
}

func (p *parser) cur() Token { return p.toks[p.pos] }

// lookahead returns the token after the current one, or EOF.
func (p *parser) lookahead() Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) matchKeyword(kw string) bool {
	if p.cur().keyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.matchKeyword(kw) {
		return p.errExpected(kw)
	}
	return nil
}

func (p *parser) matchPunct(v string) bool {
	t := p.cur()
	if (t.Kind == Punct || t.Kind == Operator) && t.Val == v {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectPunct(v string) error {
	if !p.matchPunct(v) {
		return p.errExpected(fmt.Sprintf("%q", v))
	}
	return nil
}

func (p *parser) errExpected(what string) error {
	t := p.cur()
	found := t.Val
	if t.Kind == EOF {
		found = "end of query"
	}
	return sql.ErrSyntax.New(t.Pos.Line, t.Pos.Col,
		fmt.Sprintf("expected %s, found %q", what, found))
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return sql.ErrRecursionLimit.New(MaxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// ident consumes an identifier token. Regular identifiers may not be
// reserved words; delimited ones may be anything.
func (p *parser) ident() (string, bool, error) {
	t := p.cur()
	switch t.Kind {
	case Delimited:
		p.advance()
		return t.Val, true, nil
	case Identifier:
		if isReserved(t.Val) {
			return "", false, p.errExpected("identifier")
		}
		p.advance()
		return t.Val, false, nil
	}
	return "", false, p.errExpected("identifier")
}

func (p *parser) parseQueryExpression() (ast.QueryExpression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	var result ast.QueryExpression = left
	for {
		var op ast.SetOpType
		pos := p.cur().Pos
		switch {
		case p.matchKeyword("UNION"):
			op = ast.Union
		case p.matchKeyword("INTERSECT"):
			op = ast.Intersect
		case p.matchKeyword("EXCEPT"):
			op = ast.Except
		default:
			return result, nil
		}
		all := p.matchKeyword("ALL")
		right, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		result = &ast.SetOp{Pos: pos, Op: op, All: all, Left: result, Right: right}
	}
}

func (p *parser) parseSelect() (*ast.SelectQuery, error) {
	pos := p.cur().Pos
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	q := &ast.SelectQuery{Pos: pos}

	if p.matchKeyword("DISTINCT") {
		q.Distinct = true
	} else {
		p.matchKeyword("ALL")
	}

	if p.matchKeyword("TOP") {
		t := p.cur()
		if t.Kind != Number {
			return nil, p.errExpected("row count after TOP")
		}
		n, err := strconv.ParseUint(t.Val, 10, 64)
		if err != nil {
			return nil, p.errExpected("unsigned integer after TOP")
		}
		p.advance()
		q.Limit = &n
	}

	items, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	q.Items = items

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	for {
		ref, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		q.From = append(q.From, ref)
		if !p.matchPunct(",") {
			break
		}
	}

	if p.matchKeyword("WHERE") {
		q.Where, err = p.parseSearchCondition()
		if err != nil {
			return nil, err
		}
	}

	if p.cur().keyword("GROUP") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseValueExpr()
			if err != nil {
				return nil, err
			}
			q.GroupBy = append(q.GroupBy, e)
			if !p.matchPunct(",") {
				break
			}
		}
	}

	if p.matchKeyword("HAVING") {
		q.Having, err = p.parseSearchCondition()
		if err != nil {
			return nil, err
		}
	}

	if p.cur().keyword("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			sf, err := p.parseSortField()
			if err != nil {
				return nil, err
			}
			q.OrderBy = append(q.OrderBy, sf)
			if !p.matchPunct(",") {
				break
			}
		}
	}

	return q, nil
}

func (p *parser) parseSelectList() ([]*ast.SelectItem, error) {
	var items []*ast.SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.matchPunct(",") {
			return items, nil
		}
	}
}

func (p *parser) parseSelectItem() (*ast.SelectItem, error) {
	pos := p.cur().Pos
	if p.matchPunct("*") {
		return &ast.SelectItem{Expr: ast.NewStar(pos, "")}, nil
	}

	// qualifier.* needs lookahead past the dotted name.
	if star, ok := p.tryQualifiedStar(); ok {
		return &ast.SelectItem{Expr: star}, nil
	}

	e, err := p.parseValueExpr()
	if err != nil {
		return nil, err
	}
	item := &ast.SelectItem{Expr: e}

	if p.matchKeyword("AS") {
		name, _, err := p.ident()
		if err != nil {
			return nil, err
		}
		item.Alias = name
	} else if t := p.cur(); t.Kind == Delimited || t.Kind == Identifier && !isReserved(t.Val) {
		name, _, err := p.ident()
		if err != nil {
			return nil, err
		}
		item.Alias = name
	}
	return item, nil
}

// tryQualifiedStar consumes "name(.name)*.*" if present.
func (p *parser) tryQualifiedStar() (*ast.Star, bool) {
	save := p.pos
	pos := p.cur().Pos
	var parts []string
	for {
		t := p.cur()
		if t.Kind != Identifier && t.Kind != Delimited || t.Kind == Identifier && isReserved(t.Val) {
			p.pos = save
			return nil, false
		}
		parts = append(parts, t.Val)
		p.advance()
		if !p.matchPunct(".") {
			p.pos = save
			return nil, false
		}
		if p.matchPunct("*") {
			return ast.NewStar(pos, strings.Join(parts, ".")), true
		}
	}
}

func (p *parser) parseSortField() (*ast.SortField, error) {
	sf := &ast.SortField{}
	t := p.cur()
	if t.Kind == Number {
		n, err := strconv.Atoi(t.Val)
		if err != nil || n < 1 {
			return nil, p.errExpected("select list ordinal")
		}
		p.advance()
		sf.Ordinal = n
	} else {
		e, err := p.parseColumnRef()
		if err != nil {
			return nil, err
		}
		sf.Expr = e
	}
	if p.matchKeyword("DESC") {
		sf.Desc = true
	} else {
		p.matchKeyword("ASC")
	}
	return sf, nil
}

func (p *parser) parseTableRef() (ast.TableExpr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseTablePrimary()
	if err != nil {
		return nil, err
	}

	for {
		join, ok, err := p.parseJoinTail(left)
		if err != nil {
			return nil, err
		}
		if !ok {
			return left, nil
		}
		left = join
	}
}

func (p *parser) parseJoinTail(left ast.TableExpr) (ast.TableExpr, bool, error) {
	pos := p.cur().Pos
	natural := p.matchKeyword("NATURAL")

	jt := ast.JoinInner
	typed := false
	switch {
	case p.matchKeyword("INNER"):
		typed = true
	case p.matchKeyword("LEFT"):
		jt, typed = ast.JoinLeft, true
		p.matchKeyword("OUTER")
	case p.matchKeyword("RIGHT"):
		jt, typed = ast.JoinRight, true
		p.matchKeyword("OUTER")
	case p.matchKeyword("FULL"):
		jt, typed = ast.JoinFull, true
		p.matchKeyword("OUTER")
	}

	if !p.cur().keyword("JOIN") {
		if natural || typed {
			return nil, false, p.errExpected("JOIN")
		}
		return nil, false, nil
	}
	p.advance()

	right, err := p.parseTablePrimary()
	if err != nil {
		return nil, false, err
	}

	join := &ast.Join{Pos: pos, Type: jt, Natural: natural, Left: left, Right: right}
	switch {
	case p.matchKeyword("ON"):
		join.On, err = p.parseSearchCondition()
		if err != nil {
			return nil, false, err
		}
	case p.matchKeyword("USING"):
		if err := p.expectPunct("("); err != nil {
			return nil, false, err
		}
		for {
			name, _, err := p.ident()
			if err != nil {
				return nil, false, err
			}
			join.Using = append(join.Using, name)
			if !p.matchPunct(",") {
				break
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, false, err
		}
	}
	return join, true, nil
}

func (p *parser) parseTablePrimary() (ast.TableExpr, error) {
	pos := p.cur().Pos

	if p.matchPunct("(") {
		if p.cur().keyword("SELECT") {
			sub, err := p.parseQueryExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			p.matchKeyword("AS")
			alias, quoted, err := p.ident()
			if err != nil {
				return nil, p.errExpected("alias for derived table")
			}
			return &ast.SubqueryRef{Pos: pos, Query: sub, Alias: alias, AliasQuoted: quoted}, nil
		}
		inner, err := p.parseTableRef()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}

	name, err := p.parseTableName()
	if err != nil {
		return nil, err
	}
	ref := &ast.TableRef{Pos: pos, Name: name}
	if p.matchKeyword("AS") {
		ref.Alias, ref.AliasQuoted, err = p.ident()
		if err != nil {
			return nil, err
		}
	} else if t := p.cur(); t.Kind == Delimited || t.Kind == Identifier && !isReserved(t.Val) {
		ref.Alias, ref.AliasQuoted, err = p.ident()
		if err != nil {
			return nil, err
		}
	}
	return ref, nil
}

// parseTableName consumes a possibly schema-qualified table name.
func (p *parser) parseTableName() (string, error) {
	part, _, err := p.ident()
	if err != nil {
		return "", err
	}
	parts := []string{part}
	for len(parts) < 3 && p.cur().Kind == Punct && p.cur().Val == "." {
		// Only take the dot if an identifier follows; "t.*" belongs to
		// the select list, not to a table name.
		next := p.lookahead()
		if next.Kind != Identifier && next.Kind != Delimited {
			break
		}
		p.advance()
		part, _, err = p.ident()
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "."), nil
}

// Search conditions: OR > AND > NOT > predicate.

func (p *parser) parseSearchCondition() (ast.Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseBooleanTerm()
	if err != nil {
		return nil, err
	}
	for p.cur().keyword("OR") {
		pos := p.advance().Pos
		right, err := p.parseBooleanTerm()
		if err != nil {
			return nil, err
		}
		left = ast.NewOr(pos, left, right)
	}
	return left, nil
}

func (p *parser) parseBooleanTerm() (ast.Expr, error) {
	left, err := p.parseBooleanFactor()
	if err != nil {
		return nil, err
	}
	for p.cur().keyword("AND") {
		pos := p.advance().Pos
		right, err := p.parseBooleanFactor()
		if err != nil {
			return nil, err
		}
		left = ast.NewAnd(pos, left, right)
	}
	return left, nil
}

func (p *parser) parseBooleanFactor() (ast.Expr, error) {
	if p.cur().keyword("NOT") {
		pos := p.advance().Pos
		child, err := p.parseBooleanFactor()
		if err != nil {
			return nil, err
		}
		return ast.NewNot(pos, child), nil
	}
	return p.parseBooleanPrimary()
}

func (p *parser) parseBooleanPrimary() (ast.Expr, error) {
	// A leading parenthesis is ambiguous: it may group a search
	// condition or start a parenthesized value expression inside a
	// predicate. Try the condition reading first and fall back.
	if p.cur().Kind == Punct && p.cur().Val == "(" {
		save := p.pos
		p.advance()
		cond, err := p.parseSearchCondition()
		if err == nil && p.matchPunct(")") {
			return cond, nil
		}
		p.pos = save
	}
	return p.parsePredicate()
}

func (p *parser) parsePredicate() (ast.Expr, error) {
	if p.cur().keyword("EXISTS") {
		pos := p.advance().Pos
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		sub, err := p.parseQueryExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return ast.NewExists(pos, sub), nil
	}

	left, err := p.parseValueExpr()
	if err != nil {
		return nil, err
	}

	t := p.cur()
	if t.Kind == Operator {
		switch t.Val {
		case "=", "!=", "<", "<=", ">", ">=":
			p.advance()
			right, err := p.parseValueExpr()
			if err != nil {
				return nil, err
			}
			return ast.NewComparison(t.Pos, t.Val, left, right), nil
		}
	}

	negated := false
	if t.keyword("NOT") {
		p.advance()
		negated = true
		t = p.cur()
	}

	switch {
	case t.keyword("BETWEEN"):
		p.advance()
		lo, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		hi, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewBetween(t.Pos, negated, left, lo, hi), nil

	case t.keyword("IN"):
		p.advance()
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		if p.cur().keyword("SELECT") {
			sub, err := p.parseQueryExpression()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return ast.NewInSubquery(t.Pos, negated, left, sub), nil
		}
		var values []ast.Expr
		for {
			v, err := p.parseValueExpr()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			if !p.matchPunct(",") {
				break
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return ast.NewInList(t.Pos, negated, left, values), nil

	case t.keyword("LIKE"):
		p.advance()
		pattern, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewLike(t.Pos, negated, left, pattern), nil

	case t.keyword("IS"):
		if negated {
			return nil, p.errExpected("BETWEEN, IN or LIKE after NOT")
		}
		p.advance()
		neg := p.matchKeyword("NOT")
		if err := p.expectKeyword("NULL"); err != nil {
			return nil, err
		}
		return ast.NewNullCheck(t.Pos, neg, left), nil
	}

	if negated {
		return nil, p.errExpected("BETWEEN, IN or LIKE after NOT")
	}
	return nil, p.errExpected("predicate")
}

// Value expressions: additive > multiplicative > unary > primary.

func (p *parser) parseValueExpr() (ast.Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if t.Kind != Operator || t.Val != "+" && t.Val != "-" && t.Val != "||" {
			return left, nil
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(t.Pos, t.Val, left, right)
	}
}

func (p *parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		if t.Kind != Operator || t.Val != "*" && t.Val != "/" {
			return left, nil
		}
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(t.Pos, t.Val, left, right)
	}
}

func (p *parser) parseFactor() (ast.Expr, error) {
	t := p.cur()
	if t.Kind == Operator && (t.Val == "+" || t.Val == "-") {
		p.advance()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpr(t.Pos, t.Val, operand), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	switch t.Kind {
	case Number:
		p.advance()
		return numberLiteral(t)
	case String:
		p.advance()
		// Adjacent string literals concatenate.
		val := t.Val
		for p.cur().Kind == String {
			val += p.advance().Val
		}
		return ast.NewLiteral(t.Pos, val, sql.Text), nil
	case Punct:
		if t.Val == "(" {
			p.advance()
			e, err := p.parseValueExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
	case Identifier:
		if t.keyword("NULL") {
			p.advance()
			return ast.NewLiteral(t.Pos, nil, sql.Null), nil
		}
		if kind, ok := geometryKeyword(t.Val); ok && p.lookahead().Val == "(" {
			return p.parseGeometry(kind)
		}
		if !isReserved(t.Val) && p.lookahead().Kind == Punct && p.lookahead().Val == "(" {
			return p.parseFunctionCall()
		}
		if !isReserved(t.Val) {
			return p.parseColumnRef()
		}
	case Delimited:
		return p.parseColumnRef()
	}
	return nil, p.errExpected("value expression")
}

func numberLiteral(t Token) (ast.Expr, error) {
	if !strings.ContainsAny(t.Val, ".eE") {
		if n, err := strconv.ParseInt(t.Val, 10, 64); err == nil {
			if n >= -(1<<31) && n < 1<<31 {
				return ast.NewLiteral(t.Pos, n, sql.Integer), nil
			}
			return ast.NewLiteral(t.Pos, n, sql.Bigint), nil
		}
	}
	f, err := strconv.ParseFloat(t.Val, 64)
	if err != nil {
		return nil, sql.ErrSyntax.New(t.Pos.Line, t.Pos.Col, "malformed numeric literal "+t.Val)
	}
	return ast.NewLiteral(t.Pos, f, sql.Double), nil
}

func geometryKeyword(word string) (ast.GeometryKind, bool) {
	switch strings.ToUpper(word) {
	case "POINT":
		return ast.GeomPoint, true
	case "CIRCLE":
		return ast.GeomCircle, true
	case "BOX":
		return ast.GeomBox, true
	case "POLYGON":
		return ast.GeomPolygon, true
	case "REGION":
		return ast.GeomRegion, true
	}
	return 0, false
}

func (p *parser) parseGeometry(kind ast.GeometryKind) (ast.Expr, error) {
	pos := p.advance().Pos // constructor keyword
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	if kind == ast.GeomRegion {
		t := p.cur()
		if t.Kind != String {
			return nil, p.errExpected("region string")
		}
		p.advance()
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return ast.NewGeometry(pos, kind, "", ast.NewLiteral(t.Pos, t.Val, sql.Text)), nil
	}

	t := p.cur()
	if t.Kind != String {
		return nil, p.errExpected("coordinate system string")
	}
	coordSys := t.Val
	p.advance()

	var args []ast.Expr
	for p.matchPunct(",") {
		a, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	want := map[ast.GeometryKind]int{
		ast.GeomPoint:  2,
		ast.GeomCircle: 3,
		ast.GeomBox:    4,
	}
	if n, ok := want[kind]; ok && len(args) != n {
		return nil, sql.ErrSyntax.New(pos.Line, pos.Col,
			fmt.Sprintf("%s takes %d coordinates, got %d", kind, n, len(args)))
	}
	if kind == ast.GeomPolygon && (len(args) < 6 || len(args)%2 != 0) {
		return nil, sql.ErrSyntax.New(pos.Line, pos.Col,
			"POLYGON takes an even number of at least 6 coordinates")
	}
	return ast.NewGeometry(pos, kind, coordSys, args...), nil
}

func (p *parser) parseFunctionCall() (ast.Expr, error) {
	name := p.advance() // function name
	p.advance()         // opening parenthesis

	call := ast.NewFunctionCall(name.Pos, name.Val)

	if strings.EqualFold(name.Val, "COUNT") && p.cur().Val == "*" {
		p.advance()
		call.Star = true
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return call, nil
	}

	if p.matchPunct(")") {
		return call, nil
	}

	if p.matchKeyword("DISTINCT") {
		call.Distinct = true
	} else {
		p.matchKeyword("ALL")
	}

	for {
		a, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, a)
		if !p.matchPunct(",") {
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) parseColumnRef() (ast.Expr, error) {
	pos := p.cur().Pos
	part, quoted, err := p.ident()
	if err != nil {
		return nil, err
	}
	parts := []string{part}
	for len(parts) < 4 && p.cur().Kind == Punct && p.cur().Val == "." {
		next := p.lookahead()
		if next.Kind != Identifier && next.Kind != Delimited {
			break
		}
		p.advance()
		part, quoted, err = p.ident()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	table := strings.Join(parts[:len(parts)-1], ".")
	return ast.NewColumnRef(pos, table, parts[len(parts)-1], quoted), nil
}
