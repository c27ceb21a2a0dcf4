package ast

import (
	"github.com/astrovo/adql/sql"
)

// QueryExpression is a full query: a single SELECT or a set operation
// combining two of them.
type QueryExpression interface {
	Node
	// Schema returns the output column schema, nil before annotation.
	Schema() sql.ResultSchema
}

// SelectQuery is one SELECT statement.
type SelectQuery struct {
	Pos      Pos
	Distinct bool
	// Limit is the row limit from the TOP clause, nil when absent. It
	// renders as this query level's LIMIT.
	Limit   *uint64
	Items   []*SelectItem
	From    []TableExpr
	Where   Expr
	GroupBy []Expr
	Having  Expr
	OrderBy []*SortField

	// ResultColumns is filled by the annotator.
	ResultColumns sql.ResultSchema
}

func (q *SelectQuery) Position() Pos            { return q.Pos }
func (q *SelectQuery) Schema() sql.ResultSchema { return q.ResultColumns }

// SelectItem is one entry of the select list: an expression with an
// optional alias, or a star.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// SortField is one ORDER BY key: either a column name expression or a
// 1-based select list ordinal.
type SortField struct {
	Expr    Expr
	Ordinal int
	Desc    bool
}

// TableExpr is an entry of the FROM clause.
type TableExpr interface {
	Node
	tableExpr()
}

// TableRef is a named table, possibly aliased. Table is nil until the
// annotator resolved it against the catalog.
type TableRef struct {
	Pos   Pos
	Name  string
	Alias string
	// AliasQuoted is true when the alias was a delimited identifier,
	// whose case must be preserved.
	AliasQuoted bool
	Table       *sql.Table
}

func (t *TableRef) Position() Pos { return t.Pos }
func (t *TableRef) tableExpr()    {}

// RefName returns the name the table is visible under in the query.
func (t *TableRef) RefName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// RefQuoted reports whether the visible name is case sensitive.
func (t *TableRef) RefQuoted() bool {
	return t.Alias != "" && t.AliasQuoted
}

// SubqueryRef is a derived table. The grammar requires an alias on it.
type SubqueryRef struct {
	Pos         Pos
	Query       QueryExpression
	Alias       string
	AliasQuoted bool
}

func (t *SubqueryRef) Position() Pos { return t.Pos }
func (t *SubqueryRef) tableExpr()    {}

// JoinType enumerates the join flavors of the grammar.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
)

func (t JoinType) String() string {
	switch t {
	case JoinLeft:
		return "LEFT OUTER JOIN"
	case JoinRight:
		return "RIGHT OUTER JOIN"
	case JoinFull:
		return "FULL OUTER JOIN"
	}
	return "INNER JOIN"
}

// Join combines two table expressions. Exactly one of On and Using is set
// unless the join is natural or a plain cross join.
type Join struct {
	Pos     Pos
	Type    JoinType
	Natural bool
	Left    TableExpr
	Right   TableExpr
	On      Expr
	Using   []string
}

func (t *Join) Position() Pos { return t.Pos }
func (t *Join) tableExpr()    {}

// SetOpType enumerates the set operators.
type SetOpType int

const (
	Union SetOpType = iota
	Intersect
	Except
)

func (t SetOpType) String() string {
	switch t {
	case Intersect:
		return "INTERSECT"
	case Except:
		return "EXCEPT"
	}
	return "UNION"
}

// SetOp combines two query expressions with a set operator. Its schema is
// the left operand's.
type SetOp struct {
	Pos   Pos
	Op    SetOpType
	All   bool
	Left  QueryExpression
	Right QueryExpression
}

func (q *SetOp) Position() Pos { return q.Pos }

func (q *SetOp) Schema() sql.ResultSchema {
	if q.Left == nil {
		return nil
	}
	return q.Left.Schema()
}
