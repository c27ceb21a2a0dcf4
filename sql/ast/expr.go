package ast

import (
	"fmt"
	"strings"

	"github.com/astrovo/adql/sql"
)

type exprBase struct {
	// Pos is where the expression starts in the query text.
	Pos Pos
	// Meta is the annotation, nil until the annotator has resolved the
	// expression.
	Meta *sql.FieldInfo
}

func (b exprBase) Position() Pos        { return b.Pos }
func (b exprBase) Info() *sql.FieldInfo { return b.Meta }

// ColumnRef is a possibly qualified column reference. Col is nil until
// resolution.
type ColumnRef struct {
	exprBase
	Table string
	Name  string
	// Quoted is true for delimited identifiers, whose case must be
	// preserved.
	Quoted bool
	// TableQuoted is true when the resolved qualifier is case
	// sensitive; the annotator sets it along with Table.
	TableQuoted bool
	// Col is the catalog column this reference resolved to.
	Col *sql.Column
}

// NewColumnRef builds an unresolved column reference.
func NewColumnRef(pos Pos, table, name string, quoted bool) *ColumnRef {
	return &ColumnRef{exprBase: exprBase{Pos: pos}, Table: table, Name: name, Quoted: quoted}
}

func (e *ColumnRef) Children() []Expr { return nil }

func (e *ColumnRef) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 0)
	}
	return e, nil
}

func (e *ColumnRef) String() string {
	if e.Table != "" {
		return e.Table + "." + e.Name
	}
	return e.Name
}

// Literal is a string or numeric literal. Its annotation is fixed at
// construction.
type Literal struct {
	exprBase
	Value interface{}
}

// NewLiteral builds a literal of the given natural type.
func NewLiteral(pos Pos, value interface{}, t sql.Type) *Literal {
	return &Literal{exprBase: exprBase{Pos: pos, Meta: sql.NewFieldInfo(t)}, Value: value}
}

func (e *Literal) Children() []Expr { return nil }

func (e *Literal) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 0)
	}
	return e, nil
}

func (e *Literal) String() string {
	if s, ok := e.Value.(string); ok {
		return "'" + strings.Replace(s, "'", "''", -1) + "'"
	}
	if e.Value == nil {
		return "NULL"
	}
	return fmt.Sprint(e.Value)
}

// Star is "*" or "table.*" in a select list.
type Star struct {
	exprBase
	Table string
}

// NewStar builds a star select item, qualified if table is not empty.
func NewStar(pos Pos, table string) *Star {
	return &Star{exprBase: exprBase{Pos: pos}, Table: table}
}

func (e *Star) Children() []Expr { return nil }

func (e *Star) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 0)
	}
	return e, nil
}

func (e *Star) String() string {
	if e.Table != "" {
		return e.Table + ".*"
	}
	return "*"
}

// FunctionCall is a call to a registered function, scalar or aggregate.
// Sig is nil until resolution.
type FunctionCall struct {
	exprBase
	Name     string
	Distinct bool
	// Star is set for COUNT(*), which has no argument expression.
	Star bool
	Args []Expr
	Sig  *sql.FunctionSignature
}

// NewFunctionCall builds an unresolved function call.
func NewFunctionCall(pos Pos, name string, args ...Expr) *FunctionCall {
	return &FunctionCall{exprBase: exprBase{Pos: pos}, Name: name, Args: args}
}

func (e *FunctionCall) Children() []Expr { return e.Args }

func (e *FunctionCall) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != len(e.Args) {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), len(e.Args))
	}
	n := *e
	n.Args = children
	return &n, nil
}

func (e *FunctionCall) String() string {
	if e.Star {
		return e.Name + "(*)"
	}
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	prefix := ""
	if e.Distinct {
		prefix = "DISTINCT "
	}
	return e.Name + "(" + prefix + strings.Join(args, ", ") + ")"
}

// BinaryExpr is an arithmetic or concatenation expression.
type BinaryExpr struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

// NewBinaryExpr builds a binary expression.
func NewBinaryExpr(pos Pos, op string, left, right Expr) *BinaryExpr {
	return &BinaryExpr{exprBase: exprBase{Pos: pos}, Op: op, Left: left, Right: right}
}

func (e *BinaryExpr) Children() []Expr { return []Expr{e.Left, e.Right} }

func (e *BinaryExpr) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 2)
	}
	n := *e
	n.Left, n.Right = children[0], children[1]
	return &n, nil
}

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", e.Left, e.Op, e.Right)
}

// UnaryExpr is a signed expression.
type UnaryExpr struct {
	exprBase
	Op      string
	Operand Expr
}

// NewUnaryExpr builds a sign expression.
func NewUnaryExpr(pos Pos, op string, operand Expr) *UnaryExpr {
	return &UnaryExpr{exprBase: exprBase{Pos: pos}, Op: op, Operand: operand}
}

func (e *UnaryExpr) Children() []Expr { return []Expr{e.Operand} }

func (e *UnaryExpr) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 1)
	}
	n := *e
	n.Operand = children[0]
	return &n, nil
}

func (e *UnaryExpr) String() string { return e.Op + e.Operand.String() }

// Comparison is a binary predicate. Before morphing Op is one of the six
// comparison operators; the morpher may replace it with a backend operator
// such as the spherical containment "@".
type Comparison struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

// NewComparison builds a comparison predicate.
func NewComparison(pos Pos, op string, left, right Expr) *Comparison {
	return &Comparison{exprBase: exprBase{Pos: pos}, Op: op, Left: left, Right: right}
}

func (e *Comparison) Children() []Expr { return []Expr{e.Left, e.Right} }

func (e *Comparison) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 2)
	}
	n := *e
	n.Left, n.Right = children[0], children[1]
	return &n, nil
}

func (e *Comparison) String() string {
	return fmt.Sprintf("%s %s %s", e.Left, e.Op, e.Right)
}

// Not negates a predicate.
type Not struct {
	exprBase
	Child Expr
}

// NewNot builds a negation.
func NewNot(pos Pos, child Expr) *Not {
	return &Not{exprBase: exprBase{Pos: pos}, Child: child}
}

func (e *Not) Children() []Expr { return []Expr{e.Child} }

func (e *Not) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 1)
	}
	n := *e
	n.Child = children[0]
	return &n, nil
}

func (e *Not) String() string { return "NOT " + e.Child.String() }

// And is a conjunction of predicates.
type And struct {
	exprBase
	Left  Expr
	Right Expr
}

// NewAnd builds a conjunction.
func NewAnd(pos Pos, left, right Expr) *And {
	return &And{exprBase: exprBase{Pos: pos}, Left: left, Right: right}
}

func (e *And) Children() []Expr { return []Expr{e.Left, e.Right} }

func (e *And) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 2)
	}
	n := *e
	n.Left, n.Right = children[0], children[1]
	return &n, nil
}

func (e *And) String() string {
	return fmt.Sprintf("%s AND %s", e.Left, e.Right)
}

// Or is a disjunction of predicates.
type Or struct {
	exprBase
	Left  Expr
	Right Expr
}

// NewOr builds a disjunction.
func NewOr(pos Pos, left, right Expr) *Or {
	return &Or{exprBase: exprBase{Pos: pos}, Left: left, Right: right}
}

func (e *Or) Children() []Expr { return []Expr{e.Left, e.Right} }

func (e *Or) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 2)
	}
	n := *e
	n.Left, n.Right = children[0], children[1]
	return &n, nil
}

func (e *Or) String() string {
	return fmt.Sprintf("%s OR %s", e.Left, e.Right)
}

// Between is a range predicate.
type Between struct {
	exprBase
	Negated bool
	Operand Expr
	Lo      Expr
	Hi      Expr
}

// NewBetween builds a range predicate.
func NewBetween(pos Pos, negated bool, operand, lo, hi Expr) *Between {
	return &Between{exprBase: exprBase{Pos: pos}, Negated: negated, Operand: operand, Lo: lo, Hi: hi}
}

func (e *Between) Children() []Expr { return []Expr{e.Operand, e.Lo, e.Hi} }

func (e *Between) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 3 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 3)
	}
	n := *e
	n.Operand, n.Lo, n.Hi = children[0], children[1], children[2]
	return &n, nil
}

func (e *Between) String() string {
	not := ""
	if e.Negated {
		not = "NOT "
	}
	return fmt.Sprintf("%s %sBETWEEN %s AND %s", e.Operand, not, e.Lo, e.Hi)
}

// InList is a membership predicate, either over a value list or a
// subquery.
type InList struct {
	exprBase
	Negated  bool
	Operand  Expr
	Values   []Expr
	Subquery QueryExpression
}

// NewInList builds a membership predicate over a value list.
func NewInList(pos Pos, negated bool, operand Expr, values []Expr) *InList {
	return &InList{exprBase: exprBase{Pos: pos}, Negated: negated, Operand: operand, Values: values}
}

// NewInSubquery builds a membership predicate over a subquery.
func NewInSubquery(pos Pos, negated bool, operand Expr, sub QueryExpression) *InList {
	return &InList{exprBase: exprBase{Pos: pos}, Negated: negated, Operand: operand, Subquery: sub}
}

func (e *InList) Children() []Expr {
	return append([]Expr{e.Operand}, e.Values...)
}

func (e *InList) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 1+len(e.Values) {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 1+len(e.Values))
	}
	n := *e
	n.Operand = children[0]
	n.Values = children[1:]
	return &n, nil
}

func (e *InList) String() string {
	not := ""
	if e.Negated {
		not = "NOT "
	}
	if e.Subquery != nil {
		return fmt.Sprintf("%s %sIN (subquery)", e.Operand, not)
	}
	vals := make([]string, len(e.Values))
	for i, v := range e.Values {
		vals[i] = v.String()
	}
	return fmt.Sprintf("%s %sIN (%s)", e.Operand, not, strings.Join(vals, ", "))
}

// Like is a pattern match predicate.
type Like struct {
	exprBase
	Negated bool
	Operand Expr
	Pattern Expr
}

// NewLike builds a pattern predicate.
func NewLike(pos Pos, negated bool, operand, pattern Expr) *Like {
	return &Like{exprBase: exprBase{Pos: pos}, Negated: negated, Operand: operand, Pattern: pattern}
}

func (e *Like) Children() []Expr { return []Expr{e.Operand, e.Pattern} }

func (e *Like) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 2)
	}
	n := *e
	n.Operand, n.Pattern = children[0], children[1]
	return &n, nil
}

func (e *Like) String() string {
	not := ""
	if e.Negated {
		not = "NOT "
	}
	return fmt.Sprintf("%s %sLIKE %s", e.Operand, not, e.Pattern)
}

// NullCheck is an IS [NOT] NULL predicate.
type NullCheck struct {
	exprBase
	Negated bool
	Operand Expr
}

// NewNullCheck builds a null predicate.
func NewNullCheck(pos Pos, negated bool, operand Expr) *NullCheck {
	return &NullCheck{exprBase: exprBase{Pos: pos}, Negated: negated, Operand: operand}
}

func (e *NullCheck) Children() []Expr { return []Expr{e.Operand} }

func (e *NullCheck) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 1)
	}
	n := *e
	n.Operand = children[0]
	return &n, nil
}

func (e *NullCheck) String() string {
	if e.Negated {
		return e.Operand.String() + " IS NOT NULL"
	}
	return e.Operand.String() + " IS NULL"
}

// Exists is an EXISTS predicate over a subquery.
type Exists struct {
	exprBase
	Subquery QueryExpression
}

// NewExists builds an existence predicate.
func NewExists(pos Pos, sub QueryExpression) *Exists {
	return &Exists{exprBase: exprBase{Pos: pos}, Subquery: sub}
}

func (e *Exists) Children() []Expr { return nil }

func (e *Exists) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 0)
	}
	return e, nil
}

func (e *Exists) String() string { return "EXISTS (subquery)" }

// GeometryKind enumerates the geometry constructors of the language.
type GeometryKind int

const (
	GeomPoint GeometryKind = iota
	GeomCircle
	GeomBox
	GeomPolygon
	GeomRegion
)

func (k GeometryKind) String() string {
	switch k {
	case GeomPoint:
		return "POINT"
	case GeomCircle:
		return "CIRCLE"
	case GeomBox:
		return "BOX"
	case GeomPolygon:
		return "POLYGON"
	case GeomRegion:
		return "REGION"
	}
	return "GEOMETRY"
}

// Geometry is a geometry constructor. CoordSys is the coordinate system
// tag taken verbatim from the query text; the morpher decides what to do
// with it.
type Geometry struct {
	exprBase
	Kind     GeometryKind
	CoordSys string
	Args     []Expr
}

// NewGeometry builds a geometry constructor.
func NewGeometry(pos Pos, kind GeometryKind, coordSys string, args ...Expr) *Geometry {
	return &Geometry{exprBase: exprBase{Pos: pos}, Kind: kind, CoordSys: coordSys, Args: args}
}

func (e *Geometry) Children() []Expr { return e.Args }

func (e *Geometry) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != len(e.Args) {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), len(e.Args))
	}
	n := *e
	n.Args = children
	return &n, nil
}

func (e *Geometry) String() string {
	args := make([]string, 0, len(e.Args)+1)
	if e.CoordSys != "" {
		args = append(args, "'"+e.CoordSys+"'")
	}
	for _, a := range e.Args {
		args = append(args, a.String())
	}
	return e.Kind.String() + "(" + strings.Join(args, ", ") + ")"
}

// Call is a backend-native function call produced by the morpher. The
// parser never builds one; the emitter renders it verbatim with its
// arguments inlined.
type Call struct {
	exprBase
	Name string
	Args []Expr
}

// NewCall builds a backend call.
func NewCall(pos Pos, fi *sql.FieldInfo, name string, args ...Expr) *Call {
	return &Call{exprBase: exprBase{Pos: pos, Meta: fi}, Name: name, Args: args}
}

func (e *Call) Children() []Expr { return e.Args }

func (e *Call) WithChildren(children ...Expr) (Expr, error) {
	if len(children) != len(e.Args) {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), len(e.Args))
	}
	n := *e
	n.Args = children
	return &n, nil
}

func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}
