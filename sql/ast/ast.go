// Package ast holds the syntax tree the compiler pipeline passes between
// stages. Nodes are immutable once built: every stage that needs to change
// the tree produces new nodes through WithChildren, the parse stage owns
// construction, and no node points back at its parent.
package ast

import (
	"github.com/astrovo/adql/sql"
)

// Pos is a position in the query text, for error reporting.
type Pos struct {
	Line   int
	Col    int
	Offset int
}

// Node is any element of the syntax tree.
type Node interface {
	// Position returns where in the query text the node starts.
	Position() Pos
}

// Expr is a value-producing node. Children and WithChildren give the
// generic traversal the morpher and the postprocessor are built on.
type Expr interface {
	Node
	// Children returns the sub-expressions in a fixed order.
	Children() []Expr
	// WithChildren returns a copy of the node with the children
	// replaced. The number of children must match Children().
	WithChildren(children ...Expr) (Expr, error)
	// Info returns the annotation, nil before the annotator ran.
	Info() *sql.FieldInfo
	// String renders the expression for logs and error messages.
	String() string
}

// TreeIdentity tracks whether a transformation changed a tree. It is the
// aggregation result of all callback invocations of a transform.
type TreeIdentity bool

const (
	// SameTree is returned when the transform did not change the node.
	SameTree TreeIdentity = true
	// NewTree is returned when the transform produced a new node.
	NewTree TreeIdentity = false
)

// ExprFunc is a transformation callback.
type ExprFunc func(e Expr) (Expr, TreeIdentity, error)

// TransformExpr applies f to the expression tree from the bottom up,
// rebuilding only the spine above changed nodes.
func TransformExpr(e Expr, f ExprFunc) (Expr, TreeIdentity, error) {
	children := e.Children()
	if len(children) == 0 {
		return f(e)
	}

	var newChildren []Expr
	for i := 0; i < len(children); i++ {
		c, same, err := TransformExpr(children[i], f)
		if err != nil {
			return nil, SameTree, err
		}
		if !same {
			if newChildren == nil {
				newChildren = make([]Expr, len(children))
				copy(newChildren, children)
			}
			newChildren[i] = c
		}
	}

	sameC := SameTree
	if newChildren != nil {
		sameC = NewTree
		var err error
		e, err = e.WithChildren(newChildren...)
		if err != nil {
			return nil, SameTree, err
		}
	}

	e, sameN, err := f(e)
	if err != nil {
		return nil, SameTree, err
	}
	return e, sameC && sameN, nil
}

// InspectExpr traverses the expression tree bottom up until f returns
// true. It reports whether the traversal was stopped.
func InspectExpr(e Expr, f func(Expr) bool) bool {
	stopped := false
	var walk func(Expr)
	walk = func(e Expr) {
		if stopped {
			return
		}
		for _, c := range e.Children() {
			walk(c)
		}
		if !stopped && f(e) {
			stopped = true
		}
	}
	walk(e)
	return stopped
}
