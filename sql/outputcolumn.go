package sql

// OutputColumn describes one column of a compiled query's result set. The
// ordered list of these is handed to the serialization collaborator so it
// can label result fields without re-deriving them.
type OutputColumn struct {
	// Name is the label of the column: an explicit alias if the query
	// gave one, the bare column name for plain column references, or
	// expr_N (N being the 1-based select list position) for anything
	// computed.
	Name string
	// Type of the column values.
	Type Type
	// Unit is the physical unit, possibly combined from the operands of
	// a computed expression.
	Unit string
	// UCD tags the physical meaning, empty when it could not be carried
	// through a computation.
	UCD string
}

// ResultSchema is the ordered output column list of a compiled query.
type ResultSchema []OutputColumn
