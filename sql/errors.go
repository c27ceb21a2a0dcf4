package sql

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrSyntax is returned when the query text cannot be parsed. The
	// first two arguments are the line and column of the failing token.
	ErrSyntax = errors.NewKind("syntax error at %d:%d: %s")

	// ErrUnknownTable is returned when a table is not present in the
	// catalog snapshot the compilation runs against.
	ErrUnknownTable = errors.NewKind("table not found: %s")

	// ErrUnknownColumn is returned when a column cannot be found in any
	// table in scope.
	ErrUnknownColumn = errors.NewKind("column %q could not be found in any table in scope")

	// ErrTableColumnNotFound is returned for a qualified reference whose
	// table is in scope but does not have the column.
	ErrTableColumnNotFound = errors.NewKind("table %q does not have column %q")

	// ErrAmbiguousColumn is returned when an unqualified column name is
	// present in more than one table in scope.
	ErrAmbiguousColumn = errors.NewKind("ambiguous column name %q, it's present in all these tables: %v")

	// ErrAmbiguousTable is returned when a table qualifier matches the
	// last name segment of more than one table in scope.
	ErrAmbiguousTable = errors.NewKind("ambiguous table reference %q, it may denote any of: %v")

	// ErrDuplicateAlias is returned when a query introduces the same
	// table name or alias twice in one FROM clause.
	ErrDuplicateAlias = errors.NewKind("not unique table/alias: %s")

	// ErrTypeMismatch is returned when an expression combines values of
	// types that cannot be coerced to a common type.
	ErrTypeMismatch = errors.NewKind("type mismatch: %s")

	// ErrUnsupportedFunction is returned when a function name is not
	// present in the registry at all.
	ErrUnsupportedFunction = errors.NewKind("unsupported function: %s")

	// ErrArityMismatch is returned when a known function is called with
	// a number of arguments no signature accepts.
	ErrArityMismatch = errors.NewKind("function %s expects %d arguments, got %d")

	// ErrUnsupportedFeature is returned for constructs that resolve fine
	// but have no translation on the target backend.
	ErrUnsupportedFeature = errors.NewKind("unsupported feature: %s")

	// ErrRecursionLimit is returned when query nesting exceeds the
	// configured depth limit.
	ErrRecursionLimit = errors.NewKind("maximum nesting depth of %d exceeded")

	// ErrInternalMorph indicates an invariant violation inside the
	// morpher. It is a defect, never a user error.
	ErrInternalMorph = errors.NewKind("internal morph error: %s")

	// ErrInvalidChildrenNumber is returned when the WithChildren method
	// of a node is called with an invalid number of arguments.
	ErrInvalidChildrenNumber = errors.NewKind("%T: invalid children number, got %d, expected %d")
)
