package sql

import "strings"

// Column is the definition of a table column as recorded in the metadata
// catalog.
type Column struct {
	// Name is the name of the column.
	Name string
	// Source is the name of the table this column came from.
	Source string
	// Type is the data type of the column.
	Type Type
	// Unit is the physical unit of the column values, empty if
	// dimensionless.
	Unit string
	// UCD tags the physical meaning of the column.
	UCD string
	// Nullable is true if the column can contain NULL values.
	Nullable bool
	// PrimaryKey is true if the column is part of the primary key of its
	// table.
	PrimaryKey bool
	// SpatialIndexed is true if the backend keeps a spatial (q3c) index
	// over this column.
	SpatialIndexed bool
	// CaseSensitive is true when the column was created with a delimited
	// identifier; emission must preserve its exact case then.
	CaseSensitive bool
}

// FieldInfo returns the annotation resolving to this column carries.
func (c *Column) FieldInfo() *FieldInfo {
	return &FieldInfo{Type: c.Type, Unit: c.Unit, UCD: c.UCD}
}

// Schema is the ordered column list of a table.
type Schema []*Column

// IndexOf returns the position of the named column or -1. Lookup is case
// insensitive; catalog names are matched the way the backend folds them.
func (s Schema) IndexOf(name string) int {
	name = strings.ToLower(name)
	for i, col := range s {
		if strings.ToLower(col.Name) == name {
			return i
		}
	}
	return -1
}

// Contains reports whether the schema has a column with the given name.
func (s Schema) Contains(name string) bool {
	return s.IndexOf(name) >= 0
}
