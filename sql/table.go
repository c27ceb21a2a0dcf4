package sql

// Table is the metadata of one published table: its schema-qualified name
// and ordered column list.
type Table struct {
	// Name is the schema-qualified table name, e.g. "public.objects".
	Name string
	// Columns is the declared column order, which SELECT * expansion
	// must reproduce.
	Columns Schema
}

// NewTable builds a table and stamps every column with the table as its
// source.
func NewTable(name string, columns ...*Column) *Table {
	for _, c := range columns {
		c.Source = name
	}
	return &Table{Name: name, Columns: columns}
}

// Column returns the named column or nil.
func (t *Table) Column(name string) *Column {
	i := t.Columns.IndexOf(name)
	if i < 0 {
		return nil
	}
	return t.Columns[i]
}

// PrimaryKey returns the primary key columns in declaration order.
func (t *Table) PrimaryKey() Schema {
	var pk Schema
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}
