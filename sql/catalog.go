package sql

import (
	"sort"
	"strings"

	"github.com/mitchellh/hashstructure"
	"gopkg.in/yaml.v2"
)

// Catalog is one immutable snapshot of the metadata registry. A snapshot
// is built once, handed to any number of concurrent compilations, and
// never mutated; a metadata refresh produces a new snapshot instead.
type Catalog struct {
	version string
	tables  map[string]*Table
	hash    uint64
}

// NewCatalog builds a snapshot from the given tables. The version string
// is whatever the metadata collaborator uses to identify the snapshot.
func NewCatalog(version string, tables ...*Table) *Catalog {
	c := &Catalog{
		version: version,
		tables:  make(map[string]*Table, len(tables)),
	}
	for _, t := range tables {
		c.tables[strings.ToLower(t.Name)] = t
	}
	c.hash = c.fingerprint()
	return c
}

// Version returns the snapshot version.
func (c *Catalog) Version() string { return c.version }

// Fingerprint is a structural hash over the snapshot contents, usable to
// tell apart two snapshots carrying the same version string.
func (c *Catalog) Fingerprint() uint64 { return c.hash }

func (c *Catalog) fingerprint() uint64 {
	type flatColumn struct {
		Name, Type, Unit, UCD string
		Nullable, PK, Spatial bool
	}
	type flatTable struct {
		Name    string
		Columns []flatColumn
	}

	names := make([]string, 0, len(c.tables))
	for n := range c.tables {
		names = append(names, n)
	}
	sort.Strings(names)

	flat := struct {
		Version string
		Tables  []flatTable
	}{Version: c.version}
	for _, n := range names {
		t := c.tables[n]
		ft := flatTable{Name: t.Name}
		for _, col := range t.Columns {
			ft.Columns = append(ft.Columns, flatColumn{
				Name: col.Name, Type: col.Type.Name(),
				Unit: col.Unit, UCD: col.UCD,
				Nullable: col.Nullable, PK: col.PrimaryKey,
				Spatial: col.SpatialIndexed,
			})
		}
		flat.Tables = append(flat.Tables, ft)
	}

	h, err := hashstructure.Hash(flat, nil)
	if err != nil {
		// Hashing plain structs of strings and bools cannot fail.
		panic(err)
	}
	return h
}

// Table returns the metadata for the named table. Names are folded to
// lower case the way the backend folds unquoted identifiers.
func (c *Catalog) Table(name string) (*Table, error) {
	t, ok := c.tables[strings.ToLower(name)]
	if !ok {
		return nil, ErrUnknownTable.New(name)
	}
	return t, nil
}

// Tables returns all tables in name order.
func (c *Catalog) Tables() []*Table {
	names := make([]string, 0, len(c.tables))
	for n := range c.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Table, len(names))
	for i, n := range names {
		out[i] = c.tables[n]
	}
	return out
}

type yamlCatalog struct {
	Version string      `yaml:"version"`
	Tables  []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name    string       `yaml:"name"`
	Columns []yamlColumn `yaml:"columns"`
}

type yamlColumn struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	Unit          string `yaml:"unit"`
	UCD           string `yaml:"ucd"`
	Nullable      bool   `yaml:"nullable"`
	PrimaryKey    bool   `yaml:"primary_key"`
	SpatialIndex  bool   `yaml:"spatial_index"`
	CaseSensitive bool   `yaml:"case_sensitive"`
}

// ParseCatalog reads a catalog snapshot from its YAML description, the
// format the command line tool and tests use.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw yamlCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	tables := make([]*Table, 0, len(raw.Tables))
	for _, yt := range raw.Tables {
		cols := make([]*Column, 0, len(yt.Columns))
		for _, yc := range yt.Columns {
			typ, ok := TypeFromName(yc.Type)
			if !ok {
				return nil, ErrTypeMismatch.New("unknown type " + yc.Type + " for column " + yc.Name)
			}
			cols = append(cols, &Column{
				Name:           yc.Name,
				Type:           typ,
				Unit:           yc.Unit,
				UCD:            yc.UCD,
				Nullable:       yc.Nullable,
				PrimaryKey:     yc.PrimaryKey,
				SpatialIndexed: yc.SpatialIndex,
				CaseSensitive:  yc.CaseSensitive,
			})
		}
		tables = append(tables, NewTable(yt.Name, cols...))
	}
	return NewCatalog(raw.Version, tables...), nil
}
