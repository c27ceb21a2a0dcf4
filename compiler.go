// Package adql compiles ADQL queries into Postgres SQL for databases
// carrying the q3c and pgsphere extensions. The pipeline parses the
// query, annotates it against a table catalog, rewrites geometry and
// other ADQL-only constructs into backend form, and renders SQL with
// positional parameters.
package adql

import (
	"context"

	"github.com/astrovo/adql/sql"
	"github.com/astrovo/adql/sql/analyzer"
	"github.com/astrovo/adql/sql/emit"
	"github.com/astrovo/adql/sql/morph"
	"github.com/astrovo/adql/sql/parse"
)

// Compiler turns ADQL text into executable SQL. It is safe for
// concurrent use; all mutable state lives in the per-call context.
type Compiler struct {
	catalog   *sql.Catalog
	functions *sql.FunctionRegistry
	annotator *analyzer.Annotator
	morpher   *morph.Morpher
}

// Option configures a Compiler at construction time.
type Option func(*Compiler)

// WithFunctions replaces the default function registry, typically to
// add service-specific user defined functions.
func WithFunctions(r *sql.FunctionRegistry) Option {
	return func(c *Compiler) { c.functions = r }
}

// WithCoordConverter registers a conversion between two reference
// frames, applied to geometry literals when a query mixes frames.
func WithCoordConverter(from, to string, conv morph.CoordConverter) Option {
	return func(c *Compiler) { c.morpher.Coords.Register(from, to, conv) }
}

func New(catalog *sql.Catalog, opts ...Option) *Compiler {
	c := &Compiler{
		catalog:   catalog,
		functions: sql.Defaults(),
		morpher:   morph.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.annotator = analyzer.New(catalog, c.functions)
	return c
}

// Catalog returns the table catalog the compiler resolves against.
func (c *Compiler) Catalog() *sql.Catalog { return c.catalog }

// Compilation is the result of compiling one query.
type Compilation struct {
	// SQL is the rendered statement with $1-style placeholders.
	SQL string
	// Parameters holds the literal values, in placeholder order.
	Parameters []interface{}
	// Columns describes the output, one entry per select item. Names
	// follow the alias when one was given, the bare column name for
	// plain column references, and expr_N otherwise with N the
	// 1-based position of the item.
	Columns sql.ResultSchema
}

// Compile runs the whole pipeline on query. A nil ctx gets a fresh
// background context.
func (c *Compiler) Compile(ctx *sql.Context, query string) (*Compilation, error) {
	if ctx == nil {
		ctx = sql.NewContext(context.Background(), sql.WithQuery(query))
	}
	span, ctx := ctx.Span("compile")
	defer span.Finish()

	parsed, err := parse.Parse(ctx, query)
	if err != nil {
		return nil, err
	}

	annotated, err := c.annotator.Annotate(ctx, parsed)
	if err != nil {
		return nil, err
	}

	morphed, err := c.morpher.Morph(ctx, annotated)
	if err != nil {
		return nil, err
	}

	text, params, err := emit.Emit(ctx, morphed)
	if err != nil {
		return nil, err
	}

	result := &Compilation{
		SQL:        text,
		Parameters: params,
		Columns:    annotated.Schema(),
	}
	ctx.Logger().WithField("columns", len(result.Columns)).Debug("query compiled")
	return result, nil
}
