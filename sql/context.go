package sql

import (
	"context"

	opentracing "github.com/opentracing/opentracing-go"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// CompilationIdLogField is the logrus field carrying the compilation id.
const CompilationIdLogField = "compilationID"

// Context carries everything one compilation needs besides the tree
// itself: the cancellation context of the caller, a tracer, a logger and
// the query text being compiled.
type Context struct {
	context.Context
	id     string
	query  string
	tracer opentracing.Tracer
	logger *logrus.Entry
}

// ContextOption is a function to configure the context.
type ContextOption func(*Context)

// WithQuery adds the given query to the context.
func WithQuery(q string) ContextOption {
	return func(ctx *Context) {
		ctx.query = q
	}
}

// WithTracer adds the given tracer to the context.
func WithTracer(t opentracing.Tracer) ContextOption {
	return func(ctx *Context) {
		ctx.tracer = t
	}
}

// WithLogger sets the base logger of the context.
func WithLogger(l *logrus.Entry) ContextOption {
	return func(ctx *Context) {
		ctx.logger = l
	}
}

// NewContext creates a compilation context. Unless configured otherwise it
// has a fresh compilation id, a noop tracer and the standard logger.
func NewContext(ctx context.Context, opts ...ContextOption) *Context {
	id := uuid.NewV4()
	c := &Context{
		Context: ctx,
		id:      id.String(),
		tracer:  opentracing.NoopTracer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.WithField(CompilationIdLogField, c.id)
	}
	return c
}

// NewEmptyContext returns a default context with default values.
func NewEmptyContext() *Context { return NewContext(context.Background()) }

// Id returns the compilation id.
func (c *Context) Id() string { return c.id }

// Query returns the query text being compiled.
func (c *Context) Query() string { return c.query }

// Logger returns the context logger.
func (c *Context) Logger() *logrus.Entry { return c.logger }

// Span creates a new tracing span with the given context. It returns the
// span and a new context that should be passed to all children of this
// span.
func (c *Context) Span(opName string, opts ...opentracing.StartSpanOption) (opentracing.Span, *Context) {
	parentSpan := opentracing.SpanFromContext(c.Context)
	if parentSpan != nil {
		opts = append(opts, opentracing.ChildOf(parentSpan.Context()))
	}
	span := c.tracer.StartSpan(opName, opts...)
	ctx := opentracing.ContextWithSpan(c.Context, span)

	return span, c.WithContext(ctx)
}

// WithContext returns a new context with the given underlying context.
func (c *Context) WithContext(ctx context.Context) *Context {
	nc := *c
	nc.Context = ctx
	return &nc
}
