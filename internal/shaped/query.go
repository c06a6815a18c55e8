package shaped

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/query"
	"github.com/roach88/relquery/internal/sqlexpr"
	"github.com/roach88/relquery/internal/sqlgen"
	"github.com/roach88/relquery/internal/store"
)

// ShapedQuery is a translated query: the select under construction and the
// expression materializing each row from its projection.
type ShapedQuery struct {
	Select *query.SelectBuilder
	Shaper expr.Node
}

// QueryContext carries what one execution needs: the connection to run on
// and the values of the query's parameters.
type QueryContext struct {
	Connection      store.Connection
	ParameterValues map[string]any
}

// IDGenerator produces execution ids used to correlate log records of one
// enumeration.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 execution ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Option configures Compile.
type Option func(*options)

type options struct {
	logger *slog.Logger
	ids    IDGenerator
}

// WithLogger sets the logger enumerations report to.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithIDGenerator replaces the UUIDv7 execution id generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(o *options) { o.ids = ids }
}

// Query is a compiled, reusable query producing values of type T. It is
// immutable; every enumeration generates and executes its command afresh.
type Query[T any] struct {
	sel       *sqlexpr.Select
	shaper    *Shaper
	target    reflect.Type
	generator *sqlgen.Generator
	logger    *slog.Logger
	ids       IDGenerator
}

// Compile finalizes the select of sq, verifies it, and compiles its shaper.
// The select builder must not have been finalized already.
//
// Compile fails with an InvalidTranslation error if the shaper does not
// produce values assignable to T.
func Compile[T any](sq ShapedQuery, generator *sqlgen.Generator, opts ...Option) (*Query[T], error) {
	if sq.Select == nil || sq.Shaper == nil {
		return nil, query.NewInvalidTranslation(sq.Shaper, "shaped query needs a select and a shaper")
	}
	o := &options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(o)
	}

	sel := sq.Select.ApplyProjection()
	if err := Verify(sel); err != nil {
		return nil, err
	}
	shaper, err := CompileShaper(sq.Shaper, sel)
	if err != nil {
		return nil, err
	}
	target := reflect.TypeFor[T]()
	if !shaper.Type().AssignableTo(target) {
		return nil, query.NewInvalidTranslation(sq.Shaper, "shaper produces %s, not %s", shaper.Type(), target)
	}
	return &Query[T]{
		sel:       sel,
		shaper:    shaper,
		target:    target,
		generator: generator,
		logger:    o.logger,
		ids:       o.ids,
	}, nil
}

// Select returns the finalized select.
func (q *Query[T]) Select() *sqlexpr.Select { return q.sel }

// Shaper returns the compiled shaper.
func (q *Query[T]) Shaper() *Shaper { return q.shaper }

// Command generates the command for values without executing it.
func (q *Query[T]) Command(values map[string]any) (*store.RelationalCommand, error) {
	return q.generator.GetCommand(q.sel, values)
}

// Enumerate returns a new enumerator. Nothing is opened or executed until
// its first Next.
func (q *Query[T]) Enumerate(ctx context.Context, qc QueryContext) *Enumerator[T] {
	return &Enumerator[T]{ctx: ctx, query: q, qc: qc}
}

// All returns an iterator over the results. A failure is yielded once as
// the final pair. The enumerator is closed when iteration stops.
func (q *Query[T]) All(ctx context.Context, qc QueryContext) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		e := q.Enumerate(ctx, qc)
		defer e.Close()
		for e.Next() {
			if !yield(e.Current(), nil) {
				return
			}
		}
		if err := e.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// ToSlice enumerates all results.
func (q *Query[T]) ToSlice(ctx context.Context, qc QueryContext) ([]T, error) {
	var out []T
	for v, err := range q.All(ctx, qc) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
