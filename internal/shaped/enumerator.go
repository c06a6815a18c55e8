package shaped

import (
	"context"
	"errors"
	"log/slog"
	"reflect"

	"github.com/roach88/relquery/internal/query"
	"github.com/roach88/relquery/internal/store"
)

// State is the lifecycle state of an Enumerator.
type State int

const (
	StateNotStarted State = iota
	StateActive
	StateExhausted
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateActive:
		return "active"
	case StateExhausted:
		return "exhausted"
	case StateDisposed:
		return "disposed"
	}
	return "unknown"
}

var errNoConnection = errors.New("query context has no connection")

// Enumerator streams the results of one execution of a Query.
//
// The first Next opens the connection, generates the command and executes
// it. The reader and the connection are released when the rows are
// exhausted, when opening, executing, reading or materializing fails, and
// on Close, whichever comes first; each is released exactly once.
//
// An Enumerator is not safe for concurrent use.
type Enumerator[T any] struct {
	ctx   context.Context
	query *Query[T]
	qc    QueryContext

	state    State
	logger   *slog.Logger
	reader   store.DataReader
	connOpen bool
	current  T
	rows     int
	err      error
}

// State returns the enumerator's lifecycle state.
func (e *Enumerator[T]) State() State { return e.state }

// Current returns the value materialized by the last successful Next.
func (e *Enumerator[T]) Current() T { return e.current }

// Err returns the failure that ended the enumeration, if any.
func (e *Enumerator[T]) Err() error { return e.err }

// Next advances to the next result. It returns false when the results are
// exhausted, after a failure (see Err), or once the enumerator is closed.
func (e *Enumerator[T]) Next() bool {
	switch e.state {
	case StateExhausted, StateDisposed:
		return false
	case StateNotStarted:
		if err := e.start(); err != nil {
			e.fail(err)
			return false
		}
		e.state = StateActive
	}

	ok, err := e.reader.Read()
	if err != nil {
		e.fail(query.NewExecutionFailure(err, "read row %d", e.rows))
		return false
	}
	if !ok {
		e.finish()
		return false
	}

	v, err := e.query.shaper.read(e.reader)
	if err != nil {
		e.fail(query.NewExecutionFailure(err, "materialize row %d", e.rows))
		return false
	}
	out := reflect.New(e.query.target)
	out.Elem().Set(v)
	e.current = *out.Interface().(*T)
	e.rows++
	return true
}

func (e *Enumerator[T]) start() error {
	e.logger = e.query.logger.With("execution", e.query.ids.Generate())

	conn := e.qc.Connection
	if conn == nil {
		return query.NewExecutionFailure(errNoConnection, "open connection")
	}
	if err := conn.Open(e.ctx); err != nil {
		return query.NewExecutionFailure(err, "open connection")
	}
	e.connOpen = true

	cmd, err := e.query.generator.GetCommand(e.query.sel, e.qc.ParameterValues)
	if err != nil {
		return err
	}
	reader, err := cmd.ExecuteReader(e.ctx, conn, e.qc.ParameterValues)
	if err != nil {
		return query.NewExecutionFailure(err, "execute command")
	}
	e.reader = reader
	e.logger.Debug("enumeration started", "parameters", len(cmd.Parameters))
	return nil
}

func (e *Enumerator[T]) fail(err error) {
	e.err = err
	if rerr := e.release(); rerr != nil {
		e.err = errors.Join(err, rerr)
	}
	e.state = StateExhausted
	e.logger.Debug("enumeration failed", "rows", e.rows, "error", err)
}

func (e *Enumerator[T]) finish() {
	e.err = e.release()
	e.state = StateExhausted
	e.logger.Debug("enumeration finished", "rows", e.rows)
}

// release closes the reader and then the connection, each at most once.
func (e *Enumerator[T]) release() error {
	var errs []error
	if e.reader != nil {
		if err := e.reader.Close(); err != nil {
			errs = append(errs, err)
		}
		e.reader = nil
	}
	if e.connOpen {
		if err := e.qc.Connection.Close(); err != nil {
			errs = append(errs, err)
		}
		e.connOpen = false
	}
	return errors.Join(errs...)
}

// Close releases the reader and the connection if they are still held.
// It may be called in any state and more than once.
//
// Closing before the first Next deliberately never opens the connection,
// so the connection sees neither an open nor a close. Once Next has opened
// it, disposal before any row is read closes it exactly once.
func (e *Enumerator[T]) Close() error {
	if e.state == StateDisposed {
		return nil
	}
	err := e.release()
	e.state = StateDisposed
	return err
}
