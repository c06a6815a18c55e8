package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/relquery/internal/store"
)

// ErrQueryFailed is returned by a FakeConnection configured to fail
// command execution.
var ErrQueryFailed = errors.New("testutil: query failed")

// Command records one command executed on a FakeConnection.
type Command struct {
	Text string
	Args []any
}

// FakeConnection is a store.Connection that serves canned rows and counts
// resource transitions.
//
// Every Query returns a fresh SliceReader over the same rows, so a query
// can be enumerated repeatedly. Open and Close are reference counted like
// the real connection.
//
// Thread-safety: counters are protected by an internal mutex.
type FakeConnection struct {
	mu       sync.Mutex
	rows     [][]any
	opens    int
	closes   int
	refs     int
	openErr  error
	queryErr error
	commands []Command
	readers  []*SliceReader
	readErr  error
	failAt   int
}

// NewFakeConnection returns a connection whose queries yield rows.
func NewFakeConnection(rows ...[]any) *FakeConnection {
	return &FakeConnection{rows: rows, failAt: -1}
}

// FailOpen makes Open return err.
func (c *FakeConnection) FailOpen(err error) *FakeConnection {
	c.openErr = err
	return c
}

// FailQuery makes Query return ErrQueryFailed.
func (c *FakeConnection) FailQuery() *FakeConnection {
	c.queryErr = ErrQueryFailed
	return c
}

// FailReadAt makes readers fail with err when advancing to row index i.
func (c *FakeConnection) FailReadAt(i int, err error) *FakeConnection {
	c.failAt = i
	c.readErr = err
	return c
}

func (c *FakeConnection) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.opens++
	c.refs++
	return nil
}

func (c *FakeConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 {
		return nil
	}
	c.closes++
	c.refs--
	return nil
}

func (c *FakeConnection) Query(ctx context.Context, text string, args ...any) (store.DataReader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refs == 0 {
		return nil, store.ErrConnectionClosed
	}
	c.commands = append(c.commands, Command{Text: text, Args: args})
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	r := NewSliceReader(c.rows)
	if c.readErr != nil {
		r.FailAt(c.failAt, c.readErr)
	}
	c.readers = append(c.readers, r)
	return r, nil
}

// Opens returns how many times the connection was opened.
func (c *FakeConnection) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

// Closes returns how many Close calls released a reference.
func (c *FakeConnection) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// IsOpen reports whether any reference is held.
func (c *FakeConnection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs > 0
}

// Commands returns the executed commands in order.
func (c *FakeConnection) Commands() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Command(nil), c.commands...)
}

// Readers returns the readers handed out, in order.
func (c *FakeConnection) Readers() []*SliceReader {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*SliceReader(nil), c.readers...)
}
