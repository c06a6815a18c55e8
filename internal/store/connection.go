package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrConnectionClosed is returned when querying a connection that is not
// open.
var ErrConnectionClosed = errors.New("connection is not open")

// Connection is a reference-counted database connection.
type Connection interface {
	// Open acquires the connection, or increments the reference count if
	// it is already open.
	Open(ctx context.Context) error

	// Close decrements the reference count and releases the connection when
	// it reaches zero. Closing a connection that is not open is a no-op.
	Close() error

	// Query runs text with args on the open connection.
	Query(ctx context.Context, text string, args ...any) (DataReader, error)
}

type sqliteConnection struct {
	db     *sql.DB
	logger *slog.Logger

	mu   sync.Mutex
	refs int
	conn *sql.Conn
}

func (c *sqliteConnection) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refs > 0 {
		c.refs++
		return nil
	}
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open connection: %w", err)
	}
	c.conn = conn
	c.refs = 1
	c.logger.Debug("connection opened")
	return nil
}

func (c *sqliteConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refs == 0 {
		return nil
	}
	c.refs--
	if c.refs > 0 {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.logger.Debug("connection closed")
	if err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}

func (c *sqliteConnection) Query(ctx context.Context, text string, args ...any) (DataReader, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil, ErrConnectionClosed
	}
	rows, err := conn.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, err
	}
	return NewRowsReader(rows)
}
