package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

var defaultPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Option configures Open.
type Option func(*options)

type options struct {
	pragmas []string
	setup   string
	logger  *slog.Logger
}

// WithPragmas appends pragmas applied after the defaults.
func WithPragmas(pragmas ...string) Option {
	return func(o *options) { o.pragmas = append(o.pragmas, pragmas...) }
}

// WithSetupScript executes script once the database is open, typically to
// create and seed tables.
func WithSetupScript(script string) Option {
	return func(o *options) { o.setup = script }
}

// WithLogger sets the logger used by the store and its connection.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Store is a SQLite database.
type Store struct {
	db     *sql.DB
	conn   *sqliteConnection
	logger *slog.Logger
}

// Open creates or opens a SQLite database at path.
//
// The pool is limited to a single connection: SQLite has one writer and an
// in-memory database exists only on the connection that created it.
func Open(path string, opts ...Option) (*Store, error) {
	o := &options{
		pragmas: append([]string{}, defaultPragmas...),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, o.pragmas); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if o.setup != "" {
		if _, err := db.Exec(o.setup); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run setup script: %w", err)
		}
	}

	s := &Store{db: db, logger: o.logger}
	s.conn = &sqliteConnection{db: db, logger: o.logger}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Exec runs statements outside any query enumeration. It must not be
// called while the store's connection is open: the pool holds a single
// connection.
func (s *Store) Exec(ctx context.Context, script string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, script, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// Connection returns the store's reference-counted connection. Every call
// returns the same Connection.
func (s *Store) Connection() Connection {
	return s.conn
}

func applyPragmas(db *sql.DB, pragmas []string) error {
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
