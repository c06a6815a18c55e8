// Package store provides the command and connection layer the query
// pipeline executes against.
//
// The package exposes three collaborators:
//   - Connection: a reference-counted connection. Open and Close calls
//     nest; the underlying connection is acquired on the first Open and
//     released by the matching last Close.
//   - DataReader: a forward-only row cursor. Values read from the current
//     row are only valid until the next Read.
//   - RelationalCommand: generated SQL text plus its parameter table,
//     bound by name when executed.
//
// # Database Configuration
//
// Open configures SQLite (mattn/go-sqlite3) like this:
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Additional pragmas and a setup script can be supplied with options.
package store
