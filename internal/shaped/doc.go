// Package shaped compiles a translated query into an executable, reusable
// sequence of materialized values and streams it from a connection.
//
// Compilation has two phases. Verify checks that every SQL expression of
// the finalized select is composed of nodes the generator can render.
// CompileShaper then replaces the projection bindings of the shaper
// expression with reads from fixed row positions.
//
// A compiled Query holds no per-execution state. Each call to Enumerate
// returns an Enumerator that opens the connection, generates the command
// and executes it on its first Next, and releases the reader and the
// connection when the rows are exhausted, when a read fails, or when it is
// closed.
package shaped
