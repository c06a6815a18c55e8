// Package sqlexpr defines the typed SQL expression algebra.
//
// Node is a sealed union: only the variants declared in this package
// implement it, and every consumer dispatches with an exhaustive type
// switch. Nodes are immutable once constructed. The predicate flag is
// changed with WithCondition, which returns a copy; a node shared by two
// contexts therefore never disagrees with itself.
//
// Select is the finalized, index-stable snapshot of one SELECT statement.
// It is produced by query.SelectBuilder and consumed by the SQL generator
// and the shaper compiler.
package sqlexpr
