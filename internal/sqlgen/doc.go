// Package sqlgen renders a finalized sqlexpr.Select into dialect SQL text
// and a parameter table.
//
// Rendering is a single pass over the algebra. Clauses are separated by
// newlines:
//
//	SELECT [TOP(n) ]projection
//	FROM tables
//	WHERE predicate
//	ORDER BY orderings
//	OFFSET n ROWS FETCH NEXT m ROWS ONLY
//
// Dialects differ in identifier quoting, paging syntax and whether the
// store has a native boolean type. On a store without one (SQL Server) a
// boolean value used as a predicate is compared with true, and a predicate
// used as a value is wrapped in CASE.
package sqlgen
