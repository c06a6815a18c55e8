// Package query holds the mutable Select model and the error taxonomy of
// the translation pipeline.
//
// SelectBuilder accumulates tables, projections, a predicate, orderings and
// paging for one SELECT statement. ApplyProjection assigns final row
// positions to every projection member and freezes the builder into an
// immutable sqlexpr.Select; it may be called exactly once, and any
// mutation afterwards panics.
package query
