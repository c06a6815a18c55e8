// Package translate turns general expression trees into the SQL algebra.
//
// TypeMappingApplier is the single place that decides which store mapping
// a value carries and whether it sits in predicate or value context.
// Translator walks an expression bottom-up, binding entity member reads
// to columns of the SelectBuilder and delegating method calls and member
// reads it does not recognize to ordered translator registries. A
// translation that yields nothing is an error; there is no client-side
// fallback.
package translate
