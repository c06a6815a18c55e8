// Package typemap provides store type mappings for the relational query
// pipeline.
//
// A Mapping associates a Go value type with a store type name, a literal
// generation rule, a row accessor and an optional ValueConverter. Mappings
// are immutable and are always sourced from a provider Registry; the
// translator never constructs one ad hoc.
//
// Two provider registries ship with the package:
//
//	typemap.SQLServer() // nvarchar(max), bit, datetime2, uniqueidentifier, ...
//	typemap.SQLite()    // TEXT, INTEGER, REAL, BLOB
//
// Nullable Go types are pointers. FindMapping strips one pointer level, so
// *int and int resolve to the same mapping.
package typemap
