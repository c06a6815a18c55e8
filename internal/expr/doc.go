// Package expr provides the general-purpose query expression tree that the
// relational pipeline translates into SQL.
//
// Expression trees are produced by the fluent querying API (package
// queryable) over mapped entity types. The tree is open: besides the
// built-in node kinds (constant, parameter, member access, method call,
// binary, unary, conditional, object construction, lambda) other packages
// contribute KindExtension nodes. The SQL algebra in package sqlexpr is the
// most important extension; EntityShaper and ProjectionBinding, declared
// here, anchor the seam between object-shaped and row-shaped values.
//
// Nullable Go values are pointers: UnwrapNullable strips one pointer level.
// Boxing to a common supertype is a Convert to an interface type.
package expr
