// Package queryable composes queries over a root entity from lambda
// operators and translates them into shaped queries.
//
// A Query records operators without touching SQL:
//
//	adults := queryable.From(person).
//	    Where(q.Lambda(func(p expr.Node) expr.Node {
//	        return expr.GreaterThan(expr.Field(p, "Age"), expr.Const(17))
//	    })).
//	    OrderBy(...).
//	    Take(expr.Const(10))
//
// Translate replays the operators against a fresh select of the entity's
// table. The current element is tracked as a selector expression over the
// entity shaper, so operators after Select see through the projection and
// bind to the same columns. Only the final selector is projected.
package queryable
