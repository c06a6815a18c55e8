package shaped

import (
	"fmt"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/query"
	"github.com/roach88/relquery/internal/sqlexpr"
)

// Verify reports a MaterializationInconsistency if any projection,
// predicate, ordering, offset or limit expression of sel contains a node
// that is not SQL-legal.
//
// Columns, constants and parameters are legal leaves. Functions, NOT,
// negation, CAST, binary operators, IS NULL and CASE are legal when their
// operands are. A raw fragment is legal only as a function argument.
func Verify(sel *sqlexpr.Select) error {
	for i, p := range sel.Projection() {
		if err := verify(p.Expr, false); err != nil {
			return wrapClause(err, "projection %d", i)
		}
	}
	if p := sel.Predicate(); p != nil {
		if err := verify(p, false); err != nil {
			return wrapClause(err, "predicate")
		}
	}
	for i, o := range sel.Orderings() {
		if err := verify(o.Expr, false); err != nil {
			return wrapClause(err, "ordering %d", i)
		}
	}
	if n := sel.Offset(); n != nil {
		if err := verify(n, false); err != nil {
			return wrapClause(err, "offset")
		}
	}
	if n := sel.Limit(); n != nil {
		if err := verify(n, false); err != nil {
			return wrapClause(err, "limit")
		}
	}
	return nil
}

func wrapClause(err error, format string, args ...any) error {
	return fmt.Errorf("verify %s: %w", fmt.Sprintf(format, args...), err)
}

func verify(n sqlexpr.Node, argument bool) error {
	switch n := n.(type) {
	case nil:
		return query.NewMaterializationInconsistency(nil, "missing expression")
	case *sqlexpr.Column, *sqlexpr.Constant, *sqlexpr.Parameter:
		return nil
	case *sqlexpr.Fragment:
		if argument {
			return nil
		}
		return query.NewMaterializationInconsistency(n, "raw SQL fragment outside a function call")
	case *sqlexpr.Function:
		if n.Instance != nil {
			if err := verify(n.Instance, true); err != nil {
				return err
			}
		}
		for _, a := range n.Args {
			if err := verify(a, true); err != nil {
				return err
			}
		}
		return nil
	case *sqlexpr.Unary:
		switch n.Op {
		case expr.OpNot, expr.OpNegate, expr.OpConvert:
			return verify(n.Operand, false)
		}
		return query.NewMaterializationInconsistency(n, "operator %s has no SQL form", n.Op)
	case *sqlexpr.Binary:
		if err := verify(n.Left, false); err != nil {
			return err
		}
		return verify(n.Right, false)
	case *sqlexpr.IsNull:
		return verify(n.Operand, false)
	case *sqlexpr.Case:
		for _, w := range n.Whens {
			if err := verify(w.Test, false); err != nil {
				return err
			}
			if err := verify(w.Result, false); err != nil {
				return err
			}
		}
		if n.Else != nil {
			return verify(n.Else, false)
		}
		return nil
	}
	return query.NewMaterializationInconsistency(n, "%T is not a SQL expression", n)
}
