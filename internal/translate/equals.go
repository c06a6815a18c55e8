package translate

import (
	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/query"
	"github.com/roach88/relquery/internal/sqlexpr"
)

// EqualsTranslator rewrites Equals calls, both the one-argument instance
// form and the two-argument static form, into SQL equality.
type EqualsTranslator struct {
	applier *TypeMappingApplier
}

// NewEqualsTranslator returns an equality translator.
func NewEqualsTranslator(applier *TypeMappingApplier) *EqualsTranslator {
	return &EqualsTranslator{applier: applier}
}

// Translate implements MethodCallTranslator. Operands whose unwrapped types
// differ can never be equal, so the call becomes the constant false.
func (t *EqualsTranslator) Translate(call *expr.Call) (expr.Node, error) {
	if call.Method.Name != "Equals" {
		return nil, nil
	}

	var left, right expr.Node
	switch {
	case len(call.Args) == 1 && call.Object != nil:
		left = call.Object
		right = unwrapBoxing(call.Args[0])
	case len(call.Args) == 2 && call.Args[0].Type() == call.Args[1].Type():
		left = unwrapBoxing(call.Args[0])
		right = unwrapBoxing(call.Args[1])
	default:
		return nil, nil
	}

	if expr.UnwrapNullable(left.Type()) != expr.UnwrapNullable(right.Type()) {
		return sqlexpr.NewConstant(false, expr.BoolType, t.applier.BoolMapping()), nil
	}

	mapping := t.applier.InferMapping(left, right)
	if mapping == nil {
		return nil, query.NewInvalidTranslation(call, "no argument of Equals supplies a type mapping")
	}
	l, err := t.applier.Apply(left, mapping, false)
	if l == nil || err != nil {
		return nil, err
	}
	r, err := t.applier.Apply(right, mapping, false)
	if r == nil || err != nil {
		return nil, err
	}
	return sqlexpr.NewBinary(expr.OpEqual, l, r, expr.BoolType, t.applier.BoolMapping()), nil
}

func unwrapBoxing(n expr.Node) expr.Node {
	if u, ok := n.(*expr.Unary); ok && u.Op == expr.OpConvert && u.Type() == expr.AnyType {
		return u.Operand
	}
	return n
}
