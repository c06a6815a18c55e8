package translate

import (
	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/query"
	"github.com/roach88/relquery/internal/sqlexpr"
	"github.com/roach88/relquery/internal/typemap"
)

// TypeMappingApplier assigns store mappings and predicate context to
// expressions whose children are already translated.
type TypeMappingApplier struct {
	registry    *typemap.Registry
	boolMapping *typemap.Mapping
}

// NewTypeMappingApplier returns an applier resolving mappings in registry.
func NewTypeMappingApplier(registry *typemap.Registry) *TypeMappingApplier {
	return &TypeMappingApplier{
		registry:    registry,
		boolMapping: registry.FindMapping(expr.BoolType),
	}
}

// Registry returns the mapping registry.
func (a *TypeMappingApplier) Registry() *typemap.Registry {
	return a.registry
}

// BoolMapping returns the provider's bool mapping.
func (a *TypeMappingApplier) BoolMapping() *typemap.Mapping {
	return a.boolMapping
}

// Apply maps n with mapping in predicate (condition) or value context.
//
// SQL nodes keep their mapping and only have their context adjusted.
// Constants and parameters take mapping. Binary operators infer a shared
// mapping from their translated operands. A nil node with a nil error means
// n is not a value this applier can map.
func (a *TypeMappingApplier) Apply(n expr.Node, mapping *typemap.Mapping, condition bool) (sqlexpr.Node, error) {
	switch n := n.(type) {
	case sqlexpr.Node:
		return sqlexpr.WithCondition(n, condition), nil
	case *expr.Binary:
		return a.applyBinary(n, condition)
	case *expr.Unary:
		return a.applyUnary(n, mapping, condition)
	case *expr.Constant:
		if mapping == nil {
			return nil, nil
		}
		return sqlexpr.WithCondition(sqlexpr.NewConstant(n.Value, n.Type(), mapping), condition), nil
	case *expr.Parameter:
		if mapping == nil {
			return nil, nil
		}
		return sqlexpr.WithCondition(sqlexpr.NewParameter(n.Name, n.Type(), mapping), condition), nil
	}
	return nil, nil
}

// InferMapping returns the mapping of the first translated operand that
// carries one. A cast over a mapped operand supplies the mapping of the
// cast's target type.
func (a *TypeMappingApplier) InferMapping(nodes ...expr.Node) *typemap.Mapping {
	for _, n := range nodes {
		if m := a.inferMapping(n); m != nil {
			return m
		}
	}
	return nil
}

func (a *TypeMappingApplier) inferMapping(n expr.Node) *typemap.Mapping {
	switch n := n.(type) {
	case sqlexpr.Node:
		return n.TypeMapping()
	case *expr.Unary:
		if n.Op != expr.OpConvert {
			return nil
		}
		inner := a.inferMapping(n.Operand)
		if inner == nil {
			return nil
		}
		source, target := n.Operand.Type(), n.Type()
		if expr.IsBoxing(source, target) || expr.IsNullableWrap(source, target) {
			return inner
		}
		return a.registry.FindMapping(target)
	}
	return nil
}

func (a *TypeMappingApplier) applyBinary(b *expr.Binary, condition bool) (sqlexpr.Node, error) {
	inferred := a.InferMapping(b.Left, b.Right)
	if inferred == nil {
		return nil, query.NewInvalidTranslation(b, "no operand of %s supplies a type mapping", b.Op)
	}

	switch {
	case b.Op.IsComparison():
		if b.Type() != expr.BoolType {
			return nil, query.NewInvalidTranslation(b, "comparison must be of type bool, got %v", b.Type())
		}
		left, right, err := a.applyOperands(b, inferred, false)
		if left == nil || err != nil {
			return nil, err
		}
		node := sqlexpr.NewBinary(b.Op, left, right, expr.BoolType, a.boolMapping)
		return sqlexpr.WithCondition(node, condition), nil

	case b.Op.IsLogical():
		left, right, err := a.applyOperands(b, a.boolMapping, true)
		if left == nil || err != nil {
			return nil, err
		}
		node := sqlexpr.NewBinary(b.Op, left, right, expr.BoolType, a.boolMapping)
		return sqlexpr.WithCondition(node, condition), nil

	case b.Op.IsArithmetic():
		left, right, err := a.applyOperands(b, inferred, false)
		if left == nil || err != nil {
			return nil, err
		}
		node := sqlexpr.NewBinary(b.Op, left, right, b.Type(), inferred)
		return sqlexpr.WithCondition(node, condition), nil
	}
	return nil, nil
}

// applyOperands returns nil operands without error when either side is not
// mappable.
func (a *TypeMappingApplier) applyOperands(b *expr.Binary, mapping *typemap.Mapping, condition bool) (sqlexpr.Node, sqlexpr.Node, error) {
	left, err := a.Apply(b.Left, mapping, condition)
	if left == nil || err != nil {
		return nil, nil, err
	}
	right, err := a.Apply(b.Right, mapping, condition)
	if right == nil || err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (a *TypeMappingApplier) applyUnary(u *expr.Unary, mapping *typemap.Mapping, condition bool) (sqlexpr.Node, error) {
	if u.Op != expr.OpConvert {
		return nil, nil
	}
	target, source := u.Type(), u.Operand.Type()

	if expr.IsBoxing(source, target) {
		if mapping == nil || expr.UnwrapNullable(source) == mapping.ClrType {
			return a.Apply(u.Operand, mapping, condition)
		}
		// Boxed and compared against a differently typed operand.
		operand, err := a.Apply(u.Operand, a.operandMapping(u.Operand), false)
		if operand == nil || err != nil {
			return nil, err
		}
		cast := sqlexpr.NewUnary(expr.OpConvert, operand, mapping.ClrType, mapping)
		return sqlexpr.WithCondition(cast, condition), nil
	}

	if expr.IsNullableWrap(source, target) {
		return a.Apply(u.Operand, mapping, condition)
	}

	castMapping := a.registry.FindMapping(target)
	if castMapping == nil {
		return nil, nil
	}
	operand, err := a.Apply(u.Operand, a.operandMapping(u.Operand), false)
	if operand == nil || err != nil {
		return nil, err
	}
	cast := sqlexpr.NewUnary(expr.OpConvert, operand, target, castMapping)
	return sqlexpr.WithCondition(cast, condition), nil
}

func (a *TypeMappingApplier) operandMapping(n expr.Node) *typemap.Mapping {
	if m := a.InferMapping(n); m != nil {
		return m
	}
	return a.registry.FindMapping(n.Type())
}
