package translate

import (
	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/query"
	"github.com/roach88/relquery/internal/sqlexpr"
	"github.com/roach88/relquery/internal/typemap"
)

// Option configures a Translator.
type Option func(*Translator)

// WithMethodCallTranslators prepends method call translators.
func WithMethodCallTranslators(translators ...MethodCallTranslator) Option {
	return func(t *Translator) { t.methods.AddTranslators(translators...) }
}

// WithMemberTranslators prepends member translators.
func WithMemberTranslators(translators ...MemberTranslator) Option {
	return func(t *Translator) { t.members.AddTranslators(translators...) }
}

// WithStringFunctions registers the string member and method translators
// of a provider.
func WithStringFunctions(fns StringFunctions) Option {
	return func(t *Translator) {
		t.methods.AddTranslators(&stringMethodTranslator{fns: fns, applier: t.applier})
		t.members.AddTranslators(&stringMemberTranslator{fns: fns, applier: t.applier})
	}
}

// Translator converts expression trees into SQL nodes bound to a
// SelectBuilder. A Translator holds no per-query state and is safe for
// concurrent use once configured.
type Translator struct {
	registry *typemap.Registry
	applier  *TypeMappingApplier
	methods  *MethodCallTranslatorProvider
	members  *MemberTranslatorProvider
}

// NewTranslator returns a translator for the provider described by
// registry.
func NewTranslator(registry *typemap.Registry, opts ...Option) *Translator {
	applier := NewTypeMappingApplier(registry)
	t := &Translator{
		registry: registry,
		applier:  applier,
		methods:  NewMethodCallTranslatorProvider(applier),
		members:  NewMemberTranslatorProvider(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Applier returns the translator's type mapping applier.
func (t *Translator) Applier() *TypeMappingApplier {
	return t.applier
}

// Translate converts e into a SQL node in predicate (condition) or value
// context. Member reads on entity shapers bind to columns of sel.
func (t *Translator) Translate(sel *query.SelectBuilder, e expr.Node, condition bool) (sqlexpr.Node, error) {
	v := &visitor{Translator: t, sel: sel}
	translated, err := v.visit(e)
	if err != nil {
		return nil, err
	}
	if translated == nil {
		return nil, query.NewUnsupportedTranslation(e, "expression has no SQL translation")
	}
	result, err := t.applier.Apply(translated, t.registry.FindMapping(e.Type()), condition)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, query.NewUnsupportedTranslation(e, "expression has no SQL translation")
	}
	return result, nil
}

type visitor struct {
	*Translator
	sel *query.SelectBuilder
}

// visit returns a nil node when n has no translation.
func (v *visitor) visit(n expr.Node) (expr.Node, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case sqlexpr.Node, *expr.EntityShaper, *expr.Constant, *expr.Parameter:
		return n, nil
	case *expr.Member:
		return v.visitMember(n)
	case *expr.Call:
		return v.visitCall(n)
	case *expr.Binary:
		return v.visitBinary(n)
	case *expr.Unary:
		return v.visitUnary(n)
	case *expr.Conditional:
		return v.visitConditional(n)
	}
	return nil, nil
}

func (v *visitor) bindProperty(shaper *expr.EntityShaper, name string, at expr.Node) (expr.Node, error) {
	p := shaper.Entity.FindProperty(name)
	if p == nil {
		return nil, query.NewUnsupportedTranslation(at, "entity %s has no mapped property %q", shaper.Entity.Name, name)
	}
	return v.sel.BindProperty(shaper.ValueBuffer, p)
}

func (v *visitor) visitMember(m *expr.Member) (expr.Node, error) {
	operand, err := v.visit(m.Operand)
	if operand == nil || err != nil {
		return nil, err
	}
	if shaper, ok := operand.(*expr.EntityShaper); ok {
		return v.bindProperty(shaper, m.Name, m)
	}
	return v.members.Translate(m.Update(operand))
}

func (v *visitor) visitCall(c *expr.Call) (expr.Node, error) {
	if expr.IsPropertyMethod(c.Method) {
		if _, name, ok := expr.PropertyName(c); ok {
			entity, err := v.visit(c.Args[0])
			if err != nil {
				return nil, err
			}
			if shaper, ok := entity.(*expr.EntityShaper); ok {
				return v.bindProperty(shaper, name, c)
			}
		}
	}

	var object expr.Node
	if c.Object != nil {
		var err error
		object, err = v.visit(c.Object)
		if object == nil || err != nil {
			return nil, err
		}
	}
	args := make([]expr.Node, len(c.Args))
	for i, a := range c.Args {
		translated, err := v.visit(a)
		if translated == nil || err != nil {
			return nil, err
		}
		args[i] = translated
	}
	return v.methods.Translate(c.Update(object, args))
}

func (v *visitor) visitBinary(b *expr.Binary) (expr.Node, error) {
	left, err := v.visit(b.Left)
	if left == nil || err != nil {
		return nil, err
	}
	right, err := v.visit(b.Right)
	if right == nil || err != nil {
		return nil, err
	}

	switch {
	case b.Op == expr.OpAdd && b.Type() == expr.StringType:
		mapping := v.applier.InferMapping(left, right)
		if mapping == nil {
			return nil, query.NewInvalidTranslation(b, "string concatenation needs an operand with a type mapping")
		}
		l, err := v.applier.Apply(left, mapping, false)
		if l == nil || err != nil {
			return nil, err
		}
		r, err := v.applier.Apply(right, mapping, false)
		if r == nil || err != nil {
			return nil, err
		}
		return sqlexpr.NewBinary(expr.OpAdd, l, r, expr.StringType, mapping), nil

	case b.Op == expr.OpEqual || b.Op == expr.OpNotEqual:
		if n := v.nullComparison(left, right, b.Op == expr.OpNotEqual); n != nil {
			return n, nil
		}
	}

	return v.applier.Apply(b.Update(left, right), nil, false)
}

// nullComparison rewrites x == null and x != null into IS [NOT] NULL.
func (v *visitor) nullComparison(left, right expr.Node, negated bool) sqlexpr.Node {
	isNull := func(n expr.Node) bool {
		c, ok := n.(*expr.Constant)
		return ok && c.IsNull()
	}
	var operand expr.Node
	switch {
	case isNull(right):
		operand = left
	case isNull(left):
		operand = right
	default:
		return nil
	}
	sql, ok := operand.(sqlexpr.Node)
	if !ok {
		return nil
	}
	return sqlexpr.NewIsNull(sql, negated, v.applier.BoolMapping())
}

func (v *visitor) visitUnary(u *expr.Unary) (expr.Node, error) {
	operand, err := v.visit(u.Operand)
	if operand == nil || err != nil {
		return nil, err
	}

	switch u.Op {
	case expr.OpConvert:
		if _, ok := operand.(*expr.EntityShaper); ok && expr.IsBoxing(operand.Type(), u.Type()) {
			return operand, nil
		}
		// Elided or cast by the applier once a mapping is known.
		return u.Update(operand), nil
	case expr.OpNot:
		sql, err := v.applier.Apply(operand, v.applier.BoolMapping(), true)
		if sql == nil || err != nil {
			return nil, err
		}
		return sqlexpr.NewUnary(expr.OpNot, sql, expr.BoolType, v.applier.BoolMapping()), nil
	case expr.OpNegate:
		sql, err := v.applier.Apply(operand, v.applier.operandMapping(operand), false)
		if sql == nil || err != nil {
			return nil, err
		}
		return sqlexpr.NewUnary(expr.OpNegate, sql, u.Type(), sql.TypeMapping()), nil
	}
	return nil, nil
}

func (v *visitor) visitConditional(c *expr.Conditional) (expr.Node, error) {
	test, err := v.visit(c.Test)
	if test == nil || err != nil {
		return nil, err
	}
	ifTrue, err := v.visit(c.IfTrue)
	if ifTrue == nil || err != nil {
		return nil, err
	}
	ifFalse, err := v.visit(c.IfFalse)
	if ifFalse == nil || err != nil {
		return nil, err
	}

	testSQL, err := v.applier.Apply(test, v.applier.BoolMapping(), true)
	if testSQL == nil || err != nil {
		return nil, err
	}
	mapping := v.applier.InferMapping(ifTrue, ifFalse)
	if mapping == nil {
		mapping = v.registry.FindMapping(c.Type())
	}
	a, err := v.applier.Apply(ifTrue, mapping, false)
	if a == nil || err != nil {
		return nil, err
	}
	b, err := v.applier.Apply(ifFalse, mapping, false)
	if b == nil || err != nil {
		return nil, err
	}
	return sqlexpr.NewCase([]sqlexpr.When{{Test: testSQL, Result: a}}, b, c.Type(), mapping), nil
}
