package queryable

import (
	"fmt"
	"reflect"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/model"
	"github.com/roach88/relquery/internal/query"
	"github.com/roach88/relquery/internal/shaped"
	"github.com/roach88/relquery/internal/sqlexpr"
	"github.com/roach88/relquery/internal/sqlgen"
	"github.com/roach88/relquery/internal/translate"
)

type operatorKind int

const (
	opWhere operatorKind = iota
	opOrderBy
	opThenBy
	opSkip
	opTake
	opSelect
)

func (k operatorKind) String() string {
	switch k {
	case opWhere:
		return "Where"
	case opOrderBy:
		return "OrderBy"
	case opThenBy:
		return "ThenBy"
	case opSkip:
		return "Skip"
	case opTake:
		return "Take"
	case opSelect:
		return "Select"
	}
	return fmt.Sprintf("operator(%d)", int(k))
}

type operator struct {
	kind       operatorKind
	lambda     *expr.Lambda
	descending bool
	count      expr.Node
}

// Query is an immutable sequence of operators over a root entity. Every
// method returns a new Query and leaves the receiver unchanged.
type Query struct {
	entity    *model.EntityType
	element   reflect.Type
	operators []operator
}

// From starts a query over every row of entity.
func From(entity *model.EntityType) *Query {
	return &Query{entity: entity, element: entityType(entity)}
}

func entityType(e *model.EntityType) reflect.Type {
	if e.GoType == nil {
		return expr.RowMapType
	}
	return e.GoType
}

// Entity is the root entity.
func (q *Query) Entity() *model.EntityType { return q.entity }

// ElementType is the Go type of the values the query produces.
func (q *Query) ElementType() reflect.Type { return q.element }

// Lambda builds a single-parameter lambda over the current element type.
func (q *Query) Lambda(body func(x expr.Node) expr.Node) *expr.Lambda {
	p := expr.Param("x", q.element)
	return expr.Lambda1(p, body(p))
}

func (q *Query) with(op operator, element reflect.Type) *Query {
	ops := make([]operator, len(q.operators), len(q.operators)+1)
	copy(ops, q.operators)
	return &Query{entity: q.entity, element: element, operators: append(ops, op)}
}

// Where filters elements by predicate. Successive filters combine with AND.
func (q *Query) Where(predicate *expr.Lambda) *Query {
	return q.with(operator{kind: opWhere, lambda: predicate}, q.element)
}

// OrderBy replaces any ordering with key ascending.
func (q *Query) OrderBy(key *expr.Lambda) *Query {
	return q.with(operator{kind: opOrderBy, lambda: key}, q.element)
}

// OrderByDescending replaces any ordering with key descending.
func (q *Query) OrderByDescending(key *expr.Lambda) *Query {
	return q.with(operator{kind: opOrderBy, lambda: key, descending: true}, q.element)
}

// ThenBy appends key ascending to an existing ordering.
func (q *Query) ThenBy(key *expr.Lambda) *Query {
	return q.with(operator{kind: opThenBy, lambda: key}, q.element)
}

// ThenByDescending appends key descending to an existing ordering.
func (q *Query) ThenByDescending(key *expr.Lambda) *Query {
	return q.with(operator{kind: opThenBy, lambda: key, descending: true}, q.element)
}

// Skip bypasses the first n elements. n is an int constant or a named
// parameter supplied at execution.
func (q *Query) Skip(n expr.Node) *Query {
	return q.with(operator{kind: opSkip, count: n}, q.element)
}

// Take limits the result to n elements. n is an int constant or a named
// parameter supplied at execution.
func (q *Query) Take(n expr.Node) *Query {
	return q.with(operator{kind: opTake, count: n}, q.element)
}

// Select projects each element through selector. The selector body may
// construct a struct or map with expr.NewObject, read members, or return
// the element itself.
func (q *Query) Select(selector *expr.Lambda) *Query {
	return q.with(operator{kind: opSelect, lambda: selector}, selector.Body.Type())
}

// Translator replays queries into shaped queries using an expression
// translator.
type Translator struct {
	translator *translate.Translator
}

// NewTranslator returns a Translator over t.
func NewTranslator(t *translate.Translator) *Translator {
	return &Translator{translator: t}
}

// Translate builds the select and shaper for q. Operators that would need
// a subquery (filtering, ordering or paging after Take, and Skip after
// Skip) fail with an unsupported translation error.
func (t *Translator) Translate(q *Query) (shaped.ShapedQuery, error) {
	st := &state{
		translator: t.translator,
		sel:        query.NewEntitySelect(q.entity),
	}
	st.root = expr.NewEntityShaper(q.entity, expr.NewProjectionBinding(expr.ProjectionMember{}, entityType(q.entity)))
	st.selector = st.root

	for _, op := range q.operators {
		if err := st.apply(op); err != nil {
			return shaped.ShapedQuery{}, err
		}
	}
	shaper, err := st.project()
	if err != nil {
		return shaped.ShapedQuery{}, err
	}
	return shaped.ShapedQuery{Select: st.sel, Shaper: shaper}, nil
}

// Compile translates q and compiles the result for enumeration as T.
func Compile[T any](q *Query, t *Translator, generator *sqlgen.Generator, opts ...shaped.Option) (*shaped.Query[T], error) {
	sq, err := t.Translate(q)
	if err != nil {
		return nil, err
	}
	return shaped.Compile[T](sq, generator, opts...)
}

type state struct {
	translator *translate.Translator
	sel        *query.SelectBuilder
	root       *expr.EntityShaper
	selector   expr.Node
	ordered    bool
	skipped    bool
	taken      bool
}

func (s *state) apply(op operator) error {
	if s.taken && op.kind != opSelect {
		return query.NewUnsupportedTranslation(nil, "%s after Take requires a subquery", op.kind)
	}
	switch op.kind {
	case opWhere:
		if s.skipped {
			return query.NewUnsupportedTranslation(nil, "Where after Skip requires a subquery")
		}
		pred, err := s.translator.Translate(s.sel, s.inline(op.lambda), true)
		if err != nil {
			return err
		}
		s.sel.ApplyPredicate(pred)

	case opOrderBy, opThenBy:
		if s.skipped {
			return query.NewUnsupportedTranslation(nil, "%s after Skip requires a subquery", op.kind)
		}
		if op.kind == opThenBy && !s.ordered {
			return query.NewInvalidTranslation(nil, "ThenBy requires a preceding OrderBy")
		}
		key, err := s.translator.Translate(s.sel, s.inline(op.lambda), false)
		if err != nil {
			return err
		}
		if op.kind == opOrderBy {
			s.sel.ClearOrderings()
		}
		s.sel.AddOrdering(sqlexpr.NewOrdering(key, !op.descending))
		s.ordered = true

	case opSkip:
		if s.skipped {
			return query.NewUnsupportedTranslation(nil, "Skip after Skip requires a subquery")
		}
		n, err := s.count(op)
		if err != nil {
			return err
		}
		s.sel.ApplyOffset(n)
		s.skipped = true

	case opTake:
		n, err := s.count(op)
		if err != nil {
			return err
		}
		s.sel.ApplyLimit(n)
		s.taken = true

	case opSelect:
		s.selector = s.inline(op.lambda)
	}
	return nil
}

// inline substitutes the current selector for the lambda's parameter and
// folds member reads of constructed objects into the constructor argument.
func (s *state) inline(l *expr.Lambda) expr.Node {
	return simplify(expr.Inline(l, s.selector))
}

func simplify(n expr.Node) expr.Node {
	return expr.Transform(n, func(c expr.Node) (expr.Node, bool) {
		operand, name, ok := expr.PropertyName(c)
		if !ok {
			return nil, false
		}
		if obj, ok := simplify(operand).(*expr.New); ok {
			for i, m := range obj.Members {
				if m == name {
					return obj.Args[i], true
				}
			}
		}
		return nil, false
	})
}

func (s *state) count(op operator) (sqlexpr.Node, error) {
	switch op.count.(type) {
	case *expr.Constant, *expr.Parameter:
	default:
		return nil, query.NewUnsupportedTranslation(op.count, "%s count must be a constant or parameter", op.kind)
	}
	if t := op.count.Type(); t.Kind() != reflect.Int {
		return nil, query.NewInvalidTranslation(op.count, "%s count has type %s, want int", op.kind, t)
	}
	return s.translator.Translate(s.sel, op.count, false)
}

type binding struct {
	member expr.ProjectionMember
	node   expr.Node
}

// project binds the final selector to projection members and returns the
// shaper reading them back. Leaves are translated before the entity
// projection is cleared so that property reads still resolve.
func (s *state) project() (expr.Node, error) {
	if s.selector == s.root {
		return s.root, nil
	}
	rootProjection, _ := s.sel.GetProjection(expr.ProjectionMember{})
	var bindings []binding
	var walk func(n expr.Node, member expr.ProjectionMember) (expr.Node, error)
	walk = func(n expr.Node, member expr.ProjectionMember) (expr.Node, error) {
		switch n := n.(type) {
		case *expr.New:
			args := make([]expr.Node, len(n.Args))
			for i, a := range n.Args {
				shaper, err := walk(a, member.Append(n.Members[i]))
				if err != nil {
					return nil, err
				}
				args[i] = shaper
			}
			return expr.NewObject(n.Type(), n.Members, args), nil
		case *expr.EntityShaper:
			if n != s.root {
				return nil, query.NewInvalidTranslation(n, "entity %s is not the query root", n.Entity.Name)
			}
			bindings = append(bindings, binding{member: member, node: rootProjection})
			return expr.NewEntityShaper(n.Entity, expr.NewProjectionBinding(member, entityType(n.Entity))), nil
		case *expr.Unary:
			if n.Op == expr.OpConvert && expr.IsBoxing(n.Operand.Type(), n.Type()) {
				inner, err := walk(n.Operand, member)
				if err != nil {
					return nil, err
				}
				return expr.Convert(inner, n.Type()), nil
			}
		case *expr.Constant:
			return n, nil
		}
		sql, err := s.translator.Translate(s.sel, n, false)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding{member: member, node: sql})
		return expr.NewProjectionBinding(member, n.Type()), nil
	}

	shaper, err := walk(s.selector, expr.ProjectionMember{})
	if err != nil {
		return nil, err
	}
	s.sel.ClearProjection()
	for _, b := range bindings {
		s.sel.SetProjection(b.member, b.node)
	}
	return shaper, nil
}
