package sqlexpr

import (
	"reflect"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/typemap"
)

// Node is a SQL expression. It is also an expr.Node of kind
// expr.KindExtension, so SQL fragments can sit inside a general expression
// tree while it is being translated.
type Node interface {
	expr.Node

	// TypeMapping is the store mapping the node renders and reads with.
	// It is nil only for fragments and nodes whose mapping is not yet known.
	TypeMapping() *typemap.Mapping

	// IsCondition reports whether the node is used in predicate context.
	IsCondition() bool

	withCondition(condition bool) Node
	sqlNode()
}

// WithCondition returns n flagged for predicate (true) or value (false)
// context. It returns n itself when the flag already matches and a copy
// otherwise; n is never modified.
func WithCondition(n Node, condition bool) Node {
	if n.IsCondition() == condition {
		return n
	}
	return n.withCondition(condition)
}

type base struct {
	typ       reflect.Type
	mapping   *typemap.Mapping
	condition bool
}

func (b *base) Type() reflect.Type            { return b.typ }
func (b *base) Kind() expr.Kind               { return expr.KindExtension }
func (b *base) TypeMapping() *typemap.Mapping { return b.mapping }
func (b *base) IsCondition() bool             { return b.condition }
func (b *base) sqlNode()                      {}

// Column reads column Name of Table.
type Column struct {
	base
	Name     string
	Table    *Table
	Nullable bool
}

// NewColumn returns a column of table.
func NewColumn(name string, table *Table, t reflect.Type, mapping *typemap.Mapping, nullable bool) *Column {
	return &Column{base: base{typ: t, mapping: mapping}, Name: name, Table: table, Nullable: nullable}
}

func (c *Column) withCondition(condition bool) Node {
	cp := *c
	cp.condition = condition
	return &cp
}

// Constant is a literal rendered through its type mapping.
type Constant struct {
	base
	Value any
}

// NewConstant returns a constant of type t rendered with mapping.
func NewConstant(value any, t reflect.Type, mapping *typemap.Mapping) *Constant {
	return &Constant{base: base{typ: t, mapping: mapping}, Value: value}
}

func (c *Constant) withCondition(condition bool) Node {
	cp := *c
	cp.condition = condition
	return &cp
}

// Parameter is a named command parameter.
type Parameter struct {
	base
	Name string
}

// NewParameter returns a parameter named name.
func NewParameter(name string, t reflect.Type, mapping *typemap.Mapping) *Parameter {
	return &Parameter{base: base{typ: t, mapping: mapping}, Name: name}
}

func (p *Parameter) withCondition(condition bool) Node {
	cp := *p
	cp.condition = condition
	return &cp
}

// Unary is NOT, negation or CAST (expr.OpConvert) over Operand.
type Unary struct {
	base
	Op      expr.Op
	Operand Node
}

// NewUnary returns op applied to operand. NOT is created in predicate
// context.
func NewUnary(op expr.Op, operand Node, t reflect.Type, mapping *typemap.Mapping) *Unary {
	return &Unary{base: base{typ: t, mapping: mapping, condition: op == expr.OpNot}, Op: op, Operand: operand}
}

func (u *Unary) withCondition(condition bool) Node {
	cp := *u
	cp.condition = condition
	return &cp
}

// Binary applies Op to Left and Right.
type Binary struct {
	base
	Op    expr.Op
	Left  Node
	Right Node
}

// NewBinary returns left op right. Comparisons and logical connectives are
// created in predicate context.
func NewBinary(op expr.Op, left, right Node, t reflect.Type, mapping *typemap.Mapping) *Binary {
	return &Binary{
		base:  base{typ: t, mapping: mapping, condition: op.IsComparison() || op.IsLogical()},
		Op:    op,
		Left:  left,
		Right: right,
	}
}

func (b *Binary) withCondition(condition bool) Node {
	cp := *b
	cp.condition = condition
	return &cp
}

// Function calls a store function. Schema is optional. Instance, when set,
// is rendered as the first argument.
type Function struct {
	base
	Schema   string
	Name     string
	Instance Node
	Args     []Node
}

// NewFunction returns a call to schema.name(args...).
func NewFunction(schema, name string, instance Node, args []Node, t reflect.Type, mapping *typemap.Mapping) *Function {
	return &Function{base: base{typ: t, mapping: mapping}, Schema: schema, Name: name, Instance: instance, Args: args}
}

func (f *Function) withCondition(condition bool) Node {
	cp := *f
	cp.condition = condition
	return &cp
}

// Fragment is raw SQL text emitted verbatim.
type Fragment struct {
	base
	SQL string
}

// NewFragment returns a raw SQL fragment.
func NewFragment(sql string) *Fragment {
	return &Fragment{base: base{typ: expr.AnyType}, SQL: sql}
}

func (f *Fragment) withCondition(condition bool) Node {
	cp := *f
	cp.condition = condition
	return &cp
}

// IsNull tests Operand for NULL, or NOT NULL when Negated.
type IsNull struct {
	base
	Operand Node
	Negated bool
}

// NewIsNull returns operand IS [NOT] NULL in predicate context.
func NewIsNull(operand Node, negated bool, mapping *typemap.Mapping) *IsNull {
	return &IsNull{base: base{typ: expr.BoolType, mapping: mapping, condition: true}, Operand: operand, Negated: negated}
}

func (n *IsNull) withCondition(condition bool) Node {
	cp := *n
	cp.condition = condition
	return &cp
}

// When is one WHEN test THEN result clause of a Case.
type When struct {
	Test   Node
	Result Node
}

// Case is a searched CASE with an optional ELSE.
type Case struct {
	base
	Whens []When
	Else  Node
}

// NewCase returns CASE whens [ELSE elseResult] END.
func NewCase(whens []When, elseResult Node, t reflect.Type, mapping *typemap.Mapping) *Case {
	return &Case{base: base{typ: t, mapping: mapping}, Whens: whens, Else: elseResult}
}

func (c *Case) withCondition(condition bool) Node {
	cp := *c
	cp.condition = condition
	return &cp
}

// Ordering is one ORDER BY key.
type Ordering struct {
	base
	Expr      Node
	Ascending bool
}

// NewOrdering returns an ordering over e.
func NewOrdering(e Node, ascending bool) *Ordering {
	return &Ordering{base: base{typ: e.Type(), mapping: e.TypeMapping()}, Expr: e, Ascending: ascending}
}

func (o *Ordering) withCondition(condition bool) Node {
	cp := *o
	cp.condition = condition
	return &cp
}
