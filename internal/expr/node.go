package expr

import (
	"fmt"
	"reflect"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	KindConstant Kind = iota
	KindParameter
	KindMember
	KindCall
	KindBinary
	KindUnary
	KindConditional
	KindNew
	KindLambda
	KindExtension
)

var kindNames = [...]string{
	KindConstant:    "Constant",
	KindParameter:   "Parameter",
	KindMember:      "Member",
	KindCall:        "Call",
	KindBinary:      "Binary",
	KindUnary:       "Unary",
	KindConditional: "Conditional",
	KindNew:         "New",
	KindLambda:      "Lambda",
	KindExtension:   "Extension",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is an expression tree node.
type Node interface {
	// Type is the Go type of the value the node produces.
	Type() reflect.Type
	Kind() Kind
}

// Constant is a literal value.
type Constant struct {
	Value any
	typ   reflect.Type
}

func (c *Constant) Type() reflect.Type { return c.typ }
func (c *Constant) Kind() Kind         { return KindConstant }

// IsNull reports whether the constant is a null literal.
func (c *Constant) IsNull() bool {
	if c.Value == nil {
		return true
	}
	rv := reflect.ValueOf(c.Value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

// Parameter is a named value supplied at execution time, or the parameter
// of a Lambda.
type Parameter struct {
	Name string
	typ  reflect.Type
}

func (p *Parameter) Type() reflect.Type { return p.typ }
func (p *Parameter) Kind() Kind         { return KindParameter }

// Member reads a named member of Operand.
type Member struct {
	Operand Node
	Name    string
	typ     reflect.Type
}

func (m *Member) Type() reflect.Type { return m.typ }
func (m *Member) Kind() Kind         { return KindMember }

// Update returns m when operand is unchanged, otherwise a copy over operand.
func (m *Member) Update(operand Node) *Member {
	if operand == m.Operand {
		return m
	}
	return &Member{Operand: operand, Name: m.Name, typ: m.typ}
}

// Method identifies a called method or function.
type Method struct {
	// DeclaringType is the type the method belongs to; nil for package
	// level functions.
	DeclaringType reflect.Type
	Name          string
	Static        bool
}

func (m Method) String() string {
	if m.DeclaringType == nil {
		return m.Name
	}
	return m.DeclaringType.String() + "." + m.Name
}

// Call invokes Method on Object (nil for static methods) with Args.
type Call struct {
	Object Node
	Method Method
	Args   []Node
	typ    reflect.Type
}

func (c *Call) Type() reflect.Type { return c.typ }
func (c *Call) Kind() Kind         { return KindCall }

// Update returns a copy of c over object and args.
func (c *Call) Update(object Node, args []Node) *Call {
	return &Call{Object: object, Method: c.Method, Args: args, typ: c.typ}
}

// Binary applies Op to Left and Right.
type Binary struct {
	Op    Op
	Left  Node
	Right Node
	typ   reflect.Type
}

func (b *Binary) Type() reflect.Type { return b.typ }
func (b *Binary) Kind() Kind         { return KindBinary }

// Update returns b when both operands are unchanged, otherwise a copy.
func (b *Binary) Update(left, right Node) *Binary {
	if left == b.Left && right == b.Right {
		return b
	}
	return &Binary{Op: b.Op, Left: left, Right: right, typ: b.typ}
}

// Unary applies Op to Operand.
type Unary struct {
	Op      Op
	Operand Node
	typ     reflect.Type
}

func (u *Unary) Type() reflect.Type { return u.typ }
func (u *Unary) Kind() Kind         { return KindUnary }

// Update returns u when operand is unchanged, otherwise a copy.
func (u *Unary) Update(operand Node) *Unary {
	if operand == u.Operand {
		return u
	}
	return &Unary{Op: u.Op, Operand: operand, typ: u.typ}
}

// Conditional evaluates to IfTrue when Test holds and IfFalse otherwise.
type Conditional struct {
	Test    Node
	IfTrue  Node
	IfFalse Node
	typ     reflect.Type
}

func (c *Conditional) Type() reflect.Type { return c.typ }
func (c *Conditional) Kind() Kind         { return KindConditional }

// New constructs a value of a struct (or map[string]any) type, assigning
// Args[i] to Members[i].
type New struct {
	Members []string
	Args    []Node
	typ     reflect.Type
}

func (n *New) Type() reflect.Type { return n.typ }
func (n *New) Kind() Kind         { return KindNew }

// Lambda is a function literal over Params.
type Lambda struct {
	Params []*Parameter
	Body   Node
}

func (l *Lambda) Type() reflect.Type { return l.Body.Type() }
func (l *Lambda) Kind() Kind         { return KindLambda }
