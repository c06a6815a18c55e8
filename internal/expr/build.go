package expr

import (
	"fmt"
	"reflect"
)

// Const returns a constant of v's dynamic type. A nil v yields an untyped
// null of type any; use Null for a typed null.
func Const(v any) *Constant {
	if v == nil {
		return &Constant{typ: AnyType}
	}
	return &Constant{Value: v, typ: reflect.TypeOf(v)}
}

// TypedConst returns a constant with an explicit type.
func TypedConst(v any, t reflect.Type) *Constant {
	return &Constant{Value: v, typ: t}
}

// Null returns a null constant of type t.
func Null(t reflect.Type) *Constant {
	return &Constant{typ: t}
}

// Param returns a parameter named name of type t.
func Param(name string, t reflect.Type) *Parameter {
	return &Parameter{Name: name, typ: t}
}

// MemberOf returns a member access with an explicit result type.
func MemberOf(operand Node, name string, t reflect.Type) *Member {
	return &Member{Operand: operand, Name: name, typ: t}
}

// Field returns a member access whose type is read from the struct field
// name of operand's type. It panics if the field does not exist.
func Field(operand Node, name string) *Member {
	t := UnwrapNullable(operand.Type())
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("expr: field %q on non-struct type %v", name, operand.Type()))
	}
	f, ok := t.FieldByName(name)
	if !ok {
		panic(fmt.Sprintf("expr: type %v has no field %q", t, name))
	}
	return &Member{Operand: operand, Name: name, typ: f.Type}
}

// CallMethod returns an instance method call on object.
func CallMethod(object Node, name string, result reflect.Type, args ...Node) *Call {
	return &Call{
		Object: object,
		Method: Method{DeclaringType: object.Type(), Name: name},
		Args:   args,
		typ:    result,
	}
}

// CallStatic returns a static method call. declaring may be nil for a
// package-level function.
func CallStatic(declaring reflect.Type, name string, result reflect.Type, args ...Node) *Call {
	return &Call{
		Method: Method{DeclaringType: declaring, Name: name, Static: true},
		Args:   args,
		typ:    result,
	}
}

// MakeBinary returns left op right. Comparisons and logical operators
// produce bool; arithmetic produces the left operand's type.
func MakeBinary(op Op, left, right Node) *Binary {
	var t reflect.Type
	switch {
	case op.IsComparison(), op.IsLogical():
		t = BoolType
	case op.IsArithmetic():
		t = left.Type()
	default:
		panic(fmt.Sprintf("expr: %v is not a binary operator", op))
	}
	return &Binary{Op: op, Left: left, Right: right, typ: t}
}

// TypedBinary returns left op right with an explicit result type.
func TypedBinary(op Op, left, right Node, t reflect.Type) *Binary {
	return &Binary{Op: op, Left: left, Right: right, typ: t}
}

func Equal(l, r Node) *Binary              { return MakeBinary(OpEqual, l, r) }
func NotEqual(l, r Node) *Binary           { return MakeBinary(OpNotEqual, l, r) }
func LessThan(l, r Node) *Binary           { return MakeBinary(OpLessThan, l, r) }
func LessThanOrEqual(l, r Node) *Binary    { return MakeBinary(OpLessThanOrEqual, l, r) }
func GreaterThan(l, r Node) *Binary        { return MakeBinary(OpGreaterThan, l, r) }
func GreaterThanOrEqual(l, r Node) *Binary { return MakeBinary(OpGreaterThanOrEqual, l, r) }
func AndAlso(l, r Node) *Binary            { return MakeBinary(OpAndAlso, l, r) }
func OrElse(l, r Node) *Binary             { return MakeBinary(OpOrElse, l, r) }
func Add(l, r Node) *Binary                { return MakeBinary(OpAdd, l, r) }
func Subtract(l, r Node) *Binary           { return MakeBinary(OpSubtract, l, r) }
func Multiply(l, r Node) *Binary           { return MakeBinary(OpMultiply, l, r) }
func Divide(l, r Node) *Binary             { return MakeBinary(OpDivide, l, r) }
func Modulo(l, r Node) *Binary             { return MakeBinary(OpModulo, l, r) }

// Convert returns operand converted to t.
func Convert(operand Node, t reflect.Type) *Unary {
	return &Unary{Op: OpConvert, Operand: operand, typ: t}
}

// Not returns the logical negation of operand.
func Not(operand Node) *Unary {
	return &Unary{Op: OpNot, Operand: operand, typ: operand.Type()}
}

// Negate returns the arithmetic negation of operand.
func Negate(operand Node) *Unary {
	return &Unary{Op: OpNegate, Operand: operand, typ: operand.Type()}
}

// Condition returns test ? ifTrue : ifFalse, typed as ifTrue.
func Condition(test, ifTrue, ifFalse Node) *Conditional {
	return &Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse, typ: ifTrue.Type()}
}

// NewObject returns a construction of t assigning args to members. It
// panics if the lengths differ.
func NewObject(t reflect.Type, members []string, args []Node) *New {
	if len(members) != len(args) {
		panic(fmt.Sprintf("expr: %d members for %d arguments", len(members), len(args)))
	}
	return &New{Members: members, Args: args, typ: t}
}

// Lambda1 returns a single-parameter lambda.
func Lambda1(param *Parameter, body Node) *Lambda {
	return &Lambda{Params: []*Parameter{param}, Body: body}
}
