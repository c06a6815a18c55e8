package expr

import "reflect"

type propertyAccess struct{}

// PropertyAccessType declares the well-known Property method that reads a
// mapped property by name, independently of any struct field.
var PropertyAccessType = reflect.TypeFor[propertyAccess]()

// PropertyMethodName is the name of the well-known property read method.
const PropertyMethodName = "Property"

// Property returns a call reading the mapped property name of entity.
func Property(entity Node, name string, t reflect.Type) *Call {
	return CallStatic(PropertyAccessType, PropertyMethodName, t, entity, Const(name))
}

// IsPropertyMethod reports whether m is the well-known property read method.
func IsPropertyMethod(m Method) bool {
	return m.Static && m.DeclaringType == PropertyAccessType && m.Name == PropertyMethodName
}

// PropertyName extracts the entity operand and property name from a
// property read, whether expressed as a Member or a Property call.
func PropertyName(n Node) (Node, string, bool) {
	switch n := n.(type) {
	case *Member:
		return n.Operand, n.Name, true
	case *Call:
		if IsPropertyMethod(n.Method) && len(n.Args) == 2 {
			if c, ok := n.Args[1].(*Constant); ok {
				if name, ok := c.Value.(string); ok {
					return n.Args[0], name, true
				}
			}
		}
	}
	return nil, "", false
}
