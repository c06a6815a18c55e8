package expr

import (
	"reflect"
	"time"
)

var (
	BoolType   = reflect.TypeFor[bool]()
	StringType = reflect.TypeFor[string]()
	IntType    = reflect.TypeFor[int]()
	Int64Type  = reflect.TypeFor[int64]()
	AnyType    = reflect.TypeFor[any]()
	TimeType   = reflect.TypeFor[time.Time]()
	RowMapType = reflect.TypeFor[map[string]any]()
)

// IsNullable reports whether t can hold a null: pointers, interfaces,
// maps and slices.
func IsNullable(t reflect.Type) bool {
	if t == nil {
		return true
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

// UnwrapNullable strips one pointer level from t.
func UnwrapNullable(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// IsBoxing reports whether converting from to to only widens to an
// interface type.
func IsBoxing(from, to reflect.Type) bool {
	return to != nil && to.Kind() == reflect.Interface && from != nil && from.Implements(to)
}

// IsNullableWrap reports whether to is from or *from up to nullability.
func IsNullableWrap(from, to reflect.Type) bool {
	return UnwrapNullable(from) == UnwrapNullable(to)
}

// IsBool reports whether t is bool or *bool.
func IsBool(t reflect.Type) bool {
	return UnwrapNullable(t) == BoolType
}
