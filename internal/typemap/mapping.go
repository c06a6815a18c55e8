package typemap

import (
	"fmt"
	"reflect"
)

// LiteralFunc renders a non-nil model value as SQL literal text.
type LiteralFunc func(v any) string

// Mapping associates a Go type with its store representation.
//
// Mappings are immutable once registered. Accessor names the Row getter
// that reads the provider value; Converter, when set, turns that provider
// value into ClrType.
type Mapping struct {
	ClrType   reflect.Type
	StoreType string
	Accessor  Accessor
	Converter *ValueConverter

	literal LiteralFunc
}

// NewMapping creates a mapping. literal may be nil, in which case values are
// formatted with %v.
func NewMapping(clrType reflect.Type, storeType string, accessor Accessor, literal LiteralFunc) *Mapping {
	return &Mapping{
		ClrType:   clrType,
		StoreType: storeType,
		Accessor:  accessor,
		literal:   literal,
	}
}

// WithConverter returns a copy of m that converts provider values with c.
func (m *Mapping) WithConverter(c *ValueConverter) *Mapping {
	clone := *m
	clone.Converter = c
	return &clone
}

// GenerateSQLLiteral renders v as literal SQL text. nil renders as NULL.
// Pointers are dereferenced first.
func (m *Mapping) GenerateSQLLiteral(v any) string {
	if v == nil {
		return "NULL"
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "NULL"
		}
		rv = rv.Elem()
	}
	v = rv.Interface()
	if m.literal == nil {
		return fmt.Sprintf("%v", v)
	}
	return m.literal(v)
}

// ProviderValue converts a model value into the value bound as a command
// parameter.
func (m *Mapping) ProviderValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	v = rv.Interface()
	if m.Converter != nil {
		return m.Converter.ConvertToProvider(v)
	}
	return v, nil
}

func (m *Mapping) String() string {
	return fmt.Sprintf("%s <-> %s", m.ClrType, m.StoreType)
}
