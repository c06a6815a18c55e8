package typemap

import (
	"fmt"
	"reflect"
)

// ValueConverter converts between the model representation of a value and
// the representation stored by the provider.
type ValueConverter struct {
	ModelType    reflect.Type
	ProviderType reflect.Type

	toProvider   func(any) (any, error)
	fromProvider func(any) (any, error)
}

// NewValueConverter builds a converter from a pair of typed functions.
func NewValueConverter[M, P any](toProvider func(M) (P, error), fromProvider func(P) (M, error)) *ValueConverter {
	return &ValueConverter{
		ModelType:    reflect.TypeOf((*M)(nil)).Elem(),
		ProviderType: reflect.TypeOf((*P)(nil)).Elem(),
		toProvider: func(v any) (any, error) {
			m, ok := v.(M)
			if !ok {
				return nil, fmt.Errorf("converter expects %T, got %T", *new(M), v)
			}
			return toProvider(m)
		},
		fromProvider: func(v any) (any, error) {
			p, ok := v.(P)
			if !ok {
				return nil, fmt.Errorf("converter expects provider %T, got %T", *new(P), v)
			}
			return fromProvider(p)
		},
	}
}

// ConvertToProvider converts a model value into its stored form.
// nil passes through unchanged.
func (c *ValueConverter) ConvertToProvider(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return c.toProvider(v)
}

// ConvertFromProvider converts a stored value back into its model form.
// nil passes through unchanged.
func (c *ValueConverter) ConvertFromProvider(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return c.fromProvider(v)
}
