package model

import (
	"fmt"
	"reflect"
	"strings"
)

// EntityOption configures an entity registered with Model.Entity.
type EntityOption func(*entityConfig)

type entityConfig struct {
	name   string
	table  string
	schema string
	base   *EntityType
}

// WithName overrides the entity name (default: the struct type name).
func WithName(name string) EntityOption {
	return func(c *entityConfig) { c.name = name }
}

// WithTable sets the table name (default: the entity name, or the base
// entity's table for derived entities).
func WithTable(table string) EntityOption {
	return func(c *entityConfig) { c.table = table }
}

// WithSchema sets the table schema.
func WithSchema(schema string) EntityOption {
	return func(c *entityConfig) { c.schema = schema }
}

// WithBase declares base as the parent entity. The derived struct must
// embed the base struct.
func WithBase(base *EntityType) EntityOption {
	return func(c *entityConfig) { c.base = base }
}

// Entity registers the struct type of sample as an entity type.
//
// Exported fields become properties. Column names come from the `db` tag,
// defaulting to the field name; `db:"-"` skips a field and a ",nullable"
// tag option marks a non-pointer field nullable. Pointer fields are always
// nullable.
func (m *Model) Entity(sample any, opts ...EntityOption) (*EntityType, error) {
	rt := reflect.TypeOf(sample)
	if rt == nil {
		return nil, fmt.Errorf("entity sample must not be nil")
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity %s: expected struct, got %s", rt, rt.Kind())
	}

	cfg := &entityConfig{name: rt.Name()}
	for _, opt := range opts {
		opt(cfg)
	}

	e := newEntityType(cfg.name)
	e.GoType = rt
	e.Schema = cfg.schema
	e.Base = cfg.base
	switch {
	case cfg.table != "":
		e.Table = cfg.table
	case cfg.base != nil:
		e.Table = cfg.base.Table
		e.Schema = cfg.base.Schema
	}

	baseEmbedded := false
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if cfg.base != nil && f.Anonymous && f.Type == cfg.base.GoType {
			if err := inherit(e, cfg.base, []int{i}); err != nil {
				return nil, err
			}
			baseEmbedded = true
			continue
		}
		if !f.IsExported() {
			continue
		}
		column, nullable, skip := parseTag(f)
		if skip {
			continue
		}
		mapping := m.registry.FindMapping(f.Type)
		if mapping == nil {
			return nil, fmt.Errorf("entity %s: no store mapping for field %s (%s)", e.Name, f.Name, f.Type)
		}
		p := &Property{
			Name:          f.Name,
			Column:        column,
			GoType:        f.Type,
			Nullable:      nullable || f.Type.Kind() == reflect.Pointer || f.Type.Kind() == reflect.Slice,
			Mapping:       mapping,
			DeclaringType: e,
			fieldIndex:    []int{i},
		}
		if err := e.addProperty(p); err != nil {
			return nil, err
		}
	}
	if cfg.base != nil && !baseEmbedded {
		return nil, fmt.Errorf("entity %s: struct must embed base %s", e.Name, cfg.base.GoType)
	}

	if err := m.add(e); err != nil {
		return nil, err
	}
	return e, nil
}

// MustEntity is like Entity but panics on error. Intended for static model
// setup in tests and examples.
func (m *Model) MustEntity(sample any, opts ...EntityOption) *EntityType {
	e, err := m.Entity(sample, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func parseTag(f reflect.StructField) (column string, nullable bool, skip bool) {
	tag, ok := f.Tag.Lookup("db")
	if !ok {
		return f.Name, false, false
	}
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	column = strings.TrimSpace(parts[0])
	if column == "" {
		column = f.Name
	}
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "nullable" {
			nullable = true
		}
	}
	return column, nullable, false
}
