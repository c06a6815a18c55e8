package model

import (
	"fmt"
	"reflect"

	"github.com/roach88/relquery/internal/typemap"
)

// Model is the set of entity types known to a query pipeline.
type Model struct {
	registry *typemap.Registry
	entities []*EntityType
	byName   map[string]*EntityType
	byType   map[reflect.Type]*EntityType
}

// New creates an empty model whose properties resolve mappings from registry.
func New(registry *typemap.Registry) *Model {
	return &Model{
		registry: registry,
		byName:   make(map[string]*EntityType),
		byType:   make(map[reflect.Type]*EntityType),
	}
}

// Registry returns the store type mapping registry backing the model.
func (m *Model) Registry() *typemap.Registry {
	return m.registry
}

// EntityTypes returns entity types in registration order.
func (m *Model) EntityTypes() []*EntityType {
	return m.entities
}

// FindEntityType looks an entity type up by name.
func (m *Model) FindEntityType(name string) *EntityType {
	return m.byName[name]
}

// FindEntityTypeFor looks an entity type up by its Go struct type.
// Pointer types resolve to their element type.
func (m *Model) FindEntityTypeFor(t reflect.Type) *EntityType {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return m.byType[t]
}

func (m *Model) add(e *EntityType) error {
	if _, exists := m.byName[e.Name]; exists {
		return fmt.Errorf("duplicate entity type %q", e.Name)
	}
	m.entities = append(m.entities, e)
	m.byName[e.Name] = e
	if e.GoType != nil {
		m.byType[e.GoType] = e
	}
	return nil
}

// EntityType describes one mapped entity.
type EntityType struct {
	Name   string
	Table  string
	Schema string

	// GoType is the struct materialized for this entity. It is nil for
	// entities loaded without a Go type; those materialize as map[string]any.
	GoType reflect.Type

	// Base is the parent entity in an inheritance hierarchy. Derived
	// entities share the base table.
	Base *EntityType

	properties []*Property
	byName     map[string]*Property
}

// Properties returns inherited properties first, then declared ones.
func (e *EntityType) Properties() []*Property {
	return e.properties
}

// FindProperty returns the property named name, or nil.
func (e *EntityType) FindProperty(name string) *Property {
	return e.byName[name]
}

// HasHierarchy reports whether e participates in an inheritance hierarchy.
func (e *EntityType) HasHierarchy() bool {
	return e.Base != nil
}

func (e *EntityType) String() string {
	return e.Name
}

func (e *EntityType) addProperty(p *Property) error {
	if _, exists := e.byName[p.Name]; exists {
		return fmt.Errorf("entity %s: duplicate property %q", e.Name, p.Name)
	}
	p.EntityType = e
	e.properties = append(e.properties, p)
	e.byName[p.Name] = p
	return nil
}

func newEntityType(name string) *EntityType {
	return &EntityType{
		Name:   name,
		Table:  name,
		byName: make(map[string]*Property),
	}
}

// Property is a mapped scalar member of an entity.
type Property struct {
	Name     string
	Column   string
	GoType   reflect.Type
	Nullable bool
	Mapping  *typemap.Mapping

	// EntityType is the entity the property was resolved on. DeclaringType
	// differs from it for inherited properties.
	EntityType    *EntityType
	DeclaringType *EntityType

	fieldIndex []int
}

// FieldIndex is the reflect field path of the property on the entity's Go
// struct. It is nil for schemaless entities.
func (p *Property) FieldIndex() []int {
	return p.fieldIndex
}

func (p *Property) String() string {
	if p.EntityType == nil {
		return p.Name
	}
	return p.EntityType.Name + "." + p.Name
}

// inherit copies base properties onto a derived entity. fieldPrefix is the
// field path of the embedded base struct on the derived struct.
func inherit(derived, base *EntityType, fieldPrefix []int) error {
	for _, bp := range base.properties {
		cp := *bp
		if fieldPrefix != nil && bp.fieldIndex != nil {
			cp.fieldIndex = append(append([]int{}, fieldPrefix...), bp.fieldIndex...)
		} else {
			cp.fieldIndex = nil
		}
		if err := derived.addProperty(&cp); err != nil {
			return err
		}
	}
	return nil
}
