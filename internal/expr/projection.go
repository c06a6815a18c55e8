package expr

import (
	"reflect"
	"strings"

	"github.com/roach88/relquery/internal/model"
)

// ProjectionMember is a path of member names identifying a slot in a
// projection. The zero value is the root.
type ProjectionMember struct {
	path string
}

// Append returns the member path extended by name.
func (m ProjectionMember) Append(name string) ProjectionMember {
	if m.path == "" {
		return ProjectionMember{path: name}
	}
	return ProjectionMember{path: m.path + "." + name}
}

// IsRoot reports whether m is the root path.
func (m ProjectionMember) IsRoot() bool { return m.path == "" }

// Names returns the path segments.
func (m ProjectionMember) Names() []string {
	if m.path == "" {
		return nil
	}
	return strings.Split(m.path, ".")
}

func (m ProjectionMember) String() string {
	if m.path == "" {
		return "$"
	}
	return "$." + m.path
}

// ProjectionBinding is a placeholder for the value bound to Member of the
// enclosing select's projection.
type ProjectionBinding struct {
	Member ProjectionMember
	typ    reflect.Type
}

// NewProjectionBinding binds member, producing values of type t.
func NewProjectionBinding(member ProjectionMember, t reflect.Type) *ProjectionBinding {
	return &ProjectionBinding{Member: member, typ: t}
}

func (b *ProjectionBinding) Type() reflect.Type { return b.typ }
func (b *ProjectionBinding) Kind() Kind         { return KindExtension }

// EntityShaper marks where an entity instance of Entity is materialized
// from the row slots addressed by ValueBuffer.
type EntityShaper struct {
	Entity      *model.EntityType
	ValueBuffer Node
}

// NewEntityShaper returns a shaper for entity reading from valueBuffer.
func NewEntityShaper(entity *model.EntityType, valueBuffer Node) *EntityShaper {
	return &EntityShaper{Entity: entity, ValueBuffer: valueBuffer}
}

// Type is the entity's Go type, or map[string]any for schemaless entities.
func (s *EntityShaper) Type() reflect.Type {
	if s.Entity.GoType == nil {
		return RowMapType
	}
	return s.Entity.GoType
}

func (s *EntityShaper) Kind() Kind { return KindExtension }

// Update returns s when valueBuffer is unchanged, otherwise a copy.
func (s *EntityShaper) Update(valueBuffer Node) *EntityShaper {
	if valueBuffer == s.ValueBuffer {
		return s
	}
	return &EntityShaper{Entity: s.Entity, ValueBuffer: valueBuffer}
}
