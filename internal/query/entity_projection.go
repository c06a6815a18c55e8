package query

import (
	"reflect"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/model"
	"github.com/roach88/relquery/internal/sqlexpr"
)

// EntityProjection is the set of columns an entity reads from one table.
// Columns are created on first lookup and memoized for the lifetime of the
// owning SelectBuilder.
type EntityProjection struct {
	Entity *model.EntityType
	Table  *sqlexpr.Table

	columns map[*model.Property]*sqlexpr.Column
}

func newEntityProjection(entity *model.EntityType, table *sqlexpr.Table) *EntityProjection {
	return &EntityProjection{
		Entity:  entity,
		Table:   table,
		columns: make(map[*model.Property]*sqlexpr.Column),
	}
}

// Column returns the column of property p.
func (e *EntityProjection) Column(p *model.Property) *sqlexpr.Column {
	if c, ok := e.columns[p]; ok {
		return c
	}
	c := sqlexpr.NewColumn(p.Column, e.Table, p.GoType, p.Mapping, p.Nullable)
	e.columns[p] = c
	return c
}

func (e *EntityProjection) Type() reflect.Type {
	if e.Entity.GoType == nil {
		return expr.RowMapType
	}
	return e.Entity.GoType
}

func (e *EntityProjection) Kind() expr.Kind { return expr.KindExtension }

func (e *EntityProjection) Format() string {
	return "entity(" + e.Entity.Name + ")"
}
