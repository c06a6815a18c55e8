package sqlexpr

import (
	"slices"

	"github.com/roach88/relquery/internal/expr"
)

// Table is a table source in a FROM clause.
type Table struct {
	Name   string
	Schema string
	Alias  string
}

// Projection is one SELECT list entry. Alias is optional.
type Projection struct {
	Expr  Node
	Alias string
}

// Select is a finalized SELECT statement. Projection indices are fixed:
// the value bound to a projection member is read from the row position
// ProjectionIndex reports. A Select is immutable and safe to share across
// goroutines and executions.
type Select struct {
	projection []Projection
	tables     []*Table
	predicate  Node
	orderings  []*Ordering
	offset     Node
	limit      Node
	members    map[expr.ProjectionMember]int
}

// SelectParts carries the clauses of a Select under construction.
type SelectParts struct {
	Projection []Projection
	Tables     []*Table
	Predicate  Node
	Orderings  []*Ordering
	Offset     Node
	Limit      Node
	Members    map[expr.ProjectionMember]int
}

// NewSelect freezes parts into a Select. The slices and map are copied.
func NewSelect(parts SelectParts) *Select {
	members := make(map[expr.ProjectionMember]int, len(parts.Members))
	for k, v := range parts.Members {
		members[k] = v
	}
	return &Select{
		projection: slices.Clone(parts.Projection),
		tables:     slices.Clone(parts.Tables),
		predicate:  parts.Predicate,
		orderings:  slices.Clone(parts.Orderings),
		offset:     parts.Offset,
		limit:      parts.Limit,
		members:    members,
	}
}

// Projection returns a copy of the SELECT list.
func (s *Select) Projection() []Projection { return slices.Clone(s.projection) }

// Tables returns a copy of the FROM list.
func (s *Select) Tables() []*Table { return slices.Clone(s.tables) }

// Predicate returns the WHERE predicate, or nil.
func (s *Select) Predicate() Node { return s.predicate }

// Orderings returns a copy of the ORDER BY list.
func (s *Select) Orderings() []*Ordering { return slices.Clone(s.orderings) }

// Offset returns the row offset, or nil.
func (s *Select) Offset() Node { return s.offset }

// Limit returns the row limit, or nil.
func (s *Select) Limit() Node { return s.limit }

// ProjectionIndex returns the row position bound to member.
func (s *Select) ProjectionIndex(member expr.ProjectionMember) (int, bool) {
	i, ok := s.members[member]
	return i, ok
}
