package query

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/model"
	"github.com/roach88/relquery/internal/sqlexpr"
)

// SelectBuilder is the mutable model of one SELECT statement.
//
// The projection mapping associates projection members with either a SQL
// node or an *EntityProjection. ApplyProjection expands it into the final
// SELECT list. A SelectBuilder is confined to one goroutine.
type SelectBuilder struct {
	tables    []*sqlexpr.Table
	aliases   map[string]bool
	mapping   map[expr.ProjectionMember]expr.Node
	members   []expr.ProjectionMember
	predicate sqlexpr.Node
	orderings []*sqlexpr.Ordering
	offset    sqlexpr.Node
	limit     sqlexpr.Node
	generated int
	finalized bool
}

// NewSelectBuilder returns an empty builder.
func NewSelectBuilder() *SelectBuilder {
	return &SelectBuilder{
		aliases: make(map[string]bool),
		mapping: make(map[expr.ProjectionMember]expr.Node),
	}
}

// NewEntitySelect returns a builder reading every row of entity's table,
// with the entity bound to the root projection member.
func NewEntitySelect(entity *model.EntityType) *SelectBuilder {
	b := NewSelectBuilder()
	table := b.AddTable(&sqlexpr.Table{Name: entity.Table, Schema: entity.Schema})
	b.SetProjection(expr.ProjectionMember{}, newEntityProjection(entity, table))
	return b
}

func (b *SelectBuilder) mustBeOpen() {
	if b.finalized {
		panic("query: select is finalized")
	}
}

// AddTable appends t to the FROM list and returns it. An empty alias is
// replaced by a unique one derived from the table name.
func (b *SelectBuilder) AddTable(t *sqlexpr.Table) *sqlexpr.Table {
	b.mustBeOpen()
	if t.Alias == "" {
		cp := *t
		cp.Alias = b.uniqueAlias(t.Name)
		t = &cp
	}
	b.aliases[t.Alias] = true
	b.tables = append(b.tables, t)
	return t
}

func (b *SelectBuilder) uniqueAlias(name string) string {
	base := "t"
	for _, r := range name {
		if unicode.IsLetter(r) {
			base = strings.ToLower(string(r))
			break
		}
	}
	alias := base
	for i := 0; b.aliases[alias]; i++ {
		alias = fmt.Sprintf("%s%d", base, i)
	}
	return alias
}

// Tables returns the FROM list.
func (b *SelectBuilder) Tables() []*sqlexpr.Table {
	return b.tables
}

// AddProjection appends n under a freshly generated projection member and
// returns the member.
func (b *SelectBuilder) AddProjection(n sqlexpr.Node) expr.ProjectionMember {
	b.mustBeOpen()
	var member expr.ProjectionMember
	for {
		member = expr.ProjectionMember{}.Append(fmt.Sprintf("_%d", b.generated))
		b.generated++
		if _, taken := b.mapping[member]; !taken {
			break
		}
	}
	b.SetProjection(member, n)
	return member
}

// SetProjection binds member to n, which must be a sqlexpr.Node or an
// *EntityProjection. Rebinding keeps the member's original position.
func (b *SelectBuilder) SetProjection(member expr.ProjectionMember, n expr.Node) {
	b.mustBeOpen()
	switch n.(type) {
	case sqlexpr.Node, *EntityProjection:
	default:
		panic(fmt.Sprintf("query: cannot project %T", n))
	}
	if _, exists := b.mapping[member]; !exists {
		b.members = append(b.members, member)
	}
	b.mapping[member] = n
}

// ClearProjection removes every projection member.
func (b *SelectBuilder) ClearProjection() {
	b.mustBeOpen()
	b.mapping = make(map[expr.ProjectionMember]expr.Node)
	b.members = nil
}

// GetProjection returns the node bound to member before finalization.
func (b *SelectBuilder) GetProjection(member expr.ProjectionMember) (expr.Node, bool) {
	n, ok := b.mapping[member]
	return n, ok
}

// BindProperty resolves property p of the entity bound through valueBuffer
// to its column. valueBuffer must be a ProjectionBinding naming an entity
// projection member.
func (b *SelectBuilder) BindProperty(valueBuffer expr.Node, p *model.Property) (*sqlexpr.Column, error) {
	binding, ok := valueBuffer.(*expr.ProjectionBinding)
	if !ok {
		return nil, NewInvalidTranslation(valueBuffer, "entity value buffer is not a projection binding")
	}
	n, ok := b.mapping[binding.Member]
	if !ok {
		return nil, NewInvalidTranslation(valueBuffer, "no projection bound to %s", binding.Member)
	}
	ep, ok := n.(*EntityProjection)
	if !ok {
		return nil, NewInvalidTranslation(valueBuffer, "projection %s is not an entity", binding.Member)
	}
	if ep.Entity.FindProperty(p.Name) != p {
		return nil, NewInvalidTranslation(valueBuffer, "property %s does not belong to entity %s", p, ep.Entity.Name)
	}
	return ep.Column(p), nil
}

// ApplyPredicate sets the WHERE predicate, combining with an existing one
// using AND.
func (b *SelectBuilder) ApplyPredicate(p sqlexpr.Node) {
	b.mustBeOpen()
	if b.predicate == nil {
		b.predicate = p
		return
	}
	b.predicate = sqlexpr.NewBinary(expr.OpAndAlso, b.predicate, p, expr.BoolType, p.TypeMapping())
}

// Predicate returns the WHERE predicate, or nil.
func (b *SelectBuilder) Predicate() sqlexpr.Node {
	return b.predicate
}

// AddOrdering appends an ORDER BY key.
func (b *SelectBuilder) AddOrdering(o *sqlexpr.Ordering) {
	b.mustBeOpen()
	b.orderings = append(b.orderings, o)
}

// ClearOrderings removes every ORDER BY key.
func (b *SelectBuilder) ClearOrderings() {
	b.mustBeOpen()
	b.orderings = nil
}

// Orderings returns the ORDER BY keys.
func (b *SelectBuilder) Orderings() []*sqlexpr.Ordering {
	return b.orderings
}

// ApplyOffset sets the number of rows to skip.
func (b *SelectBuilder) ApplyOffset(n sqlexpr.Node) {
	b.mustBeOpen()
	b.offset = n
}

// ApplyLimit sets the maximum number of rows.
func (b *SelectBuilder) ApplyLimit(n sqlexpr.Node) {
	b.mustBeOpen()
	b.limit = n
}

// Offset returns the row offset, or nil.
func (b *SelectBuilder) Offset() sqlexpr.Node { return b.offset }

// Limit returns the row limit, or nil.
func (b *SelectBuilder) Limit() sqlexpr.Node { return b.limit }

// ApplyProjection assigns final row positions and freezes the builder.
//
// Members are expanded in the order they were first bound. An entity
// member expands to one column per property, inherited properties first,
// and maps to the position of its first column. Calling ApplyProjection
// twice panics: a compiled shaper depends on the positions.
func (b *SelectBuilder) ApplyProjection() *sqlexpr.Select {
	if b.finalized {
		panic("query: ApplyProjection called twice")
	}
	b.finalized = true

	var projection []sqlexpr.Projection
	members := make(map[expr.ProjectionMember]int, len(b.members))
	for _, m := range b.members {
		members[m] = len(projection)
		switch n := b.mapping[m].(type) {
		case *EntityProjection:
			for _, p := range n.Entity.Properties() {
				projection = append(projection, sqlexpr.Projection{Expr: n.Column(p)})
			}
		case sqlexpr.Node:
			projection = append(projection, sqlexpr.Projection{Expr: n})
		}
	}

	return sqlexpr.NewSelect(sqlexpr.SelectParts{
		Projection: projection,
		Tables:     b.tables,
		Predicate:  b.predicate,
		Orderings:  b.orderings,
		Offset:     b.offset,
		Limit:      b.limit,
		Members:    members,
	})
}

// IsFinalized reports whether ApplyProjection has run.
func (b *SelectBuilder) IsFinalized() bool {
	return b.finalized
}
