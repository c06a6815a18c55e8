package sqlexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/typemap"
)

var (
	registry    = typemap.SQLServer()
	intMapping  = registry.FindMapping(expr.IntType)
	boolMapping = registry.FindMapping(expr.BoolType)
	people      = &Table{Name: "People", Alias: "p"}
)

func TestNode_ImplementsExprNode(t *testing.T) {
	var n expr.Node = NewColumn("Id", people, expr.IntType, intMapping, false)

	assert.Equal(t, expr.KindExtension, n.Kind())
	assert.Equal(t, expr.IntType, n.Type())

	// Sealed union - exhaustive switch over variants
	switch n.(type) {
	case *Column:
	case *Constant, *Parameter, *Unary, *Binary, *Function, *Fragment, *IsNull, *Case, *Ordering:
		t.Fatal("unexpected variant")
	}
}

func TestConstructors_DefaultContext(t *testing.T) {
	col := NewColumn("Id", people, expr.IntType, intMapping, false)
	one := NewConstant(1, expr.IntType, intMapping)

	testCases := []struct {
		name      string
		node      Node
		condition bool
	}{
		{"column", col, false},
		{"constant", one, false},
		{"parameter", NewParameter("id", expr.IntType, intMapping), false},
		{"comparison", NewBinary(expr.OpEqual, col, one, expr.BoolType, boolMapping), true},
		{"logical", NewBinary(expr.OpAndAlso, col, one, expr.BoolType, boolMapping), true},
		{"arithmetic", NewBinary(expr.OpAdd, col, one, expr.IntType, intMapping), false},
		{"not", NewUnary(expr.OpNot, col, expr.BoolType, boolMapping), true},
		{"negate", NewUnary(expr.OpNegate, col, expr.IntType, intMapping), false},
		{"is null", NewIsNull(col, false, boolMapping), true},
		{"function", NewFunction("", "LEN", nil, []Node{col}, expr.IntType, intMapping), false},
		{"fragment", NewFragment("*"), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.condition, tc.node.IsCondition())
		})
	}
}

func TestWithCondition_ReturnsSameNodeWhenFlagMatches(t *testing.T) {
	col := NewColumn("Active", people, expr.BoolType, boolMapping, false)

	assert.Same(t, col, WithCondition(col, false))
}

func TestWithCondition_CopiesOnFlip(t *testing.T) {
	col := NewColumn("Active", people, expr.BoolType, boolMapping, false)

	flipped := WithCondition(col, true)

	require.NotSame(t, col, flipped)
	assert.True(t, flipped.IsCondition())
	// The shared original never changes context.
	assert.False(t, col.IsCondition())
	assert.Equal(t, "Active", flipped.(*Column).Name)
	assert.Same(t, people, flipped.(*Column).Table)

	back := WithCondition(flipped, false)
	assert.False(t, back.IsCondition())
	assert.True(t, flipped.IsCondition())
}

func TestOrdering_InheritsExpressionMapping(t *testing.T) {
	col := NewColumn("Id", people, expr.IntType, intMapping, false)

	o := NewOrdering(col, false)

	assert.Same(t, intMapping, o.TypeMapping())
	assert.Equal(t, "p.Id DESC", Describe(o))
}

func TestSelect_IsSnapshot(t *testing.T) {
	col := NewColumn("Id", people, expr.IntType, intMapping, false)
	member := expr.ProjectionMember{}.Append("Id")
	parts := SelectParts{
		Projection: []Projection{{Expr: col}},
		Tables:     []*Table{people},
		Members:    map[expr.ProjectionMember]int{member: 0},
	}

	sel := NewSelect(parts)
	parts.Projection[0] = Projection{Expr: NewFragment("x")}
	parts.Members[member] = 7

	require.Len(t, sel.Projection(), 1)
	assert.Same(t, col, sel.Projection()[0].Expr)
	idx, ok := sel.ProjectionIndex(member)
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	// Accessors hand out copies.
	sel.Tables()[0] = nil
	assert.Same(t, people, sel.Tables()[0])

	_, ok = sel.ProjectionIndex(expr.ProjectionMember{})
	assert.False(t, ok)
	assert.Nil(t, sel.Predicate())
	assert.Nil(t, sel.Limit())
	assert.Nil(t, sel.Offset())
}

func TestDescribe(t *testing.T) {
	col := NewColumn("Name", people, expr.StringType, nil, true)
	c := NewCase(
		[]When{{Test: NewIsNull(col, false, boolMapping), Result: NewConstant("?", expr.StringType, nil)}},
		col, expr.StringType, nil,
	)

	assert.Equal(t, "CASE WHEN p.Name IS NULL THEN ? ELSE p.Name END", Describe(c))
	assert.Equal(t, "p.Name IS NOT NULL", Describe(NewIsNull(col, true, boolMapping)))
	assert.Equal(t, "UPPER(p.Name)", Describe(NewFunction("", "UPPER", nil, []Node{col}, expr.StringType, nil)))
	assert.Equal(t, "CAST(p.Name)", Describe(NewUnary(expr.OpConvert, col, expr.StringType, nil)))
	assert.Equal(t, "p.Name", expr.Format(col))
}
