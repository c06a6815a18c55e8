package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/model"
	"github.com/roach88/relquery/internal/sqlexpr"
	"github.com/roach88/relquery/internal/typemap"
)

type Person struct {
	ID   int `db:"Id"`
	Name string
	Age  *int
}

type Employee struct {
	Person
	Salary float64
}

func newModel(t *testing.T) (*model.Model, *model.EntityType, *model.EntityType) {
	t.Helper()
	m := model.New(typemap.SQLServer())
	person, err := m.Entity(Person{}, model.WithTable("People"))
	require.NoError(t, err)
	employee, err := m.Entity(Employee{}, model.WithBase(person))
	require.NoError(t, err)
	return m, person, employee
}

func TestNewEntitySelect_ExpandsEntityColumns(t *testing.T) {
	_, person, _ := newModel(t)

	sel := NewEntitySelect(person).ApplyProjection()

	require.Len(t, sel.Tables(), 1)
	assert.Equal(t, "People", sel.Tables()[0].Name)
	assert.Equal(t, "p", sel.Tables()[0].Alias)

	var names []string
	for _, p := range sel.Projection() {
		names = append(names, p.Expr.(*sqlexpr.Column).Name)
	}
	assert.Equal(t, []string{"Id", "Name", "Age"}, names)

	idx, ok := sel.ProjectionIndex(expr.ProjectionMember{})
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestBindProperty_MemoizesColumns(t *testing.T) {
	_, person, _ := newModel(t)
	b := NewEntitySelect(person)
	vb := expr.NewProjectionBinding(expr.ProjectionMember{}, expr.AnyType)
	name := person.FindProperty("Name")

	first, err := b.BindProperty(vb, name)
	require.NoError(t, err)
	second, err := b.BindProperty(vb, name)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "Name", first.Name)
	assert.Equal(t, "p", first.Table.Alias)

	// The projected column is the memoized one.
	sel := b.ApplyProjection()
	assert.Same(t, first, sel.Projection()[1].Expr)
}

func TestBindProperty_Errors(t *testing.T) {
	_, person, employee := newModel(t)
	b := NewEntitySelect(person)
	scalar := b.AddProjection(sqlexpr.NewConstant(1, expr.IntType, nil))

	testCases := []struct {
		name        string
		valueBuffer expr.Node
		property    *model.Property
	}{
		{"not a binding", expr.Const(1), person.FindProperty("Name")},
		{"unknown member", expr.NewProjectionBinding(expr.ProjectionMember{}.Append("x"), expr.AnyType), person.FindProperty("Name")},
		{"scalar member", expr.NewProjectionBinding(scalar, expr.AnyType), person.FindProperty("Name")},
		{"foreign property", expr.NewProjectionBinding(expr.ProjectionMember{}, expr.AnyType), employee.FindProperty("Salary")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.BindProperty(tc.valueBuffer, tc.property)
			assert.True(t, IsInvalidTranslation(err), "got %v", err)
		})
	}
}

func TestApplyProjection_AssignsIndicesInBindingOrder(t *testing.T) {
	_, person, _ := newModel(t)
	b := NewEntitySelect(person)
	one := sqlexpr.NewConstant(1, expr.IntType, nil)
	two := sqlexpr.NewConstant(2, expr.IntType, nil)

	m1 := b.AddProjection(one)
	m2 := b.AddProjection(two)
	assert.NotEqual(t, m1, m2)

	sel := b.ApplyProjection()

	require.Len(t, sel.Projection(), 5)
	i1, _ := sel.ProjectionIndex(m1)
	i2, _ := sel.ProjectionIndex(m2)
	assert.Equal(t, 3, i1)
	assert.Equal(t, 4, i2)
	assert.Same(t, one, sel.Projection()[i1].Expr)
}

func TestApplyProjection_DerivedEntityReadsInheritedFirst(t *testing.T) {
	_, _, employee := newModel(t)

	sel := NewEntitySelect(employee).ApplyProjection()

	var names []string
	for _, p := range sel.Projection() {
		names = append(names, p.Expr.(*sqlexpr.Column).Name)
	}
	assert.Equal(t, []string{"Id", "Name", "Age", "Salary"}, names)
	assert.Equal(t, "People", sel.Tables()[0].Name)
}

func TestApplyProjection_EmptyProjection(t *testing.T) {
	b := NewSelectBuilder()
	b.AddTable(&sqlexpr.Table{Name: "People"})

	sel := b.ApplyProjection()

	assert.Empty(t, sel.Projection())
}

func TestApplyProjection_SecondCallPanics(t *testing.T) {
	_, person, _ := newModel(t)
	b := NewEntitySelect(person)
	b.ApplyProjection()

	assert.True(t, b.IsFinalized())
	assert.PanicsWithValue(t, "query: ApplyProjection called twice", func() { b.ApplyProjection() })
}

func TestMutationAfterFinalizePanics(t *testing.T) {
	_, person, _ := newModel(t)
	b := NewEntitySelect(person)
	b.ApplyProjection()
	one := sqlexpr.NewConstant(1, expr.IntType, nil)

	mutations := map[string]func(){
		"AddTable":        func() { b.AddTable(&sqlexpr.Table{Name: "X"}) },
		"AddProjection":   func() { b.AddProjection(one) },
		"ClearProjection": func() { b.ClearProjection() },
		"ApplyPredicate":  func() { b.ApplyPredicate(one) },
		"AddOrdering":     func() { b.AddOrdering(sqlexpr.NewOrdering(one, true)) },
		"ClearOrderings":  func() { b.ClearOrderings() },
		"ApplyOffset":     func() { b.ApplyOffset(one) },
		"ApplyLimit":      func() { b.ApplyLimit(one) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			assert.PanicsWithValue(t, "query: select is finalized", mutate)
		})
	}
}

func TestApplyPredicate_CombinesWithAnd(t *testing.T) {
	_, person, _ := newModel(t)
	b := NewEntitySelect(person)
	vb := expr.NewProjectionBinding(expr.ProjectionMember{}, expr.AnyType)
	id, err := b.BindProperty(vb, person.FindProperty("ID"))
	require.NoError(t, err)
	first := sqlexpr.NewIsNull(id, true, nil)
	second := sqlexpr.NewIsNull(id, false, nil)

	b.ApplyPredicate(first)
	assert.Same(t, first, b.Predicate())

	b.ApplyPredicate(second)
	and, ok := b.Predicate().(*sqlexpr.Binary)
	require.True(t, ok)
	assert.Equal(t, expr.OpAndAlso, and.Op)
	assert.Same(t, first, and.Left)
	assert.Same(t, second, and.Right)
	assert.True(t, and.IsCondition())
}

func TestAddTable_UniqueAliases(t *testing.T) {
	b := NewSelectBuilder()

	a := b.AddTable(&sqlexpr.Table{Name: "People"})
	c := b.AddTable(&sqlexpr.Table{Name: "Pets"})
	d := b.AddTable(&sqlexpr.Table{Name: "places"})
	e := b.AddTable(&sqlexpr.Table{Name: "Orders", Alias: "o"})

	assert.Equal(t, "p", a.Alias)
	assert.Equal(t, "p0", c.Alias)
	assert.Equal(t, "p1", d.Alias)
	assert.Equal(t, "o", e.Alias)
	assert.Len(t, b.Tables(), 4)
}

func TestOrderingsAndPaging(t *testing.T) {
	b := NewSelectBuilder()
	one := sqlexpr.NewConstant(1, expr.IntType, nil)

	b.AddOrdering(sqlexpr.NewOrdering(one, true))
	require.Len(t, b.Orderings(), 1)
	b.ClearOrderings()
	assert.Empty(t, b.Orderings())

	b.ApplyOffset(one)
	b.ApplyLimit(one)
	sel := b.ApplyProjection()
	assert.Same(t, one, sel.Offset())
	assert.Same(t, one, sel.Limit())
}
