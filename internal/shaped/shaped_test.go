package shaped

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/model"
	"github.com/roach88/relquery/internal/query"
	"github.com/roach88/relquery/internal/sqlexpr"
	"github.com/roach88/relquery/internal/sqlgen"
	"github.com/roach88/relquery/internal/testutil"
	"github.com/roach88/relquery/internal/typemap"
)

var personRows = [][]any{
	{int64(1), "Ann", int64(31), true, "10.5"},
	{int64(2), "Bob", nil, false, nil},
}

func entityQuery(e *model.EntityType) ShapedQuery {
	t := e.GoType
	if t == nil {
		t = expr.RowMapType
	}
	return ShapedQuery{
		Select: query.NewEntitySelect(e),
		Shaper: expr.NewEntityShaper(e, expr.NewProjectionBinding(expr.ProjectionMember{}, t)),
	}
}

func compilePeople(t *testing.T, opts ...Option) *Query[testutil.Person] {
	t.Helper()
	_, person, _ := testutil.PeopleModel(t, typemap.SQLServer())
	q, err := Compile[testutil.Person](entityQuery(person), sqlgen.NewGenerator(), opts...)
	require.NoError(t, err)
	return q
}

func intPtr(v int) *int { return &v }

func TestVerify(t *testing.T) {
	registry := typemap.SQLServer()
	intMap := registry.FindMapping(expr.IntType)
	strMap := registry.FindMapping(expr.StringType)
	people := &sqlexpr.Table{Name: "People", Alias: "p"}
	age := sqlexpr.NewColumn("Age", people, expr.IntType, intMap, false)
	name := sqlexpr.NewColumn("Name", people, expr.StringType, strMap, false)
	one := sqlexpr.NewConstant(1, expr.IntType, intMap)

	legal := []sqlexpr.Node{
		age,
		one,
		sqlexpr.NewParameter("p", expr.IntType, intMap),
		sqlexpr.NewFunction("", "UPPER", name, nil, expr.StringType, strMap),
		sqlexpr.NewFunction("", "DATEADD", nil, []sqlexpr.Node{sqlexpr.NewFragment("day"), one, age}, expr.IntType, intMap),
		sqlexpr.NewUnary(expr.OpNot, sqlexpr.NewIsNull(name, false, nil), expr.BoolType, nil),
		sqlexpr.NewUnary(expr.OpNegate, age, expr.IntType, intMap),
		sqlexpr.NewUnary(expr.OpConvert, age, expr.Int64Type, intMap),
		sqlexpr.NewBinary(expr.OpAdd, age, one, expr.IntType, intMap),
		sqlexpr.NewCase([]sqlexpr.When{{Test: sqlexpr.NewBinary(expr.OpEqual, age, one, expr.BoolType, nil), Result: name}}, name, expr.StringType, strMap),
	}
	for _, n := range legal {
		t.Run("legal "+sqlexpr.Describe(n), func(t *testing.T) {
			sel := sqlexpr.NewSelect(sqlexpr.SelectParts{
				Projection: []sqlexpr.Projection{{Expr: n}},
				Tables:     []*sqlexpr.Table{people},
				Predicate:  sqlexpr.NewBinary(expr.OpEqual, age, one, expr.BoolType, nil),
				Orderings:  []*sqlexpr.Ordering{sqlexpr.NewOrdering(n, true)},
				Offset:     one,
				Limit:      sqlexpr.NewParameter("take", expr.IntType, intMap),
			})
			assert.NoError(t, Verify(sel))
		})
	}

	illegal := []struct {
		name string
		sel  sqlexpr.SelectParts
	}{
		{"fragment predicate", sqlexpr.SelectParts{Predicate: sqlexpr.NewFragment("1 = 1")}},
		{"ordering in projection", sqlexpr.SelectParts{Projection: []sqlexpr.Projection{{Expr: sqlexpr.NewOrdering(age, true)}}}},
		{"unknown unary", sqlexpr.SelectParts{Projection: []sqlexpr.Projection{{Expr: sqlexpr.NewUnary(expr.OpAdd, age, expr.IntType, intMap)}}}},
		{"missing operand", sqlexpr.SelectParts{Predicate: sqlexpr.NewBinary(expr.OpEqual, age, nil, expr.BoolType, nil)}},
		{"nested fragment", sqlexpr.SelectParts{Orderings: []*sqlexpr.Ordering{
			sqlexpr.NewOrdering(sqlexpr.NewBinary(expr.OpAdd, age, sqlexpr.NewFragment("1"), expr.IntType, intMap), true),
		}}},
		{"case else", sqlexpr.SelectParts{Limit: sqlexpr.NewCase(nil, sqlexpr.NewFragment("5"), expr.IntType, intMap)}},
	}
	for _, tt := range illegal {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(sqlexpr.NewSelect(tt.sel))
			require.Error(t, err)
			assert.True(t, query.IsMaterializationInconsistency(err), "got %v", err)
		})
	}
}

type nameAge struct {
	Name string
	Age  int
}

func TestCompileShaper_NullableColumnReadsDefault(t *testing.T) {
	registry := typemap.SQLServer()
	people := &sqlexpr.Table{Name: "People", Alias: "p"}
	nameMember := expr.ProjectionMember{}.Append("Name")
	ageMember := expr.ProjectionMember{}.Append("Age")
	sel := sqlexpr.NewSelect(sqlexpr.SelectParts{
		Projection: []sqlexpr.Projection{
			{Expr: sqlexpr.NewColumn("Age", people, expr.IntType, registry.FindMapping(expr.IntType), false)},
			{Expr: sqlexpr.NewColumn("Name", people, expr.StringType, registry.FindMapping(expr.StringType), true)},
		},
		Tables:  []*sqlexpr.Table{people},
		Members: map[expr.ProjectionMember]int{ageMember: 0, nameMember: 1},
	})
	shaperExpr := expr.NewObject(reflect.TypeFor[nameAge](), []string{"Name", "Age"}, []expr.Node{
		expr.NewProjectionBinding(nameMember, expr.StringType),
		expr.NewProjectionBinding(ageMember, expr.IntType),
	})

	shaper, err := CompileShaper(shaperExpr, sel)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[nameAge](), shaper.Type())

	r := testutil.NewSliceReader([][]any{{int64(31), "Ann"}, {int64(5), nil}, {nil, "Cid"}})

	var got []any
	for range 2 {
		ok, err := r.Read()
		require.NoError(t, err)
		require.True(t, ok)
		v, err := shaper.Shape(r)
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []any{nameAge{Name: "Ann", Age: 31}, nameAge{Name: "", Age: 5}}, got)

	ok, err := r.Read()
	require.NoError(t, err)
	require.True(t, ok)
	_, err = shaper.Shape(r)
	assert.Error(t, err, "non-nullable column has no null check")
}

func TestCompileShaper_ConvertsAndBoxes(t *testing.T) {
	registry := typemap.SQLite()
	tbl := &sqlexpr.Table{Name: "Accounts", Alias: "a"}
	decimalType := reflect.TypeFor[decimal.Decimal]()
	balance := expr.ProjectionMember{}.Append("Balance")
	count := expr.ProjectionMember{}.Append("Count")
	sel := sqlexpr.NewSelect(sqlexpr.SelectParts{
		Projection: []sqlexpr.Projection{
			{Expr: sqlexpr.NewColumn("Balance", tbl, decimalType, registry.FindMapping(decimalType), true)},
			{Expr: sqlexpr.NewFunction("", "count", nil, nil, expr.IntType, registry.FindMapping(expr.IntType))},
		},
		Tables:  []*sqlexpr.Table{tbl},
		Members: map[expr.ProjectionMember]int{balance: 0, count: 1},
	})
	shaperExpr := expr.NewObject(reflect.TypeFor[map[string]any](), []string{"balance", "count", "kind"}, []expr.Node{
		expr.NewProjectionBinding(balance, reflect.PointerTo(decimalType)),
		expr.Convert(expr.NewProjectionBinding(count, expr.IntType), expr.AnyType),
		expr.Const("account"),
	})

	shaper, err := CompileShaper(shaperExpr, sel)
	require.NoError(t, err)

	r := testutil.NewSliceReader([][]any{{"12.75", int64(3)}, {nil, nil}})
	require.True(t, must(r.Read()))
	v, err := shaper.Shape(r)
	require.NoError(t, err)
	m := v.(map[string]any)
	require.NotNil(t, m["balance"])
	assert.True(t, decimal.RequireFromString("12.75").Equal(*m["balance"].(*decimal.Decimal)))
	assert.Equal(t, 3, m["count"])
	assert.Equal(t, "account", m["kind"])

	require.True(t, must(r.Read()))
	v, err = shaper.Shape(r)
	require.NoError(t, err)
	m = v.(map[string]any)
	assert.Nil(t, m["balance"])
	assert.Equal(t, 0, m["count"], "non-column projections are null checked")
}

func must(ok bool, err error) bool {
	if err != nil {
		panic(err)
	}
	return ok
}

func TestCoerce_Numeric(t *testing.T) {
	type small int8

	tests := []struct {
		name   string
		raw    any
		target reflect.Type
		want   any
	}{
		{"int64 to int8", int64(100), reflect.TypeFor[int8](), int8(100)},
		{"int64 to named int8", int64(-5), reflect.TypeFor[small](), small(-5)},
		{"integral float to int64", float64(7), reflect.TypeFor[int64](), int64(7)},
		{"int64 to uint16", int64(65535), reflect.TypeFor[uint16](), uint16(65535)},
		{"int64 to float32", int64(3), reflect.TypeFor[float32](), float32(3)},
		{"float64 to float32", 1.5, reflect.TypeFor[float32](), float32(1.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := coerce(tt.raw, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Interface())
		})
	}
}

func TestCoerce_RejectsOverflow(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		target reflect.Type
	}{
		{"int64 into int8", int64(300), reflect.TypeFor[int8]()},
		{"negative into uint", int64(-1), reflect.TypeFor[uint32]()},
		{"uint64 into int64", uint64(1 << 63), reflect.TypeFor[int64]()},
		{"fractional float into int", 2.5, reflect.TypeFor[int]()},
		{"huge float into int64", 1e19, reflect.TypeFor[int64]()},
		{"float64 into float32", 1e300, reflect.TypeFor[float32]()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coerce(tt.raw, tt.target)
			assert.ErrorContains(t, err, "does not fit")
		})
	}
}

func TestCompileShaper_Inconsistencies(t *testing.T) {
	_, person, _ := testutil.PeopleModel(t, typemap.SQLServer())
	sel := query.NewEntitySelect(person).ApplyProjection()
	root := expr.NewProjectionBinding(expr.ProjectionMember{}, person.GoType)

	tests := []struct {
		name   string
		shaper expr.Node
	}{
		{"unbound member", expr.NewProjectionBinding(expr.ProjectionMember{}.Append("missing"), expr.IntType)},
		{"client method call", expr.CallMethod(expr.Const("x"), "ToUpper", expr.StringType)},
		{"entity over non-binding", expr.NewEntityShaper(person, expr.Const(1))},
		{"unknown struct field", expr.NewObject(reflect.TypeFor[nameAge](), []string{"Missing"}, []expr.Node{expr.Const("x")})},
		{"non-constructible type", expr.NewObject(expr.IntType, []string{"x"}, []expr.Node{root})},
		{"negation", expr.Negate(expr.Const(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileShaper(tt.shaper, sel)
			require.Error(t, err)
			assert.True(t, query.IsMaterializationInconsistency(err), "got %v", err)
		})
	}
}

func TestCompile_RejectsMismatchedResultType(t *testing.T) {
	_, person, _ := testutil.PeopleModel(t, typemap.SQLServer())

	_, err := Compile[string](entityQuery(person), sqlgen.NewGenerator())
	require.Error(t, err)
	assert.True(t, query.IsInvalidTranslation(err))

	_, err = Compile[any](ShapedQuery{}, sqlgen.NewGenerator())
	assert.True(t, query.IsInvalidTranslation(err))
}

func TestCompile_FinalizesSelect(t *testing.T) {
	_, person, _ := testutil.PeopleModel(t, typemap.SQLServer())
	sq := entityQuery(person)

	q, err := Compile[any](sq, sqlgen.NewGenerator())
	require.NoError(t, err)
	assert.True(t, sq.Select.IsFinalized())
	assert.Len(t, q.Select().Projection(), 5)

	cmd, err := q.Command(nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT [p].[Id], [p].[Name], [p].[Age], [p].[Active], [p].[Balance]\nFROM [People] AS [p]", cmd.Text)
}

func TestEnumerator_MaterializesEntities(t *testing.T) {
	q := compilePeople(t)
	conn := testutil.NewFakeConnection(personRows...)

	got, err := q.ToSlice(context.Background(), QueryContext{Connection: conn})
	require.NoError(t, err)

	balance := decimal.RequireFromString("10.5")
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, "Ann", got[0].Name)
	assert.Equal(t, intPtr(31), got[0].Age)
	assert.True(t, got[0].Active)
	require.NotNil(t, got[0].Balance)
	assert.True(t, balance.Equal(*got[0].Balance))
	assert.Equal(t, testutil.Person{ID: 2, Name: "Bob"}, got[1])
}

func TestEnumerator_HierarchyPropertiesAreNullChecked(t *testing.T) {
	_, _, employee := testutil.PeopleModel(t, typemap.SQLServer())
	q, err := Compile[testutil.Employee](entityQuery(employee), sqlgen.NewGenerator())
	require.NoError(t, err)

	conn := testutil.NewFakeConnection([]any{int64(3), nil, nil, false, nil, nil})
	got, err := q.ToSlice(context.Background(), QueryContext{Connection: conn})
	require.NoError(t, err)
	assert.Equal(t, []testutil.Employee{{Person: testutil.Person{ID: 3}}}, got)
}

func TestEnumerator_CloseBeforeNextDoesNotTouchConnection(t *testing.T) {
	q := compilePeople(t)
	conn := testutil.NewFakeConnection(personRows...)

	e := q.Enumerate(context.Background(), QueryContext{Connection: conn})
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.Equal(t, StateDisposed, e.State())
	assert.False(t, e.Next())
	assert.Equal(t, 0, conn.Opens())
	assert.Equal(t, 0, conn.Closes())
	assert.Empty(t, conn.Commands())
}

func TestEnumerator_ExhaustionReleasesOnce(t *testing.T) {
	q := compilePeople(t)
	conn := testutil.NewFakeConnection(personRows...)

	e := q.Enumerate(context.Background(), QueryContext{Connection: conn})
	assert.Equal(t, StateNotStarted, e.State())
	n := 0
	for e.Next() {
		assert.Equal(t, StateActive, e.State())
		n++
	}
	require.NoError(t, e.Err())
	assert.Equal(t, 2, n)
	assert.Equal(t, StateExhausted, e.State())
	assert.False(t, conn.IsOpen())

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	assert.Equal(t, 1, conn.Opens())
	assert.Equal(t, 1, conn.Closes())
	require.Len(t, conn.Readers(), 1)
	assert.Equal(t, 1, conn.Readers()[0].Closes())
}

func TestEnumerator_EarlyCloseReleasesOnce(t *testing.T) {
	q := compilePeople(t)
	conn := testutil.NewFakeConnection(personRows...)

	e := q.Enumerate(context.Background(), QueryContext{Connection: conn})
	require.True(t, e.Next())
	assert.Equal(t, "Ann", e.Current().Name)
	assert.True(t, conn.IsOpen())

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.False(t, e.Next())
	assert.Equal(t, 1, conn.Closes())
	assert.Equal(t, 1, conn.Readers()[0].Closes())
}

func TestEnumerator_ReenumerationExecutesAgain(t *testing.T) {
	q := compilePeople(t)
	conn := testutil.NewFakeConnection(personRows...)
	qc := QueryContext{Connection: conn}

	first, err := q.ToSlice(context.Background(), qc)
	require.NoError(t, err)
	second, err := q.ToSlice(context.Background(), qc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, conn.Commands(), 2)
	assert.Equal(t, 2, conn.Opens())
	assert.Equal(t, 2, conn.Closes())
}

func TestEnumerator_Failures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name       string
		conn       *testutil.FakeConnection
		rows       int
		wantOpens  int
		wantCloses int
		wantCause  error
	}{
		{"open fails", testutil.NewFakeConnection(personRows...).FailOpen(boom), 0, 0, 0, boom},
		{"execute fails", testutil.NewFakeConnection(personRows...).FailQuery(), 0, 1, 1, testutil.ErrQueryFailed},
		{"read fails", testutil.NewFakeConnection(personRows...).FailReadAt(1, boom), 1, 1, 1, boom},
		{"materialize fails", testutil.NewFakeConnection([]any{"not a number", "Ann", nil, true, nil}), 0, 1, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := compilePeople(t)
			e := q.Enumerate(context.Background(), QueryContext{Connection: tt.conn})

			n := 0
			for e.Next() {
				n++
			}
			assert.Equal(t, tt.rows, n)
			require.Error(t, e.Err())
			assert.True(t, query.IsExecutionFailure(e.Err()), "got %v", e.Err())
			if tt.wantCause != nil {
				assert.ErrorIs(t, e.Err(), tt.wantCause)
			}
			assert.Equal(t, StateExhausted, e.State())
			assert.False(t, e.Next())
			assert.False(t, tt.conn.IsOpen())

			require.NoError(t, e.Close())
			assert.Equal(t, tt.wantOpens, tt.conn.Opens())
			assert.Equal(t, tt.wantCloses, tt.conn.Closes())
		})
	}
}

func TestEnumerator_NoConnection(t *testing.T) {
	q := compilePeople(t)
	e := q.Enumerate(context.Background(), QueryContext{})
	assert.False(t, e.Next())
	assert.True(t, query.IsExecutionFailure(e.Err()))
}

func TestEnumerator_GenerationFailureClosesConnection(t *testing.T) {
	registry := typemap.SQLServer()
	people := &sqlexpr.Table{Name: "People", Alias: "p"}
	sel := query.NewSelectBuilder()
	sel.AddTable(people)
	member := sel.AddProjection(sqlexpr.NewUnary(expr.OpConvert,
		sqlexpr.NewColumn("Age", people, expr.IntType, registry.FindMapping(expr.IntType), false),
		expr.Int64Type, nil))

	q, err := Compile[int64](ShapedQuery{Select: sel, Shaper: expr.NewProjectionBinding(member, expr.Int64Type)}, sqlgen.NewGenerator())
	require.NoError(t, err)

	conn := testutil.NewFakeConnection()
	_, err = q.ToSlice(context.Background(), QueryContext{Connection: conn})
	require.Error(t, err)
	assert.True(t, query.IsInvalidTranslation(err))
	assert.Equal(t, 1, conn.Opens())
	assert.Equal(t, 1, conn.Closes())
}

func TestAll_BreakClosesEnumerator(t *testing.T) {
	q := compilePeople(t)
	conn := testutil.NewFakeConnection(personRows...)

	for p, err := range q.All(context.Background(), QueryContext{Connection: conn}) {
		require.NoError(t, err)
		assert.Equal(t, "Ann", p.Name)
		break
	}
	assert.False(t, conn.IsOpen())
	assert.Equal(t, 1, conn.Closes())
}

func TestAll_YieldsFailureLast(t *testing.T) {
	q := compilePeople(t)
	conn := testutil.NewFakeConnection(personRows...).FailQuery()

	var errs []error
	for _, err := range q.All(context.Background(), QueryContext{Connection: conn}) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], testutil.ErrQueryFailed)
}

func TestEnumerator_BindsParameters(t *testing.T) {
	registry := typemap.SQLServer()
	_, person, _ := testutil.PeopleModel(t, registry)
	sq := entityQuery(person)
	root, ok := sq.Select.GetProjection(expr.ProjectionMember{})
	require.True(t, ok)
	age := root.(*query.EntityProjection).Column(person.FindProperty("Age"))
	sq.Select.ApplyPredicate(sqlexpr.NewBinary(expr.OpGreaterThan, age,
		sqlexpr.NewParameter("minAge", expr.IntType, registry.FindMapping(expr.IntType)),
		expr.BoolType, registry.FindMapping(expr.BoolType)))

	q, err := Compile[testutil.Person](sq, sqlgen.NewGenerator())
	require.NoError(t, err)

	conn := testutil.NewFakeConnection(personRows[0])
	_, err = q.ToSlice(context.Background(), QueryContext{
		Connection:      conn,
		ParameterValues: map[string]any{"minAge": 18},
	})
	require.NoError(t, err)

	cmds := conn.Commands()
	require.Len(t, cmds, 1)
	assert.Contains(t, cmds[0].Text, "WHERE [p].[Age] > @minAge")
	assert.Equal(t, []any{sql.Named("minAge", 18)}, cmds[0].Args)
}

func TestEnumerator_LogsExecutionID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	q := compilePeople(t, WithLogger(logger), WithIDGenerator(testutil.NewFixedIDGenerator("exec-1")))

	_, err := q.ToSlice(context.Background(), QueryContext{Connection: testutil.NewFakeConnection(personRows...)})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `msg="enumeration started" execution=exec-1`)
	assert.Contains(t, buf.String(), `msg="enumeration finished" execution=exec-1 rows=2`)
}

func TestUUIDv7Generator(t *testing.T) {
	a, b := UUIDv7Generator{}.Generate(), UUIDv7Generator{}.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "7", a[14:15], "version nibble")
}

const schemalessCUE = `
entity: Person: {
	table: "People"
	properties: {
		Id:   {type: "int"}
		Name: {type: "string"}
		Age:  {type: "int", nullable: true}
	}
}
`

func TestEnumerator_SchemalessEntity(t *testing.T) {
	v := cuecontext.New().CompileString(schemalessCUE)
	m, err := model.CompileCUE(v, typemap.SQLServer())
	require.NoError(t, err)
	person := m.FindEntityType("Person")

	q, err := Compile[map[string]any](entityQuery(person), sqlgen.NewGenerator())
	require.NoError(t, err)

	conn := testutil.NewFakeConnection([]any{int64(1), "Ann", int64(31)}, []any{int64(2), "Bob", nil})
	got, err := q.ToSlice(context.Background(), QueryContext{Connection: conn})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"Id": 1, "Name": "Ann", "Age": 31},
		{"Id": 2, "Name": "Bob", "Age": nil},
	}, got)
}

func TestEnumerator_SQLite(t *testing.T) {
	s := testutil.OpenPeopleStore(t)
	registry := typemap.SQLite()
	_, person, employee := testutil.PeopleModel(t, registry)
	gen := sqlgen.NewGenerator(sqlgen.WithDialect(sqlgen.SQLite))

	q, err := Compile[testutil.Person](entityQuery(person), gen)
	require.NoError(t, err)
	qc := QueryContext{Connection: s.Connection()}

	got, err := q.ToSlice(context.Background(), qc)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Ann", got[0].Name)
	assert.Equal(t, intPtr(31), got[0].Age)
	assert.True(t, decimal.RequireFromString("10.5").Equal(*got[0].Balance))
	assert.Equal(t, testutil.Person{ID: 2, Name: "Bob"}, got[1])
	assert.True(t, got[2].Active)

	again, err := q.ToSlice(context.Background(), qc)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	eq, err := Compile[testutil.Employee](entityQuery(employee), gen)
	require.NoError(t, err)
	employees, err := eq.ToSlice(context.Background(), qc)
	require.NoError(t, err)
	require.Len(t, employees, 3)
	assert.Equal(t, 5000.5, employees[0].Salary)
	assert.Zero(t, employees[1].Salary)
}
