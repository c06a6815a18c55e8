package testutil

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relquery/internal/model"
	"github.com/roach88/relquery/internal/store"
	"github.com/roach88/relquery/internal/typemap"
)

// Person is stored in the People table created by PeopleScript.
type Person struct {
	ID      int `db:"Id"`
	Name    string
	Age     *int
	Active  bool
	Balance *decimal.Decimal
}

// Employee derives from Person and shares its table.
type Employee struct {
	Person
	Salary float64
}

// PeopleScript creates and seeds the People table.
const PeopleScript = `
CREATE TABLE People (
	Id      INTEGER PRIMARY KEY,
	Name    TEXT NOT NULL,
	Age     INTEGER,
	Active  INTEGER NOT NULL DEFAULT 0,
	Balance TEXT,
	Salary  REAL
);
INSERT INTO People (Id, Name, Age, Active, Balance, Salary) VALUES
	(1, 'Ann', 31, 1, '10.5', 5000.5),
	(2, 'Bob', NULL, 0, NULL, NULL),
	(3, 'Cid', 17, 1, '0.25', NULL);
`

// PeopleModel maps Person to the People table and Employee as its derived
// entity.
func PeopleModel(t testing.TB, registry *typemap.Registry) (m *model.Model, person, employee *model.EntityType) {
	t.Helper()
	m = model.New(registry)
	person, err := m.Entity(Person{}, model.WithTable("People"))
	require.NoError(t, err)
	employee, err = m.Entity(Employee{}, model.WithBase(person))
	require.NoError(t, err)
	return m, person, employee
}

// OpenPeopleStore opens a SQLite database in a temporary directory seeded
// with PeopleScript. The store is closed when the test ends.
func OpenPeopleStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "people.db"), store.WithSetupScript(PeopleScript))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
