package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relquery/internal/store"
	"github.com/roach88/relquery/internal/testutil"
)

const peopleModel = `
entity: Person: {
	table: "People"
	properties: {
		Id:      {type: "int"}
		Name:    {type: "string"}
		Age:     {type: "int", nullable: true}
		Active:  {type: "bool"}
		Balance: {type: "decimal", nullable: true}
	}
}
`

const adultsQuery = `
name: adults
entity: Person
where:
  - property: Age
    op: gt
    param: minAge
order_by:
  - property: Name
select: [Name, Age]
params:
  minAge: 18
`

func init() {
	color.NoColor = true
}

// fixture lays out a model directory, a seeded database and query files.
type fixture struct {
	dir   string
	model string
	db    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:   dir,
		model: filepath.Join(dir, "model"),
		db:    filepath.Join(dir, "people.db"),
	}
	require.NoError(t, os.MkdirAll(f.model, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.model, "people.cue"), []byte(peopleModel), 0o644))

	s, err := store.Open(f.db, store.WithSetupScript(testutil.PeopleScript))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	return f
}

func (f *fixture) query(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
