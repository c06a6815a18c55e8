package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relquery/internal/testutil"
)

func TestRun_Text(t *testing.T) {
	f := newFixture(t)
	q := f.query(t, "adults.yaml", adultsQuery)

	stdout, _, err := execute(t, "--model", f.model, "run", "--db", f.db, q)
	require.NoError(t, err)
	assert.Equal(t, "Name  Age\nAnn   31\n(1 rows)\n", stdout)
}

func TestRun_ParamOverridesDefault(t *testing.T) {
	f := newFixture(t)
	q := f.query(t, "adults.yaml", adultsQuery)

	stdout, _, err := execute(t, "--model", f.model, "--format", "json", "run", "--db", f.db, "--param", "minAge=10", q)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "adults", resp.Data.Name)
	assert.Equal(t, []string{"Name", "Age"}, resp.Data.Columns)
	require.Equal(t, 2, resp.Data.Count)
	assert.Equal(t, "Ann", resp.Data.Rows[0]["Name"])
	assert.Equal(t, float64(31), resp.Data.Rows[0]["Age"])
	assert.Equal(t, "Cid", resp.Data.Rows[1]["Name"])
}

func TestRun_EntityRowsWithNulls(t *testing.T) {
	f := newFixture(t)
	q := f.query(t, "all.yaml", `
entity: Person
order_by:
  - property: Id
`)

	stdout, _, err := execute(t, "--model", f.model, "run", "--db", f.db, q)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Id  Name  Age   Active  Balance\n")
	assert.Contains(t, stdout, "1   Ann   31    true    10.5\n")
	assert.Contains(t, stdout, "2   Bob   NULL  false   NULL\n")
	assert.Contains(t, stdout, "(3 rows)\n")
}

func TestRun_VerboseLogsCarryExecutionID(t *testing.T) {
	f := newFixture(t)
	q := f.query(t, "adults.yaml", adultsQuery)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbose: true, Model: f.model, Dialect: "sqlite"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs([]string{"--db", f.db, q})
	configureLogging(rootOpts, cmd)

	opts := &RunOptions{RootOptions: rootOpts, Database: f.db, IDGenerator: testutil.NewFixedIDGenerator("exec-cli")}
	require.NoError(t, runQuery(opts, q, cmd))

	assert.Contains(t, stderr.String(), "execution=exec-cli")
	assert.Contains(t, stderr.String(), "Loaded 1 entities")
	assert.Contains(t, stdout.String(), "(1 rows)")
}

func TestRun_Errors(t *testing.T) {
	f := newFixture(t)
	adults := f.query(t, "adults.yaml", adultsQuery)
	noDefault := f.query(t, "nodefault.yaml", "entity: Person\ntake: {param: n}\n")

	tests := []struct {
		name    string
		args    []string
		exit    int
		message string
	}{
		{"missing db flag", []string{"--model", f.model, "run", adults}, -1, "required flag"},
		{"missing database", []string{"--model", f.model, "run", "--db", filepath.Join(f.dir, "missing.db"), adults}, ExitCommandError, "failed to open database"},
		{"sqlserver dialect", []string{"--model", f.model, "--dialect", "sqlserver", "run", "--db", f.db, adults}, ExitCommandError, "run requires --dialect sqlite"},
		{"missing parameter", []string{"--model", f.model, "run", "--db", f.db, noDefault}, ExitCommandError, "no value for parameters [n]"},
		{"bad parameter", []string{"--model", f.model, "run", "--db", f.db, "-p", "minAge=old", adults}, ExitCommandError, `parameter "minAge"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
			if tt.exit >= 0 {
				assert.Equal(t, tt.exit, GetExitCode(err))
			}
		})
	}
}

func TestRunHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "SQLite database")
	assert.Contains(t, output, "--db")
	assert.Contains(t, output, "--param")
}
