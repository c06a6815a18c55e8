package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/relquery/internal/shaped"
	"github.com/roach88/relquery/internal/sqlgen"
	"github.com/roach88/relquery/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Params   map[string]string

	// IDGenerator overrides the execution id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator shaped.IDGenerator
}

// RunResult is the output of the run command.
type RunResult struct {
	Name    string           `json:"name"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Count   int              `json:"count"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query-file>",
		Short: "Execute a query against a SQLite database",
		Long: `Translate a YAML query file against a CUE model, execute it on a
SQLite database and print the materialized rows.

Parameters declared by the query take their values from --param flags,
falling back to the query file's params section.

Example:
  relq run --model ./model --db ./people.db ./queries/adults.yaml
  relq run --model ./model --db ./people.db --param minAge=21 ./queries/adults.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringToStringVarP(&opts.Params, "param", "p", nil, "parameter value as name=value (repeatable)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runQuery(opts *RunOptions, queryPath string, cmd *cobra.Command) error {
	if opts.Dialect != sqlgen.SQLite.Name {
		formatter := newFormatter(opts.RootOptions, cmd)
		_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("run executes on SQLite; dialect %q is translate-only", opts.Dialect), nil)
		return NewExitError(ExitCommandError, "run requires --dialect sqlite")
	}

	var compileOpts []shaped.Option
	if opts.IDGenerator != nil {
		compileOpts = append(compileOpts, shaped.WithIDGenerator(opts.IDGenerator))
	}
	s, err := openSession(opts.RootOptions, queryPath, cmd, compileOpts...)
	if err != nil {
		return err
	}
	values, err := s.built.ParameterValues(s.file.Params, opts.Params)
	if err != nil {
		return s.fail(ExitCommandError, ErrCodeParameters, "invalid parameters", err)
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return s.fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	slog.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return s.fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rows, err := s.compiled.ToSlice(ctx, shaped.QueryContext{Connection: st.Connection(), ParameterValues: values})
	if err != nil {
		return s.fail(ExitFailure, ErrorCode(err), "query failed", err)
	}

	result := RunResult{
		Name:    s.name(),
		Columns: s.columns(),
		Rows:    rows,
		Count:   len(rows),
	}
	if result.Rows == nil {
		result.Rows = []map[string]any{}
	}
	if s.formatter.Format == "json" {
		return s.formatter.Success(result)
	}
	return writeTable(s.formatter, result)
}

func (s *session) columns() []string {
	if len(s.file.Select) > 0 {
		return s.file.Select
	}
	props := s.built.Query.Entity().Properties()
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	return names
}

func writeTable(f *OutputFormatter, result RunResult) error {
	w := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	for i, c := range result.Columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
	for _, row := range result.Rows {
		for i, c := range result.Columns {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, formatCell(row[c]))
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(f.Writer, "(%d rows)\n", result.Count)
	return nil
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "NULL"
		}
		v = rv.Elem().Interface()
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
