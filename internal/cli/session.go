package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/relquery/internal/model"
	"github.com/roach88/relquery/internal/queryable"
	"github.com/roach88/relquery/internal/shaped"
	"github.com/roach88/relquery/internal/sqlgen"
	"github.com/roach88/relquery/internal/translate"
	"github.com/roach88/relquery/internal/typemap"
)

// session is a query file compiled for one dialect.
type session struct {
	formatter *OutputFormatter
	dialect   sqlgen.Dialect
	model     *model.Model
	file      *QueryFile
	built     *BuiltQuery
	compiled  *shaped.Query[map[string]any]
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func providerFor(d sqlgen.Dialect) (*typemap.Registry, translate.StringFunctions) {
	if d.Name == sqlgen.SQLServer.Name {
		return typemap.SQLServer(), translate.SQLServerStrings
	}
	return typemap.SQLite(), translate.SQLiteStrings
}

// openSession loads the model and query file and compiles the query.
// Failures are reported through the formatter and returned as ExitErrors.
func openSession(opts *RootOptions, queryPath string, cmd *cobra.Command, compileOpts ...shaped.Option) (*session, error) {
	s := &session{formatter: newFormatter(opts, cmd)}
	s.dialect, _ = sqlgen.DialectByName(opts.Dialect)
	registry, fns := providerFor(s.dialect)

	m, err := model.LoadCUE(opts.Model, registry)
	if err != nil {
		return nil, s.fail(ExitCommandError, ErrCodeModel, "failed to load model", err)
	}
	s.model = m
	s.formatter.VerboseLog("Loaded %d entities from %s", len(m.EntityTypes()), opts.Model)

	if s.file, err = LoadQueryFile(queryPath); err != nil {
		return nil, s.fail(ExitCommandError, ErrCodeQueryFile, "failed to load query file", err)
	}
	if s.built, err = s.file.Build(m); err != nil {
		return nil, s.fail(ExitCommandError, ErrCodeQueryFile, "failed to resolve query", err)
	}

	logger := slog.Default()
	translator := queryable.NewTranslator(translate.NewTranslator(registry, translate.WithStringFunctions(fns)))
	generator := sqlgen.NewGenerator(sqlgen.WithDialect(s.dialect), sqlgen.WithLogger(logger))
	compileOpts = append([]shaped.Option{shaped.WithLogger(logger)}, compileOpts...)
	s.compiled, err = queryable.Compile[map[string]any](s.built.Query, translator, generator, compileOpts...)
	if err != nil {
		return nil, s.fail(ExitFailure, ErrorCode(err), "failed to translate query", err)
	}
	return s, nil
}

func (s *session) name() string {
	if s.file.Name != "" {
		return s.file.Name
	}
	return s.file.Entity
}

func (s *session) fail(exit int, code, message string, err error) error {
	_ = s.formatter.Error(code, message+": "+err.Error(), nil)
	return WrapExitError(exit, message, err)
}
