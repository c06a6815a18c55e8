package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/relquery/internal/sqlgen"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	NoColor bool

	// Model is the directory holding the CUE model.
	Model   string
	Dialect string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the relq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "relq",
		Short: "relq - relational query translator",
		Long: `Translate entity queries into SQL and execute them.

Entities are declared in a CUE model; queries are YAML files naming an
entity, filters, orderings, paging and the properties to select.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if _, ok := sqlgen.DialectByName(opts.Dialect); !ok {
				return fmt.Errorf("invalid dialect %q: must be one of [sqlserver sqlite]", opts.Dialect)
			}
			if opts.NoColor {
				color.NoColor = true
			}
			configureLogging(opts, cmd)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVarP(&opts.Model, "model", "m", "", "directory containing the CUE model (required)")
	cmd.PersistentFlags().StringVar(&opts.Dialect, "dialect", "sqlite", "SQL dialect (sqlserver|sqlite)")
	_ = cmd.MarkPersistentFlagRequired("model")

	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// configureLogging routes slog to the command's stderr; --verbose enables
// debug records such as generated commands and enumeration events.
func configureLogging(opts *RootOptions, cmd *cobra.Command) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
