package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// TranslationResult is the output of the translate command.
type TranslationResult struct {
	Name       string            `json:"name"`
	Dialect    string            `json:"dialect"`
	SQL        string            `json:"sql"`
	Parameters []ParameterResult `json:"parameters"`
}

// ParameterResult describes one command parameter.
type ParameterResult struct {
	Name      string `json:"name"`
	StoreType string `json:"store_type,omitempty"`
	Nullable  bool   `json:"nullable"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <query-file>",
		Short: "Print the SQL for a query",
		Long: `Translate a YAML query file against a CUE model and print the SQL
command and its parameters for the selected dialect. Nothing is executed.

Example:
  relq translate --model ./model --dialect sqlserver ./queries/adults.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTranslate(opts *RootOptions, queryPath string, cmd *cobra.Command) error {
	s, err := openSession(opts, queryPath, cmd)
	if err != nil {
		return err
	}

	command, err := s.compiled.Command(nil)
	if err != nil {
		return s.fail(ExitFailure, ErrorCode(err), "failed to generate SQL", err)
	}

	result := TranslationResult{
		Name:       s.name(),
		Dialect:    s.dialect.Name,
		SQL:        command.Text,
		Parameters: []ParameterResult{},
	}
	for _, p := range command.Parameters {
		pr := ParameterResult{Name: p.Name, Nullable: p.Nullable}
		if p.Mapping != nil {
			pr.StoreType = p.Mapping.StoreType
		}
		result.Parameters = append(result.Parameters, pr)
	}

	if s.formatter.Format == "json" {
		return s.formatter.Success(result)
	}
	s.formatter.SQL(fmt.Sprintf("%s (%s)", result.Name, result.Dialect), result.SQL)
	for _, p := range result.Parameters {
		nullable := ""
		if p.Nullable {
			nullable = " NULL"
		}
		fmt.Fprintf(s.formatter.Writer, "-- %s %s%s\n", s.dialect.Helper.Placeholder(p.Name), p.StoreType, nullable)
	}
	return nil
}
