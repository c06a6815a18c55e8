package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/relquery/internal/typemap"
)

// CommandParameter is one entry of a command's parameter table.
type CommandParameter struct {
	// InvariantName is the logical parameter name values are supplied
	// under.
	InvariantName string

	// Name is the name bound in the command text, without its prefix.
	Name string

	// Mapping converts supplied values to provider values.
	Mapping *typemap.Mapping

	Nullable bool
}

// RelationalCommand is generated SQL text with its parameters.
type RelationalCommand struct {
	Text       string
	Parameters []CommandParameter
}

// Args converts values into named query arguments, one per parameter.
func (c *RelationalCommand) Args(values map[string]any) ([]any, error) {
	args := make([]any, 0, len(c.Parameters))
	for _, p := range c.Parameters {
		v, ok := values[p.InvariantName]
		if !ok {
			return nil, fmt.Errorf("no value supplied for parameter %q", p.InvariantName)
		}
		if v == nil && !p.Nullable {
			return nil, fmt.Errorf("parameter %q is not nullable", p.InvariantName)
		}
		if p.Mapping != nil {
			pv, err := p.Mapping.ProviderValue(v)
			if err != nil {
				return nil, fmt.Errorf("convert parameter %q: %w", p.InvariantName, err)
			}
			v = pv
		}
		args = append(args, sql.Named(p.Name, v))
	}
	return args, nil
}

// ExecuteReader runs the command on conn, which must be open, and returns
// its result cursor.
func (c *RelationalCommand) ExecuteReader(ctx context.Context, conn Connection, values map[string]any) (DataReader, error) {
	args, err := c.Args(values)
	if err != nil {
		return nil, err
	}
	reader, err := conn.Query(ctx, c.Text, args...)
	if err != nil {
		return nil, fmt.Errorf("execute reader: %w", err)
	}
	return reader, nil
}
