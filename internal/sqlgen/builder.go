package sqlgen

import (
	"strings"

	"github.com/roach88/relquery/internal/store"
	"github.com/roach88/relquery/internal/typemap"
)

const indentUnit = "    "

// CommandBuilder accumulates command text with indentation and a
// parameter table keyed by invariant name.
type CommandBuilder struct {
	text        strings.Builder
	indent      int
	atLineStart bool
	params      []store.CommandParameter
	seen        map[string]bool
}

// NewCommandBuilder returns an empty builder.
func NewCommandBuilder() *CommandBuilder {
	return &CommandBuilder{seen: make(map[string]bool)}
}

// Append writes s, indenting it if it starts a line.
func (b *CommandBuilder) Append(s string) *CommandBuilder {
	if s == "" {
		return b
	}
	if b.atLineStart {
		b.text.WriteString(strings.Repeat(indentUnit, b.indent))
		b.atLineStart = false
	}
	b.text.WriteString(s)
	return b
}

// AppendLine ends the current line.
func (b *CommandBuilder) AppendLine() *CommandBuilder {
	b.text.WriteByte('\n')
	b.atLineStart = true
	return b
}

// Indent increases indentation until the returned function is called.
func (b *CommandBuilder) Indent() func() {
	b.indent++
	return func() { b.indent-- }
}

// AddParameter registers a parameter unless one with the same invariant
// name already exists. It reports whether the parameter was added.
func (b *CommandBuilder) AddParameter(invariantName, name string, mapping *typemap.Mapping, nullable bool) bool {
	if b.seen[invariantName] {
		return false
	}
	b.seen[invariantName] = true
	b.params = append(b.params, store.CommandParameter{
		InvariantName: invariantName,
		Name:          name,
		Mapping:       mapping,
		Nullable:      nullable,
	})
	return true
}

// Build returns the command.
func (b *CommandBuilder) Build() *store.RelationalCommand {
	return &store.RelationalCommand{
		Text:       b.text.String(),
		Parameters: append([]store.CommandParameter(nil), b.params...),
	}
}
