package sqlgen

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Helper renders identifiers and parameter placeholders for a dialect.
type Helper interface {
	// DelimitIdentifier quotes name.
	DelimitIdentifier(name string) string

	// DelimitSchemaIdentifier quotes name qualified by schema, if any.
	DelimitSchemaIdentifier(name, schema string) string

	// ParameterName is the name a parameter is bound under.
	ParameterName(name string) string

	// Placeholder is the text referencing a parameter in a command.
	Placeholder(name string) string
}

type quotingHelper struct {
	open, close string
}

// BracketHelper quotes identifiers with [ and ] (SQL Server).
func BracketHelper() Helper { return quotingHelper{open: "[", close: "]"} }

// DoubleQuoteHelper quotes identifiers with double quotes (SQLite).
func DoubleQuoteHelper() Helper { return quotingHelper{open: `"`, close: `"`} }

// DelimitIdentifier normalizes name to NFC so that visually identical
// identifiers compare equal in the store, then quotes it. The closing
// quote character is escaped by doubling.
func (h quotingHelper) DelimitIdentifier(name string) string {
	name = norm.NFC.String(name)
	return h.open + strings.ReplaceAll(name, h.close, h.close+h.close) + h.close
}

func (h quotingHelper) DelimitSchemaIdentifier(name, schema string) string {
	if schema == "" {
		return h.DelimitIdentifier(name)
	}
	return h.DelimitIdentifier(schema) + "." + h.DelimitIdentifier(name)
}

func (h quotingHelper) ParameterName(name string) string {
	return norm.NFC.String(name)
}

func (h quotingHelper) Placeholder(name string) string {
	return "@" + h.ParameterName(name)
}
