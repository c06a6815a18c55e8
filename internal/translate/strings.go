package translate

import (
	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/sqlexpr"
)

// StringFunctions names the store functions behind string members and
// methods for one provider.
type StringFunctions struct {
	Length string
	Upper  string
	Lower  string

	// Index is the substring position function used for Contains; it
	// returns a 1-based position or 0.
	Index string

	// IndexPatternFirst orders Index arguments as (pattern, s) rather than
	// (s, pattern).
	IndexPatternFirst bool
}

var (
	// SQLServerStrings are the SQL Server string functions.
	SQLServerStrings = StringFunctions{
		Length:            "LEN",
		Upper:             "UPPER",
		Lower:             "LOWER",
		Index:             "CHARINDEX",
		IndexPatternFirst: true,
	}

	// SQLiteStrings are the SQLite string functions.
	SQLiteStrings = StringFunctions{
		Length: "length",
		Upper:  "upper",
		Lower:  "lower",
		Index:  "instr",
	}
)

type stringMethodTranslator struct {
	fns     StringFunctions
	applier *TypeMappingApplier
}

// Translate handles ToUpper, ToLower and Contains on string instances.
func (t *stringMethodTranslator) Translate(call *expr.Call) (expr.Node, error) {
	instance, ok := call.Object.(sqlexpr.Node)
	if !ok || expr.UnwrapNullable(instance.Type()) != expr.StringType {
		return nil, nil
	}
	mapping := instance.TypeMapping()

	switch {
	case call.Method.Name == "ToUpper" && len(call.Args) == 0:
		return sqlexpr.NewFunction("", t.fns.Upper, nil, []sqlexpr.Node{instance}, call.Type(), mapping), nil
	case call.Method.Name == "ToLower" && len(call.Args) == 0:
		return sqlexpr.NewFunction("", t.fns.Lower, nil, []sqlexpr.Node{instance}, call.Type(), mapping), nil
	case call.Method.Name == "Contains" && len(call.Args) == 1:
		pattern, err := t.applier.Apply(call.Args[0], mapping, false)
		if pattern == nil || err != nil {
			return nil, err
		}
		args := []sqlexpr.Node{instance, pattern}
		if t.fns.IndexPatternFirst {
			args = []sqlexpr.Node{pattern, instance}
		}
		intMapping := t.applier.Registry().FindMapping(expr.IntType)
		index := sqlexpr.NewFunction("", t.fns.Index, nil, args, expr.IntType, intMapping)
		zero := sqlexpr.NewConstant(0, expr.IntType, intMapping)
		return sqlexpr.NewBinary(expr.OpGreaterThan, index, zero, expr.BoolType, t.applier.BoolMapping()), nil
	}
	return nil, nil
}

type stringMemberTranslator struct {
	fns     StringFunctions
	applier *TypeMappingApplier
}

// Translate handles the Length member of strings.
func (t *stringMemberTranslator) Translate(m *expr.Member) (expr.Node, error) {
	instance, ok := m.Operand.(sqlexpr.Node)
	if !ok || m.Name != "Length" || expr.UnwrapNullable(instance.Type()) != expr.StringType {
		return nil, nil
	}
	mapping := t.applier.Registry().FindMapping(m.Type())
	return sqlexpr.NewFunction("", t.fns.Length, nil, []sqlexpr.Node{instance}, m.Type(), mapping), nil
}
