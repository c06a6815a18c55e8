package expr

import "fmt"

// Op is a unary or binary operator.
type Op int

const (
	OpEqual Op = iota
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpAndAlso
	OpOrElse
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpAnd
	OpOr
	OpNot
	OpNegate
	OpConvert
)

var opNames = [...]string{
	OpEqual:              "==",
	OpNotEqual:           "!=",
	OpLessThan:           "<",
	OpLessThanOrEqual:    "<=",
	OpGreaterThan:        ">",
	OpGreaterThanOrEqual: ">=",
	OpAndAlso:            "&&",
	OpOrElse:             "||",
	OpAdd:                "+",
	OpSubtract:           "-",
	OpMultiply:           "*",
	OpDivide:             "/",
	OpModulo:             "%",
	OpAnd:                "&",
	OpOr:                 "|",
	OpNot:                "!",
	OpNegate:             "-",
	OpConvert:            "convert",
}

func (op Op) String() string {
	if int(op) >= 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// IsComparison reports whether op is one of = <> < <= > >=.
func (op Op) IsComparison() bool {
	return op >= OpEqual && op <= OpGreaterThanOrEqual
}

// IsLogical reports whether op is AndAlso or OrElse.
func (op Op) IsLogical() bool {
	return op == OpAndAlso || op == OpOrElse
}

// IsArithmetic reports whether op is an arithmetic or bitwise operator.
func (op Op) IsArithmetic() bool {
	return op >= OpAdd && op <= OpOr
}
