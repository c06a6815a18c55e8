package expr

import (
	"fmt"
	"strings"
)

// Formatter is implemented by extension nodes that render themselves.
type Formatter interface {
	Format() string
}

// Format renders n as a compact, human-readable expression for diagnostics.
func Format(n Node) string {
	var b strings.Builder
	format(&b, n)
	return b.String()
}

func format(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Constant:
		if n.IsNull() {
			b.WriteString("null")
		} else if s, ok := n.Value.(string); ok {
			fmt.Fprintf(b, "%q", s)
		} else {
			fmt.Fprintf(b, "%v", n.Value)
		}
	case *Parameter:
		b.WriteString(n.Name)
	case *Member:
		format(b, n.Operand)
		b.WriteByte('.')
		b.WriteString(n.Name)
	case *Call:
		if n.Object != nil {
			format(b, n.Object)
			b.WriteByte('.')
			b.WriteString(n.Method.Name)
		} else {
			b.WriteString(n.Method.String())
		}
		b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, a)
		}
		b.WriteByte(')')
	case *Binary:
		b.WriteByte('(')
		format(b, n.Left)
		fmt.Fprintf(b, " %s ", n.Op)
		format(b, n.Right)
		b.WriteByte(')')
	case *Unary:
		switch n.Op {
		case OpConvert:
			fmt.Fprintf(b, "%s(", n.Type())
			format(b, n.Operand)
			b.WriteByte(')')
		default:
			b.WriteString(n.Op.String())
			format(b, n.Operand)
		}
	case *Conditional:
		b.WriteByte('(')
		format(b, n.Test)
		b.WriteString(" ? ")
		format(b, n.IfTrue)
		b.WriteString(" : ")
		format(b, n.IfFalse)
		b.WriteByte(')')
	case *New:
		fmt.Fprintf(b, "%s{", n.Type())
		for i, m := range n.Members {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(m)
			b.WriteString(": ")
			format(b, n.Args[i])
		}
		b.WriteByte('}')
	case *Lambda:
		for i, p := range n.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
		}
		b.WriteString(" => ")
		format(b, n.Body)
	case *ProjectionBinding:
		fmt.Fprintf(b, "binding(%s)", n.Member)
	case *EntityShaper:
		fmt.Fprintf(b, "shaper(%s, ", n.Entity.Name)
		format(b, n.ValueBuffer)
		b.WriteByte(')')
	case Formatter:
		b.WriteString(n.Format())
	default:
		fmt.Fprintf(b, "%T", n)
	}
}
