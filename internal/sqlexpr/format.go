package sqlexpr

import (
	"fmt"
	"strings"

	"github.com/roach88/relquery/internal/expr"
)

// Describe renders n for diagnostics. It is not SQL; use package sqlgen
// for that.
func Describe(n Node) string {
	switch n := n.(type) {
	case nil:
		return "<nil>"
	case *Column:
		if n.Table != nil {
			return n.Table.Alias + "." + n.Name
		}
		return n.Name
	case *Constant:
		return fmt.Sprintf("%v", n.Value)
	case *Parameter:
		return "@" + n.Name
	case *Unary:
		if n.Op == expr.OpConvert {
			return fmt.Sprintf("CAST(%s)", Describe(n.Operand))
		}
		return n.Op.String() + Describe(n.Operand)
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", Describe(n.Left), n.Op, Describe(n.Right))
	case *Function:
		args := make([]string, 0, len(n.Args)+1)
		if n.Instance != nil {
			args = append(args, Describe(n.Instance))
		}
		for _, a := range n.Args {
			args = append(args, Describe(a))
		}
		return n.Name + "(" + strings.Join(args, ", ") + ")"
	case *Fragment:
		return n.SQL
	case *IsNull:
		if n.Negated {
			return Describe(n.Operand) + " IS NOT NULL"
		}
		return Describe(n.Operand) + " IS NULL"
	case *Case:
		var b strings.Builder
		b.WriteString("CASE")
		for _, w := range n.Whens {
			fmt.Fprintf(&b, " WHEN %s THEN %s", Describe(w.Test), Describe(w.Result))
		}
		if n.Else != nil {
			fmt.Fprintf(&b, " ELSE %s", Describe(n.Else))
		}
		b.WriteString(" END")
		return b.String()
	case *Ordering:
		if n.Ascending {
			return Describe(n.Expr) + " ASC"
		}
		return Describe(n.Expr) + " DESC"
	}
	return fmt.Sprintf("%T", n)
}

func (c *Column) Format() string    { return Describe(c) }
func (c *Constant) Format() string  { return Describe(c) }
func (p *Parameter) Format() string { return Describe(p) }
func (u *Unary) Format() string     { return Describe(u) }
func (b *Binary) Format() string    { return Describe(b) }
func (f *Function) Format() string  { return Describe(f) }
func (f *Fragment) Format() string  { return Describe(f) }
func (n *IsNull) Format() string    { return Describe(n) }
func (c *Case) Format() string      { return Describe(c) }
func (o *Ordering) Format() string  { return Describe(o) }
