package sqlgen

import (
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/query"
	"github.com/roach88/relquery/internal/sqlexpr"
	"github.com/roach88/relquery/internal/store"
)

var operators = map[expr.Op]string{
	expr.OpEqual:              " = ",
	expr.OpNotEqual:           " <> ",
	expr.OpGreaterThan:        " > ",
	expr.OpGreaterThanOrEqual: " >= ",
	expr.OpLessThan:           " < ",
	expr.OpLessThanOrEqual:    " <= ",
	expr.OpAndAlso:            " AND ",
	expr.OpOrElse:             " OR ",
	expr.OpAdd:                " + ",
	expr.OpSubtract:           " - ",
	expr.OpMultiply:           " * ",
	expr.OpDivide:             " / ",
	expr.OpModulo:             " % ",
	expr.OpAnd:                " & ",
	expr.OpOr:                 " | ",
}

const (
	precOr         = 5
	precAnd        = 10
	precNot        = 20
	precComparison = 30
	precAdditive   = 40
	precMultiply   = 50
	precNegate     = 60
	precAtomic     = 100
)

func binaryPrecedence(op expr.Op) int {
	switch {
	case op == expr.OpOrElse:
		return precOr
	case op == expr.OpAndAlso:
		return precAnd
	case op.IsComparison():
		return precComparison
	case op == expr.OpMultiply, op == expr.OpDivide, op == expr.OpModulo:
		return precMultiply
	}
	return precAdditive
}

func associative(op expr.Op) bool {
	switch op {
	case expr.OpAdd, expr.OpMultiply, expr.OpAndAlso, expr.OpOrElse, expr.OpAnd, expr.OpOr:
		return true
	}
	return false
}

// Option configures a Generator.
type Option func(*Generator)

// WithDialect selects the SQL dialect. The default is SQLServer.
func WithDialect(d Dialect) Option {
	return func(g *Generator) { g.dialect = d }
}

// WithLogger sets the logger generated commands are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// Generator renders Select statements. It holds no per-command state and
// is safe for concurrent use.
type Generator struct {
	dialect Dialect
	logger  *slog.Logger
}

// NewGenerator returns a generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		dialect: SQLServer,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dialect returns the generator's dialect.
func (g *Generator) Dialect() Dialect { return g.dialect }

// GetCommand renders sel. values are the parameter values of the
// execution; a parameter whose supplied value is nil is registered as
// nullable.
func (g *Generator) GetCommand(sel *sqlexpr.Select, values map[string]any) (*store.RelationalCommand, error) {
	if sel == nil {
		return nil, query.NewInvalidTranslation(nil, "cannot generate SQL for a nil select")
	}
	w := &writer{
		dialect: g.dialect,
		helper:  g.dialect.Helper,
		b:       NewCommandBuilder(),
		values:  values,
	}
	if err := w.selectStatement(sel); err != nil {
		return nil, err
	}
	cmd := w.b.Build()
	g.logger.Debug("generated command",
		"dialect", g.dialect.Name,
		"parameters", len(cmd.Parameters),
		"sql", cmd.Text)
	return cmd, nil
}

type writer struct {
	dialect Dialect
	helper  Helper
	b       *CommandBuilder
	values  map[string]any
}

func (w *writer) selectStatement(sel *sqlexpr.Select) error {
	w.b.Append("SELECT ")

	limit, offset := sel.Limit(), sel.Offset()
	if w.dialect.Paging == PagingTopOffsetFetch && limit != nil && offset == nil {
		w.b.Append("TOP(")
		if err := w.visit(limit); err != nil {
			return err
		}
		w.b.Append(") ")
	}

	projection := sel.Projection()
	if len(projection) == 0 {
		w.b.Append("1")
	}
	for i, p := range projection {
		if i > 0 {
			w.b.Append(", ")
		}
		if err := w.visit(sqlexpr.WithCondition(p.Expr, false)); err != nil {
			return err
		}
		if p.Alias != "" {
			if c, ok := p.Expr.(*sqlexpr.Column); !ok || c.Name != p.Alias {
				w.b.Append(" AS " + w.helper.DelimitIdentifier(p.Alias))
			}
		}
	}

	if tables := sel.Tables(); len(tables) > 0 {
		w.b.AppendLine().Append("FROM ")
		for i, t := range tables {
			if i > 0 {
				w.b.Append(", ")
			}
			w.b.Append(w.helper.DelimitSchemaIdentifier(t.Name, t.Schema))
			if t.Alias != "" {
				w.b.Append(" AS " + w.helper.DelimitIdentifier(t.Alias))
			}
		}
	}

	if pred := sel.Predicate(); pred != nil {
		w.b.AppendLine().Append("WHERE ")
		if err := w.visit(sqlexpr.WithCondition(pred, true)); err != nil {
			return err
		}
	}

	orderings := sel.Orderings()
	if len(orderings) > 0 {
		w.b.AppendLine().Append("ORDER BY ")
		for i, o := range orderings {
			if i > 0 {
				w.b.Append(", ")
			}
			if err := w.ordering(o); err != nil {
				return err
			}
		}
	}

	switch w.dialect.Paging {
	case PagingTopOffsetFetch:
		if offset == nil {
			return nil
		}
		if len(orderings) == 0 {
			w.b.AppendLine().Append("ORDER BY (SELECT 1)")
		}
		w.b.AppendLine().Append("OFFSET ")
		if err := w.visit(offset); err != nil {
			return err
		}
		w.b.Append(" ROWS")
		if limit != nil {
			w.b.Append(" FETCH NEXT ")
			if err := w.visit(limit); err != nil {
				return err
			}
			w.b.Append(" ROWS ONLY")
		}
	case PagingLimitOffset:
		if limit == nil && offset == nil {
			return nil
		}
		w.b.AppendLine().Append("LIMIT ")
		if limit != nil {
			if err := w.visit(limit); err != nil {
				return err
			}
		} else {
			w.b.Append("-1")
		}
		if offset != nil {
			w.b.Append(" OFFSET ")
			if err := w.visit(offset); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *writer) ordering(o *sqlexpr.Ordering) error {
	switch o.Expr.(type) {
	case *sqlexpr.Constant, *sqlexpr.Parameter:
		w.b.Append("(SELECT 1)")
		return nil
	}
	if err := w.visit(sqlexpr.WithCondition(o.Expr, false)); err != nil {
		return err
	}
	if !o.Ascending {
		w.b.Append(" DESC")
	}
	return nil
}

// predicateShaped reports whether n renders as a search condition.
func predicateShaped(n sqlexpr.Node) bool {
	switch n := n.(type) {
	case *sqlexpr.Binary:
		return n.Op.IsComparison() || n.Op.IsLogical()
	case *sqlexpr.Unary:
		return n.Op == expr.OpNot
	case *sqlexpr.IsNull:
		return true
	}
	return false
}

type wrapping int

const (
	wrapNone wrapping = iota
	wrapCompareTrue
	wrapCase
)

// wrapping reports how n must be adapted to its context on a store
// without a native boolean type.
func (w *writer) wrapping(n sqlexpr.Node) wrapping {
	if w.dialect.NativeBool {
		return wrapNone
	}
	switch shaped := predicateShaped(n); {
	case n.IsCondition() && !shaped:
		return wrapCompareTrue
	case !n.IsCondition() && shaped:
		return wrapCase
	}
	return wrapNone
}

func (w *writer) precedence(n sqlexpr.Node) int {
	switch w.wrapping(n) {
	case wrapCompareTrue:
		return precComparison
	case wrapCase:
		return precAtomic
	}
	switch n := n.(type) {
	case *sqlexpr.Binary:
		return binaryPrecedence(n.Op)
	case *sqlexpr.Unary:
		switch n.Op {
		case expr.OpNot:
			return precNot
		case expr.OpNegate:
			return precNegate
		}
	case *sqlexpr.IsNull:
		return precComparison
	}
	return precAtomic
}

func (w *writer) boolLiteral(n sqlexpr.Node, v bool) string {
	if m := n.TypeMapping(); m != nil {
		return m.GenerateSQLLiteral(v)
	}
	if v {
		return "1"
	}
	return "0"
}

func (w *writer) visit(n sqlexpr.Node) error {
	switch w.wrapping(n) {
	case wrapCompareTrue:
		if err := w.visitNode(n); err != nil {
			return err
		}
		w.b.Append(" = " + w.boolLiteral(n, true))
		return nil
	case wrapCase:
		whens := []sqlexpr.When{{
			Test:   sqlexpr.WithCondition(n, true),
			Result: sqlexpr.NewFragment(w.boolLiteral(n, true)),
		}}
		return w.visitCase(sqlexpr.NewCase(whens, sqlexpr.NewFragment(w.boolLiteral(n, false)), n.Type(), n.TypeMapping()))
	}
	return w.visitNode(n)
}

func (w *writer) visitNode(n sqlexpr.Node) error {
	switch n := n.(type) {
	case *sqlexpr.Column:
		if n.Table != nil && n.Table.Alias != "" {
			w.b.Append(w.helper.DelimitIdentifier(n.Table.Alias) + ".")
		}
		w.b.Append(w.helper.DelimitIdentifier(n.Name))
		return nil
	case *sqlexpr.Constant:
		return w.visitConstant(n)
	case *sqlexpr.Parameter:
		w.visitParameter(n)
		return nil
	case *sqlexpr.Unary:
		return w.visitUnary(n)
	case *sqlexpr.Binary:
		return w.visitBinary(n)
	case *sqlexpr.Function:
		return w.visitFunction(n)
	case *sqlexpr.Fragment:
		w.b.Append(n.SQL)
		return nil
	case *sqlexpr.IsNull:
		if err := w.operand(n.Operand, precAtomic, false); err != nil {
			return err
		}
		if n.Negated {
			w.b.Append(" IS NOT NULL")
		} else {
			w.b.Append(" IS NULL")
		}
		return nil
	case *sqlexpr.Case:
		return w.visitCase(n)
	case *sqlexpr.Ordering:
		return query.NewInvalidTranslation(n, "ordering is not valid inside an expression")
	}
	return query.NewInvalidTranslation(n, "cannot generate SQL for %T", n)
}

func (w *writer) visitConstant(c *sqlexpr.Constant) error {
	m := c.TypeMapping()
	if m == nil {
		if c.Value == nil {
			w.b.Append("NULL")
			return nil
		}
		return query.NewInvalidTranslation(c, "constant has no type mapping")
	}
	w.b.Append(m.GenerateSQLLiteral(c.Value))
	return nil
}

func (w *writer) visitParameter(p *sqlexpr.Parameter) {
	nullable := expr.IsNullable(p.Type())
	if v, ok := w.values[p.Name]; ok && v == nil {
		nullable = true
	}
	w.b.AddParameter(p.Name, w.helper.ParameterName(p.Name), p.TypeMapping(), nullable)
	w.b.Append(w.helper.Placeholder(p.Name))
}

func (w *writer) visitUnary(u *sqlexpr.Unary) error {
	switch u.Op {
	case expr.OpNot:
		w.b.Append("NOT ")
		return w.operand(u.Operand, precAtomic, false)
	case expr.OpNegate:
		if !w.leadsWithMinus(u.Operand) {
			w.b.Append("-")
			return w.operand(u.Operand, precNegate, false)
		}
		// "--" would start a comment.
		w.b.Append("-(")
		if err := w.visit(u.Operand); err != nil {
			return err
		}
		w.b.Append(")")
		return nil
	case expr.OpConvert:
		m := u.TypeMapping()
		if m == nil {
			return query.NewInvalidTranslation(u, "cast has no type mapping")
		}
		w.b.Append("CAST(")
		if err := w.visit(u.Operand); err != nil {
			return err
		}
		w.b.Append(" AS " + m.StoreType + ")")
		return nil
	}
	return query.NewInvalidTranslation(u, "unsupported unary operator %s", u.Op)
}

func (w *writer) visitBinary(b *sqlexpr.Binary) error {
	text, ok := operators[b.Op]
	if !ok {
		return query.NewInvalidTranslation(b, "unsupported binary operator %s", b.Op)
	}
	prec := binaryPrecedence(b.Op)
	if err := w.operand(b.Left, prec, b.Op.IsComparison()); err != nil {
		return err
	}
	w.b.Append(text)
	strict := !associative(b.Op)
	if rb, ok := b.Right.(*sqlexpr.Binary); ok && rb.Op != b.Op {
		strict = true
	}
	return w.operand(b.Right, prec, strict)
}

// leadsWithMinus reports whether n renders starting with a minus sign.
func (w *writer) leadsWithMinus(n sqlexpr.Node) bool {
	if w.wrapping(n) != wrapNone {
		return false
	}
	switch n := n.(type) {
	case *sqlexpr.Unary:
		return n.Op == expr.OpNegate
	case *sqlexpr.Constant:
		m := n.TypeMapping()
		return m != nil && n.Value != nil && strings.HasPrefix(m.GenerateSQLLiteral(n.Value), "-")
	}
	return false
}

// operand renders n, parenthesized when it binds looser than prec, or as
// tightly when strict is set.
func (w *writer) operand(n sqlexpr.Node, prec int, strict bool) error {
	p := w.precedence(n)
	paren := p < prec || (strict && p == prec && p != precAtomic)
	if paren {
		w.b.Append("(")
	}
	if err := w.visit(n); err != nil {
		return err
	}
	if paren {
		w.b.Append(")")
	}
	return nil
}

func (w *writer) visitFunction(f *sqlexpr.Function) error {
	if f.Schema != "" {
		w.b.Append(w.helper.DelimitIdentifier(f.Schema) + "." + w.helper.DelimitIdentifier(f.Name))
	} else {
		w.b.Append(f.Name)
	}
	w.b.Append("(")
	args := f.Args
	if f.Instance != nil {
		args = append([]sqlexpr.Node{f.Instance}, f.Args...)
	}
	for i, a := range args {
		if i > 0 {
			w.b.Append(", ")
		}
		if err := w.visit(a); err != nil {
			return err
		}
	}
	w.b.Append(")")
	return nil
}

func (w *writer) visitCase(c *sqlexpr.Case) error {
	w.b.Append("CASE")
	dedent := w.b.Indent()
	for _, when := range c.Whens {
		w.b.AppendLine().Append("WHEN ")
		if err := w.visit(sqlexpr.WithCondition(when.Test, true)); err != nil {
			return err
		}
		w.b.Append(" THEN ")
		if err := w.visit(sqlexpr.WithCondition(when.Result, false)); err != nil {
			return err
		}
	}
	if c.Else != nil {
		w.b.AppendLine().Append("ELSE ")
		if err := w.visit(sqlexpr.WithCondition(c.Else, false)); err != nil {
			return err
		}
	}
	dedent()
	w.b.AppendLine().Append("END")
	return nil
}
