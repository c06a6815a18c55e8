package cli

import (
	"bytes"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/model"
	"github.com/roach88/relquery/internal/queryable"
)

// QueryFile describes one query over an entity of a CUE model.
type QueryFile struct {
	// Name identifies the query in output.
	Name string `yaml:"name"`

	// Entity is the root entity name as declared in the model.
	Entity string `yaml:"entity"`

	// Where lists conditions that must all hold.
	Where []Condition `yaml:"where,omitempty"`

	// OrderBy lists ordering keys, most significant first.
	OrderBy []OrderKey `yaml:"order_by,omitempty"`

	Skip *Count `yaml:"skip,omitempty"`
	Take *Count `yaml:"take,omitempty"`

	// Select lists the properties to return. When empty the whole entity
	// is returned.
	Select []string `yaml:"select,omitempty"`

	// Params holds default parameter values; --param flags override them.
	Params map[string]any `yaml:"params,omitempty"`
}

// Condition is a node of a where tree. Exactly one of And, Or, Not or
// Property must be set. A property condition compares the property with
// Value or with the named Param using Op.
type Condition struct {
	And []Condition `yaml:"and,omitempty"`
	Or  []Condition `yaml:"or,omitempty"`
	Not *Condition  `yaml:"not,omitempty"`

	Property string `yaml:"property,omitempty"`
	Op       string `yaml:"op,omitempty"` // eq | ne | lt | le | gt | ge | contains | null | not_null
	Value    any    `yaml:"value,omitempty"`
	Param    string `yaml:"param,omitempty"`
}

// OrderKey orders by one property.
type OrderKey struct {
	Property   string `yaml:"property"`
	Descending bool   `yaml:"descending,omitempty"`
}

// Count is a row count written either as an integer or as {param: name}.
type Count struct {
	Value int
	Param string
}

// UnmarshalYAML accepts a scalar integer or a mapping with a param key.
func (c *Count) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		return n.Decode(&c.Value)
	}
	var ref struct {
		Param string `yaml:"param"`
	}
	if err := n.Decode(&ref); err != nil {
		return err
	}
	if ref.Param == "" {
		return fmt.Errorf("line %d: count must be an integer or {param: name}", n.Line)
	}
	c.Param = ref.Param
	return nil
}

// LoadQueryFile reads and parses a query YAML file. Unknown fields are
// rejected.
func LoadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}

	var qf QueryFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&qf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if qf.Entity == "" {
		return nil, fmt.Errorf("invalid query file: entity is required")
	}
	return &qf, nil
}

// BuiltQuery is a query file resolved against a model.
type BuiltQuery struct {
	Query *queryable.Query

	// ParamTypes holds the Go type of every parameter the query reads.
	ParamTypes map[string]reflect.Type
}

type queryBuilder struct {
	entity *model.EntityType
	params map[string]reflect.Type
}

// Build resolves qf against m.
func (qf *QueryFile) Build(m *model.Model) (*BuiltQuery, error) {
	entity := m.FindEntityType(qf.Entity)
	if entity == nil {
		return nil, fmt.Errorf("entity %q is not declared in the model", qf.Entity)
	}
	b := &queryBuilder{entity: entity, params: make(map[string]reflect.Type)}
	q := queryable.From(entity)

	for i, c := range qf.Where {
		var err error
		pred := q.Lambda(func(x expr.Node) expr.Node {
			var n expr.Node
			n, err = b.condition(x, c)
			return n
		})
		if err != nil {
			return nil, fmt.Errorf("where[%d]: %w", i, err)
		}
		q = q.Where(pred)
	}

	for i, k := range qf.OrderBy {
		p := entity.FindProperty(k.Property)
		if p == nil {
			return nil, fmt.Errorf("order_by[%d]: unknown property %q", i, k.Property)
		}
		key := q.Lambda(func(x expr.Node) expr.Node { return expr.Property(x, p.Name, p.GoType) })
		switch {
		case i == 0 && k.Descending:
			q = q.OrderByDescending(key)
		case i == 0:
			q = q.OrderBy(key)
		case k.Descending:
			q = q.ThenByDescending(key)
		default:
			q = q.ThenBy(key)
		}
	}

	if qf.Skip != nil {
		q = q.Skip(b.count(qf.Skip))
	}
	if qf.Take != nil {
		q = q.Take(b.count(qf.Take))
	}

	if len(qf.Select) > 0 {
		props := make([]*model.Property, len(qf.Select))
		for i, name := range qf.Select {
			if props[i] = entity.FindProperty(name); props[i] == nil {
				return nil, fmt.Errorf("select[%d]: unknown property %q", i, name)
			}
		}
		q = q.Select(q.Lambda(func(x expr.Node) expr.Node {
			members := make([]expr.Node, len(props))
			for i, p := range props {
				members[i] = expr.Convert(expr.Property(x, p.Name, p.GoType), expr.AnyType)
			}
			return expr.NewObject(expr.RowMapType, qf.Select, members)
		}))
	}
	return &BuiltQuery{Query: q, ParamTypes: b.params}, nil
}

func (b *queryBuilder) count(c *Count) expr.Node {
	if c.Param != "" {
		b.params[c.Param] = expr.IntType
		return expr.Param(c.Param, expr.IntType)
	}
	return expr.Const(c.Value)
}

func (b *queryBuilder) condition(x expr.Node, c Condition) (expr.Node, error) {
	switch {
	case len(c.And) > 0:
		return b.combine(x, c.And, expr.AndAlso)
	case len(c.Or) > 0:
		return b.combine(x, c.Or, expr.OrElse)
	case c.Not != nil:
		operand, err := b.condition(x, *c.Not)
		if err != nil {
			return nil, err
		}
		return expr.Not(operand), nil
	case c.Property == "":
		return nil, fmt.Errorf("condition needs and, or, not or property")
	}

	p := b.entity.FindProperty(c.Property)
	if p == nil {
		return nil, fmt.Errorf("unknown property %q", c.Property)
	}
	left := expr.Property(x, p.Name, p.GoType)

	switch c.Op {
	case "null":
		return expr.Equal(left, expr.Null(p.GoType)), nil
	case "not_null":
		return expr.NotEqual(left, expr.Null(p.GoType)), nil
	}

	right, err := b.operand(p, c)
	if err != nil {
		return nil, err
	}
	switch c.Op {
	case "eq", "":
		return expr.Equal(left, right), nil
	case "ne":
		return expr.NotEqual(left, right), nil
	case "lt":
		return expr.LessThan(left, right), nil
	case "le":
		return expr.LessThanOrEqual(left, right), nil
	case "gt":
		return expr.GreaterThan(left, right), nil
	case "ge":
		return expr.GreaterThanOrEqual(left, right), nil
	case "contains":
		if expr.UnwrapNullable(p.GoType) != expr.StringType {
			return nil, fmt.Errorf("contains needs a string property, %s is %s", p.Name, p.GoType)
		}
		return expr.CallMethod(left, "Contains", expr.BoolType, right), nil
	}
	return nil, fmt.Errorf("unknown operator %q", c.Op)
}

func (b *queryBuilder) combine(x expr.Node, conds []Condition, join func(l, r expr.Node) *expr.Binary) (expr.Node, error) {
	var out expr.Node
	for _, c := range conds {
		n, err := b.condition(x, c)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = n
			continue
		}
		out = join(out, n)
	}
	return out, nil
}

func (b *queryBuilder) operand(p *model.Property, c Condition) (expr.Node, error) {
	t := expr.UnwrapNullable(p.GoType)
	if c.Param != "" {
		if prev, ok := b.params[c.Param]; ok && prev != t {
			return nil, fmt.Errorf("parameter %q is used as both %s and %s", c.Param, prev, t)
		}
		b.params[c.Param] = t
		return expr.Param(c.Param, t), nil
	}
	if c.Value == nil {
		return nil, fmt.Errorf("condition on %s needs value or param", p.Name)
	}
	v, err := ConvertValue(c.Value, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, err)
	}
	return expr.TypedConst(v, t), nil
}

// ConvertValue converts a value decoded from YAML or read from a flag to
// the Go type t of a property or parameter.
func ConvertValue(v any, t reflect.Type) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Type() == t {
		return v, nil
	}
	if s, ok := v.(string); ok {
		return parseValue(s, t)
	}
	switch t {
	case reflect.TypeFor[decimal.Decimal]():
		return decimal.NewFromString(fmt.Sprint(v))
	case reflect.TypeFor[uuid.UUID](), expr.TimeType:
		return parseValue(fmt.Sprint(v), t)
	}
	if rv.CanConvert(t) && rv.Kind() != reflect.String && t.Kind() != reflect.String {
		return rv.Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("cannot use %v (%T) as %s", v, v, t)
}

func parseValue(s string, t reflect.Type) (any, error) {
	switch t {
	case reflect.TypeFor[decimal.Decimal]():
		return decimal.NewFromString(s)
	case reflect.TypeFor[uuid.UUID]():
		return uuid.Parse(s)
	case expr.TimeType:
		return time.Parse(time.RFC3339, s)
	}
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(s).Convert(t).Interface(), nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(b).Convert(t).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(i).Convert(t).Interface(), nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(f).Convert(t).Interface(), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return []byte(s), nil
		}
	}
	return nil, fmt.Errorf("cannot parse %q as %s", s, t)
}

// ParameterValues merges the query file's defaults with overrides and
// converts every value to its parameter's type. Parameters without a
// value are reported together.
func (bq *BuiltQuery) ParameterValues(defaults map[string]any, overrides map[string]string) (map[string]any, error) {
	values := make(map[string]any, len(bq.ParamTypes))
	var missing []string
	for name, t := range bq.ParamTypes {
		var raw any
		if s, ok := overrides[name]; ok {
			raw = s
		} else if v, ok := defaults[name]; ok {
			raw = v
		} else {
			missing = append(missing, name)
			continue
		}
		v, err := ConvertValue(raw, t)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
		values[name] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("no value for parameters %v", missing)
	}
	return values, nil
}
