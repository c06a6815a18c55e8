package shaped

import (
	"fmt"
	"math"
	"reflect"

	"github.com/roach88/relquery/internal/expr"
	"github.com/roach88/relquery/internal/model"
	"github.com/roach88/relquery/internal/query"
	"github.com/roach88/relquery/internal/sqlexpr"
	"github.com/roach88/relquery/internal/typemap"
)

type readFunc func(row typemap.Row) (reflect.Value, error)

// Shaper materializes one value from the current row of a result set.
// It is immutable and safe for concurrent use.
type Shaper struct {
	typ  reflect.Type
	read readFunc
}

// Type is the Go type of materialized values.
func (s *Shaper) Type() reflect.Type { return s.typ }

// Shape materializes the current row.
func (s *Shaper) Shape(row typemap.Row) (any, error) {
	v, err := s.read(row)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// CompileShaper turns a shaper expression over projection bindings into
// reads from the fixed row positions of sel.
//
// A projection binding reads the row position its member was finalized
// to. An entity shaper reads one position per property starting at the
// position of its value buffer. Each read uses the type mapping's
// accessor, then its converter, then coerces to the target Go type. Reads
// that may see NULL (nullable columns, non-column projections and
// properties of entities in an inheritance hierarchy) substitute the zero
// value for NULL.
func CompileShaper(shaper expr.Node, sel *sqlexpr.Select) (*Shaper, error) {
	c := &shaperCompiler{sel: sel, projection: sel.Projection()}
	read, err := c.compile(shaper)
	if err != nil {
		return nil, err
	}
	return &Shaper{typ: shaper.Type(), read: read}, nil
}

type shaperCompiler struct {
	sel        *sqlexpr.Select
	projection []sqlexpr.Projection
}

func (c *shaperCompiler) compile(n expr.Node) (readFunc, error) {
	switch n := n.(type) {
	case *expr.ProjectionBinding:
		return c.binding(n)
	case *expr.EntityShaper:
		return c.entity(n)
	case *expr.New:
		return c.newObject(n)
	case *expr.Unary:
		if n.Op != expr.OpConvert {
			break
		}
		read, err := c.compile(n.Operand)
		if err != nil {
			return nil, err
		}
		t := n.Type()
		return func(row typemap.Row) (reflect.Value, error) {
			v, err := read(row)
			if err != nil {
				return reflect.Value{}, err
			}
			return assign(v, t)
		}, nil
	case *expr.Constant:
		v, err := coerce(n.Value, n.Type())
		if err != nil {
			return nil, query.NewMaterializationInconsistency(n, "constant: %v", err)
		}
		return func(typemap.Row) (reflect.Value, error) { return v, nil }, nil
	}
	return nil, query.NewMaterializationInconsistency(n, "%T cannot be materialized from a row", n)
}

func (c *shaperCompiler) index(b *expr.ProjectionBinding, width int) (int, error) {
	i, ok := c.sel.ProjectionIndex(b.Member)
	if !ok {
		return 0, query.NewMaterializationInconsistency(b, "projection member %s is not bound", b.Member)
	}
	if i < 0 || i+width > len(c.projection) {
		return 0, query.NewMaterializationInconsistency(b, "projection member %s reads past the projection", b.Member)
	}
	return i, nil
}

func (c *shaperCompiler) binding(b *expr.ProjectionBinding) (readFunc, error) {
	i, err := c.index(b, 1)
	if err != nil {
		return nil, err
	}
	e := c.projection[i].Expr
	nullable := true
	if col, ok := e.(*sqlexpr.Column); ok {
		nullable = col.Nullable
	}
	return columnReader(i, e.TypeMapping(), b.Type(), nullable || expr.IsNullable(b.Type())), nil
}

func (c *shaperCompiler) entity(s *expr.EntityShaper) (readFunc, error) {
	b, ok := s.ValueBuffer.(*expr.ProjectionBinding)
	if !ok {
		return nil, query.NewMaterializationInconsistency(s, "entity value buffer is %T, not a projection binding", s.ValueBuffer)
	}
	props := s.Entity.Properties()
	start, err := c.index(b, len(props))
	if err != nil {
		return nil, err
	}

	if s.Entity.GoType == nil {
		return c.schemalessEntity(props, start), nil
	}

	readers := make([]readFunc, len(props))
	for i, p := range props {
		readers[i] = columnReader(start+i, p.Mapping, p.GoType, mayBeNull(p))
	}
	t := s.Entity.GoType
	return func(row typemap.Row) (reflect.Value, error) {
		out := reflect.New(t).Elem()
		for i, p := range props {
			v, err := readers[i](row)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%s: %w", p, err)
			}
			out.FieldByIndex(p.FieldIndex()).Set(v)
		}
		return out, nil
	}, nil
}

// schemalessEntity materializes a map keyed by property name. NULL is
// stored as a nil entry and nullable values are stored unwrapped.
func (c *shaperCompiler) schemalessEntity(props []*model.Property, start int) readFunc {
	readers := make([]readFunc, len(props))
	for i, p := range props {
		readers[i] = columnReader(start+i, p.Mapping, expr.UnwrapNullable(p.GoType), false)
	}
	return func(row typemap.Row) (reflect.Value, error) {
		m := make(map[string]any, len(props))
		for i, p := range props {
			if mayBeNull(p) && row.IsDBNull(start+i) {
				m[p.Name] = nil
				continue
			}
			v, err := readers[i](row)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%s: %w", p, err)
			}
			m[p.Name] = v.Interface()
		}
		return reflect.ValueOf(m), nil
	}
}

func mayBeNull(p *model.Property) bool {
	return p.Nullable || expr.IsNullable(p.GoType) || (p.EntityType != nil && p.EntityType.HasHierarchy())
}

func (c *shaperCompiler) newObject(n *expr.New) (readFunc, error) {
	readers := make([]readFunc, len(n.Args))
	for i, a := range n.Args {
		r, err := c.compile(a)
		if err != nil {
			return nil, err
		}
		readers[i] = r
	}

	t := n.Type()
	switch {
	case t.Kind() == reflect.Map && t.Key().Kind() == reflect.String:
		keys := make([]reflect.Value, len(n.Members))
		for i, name := range n.Members {
			keys[i] = reflect.ValueOf(name).Convert(t.Key())
		}
		return func(row typemap.Row) (reflect.Value, error) {
			out := reflect.MakeMapWithSize(t, len(keys))
			for i, key := range keys {
				v, err := readers[i](row)
				if err != nil {
					return reflect.Value{}, err
				}
				if v, err = assign(v, t.Elem()); err != nil {
					return reflect.Value{}, fmt.Errorf("%s: %w", key, err)
				}
				out.SetMapIndex(key, v)
			}
			return out, nil
		}, nil

	case t.Kind() == reflect.Struct:
		fields := make([]reflect.StructField, len(n.Members))
		for i, name := range n.Members {
			f, ok := t.FieldByName(name)
			if !ok {
				return nil, query.NewMaterializationInconsistency(n, "%s has no field %s", t, name)
			}
			fields[i] = f
		}
		return func(row typemap.Row) (reflect.Value, error) {
			out := reflect.New(t).Elem()
			for i, f := range fields {
				v, err := readers[i](row)
				if err != nil {
					return reflect.Value{}, err
				}
				if v, err = assign(v, f.Type); err != nil {
					return reflect.Value{}, fmt.Errorf("%s: %w", f.Name, err)
				}
				out.FieldByIndex(f.Index).Set(v)
			}
			return out, nil
		}, nil
	}
	return nil, query.NewMaterializationInconsistency(n, "cannot construct %s", t)
}

func columnReader(ordinal int, m *typemap.Mapping, target reflect.Type, nullable bool) readFunc {
	accessor := typemap.AccessValue
	var converter *typemap.ValueConverter
	if m != nil {
		accessor = m.Accessor
		converter = m.Converter
	}
	return func(row typemap.Row) (reflect.Value, error) {
		if nullable && row.IsDBNull(ordinal) {
			return reflect.Zero(target), nil
		}
		raw, err := accessor.Read(row, ordinal)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("read column %d: %w", ordinal, err)
		}
		if converter != nil {
			if raw, err = converter.ConvertFromProvider(raw); err != nil {
				return reflect.Value{}, fmt.Errorf("convert column %d: %w", ordinal, err)
			}
		}
		v, err := coerce(raw, target)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("column %d: %w", ordinal, err)
		}
		return v, nil
	}
}

func assign(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if v.Type() == t {
		return v, nil
	}
	return coerce(v.Interface(), t)
}

// coerce converts a provider or model value to target. Pointers are
// allocated for pointer targets; numeric values convert between sizes;
// values of the same kind convert between named types.
func coerce(raw any, target reflect.Type) (reflect.Value, error) {
	if raw == nil {
		if nilable(target.Kind()) {
			return reflect.Zero(target), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot assign NULL to %s", target)
	}
	v := reflect.ValueOf(raw)
	if v.Type().AssignableTo(target) {
		out := reflect.New(target).Elem()
		out.Set(v)
		return out, nil
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return coerce(nil, target)
		}
		return coerce(v.Elem().Interface(), target)
	}
	if target.Kind() == reflect.Pointer {
		elem, err := coerce(raw, target.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(elem)
		return p, nil
	}
	if convertible(v.Type(), target) {
		if !fits(v, target) {
			return reflect.Value{}, fmt.Errorf("%v does not fit %s", raw, target)
		}
		return v.Convert(target), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", v.Type(), target)
}

func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	return from.Kind() == to.Kind() || (numeric(from.Kind()) && numeric(to.Kind()))
}

// fits reports whether the numeric value v converts to target without
// overflow or loss of a fractional part. Integers converted to floats only
// lose precision and always fit.
func fits(v reflect.Value, target reflect.Type) bool {
	if !numeric(v.Kind()) || !numeric(target.Kind()) {
		return true
	}
	out := reflect.New(target).Elem()
	switch {
	case out.CanInt():
		switch {
		case v.CanInt():
			return !out.OverflowInt(v.Int())
		case v.CanUint():
			return v.Uint() <= math.MaxInt64 && !out.OverflowInt(int64(v.Uint()))
		default:
			f := v.Float()
			return f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 && !out.OverflowInt(int64(f))
		}
	case out.CanUint():
		switch {
		case v.CanInt():
			return v.Int() >= 0 && !out.OverflowUint(uint64(v.Int()))
		case v.CanUint():
			return !out.OverflowUint(v.Uint())
		default:
			f := v.Float()
			return f == math.Trunc(f) && f >= 0 && f < 1<<64 && !out.OverflowUint(uint64(f))
		}
	default:
		return !v.CanFloat() || !out.OverflowFloat(v.Float())
	}
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}
