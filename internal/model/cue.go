package model

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/relquery/internal/typemap"
)

// CompileError represents a model compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// typeNames maps CUE property type names to Go types.
var typeNames = map[string]reflect.Type{
	"int":     reflect.TypeOf(int(0)),
	"int32":   reflect.TypeOf(int32(0)),
	"int64":   reflect.TypeOf(int64(0)),
	"string":  reflect.TypeOf(""),
	"bool":    reflect.TypeOf(false),
	"float":   reflect.TypeOf(float64(0)),
	"float64": reflect.TypeOf(float64(0)),
	"bytes":   reflect.TypeOf([]byte(nil)),
	"time":    reflect.TypeOf(time.Time{}),
	"decimal": reflect.TypeOf(decimal.Decimal{}),
	"uuid":    reflect.TypeOf(uuid.UUID{}),
}

// LoadCUE loads every CUE file in dir and compiles the `entity` struct
// into a model.
func LoadCUE(dir string, registry *typemap.Registry) (*Model, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("model directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scan model directory: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	if err := instances[0].Err; err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", formatCUEError(err))
	}

	value := cuecontext.New().BuildInstance(instances[0])
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", formatCUEError(err))
	}
	return CompileCUE(value, registry)
}

// CompileCUE compiles the `entity` struct of v into a model. Entities may
// name a base entity declared anywhere in the same value.
func CompileCUE(v cue.Value, registry *typemap.Registry) (*Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &CompileError{Field: "entity", Message: "no entities declared", Pos: v.Pos()}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var decls []cue.Value
	for iter.Next() {
		decls = append(decls, iter.Value())
	}

	m := New(registry)
	pending := decls
	for len(pending) > 0 {
		var deferred []cue.Value
		for _, decl := range pending {
			baseName, err := optionalString(decl, "base")
			if err != nil {
				return nil, err
			}
			var base *EntityType
			if baseName != "" {
				if base = m.FindEntityType(baseName); base == nil {
					deferred = append(deferred, decl)
					continue
				}
			}
			e, err := compileEntity(decl, base, registry)
			if err != nil {
				return nil, err
			}
			if err := m.add(e); err != nil {
				return nil, &CompileError{Field: "entity." + e.Name, Message: err.Error(), Pos: decl.Pos()}
			}
		}
		if len(deferred) == len(pending) {
			name := selectorName(deferred[0])
			return nil, &CompileError{
				Field:   "entity." + name + ".base",
				Message: "base entity not found or inheritance cycle",
				Pos:     deferred[0].Pos(),
			}
		}
		pending = deferred
	}
	return m, nil
}

func compileEntity(v cue.Value, base *EntityType, registry *typemap.Registry) (*EntityType, error) {
	e := newEntityType(selectorName(v))
	e.Base = base

	table, err := optionalString(v, "table")
	if err != nil {
		return nil, err
	}
	schema, err := optionalString(v, "schema")
	if err != nil {
		return nil, err
	}
	switch {
	case table != "":
		e.Table = table
		e.Schema = schema
	case base != nil:
		e.Table = base.Table
		e.Schema = base.Schema
	default:
		e.Schema = schema
	}

	if base != nil {
		if err := inherit(e, base, nil); err != nil {
			return nil, &CompileError{Field: "entity." + e.Name, Message: err.Error(), Pos: v.Pos()}
		}
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		if base == nil {
			return nil, &CompileError{
				Field:   "entity." + e.Name + ".properties",
				Message: "properties are required",
				Pos:     v.Pos(),
			}
		}
		return e, nil
	}
	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		p, err := compileProperty(e, iter.Label(), iter.Value(), registry)
		if err != nil {
			return nil, err
		}
		if err := e.addProperty(p); err != nil {
			return nil, &CompileError{Field: "entity." + e.Name, Message: err.Error(), Pos: iter.Value().Pos()}
		}
	}
	return e, nil
}

func compileProperty(e *EntityType, name string, v cue.Value, registry *typemap.Registry) (*Property, error) {
	field := fmt.Sprintf("entity.%s.properties.%s", e.Name, name)

	typeName, err := optionalString(v, "type")
	if err != nil {
		return nil, err
	}
	storeType, err := optionalString(v, "store_type")
	if err != nil {
		return nil, err
	}

	var goType reflect.Type
	var mapping *typemap.Mapping
	switch {
	case typeName != "":
		t, ok := typeNames[typeName]
		if !ok {
			return nil, &CompileError{Field: field + ".type", Message: fmt.Sprintf("unknown type %q", typeName), Pos: v.Pos()}
		}
		goType = t
		mapping = registry.FindMapping(t)
	case storeType != "":
		mapping = registry.FindMappingByStoreType(storeType)
		if mapping != nil {
			goType = mapping.ClrType
		}
	default:
		return nil, &CompileError{Field: field, Message: "type or store_type is required", Pos: v.Pos()}
	}
	if mapping == nil {
		return nil, &CompileError{Field: field, Message: "no store mapping for property type", Pos: v.Pos()}
	}

	column, err := optionalString(v, "column")
	if err != nil {
		return nil, err
	}
	if column == "" {
		column = name
	}

	nullable := false
	if nv := v.LookupPath(cue.ParsePath("nullable")); nv.Exists() {
		if nullable, err = nv.Bool(); err != nil {
			return nil, formatCUEError(err)
		}
	}
	if nullable && goType.Kind() != reflect.Slice {
		goType = reflect.PointerTo(goType)
	}

	return &Property{
		Name:          name,
		Column:        column,
		GoType:        goType,
		Nullable:      nullable || goType.Kind() == reflect.Slice,
		Mapping:       mapping,
		DeclaringType: e,
	}, nil
}

func selectorName(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	return labels[len(labels)-1].String()
}

func optionalString(v cue.Value, path string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
