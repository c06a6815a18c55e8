package typemap

import (
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Registry is a provider-level set of mappings keyed by Go type.
// A Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	name        string
	byType      map[reflect.Type]*Mapping
	byStoreType map[string]*Mapping
}

// NewRegistry creates a registry from mappings. When two mappings share a Go
// type the first one wins; the store type index keeps every mapping.
func NewRegistry(name string, mappings ...*Mapping) *Registry {
	r := &Registry{
		name:        name,
		byType:      make(map[reflect.Type]*Mapping, len(mappings)),
		byStoreType: make(map[string]*Mapping, len(mappings)),
	}
	for _, m := range mappings {
		if _, exists := r.byType[m.ClrType]; !exists {
			r.byType[m.ClrType] = m
		}
		key := strings.ToLower(m.StoreType)
		if _, exists := r.byStoreType[key]; !exists {
			r.byStoreType[key] = m
		}
	}
	return r
}

// Name returns the provider name, e.g. "sqlserver".
func (r *Registry) Name() string {
	return r.name
}

// FindMapping returns the mapping for t, or nil when the provider cannot
// store t. Pointer types resolve to the mapping of their element type.
func (r *Registry) FindMapping(t reflect.Type) *Mapping {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return r.byType[t]
}

// FindMappingByStoreType looks a mapping up by store type name
// (case-insensitive).
func (r *Registry) FindMappingByStoreType(storeType string) *Mapping {
	return r.byStoreType[strings.ToLower(storeType)]
}

var (
	typeBool    = reflect.TypeOf(false)
	typeString  = reflect.TypeOf("")
	typeBytes   = reflect.TypeOf([]byte(nil))
	typeTime    = reflect.TypeOf(time.Time{})
	typeDecimal = reflect.TypeOf(decimal.Decimal{})
	typeUUID    = reflect.TypeOf(uuid.UUID{})
)

var decimalConverter = NewValueConverter(
	func(d decimal.Decimal) (string, error) { return d.String(), nil },
	func(s string) (decimal.Decimal, error) { return decimal.NewFromString(s) },
)

var uuidConverter = NewValueConverter(
	func(u uuid.UUID) (string, error) { return u.String(), nil },
	func(s string) (uuid.UUID, error) { return uuid.Parse(s) },
)

func integerMappings(storeTypes map[reflect.Kind]string) []*Mapping {
	kinds := []any{int(0), int8(0), int16(0), int32(0), int64(0), uint8(0), uint16(0), uint32(0), uint64(0), uint(0)}
	out := make([]*Mapping, 0, len(kinds))
	for _, k := range kinds {
		t := reflect.TypeOf(k)
		out = append(out, NewMapping(t, storeTypes[t.Kind()], AccessInt64, integerLiteral))
	}
	return out
}

// SQLServer returns the SQL Server mapping registry.
func SQLServer() *Registry {
	mappings := integerMappings(map[reflect.Kind]string{
		reflect.Int:    "int",
		reflect.Int8:   "smallint",
		reflect.Int16:  "smallint",
		reflect.Int32:  "int",
		reflect.Int64:  "bigint",
		reflect.Uint8:  "tinyint",
		reflect.Uint16: "int",
		reflect.Uint32: "bigint",
		reflect.Uint64: "decimal(20,0)",
		reflect.Uint:   "decimal(20,0)",
	})
	mappings = append(mappings,
		NewMapping(typeString, "nvarchar(max)", AccessString, unicodeStringLiteral),
		NewMapping(typeBool, "bit", AccessBool, bitLiteral),
		NewMapping(reflect.TypeOf(float64(0)), "float", AccessFloat64, floatLiteral),
		NewMapping(reflect.TypeOf(float32(0)), "real", AccessFloat64, floatLiteral),
		NewMapping(typeBytes, "varbinary(max)", AccessBytes, hexBytesLiteral),
		NewMapping(typeTime, "datetime2", AccessTime, timeLiteral("2006-01-02T15:04:05.0000000")),
		NewMapping(typeDecimal, "decimal(18,2)", AccessString, decimalLiteral).WithConverter(decimalConverter),
		NewMapping(typeUUID, "uniqueidentifier", AccessString, uuidLiteral).WithConverter(uuidConverter),
	)
	return NewRegistry("sqlserver", mappings...)
}

// SQLite returns the SQLite mapping registry.
func SQLite() *Registry {
	storeTypes := make(map[reflect.Kind]string)
	for _, k := range []reflect.Kind{reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint} {
		storeTypes[k] = "INTEGER"
	}
	mappings := integerMappings(storeTypes)
	mappings = append(mappings,
		NewMapping(typeString, "TEXT", AccessString, stringLiteral),
		NewMapping(typeBool, "INTEGER", AccessBool, integerBoolLiteral),
		NewMapping(reflect.TypeOf(float64(0)), "REAL", AccessFloat64, floatLiteral),
		NewMapping(reflect.TypeOf(float32(0)), "REAL", AccessFloat64, floatLiteral),
		NewMapping(typeBytes, "BLOB", AccessBytes, blobLiteral),
		NewMapping(typeTime, "DATETIME", AccessTime, timeLiteral("2006-01-02 15:04:05.999999999")),
		NewMapping(typeDecimal, "DECIMAL", AccessString, decimalLiteral).WithConverter(decimalConverter),
		NewMapping(typeUUID, "UUID", AccessString, uuidLiteral).WithConverter(uuidConverter),
	)
	return NewRegistry("sqlite", mappings...)
}
