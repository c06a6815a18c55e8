package typemap

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// Row is the positional view of the current result row that accessors read
// from. Values returned by a Row are only valid until the cursor advances.
type Row interface {
	IsDBNull(ordinal int) bool
	GetValue(ordinal int) (any, error)
	GetInt64(ordinal int) (int64, error)
	GetFloat64(ordinal int) (float64, error)
	GetString(ordinal int) (string, error)
	GetBool(ordinal int) (bool, error)
	GetBytes(ordinal int) ([]byte, error)
	GetTime(ordinal int) (time.Time, error)
}

// Accessor selects the typed Row getter used to read a mapped column.
type Accessor int

const (
	AccessValue Accessor = iota
	AccessInt64
	AccessFloat64
	AccessString
	AccessBool
	AccessBytes
	AccessTime
)

var accessorNames = map[Accessor]string{
	AccessValue:   "GetValue",
	AccessInt64:   "GetInt64",
	AccessFloat64: "GetFloat64",
	AccessString:  "GetString",
	AccessBool:    "GetBool",
	AccessBytes:   "GetBytes",
	AccessTime:    "GetTime",
}

func (a Accessor) String() string {
	if name, ok := accessorNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Accessor(%d)", int(a))
}

// Type returns the Go type produced by Read.
func (a Accessor) Type() reflect.Type {
	switch a {
	case AccessInt64:
		return reflect.TypeOf(int64(0))
	case AccessFloat64:
		return reflect.TypeOf(float64(0))
	case AccessString:
		return reflect.TypeOf("")
	case AccessBool:
		return reflect.TypeOf(false)
	case AccessBytes:
		return reflect.TypeOf([]byte(nil))
	case AccessTime:
		return reflect.TypeOf(time.Time{})
	default:
		return reflect.TypeOf((*any)(nil)).Elem()
	}
}

// Read reads the value at ordinal using the accessor's getter.
func (a Accessor) Read(r Row, ordinal int) (any, error) {
	switch a {
	case AccessInt64:
		return r.GetInt64(ordinal)
	case AccessFloat64:
		return r.GetFloat64(ordinal)
	case AccessString:
		return r.GetString(ordinal)
	case AccessBool:
		return r.GetBool(ordinal)
	case AccessBytes:
		return r.GetBytes(ordinal)
	case AccessTime:
		return r.GetTime(ordinal)
	default:
		return r.GetValue(ordinal)
	}
}

// The As* helpers coerce raw driver values (int64, float64, bool, []byte,
// string, time.Time) into the accessor result types. Row implementations
// share them so that every driver gets the same conversion rules.

// AsInt64 coerces a driver value to int64.
func AsInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || x < -(1<<63) || x >= 1<<63 {
			return 0, fmt.Errorf("cannot read %v as int64", x)
		}
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	default:
		return 0, fmt.Errorf("cannot read %T as int64", v)
	}
}

// AsFloat64 coerces a driver value to float64.
func AsFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("cannot read %T as float64", v)
	}
}

// AsString coerces a driver value to string.
func AsString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	default:
		return "", fmt.Errorf("cannot read %T as string", v)
	}
}

// AsBool coerces a driver value to bool.
func AsBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case []byte:
		return strconv.ParseBool(string(x))
	case string:
		return strconv.ParseBool(x)
	default:
		return false, fmt.Errorf("cannot read %T as bool", v)
	}
}

// AsBytes coerces a driver value to []byte. The result is a copy.
func AsBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return append([]byte(nil), x...), nil
	case string:
		return []byte(x), nil
	default:
		return nil, fmt.Errorf("cannot read %T as []byte", v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// AsTime coerces a driver value to time.Time.
func AsTime(v any) (time.Time, error) {
	var s string
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case []byte:
		s = string(x)
	case string:
		s = x
	default:
		return time.Time{}, fmt.Errorf("cannot read %T as time.Time", v)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time.Time", s)
}
