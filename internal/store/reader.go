package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/relquery/internal/typemap"
)

// DataReader is a forward-only cursor over a result set. Getters read the
// current row by ordinal.
type DataReader interface {
	typemap.Row

	// Read advances to the next row. It returns false with a nil error at
	// the end of the result set.
	Read() (bool, error)

	// FieldCount is the number of columns in each row.
	FieldCount() int

	// Close releases the cursor. It is safe to call more than once.
	Close() error
}

// RowsReader is a DataReader over *sql.Rows.
type RowsReader struct {
	rows   *sql.Rows
	values []any
	dest   []any
	closed bool
}

// NewRowsReader wraps rows.
func NewRowsReader(rows *sql.Rows) (*RowsReader, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("read columns: %w", err)
	}
	r := &RowsReader{
		rows:   rows,
		values: make([]any, len(cols)),
		dest:   make([]any, len(cols)),
	}
	for i := range r.values {
		r.dest[i] = &r.values[i]
	}
	return r, nil
}

func (r *RowsReader) Read() (bool, error) {
	if r.closed {
		return false, nil
	}
	if !r.rows.Next() {
		if err := r.rows.Err(); err != nil {
			return false, fmt.Errorf("iterate rows: %w", err)
		}
		return false, nil
	}
	clear(r.values)
	if err := r.rows.Scan(r.dest...); err != nil {
		return false, fmt.Errorf("scan row: %w", err)
	}
	return true, nil
}

func (r *RowsReader) FieldCount() int {
	return len(r.values)
}

func (r *RowsReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.rows.Close()
}

func (r *RowsReader) value(ordinal int) (any, error) {
	if ordinal < 0 || ordinal >= len(r.values) {
		return nil, fmt.Errorf("ordinal %d out of range [0,%d)", ordinal, len(r.values))
	}
	return r.values[ordinal], nil
}

func (r *RowsReader) IsDBNull(ordinal int) bool {
	v, err := r.value(ordinal)
	return err == nil && v == nil
}

func (r *RowsReader) GetValue(ordinal int) (any, error) {
	return r.value(ordinal)
}

func (r *RowsReader) GetInt64(ordinal int) (int64, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return 0, err
	}
	return typemap.AsInt64(v)
}

func (r *RowsReader) GetFloat64(ordinal int) (float64, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return 0, err
	}
	return typemap.AsFloat64(v)
}

func (r *RowsReader) GetString(ordinal int) (string, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return "", err
	}
	return typemap.AsString(v)
}

func (r *RowsReader) GetBool(ordinal int) (bool, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return false, err
	}
	return typemap.AsBool(v)
}

func (r *RowsReader) GetBytes(ordinal int) ([]byte, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return nil, err
	}
	return typemap.AsBytes(v)
}

func (r *RowsReader) GetTime(ordinal int) (time.Time, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return time.Time{}, err
	}
	return typemap.AsTime(v)
}
