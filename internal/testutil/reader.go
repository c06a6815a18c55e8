package testutil

import (
	"fmt"
	"time"

	"github.com/roach88/relquery/internal/typemap"
)

// SliceReader is an in-memory store.DataReader over rows of driver values.
// A nil cell reads as database NULL.
type SliceReader struct {
	rows    [][]any
	pos     int
	closes  int
	readErr error
	failAt  int
}

// NewSliceReader returns a reader positioned before the first row.
func NewSliceReader(rows [][]any) *SliceReader {
	return &SliceReader{rows: rows, pos: -1, failAt: -1}
}

// FailAt makes Read return err when advancing to row index i.
func (r *SliceReader) FailAt(i int, err error) *SliceReader {
	r.failAt = i
	r.readErr = err
	return r
}

func (r *SliceReader) Read() (bool, error) {
	if r.closes > 0 {
		return false, fmt.Errorf("reader is closed")
	}
	if r.pos+1 == r.failAt {
		return false, r.readErr
	}
	if r.pos+1 >= len(r.rows) {
		r.pos = len(r.rows)
		return false, nil
	}
	r.pos++
	return true, nil
}

func (r *SliceReader) FieldCount() int {
	if len(r.rows) == 0 {
		return 0
	}
	return len(r.rows[0])
}

// Close counts every call; Closes reports the total.
func (r *SliceReader) Close() error {
	r.closes++
	return nil
}

// Closes returns how many times Close was called.
func (r *SliceReader) Closes() int { return r.closes }

func (r *SliceReader) value(ordinal int) (any, error) {
	if r.pos < 0 || r.pos >= len(r.rows) {
		return nil, fmt.Errorf("no current row")
	}
	row := r.rows[r.pos]
	if ordinal < 0 || ordinal >= len(row) {
		return nil, fmt.Errorf("ordinal %d out of range [0,%d)", ordinal, len(row))
	}
	return row[ordinal], nil
}

func (r *SliceReader) IsDBNull(ordinal int) bool {
	v, err := r.value(ordinal)
	return err == nil && v == nil
}

func (r *SliceReader) GetValue(ordinal int) (any, error) { return r.value(ordinal) }

func (r *SliceReader) GetInt64(ordinal int) (int64, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return 0, err
	}
	return typemap.AsInt64(v)
}

func (r *SliceReader) GetFloat64(ordinal int) (float64, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return 0, err
	}
	return typemap.AsFloat64(v)
}

func (r *SliceReader) GetString(ordinal int) (string, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return "", err
	}
	return typemap.AsString(v)
}

func (r *SliceReader) GetBool(ordinal int) (bool, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return false, err
	}
	return typemap.AsBool(v)
}

func (r *SliceReader) GetBytes(ordinal int) ([]byte, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return nil, err
	}
	return typemap.AsBytes(v)
}

func (r *SliceReader) GetTime(ordinal int) (time.Time, error) {
	v, err := r.value(ordinal)
	if err != nil {
		return time.Time{}, err
	}
	return typemap.AsTime(v)
}
