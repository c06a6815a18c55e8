package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relquery/internal/store"
	"github.com/roach88/relquery/internal/typemap"
)

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "exec-1", NewFixedIDGenerator("exec-1").Generate())
	assert.Equal(t, "test-execution", NewFixedIDGenerator("").Generate())
}

func TestSliceReader(t *testing.T) {
	r := NewSliceReader([][]any{{int64(1), "Ann"}, {int64(2), nil}})

	_, err := r.GetInt64(0)
	require.Error(t, err, "no current row before Read")

	ok, err := r.Read()
	require.NoError(t, err)
	require.True(t, ok)
	id, err := r.GetInt64(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	name, err := r.GetString(1)
	require.NoError(t, err)
	assert.Equal(t, "Ann", name)

	ok, err = r.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.IsDBNull(1))
	assert.False(t, r.IsDBNull(0))

	ok, err = r.Read()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, r.FieldCount())

	r.Close()
	r.Close()
	assert.Equal(t, 2, r.Closes())
}

func TestSliceReader_FailAt(t *testing.T) {
	boom := errors.New("boom")
	r := NewSliceReader([][]any{{1}, {2}}).FailAt(1, boom)

	ok, err := r.Read()
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = r.Read()
	assert.ErrorIs(t, err, boom)
}

func TestFakeConnection_Counts(t *testing.T) {
	ctx := context.Background()
	c := NewFakeConnection([]any{int64(1)})

	_, err := c.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, store.ErrConnectionClosed)

	require.NoError(t, c.Open(ctx))
	r, err := c.Query(ctx, "SELECT 1", 5)
	require.NoError(t, err)
	ok, err := r.Read()
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, c.Opens())
	assert.Equal(t, 1, c.Closes())
	assert.False(t, c.IsOpen())
	assert.Equal(t, []Command{{Text: "SELECT 1", Args: []any{5}}}, c.Commands())
}

func TestFakeConnection_Failures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	assert.ErrorIs(t, NewFakeConnection().FailOpen(boom).Open(ctx), boom)

	c := NewFakeConnection().FailQuery()
	require.NoError(t, c.Open(ctx))
	_, err := c.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrQueryFailed)
}

func TestOpenPeopleStore(t *testing.T) {
	s := OpenPeopleStore(t)
	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM People").Scan(&n))
	assert.Equal(t, 3, n)

	_, person, employee := PeopleModel(t, typemap.SQLite())
	assert.Equal(t, "People", employee.Table)
	assert.Len(t, person.Properties(), 5)
	assert.Len(t, employee.Properties(), 6)
}
