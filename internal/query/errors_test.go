package query

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/relquery/internal/expr"
)

func TestQueryError_Error(t *testing.T) {
	err := NewUnsupportedTranslation(expr.Equal(expr.Const(1), expr.Const(2)), "no SQL for %s", "thing")

	assert.Equal(t, "UNSUPPORTED_TRANSLATION: no SQL for thing (expression=(1 == 2))", err.Error())
}

func TestQueryError_WrapsCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := NewExecutionFailure(cause, "execute reader")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "EXECUTION_FAILURE: execute reader: disk I/O error", err.Error())
}

func TestIsHelpers_MatchWrappedErrors(t *testing.T) {
	testCases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"unsupported", NewUnsupportedTranslation(nil, "x"), IsUnsupportedTranslation},
		{"invalid", NewInvalidTranslation(nil, "x"), IsInvalidTranslation},
		{"materialization", NewMaterializationInconsistency(nil, "x"), IsMaterializationInconsistency},
		{"execution", NewExecutionFailure(nil, "x"), IsExecutionFailure},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.check(tc.err))
			assert.True(t, tc.check(fmt.Errorf("compile: %w", tc.err)))
			assert.False(t, tc.check(errors.New("plain")))
		})
	}

	assert.False(t, IsInvalidTranslation(NewUnsupportedTranslation(nil, "x")))
}
