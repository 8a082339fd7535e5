package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsAndPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		typ   ErrorType
	}{
		{"validation", NewValidation("bad input"), IsValidation, ErrorTypeValidation},
		{"not found", NewNotFound("node not found"), IsNotFound, ErrorTypeNotFound},
		{"conflict", NewConflict("stale version", nil), IsConflict, ErrorTypeConflict},
		{"unavailable", NewUnavailable("storage down", nil), IsUnavailable, ErrorTypeUnavailable},
		{"internal", NewInternal("db down", errors.New("boom")), IsInternal, ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.typ, TypeOf(tt.err))
		})
	}
}

func TestWrapPreservesType(t *testing.T) {
	err := Wrap(NewNotFound("project not found"), "loading export")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "loading export: project not found", MessageOf(err))
}

func TestWrapPlainErrorBecomesInternal(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, "list nodes")
	assert.True(t, IsInternal(err))
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestPredicatesSeeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", NewValidation("title is required"))
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
}
