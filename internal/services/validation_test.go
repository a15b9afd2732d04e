package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "want *ValidationError, got %v", err)
	return verr.Fields
}

func TestCheckSignup(t *testing.T) {
	tests := []struct {
		name   string
		in     signupInput
		fields []string
	}{
		{"ok", signupInput{"alice", "a@x.com"}, nil},
		{"ok symbols", signupInput{"a.l+i-c_e@1", "a@x.com"}, nil},
		{"empty", signupInput{}, []string{"username", "email"}},
		{"reserved", signupInput{"me", "a@x.com"}, []string{"username"}},
		{"reserved upper", signupInput{"Me", "a@x.com"}, []string{"username"}},
		{"bad chars", signupInput{"al ice", "a@x.com"}, []string{"username"}},
		{"too long", signupInput{strings.Repeat("a", 151), "a@x.com"}, []string{"username"}},
		{"bad email", signupInput{"alice", "not-an-email"}, []string{"email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := check(tt.in)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			fields := fieldsOf(t, err)
			assert.Len(t, fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"username": "bad", "email": "worse"}}
	assert.Equal(t, "validation failed: email: worse; username: bad", err.Error())
}

func TestConflictError_Is(t *testing.T) {
	err := error(&ConflictError{Field: "email"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "email already taken", err.Error())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", normalizeEmail("  A@X.com "))
}
