package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrInvalidCode     = errors.New("invalid confirmation code")
	ErrNotification    = errors.New("notification failed")
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrUnverifiedIdentity is returned by the issuer for an identity that did
	// not come out of a successful Verify.
	ErrUnverifiedIdentity = errors.New("identity not verified")
)

// ValidationError carries a message per offending request field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ConflictError names the unique field that is already taken.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return e.Field + " already taken" }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
