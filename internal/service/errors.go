package service

import (
	"errors"
	"strings"

	"chatbot-studio/pkg/payload"
)

var (
	// ErrNotFound covers missing, soft-deleted and foreign-owned records alike.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("already exists")
)

// FieldError reports request fields that are invalid outside of payload
// validation, e.g. an unknown parent id.
type FieldError struct {
	Issues []payload.Issue
}

func (e *FieldError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

func fieldError(field, expected string) *FieldError {
	return &FieldError{Issues: []payload.Issue{{Field: field, Expected: expected}}}
}
