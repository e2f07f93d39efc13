package payload

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies a ValidationError.
type ErrorKind string

const SchemaMismatch ErrorKind = "SchemaMismatch"

// ErrSchemaMismatch matches every *ValidationError via errors.Is.
var ErrSchemaMismatch = errors.New("payload does not match its declared type")

// Issue is one offending field. Field is a dotted path from the payload root,
// e.g. "interactive.action.buttons[0].reply.title".
type Issue struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
}

func (i Issue) String() string {
	return i.Field + ": " + i.Expected
}

type ValidationError struct {
	Kind   ErrorKind `json:"kind"`
	Issues []Issue   `json:"issues"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// Prefix returns a copy of e with every field path rooted at prefix.
func (e *ValidationError) Prefix(prefix string) *ValidationError {
	out := &ValidationError{Kind: e.Kind, Issues: make([]Issue, len(e.Issues))}
	for i, issue := range e.Issues {
		field := prefix
		if issue.Field != "" {
			field = prefix + "." + issue.Field
		}
		out.Issues[i] = Issue{Field: field, Expected: issue.Expected}
	}
	return out
}

func mismatch(issues ...Issue) *ValidationError {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Field < issues[j].Field
	})
	return &ValidationError{Kind: SchemaMismatch, Issues: issues}
}
