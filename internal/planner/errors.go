package planner

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/estuda/plannerd/internal/store"
)

// ErrNotAuthenticated is returned when a mutation is attempted without a
// bound identity. The operation aborts with no partial effect.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrNotFound covers both store misses and toggles against an id absent
// from the local mirror.
var ErrNotFound = store.ErrNotFound

// ValidationError reports one or more rejected input fields. It is
// caller-local: surfaced to the client immediately, never retried.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps a *ValidationError if err carries one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func newValidationError(err error) error {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
	} else {
		fields["input"] = err.Error()
	}
	return &ValidationError{Fields: fields}
}
