package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Outcome sentinels. Callers distinguish them with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidationFailed    = errors.New("validation failed")
	ErrConcurrencyConflict = errors.New("stale data: the record was changed by someone else, reload and retry")
	ErrIntegrityConflict   = errors.New("integrity conflict")
)

// Violation is one rejected rule
type Violation struct {
	Rule    string
	Message string
}

// ValidationError lists every rule a write violated
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, fmt.Sprintf("%s: %s", v.Rule, v.Message))
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Add appends a violation
func (e *ValidationError) Add(rule, format string, args ...interface{}) {
	e.Violations = append(e.Violations, Violation{Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// HasRule reports whether the given rule was violated
func (e *ValidationError) HasRule(rule string) bool {
	for _, v := range e.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// OrNil returns nil when nothing was violated
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}

// IntegrityError explains why a delete was blocked
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIntegrityConflict, e.Reason)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrityConflict
}

// NewIntegrityError builds an IntegrityError with a formatted reason
func NewIntegrityError(format string, args ...interface{}) error {
	return &IntegrityError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundf wraps ErrNotFound with context
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}
