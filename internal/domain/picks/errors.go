package picks

import (
	"errors"
	"fmt"
)

// Sentinel kinds for the rules a submission can break.
var (
	ErrNotPositiveInteger = errors.New("castaway id must be a positive integer")
	ErrDuplicateTrio      = errors.New("trio castaways must be distinct")
	ErrIckyInTrio         = errors.New("icky castaway must not be in the trio")
	ErrProphecyCount      = errors.New("prophecy answers must cover all sixteen questions")
	ErrProphecyKey        = errors.New("prophecy question id out of range")
	ErrProphecyNotBoolean = errors.New("prophecy answer must be a boolean")
)

// ValidationError names the field and rule a submission violated.
type ValidationError struct {
	Field  string
	Rule   error
	Reason string
}

func newError(field string, rule error, reason string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Field, e.Rule, e.Reason)
}

// Unwrap exposes the rule for errors.Is.
func (e *ValidationError) Unwrap() error { return e.Rule }

// RuleName returns a short metric-friendly name for the violated rule.
func RuleName(err error) string {
	switch {
	case errors.Is(err, ErrNotPositiveInteger):
		return "castaway_id"
	case errors.Is(err, ErrDuplicateTrio):
		return "duplicate_trio"
	case errors.Is(err, ErrIckyInTrio):
		return "icky_in_trio"
	case errors.Is(err, ErrProphecyCount):
		return "prophecy_count"
	case errors.Is(err, ErrProphecyKey):
		return "prophecy_key"
	case errors.Is(err, ErrProphecyNotBoolean):
		return "prophecy_boolean"
	default:
		return "unknown"
	}
}
