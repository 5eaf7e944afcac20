// Package validation provides common validation utilities for the allocmetrics module.
package validation

import (
	"strings"
	"time"

	amerrors "github.com/vnykmshr/allocmetrics/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return amerrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is positive (> 0).
func ValidatePositiveDuration(module, field string, value time.Duration) error {
	if value <= 0 {
		return amerrors.NewValidationError(module, field, value, "must be positive").
			WithHint("use a Go duration such as 5s or 1h")
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return amerrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidateOneOf validates that value is one of the allowed values.
func ValidateOneOf(module, field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return amerrors.NewValidationError(module, field, value, "unsupported value").
		WithHint("use one of: " + strings.Join(allowed, ", "))
}

// ValidateUniqueNames validates that a list is non-empty and holds distinct,
// non-empty names.
func ValidateUniqueNames(module, field string, values []string) error {
	if len(values) == 0 {
		return amerrors.NewValidationError(module, field, values, "cannot be empty").
			WithHint("list at least one " + field + " entry")
	}

	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			return amerrors.NewValidationError(module, field, values, "contains an empty name").
				WithHint("remove empty entries")
		}
		if _, ok := seen[v]; ok {
			return amerrors.NewValidationError(module, field, values, "contains duplicate "+v).
				WithHint("each name may appear only once")
		}
		seen[v] = struct{}{}
	}
	return nil
}
