package validation

import (
	"testing"
	"time"

	"github.com/vnykmshr/allocmetrics/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
		{"large positive", 1000000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive("test", "queue_size", tt.value)

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidatePositiveDuration(t *testing.T) {
	tests := []struct {
		name      string
		value     time.Duration
		wantError bool
	}{
		{"one hour", time.Hour, false},
		{"one nanosecond", time.Nanosecond, false},
		{"zero", 0, true},
		{"negative", -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositiveDuration("metrics", "window", tt.value)

			if tt.wantError {
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %v", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateNotEmpty(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantError bool
	}{
		{"non-empty string", "value", false},
		{"single char", "a", false},
		{"whitespace", " ", false}, // Whitespace is not empty
		{"empty string", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNotEmpty("test", "name", tt.value)

			if tt.wantError {
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %v", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateOneOf(t *testing.T) {
	if err := ValidateOneOf("logging", "format", "json", "json", "text"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	err := ValidateOneOf("logging", "format", "xml", "json", "text")
	if !errors.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	valErr := err.(*errors.ValidationError)
	if valErr.Hint != "use one of: json, text" {
		t.Errorf("Hint = %q, want %q", valErr.Hint, "use one of: json, text")
	}
}

func TestValidateUniqueNames(t *testing.T) {
	tests := []struct {
		name      string
		values    []string
		wantError bool
		reason    string
	}{
		{"default resources", []string{"cpus", "mem", "disk"}, false, ""},
		{"single", []string{"gpus"}, false, ""},
		{"empty list", nil, true, "cannot be empty"},
		{"empty name", []string{"cpus", ""}, true, "contains an empty name"},
		{"duplicate", []string{"cpus", "mem", "cpus"}, true, "contains duplicate cpus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUniqueNames("allocator", "resources", tt.values)

			if !tt.wantError {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}

			valErr, ok := err.(*errors.ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if valErr.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", valErr.Reason, tt.reason)
			}
		})
	}
}

func TestValidationErrorWrapping(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{"ValidatePositive", ValidatePositive("test", "field", -1)},
		{"ValidatePositiveDuration", ValidatePositiveDuration("test", "field", 0)},
		{"ValidateNotEmpty", ValidateNotEmpty("test", "field", "")},
		{"ValidateOneOf", ValidateOneOf("test", "field", "x", "y")},
		{"ValidateUniqueNames", ValidateUniqueNames("test", "field", nil)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err == nil {
				t.Fatal("expected error")
			}
			valErr, ok := tc.err.(*errors.ValidationError)
			if !ok {
				t.Fatalf("error should be a ValidationError, got %T", tc.err)
			}
			if wrapped := valErr.Unwrap(); wrapped != errors.ErrInvalidConfiguration {
				t.Errorf("should unwrap to ErrInvalidConfiguration, got %v", wrapped)
			}
		})
	}
}
