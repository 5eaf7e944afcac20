package allocator

import (
	"fmt"
)

// InvariantError describes a broken lifecycle invariant: creating a metric
// that already exists, removing one that does not, using an aggregate after
// Close, or the registry rejecting an add or remove. Aggregates panic with
// an *InvariantError; these are programming errors in the caller.
type InvariantError struct {
	Op        string
	Key       string
	Condition string
	Err       error
}

func (e *InvariantError) Error() string {
	msg := fmt.Sprintf("allocator metrics: %s(%q): %s", e.Op, e.Key, e.Condition)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

func violation(op, key, condition string, err error) {
	panic(&InvariantError{Op: op, Key: key, Condition: condition, Err: err})
}

func check(cond bool, op, key, condition string) {
	if !cond {
		violation(op, key, condition, nil)
	}
}
