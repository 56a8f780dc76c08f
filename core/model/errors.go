package model

import "fmt"

// ValidationError reports a malformed or missing input field. Inputs are
// rejected outright, never silently defaulted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
