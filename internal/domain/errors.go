package domain

import "strings"

// ValidationError reports a form that was rejected before any store call.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}
	return "validation failed (" + strings.Join(e.Fields, ", ") + "): " + e.Message
}
