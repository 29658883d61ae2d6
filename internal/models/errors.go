package models

import (
	"fmt"
	"strings"
)

// Violation is one constraint a row breaks.
type Violation struct {
	Field  string
	Reason string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Reason
}

// ValidationError reports every constraint violated by a row.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

// Fields returns the names of the violated fields in report order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field
	}
	return fields
}

// Has reports whether field is among the violations.
func (e *ValidationError) Has(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// MissingFieldError reports required values that no source could supply.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field(s): %s", strings.Join(e.Fields, ", "))
}
