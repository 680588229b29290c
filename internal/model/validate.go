package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, msg string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: msg})
}

// ValidateRecord checks a draft for the given category.
// It returns a *ValidationError if any rules fail, or nil if the draft is valid.
func ValidateRecord(c Category, r Record) error {
	var ve ValidationError

	if !c.IsValid() {
		ve.add("category", fmt.Sprintf("invalid value %q", c))
	}

	// Subject: required and at most 100 characters.
	subject := strings.TrimSpace(r.SubjectTag)
	if subject == "" {
		ve.add("subjectTag", "is required")
	} else if len([]rune(subject)) > 100 {
		ve.add("subjectTag", "must be 100 characters or fewer")
	}

	if r.OccurredAt.IsZero() {
		ve.add("occurredAtUtc", "is required")
	}

	switch c {
	case CategoryPresence:
		if !r.Activity.IsValid() {
			ve.add("activityKind", fmt.Sprintf("invalid value %q", r.Activity))
		}
	case CategoryResource:
		if !r.Resource.IsValid() {
			ve.add("resourceKind", fmt.Sprintf("invalid value %q", r.Resource))
		}
		if r.NodeLevel < 0 || r.NodeLevel > MaxNodeLevel {
			ve.add("nodeLevel", fmt.Sprintf("must be between 1 and %d, got %d", MaxNodeLevel, r.NodeLevel))
		}
	case CategoryHostile:
		if !r.Hostile.IsValid() {
			ve.add("hostileKind", fmt.Sprintf("invalid value %q", r.Hostile))
		}
		if r.HostileLevel < 0 || r.HostileLevel > MaxHostileLevel {
			ve.add("hostileLevel", fmt.Sprintf("must be between 1 and %d, got %d", MaxHostileLevel, r.HostileLevel))
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
