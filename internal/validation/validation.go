// Package validation provides request validation for the console API.
// Validation failures are caught before any backend call is made and are
// shown inline to the user.
package validation

import (
	"fmt"
	"strings"

	"github.com/accessops/access-console/internal/domain"
)

// MaxReasonLength bounds the created_reason field accepted by the backend.
const MaxReasonLength = 1024

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e[0].Error(), len(e)-1)
}

// Add adds a validation error to the collection.
func (e *ValidationErrors) Add(field, value, message string) {
	*e = append(*e, NewValidationError(field, value, message))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ValidateDecision checks that value is one of the recognized decision
// values.
func ValidateDecision(value string) error {
	if !domain.Decision(value).Valid() {
		return fmt.Errorf("decision must be one of %q, %q, %q",
			domain.DecisionRenew, domain.DecisionExpire, domain.DecisionUndecided)
	}
	return nil
}

// ValidateTheme checks that value is a recognized theme preference.
func ValidateTheme(value string) error {
	switch value {
	case domain.ThemeLight, domain.ThemeDark, domain.ThemeSystem:
		return nil
	}
	return fmt.Errorf("theme must be one of %q, %q, %q",
		domain.ThemeLight, domain.ThemeDark, domain.ThemeSystem)
}

// ValidateReason checks an access-change justification.
func ValidateReason(value string, required bool) error {
	trimmed := strings.TrimSpace(value)
	if required && trimmed == "" {
		return fmt.Errorf("a reason is required for this access change")
	}
	if len(value) > MaxReasonLength {
		return fmt.Errorf("reason must be at most %d characters", MaxReasonLength)
	}
	return nil
}
