package shared

import "strings"

// CodeValidation is the code shared by every validation failure
const CodeValidation = "VALIDATION_ERROR"

// ErrValidation is the sentinel every ValidationError unwraps to
var ErrValidation = NewDomainError(CodeValidation, "Request validation failed")

// FieldViolation describes one rejected input field
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violated field of a request. Guards collect all
// violations before returning instead of stopping at the first one.
type ValidationError struct {
	Violations []FieldViolation
}

// NewValidationError creates a ValidationError from the given violations
func NewValidationError(violations ...FieldViolation) *ValidationError {
	return &ValidationError{Violations: violations}
}

// Add records a violation
func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: message})
}

// HasViolations reports whether anything was recorded
func (e *ValidationError) HasViolations() bool {
	return len(e.Violations) > 0
}

// Messages returns the human-readable message of each violation in order
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Message)
	}
	return out
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrValidation.Message
	}
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Unwrap lets errors.Is(err, ErrValidation) and errors.As(err, *DomainError) match
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// OrNil returns e when it holds violations and nil otherwise
func (e *ValidationError) OrNil() error {
	if e == nil || !e.HasViolations() {
		return nil
	}
	return e
}
