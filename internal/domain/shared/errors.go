package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
// This lets errors.Is(err, ErrNotFound) match errors built with a custom message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithMessage returns a copy of the error carrying a more specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message, Err: e.Err}
}

// Wrap returns a copy of the error with cause attached
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Err: cause}
}

// Error codes
const (
	CodeMissingInput              = "MISSING_INPUT"
	CodeInvalidInput              = "INVALID_INPUT"
	CodeNotFound                  = "NOT_FOUND"
	CodeCartUpdateFailed          = "CART_UPDATE_FAILED"
	CodePersonalizationSaveFailed = "PERSONALIZATION_SAVE_FAILED"
	CodeConflict                  = "CONFLICT"
	CodeUnauthorized              = "UNAUTHORIZED"
)

// Common domain errors
var (
	ErrMissingInput              = NewDomainError(CodeMissingInput, "Required input is missing")
	ErrInvalidInput              = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrNotFound                  = NewDomainError(CodeNotFound, "Resource not found")
	ErrCartUpdateFailed          = NewDomainError(CodeCartUpdateFailed, "Cart update failed")
	ErrPersonalizationSaveFailed = NewDomainError(CodePersonalizationSaveFailed, "Failed to save personalization")
	ErrConflict                  = NewDomainError(CodeConflict, "Resource is being modified by another request")
	ErrUnauthorized              = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
)

// CodeOf returns the domain error code carried by err, or "" when err is not a DomainError
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
