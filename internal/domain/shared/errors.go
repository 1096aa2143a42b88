package shared

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind classifies a DomainError for callers that map errors to transport codes
type ErrorKind string

const (
	KindNotFound            ErrorKind = "not_found"
	KindAlreadyExists       ErrorKind = "already_exists"
	KindValidation          ErrorKind = "validation"
	KindInvalidState        ErrorKind = "invalid_state"
	KindConcurrencyConflict ErrorKind = "concurrency_conflict"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind     ErrorKind `json:"kind"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Entity   string    `json:"entity,omitempty"`
	EntityID string    `json:"entity_id,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError of the same kind.
// Sentinels match any error of their kind; coded errors also match on code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == string(t.Kind) || t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError reports that entity id does not resolve to a live row
func NewNotFoundError(entity string, id uuid.UUID) *DomainError {
	return &DomainError{
		Kind:     KindNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s not found: %s", entity, id),
		Entity:   entity,
		EntityID: id.String(),
	}
}

// NewInvalidStateError reports a violated domain invariant
func NewInvalidStateError(code, message string) *DomainError {
	return NewDomainError(KindInvalidState, code, message)
}

// NewValidationError reports a malformed or missing field combination
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// AsDomainError unwraps err into a DomainError if it carries one
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors. Compare with errors.Is.
var (
	ErrNotFound            = NewDomainError(KindNotFound, string(KindNotFound), "Resource not found")
	ErrAlreadyExists       = NewDomainError(KindAlreadyExists, string(KindAlreadyExists), "Resource already exists")
	ErrValidation          = NewDomainError(KindValidation, string(KindValidation), "Invalid input provided")
	ErrInvalidState        = NewDomainError(KindInvalidState, string(KindInvalidState), "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError(KindConcurrencyConflict, string(KindConcurrencyConflict), "Resource was modified by another process")

	ErrAccountRequired = NewValidationError("ACCOUNT_REQUIRED", "account id is required")
)
