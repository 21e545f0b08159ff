// Package services provides the business logic layer between the HTTP
// handlers and storage.
package services

import (
	"errors"
	"fmt"

	"github.com/netforgehq/netforge/pkg/persistence"
)

// Validation errors surface to clients as 400 responses.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrTemplateNil          = errors.New("template cannot be nil")
	ErrInvalidGraph         = errors.New("invalid workflow graph")
	ErrInvalidDocument      = errors.New("invalid workflow document")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a validation error with context.
func NewValidationError(op, message string, err error) *ServiceError {
	return &ServiceError{Op: op, Message: message, Err: err}
}

// IsValidationError reports whether an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrTemplateNil) ||
		errors.Is(err, ErrInvalidGraph) ||
		errors.Is(err, ErrInvalidDocument)
}

// IsNotFoundError reports whether an error should map to HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, persistence.ErrWorkflowNotFound) ||
		errors.Is(err, persistence.ErrConfigTemplateNotFound) ||
		errors.Is(err, persistence.ErrParsingTemplateNotFound)
}
