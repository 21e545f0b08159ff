// Package persistence provides standardized error types shared by all
// storage implementations.
package persistence

import (
	"errors"
	"fmt"
)

// Sentinel errors every implementation returns for missing entities.
var (
	// ErrWorkflowNotFound indicates no workflow exists for the given ID.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrConfigTemplateNotFound indicates no config template exists for the given ID.
	ErrConfigTemplateNotFound = errors.New("config template not found")

	// ErrParsingTemplateNotFound indicates no parsing template exists for the given ID.
	ErrParsingTemplateNotFound = errors.New("parsing template not found")
)

// RepositoryError wraps storage errors with the operation and entity that
// produced them.
type RepositoryError struct {
	Op       string // Operation being performed (e.g., "ByID", "Save", "Delete")
	Entity   string // Entity kind (e.g., "workflow", "config_template")
	EntityID string
	Err      error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.EntityID, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

func (e *RepositoryError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRepositoryError creates a repository error with context.
func NewRepositoryError(op, entity, entityID string, err error) *RepositoryError {
	return &RepositoryError{Op: op, Entity: entity, EntityID: entityID, Err: err}
}
