package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/netforgehq/netforge/pkg/models"
	"github.com/netforgehq/netforge/pkg/persistence"
)

// Workflow implements workflow CRUD with structural validation on every
// write: struct tags, the JSON schema, and graph acyclicity.
type Workflow struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

// NewWorkflow creates a workflow service.
func NewWorkflow(p persistence.Persistence, validate *validator.Validate) *Workflow {
	return &Workflow{persistence: p, validate: validate}
}

// HealthCheck checks the health of the persistence layer.
func (s *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "persistence layer is unhealthy: " + err.Error(), false
	}

	return "persistence layer is healthy", true
}

// List returns all workflows.
func (s *Workflow) List(ctx context.Context) ([]*models.Workflow, error) {
	return s.persistence.Workflows().List(ctx)
}

// ByID returns a single workflow.
func (s *Workflow) ByID(ctx context.Context, id string) (*models.Workflow, error) {
	return s.persistence.Workflows().ByID(ctx, id)
}

// Create validates and stores a new workflow.
func (s *Workflow) Create(ctx context.Context, workflow *models.Workflow) error {
	if err := s.validateWorkflow("Create", workflow); err != nil {
		return err
	}

	return s.persistence.Workflows().Save(ctx, workflow)
}

// Update validates and replaces an existing workflow. The workflow must
// already exist.
func (s *Workflow) Update(ctx context.Context, workflow *models.Workflow) error {
	if err := s.validateWorkflow("Update", workflow); err != nil {
		return err
	}

	if _, err := s.persistence.Workflows().ByID(ctx, workflow.ID); err != nil {
		return fmt.Errorf("failed to load workflow for update: %w", err)
	}

	return s.persistence.Workflows().Save(ctx, workflow)
}

// Delete removes a workflow.
func (s *Workflow) Delete(ctx context.Context, id string) error {
	return s.persistence.Workflows().Delete(ctx, id)
}

func (s *Workflow) validateWorkflow(op string, workflow *models.Workflow) error {
	if workflow == nil {
		return NewValidationError(op, "", ErrWorkflowNil)
	}

	if workflow.Name == "" {
		return NewValidationError(op, "", ErrWorkflowNameRequired)
	}

	if err := s.validate.Struct(workflow); err != nil {
		return NewValidationError(op, err.Error(), ErrInvalidRequest)
	}

	if err := models.ValidateWorkflowDocument(workflow); err != nil {
		return NewValidationError(op, err.Error(), ErrInvalidDocument)
	}

	if err := workflow.ValidateGraph(); err != nil {
		return NewValidationError(op, err.Error(), ErrInvalidGraph)
	}

	return nil
}
