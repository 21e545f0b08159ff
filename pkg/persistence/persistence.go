// Package persistence provides the data storage abstraction for workflows,
// config templates, and parsing templates.
package persistence

import (
	"context"

	"github.com/netforgehq/netforge/pkg/models"
	"github.com/netforgehq/netforge/pkg/parsing"
	"github.com/netforgehq/netforge/pkg/template"
)

// Persistence groups the entity repositories behind one storage backend.
type Persistence interface {
	Workflows() WorkflowRepository
	ConfigTemplates() ConfigTemplateRepository
	ParsingTemplates() ParsingTemplateRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow documents.
type WorkflowRepository interface {
	List(ctx context.Context) ([]*models.Workflow, error)
	ByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// ConfigTemplateRepository stores configuration command templates.
type ConfigTemplateRepository interface {
	List(ctx context.Context) ([]*template.ConfigTemplate, error)
	ByID(ctx context.Context, id string) (*template.ConfigTemplate, error)
	Save(ctx context.Context, tmpl *template.ConfigTemplate) error
	Delete(ctx context.Context, id string) error
}

// ParsingTemplateRepository stores output extraction templates.
type ParsingTemplateRepository interface {
	List(ctx context.Context) ([]*parsing.Template, error)
	ByID(ctx context.Context, id string) (*parsing.Template, error)
	Save(ctx context.Context, tmpl *parsing.Template) error
	Delete(ctx context.Context, id string) error
}
