package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/netforgehq/netforge/pkg/models"
	"github.com/netforgehq/netforge/pkg/parsing"
	"github.com/netforgehq/netforge/pkg/persistence"
	"github.com/netforgehq/netforge/pkg/template"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o600
)

// documentStore reads and writes one JSON file per entity inside a
// subdirectory of the persistence root.
type documentStore[T any] struct {
	dir      string
	entity   string
	notFound error
}

func newDocumentStore[T any](root, subdir, entity string, notFound error) *documentStore[T] {
	return &documentStore[T]{
		dir:      filepath.Join(root, subdir),
		entity:   entity,
		notFound: notFound,
	}
}

func (s *documentStore[T]) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *documentStore[T]) list(_ context.Context) ([]*T, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return make([]*T, 0), nil
	}

	if err != nil {
		return nil, persistence.NewRepositoryError("List", s.entity, "", err)
	}

	documents := make([]*T, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")

		document, err := s.byID(context.Background(), id)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s %s: %w", s.entity, id, err)
		}

		documents = append(documents, document)
	}

	return documents, nil
}

func (s *documentStore[T]) byID(_ context.Context, id string) (*T, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.NewRepositoryError("ByID", s.entity, id, s.notFound)
	}

	if err != nil {
		return nil, persistence.NewRepositoryError("ByID", s.entity, id, err)
	}

	document := new(T)
	if err := json.Unmarshal(data, document); err != nil {
		return nil, persistence.NewRepositoryError("ByID", s.entity, id, err)
	}

	return document, nil
}

func (s *documentStore[T]) save(_ context.Context, id string, document *T) error {
	if err := os.MkdirAll(s.dir, dirPermissions); err != nil {
		return persistence.NewRepositoryError("Save", s.entity, id, err)
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return persistence.NewRepositoryError("Save", s.entity, id, err)
	}

	if err := os.WriteFile(s.path(id), data, filePermissions); err != nil {
		return persistence.NewRepositoryError("Save", s.entity, id, err)
	}

	return nil
}

func (s *documentStore[T]) delete(_ context.Context, id string) error {
	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewRepositoryError("Delete", s.entity, id, s.notFound)
	}

	if err != nil {
		return persistence.NewRepositoryError("Delete", s.entity, id, err)
	}

	return nil
}

// WorkflowRepository stores workflow documents under <root>/workflows.
type WorkflowRepository struct {
	store *documentStore[models.Workflow]
}

// NewWorkflowRepository creates a workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{
		store: newDocumentStore[models.Workflow](root, "workflows", "workflow", persistence.ErrWorkflowNotFound),
	}
}

func (wr *WorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	return wr.store.list(ctx)
}

func (wr *WorkflowRepository) ByID(ctx context.Context, id string) (*models.Workflow, error) {
	return wr.store.byID(ctx, id)
}

func (wr *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	return wr.store.save(ctx, workflow.ID, workflow)
}

func (wr *WorkflowRepository) Delete(ctx context.Context, id string) error {
	return wr.store.delete(ctx, id)
}

// ConfigTemplateRepository stores config templates under
// <root>/config_templates.
type ConfigTemplateRepository struct {
	store *documentStore[template.ConfigTemplate]
}

// NewConfigTemplateRepository creates a config template repository.
func NewConfigTemplateRepository(root string) *ConfigTemplateRepository {
	return &ConfigTemplateRepository{
		store: newDocumentStore[template.ConfigTemplate](root, "config_templates", "config_template", persistence.ErrConfigTemplateNotFound),
	}
}

func (cr *ConfigTemplateRepository) List(ctx context.Context) ([]*template.ConfigTemplate, error) {
	return cr.store.list(ctx)
}

func (cr *ConfigTemplateRepository) ByID(ctx context.Context, id string) (*template.ConfigTemplate, error) {
	return cr.store.byID(ctx, id)
}

func (cr *ConfigTemplateRepository) Save(ctx context.Context, tmpl *template.ConfigTemplate) error {
	return cr.store.save(ctx, tmpl.ID, tmpl)
}

func (cr *ConfigTemplateRepository) Delete(ctx context.Context, id string) error {
	return cr.store.delete(ctx, id)
}

// ParsingTemplateRepository stores parsing templates under
// <root>/parsing_templates.
type ParsingTemplateRepository struct {
	store *documentStore[parsing.Template]
}

// NewParsingTemplateRepository creates a parsing template repository.
func NewParsingTemplateRepository(root string) *ParsingTemplateRepository {
	return &ParsingTemplateRepository{
		store: newDocumentStore[parsing.Template](root, "parsing_templates", "parsing_template", persistence.ErrParsingTemplateNotFound),
	}
}

func (pr *ParsingTemplateRepository) List(ctx context.Context) ([]*parsing.Template, error) {
	return pr.store.list(ctx)
}

func (pr *ParsingTemplateRepository) ByID(ctx context.Context, id string) (*parsing.Template, error) {
	return pr.store.byID(ctx, id)
}

func (pr *ParsingTemplateRepository) Save(ctx context.Context, tmpl *parsing.Template) error {
	return pr.store.save(ctx, tmpl.ID, tmpl)
}

func (pr *ParsingTemplateRepository) Delete(ctx context.Context, id string) error {
	return pr.store.delete(ctx, id)
}
