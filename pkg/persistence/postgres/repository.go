package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/netforgehq/netforge/pkg/models"
	"github.com/netforgehq/netforge/pkg/parsing"
	"github.com/netforgehq/netforge/pkg/persistence"
	"github.com/netforgehq/netforge/pkg/template"
)

// WorkflowRepository handles workflow operations. The full workflow graph
// lives in the JSONB document; promoted columns serve listing and filters.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// List returns all workflows, newest first. Soft-deleted workflows are
// excluded.
func (r *WorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	query := `
		SELECT document
		FROM workflows
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflow := new(models.Workflow)
		if err := json.Unmarshal(document, workflow); err != nil {
			return nil, fmt.Errorf("failed to decode workflow document: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// ByID returns a workflow by its ID.
func (r *WorkflowRepository) ByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT document FROM workflows WHERE id = $1 AND deleted_at IS NULL`

	var document []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRepositoryError("ByID", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	if err != nil {
		return nil, persistence.NewRepositoryError("ByID", "workflow", id, err)
	}

	workflow := new(models.Workflow)
	if err := json.Unmarshal(document, workflow); err != nil {
		return nil, persistence.NewRepositoryError("ByID", "workflow", id, err)
	}

	return workflow, nil
}

// Save upserts a workflow document.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	document, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewRepositoryError("Save", "workflow", workflow.ID, err)
	}

	query := `
		INSERT INTO workflows (id, name, status, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID, workflow.Name, workflow.Status, document,
		workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return persistence.NewRepositoryError("Save", "workflow", workflow.ID, err)
	}

	return nil
}

// Delete soft deletes a workflow by setting its deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE workflows SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return persistence.NewRepositoryError("Delete", "workflow", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewRepositoryError("Delete", "workflow", id, err)
	}

	if affected == 0 {
		return persistence.NewRepositoryError("Delete", "workflow", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

// ConfigTemplateRepository handles config template operations.
type ConfigTemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConfigTemplateRepository creates a config template repository.
func NewConfigTemplateRepository(db *sql.DB, logger *slog.Logger) *ConfigTemplateRepository {
	return &ConfigTemplateRepository{db: db, logger: logger}
}

func (r *ConfigTemplateRepository) List(ctx context.Context) ([]*template.ConfigTemplate, error) {
	query := `SELECT document FROM config_templates ORDER BY name`

	return scanDocuments[template.ConfigTemplate](ctx, r.db, r.logger, query, "config_templates")
}

func (r *ConfigTemplateRepository) ByID(ctx context.Context, id string) (*template.ConfigTemplate, error) {
	query := `SELECT document FROM config_templates WHERE id = $1`

	return scanDocument[template.ConfigTemplate](ctx, r.db, query, id,
		"config_template", persistence.ErrConfigTemplateNotFound)
}

func (r *ConfigTemplateRepository) Save(ctx context.Context, tmpl *template.ConfigTemplate) error {
	document, err := json.Marshal(tmpl)
	if err != nil {
		return persistence.NewRepositoryError("Save", "config_template", tmpl.ID, err)
	}

	query := `
		INSERT INTO config_templates (id, name, device_type, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			device_type = EXCLUDED.device_type,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		tmpl.ID, tmpl.Name, tmpl.DeviceType, document, tmpl.CreatedAt, tmpl.UpdatedAt)
	if err != nil {
		return persistence.NewRepositoryError("Save", "config_template", tmpl.ID, err)
	}

	return nil
}

func (r *ConfigTemplateRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "config_templates", "config_template", id, persistence.ErrConfigTemplateNotFound)
}

// ParsingTemplateRepository handles parsing template operations.
type ParsingTemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewParsingTemplateRepository creates a parsing template repository.
func NewParsingTemplateRepository(db *sql.DB, logger *slog.Logger) *ParsingTemplateRepository {
	return &ParsingTemplateRepository{db: db, logger: logger}
}

func (r *ParsingTemplateRepository) List(ctx context.Context) ([]*parsing.Template, error) {
	query := `SELECT document FROM parsing_templates ORDER BY name`

	return scanDocuments[parsing.Template](ctx, r.db, r.logger, query, "parsing_templates")
}

func (r *ParsingTemplateRepository) ByID(ctx context.Context, id string) (*parsing.Template, error) {
	query := `SELECT document FROM parsing_templates WHERE id = $1`

	return scanDocument[parsing.Template](ctx, r.db, query, id,
		"parsing_template", persistence.ErrParsingTemplateNotFound)
}

func (r *ParsingTemplateRepository) Save(ctx context.Context, tmpl *parsing.Template) error {
	document, err := json.Marshal(tmpl)
	if err != nil {
		return persistence.NewRepositoryError("Save", "parsing_template", tmpl.ID, err)
	}

	query := `
		INSERT INTO parsing_templates (id, name, device_type, command_pattern, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			device_type = EXCLUDED.device_type,
			command_pattern = EXCLUDED.command_pattern,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		tmpl.ID, tmpl.Name, tmpl.DeviceType, tmpl.CommandPattern, document,
		tmpl.CreatedAt, tmpl.UpdatedAt)
	if err != nil {
		return persistence.NewRepositoryError("Save", "parsing_template", tmpl.ID, err)
	}

	return nil
}

func (r *ParsingTemplateRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "parsing_templates", "parsing_template", id, persistence.ErrParsingTemplateNotFound)
}

func scanDocuments[T any](ctx context.Context, db *sql.DB, logger *slog.Logger, query, table string) ([]*T, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close rows", "table", table, "error", err)
		}
	}()

	documents := make([]*T, 0)

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}

		document := new(T)
		if err := json.Unmarshal(raw, document); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", table, err)
		}

		documents = append(documents, document)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}

	return documents, nil
}

func scanDocument[T any](ctx context.Context, db *sql.DB, query, id, entity string, notFound error) (*T, error) {
	var raw []byte

	err := db.QueryRowContext(ctx, query, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRepositoryError("ByID", entity, id, notFound)
	}

	if err != nil {
		return nil, persistence.NewRepositoryError("ByID", entity, id, err)
	}

	document := new(T)
	if err := json.Unmarshal(raw, document); err != nil {
		return nil, persistence.NewRepositoryError("ByID", entity, id, err)
	}

	return document, nil
}

func deleteByID(ctx context.Context, db *sql.DB, table, entity, id string, notFound error) error {
	result, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return persistence.NewRepositoryError("Delete", entity, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewRepositoryError("Delete", entity, id, err)
	}

	if affected == 0 {
		return persistence.NewRepositoryError("Delete", entity, id, notFound)
	}

	return nil
}
