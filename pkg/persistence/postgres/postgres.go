// Package postgres provides PostgreSQL persistence. Workflow and template
// documents are stored as JSONB with a few promoted columns for filtering.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// PostgreSQL driver registration.
	_ "github.com/lib/pq"

	"github.com/netforgehq/netforge/pkg/persistence"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db              *sql.DB
	logger          *slog.Logger
	workflowRepo    *WorkflowRepository
	configTmplRepo  *ConfigTemplateRepository
	parsingTmplRepo *ParsingTemplateRepository
}

// NewPersistence connects to PostgreSQL and runs pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	postgres := &Persistence{
		db:              database,
		logger:          logger,
		workflowRepo:    NewWorkflowRepository(database, logger),
		configTmplRepo:  NewConfigTemplateRepository(database, logger),
		parsingTmplRepo: NewParsingTemplateRepository(database, logger),
	}

	migrator := newMigrator(logger, database, migrations())
	if err := migrator.Run(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Workflows returns the workflow repository.
func (p *Persistence) Workflows() persistence.WorkflowRepository {
	return p.workflowRepo
}

// ConfigTemplates returns the config template repository.
func (p *Persistence) ConfigTemplates() persistence.ConfigTemplateRepository {
	return p.configTmplRepo
}

// ParsingTemplates returns the parsing template repository.
func (p *Persistence) ParsingTemplates() persistence.ParsingTemplateRepository {
	return p.parsingTmplRepo
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db == nil {
		return nil
	}

	if err := p.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}
