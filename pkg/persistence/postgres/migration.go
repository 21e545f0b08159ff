package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
)

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);
		`,
		2: `
			CREATE TABLE config_templates (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				device_type VARCHAR(100) NOT NULL,
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_config_templates_device_type ON config_templates(device_type);

			CREATE TABLE parsing_templates (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				device_type VARCHAR(100) NOT NULL,
				command_pattern TEXT NOT NULL,
				document JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_parsing_templates_device_type ON parsing_templates(device_type);
		`,
	}
}

// migrator applies schema migrations in version order, recording each in
// schema_migrations.
type migrator struct {
	db         *sql.DB
	logger     *slog.Logger
	migrations map[int]string
}

func newMigrator(logger *slog.Logger, db *sql.DB, migrations map[int]string) *migrator {
	return &migrator{db: db, logger: logger, migrations: migrations}
}

// Run creates the bookkeeping table and applies every migration newer than
// the recorded schema version.
func (m *migrator) Run(ctx context.Context) error {
	createTable := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);
	`
	if _, err := m.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int
	if err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to query current schema version: %w", err)
	}

	versions := make([]int, 0, len(m.migrations))
	for version := range m.migrations {
		versions = append(versions, version)
	}

	sort.Ints(versions)

	for _, version := range versions {
		if version <= current {
			continue
		}

		if err := m.apply(ctx, version); err != nil {
			return err
		}
	}

	return nil
}

func (m *migrator) apply(ctx context.Context, version int) error {
	m.logger.InfoContext(ctx, "applying migration", "version", version)

	transaction, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", version, err)
	}

	if _, err := transaction.ExecContext(ctx, m.migrations[version]); err != nil {
		_ = transaction.Rollback()

		return fmt.Errorf("failed to execute migration %d: %w", version, err)
	}

	if _, err := transaction.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
		_ = transaction.Rollback()

		return fmt.Errorf("failed to record migration %d: %w", version, err)
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", version, err)
	}

	return nil
}
