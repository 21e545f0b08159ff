// Package cmd wires shared infrastructure for the netforge binaries:
// persistence, event bus, and run registry selection from configuration.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/netforgehq/netforge/pkg/persistence"
	"github.com/netforgehq/netforge/pkg/persistence/file"
	"github.com/netforgehq/netforge/pkg/persistence/postgres"
)

// NewPersistence selects a persistence backend from the database URL
// scheme. "postgres://" URLs get PostgreSQL; anything else is treated as a
// file root.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgres.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
