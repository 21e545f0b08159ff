package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/netforgehq/netforge/pkg/runs"
)

// NewRunsRegistry selects a run registry from the registry URL. A
// "redis://host:port" URL gets a shared Redis registry; empty or "memory"
// keeps run state in process.
func NewRunsRegistry(ctx context.Context, registryURL string) (runs.Registry, error) {
	if registryURL == "" || registryURL == "memory" {
		return runs.NewMemoryRegistry(), nil
	}

	addr, ok := strings.CutPrefix(registryURL, "redis://")
	if !ok {
		return nil, fmt.Errorf("unsupported runs registry URL: %s", registryURL)
	}

	registry, err := runs.NewRedisRegistry(ctx, addr, "", 0, runs.DefaultTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis runs registry: %w", err)
	}

	return registry, nil
}
