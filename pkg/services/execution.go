package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/netforgehq/netforge/pkg/models"
	"github.com/netforgehq/netforge/pkg/persistence"
	"github.com/netforgehq/netforge/pkg/runner"
	"github.com/netforgehq/netforge/pkg/runs"
)

// Execution drives workflow runs and keeps the run registry current. Each
// run works on a deep copy of the stored workflow so concurrent runs and
// CRUD never share mutable state.
type Execution struct {
	runner      *runner.Runner
	persistence persistence.Persistence
	registry    runs.Registry
	logger      *slog.Logger

	mu      sync.Mutex
	handles map[string]*runner.Handle // local async handles, for cancellation
}

// NewExecution creates an execution service.
func NewExecution(r *runner.Runner, p persistence.Persistence, registry runs.Registry, logger *slog.Logger) *Execution {
	if logger == nil {
		logger = slog.Default()
	}

	return &Execution{
		runner:      r,
		persistence: p,
		registry:    registry,
		logger:      logger.With("module", "execution-service"),
		handles:     make(map[string]*runner.Handle),
	}
}

// Execute runs a workflow synchronously. Request variables override the
// workflow's stored variables.
func (s *Execution) Execute(ctx context.Context, workflowID string, variables map[string]any) (*models.ExecutionResult, error) {
	workflow, err := s.loadForRun(ctx, workflowID, variables)
	if err != nil {
		return nil, err
	}

	result := s.runner.Run(ctx, workflow)

	s.record(ctx, workflow, result.ExecutionID, result)

	return result, nil
}

// ExecuteAsync submits a run to the worker pool and returns its execution
// ID immediately. The registry is updated when the run finishes.
func (s *Execution) ExecuteAsync(ctx context.Context, workflowID string, variables map[string]any) (string, error) {
	workflow, err := s.loadForRun(ctx, workflowID, variables)
	if err != nil {
		return "", err
	}

	// The handle must outlive the request context.
	handle, err := s.runner.RunAsync(context.Background(), workflow)
	if err != nil {
		return "", fmt.Errorf("failed to submit run: %w", err)
	}

	s.mu.Lock()
	s.handles[handle.ExecutionID] = handle
	s.mu.Unlock()

	s.record(ctx, workflow, handle.ExecutionID, nil)

	go s.watch(workflow, handle)

	return handle.ExecutionID, nil
}

// Run returns the registry record for one execution.
func (s *Execution) Run(ctx context.Context, executionID string) (*runs.Run, error) {
	return s.registry.Get(ctx, executionID)
}

// Runs lists all tracked executions.
func (s *Execution) Runs(ctx context.Context) ([]*runs.Run, error) {
	return s.registry.List(ctx)
}

// Cancel requests best-effort cancellation of a locally running execution.
func (s *Execution) Cancel(ctx context.Context, executionID string) error {
	s.mu.Lock()
	handle, ok := s.handles[executionID]
	s.mu.Unlock()

	if !ok {
		return runs.ErrRunNotFound
	}

	handle.Cancel()

	return nil
}

func (s *Execution) loadForRun(ctx context.Context, workflowID string, variables map[string]any) (*models.Workflow, error) {
	stored, err := s.persistence.Workflows().ByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}

	workflow, err := stored.Clone()
	if err != nil {
		return nil, err
	}

	if workflow.Variables == nil {
		workflow.Variables = make(map[string]any, len(variables))
	}

	for name, value := range variables {
		workflow.Variables[name] = value
	}

	return workflow, nil
}

// watch waits for an async run to finish, then finalizes its registry
// record and drops the local handle.
func (s *Execution) watch(workflow *models.Workflow, handle *runner.Handle) {
	<-handle.Done()

	result, _ := handle.Wait(context.Background())

	s.record(context.Background(), workflow, handle.ExecutionID, result)

	s.mu.Lock()
	delete(s.handles, handle.ExecutionID)
	s.mu.Unlock()
}

func (s *Execution) record(ctx context.Context, workflow *models.Workflow, executionID string, result *models.ExecutionResult) {
	run := &runs.Run{
		ExecutionID:  executionID,
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
		State:        runs.RunStateRunning,
		StartedAt:    time.Now(),
	}

	if existing, err := s.registry.Get(ctx, executionID); err == nil {
		run.StartedAt = existing.StartedAt
	}

	if result != nil {
		run.Result = result
		run.FinishedAt = time.Now()

		if result.Success {
			run.State = runs.RunStateCompleted
		} else {
			run.State = runs.RunStateFailed
		}
	}

	if err := s.registry.Put(ctx, run); err != nil {
		s.logger.Warn("failed to update run registry", "execution_id", executionID, "error", err)
	}
}
