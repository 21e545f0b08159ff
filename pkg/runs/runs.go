// Package runs tracks active and recently finished workflow runs so API
// clients can poll execution status across process boundaries.
package runs

import (
	"context"
	"errors"
	"time"

	"github.com/netforgehq/netforge/pkg/models"
)

// ErrRunNotFound indicates no run exists for the given execution ID.
var ErrRunNotFound = errors.New("run not found")

// RunState is the coarse lifecycle of a tracked run.
type RunState string

const (
	RunStatePending   RunState = "pending"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
	RunStateCancelled RunState = "cancelled"
)

// Run is the registry's record of one workflow execution.
type Run struct {
	ExecutionID  string                  `json:"execution_id"`
	WorkflowID   string                  `json:"workflow_id"`
	WorkflowName string                  `json:"workflow_name"`
	State        RunState                `json:"state"`
	StartedAt    time.Time               `json:"started_at"`
	FinishedAt   time.Time               `json:"finished_at,omitzero"`
	Result       *models.ExecutionResult `json:"result,omitempty"`
}

// Registry stores run records keyed by execution ID.
type Registry interface {
	Put(ctx context.Context, run *Run) error
	Get(ctx context.Context, executionID string) (*Run, error)
	List(ctx context.Context) ([]*Run, error)
	Delete(ctx context.Context, executionID string) error
	Close(ctx context.Context) error
}
