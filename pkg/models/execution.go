package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Execution holds the run-scoped state of one workflow invocation. It is
// created at run start, owned by exactly one run, and discarded at run end.
type Execution struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	Variables  map[string]any `json:"variables"`
	StartedAt  time.Time      `json:"started_at"`
}

// NewExecution creates an execution seeded from the workflow's global
// variables. The seed map is copied so concurrent runs never share state.
func NewExecution(workflow *Workflow) *Execution {
	variables := make(map[string]any, len(workflow.Variables))
	for key, value := range workflow.Variables {
		variables[key] = value
	}

	return &Execution{
		ID:         "exec-" + uuid.New().String()[:8],
		WorkflowID: workflow.ID,
		Variables:  variables,
		StartedAt:  time.Now(),
	}
}

// SetVariable stores a value under the given name.
func (e *Execution) SetVariable(name string, value any) {
	e.Variables[name] = value
}

// Variable returns the stored value and whether it exists.
func (e *Execution) Variable(name string) (any, bool) {
	value, ok := e.Variables[name]

	return value, ok
}

// VariableString returns the stored value in its text form, "" when absent.
func (e *Execution) VariableString(name string) string {
	value, ok := e.Variables[name]
	if !ok || value == nil {
		return ""
	}

	return fmt.Sprintf("%v", value)
}

// StringVariables returns a snapshot of all variables in text form.
func (e *Execution) StringVariables() map[string]string {
	snapshot := make(map[string]string, len(e.Variables))
	for name := range e.Variables {
		snapshot[name] = e.VariableString(name)
	}

	return snapshot
}

// TaskResult captures the terminal state of one task within a run.
type TaskResult struct {
	TaskID string     `json:"task_id"`
	Name   string     `json:"name"`
	Status TaskStatus `json:"status"`
	Output string     `json:"output,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// ExecutionResult is the outcome of a whole run.
type ExecutionResult struct {
	Success     bool                  `json:"success"`
	Message     string                `json:"message"`
	ExecutionID string                `json:"execution_id"`
	Variables   map[string]any        `json:"variables"`
	Tasks       map[string]TaskResult `json:"tasks"`
}
