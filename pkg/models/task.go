// Package models defines the core domain models for network workflow automation
package models

import (
	"github.com/google/uuid"
)

// TaskKind selects the handler that executes a task.
type TaskKind string

const (
	TaskKindDeviceCommand    TaskKind = "device_command"    // Raw commands sent to a device
	TaskKindTemplatedCommand TaskKind = "templated_command" // Commands rendered from a config template
	TaskKindSetVariable      TaskKind = "set_variable"      // Writes a value into the execution variables
	TaskKindCondition        TaskKind = "condition"         // Branches on a condition expression
	TaskKindScript           TaskKind = "script"            // Placeholder, always succeeds
)

// TaskStatus defines the possible states of a task execution.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusSkipped   TaskStatus = "skipped"
)

// Task represents a single executable step in a workflow graph.
type Task struct {
	ID         string         `json:"id"         validate:"required"`
	Name       string         `json:"name"       validate:"required,min=1"`
	Kind       TaskKind       `json:"kind"       validate:"required"`
	Parameters map[string]any `json:"parameters"`
	TemplateID string         `json:"template_id,omitempty"` // For templated_command tasks
	Status     TaskStatus     `json:"status"`
	Output     string         `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	PositionX  int            `json:"position_x"` // Canvas placement, ignored by the engine
	PositionY  int            `json:"position_y"`
}

// NewTask creates a pending task with a generated ID.
func NewTask(name string, kind TaskKind) *Task {
	return &Task{
		ID:         uuid.New().String(),
		Name:       name,
		Kind:       kind,
		Parameters: make(map[string]any),
		Status:     TaskStatusPending,
	}
}

// Parameter returns a named task parameter, nil if absent.
func (t *Task) Parameter(key string) any {
	if t.Parameters == nil {
		return nil
	}

	return t.Parameters[key]
}

// StringParameter returns a named parameter as its string form, "" if absent
// or not a string.
func (t *Task) StringParameter(key string) string {
	value, ok := t.Parameter(key).(string)
	if !ok {
		return ""
	}

	return value
}

// Critical reports whether a failure of this task aborts the whole run.
func (t *Task) Critical() bool {
	critical, ok := t.Parameter("critical").(bool)

	return ok && critical
}
