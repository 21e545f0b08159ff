// Package events defines event types for workflow execution lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/netforgehq/netforge/pkg/models"
)

type EventType string

// Topic carries every execution lifecycle event.
const Topic = "netforge.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionRequestedEvent EventType = "execution.requested"
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	TaskStartedEvent        EventType = "task.started"
	TaskFinishedEvent       EventType = "task.finished"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

func (e BaseEvent) GetType() EventType { return e.Type }

// NewBaseEvent stamps an event with identity and time.
func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now(),
		WorkflowID: workflowID,
	}
}

// ExecutionRequested asks a runner process to execute a stored workflow.
type ExecutionRequested struct {
	BaseEvent

	Variables map[string]any `json:"variables,omitempty"`
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	Variables   map[string]any `json:"variables,omitempty"`
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Message     string `json:"message"`
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Message     string `json:"message"`
}

type TaskStarted struct {
	BaseEvent

	ExecutionID string          `json:"execution_id"`
	TaskID      string          `json:"task_id"`
	TaskName    string          `json:"task_name"`
	TaskKind    models.TaskKind `json:"task_kind"`
}

type TaskFinished struct {
	BaseEvent

	ExecutionID string            `json:"execution_id"`
	TaskID      string            `json:"task_id"`
	TaskName    string            `json:"task_name"`
	Status      models.TaskStatus `json:"status"`
	Error       string            `json:"error,omitempty"`
}
