package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netforgehq/netforge/pkg/models"
)

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent(ExecutionStartedEvent, "wf-123")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, ExecutionStartedEvent, event.Type)
	assert.Equal(t, "wf-123", event.WorkflowID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, ExecutionStartedEvent, event.GetType())
}

func TestBaseEventIDsAreUnique(t *testing.T) {
	first := NewBaseEvent(TaskStartedEvent, "wf-1")
	second := NewBaseEvent(TaskStartedEvent, "wf-1")

	assert.NotEqual(t, first.ID, second.ID)
}

func TestExecutionRequestedRoundTrip(t *testing.T) {
	event := ExecutionRequested{
		BaseEvent: NewBaseEvent(ExecutionRequestedEvent, "wf-42"),
		Variables: map[string]any{"vlan_id": "200"},
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded ExecutionRequested
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, "wf-42", decoded.WorkflowID)
	assert.Equal(t, "200", decoded.Variables["vlan_id"])
}

func TestTaskFinishedOmitsEmptyError(t *testing.T) {
	event := TaskFinished{
		BaseEvent:   NewBaseEvent(TaskFinishedEvent, "wf-9"),
		ExecutionID: "exec-1",
		TaskID:      "task-1",
		TaskName:    "verify interface",
		Status:      models.TaskStatusCompleted,
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), `"error"`)
}
