package models

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildWorkflow(t *testing.T, names ...string) *Workflow {
	t.Helper()

	workflow := NewWorkflow("test workflow")
	for _, name := range names {
		task := NewTask(name, TaskKindScript)
		task.ID = name
		require.NoError(t, workflow.AddTask(task))
	}

	return workflow
}

func connect(t *testing.T, w *Workflow, source, target string, connType ConnectionType) {
	t.Helper()
	require.NoError(t, w.AddConnection(&Connection{
		SourceID: source,
		TargetID: target,
		Type:     connType,
	}))
}

func TestWorkflow_AddTask_RejectsDuplicateID(t *testing.T) {
	workflow := buildWorkflow(t, "a")

	dup := NewTask("other", TaskKindScript)
	dup.ID = "a"

	err := workflow.AddTask(dup)
	assert.Error(t, err)
	assert.Len(t, workflow.Tasks, 1)
}

func TestWorkflow_RemoveTask_CascadesConnections(t *testing.T) {
	workflow := buildWorkflow(t, "a", "b", "c")
	connect(t, workflow, "a", "b", ConnectionNormal)
	connect(t, workflow, "b", "c", ConnectionOnSuccess)

	workflow.RemoveTask("b")

	assert.Nil(t, workflow.TaskByID("b"))
	assert.Empty(t, workflow.Connections)
}

func TestWorkflow_AddConnection_RequiresExistingEndpoints(t *testing.T) {
	workflow := buildWorkflow(t, "a")

	err := workflow.AddConnection(&Connection{SourceID: "a", TargetID: "ghost"})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestWorkflow_AddConnection_RejectsDuplicateEdge(t *testing.T) {
	workflow := buildWorkflow(t, "a", "b")
	connect(t, workflow, "a", "b", ConnectionNormal)

	err := workflow.AddConnection(&Connection{SourceID: "a", TargetID: "b", Type: ConnectionOnFailure})
	assert.ErrorIs(t, err, ErrConnectionExists)
}

func TestWorkflow_InsertTaskAfter_PreservesEdgeTypes(t *testing.T) {
	workflow := buildWorkflow(t, "a", "b", "c")
	connect(t, workflow, "a", "b", ConnectionNormal)
	connect(t, workflow, "a", "c", ConnectionOnFailure)

	inserted := NewTask("inserted", TaskKindScript)
	inserted.ID = "t"
	require.NoError(t, workflow.InsertTaskAfter(inserted, "a"))

	require.Len(t, workflow.Connections, 3)

	byPair := make(map[string]*Connection)
	for _, conn := range workflow.Connections {
		byPair[conn.SourceID+">"+conn.TargetID] = conn
	}

	require.Contains(t, byPair, "a>t")
	assert.Equal(t, ConnectionNormal, byPair["a>t"].Type)

	require.Contains(t, byPair, "t>b")
	assert.Equal(t, ConnectionNormal, byPair["t>b"].Type)

	require.Contains(t, byPair, "t>c")
	assert.Equal(t, ConnectionOnFailure, byPair["t>c"].Type)
}

func TestWorkflow_InsertTaskAfter_NoOutgoingEdges(t *testing.T) {
	workflow := buildWorkflow(t, "a")

	inserted := NewTask("inserted", TaskKindScript)
	inserted.ID = "t"
	require.NoError(t, workflow.InsertTaskAfter(inserted, "a"))

	require.Len(t, workflow.Connections, 1)
	assert.True(t, workflow.Connections[0].Matches("a", "t"))
	assert.Equal(t, ConnectionNormal, workflow.Connections[0].Type)
}

func TestWorkflow_StartingTasks(t *testing.T) {
	workflow := buildWorkflow(t, "a", "b", "c")
	connect(t, workflow, "a", "b", ConnectionNormal)

	starting := workflow.StartingTasks()

	ids := make([]string, 0, len(starting))
	for _, task := range starting {
		ids = append(ids, task.ID)
	}

	assert.ElementsMatch(t, []string{"a", "c"}, ids)
}

func TestWorkflow_PredecessorsAndSuccessors(t *testing.T) {
	workflow := buildWorkflow(t, "a", "b", "c")
	connect(t, workflow, "a", "c", ConnectionOnSuccess)
	connect(t, workflow, "b", "c", ConnectionNormal)

	preds := workflow.Predecessors("c")
	assert.Len(t, preds, 2)

	successors := workflow.Successors("a", ConnectionOnSuccess)
	require.Len(t, successors, 1)
	assert.Equal(t, "c", successors[0].ID)

	assert.Empty(t, workflow.Successors("a", ConnectionOnFailure))
}

func TestWorkflow_ValidateGraph_DetectsCycle(t *testing.T) {
	workflow := buildWorkflow(t, "a", "b")
	connect(t, workflow, "a", "b", ConnectionNormal)
	connect(t, workflow, "b", "a", ConnectionNormal)

	assert.ErrorIs(t, workflow.ValidateGraph(), ErrCyclicGraph)
}

func TestWorkflow_ValidateGraph_AcceptsDAG(t *testing.T) {
	workflow := buildWorkflow(t, "a", "b", "c")
	connect(t, workflow, "a", "b", ConnectionNormal)
	connect(t, workflow, "a", "c", ConnectionNormal)
	connect(t, workflow, "b", "c", ConnectionNormal)

	assert.NoError(t, workflow.ValidateGraph())
}

func TestWorkflow_Validation_MissingName(t *testing.T) {
	workflow := NewWorkflow("ok name")
	workflow.Name = ""

	validate := validator.New()
	assert.Error(t, validate.Struct(workflow))
}

func TestExecution_CopiesSeedVariables(t *testing.T) {
	workflow := NewWorkflow("vars")
	workflow.Variables["region"] = "us-east"

	execution := NewExecution(workflow)
	execution.SetVariable("region", "eu-west")

	assert.Equal(t, "us-east", workflow.Variables["region"])
	assert.Equal(t, "eu-west", execution.VariableString("region"))
	assert.Equal(t, "", execution.VariableString("missing"))
}

func TestValidateWorkflowDocument(t *testing.T) {
	valid := map[string]any{
		"name": "provision vlan",
		"tasks": []any{
			map[string]any{"id": "t1", "name": "set vlan", "kind": "set_variable"},
		},
		"connections": []any{},
	}
	assert.NoError(t, ValidateWorkflowDocument(valid))

	var decoded map[string]any

	require.NoError(t, json.Unmarshal([]byte(`{"name":"x"}`), &decoded))
	assert.Error(t, ValidateWorkflowDocument(decoded), "name below min length")

	invalidKind := map[string]any{
		"name": "provision vlan",
		"tasks": []any{
			map[string]any{"id": "t1", "name": "boom", "kind": "explode"},
		},
	}
	assert.Error(t, ValidateWorkflowDocument(invalidKind))
}
