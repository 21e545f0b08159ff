package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft     WorkflowStatus = "draft"
	WorkflowStatusReady     WorkflowStatus = "ready"
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusFailed    WorkflowStatus = "failed"
	WorkflowStatusPaused    WorkflowStatus = "paused"
)

var (
	// ErrTaskNotFound indicates a referenced task does not exist in the workflow.
	ErrTaskNotFound = errors.New("task not found")

	// ErrConnectionExists indicates an edge between the two tasks already exists.
	ErrConnectionExists = errors.New("connection already exists")

	// ErrConnectionNotFound indicates no edge joins the two tasks.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrCyclicGraph indicates the task graph contains a cycle.
	ErrCyclicGraph = errors.New("workflow graph contains a cycle")
)

// Workflow represents a directed task graph plus the variables seeding each
// execution. A workflow owns its tasks and connections exclusively.
type Workflow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Tasks       []*Task        `json:"tasks"`
	Connections []*Connection  `json:"connections"`
	Variables   map[string]any `json:"variables"`
	Status      WorkflowStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewWorkflow creates an empty draft workflow.
func NewWorkflow(name string) *Workflow {
	now := time.Now()

	return &Workflow{
		ID:          uuid.New().String(),
		Name:        name,
		Tasks:       make([]*Task, 0),
		Connections: make([]*Connection, 0),
		Variables:   make(map[string]any),
		Status:      WorkflowStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TaskByID returns the task with the given ID, nil if absent.
func (w *Workflow) TaskByID(taskID string) *Task {
	for _, task := range w.Tasks {
		if task.ID == taskID {
			return task
		}
	}

	return nil
}

// AddTask appends a task to the workflow. Task IDs must be unique within
// the workflow.
func (w *Workflow) AddTask(task *Task) error {
	if w.TaskByID(task.ID) != nil {
		return fmt.Errorf("task %s already present in workflow %s", task.ID, w.ID)
	}

	w.Tasks = append(w.Tasks, task)
	w.touch()

	return nil
}

// RemoveTask deletes a task and every connection referencing it.
func (w *Workflow) RemoveTask(taskID string) {
	tasks := w.Tasks[:0]

	for _, task := range w.Tasks {
		if task.ID != taskID {
			tasks = append(tasks, task)
		}
	}

	w.Tasks = tasks

	connections := w.Connections[:0]

	for _, conn := range w.Connections {
		if conn.SourceID != taskID && conn.TargetID != taskID {
			connections = append(connections, conn)
		}
	}

	w.Connections = connections
	w.touch()
}

// AddConnection adds an edge between two existing tasks. At most one edge
// may join a given source/target pair.
func (w *Workflow) AddConnection(conn *Connection) error {
	if w.TaskByID(conn.SourceID) == nil {
		return fmt.Errorf("source %s: %w", conn.SourceID, ErrTaskNotFound)
	}

	if w.TaskByID(conn.TargetID) == nil {
		return fmt.Errorf("target %s: %w", conn.TargetID, ErrTaskNotFound)
	}

	for _, existing := range w.Connections {
		if existing.Matches(conn.SourceID, conn.TargetID) {
			return fmt.Errorf("%s -> %s: %w", conn.SourceID, conn.TargetID, ErrConnectionExists)
		}
	}

	if conn.Type == "" {
		conn.Type = ConnectionNormal
	}

	w.Connections = append(w.Connections, conn)
	w.touch()

	return nil
}

// RemoveConnection deletes the edge joining source to target.
func (w *Workflow) RemoveConnection(sourceID, targetID string) error {
	for i, conn := range w.Connections {
		if conn.Matches(sourceID, targetID) {
			w.Connections = append(w.Connections[:i], w.Connections[i+1:]...)
			w.touch()

			return nil
		}
	}

	return fmt.Errorf("%s -> %s: %w", sourceID, targetID, ErrConnectionNotFound)
}

// InsertTaskAfter splices newTask into the graph directly after afterTaskID.
// Every outgoing edge afterTask -> X is replaced by newTask -> X keeping its
// original type and condition, and a single normal edge afterTask -> newTask
// is added in front. With no outgoing edges, only the normal edge is added.
func (w *Workflow) InsertTaskAfter(newTask *Task, afterTaskID string) error {
	if w.TaskByID(afterTaskID) == nil {
		return fmt.Errorf("task %s: %w", afterTaskID, ErrTaskNotFound)
	}

	if err := w.AddTask(newTask); err != nil {
		return err
	}

	var outgoing []*Connection

	remaining := w.Connections[:0]

	for _, conn := range w.Connections {
		if conn.SourceID == afterTaskID {
			outgoing = append(outgoing, conn)
		} else {
			remaining = append(remaining, conn)
		}
	}

	w.Connections = remaining

	for _, conn := range outgoing {
		if err := w.AddConnection(&Connection{
			SourceID:  newTask.ID,
			TargetID:  conn.TargetID,
			Type:      conn.Type,
			Condition: conn.Condition,
		}); err != nil {
			return err
		}
	}

	return w.AddConnection(&Connection{
		SourceID: afterTaskID,
		TargetID: newTask.ID,
		Type:     ConnectionNormal,
	})
}

// StartingTasks returns the tasks with no incoming connection of any type.
func (w *Workflow) StartingTasks() []*Task {
	hasPredecessor := make(map[string]bool, len(w.Connections))
	for _, conn := range w.Connections {
		hasPredecessor[conn.TargetID] = true
	}

	starting := make([]*Task, 0)

	for _, task := range w.Tasks {
		if !hasPredecessor[task.ID] {
			starting = append(starting, task)
		}
	}

	return starting
}

// Predecessors returns the tasks with an edge into taskID.
func (w *Workflow) Predecessors(taskID string) []*Task {
	var tasks []*Task

	for _, conn := range w.Connections {
		if conn.TargetID == taskID {
			if task := w.TaskByID(conn.SourceID); task != nil {
				tasks = append(tasks, task)
			}
		}
	}

	return tasks
}

// Successors returns the tasks reachable from taskID over edges of the given
// types. With no types given, edges of every type are followed.
func (w *Workflow) Successors(taskID string, viaTypes ...ConnectionType) []*Task {
	var tasks []*Task

	for _, conn := range w.Connections {
		if conn.SourceID != taskID {
			continue
		}

		if len(viaTypes) > 0 && !containsType(viaTypes, conn.Type) {
			continue
		}

		if task := w.TaskByID(conn.TargetID); task != nil {
			tasks = append(tasks, task)
		}
	}

	return tasks
}

// OutgoingConnections returns the edges leaving taskID.
func (w *Workflow) OutgoingConnections(taskID string) []*Connection {
	var conns []*Connection

	for _, conn := range w.Connections {
		if conn.SourceID == taskID {
			conns = append(conns, conn)
		}
	}

	return conns
}

// ValidateGraph checks structural integrity: every connection endpoint must
// reference an existing task and the graph must be acyclic. Uses Kahn's
// algorithm, so a non-empty remainder means a cycle.
func (w *Workflow) ValidateGraph() error {
	inDegree := make(map[string]int, len(w.Tasks))
	for _, task := range w.Tasks {
		inDegree[task.ID] = 0
	}

	for _, conn := range w.Connections {
		if _, ok := inDegree[conn.SourceID]; !ok {
			return fmt.Errorf("connection source %s: %w", conn.SourceID, ErrTaskNotFound)
		}

		if _, ok := inDegree[conn.TargetID]; !ok {
			return fmt.Errorf("connection target %s: %w", conn.TargetID, ErrTaskNotFound)
		}

		inDegree[conn.TargetID]++
	}

	queue := make([]string, 0, len(w.Tasks))

	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		visited++

		for _, conn := range w.Connections {
			if conn.SourceID != current {
				continue
			}

			inDegree[conn.TargetID]--
			if inDegree[conn.TargetID] == 0 {
				queue = append(queue, conn.TargetID)
			}
		}
	}

	if visited != len(w.Tasks) {
		return ErrCyclicGraph
	}

	return nil
}

func (w *Workflow) touch() {
	w.UpdatedAt = time.Now()
}

func containsType(types []ConnectionType, t ConnectionType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}

	return false
}

// Clone returns a deep copy so a run can mutate task and workflow state
// without touching the stored document.
func (w *Workflow) Clone() (*Workflow, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow %s: %w", w.ID, err)
	}

	clone := new(Workflow)
	if err := json.Unmarshal(data, clone); err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", w.ID, err)
	}

	return clone, nil
}
