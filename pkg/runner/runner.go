// Package runner schedules workflow task graphs: dependency-ordered
// traversal, per-kind task dispatch, connection eligibility, and the worker
// pool carrying concurrent runs.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/netforgehq/netforge/pkg/classifier"
	"github.com/netforgehq/netforge/pkg/condition"
	"github.com/netforgehq/netforge/pkg/device"
	"github.com/netforgehq/netforge/pkg/eventbus"
	"github.com/netforgehq/netforge/pkg/events"
	"github.com/netforgehq/netforge/pkg/models"
	"github.com/netforgehq/netforge/pkg/parsing"
	"github.com/netforgehq/netforge/pkg/template"
)

// DefaultPoolSize is the number of workers serving asynchronous runs.
const DefaultPoolSize = 10

var (
	// ErrNoStartingTasks indicates every task has an incoming connection.
	ErrNoStartingTasks = errors.New("no starting tasks found")

	// ErrRunCancelled indicates the run was cancelled between tasks.
	ErrRunCancelled = errors.New("run cancelled")

	// ErrRunnerClosed indicates the worker pool no longer accepts runs.
	ErrRunnerClosed = errors.New("runner closed")
)

// Runner executes workflows. One Runner serves many concurrent runs; each
// run executes its worklist sequentially within a single worker.
type Runner struct {
	devices   device.Executor
	templates template.Store
	parser    *parsing.Engine
	scorer    *classifier.Classifier
	evaluator *condition.Evaluator
	publisher eventbus.EventPublisher
	logger    *slog.Logger

	poolSize  int
	startPool sync.Once
	jobs      chan *Handle
	closed    atomic.Bool
	wg        sync.WaitGroup
}

// Option configures a Runner.
type Option func(*Runner)

// WithPoolSize overrides the worker pool size for asynchronous runs.
func WithPoolSize(size int) Option {
	return func(r *Runner) {
		if size > 0 {
			r.poolSize = size
		}
	}
}

// WithPublisher attaches a lifecycle event publisher.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(r *Runner) { r.publisher = publisher }
}

// NewRunner wires a runner from its collaborators. templates may be nil
// when no templated-command tasks are expected; publisher is optional.
func NewRunner(
	devices device.Executor,
	templates template.Store,
	parser *parsing.Engine,
	scorer *classifier.Classifier,
	logger *slog.Logger,
	opts ...Option,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}

	runner := &Runner{
		devices:   devices,
		templates: templates,
		parser:    parser,
		scorer:    scorer,
		evaluator: condition.NewEvaluator(scorer, classifier.IsStatusVariable),
		logger:    logger.With("module", "runner"),
		poolSize:  DefaultPoolSize,
	}

	for _, opt := range opts {
		opt(runner)
	}

	runner.jobs = make(chan *Handle, runner.poolSize)

	return runner
}

// Handle tracks one asynchronous run. ExecutionID is assigned at submit
// time, before the run starts.
type Handle struct {
	ExecutionID string

	ctx       context.Context
	workflow  *models.Workflow
	execution *models.Execution
	done      chan struct{}
	result    *models.ExecutionResult
	cancelled atomic.Bool
}

// Cancel requests best-effort cancellation: a pending run never starts and
// a running one stops before its next task. A command already inside the
// device collaborator cannot be interrupted.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
}

// Wait blocks until the run finishes or ctx expires.
func (h *Handle) Wait(ctx context.Context) (*models.ExecutionResult, error) {
	select {
	case <-h.done:
		return h.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done exposes completion for select loops.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Run executes a workflow synchronously and returns its result. Structural
// problems (no starting task, cyclic graph) surface as a failed result.
func (r *Runner) Run(ctx context.Context, workflow *models.Workflow) *models.ExecutionResult {
	handle := newHandle(ctx, workflow)

	r.execute(handle)

	return handle.result
}

func newHandle(ctx context.Context, workflow *models.Workflow) *Handle {
	execution := models.NewExecution(workflow)

	return &Handle{
		ExecutionID: execution.ID,
		ctx:         ctx,
		workflow:    workflow,
		execution:   execution,
		done:        make(chan struct{}),
	}
}

// RunAsync submits a workflow to the worker pool without blocking the
// caller. The handle exposes the same result shape as Run.
func (r *Runner) RunAsync(ctx context.Context, workflow *models.Workflow) (*Handle, error) {
	if r.closed.Load() {
		return nil, ErrRunnerClosed
	}

	r.startPool.Do(func() {
		for range r.poolSize {
			r.wg.Add(1)

			go r.worker()
		}
	})

	handle := newHandle(ctx, workflow)

	select {
	case r.jobs <- handle:
		return handle, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting runs and waits for in-flight ones to finish.
func (r *Runner) Close() {
	if r.closed.CompareAndSwap(false, true) {
		close(r.jobs)
		r.wg.Wait()
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()

	for handle := range r.jobs {
		r.execute(handle)
	}
}

// execute drives one run to completion, recovering run-level panics into a
// failed result.
func (r *Runner) execute(handle *Handle) {
	defer close(handle.done)

	workflow := handle.workflow
	execution := handle.execution

	logger := r.logger.With("workflow_id", workflow.ID, "execution_id", execution.ID)

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("run panicked", "panic", recovered)

			workflow.Status = models.WorkflowStatusFailed
			handle.result = r.buildResult(workflow, execution, false,
				fmt.Sprintf("execution error: %v", recovered))
		}
	}()

	if handle.cancelled.Load() {
		handle.result = r.buildResult(workflow, execution, false, ErrRunCancelled.Error())

		return
	}

	logger.Info("starting workflow execution", "name", workflow.Name)
	r.publish(handle.ctx, &events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, workflow.ID),
		ExecutionID: execution.ID,
		Variables:   execution.Variables,
	})

	workflow.Status = models.WorkflowStatusRunning

	message, success := r.runGraph(handle, execution, logger)

	if success {
		workflow.Status = models.WorkflowStatusCompleted

		r.publish(handle.ctx, &events.ExecutionCompleted{
			BaseEvent:   events.NewBaseEvent(events.ExecutionCompletedEvent, workflow.ID),
			ExecutionID: execution.ID,
			Message:     message,
		})
	} else {
		workflow.Status = models.WorkflowStatusFailed

		r.publish(handle.ctx, &events.ExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, workflow.ID),
			ExecutionID: execution.ID,
			Message:     message,
		})
	}

	logger.Info("workflow execution finished", "success", success, "message", message)

	handle.result = r.buildResult(workflow, execution, success, message)
}

// runGraph schedules the task graph with an in-degree counter per task: a
// task dispatches exactly once, after its last pending predecessor reaches
// a terminal state. Cyclic graphs are rejected up front.
func (r *Runner) runGraph(handle *Handle, execution *models.Execution, logger *slog.Logger) (string, bool) {
	workflow := handle.workflow

	if err := workflow.ValidateGraph(); err != nil {
		return fmt.Sprintf("invalid workflow graph: %v", err), false
	}

	starting := workflow.StartingTasks()
	if len(starting) == 0 {
		return ErrNoStartingTasks.Error(), false
	}

	remaining := make(map[string]int, len(workflow.Tasks))
	for _, conn := range workflow.Connections {
		remaining[conn.TargetID]++
	}

	eligible := make(map[string]bool, len(workflow.Tasks))
	terminal := make(map[string]bool, len(workflow.Tasks))

	ready := make([]*models.Task, 0, len(starting))
	ready = append(ready, starting...)

	// skip marks a task skipped and releases its successors without
	// granting them eligibility.
	var skip func(task *models.Task)

	resolve := func(target string, elig bool) []*models.Task {
		if elig {
			eligible[target] = true
		}

		remaining[target]--
		if remaining[target] > 0 {
			return nil
		}

		task := workflow.TaskByID(target)
		if task == nil || terminal[target] {
			return nil
		}

		if eligible[target] {
			return []*models.Task{task}
		}

		skip(task)

		return nil
	}

	skip = func(task *models.Task) {
		task.Status = models.TaskStatusSkipped
		terminal[task.ID] = true

		for _, conn := range workflow.OutgoingConnections(task.ID) {
			ready = append(ready, resolve(conn.TargetID, false)...)
		}
	}

	for len(ready) > 0 {
		task := ready[0]
		ready = ready[1:]

		if terminal[task.ID] {
			continue
		}

		if handle.cancelled.Load() || handle.ctx.Err() != nil {
			return ErrRunCancelled.Error(), false
		}

		success := r.executeTask(handle.ctx, execution, task, logger)
		terminal[task.ID] = true

		if !success && task.Critical() {
			r.skipPending(workflow, terminal)

			return "critical task failed: " + task.Name, false
		}

		for _, conn := range workflow.OutgoingConnections(task.ID) {
			ready = append(ready, resolve(conn.TargetID, r.connectionEligible(conn, success, execution, logger))...)
		}
	}

	r.skipPending(workflow, terminal)

	return "workflow completed successfully", true
}

// connectionEligible decides whether an outgoing connection fires given the
// source task's outcome.
func (r *Runner) connectionEligible(conn *models.Connection, success bool, execution *models.Execution, logger *slog.Logger) bool {
	switch conn.Type {
	case models.ConnectionNormal:
		return true
	case models.ConnectionOnSuccess:
		return success
	case models.ConnectionOnFailure:
		return !success
	case models.ConnectionConditional:
		if conn.Condition == "" {
			return true
		}

		result, err := r.evaluator.Evaluate(conn.Condition, execution)
		if err != nil {
			logger.Warn("conditional connection expression invalid, treating as not eligible",
				"source", conn.SourceID, "target", conn.TargetID, "error", err)

			return false
		}

		return result
	default:
		return false
	}
}

// skipPending marks every task that never reached a terminal state Skipped.
func (r *Runner) skipPending(workflow *models.Workflow, terminal map[string]bool) {
	for _, task := range workflow.Tasks {
		if !terminal[task.ID] {
			task.Status = models.TaskStatusSkipped
		}
	}
}

func (r *Runner) buildResult(workflow *models.Workflow, execution *models.Execution, success bool, message string) *models.ExecutionResult {
	tasks := make(map[string]models.TaskResult, len(workflow.Tasks))
	for _, task := range workflow.Tasks {
		tasks[task.ID] = models.TaskResult{
			TaskID: task.ID,
			Name:   task.Name,
			Status: task.Status,
			Output: task.Output,
			Error:  task.Error,
		}
	}

	variables := make(map[string]any, len(execution.Variables))
	for name, value := range execution.Variables {
		variables[name] = value
	}

	return &models.ExecutionResult{
		Success:     success,
		Message:     message,
		ExecutionID: execution.ID,
		Variables:   variables,
		Tasks:       tasks,
	}
}

func (r *Runner) publish(ctx context.Context, event eventbus.Event) {
	if r.publisher == nil {
		return
	}

	if err := r.publisher.Publish(ctx, string(event.GetType()), event); err != nil {
		r.logger.Warn("failed to publish lifecycle event", "type", event.GetType(), "error", err)
	}
}
