package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/netforgehq/netforge/pkg/classifier"
	"github.com/netforgehq/netforge/pkg/device"
	"github.com/netforgehq/netforge/pkg/eventbus"
	"github.com/netforgehq/netforge/pkg/events"
	"github.com/netforgehq/netforge/pkg/otelhelper"
	"github.com/netforgehq/netforge/pkg/parsing"
	"github.com/netforgehq/netforge/pkg/persistence"
	"github.com/netforgehq/netforge/pkg/runner"
	"github.com/netforgehq/netforge/pkg/runs"
	"github.com/netforgehq/netforge/pkg/services"
	"github.com/netforgehq/netforge/pkg/template"
)

// RunnerConfig carries the collaborators and executor settings for a
// runner worker.
type RunnerConfig struct {
	ID                  string
	Logger              *slog.Logger
	Persistence         persistence.Persistence
	EventBus            eventbus.EventBus
	RunsRegistry        runs.Registry
	ExecutorInterpreter string
	ExecutorScript      string
	ExecutorWorkDir     string
}

// RunnerWorker consumes execution requests from the event bus and runs
// the referenced workflows.
type RunnerWorker struct {
	id         string
	logger     *slog.Logger
	engine     *runner.Runner
	executions *services.Execution
	eventBus   eventbus.EventBus
	tracer     trace.Tracer
}

func NewRunnerWorker(ctx context.Context, cfg RunnerConfig) (*RunnerWorker, error) {
	tracer, err := otelhelper.NewTracer(ctx, "netforge-runner")
	if err != nil {
		return nil, err
	}

	configStore := template.NewMemoryStore()
	template.RegisterBuiltinTemplates(configStore)

	parsingStore := parsing.NewStore()
	parsing.RegisterBuiltinTemplates(parsingStore)

	executor := device.NewScriptExecutor(
		cfg.ExecutorInterpreter,
		cfg.ExecutorScript,
		cfg.ExecutorWorkDir,
		cfg.Logger,
	)

	engine := runner.NewRunner(
		executor,
		configStore,
		parsing.NewEngine(parsingStore, cfg.Logger),
		classifier.New(cfg.Logger),
		cfg.Logger,
		runner.WithPublisher(cfg.EventBus),
	)

	validate := validator.New(validator.WithRequiredStructEnabled())

	templates := services.NewTemplates(cfg.Persistence, configStore, parsingStore, validate)
	if err := templates.SyncFromStorage(ctx); err != nil {
		return nil, err
	}

	return &RunnerWorker{
		id:         cfg.ID,
		logger:     cfg.Logger.With("module", "netforge-runner", "runner_id", cfg.ID),
		engine:     engine,
		executions: services.NewExecution(engine, cfg.Persistence, cfg.RunsRegistry, cfg.Logger),
		eventBus:   cfg.EventBus,
		tracer:     tracer,
	}, nil
}

// Start subscribes to execution requests and blocks until SIGINT or
// SIGTERM.
func (w *RunnerWorker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting runner worker")

	if err := w.eventBus.Handle(events.ExecutionRequestedEvent, w.handleExecutionRequested); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Runner worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down runner worker...")

	return nil
}

// Shutdown drains the engine's worker pool.
func (w *RunnerWorker) Shutdown() {
	w.engine.Close()
}

func (w *RunnerWorker) handleExecutionRequested(ctx context.Context, event any) error {
	requested, ok := event.(*events.ExecutionRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for ExecutionRequested")

		return nil
	}

	logger := w.logger.With(
		"workflow_id", requested.WorkflowID,
		"event_id", requested.ID,
	)
	logger.InfoContext(ctx, "Processing execution request")

	runCtx, span := otelhelper.StartSpan(ctx, w.tracer, "runner.execute",
		attribute.String(otelhelper.WorkflowIDKey, requested.WorkflowID),
		attribute.String(otelhelper.EventIDKey, requested.ID),
		attribute.String(otelhelper.WorkerIDKey, w.id),
	)
	defer span.End()

	result, err := w.executions.Execute(runCtx, requested.WorkflowID, requested.Variables)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to execute workflow", "error", err)
		otelhelper.SetError(span, err)

		return err
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, result.ExecutionID))

	if result.Success {
		logger.InfoContext(ctx, "Workflow execution completed",
			"execution_id", result.ExecutionID)
	} else {
		logger.WarnContext(ctx, "Workflow execution failed",
			"execution_id", result.ExecutionID,
			"message", result.Message)
	}

	return nil
}
