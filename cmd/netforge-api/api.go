// Package main provides the NetForge API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/netforgehq/netforge/pkg/classifier"
	"github.com/netforgehq/netforge/pkg/device"
	"github.com/netforgehq/netforge/pkg/eventbus"
	"github.com/netforgehq/netforge/pkg/parsing"
	"github.com/netforgehq/netforge/pkg/persistence"
	"github.com/netforgehq/netforge/pkg/runner"
	"github.com/netforgehq/netforge/pkg/runs"
	"github.com/netforgehq/netforge/pkg/services"
	"github.com/netforgehq/netforge/pkg/template"
	"github.com/netforgehq/netforge/pkg/web"
)

// Config carries the collaborators and executor settings for the API.
type Config struct {
	Logger              *slog.Logger
	Persistence         persistence.Persistence
	EventBus            eventbus.EventBus
	RunsRegistry        runs.Registry
	ExecutorInterpreter string
	ExecutorScript      string
	ExecutorWorkDir     string
}

type API struct {
	logger   *slog.Logger
	runner   *runner.Runner
	handlers *web.APIHandlers
	workflow *services.Workflow
}

// NewAPI wires the engine and its services: built-in templates are
// registered, persisted templates are loaded on top, and the runner gets
// the script-based device executor.
func NewAPI(ctx context.Context, cfg Config) (*API, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

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

	workflowService := services.NewWorkflow(cfg.Persistence, validate)
	executionService := services.NewExecution(engine, cfg.Persistence, cfg.RunsRegistry, cfg.Logger)
	templateService := services.NewTemplates(cfg.Persistence, configStore, parsingStore, validate)

	if err := templateService.SyncFromStorage(ctx); err != nil {
		return nil, err
	}

	return &API{
		logger:   cfg.Logger,
		runner:   engine,
		handlers: web.NewAPIHandlers(workflowService, executionService, templateService, validate),
		workflow: workflowService,
	}, nil
}

func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("NetForge API")
	})

	w := app.Group("/workflows")
	w.Get("/", a.handlers.GetWorkflows)
	w.Post("/", a.handlers.CreateWorkflow)
	w.Get("/:id", a.handlers.GetWorkflow)
	w.Put("/:id", a.handlers.UpdateWorkflow)
	w.Delete("/:id", a.handlers.DeleteWorkflow)
	w.Post("/:id/execute", a.handlers.ExecuteWorkflow)

	e := app.Group("/executions")
	e.Get("/", a.handlers.GetExecutions)
	e.Get("/:id", a.handlers.GetExecution)
	e.Delete("/:id", a.handlers.CancelExecution)

	t := app.Group("/templates")
	t.Get("/", a.handlers.GetConfigTemplates)
	t.Post("/", a.handlers.CreateConfigTemplate)
	t.Get("/:id", a.handlers.GetConfigTemplate)
	t.Put("/:id", a.handlers.UpdateConfigTemplate)
	t.Delete("/:id", a.handlers.DeleteConfigTemplate)
	t.Post("/:id/render", a.handlers.RenderConfigTemplate)

	p := app.Group("/parsing-templates")
	p.Get("/", a.handlers.GetParsingTemplates)
	p.Post("/", a.handlers.CreateParsingTemplate)
	p.Get("/:id", a.handlers.GetParsingTemplate)
	p.Put("/:id", a.handlers.UpdateParsingTemplate)
	p.Delete("/:id", a.handlers.DeleteParsingTemplate)

	app.Get("/health", a.handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}

// Shutdown drains the runner's worker pool.
func (a *API) Shutdown() {
	a.runner.Close()
}
