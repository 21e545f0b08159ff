package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/netforgehq/netforge/pkg/cmd"
	"github.com/netforgehq/netforge/pkg/log"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "netforge-api",
		Usage:                 "Create, manage, and execute network automation workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL (postgres://... or a file root)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (kafka, memory)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "runs-registry",
				Usage:   "Run registry URL (redis://host:port or memory)",
				Value:   "memory",
				Sources: cli.EnvVars("RUNS_REGISTRY_URL"),
			},
			&cli.StringFlag{
				Name:    "executor-interpreter",
				Usage:   "Interpreter for the device executor script",
				Value:   "python3",
				Sources: cli.EnvVars("EXECUTOR_INTERPRETER"),
			},
			&cli.StringFlag{
				Name:    "executor-script",
				Usage:   "Path to the device executor script",
				Value:   "./scripts/device_executor.py",
				Sources: cli.EnvVars("EXECUTOR_SCRIPT"),
			},
			&cli.StringFlag{
				Name:    "executor-workdir",
				Usage:   "Working directory for executor job files",
				Value:   os.TempDir(),
				Sources: cli.EnvVars("EXECUTOR_WORKDIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing NetForge API")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return fmt.Errorf("failed to initialize persistence: %w", err)
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return fmt.Errorf("failed to initialize event bus: %w", err)
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			registry, err := cmd.NewRunsRegistry(ctx, command.String("runs-registry"))
			if err != nil {
				return fmt.Errorf("failed to initialize runs registry: %w", err)
			}

			defer func() {
				if err := registry.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close runs registry", "error", err)
				}
			}()

			api, err := NewAPI(ctx, Config{
				Logger:              logger,
				Persistence:         persistence,
				EventBus:            eventBus,
				RunsRegistry:        registry,
				ExecutorInterpreter: command.String("executor-interpreter"),
				ExecutorScript:      command.String("executor-script"),
				ExecutorWorkDir:     command.String("executor-workdir"),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize API: %w", err)
			}

			defer api.Shutdown()

			return api.Start(command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("netforge-api exited with error", "error", err)
		os.Exit(1)
	}
}
