package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/netforgehq/netforge/pkg/cmd"
	"github.com/netforgehq/netforge/pkg/log"
)

func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Database connection URL (postgres://... or a file root)",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
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
	}
}

func workerCommand() *cli.Command {
	flags := append(sharedFlags(),
		&cli.StringFlag{
			Name:    "runner-id",
			Aliases: []string{"id"},
			Usage:   "Custom runner ID (auto-generated if not provided)",
			Value:   "",
			Sources: cli.EnvVars("RUNNER_ID"),
		},
		&cli.StringFlag{
			Name:     "event-bus",
			Usage:    "Event bus provider (kafka, memory)",
			Required: true,
			Sources:  cli.EnvVars("EVENT_BUS_TYPE"),
		},
	)

	return &cli.Command{
		Name:  "worker",
		Usage: "Consume execution requests from the event bus and run them",
		Flags: flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			runnerID := command.String("runner-id")
			if runnerID == "" {
				runnerID = "runner-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("runner").With("runner_id", runnerID)

			logger.InfoContext(ctx, "Initializing NetForge runner")

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

			worker, err := NewRunnerWorker(ctx, RunnerConfig{
				ID:                  runnerID,
				Logger:              logger,
				Persistence:         persistence,
				EventBus:            eventBus,
				RunsRegistry:        registry,
				ExecutorInterpreter: command.String("executor-interpreter"),
				ExecutorScript:      command.String("executor-script"),
				ExecutorWorkDir:     command.String("executor-workdir"),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize runner worker: %w", err)
			}

			defer worker.Shutdown()

			return worker.Start(ctx)
		},
	}
}

func runCommand() *cli.Command {
	flags := append(sharedFlags(),
		&cli.StringFlag{
			Name:     "workflow-id",
			Aliases:  []string{"w"},
			Usage:    "ID of the stored workflow to execute",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:    "var",
			Usage:   "Override a workflow variable (name=value, repeatable)",
			Aliases: []string{"v"},
		},
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Execute one stored workflow and print the result as JSON",
		Flags: flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("runner")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return fmt.Errorf("failed to initialize persistence: %w", err)
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
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

			variables, err := parseVariables(command.StringSlice("var"))
			if err != nil {
				return err
			}

			worker, err := NewRunnerWorker(ctx, RunnerConfig{
				ID:                  "runner-oneshot",
				Logger:              logger,
				Persistence:         persistence,
				RunsRegistry:        registry,
				ExecutorInterpreter: command.String("executor-interpreter"),
				ExecutorScript:      command.String("executor-script"),
				ExecutorWorkDir:     command.String("executor-workdir"),
			})
			if err != nil {
				return fmt.Errorf("failed to initialize runner: %w", err)
			}

			defer worker.Shutdown()

			result, err := worker.executions.Execute(ctx, command.String("workflow-id"), variables)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(encoded))

			if !result.Success {
				return fmt.Errorf("workflow execution failed: %s", result.Message)
			}

			return nil
		},
	}
}

// parseVariables turns repeated name=value flags into a variable map.
func parseVariables(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	variables := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q, expected name=value", pair)
		}

		variables[name] = value
	}

	return variables, nil
}

func main() {
	logger := log.WithModule("runner")

	command := &cli.Command{
		Name:                  "netforge-runner",
		Usage:                 "Execute network automation workflows",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			workerCommand(),
			runCommand(),
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("netforge-runner exited with error", "error", err)
		os.Exit(1)
	}
}
