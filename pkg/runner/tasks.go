package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/netforgehq/netforge/pkg/classifier"
	"github.com/netforgehq/netforge/pkg/device"
	"github.com/netforgehq/netforge/pkg/events"
	"github.com/netforgehq/netforge/pkg/models"
	"github.com/netforgehq/netforge/pkg/template"
)

// executeTask dispatches a task to its kind handler and records the outcome
// on the task itself. Handler panics are contained per task.
func (r *Runner) executeTask(ctx context.Context, execution *models.Execution, task *models.Task, logger *slog.Logger) (success bool) {
	logger = logger.With("task_id", task.ID, "task_name", task.Name, "task_kind", task.Kind)
	logger.Info("executing task")

	task.Status = models.TaskStatusRunning

	r.publish(ctx, &events.TaskStarted{
		BaseEvent:   events.NewBaseEvent(events.TaskStartedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		TaskID:      task.ID,
		TaskName:    task.Name,
		TaskKind:    task.Kind,
	})

	defer func() {
		if recovered := recover(); recovered != nil {
			task.Error = fmt.Sprintf("task error: %v", recovered)
			success = false
		}

		if success {
			task.Status = models.TaskStatusCompleted

			logger.Info("task completed")
		} else {
			task.Status = models.TaskStatusFailed

			logger.Error("task failed", "error", task.Error)
		}

		r.publish(ctx, &events.TaskFinished{
			BaseEvent:   events.NewBaseEvent(events.TaskFinishedEvent, execution.WorkflowID),
			ExecutionID: execution.ID,
			TaskID:      task.ID,
			TaskName:    task.Name,
			Status:      task.Status,
			Error:       task.Error,
		})
	}()

	switch task.Kind {
	case models.TaskKindDeviceCommand:
		return r.executeDeviceCommand(ctx, execution, task, logger)
	case models.TaskKindTemplatedCommand:
		return r.executeTemplatedCommand(ctx, execution, task, logger)
	case models.TaskKindSetVariable:
		return r.executeSetVariable(execution, task)
	case models.TaskKindCondition:
		return r.executeCondition(execution, task)
	case models.TaskKindScript:
		// Deliberate no-op placeholder.
		task.Output = "script execution not implemented"

		return true
	default:
		task.Error = fmt.Sprintf("unknown task kind %q", task.Kind)

		return false
	}
}

// executeDeviceCommand substitutes variables into the raw command text and
// sends it to the device collaborator.
func (r *Runner) executeDeviceCommand(ctx context.Context, execution *models.Execution, task *models.Task, logger *slog.Logger) bool {
	commands := task.StringParameter("commands")
	if strings.TrimSpace(commands) == "" {
		task.Error = "no commands specified"

		return false
	}

	commands = template.Substitute(commands, execution.Variables)

	return r.sendToDevice(ctx, execution, task, commands, logger)
}

// executeTemplatedCommand resolves the named config template, validates its
// required parameters against the merged task + execution values, renders
// the body, and proceeds as a device command. Missing template or missing
// required parameters fail without contacting the device.
func (r *Runner) executeTemplatedCommand(ctx context.Context, execution *models.Execution, task *models.Task, logger *slog.Logger) bool {
	templateID := task.TemplateID
	if templateID == "" {
		templateID = task.StringParameter("template_id")
	}

	if templateID == "" {
		task.Error = "no template specified"

		return false
	}

	if r.templates == nil {
		task.Error = "template store not configured"

		return false
	}

	tmpl, err := r.templates.Template(templateID)
	if err != nil {
		task.Error = fmt.Sprintf("template %s not found", templateID)

		return false
	}

	// Execution variables take precedence over task parameters.
	merged := make(map[string]any, len(task.Parameters)+len(execution.Variables))
	for key, value := range task.Parameters {
		merged[key] = value
	}

	for key, value := range execution.Variables {
		merged[key] = value
	}

	if missing := tmpl.MissingParameters(merged); len(missing) > 0 {
		task.Error = "missing required parameters: " + strings.Join(missing, ", ")

		return false
	}

	return r.sendToDevice(ctx, execution, task, tmpl.Render(merged), logger)
}

// sendToDevice performs the collaborator call shared by device and
// templated command tasks, then classifies and parses the raw output.
func (r *Runner) sendToDevice(ctx context.Context, execution *models.Execution, task *models.Task, commandText string, logger *slog.Logger) bool {
	params := connectionParams(task)

	callCtx, cancel := context.WithTimeout(ctx, params.Timeout)
	defer cancel()

	commands := splitCommands(commandText)

	result, err := r.devices.Execute(callCtx, params, commands)
	if err != nil {
		task.Error = fmt.Sprintf("device execution error: %v", err)

		return false
	}

	task.Output = result.RawOutput

	r.publishOutputVariables(execution, task, commandText, params.DeviceType, result.RawOutput, logger)

	if outputVar := task.StringParameter("output_variable"); outputVar != "" {
		execution.SetVariable(outputVar, result.RawOutput)
	}

	if !result.Success {
		task.Error = result.Message
	}

	return result.Success
}

// publishOutputVariables feeds the raw output through the classifier and
// the extraction engine and writes every derived variable into the
// execution context.
func (r *Runner) publishOutputVariables(execution *models.Execution, task *models.Task, commandText, deviceType, rawOutput string, logger *slog.Logger) {
	analysis := r.scorer.Analyze(classifier.Input{
		Output:     rawOutput,
		Command:    commandText,
		DeviceType: deviceType,
		TaskName:   task.Name,
		Parameters: task.Parameters,
	})

	for name, value := range analysis.Variables {
		execution.SetVariable(name, value)
	}

	if r.parser != nil {
		extracted := r.parser.ParseOutput(commandText, rawOutput, deviceType)
		for name, value := range extracted {
			execution.SetVariable(name, value)
		}

		logger.Debug("published output variables",
			"classified", len(analysis.Variables), "extracted", len(extracted))
	}
}

// executeSetVariable stores a substituted value under the named variable.
func (r *Runner) executeSetVariable(execution *models.Execution, task *models.Task) bool {
	name := task.StringParameter("variable_name")
	if name == "" {
		task.Error = "variable name not specified"

		return false
	}

	value := task.Parameter("variable_value")
	if text, ok := value.(string); ok {
		value = template.Substitute(text, execution.Variables)
	}

	execution.SetVariable(name, value)
	task.Output = fmt.Sprintf("variable set: %s = %v", name, value)

	return true
}

// executeCondition evaluates the task's expression; the boolean result is
// the task's outcome.
func (r *Runner) executeCondition(execution *models.Execution, task *models.Task) bool {
	expression := task.StringParameter("condition")
	if expression == "" {
		task.Error = "no condition specified"

		return false
	}

	result, err := r.evaluator.Evaluate(expression, execution)
	if err != nil {
		task.Error = fmt.Sprintf("condition evaluation error: %v", err)

		return false
	}

	task.Output = fmt.Sprintf("condition result: %t", result)

	return result
}

// connectionParams builds the device connection descriptor from task
// parameters, applying the default port and timeout.
func connectionParams(task *models.Task) device.ConnectionParams {
	params := device.ConnectionParams{
		DeviceType: task.StringParameter("device_type"),
		Host:       task.StringParameter("host"),
		Username:   task.StringParameter("username"),
		Password:   task.StringParameter("password"),
		Secret:     task.StringParameter("secret"),
	}

	if port, ok := numericParameter(task, "port"); ok {
		params.Port = port
	}

	if seconds, ok := numericParameter(task, "timeout"); ok {
		params.Timeout = time.Duration(seconds) * time.Second
	}

	return params.WithDefaults()
}

// numericParameter reads an int-valued parameter that may arrive as an int
// or, after JSON decoding, a float64.
func numericParameter(task *models.Task, key string) (int, bool) {
	switch value := task.Parameter(key).(type) {
	case int:
		return value, true
	case float64:
		return int(value), true
	default:
		return 0, false
	}
}

func splitCommands(text string) []string {
	var commands []string

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			commands = append(commands, trimmed)
		}
	}

	return commands
}
