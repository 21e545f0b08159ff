package device

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ScriptExecutor bridges to an external device-automation script. A job
// file with the connection descriptor and commands is written, the script
// is invoked with the job and result paths, and the result file is read
// back. The context deadline kills the whole process group; a killed call
// is a failed result, never a retry.
type ScriptExecutor struct {
	interpreter string
	scriptPath  string
	workDir     string
	logger      *slog.Logger
}

type scriptJob struct {
	Device   scriptDevice `json:"device"`
	Commands []string     `json:"commands"`
	TestOnly bool         `json:"test_only"`
}

type scriptDevice struct {
	DeviceType     string `json:"device_type"`
	Host           string `json:"host"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	Secret         string `json:"secret,omitempty"`
	Port           int    `json:"port"`
	TimeoutSeconds int    `json:"timeout"`
}

type scriptResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Output  string `json:"output"`
}

// NewScriptExecutor creates an executor invoking scriptPath through
// interpreter, exchanging job files under workDir.
func NewScriptExecutor(interpreter, scriptPath, workDir string, logger *slog.Logger) *ScriptExecutor {
	if logger == nil {
		logger = slog.Default()
	}

	if workDir == "" {
		workDir = os.TempDir()
	}

	return &ScriptExecutor{
		interpreter: interpreter,
		scriptPath:  scriptPath,
		workDir:     workDir,
		logger:      logger.With("module", "device_executor"),
	}
}

// Execute runs one command batch against the device described by params.
func (e *ScriptExecutor) Execute(ctx context.Context, params ConnectionParams, commands []string) (*Result, error) {
	params = params.WithDefaults()

	jobPath := filepath.Join(e.workDir, "job-"+uuid.New().String()[:8]+".json")
	resultPath := jobPath[:len(jobPath)-len(".json")] + "-result.json"

	defer func() {
		_ = os.Remove(jobPath)
		_ = os.Remove(resultPath)
	}()

	job := scriptJob{
		Device: scriptDevice{
			DeviceType:     params.DeviceType,
			Host:           params.Host,
			Username:       params.Username,
			Password:       params.Password,
			Secret:         params.Secret,
			Port:           params.Port,
			TimeoutSeconds: int(params.Timeout / time.Second),
		},
		Commands: commands,
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}

	if err := os.WriteFile(jobPath, payload, 0o600); err != nil {
		return nil, fmt.Errorf("write job file: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, params.Timeout)
	defer cancel()

	cmd := exec.CommandContext(callCtx, e.interpreter, e.scriptPath, jobPath, resultPath)

	combined, err := cmd.CombinedOutput()
	if callCtx.Err() == context.DeadlineExceeded {
		e.logger.Warn("device call timed out, process killed",
			"host", params.Host, "timeout", params.Timeout)

		return &Result{
			Success: false,
			Message: fmt.Sprintf("execution timeout after %s", params.Timeout),
		}, nil
	}

	if err != nil {
		return &Result{
			Success:   false,
			Message:   fmt.Sprintf("executor process failed: %v", err),
			RawOutput: string(combined),
		}, nil
	}

	return e.readResult(resultPath, string(combined))
}

// readResult parses the script's result file, falling back to the process
// output when the file is missing.
func (e *ScriptExecutor) readResult(resultPath, processOutput string) (*Result, error) {
	payload, err := os.ReadFile(resultPath)
	if err != nil {
		return &Result{
			Success:   false,
			Message:   "executor produced no result file",
			RawOutput: processOutput,
		}, nil
	}

	var parsed scriptResult
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("parse result file: %w", err)
	}

	return &Result{
		Success:   parsed.Success,
		Message:   parsed.Message,
		RawOutput: parsed.Output,
	}, nil
}

// TestConnection verifies device reachability with a harmless command.
func (e *ScriptExecutor) TestConnection(ctx context.Context, params ConnectionParams) (*Result, error) {
	return e.Execute(ctx, params, []string{"show version"})
}
