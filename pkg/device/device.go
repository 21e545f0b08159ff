// Package device defines the command-execution collaborator the workflow
// engine drives, plus a subprocess-based implementation.
package device

import (
	"context"
	"time"
)

const (
	// DefaultPort is the SSH port used when a task names none.
	DefaultPort = 22

	// DefaultTimeout bounds a single collaborator call when a task names
	// no timeout of its own.
	DefaultTimeout = 20 * time.Second
)

// ConnectionParams describes one target device.
type ConnectionParams struct {
	DeviceType string        `json:"device_type" validate:"required"`
	Host       string        `json:"host"        validate:"required"`
	Username   string        `json:"username"    validate:"required"`
	Password   string        `json:"password"    validate:"required"`
	Secret     string        `json:"secret,omitempty"` // Privilege escalation secret
	Port       int           `json:"port,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty"`
}

// WithDefaults returns a copy with the default port and timeout filled in.
func (p ConnectionParams) WithDefaults() ConnectionParams {
	if p.Port == 0 {
		p.Port = DefaultPort
	}

	if p.Timeout == 0 {
		p.Timeout = DefaultTimeout
	}

	return p
}

// Result is the collaborator's verdict on one command batch.
type Result struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	RawOutput string `json:"raw_output"`
}

// Executor sends an ordered command batch to a device and reports the
// outcome. Implementations block until the device answers or ctx expires;
// the caller enforces its own outer timeout through ctx.
type Executor interface {
	Execute(ctx context.Context, params ConnectionParams, commands []string) (*Result, error)
}
