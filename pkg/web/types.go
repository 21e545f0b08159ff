package web

import (
	"github.com/netforgehq/netforge/pkg/models"
	"github.com/netforgehq/netforge/pkg/parsing"
	"github.com/netforgehq/netforge/pkg/template"
)

// CreateWorkflowRequest is the body for POST /workflows.
type CreateWorkflowRequest struct {
	Name        string               `json:"name"        validate:"required,min=3"`
	Description string               `json:"description"`
	Variables   map[string]any       `json:"variables"`
	Tasks       []*models.Task       `json:"tasks"`
	Connections []*models.Connection `json:"connections"`
}

// UpdateWorkflowRequest is the body for PUT /workflows/:id.
type UpdateWorkflowRequest struct {
	Name        string               `json:"name"        validate:"required,min=3"`
	Description string               `json:"description"`
	Variables   map[string]any       `json:"variables"`
	Tasks       []*models.Task       `json:"tasks"`
	Connections []*models.Connection `json:"connections"`
}

// ExecuteRequest is the body for POST /workflows/:id/execute. Variables
// override the workflow's stored variables for this run only.
type ExecuteRequest struct {
	Variables map[string]any `json:"variables"`
	Async     bool           `json:"async"`
}

// ExecuteAsyncResponse acknowledges an accepted asynchronous run.
type ExecuteAsyncResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

// RenderRequest is the body for POST /templates/:id/render.
type RenderRequest struct {
	Values map[string]any `json:"values"`
}

// RenderResponse carries a rendered template preview.
type RenderResponse struct {
	TemplateID string `json:"template_id"`
	Rendered   string `json:"rendered"`
}

// SaveConfigTemplateRequest is the body for template create and update.
type SaveConfigTemplateRequest struct {
	Name        string               `json:"name"        validate:"required"`
	Description string               `json:"description"`
	DeviceType  string               `json:"device_type" validate:"required"`
	Body        string               `json:"body"        validate:"required"`
	Parameters  []template.Parameter `json:"parameters"`
	Metadata    map[string]string    `json:"metadata"`
}

// SaveParsingTemplateRequest is the body for parsing template create and
// update.
type SaveParsingTemplateRequest struct {
	Name           string         `json:"name"            validate:"required"`
	Description    string         `json:"description"`
	DeviceType     string         `json:"device_type"`
	CommandPattern string         `json:"command_pattern"`
	Rules          []parsing.Rule `json:"rules"`
}
