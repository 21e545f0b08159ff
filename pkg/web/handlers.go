// Package web provides the REST API handlers for workflow, template, and
// execution management.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/netforgehq/netforge/pkg/models"
	"github.com/netforgehq/netforge/pkg/parsing"
	"github.com/netforgehq/netforge/pkg/services"
	"github.com/netforgehq/netforge/pkg/template"
)

type APIHandlers struct {
	workflowService  *services.Workflow
	executionService *services.Execution
	templateService  *services.Templates
	validator        *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	executionService *services.Execution,
	templateService *services.Templates,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService:  workflowService,
		executionService: executionService,
		templateService:  templateService,
		validator:        validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	persistenceCheck, ok := h.workflowService.HealthCheck(c.Context())

	status := "healthy"
	httpStatus := http.StatusOK

	if !ok {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"persistence": persistenceCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow ID is required")
	}

	workflow, err := h.workflowService.ByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := models.NewWorkflow(req.Name)
	workflow.Description = req.Description

	if req.Variables != nil {
		workflow.Variables = req.Variables
	}

	if err := applyGraph(workflow, req.Tasks, req.Connections); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.workflowService.Create(c.Context(), workflow); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.workflowService.ByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	workflow := models.NewWorkflow(req.Name)
	workflow.ID = id
	workflow.Description = req.Description
	workflow.Status = existing.Status
	workflow.CreatedAt = existing.CreatedAt

	if req.Variables != nil {
		workflow.Variables = req.Variables
	}

	if err := applyGraph(workflow, req.Tasks, req.Connections); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.workflowService.Update(c.Context(), workflow); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow ID is required")
	}

	if err := h.workflowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExecuteWorkflow runs a workflow. With "async": true in the body the run
// is queued and the response carries its execution ID for polling.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "workflow ID is required")
	}

	req := ExecuteRequest{}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "invalid JSON format")
		}
	}

	if req.Async {
		executionID, err := h.executionService.ExecuteAsync(c.Context(), id, req.Variables)
		if err != nil {
			return handleServiceError(c, err)
		}

		return c.Status(fiber.StatusAccepted).JSON(ExecuteAsyncResponse{
			ExecutionID: executionID,
			Status:      "accepted",
		})
	}

	result, err := h.executionService.Execute(c.Context(), id, req.Variables)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	all, err := h.executionService.Runs(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  all,
		"total_count": len(all),
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "execution ID is required")
	}

	run, err := h.executionService.Run(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(run)
}

// CancelExecution requests best-effort cancellation of a running
// execution.
func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "execution ID is required")
	}

	if err := h.executionService.Cancel(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *APIHandlers) GetConfigTemplates(c fiber.Ctx) error {
	templates := h.templateService.SearchConfig(c.Context(), c.Query("device_type"), c.Query("q"))

	return c.JSON(fiber.Map{
		"templates":   templates,
		"total_count": len(templates),
	})
}

func (h *APIHandlers) GetConfigTemplate(c fiber.Ctx) error {
	tmpl, err := h.templateService.ConfigByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(tmpl)
}

func (h *APIHandlers) CreateConfigTemplate(c fiber.Ctx) error {
	var req SaveConfigTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	tmpl := template.NewConfigTemplate(req.Name, req.DeviceType, req.Body)
	tmpl.Description = req.Description
	tmpl.Parameters = req.Parameters

	if req.Metadata != nil {
		tmpl.Metadata = req.Metadata
	}

	if err := h.templateService.SaveConfig(c.Context(), tmpl); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(tmpl)
}

func (h *APIHandlers) UpdateConfigTemplate(c fiber.Ctx) error {
	id := c.Params("id")

	existing, err := h.templateService.ConfigByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req SaveConfigTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.DeviceType = req.DeviceType
	existing.Body = req.Body
	existing.Parameters = req.Parameters

	if req.Metadata != nil {
		existing.Metadata = req.Metadata
	}

	if err := h.templateService.SaveConfig(c.Context(), existing); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(existing)
}

func (h *APIHandlers) DeleteConfigTemplate(c fiber.Ctx) error {
	if err := h.templateService.DeleteConfig(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RenderConfigTemplate previews a rendered template without contacting a
// device.
func (h *APIHandlers) RenderConfigTemplate(c fiber.Ctx) error {
	id := c.Params("id")

	var req RenderRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "invalid JSON format")
		}
	}

	rendered, err := h.templateService.RenderConfig(c.Context(), id, req.Values)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(RenderResponse{TemplateID: id, Rendered: rendered})
}

func (h *APIHandlers) GetParsingTemplates(c fiber.Ctx) error {
	templates := h.templateService.ListParsing(c.Context())

	return c.JSON(fiber.Map{
		"templates":   templates,
		"total_count": len(templates),
	})
}

func (h *APIHandlers) GetParsingTemplate(c fiber.Ctx) error {
	tmpl, err := h.templateService.ParsingByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(tmpl)
}

func (h *APIHandlers) CreateParsingTemplate(c fiber.Ctx) error {
	var req SaveParsingTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	tmpl := parsing.NewTemplate(req.Name, req.Description)
	if req.DeviceType != "" {
		tmpl.DeviceType = req.DeviceType
	}

	tmpl.CommandPattern = req.CommandPattern
	tmpl.Rules = req.Rules

	if err := h.templateService.SaveParsing(c.Context(), tmpl); err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(tmpl)
}

func (h *APIHandlers) UpdateParsingTemplate(c fiber.Ctx) error {
	id := c.Params("id")

	existing, err := h.templateService.ParsingByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req SaveParsingTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.DeviceType = req.DeviceType
	existing.CommandPattern = req.CommandPattern
	existing.Rules = req.Rules

	if err := h.templateService.SaveParsing(c.Context(), existing); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(existing)
}

func (h *APIHandlers) DeleteParsingTemplate(c fiber.Ctx) error {
	if err := h.templateService.DeleteParsing(c.Context(), c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// applyGraph adds tasks and connections through the workflow's own graph
// operations so duplicate IDs and dangling endpoints are rejected.
func applyGraph(workflow *models.Workflow, tasks []*models.Task, connections []*models.Connection) error {
	for _, task := range tasks {
		if task.ID == "" {
			task.ID = uuid.New().String()
		}

		if task.Status == "" {
			task.Status = models.TaskStatusPending
		}

		if err := workflow.AddTask(task); err != nil {
			return err
		}
	}

	for _, conn := range connections {
		if err := workflow.AddConnection(conn); err != nil {
			return err
		}
	}

	return nil
}
