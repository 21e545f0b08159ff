package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netforgehq/netforge/pkg/models"
	"github.com/netforgehq/netforge/pkg/persistence/file"
	"github.com/netforgehq/netforge/pkg/runs"
	"github.com/netforgehq/netforge/pkg/template"
	"github.com/netforgehq/netforge/pkg/web"
)

func setupTestAPI(t *testing.T, tempDir string) *API {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	api, err := NewAPI(context.Background(), Config{
		Logger:       logger,
		Persistence:  file.NewPersistence(tempDir),
		RunsRegistry: runs.NewMemoryRegistry(),
	})
	require.NoError(t, err)
	t.Cleanup(api.Shutdown)

	return api
}

func setupTestApp(t *testing.T, tempDir string) *fiber.App {
	t.Helper()

	return setupTestAPI(t, tempDir).App()
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if err := resp.Body.Close(); err != nil {
		t.Logf("Failed to close response body: %v", err)
	}
}

type workflowListResponse struct {
	Workflows  []models.Workflow `json:"workflows"`
	TotalCount int               `json:"total_count"`
}

type templateListResponse struct {
	Templates  []template.ConfigTemplate `json:"templates"`
	TotalCount int                       `json:"total_count"`
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "NetForge API", string(body))
}

func TestAPI_Liveness(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_HealthCheck(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any

	err = json.NewDecoder(resp.Body).Decode(&health)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health["status"])
}

func TestAPI_GetWorkflows_Empty(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := jsonRequest(t, http.MethodGet, "/workflows", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list workflowListResponse

	err = json.NewDecoder(resp.Body).Decode(&list)
	require.NoError(t, err)
	assert.Empty(t, list.Workflows)
	assert.Equal(t, 0, list.TotalCount)
}

func TestAPI_CreateAndGetWorkflow(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	create := web.CreateWorkflowRequest{
		Name:        "VLAN rollout",
		Description: "Provision a VLAN across access switches",
		Variables:   map[string]any{"vlan_id": "100"},
		Tasks: []*models.Task{
			{
				ID:   "set-owner",
				Name: "Set owner",
				Kind: models.TaskKindSetVariable,
				Parameters: map[string]any{
					"variable_name":  "owner",
					"variable_value": "netops",
				},
			},
		},
	}

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows", create))
	require.NoError(t, err)

	defer closeBody(t, resp)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Workflow

	err = json.NewDecoder(resp.Body).Decode(&created)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "VLAN rollout", created.Name)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
	require.Len(t, created.Tasks, 1)
	assert.Equal(t, models.TaskKindSetVariable, created.Tasks[0].Kind)

	getResp, err := app.Test(jsonRequest(t, http.MethodGet, "/workflows/"+created.ID, nil))
	require.NoError(t, err)

	defer closeBody(t, getResp)

	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	var fetched models.Workflow

	err = json.NewDecoder(getResp.Body).Decode(&fetched)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "100", fetched.Variables["vlan_id"])
}

func TestAPI_CreateWorkflow_RejectsShortName(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows", web.CreateWorkflowRequest{
		Name: "ab",
	}))
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CreateWorkflow_RejectsDanglingConnection(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows", web.CreateWorkflowRequest{
		Name: "broken graph",
		Tasks: []*models.Task{
			{
				ID:   "only-task",
				Name: "Only task",
				Kind: models.TaskKindSetVariable,
				Parameters: map[string]any{
					"variable_name":  "x",
					"variable_value": "1",
				},
			},
		},
		Connections: []*models.Connection{
			{SourceID: "only-task", TargetID: "missing", Type: models.ConnectionNormal},
		},
	}))
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_GetWorkflow_NotFound(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/workflows/non-existent", nil))
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_DeleteWorkflow(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows", web.CreateWorkflowRequest{
		Name: "to delete",
	}))
	require.NoError(t, err)

	defer closeBody(t, resp)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Workflow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	delResp, err := app.Test(jsonRequest(t, http.MethodDelete, "/workflows/"+created.ID, nil))
	require.NoError(t, err)

	defer closeBody(t, delResp)

	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	getResp, err := app.Test(jsonRequest(t, http.MethodGet, "/workflows/"+created.ID, nil))
	require.NoError(t, err)

	defer closeBody(t, getResp)

	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestAPI_ExecuteWorkflow_Sync(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows", web.CreateWorkflowRequest{
		Name:      "set greeting",
		Variables: map[string]any{"name": "world"},
		Tasks: []*models.Task{
			{
				ID:   "greet",
				Name: "Greet",
				Kind: models.TaskKindSetVariable,
				Parameters: map[string]any{
					"variable_name":  "greeting",
					"variable_value": "hello ${name}",
				},
			},
		},
	}))
	require.NoError(t, err)

	defer closeBody(t, resp)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Workflow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	execResp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows/"+created.ID+"/execute", nil))
	require.NoError(t, err)

	defer closeBody(t, execResp)

	require.Equal(t, http.StatusOK, execResp.StatusCode)

	var result models.ExecutionResult

	err = json.NewDecoder(execResp.Body).Decode(&result)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.ExecutionID)
	assert.Equal(t, "hello world", result.Variables["greeting"])

	runResp, err := app.Test(jsonRequest(t, http.MethodGet, "/executions/"+result.ExecutionID, nil))
	require.NoError(t, err)

	defer closeBody(t, runResp)

	assert.Equal(t, http.StatusOK, runResp.StatusCode)

	var run runs.Run

	err = json.NewDecoder(runResp.Body).Decode(&run)
	require.NoError(t, err)
	assert.Equal(t, result.ExecutionID, run.ExecutionID)
	assert.Equal(t, runs.RunStateCompleted, run.State)
}

func TestAPI_ExecuteWorkflow_RequestVariablesOverrideStored(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows", web.CreateWorkflowRequest{
		Name:      "override test",
		Variables: map[string]any{"site": "default"},
		Tasks: []*models.Task{
			{
				ID:   "copy-site",
				Name: "Copy site",
				Kind: models.TaskKindSetVariable,
				Parameters: map[string]any{
					"variable_name":  "resolved_site",
					"variable_value": "${site}",
				},
			},
		},
	}))
	require.NoError(t, err)

	defer closeBody(t, resp)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Workflow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	execResp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows/"+created.ID+"/execute", web.ExecuteRequest{
		Variables: map[string]any{"site": "ams01"},
	}))
	require.NoError(t, err)

	defer closeBody(t, execResp)

	require.Equal(t, http.StatusOK, execResp.StatusCode)

	var result models.ExecutionResult
	require.NoError(t, json.NewDecoder(execResp.Body).Decode(&result))
	assert.Equal(t, "ams01", result.Variables["resolved_site"])
}

func TestAPI_ExecuteWorkflow_NotFound(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/workflows/missing/execute", nil))
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CancelExecution_NotFound(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodDelete, "/executions/missing", nil))
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_GetConfigTemplates_IncludesBuiltins(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/templates", nil))
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list templateListResponse

	err = json.NewDecoder(resp.Body).Decode(&list)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, list.TotalCount, 4)

	names := make([]string, 0, len(list.Templates))
	for _, tmpl := range list.Templates {
		names = append(names, tmpl.Name)
	}

	assert.Contains(t, names, "Cisco IOS VLAN Configuration")
}

func TestAPI_GetConfigTemplates_FilterByDeviceType(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/templates?device_type=cisco_nxos", nil))
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list templateListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.NotEmpty(t, list.Templates)

	for _, tmpl := range list.Templates {
		assert.Equal(t, "cisco_nxos", tmpl.DeviceType)
	}
}

func TestAPI_CreateAndRenderConfigTemplate(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/templates", web.SaveConfigTemplateRequest{
		Name:       "NTP Server",
		DeviceType: "cisco_ios",
		Body:       "configure terminal\nntp server ${server}\nexit",
		Parameters: []template.Parameter{
			{Name: "server", Type: template.ParameterTypeIPAddress, Required: true},
		},
	}))
	require.NoError(t, err)

	defer closeBody(t, resp)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created template.ConfigTemplate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEmpty(t, created.ID)

	renderResp, err := app.Test(jsonRequest(t, http.MethodPost, "/templates/"+created.ID+"/render", web.RenderRequest{
		Values: map[string]any{"server": "10.0.0.1"},
	}))
	require.NoError(t, err)

	defer closeBody(t, renderResp)

	require.Equal(t, http.StatusOK, renderResp.StatusCode)

	var rendered web.RenderResponse
	require.NoError(t, json.NewDecoder(renderResp.Body).Decode(&rendered))
	assert.Equal(t, created.ID, rendered.TemplateID)
	assert.Contains(t, rendered.Rendered, "ntp server 10.0.0.1")
}

func TestAPI_RenderConfigTemplate_MissingParameter(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/templates", web.SaveConfigTemplateRequest{
		Name:       "Hostname",
		DeviceType: "cisco_ios",
		Body:       "hostname ${hostname}",
		Parameters: []template.Parameter{
			{Name: "hostname", Type: template.ParameterTypeString, Required: true},
		},
	}))
	require.NoError(t, err)

	defer closeBody(t, resp)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created template.ConfigTemplate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	renderResp, err := app.Test(jsonRequest(t, http.MethodPost, "/templates/"+created.ID+"/render", nil))
	require.NoError(t, err)

	defer closeBody(t, renderResp)

	assert.Equal(t, http.StatusBadRequest, renderResp.StatusCode)
}

func TestAPI_TemplatesSurviveRestart(t *testing.T) {
	tempDir := t.TempDir()
	app := setupTestApp(t, tempDir)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/templates", web.SaveConfigTemplateRequest{
		Name:       "Banner",
		DeviceType: "cisco_ios",
		Body:       "banner motd ${text}",
		Parameters: []template.Parameter{
			{Name: "text", Type: template.ParameterTypeString, Required: true},
		},
	}))
	require.NoError(t, err)

	defer closeBody(t, resp)

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created template.ConfigTemplate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	restarted := setupTestApp(t, tempDir)

	getResp, err := restarted.Test(jsonRequest(t, http.MethodGet, "/templates/"+created.ID, nil))
	require.NoError(t, err)

	defer closeBody(t, getResp)

	assert.Equal(t, http.StatusOK, getResp.StatusCode)

	var fetched template.ConfigTemplate
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&fetched))
	assert.Equal(t, "Banner", fetched.Name)
}

func TestAPI_GetParsingTemplates_IncludesBuiltins(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/parsing-templates", nil))
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.NotZero(t, list["total_count"])
}

func TestAPI_CORS_Headers(t *testing.T) {
	app := setupTestApp(t, t.TempDir())

	req := httptest.NewRequest(http.MethodOptions, "/workflows", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
