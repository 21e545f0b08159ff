package models

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// workflowDocumentSchema guards workflow definitions arriving as raw JSON
// through the API or CLI before they are unmarshalled into a Workflow.
var workflowDocumentSchema = map[string]any{
	"type":     "object",
	"required": []any{"name"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string"},
		"name":        map[string]any{"type": "string", "minLength": 3},
		"description": map[string]any{"type": "string"},
		"variables":   map[string]any{"type": "object"},
		"status": map[string]any{
			"type": "string",
			"enum": []any{"draft", "ready", "running", "completed", "failed", "paused"},
		},
		"tasks": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "name", "kind"},
				"properties": map[string]any{
					"id":   map[string]any{"type": "string"},
					"name": map[string]any{"type": "string", "minLength": 1},
					"kind": map[string]any{
						"type": "string",
						"enum": []any{
							"device_command", "templated_command",
							"set_variable", "condition", "script",
						},
					},
					"parameters":  map[string]any{"type": "object"},
					"template_id": map[string]any{"type": "string"},
					"position_x":  map[string]any{"type": "integer"},
					"position_y":  map[string]any{"type": "integer"},
				},
			},
		},
		"connections": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"source_id", "target_id"},
				"properties": map[string]any{
					"source_id": map[string]any{"type": "string"},
					"target_id": map[string]any{"type": "string"},
					"type": map[string]any{
						"type": "string",
						"enum": []any{"normal", "on_success", "on_failure", "conditional"},
					},
					"condition": map[string]any{"type": "string"},
				},
			},
		},
	},
}

// ValidateWorkflowDocument validates a decoded workflow JSON document
// against the workflow schema.
func ValidateWorkflowDocument(document any) error {
	schemaLoader := gojsonschema.NewGoLoader(workflowDocumentSchema)
	dataLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return fmt.Errorf("invalid workflow document: %s", strings.Join(messages, "; "))
	}

	return nil
}
