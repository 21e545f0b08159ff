// Package parsing extracts variables from raw command output using
// device-type and command-pattern matched templates.
package parsing

import (
	"time"

	"github.com/google/uuid"
)

// GenericDeviceType is the universal device-type matcher.
const GenericDeviceType = "generic"

// RuleKind selects the extraction strategy of one rule.
type RuleKind string

const (
	RuleKindRegex     RuleKind = "regex"      // Capture-group extraction
	RuleKindGrep      RuleKind = "grep"       // Matching lines, joined
	RuleKindTable     RuleKind = "table"      // First capture from a table row
	RuleKindKeyValue  RuleKind = "key_value"  // First "key: value" / "key = value" match
	RuleKindLineCount RuleKind = "line_count" // Count of matching lines
	RuleKindContains  RuleKind = "contains"   // Boolean containment check
	RuleKindJSON      RuleKind = "json"       // JSON field capture
)

// Transform is an optional post-extraction rewrite.
type Transform string

const (
	TransformUppercase     Transform = "uppercase"
	TransformLowercase     Transform = "lowercase"
	TransformTrim          Transform = "trim"
	TransformReplaceSpaces Transform = "replace_spaces"
	TransformRemoveSpecial Transform = "remove_special"
	TransformExtractNumber Transform = "extract_number"
)

// Rule extracts one variable from output text.
type Rule struct {
	VariableName    string    `json:"variable_name" validate:"required"`
	Pattern         string    `json:"pattern"       validate:"required"`
	Description     string    `json:"description,omitempty"`
	Kind            RuleKind  `json:"kind"`
	ExtractionGroup string    `json:"extraction_group,omitempty"` // Regex group selector, default 1
	Transform       Transform `json:"transform,omitempty"`
	DefaultValue    string    `json:"default_value,omitempty"`
	Required        bool      `json:"required"`
}

// Template matches a device type and command pattern and carries the ordered
// extraction rules applied to matching output.
type Template struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"        validate:"required"`
	Description    string    `json:"description,omitempty"`
	DeviceType     string    `json:"device_type"`
	CommandPattern string    `json:"command_pattern"`
	Rules          []Rule    `json:"rules"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewTemplate creates a template with a generated ID and the generic
// device-type matcher.
func NewTemplate(name, description string) *Template {
	now := time.Now()

	return &Template{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		DeviceType:  GenericDeviceType,
		Rules:       make([]Rule, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Specificity ranks a template for match ordering: device-specific
// templates beat generic ones, concrete command patterns beat wildcards.
func (t *Template) Specificity() int {
	specificity := 0

	if t.DeviceType != "" && t.DeviceType != GenericDeviceType {
		specificity += 10
	}

	if t.CommandPattern != "" && t.CommandPattern != ".*" {
		specificity += 5
	}

	return specificity
}
