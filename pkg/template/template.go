// Package template provides parameterized device configuration templates and
// the ${name} placeholder substitution used throughout workflow execution.
package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParameterType tags a template parameter for value validation.
type ParameterType string

const (
	ParameterTypeString        ParameterType = "string"
	ParameterTypeInteger       ParameterType = "integer"
	ParameterTypeBoolean       ParameterType = "boolean"
	ParameterTypeIPAddress     ParameterType = "ip_address"
	ParameterTypeSubnet        ParameterType = "subnet"
	ParameterTypeVLANID        ParameterType = "vlan_id"
	ParameterTypeInterfaceName ParameterType = "interface_name"
)

const (
	vlanIDMin = 1
	vlanIDMax = 4094
)

// Parameter describes one named placeholder of a config template.
type Parameter struct {
	Name         string        `json:"name"          validate:"required"`
	Description  string        `json:"description,omitempty"`
	Type         ParameterType `json:"type"          validate:"required"`
	Required     bool          `json:"required"`
	DefaultValue string        `json:"default_value,omitempty"`
	Pattern      string        `json:"pattern,omitempty"` // Optional validation regexp
}

// ValidateValue checks a candidate value against the parameter's type and
// pattern constraints. A nil value is acceptable only for optional
// parameters or ones carrying a default.
func (p *Parameter) ValidateValue(value any) bool {
	if value == nil {
		return !p.Required || p.DefaultValue != ""
	}

	text := fmt.Sprintf("%v", value)

	switch p.Type {
	case ParameterTypeInteger:
		if _, err := strconv.Atoi(text); err != nil {
			return false
		}
	case ParameterTypeBoolean:
		if !strings.EqualFold(text, "true") && !strings.EqualFold(text, "false") {
			return false
		}
	case ParameterTypeIPAddress, ParameterTypeSubnet:
		if !validIPv4(strings.SplitN(text, "/", 2)[0]) {
			return false
		}
	case ParameterTypeVLANID:
		id, err := strconv.Atoi(text)
		if err != nil || id < vlanIDMin || id > vlanIDMax {
			return false
		}
	case ParameterTypeString, ParameterTypeInterfaceName:
	}

	if p.Pattern != "" {
		matched, err := regexp.MatchString(p.Pattern, text)
		if err != nil || !matched {
			return false
		}
	}

	return true
}

func validIPv4(text string) bool {
	parts := strings.Split(text, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		octet, err := strconv.Atoi(part)
		if err != nil || octet < 0 || octet > 255 {
			return false
		}
	}

	return true
}

// ConfigTemplate is a reusable command-text body with ${name} placeholders.
type ConfigTemplate struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"        validate:"required"`
	Description string            `json:"description,omitempty"`
	DeviceType  string            `json:"device_type" validate:"required"`
	Body        string            `json:"body"        validate:"required"`
	Parameters  []Parameter       `json:"parameters"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewConfigTemplate creates a template with a generated ID.
func NewConfigTemplate(name, deviceType, body string) *ConfigTemplate {
	now := time.Now()

	return &ConfigTemplate{
		ID:         uuid.New().String(),
		Name:       name,
		DeviceType: deviceType,
		Body:       body,
		Parameters: make([]Parameter, 0),
		Metadata:   make(map[string]string),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AddParameter appends a parameter definition.
func (t *ConfigTemplate) AddParameter(param Parameter) {
	t.Parameters = append(t.Parameters, param)
	t.UpdatedAt = time.Now()
}

// Parameter returns the parameter definition with the given name, nil if
// the template does not declare it.
func (t *ConfigTemplate) Parameter(name string) *Parameter {
	for i := range t.Parameters {
		if t.Parameters[i].Name == name {
			return &t.Parameters[i]
		}
	}

	return nil
}

// MissingParameters returns the names of required parameters absent from
// the given value set.
func (t *ConfigTemplate) MissingParameters(values map[string]any) []string {
	var missing []string

	for _, param := range t.Parameters {
		if !param.Required {
			continue
		}

		if _, ok := values[param.Name]; !ok {
			missing = append(missing, param.Name)
		}
	}

	return missing
}

// Render substitutes each ${name} in the body with, in order of preference:
// the explicit value, the parameter's default, or the untouched placeholder.
func (t *ConfigTemplate) Render(values map[string]any) string {
	rendered := Substitute(t.Body, values)

	for _, param := range t.Parameters {
		placeholder := "${" + param.Name + "}"
		if param.DefaultValue != "" && strings.Contains(rendered, placeholder) {
			rendered = strings.ReplaceAll(rendered, placeholder, param.DefaultValue)
		}
	}

	return rendered
}

// Validate checks the template for structural problems: empty fields and
// parameters declared but never referenced by the body.
func (t *ConfigTemplate) Validate() []string {
	var errs []string

	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, "template name is required")
	}

	if strings.TrimSpace(t.DeviceType) == "" {
		errs = append(errs, "device type is required")
	}

	if strings.TrimSpace(t.Body) == "" {
		errs = append(errs, "template body is required")
	}

	for _, param := range t.Parameters {
		if !strings.Contains(t.Body, "${"+param.Name+"}") {
			errs = append(errs, fmt.Sprintf("parameter %q is defined but not used", param.Name))
		}
	}

	return errs
}

// Substitute replaces every ${name} occurrence in text with the matching
// value. Placeholders without a value are left unchanged; substitution is
// literal text replacement, not a nested expression language.
func Substitute(text string, values map[string]any) string {
	substituted := text

	for name, value := range values {
		var replacement string
		if value != nil {
			replacement = fmt.Sprintf("%v", value)
		}

		substituted = strings.ReplaceAll(substituted, "${"+name+"}", replacement)
	}

	return substituted
}
