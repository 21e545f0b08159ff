package parsing

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *Store) {
	t.Helper()

	store := NewStore()
	engine := NewEngine(store, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	return engine, store
}

const showInterfaceOutput = `GigabitEthernet0/1 is up, line protocol is up
  Hardware is iGbE, address is 0050.56be.1234
  Internet address is 192.168.10.1/24
`

func TestEngine_ParseOutput_BuiltinInterfaceTemplate(t *testing.T) {
	engine, store := newTestEngine(t)
	RegisterBuiltinTemplates(store)

	vars := engine.ParseOutput("show interface GigabitEthernet0/1", showInterfaceOutput, "cisco_ios")

	assert.Equal(t, "GigabitEthernet0/1", vars["interface_name"])
	assert.Equal(t, "up", vars["interface_status"])
	assert.Equal(t, "up", vars["line_protocol"])
	assert.Equal(t, "192.168.10.1", vars["ip_address"])

	// The generic show template matched too.
	assert.Equal(t, "false", vars["has_error"])
	assert.Equal(t, "true", vars["has_data"])
}

func TestEngine_ParseOutput_EmptyOutput(t *testing.T) {
	engine, store := newTestEngine(t)
	RegisterBuiltinTemplates(store)

	assert.Empty(t, engine.ParseOutput("show version", "   ", "cisco_ios"))
}

func TestEngine_ParseOutput_SpecificityOverwritesGeneric(t *testing.T) {
	engine, store := newTestEngine(t)

	generic := NewTemplate("generic", "")
	generic.CommandPattern = ".*"
	generic.Rules = []Rule{
		{VariableName: "status", Pattern: `.+`, Kind: RuleKindContains},
	}
	store.Save(generic)

	specific := NewTemplate("specific", "")
	specific.DeviceType = "cisco_ios"
	specific.CommandPattern = `show\s+vlan`
	specific.Rules = []Rule{
		{VariableName: "status", Pattern: `(active)`, Kind: RuleKindRegex},
	}
	store.Save(specific)

	vars := engine.ParseOutput("show vlan brief", "100 mgmt active", "cisco_ios")

	// The device-specific, non-wildcard template wins the name collision.
	assert.Equal(t, "active", vars["status"])
}

func TestEngine_ParseOutput_DeviceTypeFiltering(t *testing.T) {
	engine, store := newTestEngine(t)

	junos := NewTemplate("junos only", "")
	junos.DeviceType = "juniper_junos"
	junos.CommandPattern = "show"
	junos.Rules = []Rule{{VariableName: "x", Pattern: `.+`, Kind: RuleKindContains}}
	store.Save(junos)

	assert.Empty(t, engine.ParseOutput("show version", "data", "cisco_ios"))
	assert.NotEmpty(t, engine.ParseOutput("show version", "data", "juniper_junos"))
}

func TestEngine_ApplyTemplate_RuleKinds(t *testing.T) {
	engine, _ := newTestEngine(t)

	output := `hostname: edge-router-1
uptime = 42 days
C    10.0.0.0/24 is directly connected
C    10.0.1.0/24 is directly connected
{"version": "15.2(4)M7"}`

	tmpl := NewTemplate("kinds", "")
	tmpl.Rules = []Rule{
		{VariableName: "hostname", Pattern: "hostname", Kind: RuleKindKeyValue},
		{VariableName: "uptime", Pattern: "uptime", Kind: RuleKindKeyValue},
		{VariableName: "connected", Pattern: `^C\s`, Kind: RuleKindLineCount},
		{VariableName: "routes", Pattern: `^C\s+(\S+)`, Kind: RuleKindTable},
		{VariableName: "has_uptime", Pattern: "uptime", Kind: RuleKindContains},
		{VariableName: "version", Pattern: "version", Kind: RuleKindJSON},
		{VariableName: "connected_lines", Pattern: "directly connected", Kind: RuleKindGrep},
	}

	vars := engine.ApplyTemplate(tmpl, output)

	assert.Equal(t, "edge-router-1", vars["hostname"])
	assert.Equal(t, "42 days", vars["uptime"])
	assert.Equal(t, "2", vars["connected"])
	assert.Equal(t, "10.0.0.0/24", vars["routes"])
	assert.Equal(t, "true", vars["has_uptime"])
	assert.Equal(t, "15.2(4)M7", vars["version"])
	assert.Contains(t, vars["connected_lines"], "10.0.1.0/24")
}

func TestEngine_ApplyTemplate_Transforms(t *testing.T) {
	engine, _ := newTestEngine(t)

	tmpl := NewTemplate("transforms", "")
	tmpl.Rules = []Rule{
		{VariableName: "upper", Pattern: `name (\w+)`, Kind: RuleKindRegex, Transform: TransformUppercase},
		{VariableName: "spaces", Pattern: `descr "([^"]+)"`, Kind: RuleKindRegex, Transform: TransformReplaceSpaces},
		{VariableName: "number", Pattern: `port (\S+)`, Kind: RuleKindRegex, Transform: TransformExtractNumber},
		{VariableName: "clean", Pattern: `tag (\S+)`, Kind: RuleKindRegex, Transform: TransformRemoveSpecial},
	}

	vars := engine.ApplyTemplate(tmpl, `name mgmt descr "core uplink port" port Gi0/1 tag a-b_c!`)

	assert.Equal(t, "MGMT", vars["upper"])
	assert.Equal(t, "core_uplink_port", vars["spaces"])
	assert.Equal(t, "0", vars["number"])
	assert.Equal(t, "ab_c", vars["clean"])
}

func TestEngine_ApplyTemplate_DefaultsAndErrors(t *testing.T) {
	engine, _ := newTestEngine(t)

	tmpl := NewTemplate("defaults", "")
	tmpl.Rules = []Rule{
		// No match, required: resolves to default, never aborts.
		{VariableName: "missing_required", Pattern: `nomatch (\d+)`, Kind: RuleKindRegex, Required: true, DefaultValue: "0"},
		// No match, optional with default.
		{VariableName: "missing_optional", Pattern: `nomatch (\d+)`, Kind: RuleKindRegex, DefaultValue: "n/a"},
		// No match, optional without default: omitted.
		{VariableName: "absent", Pattern: `nomatch (\d+)`, Kind: RuleKindRegex},
		// Malformed pattern: caught, default used.
		{VariableName: "broken", Pattern: `([`, Kind: RuleKindRegex, DefaultValue: "fallback"},
		// Extraction group out of range: caught, default used.
		{VariableName: "group_oob", Pattern: `(ok)`, Kind: RuleKindRegex, ExtractionGroup: "3", DefaultValue: "oob"},
	}

	vars := engine.ApplyTemplate(tmpl, "ok")

	assert.Equal(t, "0", vars["missing_required"])
	assert.Equal(t, "n/a", vars["missing_optional"])
	assert.NotContains(t, vars, "absent")
	assert.Equal(t, "fallback", vars["broken"])
	assert.Equal(t, "oob", vars["group_oob"])
}

func TestStore_CRUD(t *testing.T) {
	store := NewStore()
	tmpl := NewTemplate("t", "")
	store.Save(tmpl)

	fetched, err := store.Template(tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", fetched.Name)

	require.NoError(t, store.Delete(tmpl.ID))
	_, err = store.Template(tmpl.ID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplate_Specificity(t *testing.T) {
	generic := NewTemplate("g", "")
	generic.CommandPattern = ".*"
	assert.Equal(t, 0, generic.Specificity())

	commandOnly := NewTemplate("c", "")
	commandOnly.CommandPattern = `show\s+vlan`
	assert.Equal(t, 5, commandOnly.Specificity())

	deviceSpecific := NewTemplate("d", "")
	deviceSpecific.DeviceType = "cisco_ios"
	deviceSpecific.CommandPattern = `show\s+vlan`
	assert.Equal(t, 15, deviceSpecific.Specificity())
}
