package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	values := map[string]any{"vlan_id": 100, "name": "mgmt"}

	assert.Equal(t, "vlan 100 name mgmt", Substitute("vlan ${vlan_id} name ${name}", values))
	assert.Equal(t, "vlan ${missing}", Substitute("vlan ${missing}", values))
	assert.Equal(t, "plain text", Substitute("plain text", nil))
}

func TestConfigTemplate_Render_DefaultFallback(t *testing.T) {
	tmpl := NewConfigTemplate("vlan", "cisco_ios", "vlan ${id}")
	tmpl.AddParameter(Parameter{Name: "id", Type: ParameterTypeVLANID, DefaultValue: "10"})

	// Explicit value wins over the default.
	assert.Equal(t, "vlan 20", tmpl.Render(map[string]any{"id": "20"}))

	// No value falls back to the parameter default.
	assert.Equal(t, "vlan 10", tmpl.Render(map[string]any{}))

	// No value and no default leaves the placeholder untouched.
	bare := NewConfigTemplate("vlan", "cisco_ios", "vlan ${id}")
	bare.AddParameter(Parameter{Name: "id", Type: ParameterTypeVLANID})
	assert.Equal(t, "vlan ${id}", bare.Render(map[string]any{}))
}

func TestConfigTemplate_MissingParameters(t *testing.T) {
	tmpl := NewConfigTemplate("iface", "cisco_ios", "interface ${name} ip ${ip}")
	tmpl.AddParameter(Parameter{Name: "name", Type: ParameterTypeInterfaceName, Required: true})
	tmpl.AddParameter(Parameter{Name: "ip", Type: ParameterTypeIPAddress, Required: true})
	tmpl.AddParameter(Parameter{Name: "descr", Type: ParameterTypeString})

	missing := tmpl.MissingParameters(map[string]any{"name": "Gi0/1"})
	assert.Equal(t, []string{"ip"}, missing)

	assert.Empty(t, tmpl.MissingParameters(map[string]any{"name": "Gi0/1", "ip": "10.0.0.1"}))
}

func TestParameter_ValidateValue(t *testing.T) {
	cases := []struct {
		name  string
		param Parameter
		value any
		want  bool
	}{
		{"integer ok", Parameter{Type: ParameterTypeInteger}, "42", true},
		{"integer bad", Parameter{Type: ParameterTypeInteger}, "forty", false},
		{"boolean ok", Parameter{Type: ParameterTypeBoolean}, "True", true},
		{"boolean bad", Parameter{Type: ParameterTypeBoolean}, "yes", false},
		{"ip ok", Parameter{Type: ParameterTypeIPAddress}, "192.168.1.1", true},
		{"ip bad octet", Parameter{Type: ParameterTypeIPAddress}, "192.168.1.256", false},
		{"ip bad shape", Parameter{Type: ParameterTypeIPAddress}, "192.168.1", false},
		{"vlan ok", Parameter{Type: ParameterTypeVLANID}, 4094, true},
		{"vlan out of range", Parameter{Type: ParameterTypeVLANID}, "4095", false},
		{"pattern ok", Parameter{Type: ParameterTypeString, Pattern: "^Gi"}, "Gi0/1", true},
		{"pattern bad", Parameter{Type: ParameterTypeString, Pattern: "^Gi"}, "Fa0/1", false},
		{"nil optional", Parameter{Type: ParameterTypeString}, nil, true},
		{"nil required", Parameter{Type: ParameterTypeString, Required: true}, nil, false},
		{"nil required with default", Parameter{Type: ParameterTypeString, Required: true, DefaultValue: "x"}, nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.param.ValidateValue(tc.value))
		})
	}
}

func TestConfigTemplate_Validate_UnusedParameter(t *testing.T) {
	tmpl := NewConfigTemplate("vlan", "cisco_ios", "vlan ${id}")
	tmpl.AddParameter(Parameter{Name: "id", Type: ParameterTypeVLANID})
	tmpl.AddParameter(Parameter{Name: "orphan", Type: ParameterTypeString})

	errs := tmpl.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "orphan")
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	RegisterBuiltinTemplates(store)

	assert.Len(t, store.All(), 4)
	assert.Len(t, store.ByDeviceType("cisco_ios"), 3)
	assert.Len(t, store.Search("vxlan"), 1)

	_, err := store.Template("no-such-id")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	tmpl := NewConfigTemplate("custom", "arista_eos", "vlan ${id}")
	store.Save(tmpl)

	fetched, err := store.Template(tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "custom", fetched.Name)

	require.NoError(t, store.Delete(tmpl.ID))
	assert.ErrorIs(t, store.Delete(tmpl.ID), ErrTemplateNotFound)
}
