package parsing

// RegisterBuiltinTemplates loads the stock parsing templates into a store.
func RegisterBuiltinTemplates(store *Store) {
	vlan := NewTemplate("VLAN Status Parser", "Extract VLAN information from show vlan commands")
	vlan.DeviceType = "cisco"
	vlan.CommandPattern = `show\s+vlan`
	vlan.Rules = []Rule{
		{VariableName: "vlan_count", Pattern: `^(\d+)\s+\w+`, Kind: RuleKindGrep, Description: "Count of VLANs"},
		{VariableName: "vlan_list", Pattern: `^(\d+)\s+(\w+)\s+(\w+)`, Kind: RuleKindRegex, Description: "List of VLAN IDs"},
		{VariableName: "active_vlans", Pattern: `^\d+\s+\w+\s+(active)`, Kind: RuleKindGrep, Description: "Active VLANs only"},
	}
	store.Save(vlan)

	iface := NewTemplate("Interface Status Parser", "Extract interface information from show interface commands")
	iface.CommandPattern = `show\s+interface`
	iface.Rules = []Rule{
		{VariableName: "interface_name", Pattern: `(\w+\d+/\d+)\s+is`, Kind: RuleKindRegex, Description: "Interface name"},
		{VariableName: "interface_status", Pattern: `is\s+(up|down)`, Kind: RuleKindRegex, Description: "Interface status"},
		{VariableName: "line_protocol", Pattern: `line protocol is\s+(up|down)`, Kind: RuleKindRegex, Description: "Line protocol status"},
		{VariableName: "ip_address", Pattern: `Internet address is\s+(\d+\.\d+\.\d+\.\d+)`, Kind: RuleKindRegex, Description: "IP address"},
	}
	store.Save(iface)

	routing := NewTemplate("Routing Table Parser", "Extract routing information from show ip route")
	routing.CommandPattern = `show\s+ip\s+route`
	routing.Rules = []Rule{
		{VariableName: "route_count", Pattern: `^[CSROD]`, Kind: RuleKindLineCount, Description: "Count of routes"},
		{VariableName: "default_route", Pattern: `0\.0\.0\.0/0`, Kind: RuleKindContains, Description: "Default route presence"},
		{VariableName: "connected_routes", Pattern: `C\s+(\d+\.\d+\.\d+\.\d+/\d+)`, Kind: RuleKindGrep, Description: "Connected routes"},
	}
	store.Save(routing)

	system := NewTemplate("System Information Parser", "Extract system information from show version")
	system.CommandPattern = `show\s+version`
	system.Rules = []Rule{
		{VariableName: "ios_version", Pattern: `IOS.*Version\s+([\d\.\w\(\)]+)`, Kind: RuleKindRegex, Description: "IOS Version"},
		{VariableName: "uptime", Pattern: `uptime is\s+(.+)`, Kind: RuleKindRegex, Description: "System uptime"},
		{VariableName: "hostname", Pattern: `(\w+)\s+uptime`, Kind: RuleKindRegex, Description: "Device hostname"},
		{VariableName: "model", Pattern: `cisco\s+(\w+)`, Kind: RuleKindRegex, Description: "Device model"},
	}
	store.Save(system)

	generic := NewTemplate("Generic Show Command Parser", "Generic parsing for any show command")
	generic.CommandPattern = "show"
	generic.Rules = []Rule{
		{VariableName: "line_count", Pattern: `.*`, Kind: RuleKindLineCount, Description: "Total lines in output"},
		{VariableName: "has_error", Pattern: `error|invalid|failed`, Kind: RuleKindContains, Description: "Check for errors"},
		{VariableName: "has_data", Pattern: `.+`, Kind: RuleKindContains, Description: "Check if output has data"},
	}
	store.Save(generic)
}
