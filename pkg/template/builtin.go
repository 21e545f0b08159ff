package template

// RegisterBuiltinTemplates loads the stock device configuration templates
// into a store.
func RegisterBuiltinTemplates(store *MemoryStore) {
	vlan := NewConfigTemplate(
		"Cisco IOS VLAN Configuration",
		"cisco_ios",
		"configure terminal\n"+
			"vlan ${vlan_id}\n"+
			"name ${vlan_name}\n"+
			"exit\n"+
			"interface ${interface}\n"+
			"switchport mode access\n"+
			"switchport access vlan ${vlan_id}\n"+
			"exit\n"+
			"exit",
	)
	vlan.Description = "Creates a VLAN and assigns an interface to it"
	vlan.AddParameter(Parameter{Name: "vlan_id", Type: ParameterTypeVLANID, Required: true})
	vlan.AddParameter(Parameter{Name: "vlan_name", Type: ParameterTypeString, Required: true})
	vlan.AddParameter(Parameter{Name: "interface", Type: ParameterTypeInterfaceName, Required: true})
	store.Save(vlan)

	iface := NewConfigTemplate(
		"Cisco IOS Interface Configuration",
		"cisco_ios",
		"configure terminal\n"+
			"interface ${interface}\n"+
			"description ${description}\n"+
			"ip address ${ip_address} ${subnet_mask}\n"+
			"no shutdown\n"+
			"exit\n"+
			"exit",
	)
	iface.Description = "Configures an interface with IP address"
	iface.AddParameter(Parameter{Name: "interface", Type: ParameterTypeInterfaceName, Required: true})
	iface.AddParameter(Parameter{Name: "description", Type: ParameterTypeString})
	iface.AddParameter(Parameter{Name: "ip_address", Type: ParameterTypeIPAddress, Required: true})
	iface.AddParameter(Parameter{Name: "subnet_mask", Type: ParameterTypeIPAddress, Required: true})
	store.Save(iface)

	route := NewConfigTemplate(
		"Cisco IOS Static Route",
		"cisco_ios",
		"configure terminal\n"+
			"ip route ${destination_network} ${subnet_mask} ${next_hop}\n"+
			"exit",
	)
	route.Description = "Adds a static route"
	route.AddParameter(Parameter{Name: "destination_network", Type: ParameterTypeIPAddress, Required: true})
	route.AddParameter(Parameter{Name: "subnet_mask", Type: ParameterTypeIPAddress, Required: true})
	route.AddParameter(Parameter{Name: "next_hop", Type: ParameterTypeIPAddress, Required: true})
	store.Save(route)

	vxlan := NewConfigTemplate(
		"Cisco NX-OS VXLAN Configuration",
		"cisco_nxos",
		"configure terminal\n"+
			"feature nv overlay\n"+
			"feature vn-segment-vlan-based\n"+
			"vlan ${vlan_id}\n"+
			"vn-segment ${vni}\n"+
			"exit\n"+
			"interface nve1\n"+
			"no shutdown\n"+
			"source-interface loopback${loopback_id}\n"+
			"member vni ${vni}\n"+
			"ingress-replication protocol bgp\n"+
			"exit\n"+
			"exit",
	)
	vxlan.Description = "Configures VXLAN on Cisco NX-OS"
	vxlan.AddParameter(Parameter{Name: "vlan_id", Type: ParameterTypeVLANID, Required: true})
	vxlan.AddParameter(Parameter{Name: "vni", Type: ParameterTypeInteger, Required: true})
	vxlan.AddParameter(Parameter{Name: "loopback_id", Type: ParameterTypeInteger, Required: true})
	store.Save(vxlan)
}
