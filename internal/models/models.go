package models

// Target is a host/profile pair managed from the web admin page.
type Target struct {
	ID            uint `gorm:"primaryKey"`
	Name          string
	ESXiHost      string
	ServerProfile string
}

// PhysicalAdapter is one vmnic bound to a vSwitch. Key identifies the adapter
// in the switch's pnic list; after enrichment only MAC is used for matching.
type PhysicalAdapter struct {
	Switch string `json:"switch" yaml:"switch"`
	Key    string `json:"key" yaml:"key"`
	Device string `json:"device" yaml:"device"`
	MAC    string `json:"mac_address" yaml:"mac_address"`
}

// SwitchAdapters holds the adapters of one vSwitch in enumeration order.
type SwitchAdapters struct {
	Name     string            `json:"name" yaml:"name"`
	Adapters []PhysicalAdapter `json:"adapters" yaml:"adapters"`
}

// HostInventory is the ordered vSwitch list of one ESXi host.
type HostInventory struct {
	Host     string           `json:"host" yaml:"host"`
	Switches []SwitchAdapters `json:"switches" yaml:"switches"`
}

// VirtualAdapter is one vNIC defined on a server profile.
type VirtualAdapter struct {
	Name     string `json:"name" yaml:"name"`
	MAC      string `json:"mac_address" yaml:"mac_address"`
	FabricID string `json:"fabric_id" yaml:"fabric_id"`
}

// VNICInventory is the ordered vNIC list of one server profile.
type VNICInventory struct {
	Profile  string           `json:"profile" yaml:"profile"`
	Adapters []VirtualAdapter `json:"adapters" yaml:"adapters"`
}

// SwitchList returns the vSwitches in discovery order.
func (h HostInventory) SwitchList() []SwitchAdapters {
	return h.Switches
}

// VirtualAdapters returns the vNICs in API order.
func (v VNICInventory) VirtualAdapters() []VirtualAdapter {
	return v.Adapters
}
