package models

// MappingEntry is one correlated vmnic/vNIC row.
type MappingEntry struct {
	Switch   string `json:"switch" yaml:"switch"`
	Device   string `json:"device" yaml:"device"`
	MAC      string `json:"mac_address" yaml:"mac_address"`
	VNIC     string `json:"vnic" yaml:"vnic"`
	FabricID string `json:"fabric_id" yaml:"fabric_id"`
}

// SwitchMapping groups the entries of one vSwitch. Entries is never nil so a
// switch without matches renders as an empty list.
type SwitchMapping struct {
	Switch  string         `json:"switch" yaml:"switch"`
	Entries []MappingEntry `json:"entries" yaml:"entries"`
}

// Record sources used in RecordError.
const (
	SourceHost = "host"
	SourceVNIC = "vnic"
)

// RecordError reports one inventory record excluded from the join.
type RecordError struct {
	Source string `json:"source" yaml:"source"`
	Switch string `json:"switch,omitempty" yaml:"switch,omitempty"`
	Name   string `json:"name" yaml:"name"`
	MAC    string `json:"mac_address" yaml:"mac_address"`
	Reason string `json:"reason" yaml:"reason"`
	Err    error  `json:"-" yaml:"-"`
}

func (e RecordError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Switch != "" {
		return e.Source + " record " + e.Switch + "/" + e.Name + ": " + msg
	}
	return e.Source + " record " + e.Name + ": " + msg
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// Duplicate is a MAC key carried by more than one vNIC.
type Duplicate struct {
	MAC   string   `json:"mac_address" yaml:"mac_address"`
	VNICs []string `json:"vnics" yaml:"vnics"`
}

// MappingResult is the output of one correlation run.
type MappingResult struct {
	Switches          []SwitchMapping   `json:"switches" yaml:"switches"`
	UnmatchedPhysical []PhysicalAdapter `json:"unmatched_physical" yaml:"unmatched_physical"`
	UnmatchedVirtual  []VirtualAdapter  `json:"unmatched_virtual" yaml:"unmatched_virtual"`
	Duplicates        []Duplicate       `json:"duplicates" yaml:"duplicates"`
	Errors            []RecordError     `json:"errors" yaml:"errors"`
}

// Switch returns the mapping of the named vSwitch.
func (r MappingResult) Switch(name string) (SwitchMapping, bool) {
	for _, sw := range r.Switches {
		if sw.Switch == name {
			return sw, true
		}
	}
	return SwitchMapping{}, false
}

// Entries flattens all switches in order.
func (r MappingResult) Entries() []MappingEntry {
	var out []MappingEntry
	for _, sw := range r.Switches {
		out = append(out, sw.Entries...)
	}
	return out
}
