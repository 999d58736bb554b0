// Package correlate joins host vmnic inventories with server profile vNIC
// inventories on the normalized MAC address.
package correlate

import (
	"go-vnicmap/internal/macaddr"
	"go-vnicmap/internal/models"
)

// HostSource produces an ordered vSwitch to adapter collection.
type HostSource interface {
	SwitchList() []models.SwitchAdapters
}

// VNICSource produces an ordered virtual adapter collection.
type VNICSource interface {
	VirtualAdapters() []models.VirtualAdapter
}

type vnicIndex struct {
	byKey   map[macaddr.Key][]int
	order   []macaddr.Key
	valid   []bool
	matched []bool
}

// Correlate matches every physical adapter against the virtual adapters that
// carry the same MAC key. The inputs are only read; the result shares no
// slices with them.
//
// Each vSwitch of hosts appears in the result, in order, even without matches.
// A physical adapter matching several vNICs yields one entry per vNIC in vNIC
// order. Records whose MAC does not normalize are reported in Errors and take
// no part in the join.
func Correlate(hosts HostSource, vnics VNICSource) models.MappingResult {
	result := models.MappingResult{
		Switches:          []models.SwitchMapping{},
		UnmatchedPhysical: []models.PhysicalAdapter{},
		UnmatchedVirtual:  []models.VirtualAdapter{},
		Duplicates:        []models.Duplicate{},
		Errors:            []models.RecordError{},
	}

	virtual := vnics.VirtualAdapters()
	idx := buildIndex(virtual, &result)

	for _, sw := range hosts.SwitchList() {
		mapping := models.SwitchMapping{Switch: sw.Name, Entries: []models.MappingEntry{}}
		for _, pnic := range sw.Adapters {
			key, err := macaddr.Normalize(pnic.MAC)
			if err != nil {
				result.Errors = append(result.Errors, models.RecordError{
					Source: models.SourceHost,
					Switch: sw.Name,
					Name:   adapterName(pnic),
					MAC:    pnic.MAC,
					Reason: err.Error(),
					Err:    err,
				})
				continue
			}
			hits := idx.byKey[key]
			if len(hits) == 0 {
				adapter := pnic
				adapter.Switch = sw.Name
				result.UnmatchedPhysical = append(result.UnmatchedPhysical, adapter)
				continue
			}
			for _, i := range hits {
				idx.matched[i] = true
				mapping.Entries = append(mapping.Entries, models.MappingEntry{
					Switch:   sw.Name,
					Device:   pnic.Device,
					MAC:      key.String(),
					VNIC:     virtual[i].Name,
					FabricID: virtual[i].FabricID,
				})
			}
		}
		result.Switches = append(result.Switches, mapping)
	}

	for i, vnic := range virtual {
		if idx.valid[i] && !idx.matched[i] {
			result.UnmatchedVirtual = append(result.UnmatchedVirtual, vnic)
		}
	}

	return result
}

// buildIndex maps each MAC key to the positions of the vNICs carrying it,
// keeping insertion order, and records malformed and duplicate keys.
func buildIndex(virtual []models.VirtualAdapter, result *models.MappingResult) vnicIndex {
	idx := vnicIndex{
		byKey:   make(map[macaddr.Key][]int, len(virtual)),
		valid:   make([]bool, len(virtual)),
		matched: make([]bool, len(virtual)),
	}
	for i, vnic := range virtual {
		key, err := macaddr.Normalize(vnic.MAC)
		if err != nil {
			result.Errors = append(result.Errors, models.RecordError{
				Source: models.SourceVNIC,
				Name:   vnic.Name,
				MAC:    vnic.MAC,
				Reason: err.Error(),
				Err:    err,
			})
			continue
		}
		idx.valid[i] = true
		if _, seen := idx.byKey[key]; !seen {
			idx.order = append(idx.order, key)
		}
		idx.byKey[key] = append(idx.byKey[key], i)
	}

	for _, key := range idx.order {
		hits := idx.byKey[key]
		if len(hits) < 2 {
			continue
		}
		dup := models.Duplicate{MAC: key.String(), VNICs: make([]string, 0, len(hits))}
		for _, i := range hits {
			dup.VNICs = append(dup.VNICs, virtual[i].Name)
		}
		result.Duplicates = append(result.Duplicates, dup)
	}
	return idx
}

func adapterName(pnic models.PhysicalAdapter) string {
	if pnic.Device != "" {
		return pnic.Device
	}
	return pnic.Key
}
