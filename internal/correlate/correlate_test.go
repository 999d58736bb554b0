package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-vnicmap/internal/macaddr"
	"go-vnicmap/internal/models"
)

func host(switches ...models.SwitchAdapters) models.HostInventory {
	return models.HostInventory{Host: "esx01", Switches: switches}
}

func vnics(adapters ...models.VirtualAdapter) models.VNICInventory {
	return models.VNICInventory{Profile: "esx01-profile", Adapters: adapters}
}

func pnic(key, device, mac string) models.PhysicalAdapter {
	return models.PhysicalAdapter{Key: key, Device: device, MAC: mac}
}

func TestCorrelateScenario(t *testing.T) {
	a := host(models.SwitchAdapters{
		Name:     "switch0",
		Adapters: []models.PhysicalAdapter{pnic("k1", "vmnic0", "B4:B5:2F:AA:11:22")},
	})
	b := vnics(models.VirtualAdapter{Name: "eth0", MAC: "b4:b5:2f:aa:11:22", FabricID: "A"})

	result := Correlate(a, b)

	require.Len(t, result.Switches, 1)
	assert.Equal(t, models.SwitchMapping{
		Switch: "switch0",
		Entries: []models.MappingEntry{{
			Switch:   "switch0",
			Device:   "vmnic0",
			MAC:      "b4:b5:2f:aa:11:22",
			VNIC:     "eth0",
			FabricID: "A",
		}},
	}, result.Switches[0])
	assert.Empty(t, result.UnmatchedPhysical)
	assert.Empty(t, result.UnmatchedVirtual)
	assert.Empty(t, result.Errors)
}

func TestCorrelateNoMatchKeepsSwitch(t *testing.T) {
	a := host(models.SwitchAdapters{
		Name:     "switch0",
		Adapters: []models.PhysicalAdapter{pnic("k1", "vmnic0", "11:22:33:44:55:66")},
	})

	result := Correlate(a, vnics())

	require.Len(t, result.Switches, 1)
	assert.Equal(t, "switch0", result.Switches[0].Switch)
	assert.NotNil(t, result.Switches[0].Entries)
	assert.Empty(t, result.Switches[0].Entries)
	require.Len(t, result.UnmatchedPhysical, 1)
	assert.Equal(t, "vmnic0", result.UnmatchedPhysical[0].Device)
	assert.Equal(t, "switch0", result.UnmatchedPhysical[0].Switch)
}

func TestCorrelateEmptyInventories(t *testing.T) {
	result := Correlate(host(), vnics())

	assert.Empty(t, result.Switches)
	assert.Empty(t, result.Entries())
	assert.Empty(t, result.Errors)

	result = Correlate(host(models.SwitchAdapters{Name: "vSwitch0"}, models.SwitchAdapters{Name: "vSwitch1"}), vnics())
	require.Len(t, result.Switches, 2)
	assert.Equal(t, "vSwitch0", result.Switches[0].Switch)
	assert.Equal(t, "vSwitch1", result.Switches[1].Switch)
}

func TestCorrelateCaseInsensitive(t *testing.T) {
	a := host(models.SwitchAdapters{
		Name:     "vSwitch0",
		Adapters: []models.PhysicalAdapter{pnic("k1", "vmnic0", "AA:BB:CC:DD:EE:FF")},
	})
	b := vnics(models.VirtualAdapter{Name: "eth0", MAC: "aa:bb:cc:dd:ee:ff", FabricID: "A"})

	result := Correlate(a, b)

	entries := result.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "eth0", entries[0].VNIC)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", entries[0].MAC)
}

func TestCorrelateFanOut(t *testing.T) {
	a := host(models.SwitchAdapters{
		Name: "vSwitch0",
		Adapters: []models.PhysicalAdapter{
			pnic("k1", "vmnic0", "00:11:22:33:44:55"),
			pnic("k2", "vmnic1", "00:11:22:33:44:66"),
		},
	})
	b := vnics(
		models.VirtualAdapter{Name: "eth-b", MAC: "00:11:22:33:44:55", FabricID: "B"},
		models.VirtualAdapter{Name: "eth1", MAC: "00:11:22:33:44:66", FabricID: "B"},
		models.VirtualAdapter{Name: "eth-a", MAC: "00:11:22:33:44:55", FabricID: "A"},
	)

	result := Correlate(a, b)

	sw, ok := result.Switch("vSwitch0")
	require.True(t, ok)
	require.Len(t, sw.Entries, 3)
	assert.Equal(t, "vmnic0", sw.Entries[0].Device)
	assert.Equal(t, "eth-b", sw.Entries[0].VNIC)
	assert.Equal(t, "vmnic0", sw.Entries[1].Device)
	assert.Equal(t, "eth-a", sw.Entries[1].VNIC)
	assert.Equal(t, "vmnic1", sw.Entries[2].Device)
	assert.Equal(t, "eth1", sw.Entries[2].VNIC)

	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, models.Duplicate{MAC: "00:11:22:33:44:55", VNICs: []string{"eth-b", "eth-a"}}, result.Duplicates[0])
	assert.Empty(t, result.Errors)
}

func TestCorrelateNoFanInLoss(t *testing.T) {
	a := host(
		models.SwitchAdapters{Name: "vSwitch0", Adapters: []models.PhysicalAdapter{pnic("k1", "vmnic0", "00:25:b5:00:00:1f")}},
		models.SwitchAdapters{Name: "vSwitch1", Adapters: []models.PhysicalAdapter{pnic("k2", "vmnic4", "00:25:B5:00:00:1F")}},
	)
	b := vnics(models.VirtualAdapter{Name: "vnic-a", MAC: "00:25:b5:00:00:1f", FabricID: "A"})

	result := Correlate(a, b)

	require.Len(t, result.Switches, 2)
	for _, sw := range result.Switches {
		require.Len(t, sw.Entries, 1, sw.Switch)
		assert.Equal(t, "vnic-a", sw.Entries[0].VNIC)
	}
	assert.Empty(t, result.UnmatchedVirtual)
}

func TestCorrelateMalformedIsolation(t *testing.T) {
	a := host(models.SwitchAdapters{
		Name: "vSwitch0",
		Adapters: []models.PhysicalAdapter{
			pnic("k1", "vmnic0", "zz:zz:zz:zz:zz:zz"),
			pnic("k2", "vmnic1", "00:25:b5:00:00:2f"),
			pnic("key-vim.host.PhysicalNic-vmnic9", "", ""),
		},
	})
	b := vnics(
		models.VirtualAdapter{Name: "bad", MAC: "not-a-mac", FabricID: "A"},
		models.VirtualAdapter{Name: "vnic-b", MAC: "00:25:b5:00:00:2f", FabricID: "B"},
	)

	result := Correlate(a, b)

	entries := result.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "vmnic1", entries[0].Device)
	assert.Equal(t, "vnic-b", entries[0].VNIC)

	require.Len(t, result.Errors, 3)
	for _, recErr := range result.Errors {
		assert.ErrorIs(t, recErr, macaddr.ErrMalformedAddress)
		assert.NotEmpty(t, recErr.Reason)
	}
	assert.Equal(t, models.SourceVNIC, result.Errors[0].Source)
	assert.Equal(t, "bad", result.Errors[0].Name)
	assert.Equal(t, models.SourceHost, result.Errors[1].Source)
	assert.Equal(t, "vmnic0", result.Errors[1].Name)
	assert.Equal(t, "key-vim.host.PhysicalNic-vmnic9", result.Errors[2].Name)
	assert.Empty(t, result.UnmatchedVirtual)
}

func TestCorrelateUnmatchedVirtualOrder(t *testing.T) {
	a := host(models.SwitchAdapters{
		Name:     "vSwitch0",
		Adapters: []models.PhysicalAdapter{pnic("k1", "vmnic0", "00:00:00:00:00:02")},
	})
	b := vnics(
		models.VirtualAdapter{Name: "first", MAC: "00:00:00:00:00:01"},
		models.VirtualAdapter{Name: "matched", MAC: "00:00:00:00:00:02"},
		models.VirtualAdapter{Name: "third", MAC: "00:00:00:00:00:03"},
		models.VirtualAdapter{Name: "fourth", MAC: "00:00:00:00:00:01"},
	)

	result := Correlate(a, b)

	names := make([]string, 0, len(result.UnmatchedVirtual))
	for _, v := range result.UnmatchedVirtual {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"first", "third", "fourth"}, names)
}

func TestCorrelateIdempotent(t *testing.T) {
	a := host(
		models.SwitchAdapters{Name: "vSwitch0", Adapters: []models.PhysicalAdapter{
			pnic("k1", "vmnic0", "00:25:B5:00:00:1F"),
			pnic("k2", "vmnic1", "00:25:B5:00:00:2F"),
		}},
		models.SwitchAdapters{Name: "vSwitch1"},
	)
	b := vnics(
		models.VirtualAdapter{Name: "vnic-a", MAC: "00:25:b5:00:00:1f", FabricID: "A"},
		models.VirtualAdapter{Name: "vnic-b", MAC: "00:25:b5:00:00:2f", FabricID: "B"},
	)

	first := Correlate(a, b)
	second := Correlate(a, b)

	assert.Equal(t, first, second)
	assert.Equal(t, "00:25:B5:00:00:1F", a.Switches[0].Adapters[0].MAC)
}
