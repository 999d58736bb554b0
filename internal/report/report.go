// Package report projects inventories and mapping results into tables and
// renders them as terminal tables, JSON or YAML.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"go-vnicmap/internal/inventory"
	"go-vnicmap/internal/models"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

var ErrUnknownFormat = errors.New("unknown output format")

var mappingHeaders = []string{"vSwitch", "vNIC", "vmnic", "MAC Address", "Fabric Interconnect"}

// Table is a titled grid of strings, ready for any renderer.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Document is the structured form written for json and yaml output.
type Document struct {
	Host    models.HostInventory `json:"host_inventory" yaml:"host_inventory"`
	VNICs   models.VNICInventory `json:"vnic_inventory" yaml:"vnic_inventory"`
	Mapping models.MappingResult `json:"mapping" yaml:"mapping"`
}

// HostTable lists every vmnic per vSwitch.
func HostTable(inv models.HostInventory) Table {
	t := Table{
		Title:   fmt.Sprintf("vSwitch and vmnic of ESXi host *%s*", inv.Host),
		Headers: []string{"vSwitch", "vmnic", "vmnic MAC Address"},
	}
	for _, sw := range inv.Switches {
		for _, a := range sw.Adapters {
			t.Rows = append(t.Rows, []string{sw.Name, a.Device, a.MAC})
		}
	}
	return t
}

// VNICTable lists the vNICs of the server profile.
func VNICTable(inv models.VNICInventory) Table {
	t := Table{
		Title:   fmt.Sprintf("vNIC of UCS host with server profile *%s*", inv.Profile),
		Headers: []string{"vNIC", "Fabric Interconnect", "MAC Address"},
	}
	for _, v := range inv.Adapters {
		t.Rows = append(t.Rows, []string{v.Name, v.FabricID, v.MAC})
	}
	return t
}

// MappingTables returns one table per vSwitch, in result order. Switches
// without matches yield a table with no rows.
func MappingTables(result models.MappingResult) []Table {
	tables := make([]Table, 0, len(result.Switches))
	for _, sw := range result.Switches {
		t := Table{
			Title:   fmt.Sprintf("vNIC to vmnic mapping for vSwitch *%s*", sw.Switch),
			Headers: mappingHeaders,
			Rows:    make([][]string, 0, len(sw.Entries)),
		}
		for _, e := range sw.Entries {
			t.Rows = append(t.Rows, []string{sw.Switch, e.VNIC, e.Device, e.MAC, e.FabricID})
		}
		tables = append(tables, t)
	}
	return tables
}

// DiagnosticTables reports what the join left out. Empty sections are
// omitted.
func DiagnosticTables(result models.MappingResult) []Table {
	var tables []Table
	if len(result.UnmatchedPhysical) > 0 {
		t := Table{Title: "vmnics without a matching vNIC", Headers: []string{"vSwitch", "vmnic", "MAC Address"}}
		for _, a := range result.UnmatchedPhysical {
			t.Rows = append(t.Rows, []string{a.Switch, a.Device, a.MAC})
		}
		tables = append(tables, t)
	}
	if len(result.UnmatchedVirtual) > 0 {
		t := Table{Title: "vNICs without a matching vmnic", Headers: []string{"vNIC", "Fabric Interconnect", "MAC Address"}}
		for _, v := range result.UnmatchedVirtual {
			t.Rows = append(t.Rows, []string{v.Name, v.FabricID, v.MAC})
		}
		tables = append(tables, t)
	}
	if len(result.Duplicates) > 0 {
		t := Table{Title: "MAC addresses shared by several vNICs", Headers: []string{"MAC Address", "vNICs"}}
		for _, d := range result.Duplicates {
			t.Rows = append(t.Rows, []string{d.MAC, strings.Join(d.VNICs, ", ")})
		}
		tables = append(tables, t)
	}
	if len(result.Errors) > 0 {
		t := Table{Title: "Records excluded from the mapping", Headers: []string{"Source", "vSwitch", "Name", "MAC Address", "Reason"}}
		for _, e := range result.Errors {
			t.Rows = append(t.Rows, []string{e.Source, e.Switch, e.Name, e.MAC, e.Reason})
		}
		tables = append(tables, t)
	}
	return tables
}

// Write renders the full run in format.
func Write(w io.Writer, format string, snap inventory.Snapshot, result models.MappingResult) error {
	switch format {
	case FormatTable, "":
		tables := []Table{HostTable(snap.Host), VNICTable(snap.VNICs)}
		tables = append(tables, MappingTables(result)...)
		tables = append(tables, DiagnosticTables(result)...)
		return WriteTables(w, tables)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Document{Host: snap.Host, VNICs: snap.VNICs, Mapping: result})
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(Document{Host: snap.Host, VNICs: snap.VNICs, Mapping: result}); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

const rule = "-----------------------------------------------------------"

// WriteTables renders each table under a ruled title.
func WriteTables(w io.Writer, tables []Table) error {
	for _, t := range tables {
		grid := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(t.Headers...).
			Rows(t.Rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		if _, err := fmt.Fprintf(w, "%s\n%s\n%s\n%s\n\n", rule, titleStyle.Render(t.Title), rule, grid.Render()); err != nil {
			return err
		}
	}
	return nil
}
