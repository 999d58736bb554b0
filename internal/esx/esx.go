// Package esx retrieves the vSwitch and vmnic inventory of an ESXi host,
// either through the vSphere API or by running esxcli over SSH.
package esx

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"go-vnicmap/internal/config"
	"go-vnicmap/internal/models"
)

var (
	ErrNoHostSystem      = errors.New("no host system found")
	ErrNoNetworkConfig   = errors.New("host system has no network configuration")
	ErrUnresolvedAdapter = errors.New("uplink key not found in physical nic list")
	ErrUnexpectedOutput  = errors.New("unexpected esxcli output")
)

// VSwitch is a standard vSwitch as reported by the host, with the keys of its
// uplinks in host order.
type VSwitch struct {
	Name    string
	Uplinks []string
}

// Pnic is one entry of the host physical nic list.
type Pnic struct {
	Key    string
	Device string
	MAC    string
}

// Fetcher returns the inventory of one host.
type Fetcher interface {
	FetchHost(ctx context.Context) (models.HostInventory, error)
}

// New returns the fetcher selected by cfg.Source for host.
func New(cfg config.ESXiConfig, host string) Fetcher {
	if cfg.Source == config.SourceSSH {
		return &SSHFetcher{
			Host:     host,
			Port:     cfg.SSHPort,
			User:     cfg.User,
			Password: cfg.Password,
			Insecure: cfg.Insecure,
		}
	}
	return &VSphereFetcher{
		Host:     host,
		User:     cfg.User,
		Password: cfg.Password,
		Insecure: cfg.Insecure,
	}
}

// BuildSwitches resolves every uplink key against pnics, keeping vSwitch and
// uplink order. Keys with no matching pnic are kept with an empty device and
// MAC and returned in unresolved so they are reported rather than lost.
func BuildSwitches(switches []VSwitch, pnics []Pnic) (out []models.SwitchAdapters, unresolved []string) {
	byKey := make(map[string]Pnic, len(pnics))
	for _, p := range pnics {
		byKey[p.Key] = p
	}

	out = make([]models.SwitchAdapters, 0, len(switches))
	for _, vs := range switches {
		sw := models.SwitchAdapters{Name: vs.Name, Adapters: make([]models.PhysicalAdapter, 0, len(vs.Uplinks))}
		for _, key := range vs.Uplinks {
			adapter := models.PhysicalAdapter{Switch: vs.Name, Key: key}
			if p, ok := byKey[key]; ok {
				adapter.Device = p.Device
				adapter.MAC = p.MAC
			} else {
				unresolved = append(unresolved, key)
			}
			sw.Adapters = append(sw.Adapters, adapter)
		}
		out = append(out, sw)
	}
	return out, unresolved
}

func assemble(host string, switches []VSwitch, pnics []Pnic, logger zerolog.Logger) models.HostInventory {
	built, unresolved := BuildSwitches(switches, pnics)
	for _, key := range unresolved {
		logger.Warn().Err(ErrUnresolvedAdapter).Str("key", key).Msg("uplink left without device and MAC")
	}
	logger.Info().Int("vswitches", len(built)).Int("pnics", len(pnics)).Msg("host inventory fetched")
	return models.HostInventory{Host: host, Switches: built}
}
