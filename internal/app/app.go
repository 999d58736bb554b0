// Package app wires the configured inventory collaborators together.
package app

import (
	"context"

	"go-vnicmap/internal/config"
	"go-vnicmap/internal/esx"
	"go-vnicmap/internal/intersight"
	"go-vnicmap/internal/inventory"
	"go-vnicmap/internal/models"
)

// Mapper fetches and correlates inventories for any host/profile pair using
// one set of credentials.
type Mapper struct {
	esxCfg     config.ESXiConfig
	intersight *intersight.Client
}

func NewMapper(cfg *config.Config) (*Mapper, error) {
	client, err := intersight.New(cfg.Intersight)
	if err != nil {
		return nil, err
	}
	return &Mapper{esxCfg: cfg.ESXi, intersight: client}, nil
}

// Sources returns the two collaborators for host and profile.
func (m *Mapper) Sources(host, profile string) (inventory.HostFetcher, inventory.VNICFetcher) {
	return esx.New(m.esxCfg, host), &intersight.Fetcher{Client: m.intersight, Profile: profile}
}

func (m *Mapper) Map(ctx context.Context, host, profile string) (inventory.Snapshot, models.MappingResult, error) {
	hosts, vnics := m.Sources(host, profile)
	return inventory.Map(ctx, hosts, vnics)
}

// MapTarget adapts Map to a stored target.
func (m *Mapper) MapTarget(ctx context.Context, t models.Target) (inventory.Snapshot, models.MappingResult, error) {
	return m.Map(ctx, t.ESXiHost, t.ServerProfile)
}
