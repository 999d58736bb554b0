package esx

import (
	"context"
	"fmt"
	"net/url"

	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/soap"

	"go-vnicmap/internal/logging"
	"go-vnicmap/internal/models"
)

// VSphereFetcher reads config.network of the host through the vSphere API.
type VSphereFetcher struct {
	Host     string
	User     string
	Password string
	Insecure bool
}

func (f *VSphereFetcher) FetchHost(ctx context.Context) (models.HostInventory, error) {
	logger := logging.WithComponent("esx").With().Str("host", f.Host).Str("source", "vsphere").Logger()

	u, err := soap.ParseURL(f.Host)
	if err != nil {
		return models.HostInventory{}, fmt.Errorf("parse host %q: %w", f.Host, err)
	}
	u.User = url.UserPassword(f.User, f.Password)

	client, err := govmomi.NewClient(ctx, u, f.Insecure)
	if err != nil {
		return models.HostInventory{}, fmt.Errorf("vsphere login %s: %w", f.Host, err)
	}
	defer func() {
		if err := client.Logout(context.Background()); err != nil {
			logger.Debug().Err(err).Msg("vsphere logout failed")
		}
	}()

	m := view.NewManager(client.Client)
	v, err := m.CreateContainerView(ctx, client.ServiceContent.RootFolder, []string{"HostSystem"}, true)
	if err != nil {
		return models.HostInventory{}, fmt.Errorf("create host view: %w", err)
	}
	defer func() {
		_ = v.Destroy(context.Background())
	}()

	var hosts []mo.HostSystem
	if err := v.Retrieve(ctx, []string{"HostSystem"}, []string{"name", "config.network"}, &hosts); err != nil {
		return models.HostInventory{}, fmt.Errorf("retrieve host network config: %w", err)
	}
	if len(hosts) == 0 {
		return models.HostInventory{}, fmt.Errorf("%w on %s", ErrNoHostSystem, f.Host)
	}
	if len(hosts) > 1 {
		logger.Warn().Int("hosts", len(hosts)).Str("using", hosts[0].Name).Msg("endpoint manages several hosts")
	}

	h := hosts[0]
	if h.Config == nil || h.Config.Network == nil {
		return models.HostInventory{}, fmt.Errorf("%w: %s", ErrNoNetworkConfig, h.Name)
	}

	switches := make([]VSwitch, 0, len(h.Config.Network.Vswitch))
	for _, vs := range h.Config.Network.Vswitch {
		switches = append(switches, VSwitch{Name: vs.Name, Uplinks: vs.Pnic})
	}
	pnics := make([]Pnic, 0, len(h.Config.Network.Pnic))
	for _, p := range h.Config.Network.Pnic {
		pnics = append(pnics, Pnic{Key: p.Key, Device: p.Device, MAC: p.Mac})
	}

	return assemble(f.Host, switches, pnics, logger), nil
}
