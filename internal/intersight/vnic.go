package intersight

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go-vnicmap/internal/logging"
	"go-vnicmap/internal/models"
)

const (
	profilesPath = "/api/v1/server/Profiles"
	ethIfsPath   = "/api/v1/vnic/EthIfs"
	pageSize     = "1000"
)

type profileList struct {
	Results []struct {
		Moid string `json:"Moid"`
		Name string `json:"Name"`
	} `json:"Results"`
}

type ethIfList struct {
	Results []ethIf `json:"Results"`
}

type ethIf struct {
	Name       string `json:"Name"`
	MacAddress string `json:"MacAddress"`
	Placement  struct {
		SwitchID string `json:"SwitchId"`
	} `json:"Placement"`
}

// ProfileMoid returns the managed object id of the server profile called name.
func (c *Client) ProfileMoid(ctx context.Context, name string) (string, error) {
	query := url.Values{}
	query.Set("$filter", fmt.Sprintf("Name eq '%s'", escapeODataString(name)))
	query.Set("$select", "Moid,Name")

	var list profileList
	if err := c.get(ctx, profilesPath, query, &list); err != nil {
		return "", fmt.Errorf("lookup server profile %q: %w", name, err)
	}
	if len(list.Results) == 0 || list.Results[0].Moid == "" {
		return "", fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return list.Results[0].Moid, nil
}

// VNICs lists the Ethernet vNICs attached to the profile, in API order. MAC
// addresses are lowercased here.
func (c *Client) VNICs(ctx context.Context, profileMoid string) ([]models.VirtualAdapter, error) {
	query := url.Values{}
	query.Set("$filter", fmt.Sprintf("Profile.Moid eq '%s'", escapeODataString(profileMoid)))
	query.Set("$top", pageSize)

	var list ethIfList
	if err := c.get(ctx, ethIfsPath, query, &list); err != nil {
		return nil, fmt.Errorf("list vnics of profile %s: %w", profileMoid, err)
	}

	out := make([]models.VirtualAdapter, 0, len(list.Results))
	for _, vnic := range list.Results {
		out = append(out, models.VirtualAdapter{
			Name:     vnic.Name,
			MAC:      strings.ToLower(vnic.MacAddress),
			FabricID: vnic.Placement.SwitchID,
		})
	}
	return out, nil
}

func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Fetcher resolves one server profile by name and returns its vNICs.
type Fetcher struct {
	Client  *Client
	Profile string
}

func (f *Fetcher) FetchVNICs(ctx context.Context) (models.VNICInventory, error) {
	logger := logging.WithComponent("intersight").With().Str("profile", f.Profile).Logger()

	moid, err := f.Client.ProfileMoid(ctx, f.Profile)
	if err != nil {
		return models.VNICInventory{}, err
	}
	logger.Debug().Str("moid", moid).Msg("server profile resolved")

	vnics, err := f.Client.VNICs(ctx, moid)
	if err != nil {
		return models.VNICInventory{}, err
	}
	logger.Info().Int("vnics", len(vnics)).Msg("vnic inventory fetched")

	return models.VNICInventory{Profile: f.Profile, Adapters: vnics}, nil
}
