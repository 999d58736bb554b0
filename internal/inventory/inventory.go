// Package inventory fetches the host and vNIC inventories a mapping run
// correlates.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"go-vnicmap/internal/correlate"
	"go-vnicmap/internal/models"
)

var (
	// ErrHostInventory wraps failures of the host inventory collaborator.
	ErrHostInventory = errors.New("host inventory unavailable")
	// ErrVNICInventory wraps failures of the vNIC inventory collaborator.
	ErrVNICInventory = errors.New("vnic inventory unavailable")
)

type HostFetcher interface {
	FetchHost(ctx context.Context) (models.HostInventory, error)
}

type VNICFetcher interface {
	FetchVNICs(ctx context.Context) (models.VNICInventory, error)
}

// Snapshot holds both inventories of one run.
type Snapshot struct {
	Host  models.HostInventory
	VNICs models.VNICInventory
}

// Collect runs both fetches concurrently. The fetches share nothing, so the
// first failure cancels the other and is returned wrapped in the error kind of
// its collaborator.
func Collect(ctx context.Context, hosts HostFetcher, vnics VNICFetcher) (Snapshot, error) {
	var snap Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		inv, err := hosts.FetchHost(gctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrHostInventory, err)
		}
		snap.Host = inv
		return nil
	})
	g.Go(func() error {
		inv, err := vnics.FetchVNICs(gctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrVNICInventory, err)
		}
		snap.VNICs = inv
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Map collects both inventories and correlates them.
func Map(ctx context.Context, hosts HostFetcher, vnics VNICFetcher) (Snapshot, models.MappingResult, error) {
	snap, err := Collect(ctx, hosts, vnics)
	if err != nil {
		return Snapshot{}, models.MappingResult{}, err
	}
	return snap, correlate.Correlate(snap.Host, snap.VNICs), nil
}
