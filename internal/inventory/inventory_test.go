package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-vnicmap/internal/models"
)

type hostFunc func(ctx context.Context) (models.HostInventory, error)

func (f hostFunc) FetchHost(ctx context.Context) (models.HostInventory, error) { return f(ctx) }

type vnicFunc func(ctx context.Context) (models.VNICInventory, error)

func (f vnicFunc) FetchVNICs(ctx context.Context) (models.VNICInventory, error) { return f(ctx) }

var (
	sampleHost = models.HostInventory{Host: "esx01", Switches: []models.SwitchAdapters{{
		Name:     "vSwitch0",
		Adapters: []models.PhysicalAdapter{{Key: "k1", Device: "vmnic0", MAC: "B4:B5:2F:AA:11:22"}},
	}}}
	sampleVNICs = models.VNICInventory{Profile: "p1", Adapters: []models.VirtualAdapter{
		{Name: "eth0", MAC: "b4:b5:2f:aa:11:22", FabricID: "A"},
	}}
)

func TestMap(t *testing.T) {
	hosts := hostFunc(func(context.Context) (models.HostInventory, error) { return sampleHost, nil })
	vnics := vnicFunc(func(context.Context) (models.VNICInventory, error) { return sampleVNICs, nil })

	snap, result, err := Map(context.Background(), hosts, vnics)
	require.NoError(t, err)

	assert.Equal(t, sampleHost, snap.Host)
	assert.Equal(t, sampleVNICs, snap.VNICs)
	require.Len(t, result.Entries(), 1)
	assert.Equal(t, "eth0", result.Entries()[0].VNIC)
}

func TestCollectErrorKinds(t *testing.T) {
	boom := errors.New("connection refused")
	okHost := hostFunc(func(context.Context) (models.HostInventory, error) { return sampleHost, nil })
	okVNICs := vnicFunc(func(context.Context) (models.VNICInventory, error) { return sampleVNICs, nil })

	_, err := Collect(context.Background(),
		hostFunc(func(context.Context) (models.HostInventory, error) { return models.HostInventory{}, boom }),
		okVNICs)
	require.ErrorIs(t, err, ErrHostInventory)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrVNICInventory)

	_, err = Collect(context.Background(), okHost,
		vnicFunc(func(context.Context) (models.VNICInventory, error) { return models.VNICInventory{}, boom }))
	require.ErrorIs(t, err, ErrVNICInventory)
	require.ErrorIs(t, err, boom)
}

func TestCollectCancelsSibling(t *testing.T) {
	boom := errors.New("auth failed")
	hosts := hostFunc(func(ctx context.Context) (models.HostInventory, error) {
		<-ctx.Done()
		return models.HostInventory{}, ctx.Err()
	})
	vnics := vnicFunc(func(context.Context) (models.VNICInventory, error) { return models.VNICInventory{}, boom })

	_, err := Collect(context.Background(), hosts, vnics)
	require.ErrorIs(t, err, ErrVNICInventory)
}
