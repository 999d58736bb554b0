package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-vnicmap/internal/correlate"
	"go-vnicmap/internal/db"
	"go-vnicmap/internal/inventory"
	"go-vnicmap/internal/models"
	"go-vnicmap/internal/report"
)

func stubMap(_ context.Context, t models.Target) (inventory.Snapshot, models.MappingResult, error) {
	if t.ServerProfile == "broken" {
		return inventory.Snapshot{}, models.MappingResult{}, errors.New("intersight authentication failed")
	}
	snap := inventory.Snapshot{
		Host: models.HostInventory{Host: t.ESXiHost, Switches: []models.SwitchAdapters{
			{Name: "vSwitch0", Adapters: []models.PhysicalAdapter{{Key: "k0", Device: "vmnic0", MAC: "B4:B5:2F:AA:11:22"}}},
			{Name: "vSwitch1"},
		}},
		VNICs: models.VNICInventory{Profile: t.ServerProfile, Adapters: []models.VirtualAdapter{
			{Name: "eth0", MAC: "b4:b5:2f:aa:11:22", FabricID: "A"},
		}},
	}
	return snap, correlate.Correlate(snap.Host, snap.VNICs), nil
}

func newTestApp(t *testing.T) (*fiber.App, *db.Store) {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewApp(store, stubMap, time.Second), store
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestIndexListsTargets(t *testing.T) {
	app, store := newTestApp(t)
	require.NoError(t, store.CreateTarget(&models.Target{Name: "esx01", ESXiHost: "10.10.10.101", ServerProfile: "ESX-demo-1"}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "ESX-demo-1")
}

func TestAdminAddAndDelete(t *testing.T) {
	app, store := newTestApp(t)

	form := url.Values{"name": {"esx02"}, "host": {"10.10.10.102"}, "profile": {"ESX-demo-2"}}
	req := httptest.NewRequest(http.MethodPost, "/admin/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	targets, err := store.ListTargets()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "10.10.10.102", targets[0].ESXiHost)

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/admin/delete/"+strconv.Itoa(int(targets[0].ID)), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	targets, err = store.ListTargets()
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestAdminAddRequiresFields(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/add", strings.NewReader("name=only-name"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMappingPage(t *testing.T) {
	app, store := newTestApp(t)
	target := &models.Target{Name: "esx01", ESXiHost: "10.10.10.101", ServerProfile: "ESX-demo-1"}
	require.NoError(t, store.CreateTarget(target))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/targets/"+strconv.Itoa(int(target.ID)), nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	html := body(t, resp)
	assert.Contains(t, html, "vNIC to vmnic mapping for vSwitch *vSwitch0*")
	assert.Contains(t, html, "vNIC to vmnic mapping for vSwitch *vSwitch1*")
	assert.Contains(t, html, "b4:b5:2f:aa:11:22")
	assert.Contains(t, html, "no entries")
}

func TestMappingAPI(t *testing.T) {
	app, store := newTestApp(t)
	target := &models.Target{Name: "esx01", ESXiHost: "10.10.10.101", ServerProfile: "ESX-demo-1"}
	require.NoError(t, store.CreateTarget(target))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/targets/"+strconv.Itoa(int(target.ID))+"/mapping", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc report.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	require.Len(t, doc.Mapping.Switches, 2)
	assert.Equal(t, "eth0", doc.Mapping.Switches[0].Entries[0].VNIC)
	assert.Empty(t, doc.Mapping.Switches[1].Entries)
}

func TestMappingFailures(t *testing.T) {
	app, store := newTestApp(t)
	target := &models.Target{Name: "esx03", ESXiHost: "10.10.10.103", ServerProfile: "broken"}
	require.NoError(t, store.CreateTarget(target))
	id := strconv.Itoa(int(target.ID))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/targets/"+id, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body(t, resp), "intersight authentication failed")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/targets/"+id+"/mapping", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/targets/999", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/targets/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
