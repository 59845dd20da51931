package testserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rpggio/fleetd/internal/domain/fleet"
	"github.com/rpggio/fleetd/internal/repository"
	"github.com/rpggio/fleetd/internal/store"
	"github.com/rpggio/fleetd/internal/testserver"
	"github.com/stretchr/testify/require"
)

func TestHTTP_SyncScenario(t *testing.T) {
	ts := testserver.New(t, "token-t1", "T1")
	repo := store.NewFleetRepository(ts.DB)
	require.NoError(t, repo.Save(context.Background(), &fleet.Fleet{ID: "F1", Name: "Original", OrganizationID: "T1", TS: 10}))

	var first map[string]any
	ts.Decode(t, "fleet.sync", map[string]any{
		"update": []map[string]any{{"id": "F1", "ts": 5, "name": "X"}},
	}, &first)
	require.NotContains(t, first, "updated")
	require.NotContains(t, first, "removed")
	get := first["get"].([]any)
	require.Len(t, get, 1)
	rec := get[0].(map[string]any)
	require.Equal(t, "F1", rec["id"])
	require.Equal(t, float64(10), rec["ts"])
	require.Equal(t, "Original", rec["name"])

	var second map[string]any
	ts.Decode(t, "fleet.sync", map[string]any{
		"update": []map[string]any{{"id": "F1", "ts": 20, "name": "Y"}},
	}, &second)
	require.Equal(t, map[string]any{"updated": map[string]any{"F1": float64(20)}}, second)

	var view map[string]int64
	ts.Decode(t, "fleet.view", nil, &view)
	require.Equal(t, map[string]int64{"F1": 20}, view)

	stored, err := repo.Get(context.Background(), "F1")
	require.NoError(t, err)
	require.Equal(t, "Y", stored.Name)
}

func TestHTTP_SyncSkipsMalformedRecord(t *testing.T) {
	ts := testserver.New(t, "token-t1", "T1")
	repo := store.NewFleetRepository(ts.DB)
	require.NoError(t, repo.Save(context.Background(), &fleet.Fleet{ID: "gone", Name: "Gone", OrganizationID: "T1", TS: 1}))

	var resp struct {
		Updated map[string]int64 `json:"updated"`
		Removed []string         `json:"removed"`
	}
	ts.Decode(t, "fleet.sync", json.RawMessage(`{
		"update":[{"name":"Good"},{"id":"bad","name":"Bad","ts":5,"created":"13/45/2020"}],
		"remove":["gone"]
	}`), &resp)
	require.Equal(t, []string{"gone"}, resp.Removed)
	require.Len(t, resp.Updated, 1)
	require.NotContains(t, resp.Updated, "bad")

	fleets, err := repo.ListByTenant(context.Background(), "T1")
	require.NoError(t, err)
	require.Len(t, fleets, 1)
	require.Equal(t, "Good", fleets[0].Name)

	_, err = repo.Get(context.Background(), "bad")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHTTP_TenantIsolation(t *testing.T) {
	ts := testserver.New(t, "token-t1", "T1")
	require.NoError(t, ts.AddAPIKey("token-t2", "T2"))

	var saved fleet.Fleet
	ts.Decode(t, "fleet.save", map[string]any{"name": "North"}, &saved)

	resp := ts.CallAs(t, "token-t2", "fleet.get", map[string]any{"id": saved.ID})
	require.Nil(t, resp.Error)
	require.Equal(t, "null", string(resp.Result))

	resp = ts.CallAs(t, "token-t2", "fleet.view", nil)
	require.Equal(t, "{}", string(resp.Result))

	// A foreign record in an update is dropped without a report.
	resp = ts.CallAs(t, "token-t2", "fleet.sync", map[string]any{
		"update": []map[string]any{{"id": saved.ID, "ts": saved.TS + 1, "name": "Stolen", "organizationId": "T1"}},
	})
	require.Nil(t, resp.Error)
	require.Equal(t, "{}", string(resp.Result))

	var got fleet.Fleet
	ts.Decode(t, "fleet.get", map[string]any{"id": saved.ID}, &got)
	require.Equal(t, "North", got.Name)
}

func TestHTTP_Lookups(t *testing.T) {
	ts := testserver.New(t, "token-t1", "T1")

	ts.Decode(t, "district.save", map[string]any{"id": "D1", "name": "Harbor"}, nil)
	ts.Decode(t, "fleet.save", map[string]any{"id": "F1", "name": "North", "districtId": "D1"}, nil)
	for _, name := range []string{"A", "B", "C"} {
		ts.Decode(t, "crew.save", map[string]any{"name": name, "fleetId": "F1", "startDate": "01/02/2024"}, nil)
	}

	var page struct {
		Records []struct {
			Name         string `json:"name"`
			StartDate    string `json:"startDate"`
			FleetName    string `json:"fleetName"`
			DistrictName string `json:"districtName"`
		} `json:"records"`
		TotalCount int64 `json:"totalCount"`
	}
	ts.Decode(t, "crew.lookup", map[string]any{"offset": 1, "limit": 1}, &page)
	require.Equal(t, int64(3), page.TotalCount)
	require.Len(t, page.Records, 1)
	require.Equal(t, "B", page.Records[0].Name)
	require.Equal(t, "01/02/2024", page.Records[0].StartDate)
	require.Equal(t, "North", page.Records[0].FleetName)
	require.Equal(t, "Harbor", page.Records[0].DistrictName)
}

func TestHTTP_Errors(t *testing.T) {
	ts := testserver.New(t, "token-t1", "T1")

	resp := ts.Call(t, "crew.lookup", map[string]any{"limit": -1})
	require.NotNil(t, resp.Error)
	require.Equal(t, "INVALID_INPUT", resp.Error.Data["code"])

	ts.Decode(t, "fleet.save", map[string]any{"name": "North"}, nil)
	resp = ts.Call(t, "fleet.save", map[string]any{"name": "North"})
	require.NotNil(t, resp.Error)
	require.Equal(t, "ALREADY_EXISTS", resp.Error.Data["code"])

	resp = ts.Call(t, "nope", nil)
	require.Equal(t, -32601, resp.Error.Code)
}

func TestHTTP_RejectsUnknownToken(t *testing.T) {
	ts := testserver.New(t, "token-t1", "T1")

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBufferString(`{"jsonrpc":"2.0","method":"fleet.view","id":1}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
