// Package testserver runs the full HTTP stack over an in-memory SQLite
// store for end-to-end tests.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/fleetd/internal/app"
	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/rpggio/fleetd/internal/sqlite"
	"github.com/rpggio/fleetd/internal/store"
	"github.com/rpggio/fleetd/internal/tenant"
	"github.com/rpggio/fleetd/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       docstore.Store
	Keys     *tenant.APIKeyResolver
	Token    string
	TenantID string
}

// RPCResponse is a decoded JSON-RPC response.
type RPCResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

type RPCError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data"`
}

func New(t *testing.T, token, tenantID string) *TestServer {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background(), db))

	keys := tenant.NewAPIKeyResolver(db)
	server := httptest.NewServer(transport.NewServer(transport.Options{
		Handler: app.NewHandler(db, nil),
		Auth:    transport.AuthMiddleware(keys),
	}))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Keys:     keys,
		Token:    token,
		TenantID: tenantID,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return ts.Keys.AddKey(context.Background(), token, tenantID, "test")
}

// Call posts a JSON-RPC request with the server's token.
func (ts *TestServer) Call(t *testing.T, method string, params any) RPCResponse {
	t.Helper()
	return ts.CallAs(t, ts.Token, method, params)
}

// CallAs posts a JSON-RPC request with token.
func (ts *TestServer) CallAs(t *testing.T, token, method string, params any) RPCResponse {
	t.Helper()

	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"id":      1,
	}
	if params != nil {
		payload["params"] = params
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// Decode calls method and decodes its result into out, failing on an RPC error.
func (ts *TestServer) Decode(t *testing.T, method string, params, out any) {
	t.Helper()
	resp := ts.Call(t, method, params)
	require.Nil(t, resp.Error, "%s: %+v", method, resp.Error)
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Result, out))
	}
}
