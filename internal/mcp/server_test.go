package mcp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/fleetd/internal/mcp"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, h *mcp.Handler) *sdkmcp.ClientSession {
	t.Helper()
	return connectWithLogger(t, h, nil)
}

func connectWithLogger(t *testing.T, h *mcp.Handler, logger *slog.Logger) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(mcp.Config{
		Handler:       h,
		DefaultTenant: "t1",
		TransportMode: "stdio",
		Logger:        logger,
	})
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestServer_ListsTools(t *testing.T) {
	session := connect(t, newHandler(t))

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{"fleet_view", "fleet_sync", "crew_lookup", "personnel_lookup"}, names)
}

func TestServer_SyncThenView(t *testing.T) {
	session := connect(t, newHandler(t))

	res := callTool(t, session, "fleet_sync", map[string]any{
		"update": []any{map[string]any{"id": "F1", "name": "North", "ts": 0}},
	})
	require.False(t, res.IsError, text(t, res))

	var synced struct {
		Updated map[string]int64 `json:"updated"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &synced))
	require.Contains(t, synced.Updated, "F1")

	res = callTool(t, session, "fleet_view", map[string]any{})
	require.False(t, res.IsError)

	var view map[string]int64
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &view))
	require.Equal(t, synced.Updated["F1"], view["F1"])
}

func TestServer_SyncSkipsMalformedRecord(t *testing.T) {
	session := connect(t, newHandler(t))

	res := callTool(t, session, "fleet_sync", map[string]any{
		"update": []any{
			map[string]any{"id": "F1", "name": "North"},
			map[string]any{"id": "F2", "name": "South", "ts": "abc"},
		},
	})
	require.False(t, res.IsError, text(t, res))

	var synced struct {
		Updated map[string]int64 `json:"updated"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &synced))
	require.Contains(t, synced.Updated, "F1")
	require.NotContains(t, synced.Updated, "F2")
}

func TestServer_LookupErrorIsToolError(t *testing.T) {
	session := connect(t, newHandler(t))

	res := callTool(t, session, "crew_lookup", map[string]any{"limit": 0})
	require.True(t, res.IsError)
	require.Contains(t, text(t, res), "INVALID_INPUT")
}

func TestServer_ReadsDocs(t *testing.T) {
	session := connect(t, newHandler(t))

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "fleetd://docs/sync"})
	require.NoError(t, err)
	require.Contains(t, res.Contents[0].Text, "Fleet sync")
}

func TestServer_TrafficLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	session := connectWithLogger(t, newHandler(t), logger)

	res := callTool(t, session, "fleet_view", map[string]any{})
	require.False(t, res.IsError)

	out := buf.String()
	require.Contains(t, out, "msg=\"mcp request\"")
	require.Contains(t, out, "tool=fleet_view")
	require.Contains(t, out, "tenant_id=t1")
}
