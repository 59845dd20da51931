package mcp

import (
	"context"
	"encoding/json"
	"errors"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var errNoTenant = errors.New("unauthorized: no tenant")

// registerTools exposes the core operations as MCP tools. Each tool runs
// through the same dispatch as the JSON-RPC surface.
func registerTools(server *sdkmcp.Server, h *Handler) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "fleet_view",
		Description: "List the id and timestamp of every fleet owned by the caller",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ViewParams) (*sdkmcp.CallToolResult, any, error) {
		return call(ctx, h, "fleet.view", nil)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "fleet_sync",
		Description: "Reconcile client fleet copies: removes run first, then updates (last write wins on ts), then gets",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SyncParams) (*sdkmcp.CallToolResult, any, error) {
		params, err := json.Marshal(in)
		if err != nil {
			return nil, nil, err
		}
		return call(ctx, h, "fleet.sync", params)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "crew_lookup",
		Description: "Page through crews with fleet and district names resolved",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in LookupParams) (*sdkmcp.CallToolResult, any, error) {
		params, err := json.Marshal(in)
		if err != nil {
			return nil, nil, err
		}
		return call(ctx, h, "crew.lookup", params)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "personnel_lookup",
		Description: "Page through personnel with fleet, district, crew and supervisor names resolved",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in LookupParams) (*sdkmcp.CallToolResult, any, error) {
		params, err := json.Marshal(in)
		if err != nil {
			return nil, nil, err
		}
		return call(ctx, h, "personnel.lookup", params)
	})
}

// call dispatches method for the tenant in ctx and renders the result as
// JSON text content.
func call(ctx context.Context, h *Handler, method string, params json.RawMessage) (*sdkmcp.CallToolResult, any, error) {
	tenantID := getTenantID(ctx)
	if tenantID == "" {
		return nil, nil, errNoTenant
	}

	result, err := h.Handle(ctx, tenantID, method, params)
	if err != nil {
		return nil, nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
