package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `fleetd keeps fleets, crews, personnel and districts per tenant.

Tools:
- fleet_view: id -> ts for every fleet you own. Call first to see what changed.
- fleet_sync: send {remove, update, get}. Removes run first, then updates, then gets.
  An update with ts 0 is an insert. Otherwise the newer ts wins; on a tie the client wins.
  When the server copy is newer it comes back under get.
- crew_lookup / personnel_lookup: paged views with related names filled in.
  Select by ids, else parentId (a fleet id), else your whole tenant. limit is required.

Docs:
- fleetd://docs/sync
- fleetd://docs/lookup
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "fleetd://docs/sync",
		Name:        "docs_sync",
		Title:       "Fleet sync protocol",
		Description: "How fleet_sync reconciles client and server copies.",
		Content: `# Fleet sync

A client keeps a copy of its fleets and a ts (epoch milliseconds) per fleet.

## Request

    {"remove": ["F9"], "update": [{"id": "F1", "name": "North", "ts": 900}], "get": ["F2"]}

Every section is optional.

## Order

1. remove: each id is deleted. Unknown ids still count as removed.
2. update:
   - ts 0 inserts the record. The server assigns ts and returns it under updated.
   - ts > 0 and the server copy is newer: the server copy is returned under get.
   - otherwise the client copy is stored with its ts and echoed under updated.
3. get: each id is returned once, after anything already queued by update.

## Response

Only non-empty sections are present:

    {"updated": {"F1": 900}, "get": [{"id": "F2", "ts": 1200}]}

A record that fails is left out of the response. It does not fail the batch.
`,
	},
	{
		URI:         "fleetd://docs/lookup",
		Name:        "docs_lookup",
		Title:       "Crew and personnel lookups",
		Description: "Selectors, pagination and joined names.",
		Content: `# Lookups

## Selecting

- ids: exact ids. An empty array matches nothing.
- parentId: every record of one fleet.
- neither: every record of your tenant.

## Paging

offset (default 0) and limit (> 0). totalCount is the match count before paging.

## Joined names

Crews get fleetName and districtName. Personnel also get crewName and
supervisorName ("first second"). A dangling reference leaves the name out.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
