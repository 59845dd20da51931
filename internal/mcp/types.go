package mcp

// LookupParams selects and pages crew or personnel views. A present ids
// array wins over parentId; with neither, the caller's tenant is used.
type LookupParams struct {
	IDs      []string `json:"ids,omitempty" jsonschema:"exact record ids; an empty array matches nothing"`
	ParentID string   `json:"parentId,omitempty" jsonschema:"fleet id whose records to list"`
	Offset   int64    `json:"offset,omitempty" jsonschema:"records to skip"`
	Limit    int64    `json:"limit" jsonschema:"page size, must be positive"`
}

// IDParams names a single record.
type IDParams struct {
	ID string `json:"id"`
}

// ViewParams takes no arguments.
type ViewParams struct{}

// SyncParams is the client half of a sync exchange. Update entries are fleet
// records with id and ts; each one is decoded on its own during the sync, so
// a malformed entry is skipped rather than failing the call.
type SyncParams struct {
	Update []map[string]any `json:"update,omitempty" jsonschema:"fleet records to upsert; ts 0 inserts"`
	Remove []string         `json:"remove,omitempty" jsonschema:"fleet ids to delete"`
	Get    []string         `json:"get,omitempty" jsonschema:"fleet ids to fetch"`
}

// DeleteResult is the empty object returned by deletes.
type DeleteResult struct{}
