package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/fleetd/internal/domain/fleet"
)

// ErrMalformedRecord is recorded for an update entry that does not decode
// into a fleet.
var ErrMalformedRecord = errors.New("malformed fleet record")

// Request is the client half of a sync exchange. Every section is optional.
type Request struct {
	Update []Record `json:"update,omitempty"`
	Remove []string `json:"remove,omitempty"`
	Get    []string `json:"get,omitempty"`
}

// Record is one update entry. It keeps the entry's raw JSON until Sync
// decodes it, so a malformed entry fails on its own.
type Record struct {
	raw json.RawMessage
}

// Records wraps typed fleets as update entries.
func Records(fleets ...fleet.Fleet) []Record {
	out := make([]Record, 0, len(fleets))
	for _, f := range fleets {
		data, _ := json.Marshal(f)
		out = append(out, Record{raw: data})
	}
	return out
}

func (r *Record) UnmarshalJSON(data []byte) error {
	r.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.raw) == 0 {
		return []byte("null"), nil
	}
	return r.raw, nil
}

func (r Record) decode() (fleet.Fleet, error) {
	var f fleet.Fleet
	if len(r.raw) == 0 {
		return f, ErrMalformedRecord
	}
	if err := json.Unmarshal(r.raw, &f); err != nil {
		return fleet.Fleet{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return f, nil
}

// id recovers the entry's id for logging when the full decode failed.
func (r Record) id() string {
	var head struct {
		ID any `json:"id"`
	}
	if json.Unmarshal(r.raw, &head) != nil {
		return ""
	}
	if s, ok := head.ID.(string); ok {
		return s
	}
	return ""
}

// Response carries only the sections that have something to report; empty
// sections are left nil so they are omitted on the wire.
type Response struct {
	Updated map[string]int64 `json:"updated,omitempty"`
	Removed []string         `json:"removed,omitempty"`
	Get     []fleet.Fleet    `json:"get,omitempty"`
}

func (r *Response) markUpdated(id string, ts int64) {
	if r.Updated == nil {
		r.Updated = make(map[string]int64)
	}
	r.Updated[id] = ts
}
