package docstore_test

import (
	"encoding/json"
	"testing"

	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/stretchr/testify/require"
)

func TestDocument_Lookup(t *testing.T) {
	doc := docstore.Document{
		"id":    "c1",
		"fleet": map[string]any{"name": "North", "district": docstore.Document{"name": "Harbor"}},
	}

	v, ok := doc.Lookup("fleet.name")
	require.True(t, ok)
	require.Equal(t, "North", v)

	v, ok = doc.Lookup("fleet.district.name")
	require.True(t, ok)
	require.Equal(t, "Harbor", v)

	_, ok = doc.Lookup("fleet.missing")
	require.False(t, ok)
	_, ok = doc.Lookup("id.nested")
	require.False(t, ok)
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := docstore.Document{"nested": map[string]any{"a": "b"}, "list": []any{"x"}}
	cp := doc.Clone()
	cp["nested"].(map[string]any)["a"] = "changed"
	cp["list"].([]any)[0] = "y"

	require.Equal(t, "b", doc["nested"].(map[string]any)["a"])
	require.Equal(t, "x", doc["list"].([]any)[0])
}

func TestEncode_KeepsInt64Precision(t *testing.T) {
	in := struct {
		ID string `json:"id"`
		TS int64  `json:"ts"`
	}{ID: "f1", TS: 9007199254740993}

	doc, err := docstore.Encode(in)
	require.NoError(t, err)
	require.Equal(t, json.Number("9007199254740993"), doc["ts"])

	n, ok := docstore.AsInt64(doc["ts"])
	require.True(t, ok)
	require.Equal(t, int64(9007199254740993), n)
}

func TestFilter_MatchesAcrossNumericTypes(t *testing.T) {
	doc := docstore.Document{"ts": json.Number("10"), "name": "x"}

	require.True(t, docstore.Filter{docstore.Eq("ts", int64(10))}.Matches(doc))
	require.True(t, docstore.Filter{docstore.Eq("ts", 10.0)}.Matches(doc))
	require.True(t, docstore.Filter{docstore.In("name", []string{"y", "x"})}.Matches(doc))
	require.False(t, docstore.Filter{docstore.Eq("name", "y")}.Matches(doc))
	require.False(t, docstore.Filter{docstore.Eq("missing", "x")}.Matches(doc))
	require.True(t, docstore.Filter(nil).Matches(doc))
}

func TestIndex_Conflicts(t *testing.T) {
	idx := docstore.Index{Fields: []string{"organizationId", "name"}, Unique: true}

	a := docstore.Document{"id": "1", "organizationId": "t1", "name": "N"}
	require.True(t, idx.Conflicts(a, docstore.Document{"id": "2", "organizationId": "t1", "name": "N"}))
	require.False(t, idx.Conflicts(a, docstore.Document{"id": "1", "organizationId": "t1", "name": "N"}))
	require.False(t, idx.Conflicts(a, docstore.Document{"id": "2", "organizationId": "t2", "name": "N"}))
	require.False(t, idx.Conflicts(a, docstore.Document{"id": "2", "organizationId": "t1"}))
}
