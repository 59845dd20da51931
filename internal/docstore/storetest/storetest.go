// Package storetest holds the behaviour every docstore backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/stretchr/testify/require"
)

// Factory opens an empty store. The store is closed by the suite.
type Factory func(t *testing.T) docstore.Store

// Run exercises a backend through the docstore.Store contract.
func Run(t *testing.T, open Factory) {
	t.Run("PutGet", func(t *testing.T) { testPutGet(t, open(t)) })
	t.Run("PutReplaces", func(t *testing.T) { testPutReplaces(t, open(t)) })
	t.Run("DeleteMissing", func(t *testing.T) { testDeleteMissing(t, open(t)) })
	t.Run("FindFilterAndOrder", func(t *testing.T) { testFind(t, open(t)) })
	t.Run("UniqueIndex", func(t *testing.T) { testUniqueIndex(t, open(t)) })
	t.Run("AggregateJoin", func(t *testing.T) { testAggregateJoin(t, open(t)) })
	t.Run("AggregateCount", func(t *testing.T) { testAggregateCount(t, open(t)) })
}

func put(t *testing.T, s docstore.Store, coll string, doc docstore.Document) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), coll, doc))
}

func testPutGet(t *testing.T, s docstore.Store) {
	defer s.Close()
	ctx := context.Background()

	put(t, s, "fleets", docstore.Document{"id": "f1", "name": "North", "ts": int64(1700000000123)})

	doc, err := s.Get(ctx, "fleets", "f1")
	require.NoError(t, err)
	require.Equal(t, "f1", doc.ID())
	require.Equal(t, "North", doc["name"])

	var out struct {
		TS int64 `json:"ts"`
	}
	require.NoError(t, doc.Decode(&out))
	require.Equal(t, int64(1700000000123), out.TS)

	_, err = s.Get(ctx, "fleets", "missing")
	require.ErrorIs(t, err, docstore.ErrNotFound)

	require.ErrorIs(t, s.Put(ctx, "fleets", docstore.Document{"name": "no id"}), docstore.ErrMissingID)
}

func testPutReplaces(t *testing.T, s docstore.Store) {
	defer s.Close()
	ctx := context.Background()

	put(t, s, "fleets", docstore.Document{"id": "f1", "name": "North", "districtId": "d1"})
	put(t, s, "fleets", docstore.Document{"id": "f1", "name": "South"})

	doc, err := s.Get(ctx, "fleets", "f1")
	require.NoError(t, err)
	require.Equal(t, "South", doc["name"])
	_, ok := doc["districtId"]
	require.False(t, ok)

	n, err := s.Count(ctx, "fleets", nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func testDeleteMissing(t *testing.T, s docstore.Store) {
	defer s.Close()
	ctx := context.Background()

	put(t, s, "fleets", docstore.Document{"id": "f1"})
	require.NoError(t, s.Delete(ctx, "fleets", "f1"))
	require.ErrorIs(t, s.Delete(ctx, "fleets", "f1"), docstore.ErrNotFound)
}

func testFind(t *testing.T, s docstore.Store) {
	defer s.Close()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		org := "t1"
		if id == "c" {
			org = "t2"
		}
		put(t, s, "fleets", docstore.Document{"id": id, "organizationId": org})
	}

	docs, err := s.Find(ctx, "fleets", docstore.Filter{docstore.Eq("organizationId", "t1")}, docstore.FindOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "d"}, ids(docs))

	docs, err = s.Find(ctx, "fleets", docstore.Filter{docstore.In("id", []string{"d", "a", "zz"})}, docstore.FindOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "d"}, ids(docs))

	docs, err = s.Find(ctx, "fleets", nil, docstore.FindOptions{Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, ids(docs))

	n, err := s.Count(ctx, "fleets", docstore.Filter{docstore.Eq("organizationId", "t2")})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func testUniqueIndex(t *testing.T, s docstore.Store) {
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.EnsureIndexes(ctx, []docstore.Index{{
		Name:       "fleets_org_name",
		Collection: "fleets",
		Fields:     []string{"organizationId", "name"},
		Unique:     true,
	}}))

	put(t, s, "fleets", docstore.Document{"id": "f1", "organizationId": "t1", "name": "North"})
	put(t, s, "fleets", docstore.Document{"id": "f2", "organizationId": "t2", "name": "North"})
	// same document may be rewritten with its own key
	put(t, s, "fleets", docstore.Document{"id": "f1", "organizationId": "t1", "name": "North", "ts": int64(5)})

	err := s.Put(ctx, "fleets", docstore.Document{"id": "f3", "organizationId": "t1", "name": "North"})
	require.ErrorIs(t, err, docstore.ErrDuplicateKey)

	// other collections are unaffected
	put(t, s, "crews", docstore.Document{"id": "c1", "organizationId": "t1", "name": "North"})
	put(t, s, "crews", docstore.Document{"id": "c2", "organizationId": "t1", "name": "North"})
}

func testAggregateJoin(t *testing.T, s docstore.Store) {
	defer s.Close()
	ctx := context.Background()

	put(t, s, "districts", docstore.Document{"id": "d1", "name": "Harbor"})
	put(t, s, "fleets", docstore.Document{"id": "f1", "name": "North", "districtId": "d1"})
	put(t, s, "fleets", docstore.Document{"id": "f2", "name": "South", "districtId": "gone"})
	put(t, s, "crews", docstore.Document{"id": "c1", "name": "A", "fleetId": "f1", "organizationId": "t1"})
	put(t, s, "crews", docstore.Document{"id": "c2", "name": "B", "fleetId": "f2", "organizationId": "t1"})
	put(t, s, "crews", docstore.Document{"id": "c3", "name": "C", "organizationId": "t1"})
	put(t, s, "crews", docstore.Document{"id": "c4", "name": "D", "fleetId": map[string]any{"bad": true}, "organizationId": "t1"})

	pipeline := docstore.Pipeline{
		docstore.Match{Filter: docstore.Filter{docstore.Eq("organizationId", "t1")}},
		docstore.Lookup{From: "fleets", LocalField: "fleetId", ForeignField: "id", As: "fleet"},
		docstore.Unwind{Path: "fleet", PreserveMissing: true},
		docstore.Lookup{From: "districts", LocalField: "fleet.districtId", ForeignField: "id", As: "district"},
		docstore.Unwind{Path: "district", PreserveMissing: true},
		docstore.Project{Fields: append(docstore.Keep("id", "name"),
			docstore.Rename("fleetName", "fleet.name"),
			docstore.Rename("districtName", "district.name"),
		)},
		docstore.Skip{N: 0},
		docstore.Limit{N: 10},
	}

	docs, err := s.Aggregate(ctx, "crews", pipeline)
	require.NoError(t, err)
	require.Equal(t, []string{"c1", "c2", "c3", "c4"}, ids(docs))

	require.Equal(t, "North", docs[0]["fleetName"])
	require.Equal(t, "Harbor", docs[0]["districtName"])

	require.Equal(t, "South", docs[1]["fleetName"])
	require.NotContains(t, docs[1], "districtName")

	require.NotContains(t, docs[2], "fleetName")
	require.NotContains(t, docs[3], "fleetName")

	page, err := s.Aggregate(ctx, "crews", append(pipeline[:len(pipeline)-2:len(pipeline)-2],
		docstore.Skip{N: 1}, docstore.Limit{N: 2}))
	require.NoError(t, err)
	require.Equal(t, []string{"c2", "c3"}, ids(page))
}

func testAggregateCount(t *testing.T, s docstore.Store) {
	defer s.Close()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		put(t, s, "crews", docstore.Document{"id": id, "organizationId": "t1"})
	}

	docs, err := s.Aggregate(ctx, "crews", docstore.Pipeline{
		docstore.Match{Filter: docstore.Filter{docstore.Eq("organizationId", "t1")}},
		docstore.Count{As: "total"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, int64(3), asInt(t, docs[0]["total"]))

	docs, err = s.Aggregate(ctx, "crews", docstore.Pipeline{
		docstore.Match{Filter: docstore.Filter{docstore.Eq("organizationId", "nobody")}},
		docstore.Count{As: "total"},
	})
	require.NoError(t, err)
	require.Empty(t, docs)
}

func ids(docs []docstore.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID()
	}
	return out
}

func asInt(t *testing.T, v any) int64 {
	t.Helper()
	n, ok := docstore.AsInt64(v)
	require.True(t, ok, "unexpected count type %T", v)
	return n
}
