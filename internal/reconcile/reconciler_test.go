package reconcile_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rpggio/fleetd/internal/bolt"
	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/rpggio/fleetd/internal/domain/fleet"
	"github.com/rpggio/fleetd/internal/metrics"
	"github.com/rpggio/fleetd/internal/reconcile"
	"github.com/rpggio/fleetd/internal/repository"
	"github.com/rpggio/fleetd/internal/repository/mocks"
	"github.com/rpggio/fleetd/internal/sqlite"
	"github.com/rpggio/fleetd/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newReconciler(t *testing.T, db docstore.Store) (*reconcile.Reconciler, *store.FleetRepository) {
	t.Helper()
	require.NoError(t, store.Migrate(context.Background(), db))
	repo := store.NewFleetRepository(db)
	return reconcile.New(repo, nil, reconcile.WithClock(func() time.Time { return fixedNow })), repo
}

func seedFleet(t *testing.T, repo *store.FleetRepository, f fleet.Fleet) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), &f))
}

func TestSync_EndToEndScenario(t *testing.T) {
	backends := map[string]func(t *testing.T) docstore.Store{
		"memory": func(t *testing.T) docstore.Store { return docstore.NewMemoryStore() },
		"sqlite": func(t *testing.T) docstore.Store {
			s, err := sqlite.Open(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"bolt": func(t *testing.T) docstore.Store {
			s, err := bolt.Open(filepath.Join(t.TempDir(), "sync.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r, repo := newReconciler(t, open(t))
			seedFleet(t, repo, fleet.Fleet{ID: "F1", Name: "Original", OrganizationID: "T1", TS: 10})

			resp, err := r.Sync(ctx, "T1", reconcile.Request{Update: reconcile.Records(fleet.Fleet{ID: "F1", TS: 5, Name: "X"})})
			require.NoError(t, err)
			require.Nil(t, resp.Updated)
			require.Len(t, resp.Get, 1)
			require.Equal(t, "F1", resp.Get[0].ID)
			require.Equal(t, int64(10), resp.Get[0].TS)
			require.Equal(t, "Original", resp.Get[0].Name)

			stored, err := repo.Get(ctx, "F1")
			require.NoError(t, err)
			require.Equal(t, "Original", stored.Name)
			require.Equal(t, int64(10), stored.TS)

			resp, err = r.Sync(ctx, "T1", reconcile.Request{Update: reconcile.Records(fleet.Fleet{ID: "F1", TS: 20, Name: "Y"})})
			require.NoError(t, err)
			require.Equal(t, map[string]int64{"F1": 20}, resp.Updated)
			require.Nil(t, resp.Get)
			require.Nil(t, resp.Removed)

			stored, err = repo.Get(ctx, "F1")
			require.NoError(t, err)
			require.Equal(t, "Y", stored.Name)
			require.Equal(t, int64(20), stored.TS)
		})
	}
}

func TestSync_ClientWinsOnEqualTS(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t, docstore.NewMemoryStore())
	seedFleet(t, repo, fleet.Fleet{ID: "F1", Name: "A", OrganizationID: "T1", TS: 100})

	resp, err := r.Sync(ctx, "T1", reconcile.Request{Update: reconcile.Records(fleet.Fleet{ID: "F1", TS: 100, Name: "B"})})
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"F1": 100}, resp.Updated)
}

func TestSync_FreshInsertThenView(t *testing.T) {
	ctx := context.Background()
	r, _ := newReconciler(t, docstore.NewMemoryStore())

	resp, err := r.Sync(ctx, "T1", reconcile.Request{Update: reconcile.Records(
		fleet.Fleet{Name: "New without id"},
		fleet.Fleet{ID: "client-chosen", Name: "New with id"},
	)})
	require.NoError(t, err)
	require.Len(t, resp.Updated, 2)
	require.Equal(t, fixedNow.UnixMilli(), resp.Updated["client-chosen"])

	view, err := r.View(ctx, "T1")
	require.NoError(t, err)
	require.Equal(t, resp.Updated, view)
}

func TestSync_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t, docstore.NewMemoryStore())
	seedFleet(t, repo, fleet.Fleet{ID: "F1", Name: "A", OrganizationID: "T1", TS: 1})

	req := reconcile.Request{Remove: []string{"F1", "never-existed"}}
	for i := 0; i < 2; i++ {
		resp, err := r.Sync(ctx, "T1", req)
		require.NoError(t, err)
		require.Equal(t, []string{"F1", "never-existed"}, resp.Removed)
	}

	_, err := repo.Get(ctx, "F1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSync_SparseEnvelope(t *testing.T) {
	ctx := context.Background()
	r, _ := newReconciler(t, docstore.NewMemoryStore())

	resp, err := r.Sync(ctx, "T1", reconcile.Request{Remove: []string{"F9"}})
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t, `{"removed":["F9"]}`, string(data))

	resp, err = r.Sync(ctx, "T1", reconcile.Request{})
	require.NoError(t, err)
	data, err = json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(data))
}

func TestSync_CrossTenantUpdateDropped(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t, docstore.NewMemoryStore())
	seedFleet(t, repo, fleet.Fleet{ID: "F2", Name: "Theirs", OrganizationID: "T2", TS: 1})

	before := testutil.ToFloat64(metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeTenantSkipped))

	resp, err := r.Sync(ctx, "T1", reconcile.Request{Update: reconcile.Records(
		fleet.Fleet{ID: "F1", Name: "Mine?", OrganizationID: "T2"},
		fleet.Fleet{ID: "F2", Name: "Hijack", TS: 5},
		fleet.Fleet{ID: "F2", Name: "Hijack insert"},
	)})
	require.NoError(t, err)
	require.Nil(t, resp.Updated)
	require.Nil(t, resp.Get)

	require.Equal(t, before+3, testutil.ToFloat64(metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeTenantSkipped)))

	stored, err := repo.Get(ctx, "F2")
	require.NoError(t, err)
	require.Equal(t, "Theirs", stored.Name)

	_, err = repo.Get(ctx, "F1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSync_VersionedUpdateOfMissingFleetIsNotReported(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t, docstore.NewMemoryStore())

	before := testutil.ToFloat64(metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeFailed))

	resp, err := r.Sync(ctx, "T1", reconcile.Request{Update: reconcile.Records(fleet.Fleet{ID: "ghost", Name: "Ghost", TS: 50})})
	require.NoError(t, err)
	require.Nil(t, resp.Updated)
	require.Nil(t, resp.Get)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeFailed)))

	_, err = repo.Get(ctx, "ghost")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSync_PerRecordFailuresDoNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t, docstore.NewMemoryStore())
	seedFleet(t, repo, fleet.Fleet{ID: "F1", Name: "Taken", OrganizationID: "T1", TS: 1})

	resp, err := r.Sync(ctx, "T1", reconcile.Request{Update: reconcile.Records(
		fleet.Fleet{Name: "Taken"}, // duplicate name
		fleet.Fleet{Name: ""},      // fails validation
		fleet.Fleet{Name: "Fine"},
	)})
	require.NoError(t, err)
	require.Len(t, resp.Updated, 1)

	view, err := r.View(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, view, 2)
}

func TestSync_MalformedRecordIsSkipped(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t, docstore.NewMemoryStore())
	seedFleet(t, repo, fleet.Fleet{ID: "gone", Name: "Gone", OrganizationID: "T1", TS: 1})

	var req reconcile.Request
	require.NoError(t, json.Unmarshal([]byte(`{
		"update": [
			{"name": "Good"},
			{"id": "bad", "name": "Bad", "ts": 5, "created": "13/45/2020"},
			{"id": "worse", "ts": "abc"},
			"not an object"
		],
		"remove": ["gone"]
	}`), &req))
	require.Len(t, req.Update, 4)

	before := testutil.ToFloat64(metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeFailed))
	resp, err := r.Sync(ctx, "T1", req)
	require.NoError(t, err)
	require.Equal(t, []string{"gone"}, resp.Removed)
	require.Len(t, resp.Updated, 1)
	require.NotContains(t, resp.Updated, "bad")
	require.NotContains(t, resp.Updated, "worse")
	require.Equal(t, before+3, testutil.ToFloat64(metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeFailed)))

	fleets, err := repo.ListByTenant(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, fleets, 1)
	require.Equal(t, "Good", fleets[0].Name)
}

func TestSync_GetSkipsMissingAndDuplicates(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t, docstore.NewMemoryStore())
	seedFleet(t, repo, fleet.Fleet{ID: "F1", Name: "A", OrganizationID: "T1", TS: 100})
	seedFleet(t, repo, fleet.Fleet{ID: "F2", Name: "B", OrganizationID: "T1", TS: 100})
	seedFleet(t, repo, fleet.Fleet{ID: "F3", Name: "C", OrganizationID: "T2", TS: 100})

	resp, err := r.Sync(ctx, "T1", reconcile.Request{
		Update: reconcile.Records(fleet.Fleet{ID: "F1", Name: "stale", TS: 1}),
		Get:    []string{"F1", "F2", "missing", "F3", "F2"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Get, 2)
	require.Equal(t, "F1", resp.Get[0].ID)
	require.Equal(t, "F2", resp.Get[1].ID)
}

func TestSync_RemoveRunsBeforeUpdate(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t, docstore.NewMemoryStore())
	seedFleet(t, repo, fleet.Fleet{ID: "F1", Name: "A", OrganizationID: "T1", TS: 100})

	// the versioned update finds nothing once F1 is removed
	resp, err := r.Sync(ctx, "T1", reconcile.Request{
		Remove: []string{"F1"},
		Update: reconcile.Records(fleet.Fleet{ID: "F1", Name: "A", TS: 200}),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"F1"}, resp.Removed)
	require.Nil(t, resp.Updated)
}

func TestSync_StoreFailureOnSaveIsAbsorbed(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.FleetRepository{}
	repo.On("Get", ctx, "F1").Return(&fleet.Fleet{ID: "F1", Name: "A", OrganizationID: "T1", TS: 1}, nil)
	repo.On("Save", ctx, mock.MatchedBy(func(f *fleet.Fleet) bool { return f.ID == "F1" })).Return(errors.New("write timeout"))
	repo.On("Save", ctx, mock.MatchedBy(func(f *fleet.Fleet) bool { return f.ID != "F1" })).Return(nil)

	r := reconcile.New(repo, nil)
	resp, err := r.Sync(ctx, "T1", reconcile.Request{Update: reconcile.Records(
		fleet.Fleet{ID: "F1", Name: "A2", TS: 5},
		fleet.Fleet{Name: "Other"},
	)})
	require.NoError(t, err)
	require.Len(t, resp.Updated, 1)
	require.NotContains(t, resp.Updated, "F1")
}

func TestSync_ClientWinKeepsCreated(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	repo := &mocks.FleetRepository{}
	repo.On("Get", ctx, "F1").Return(&fleet.Fleet{ID: "F1", Name: "A", OrganizationID: "T1", TS: 1, Created: created}, nil)
	repo.On("Save", ctx, mock.MatchedBy(func(f *fleet.Fleet) bool {
		return f.Created.Equal(created) && f.Modified.Equal(fixedNow) && f.TS == 7
	})).Return(nil)

	r := reconcile.New(repo, nil, reconcile.WithClock(func() time.Time { return fixedNow }))
	resp, err := r.Sync(ctx, "T1", reconcile.Request{Update: reconcile.Records(fleet.Fleet{ID: "F1", Name: "A", TS: 7})})
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"F1": 7}, resp.Updated)
	repo.AssertExpectations(t)
}

func TestView_PropagatesStoreFailure(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.FleetRepository{}
	repo.On("ListByTenant", ctx, "T1").Return(nil, errors.New("connection refused"))

	_, err := reconcile.New(repo, nil).View(ctx, "T1")
	require.Error(t, err)
}

func TestView_OnlyTenantFleets(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t, docstore.NewMemoryStore())
	seedFleet(t, repo, fleet.Fleet{ID: "F1", Name: "A", OrganizationID: "T1", TS: 11})
	seedFleet(t, repo, fleet.Fleet{ID: "F2", Name: "B", OrganizationID: "T2", TS: 22})

	view, err := r.View(ctx, "T1")
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"F1": 11}, view)
}
