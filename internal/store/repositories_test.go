package store

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/rpggio/fleetd/internal/domain/crew"
	"github.com/rpggio/fleetd/internal/domain/fleet"
	"github.com/rpggio/fleetd/internal/domain/personnel"
	"github.com/rpggio/fleetd/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) docstore.Store {
	t.Helper()

	db := docstore.NewMemoryStore()
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestFleetRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewFleetRepository(newTestStore(t))

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := &fleet.Fleet{ID: "f1", Name: "North", DistrictID: "d1", OrganizationID: "t1", TS: 1714564800123, Created: created, Modified: created}
	require.NoError(t, repo.Save(ctx, in))

	got, err := repo.Get(ctx, "f1")
	require.NoError(t, err)
	require.Equal(t, in.Name, got.Name)
	require.Equal(t, in.TS, got.TS)
	require.True(t, created.Equal(got.Created))

	list, err := repo.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = repo.ListByTenant(ctx, "t2")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestFleetRepository_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewFleetRepository(newTestStore(t))

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "missing"), repository.ErrNotFound)

	require.NoError(t, repo.Save(ctx, &fleet.Fleet{ID: "f1", Name: "North", OrganizationID: "t1"}))
	err = repo.Save(ctx, &fleet.Fleet{ID: "f2", Name: "North", OrganizationID: "t1"})
	require.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestCrewRepository_UniquePerFleet(t *testing.T) {
	ctx := context.Background()
	repo := NewCrewRepository(newTestStore(t))

	require.NoError(t, repo.Save(ctx, &crew.Crew{ID: "c1", Name: "Alpha", FleetID: "f1", OrganizationID: "t1", StartDate: crew.NewDate(2021, 3, 9)}))
	require.NoError(t, repo.Save(ctx, &crew.Crew{ID: "c2", Name: "Alpha", FleetID: "f2", OrganizationID: "t1"}))
	require.ErrorIs(t, repo.Save(ctx, &crew.Crew{ID: "c3", Name: "Alpha", FleetID: "f1", OrganizationID: "t1"}), repository.ErrAlreadyExists)

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "03/09/2021", got.StartDate.String())
}

func TestPersonnelRepository_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	db := newTestStore(t)
	repo := NewPersonnelRepository(db)

	require.NoError(t, db.Put(ctx, Personnel, docstore.Document{"id": "p1", "supervisor": "not-a-bool"}))
	_, err := repo.Get(ctx, "p1")
	require.ErrorIs(t, err, repository.ErrInvalidInput)

	require.NoError(t, repo.Save(ctx, &personnel.Personnel{ID: "p2", FirstName: "Ada", EmployeeID: "E1", OrganizationID: "t1"}))
	got, err := repo.Get(ctx, "p2")
	require.NoError(t, err)
	require.Nil(t, got.SupervisorID)
}
