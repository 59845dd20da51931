package district_test

import (
	"context"
	"testing"

	"github.com/rpggio/fleetd/internal/domain/district"
	"github.com/rpggio/fleetd/internal/repository"
	"github.com/rpggio/fleetd/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDistrictService_SaveAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.DistrictRepository{}
	repo.On("Save", ctx, mock.Anything).Return(nil)
	repo.On("ListByTenant", ctx, "tenant1").Return([]district.District{{ID: "d1", Name: "Harbor"}}, nil)

	svc := district.NewService(repo, nil)
	d, err := svc.Save(ctx, "tenant1", district.District{Name: "Harbor"})
	require.NoError(t, err)
	require.NotEmpty(t, d.ID)

	list, err := svc.List(ctx, "tenant1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDistrictService_DeleteOtherTenantIsNoop(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.DistrictRepository{}
	repo.On("Get", ctx, "d1").Return(&district.District{ID: "d1", OrganizationID: "tenant2"}, nil)

	svc := district.NewService(repo, nil)
	require.NoError(t, svc.Delete(ctx, "tenant1", "d1"))
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	repo.On("Get", ctx, "d2").Return((*district.District)(nil), repository.ErrNotFound)
	_, err := svc.Get(ctx, "tenant1", "d2")
	require.ErrorIs(t, err, district.ErrDistrictNotFound)
}
