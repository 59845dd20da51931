package personnel_test

import (
	"context"
	"testing"

	"github.com/rpggio/fleetd/internal/domain/personnel"
	"github.com/rpggio/fleetd/internal/repository"
	"github.com/rpggio/fleetd/internal/repository/mocks"
	"github.com/rpggio/fleetd/internal/validation"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestPersonnelService_SaveStoresSupervisorIDOnly(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.PersonnelRepository{}
	repo.On("Save", ctx, mock.MatchedBy(func(p *personnel.Personnel) bool {
		return p.SupervisorID != nil && *p.SupervisorID == "nobody"
	})).Return(nil)

	svc := personnel.NewService(repo, nil)
	p, err := svc.Save(ctx, "tenant1", personnel.Personnel{
		FirstName: "Ada", SecondName: "Lovelace", EmployeeID: "E1", SupervisorID: ptr("nobody"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	repo.AssertNotCalled(t, "Get", mock.Anything, "nobody")
}

func TestPersonnelService_BlankSupervisorBecomesNull(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.PersonnelRepository{}
	repo.On("Save", ctx, mock.Anything).Return(nil)

	svc := personnel.NewService(repo, nil)
	p, err := svc.Save(ctx, "tenant1", personnel.Personnel{FirstName: "Ada", EmployeeID: "E1", SupervisorID: ptr(" ")})
	require.NoError(t, err)
	require.Nil(t, p.SupervisorID)
}

func TestPersonnelService_SaveRejectsSelfSupervision(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.PersonnelRepository{}
	repo.On("Get", ctx, "p1").Return((*personnel.Personnel)(nil), repository.ErrNotFound)

	svc := personnel.NewService(repo, nil)
	_, err := svc.Save(ctx, "tenant1", personnel.Personnel{ID: "p1", FirstName: "Ada", EmployeeID: "E1", SupervisorID: ptr("p1")})
	require.ErrorIs(t, err, personnel.ErrSelfSupervised)
}

func TestPersonnelService_SaveValidation(t *testing.T) {
	svc := personnel.NewService(&mocks.PersonnelRepository{}, nil)

	_, err := svc.Save(context.Background(), "tenant1", personnel.Personnel{FirstName: "Ada"})
	require.ErrorIs(t, err, validation.ErrInvalid)
}
