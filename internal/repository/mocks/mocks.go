package mocks

import (
	"context"

	"github.com/rpggio/fleetd/internal/domain/crew"
	"github.com/rpggio/fleetd/internal/domain/district"
	"github.com/rpggio/fleetd/internal/domain/fleet"
	"github.com/rpggio/fleetd/internal/domain/personnel"
	"github.com/stretchr/testify/mock"
)

// FleetRepository is a mock for fleet.Repository.
type FleetRepository struct {
	mock.Mock
}

func (m *FleetRepository) Get(ctx context.Context, id string) (*fleet.Fleet, error) {
	args := m.Called(ctx, id)
	if f, ok := args.Get(0).(*fleet.Fleet); ok {
		return f, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *FleetRepository) Save(ctx context.Context, f *fleet.Fleet) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *FleetRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *FleetRepository) ListByTenant(ctx context.Context, tenantID string) ([]fleet.Fleet, error) {
	args := m.Called(ctx, tenantID)
	if list, ok := args.Get(0).([]fleet.Fleet); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// CrewRepository is a mock for crew.Repository.
type CrewRepository struct {
	mock.Mock
}

func (m *CrewRepository) Get(ctx context.Context, id string) (*crew.Crew, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*crew.Crew); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CrewRepository) Save(ctx context.Context, c *crew.Crew) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *CrewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// PersonnelRepository is a mock for personnel.Repository.
type PersonnelRepository struct {
	mock.Mock
}

func (m *PersonnelRepository) Get(ctx context.Context, id string) (*personnel.Personnel, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*personnel.Personnel); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PersonnelRepository) Save(ctx context.Context, p *personnel.Personnel) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PersonnelRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// DistrictRepository is a mock for district.Repository.
type DistrictRepository struct {
	mock.Mock
}

func (m *DistrictRepository) Get(ctx context.Context, id string) (*district.District, error) {
	args := m.Called(ctx, id)
	if d, ok := args.Get(0).(*district.District); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DistrictRepository) Save(ctx context.Context, d *district.District) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *DistrictRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *DistrictRepository) ListByTenant(ctx context.Context, tenantID string) ([]district.District, error) {
	args := m.Called(ctx, tenantID)
	if list, ok := args.Get(0).([]district.District); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	_ fleet.Repository     = (*FleetRepository)(nil)
	_ crew.Repository      = (*CrewRepository)(nil)
	_ personnel.Repository = (*PersonnelRepository)(nil)
	_ district.Repository  = (*DistrictRepository)(nil)
)
