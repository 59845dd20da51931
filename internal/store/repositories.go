package store

import (
	"context"

	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/rpggio/fleetd/internal/domain/crew"
	"github.com/rpggio/fleetd/internal/domain/district"
	"github.com/rpggio/fleetd/internal/domain/fleet"
	"github.com/rpggio/fleetd/internal/domain/personnel"
)

// FleetRepository implements fleet.Repository
type FleetRepository struct {
	c collection[fleet.Fleet]
}

// NewFleetRepository creates a new FleetRepository
func NewFleetRepository(db docstore.Store) *FleetRepository {
	return &FleetRepository{c: collection[fleet.Fleet]{db: db, name: Fleets}}
}

func (r *FleetRepository) Get(ctx context.Context, id string) (*fleet.Fleet, error) {
	return r.c.get(ctx, id)
}

func (r *FleetRepository) Save(ctx context.Context, f *fleet.Fleet) error {
	return r.c.save(ctx, f)
}

func (r *FleetRepository) Delete(ctx context.Context, id string) error {
	return r.c.delete(ctx, id)
}

// ListByTenant returns the tenant's fleets in store order
func (r *FleetRepository) ListByTenant(ctx context.Context, tenantID string) ([]fleet.Fleet, error) {
	return r.c.find(ctx, docstore.Filter{docstore.Eq("organizationId", tenantID)})
}

// CrewRepository implements crew.Repository
type CrewRepository struct {
	c collection[crew.Crew]
}

// NewCrewRepository creates a new CrewRepository
func NewCrewRepository(db docstore.Store) *CrewRepository {
	return &CrewRepository{c: collection[crew.Crew]{db: db, name: Crews}}
}

func (r *CrewRepository) Get(ctx context.Context, id string) (*crew.Crew, error) {
	return r.c.get(ctx, id)
}

func (r *CrewRepository) Save(ctx context.Context, c *crew.Crew) error {
	return r.c.save(ctx, c)
}

func (r *CrewRepository) Delete(ctx context.Context, id string) error {
	return r.c.delete(ctx, id)
}

// PersonnelRepository implements personnel.Repository
type PersonnelRepository struct {
	c collection[personnel.Personnel]
}

// NewPersonnelRepository creates a new PersonnelRepository
func NewPersonnelRepository(db docstore.Store) *PersonnelRepository {
	return &PersonnelRepository{c: collection[personnel.Personnel]{db: db, name: Personnel}}
}

func (r *PersonnelRepository) Get(ctx context.Context, id string) (*personnel.Personnel, error) {
	return r.c.get(ctx, id)
}

func (r *PersonnelRepository) Save(ctx context.Context, p *personnel.Personnel) error {
	return r.c.save(ctx, p)
}

func (r *PersonnelRepository) Delete(ctx context.Context, id string) error {
	return r.c.delete(ctx, id)
}

// DistrictRepository implements district.Repository
type DistrictRepository struct {
	c collection[district.District]
}

// NewDistrictRepository creates a new DistrictRepository
func NewDistrictRepository(db docstore.Store) *DistrictRepository {
	return &DistrictRepository{c: collection[district.District]{db: db, name: Districts}}
}

func (r *DistrictRepository) Get(ctx context.Context, id string) (*district.District, error) {
	return r.c.get(ctx, id)
}

func (r *DistrictRepository) Save(ctx context.Context, d *district.District) error {
	return r.c.save(ctx, d)
}

func (r *DistrictRepository) Delete(ctx context.Context, id string) error {
	return r.c.delete(ctx, id)
}

func (r *DistrictRepository) ListByTenant(ctx context.Context, tenantID string) ([]district.District, error) {
	return r.c.find(ctx, docstore.Filter{docstore.Eq("organizationId", tenantID)})
}

var (
	_ fleet.Repository     = (*FleetRepository)(nil)
	_ crew.Repository      = (*CrewRepository)(nil)
	_ personnel.Repository = (*PersonnelRepository)(nil)
	_ district.Repository  = (*DistrictRepository)(nil)
)
