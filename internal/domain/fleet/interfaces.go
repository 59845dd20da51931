package fleet

import "context"

// Repository provides persistence for fleets. Reads by id are not tenant
// scoped; callers check OrganizationID.
type Repository interface {
	Get(ctx context.Context, id string) (*Fleet, error)
	Save(ctx context.Context, f *Fleet) error
	Delete(ctx context.Context, id string) error
	ListByTenant(ctx context.Context, tenantID string) ([]Fleet, error)
}
