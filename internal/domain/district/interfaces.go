package district

import "context"

// Repository provides persistence for districts.
type Repository interface {
	Get(ctx context.Context, id string) (*District, error)
	Save(ctx context.Context, d *District) error
	Delete(ctx context.Context, id string) error
	ListByTenant(ctx context.Context, tenantID string) ([]District, error)
}
