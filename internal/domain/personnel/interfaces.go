package personnel

import "context"

// Repository provides persistence for personnel.
type Repository interface {
	Get(ctx context.Context, id string) (*Personnel, error)
	Save(ctx context.Context, p *Personnel) error
	Delete(ctx context.Context, id string) error
}
