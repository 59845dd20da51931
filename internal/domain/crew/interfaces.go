package crew

import "context"

// Repository provides persistence for crews.
type Repository interface {
	Get(ctx context.Context, id string) (*Crew, error)
	Save(ctx context.Context, c *Crew) error
	Delete(ctx context.Context, id string) error
}
