// Package store implements the domain repositories on a docstore.Store.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/rpggio/fleetd/internal/repository"
)

// Collection names.
const (
	Fleets    = "fleets"
	Crews     = "crews"
	Personnel = "personnel"
	Districts = "districts"
	APIKeys   = "api_keys"
)

// Indexes lists the secondary indexes every backend must carry.
func Indexes() []docstore.Index {
	return []docstore.Index{
		{Name: "fleets_org_name", Collection: Fleets, Fields: []string{"organizationId", "name"}, Unique: true},
		{Name: "crews_org_fleet_name", Collection: Crews, Fields: []string{"organizationId", "fleetId", "name"}, Unique: true},
		{Name: "personnel_org_employee", Collection: Personnel, Fields: []string{"organizationId", "employeeId"}, Unique: true},
		{Name: "districts_org_name", Collection: Districts, Fields: []string{"organizationId", "name"}, Unique: true},
		{Name: "crews_fleet", Collection: Crews, Fields: []string{"fleetId"}},
		{Name: "personnel_fleet", Collection: Personnel, Fields: []string{"fleetId"}},
		{Name: "api_keys_tenant", Collection: APIKeys, Fields: []string{"tenantId"}},
	}
}

// Migrate applies Indexes to s.
func Migrate(ctx context.Context, s docstore.Store) error {
	if err := s.EnsureIndexes(ctx, Indexes()); err != nil {
		return fmt.Errorf("ensuring indexes: %w", err)
	}
	return nil
}

// collection maps one docstore collection onto entity type T.
type collection[T any] struct {
	db   docstore.Store
	name string
}

func (c collection[T]) get(ctx context.Context, id string) (*T, error) {
	doc, err := c.db.Get(ctx, c.name, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", c.name, err)
	}
	var v T
	if err := doc.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", repository.ErrInvalidInput, c.name, id, err)
	}
	return &v, nil
}

func (c collection[T]) save(ctx context.Context, v *T) error {
	doc, err := docstore.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.name, err)
	}
	if err := c.db.Put(ctx, c.name, doc); err != nil {
		if errors.Is(err, docstore.ErrDuplicateKey) {
			return fmt.Errorf("%w: %v", repository.ErrAlreadyExists, err)
		}
		return fmt.Errorf("failed to save %s: %w", c.name, err)
	}
	return nil
}

func (c collection[T]) delete(ctx context.Context, id string) error {
	if err := c.db.Delete(ctx, c.name, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", c.name, err)
	}
	return nil
}

func (c collection[T]) find(ctx context.Context, filter docstore.Filter) ([]T, error) {
	docs, err := c.db.Find(ctx, c.name, filter, docstore.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", repository.ErrInvalidInput, c.name, doc.ID(), err)
		}
		out = append(out, v)
	}
	return out, nil
}
