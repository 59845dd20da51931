package district

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/fleetd/internal/repository"
	"github.com/rpggio/fleetd/internal/validation"
)

// Service handles district CRUD.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new district service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Save creates or replaces a district.
func (s *Service) Save(ctx context.Context, tenantID string, d District) (*District, error) {
	if d.OrganizationID != "" && d.OrganizationID != tenantID {
		return nil, ErrTenantMismatch
	}
	d.OrganizationID = tenantID
	if err := validation.Struct(d); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if strings.TrimSpace(d.ID) == "" {
		d.ID = uuid.NewString()
		d.Created = now
	} else {
		existing, err := s.repo.Get(ctx, d.ID)
		switch {
		case err == nil:
			if existing.OrganizationID != tenantID {
				return nil, ErrTenantMismatch
			}
			d.Created = existing.Created
		case errors.Is(err, repository.ErrNotFound):
			d.Created = now
		default:
			return nil, fmt.Errorf("loading district: %w", err)
		}
	}
	d.Modified = now
	d.TS = now.UnixMilli()

	if err := s.repo.Save(ctx, &d); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("saving district: %w", err)
	}
	return &d, nil
}

// Get fetches a district owned by the tenant.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*District, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDistrictNotFound
		}
		return nil, fmt.Errorf("getting district: %w", err)
	}
	if d.OrganizationID != tenantID {
		return nil, ErrDistrictNotFound
	}
	return d, nil
}

// Delete removes a district if it exists. Fleets referencing it are left
// alone and show no district name in views.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		if errors.Is(err, ErrDistrictNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting district: %w", err)
	}
	return nil
}

// List returns the tenant's districts.
func (s *Service) List(ctx context.Context, tenantID string) ([]District, error) {
	ds, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing districts: %w", err)
	}
	return ds, nil
}
