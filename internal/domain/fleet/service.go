package fleet

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

// Service handles plain fleet CRUD.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new fleet service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Save creates the fleet, or replaces it when a fleet with its id exists.
// Every save bumps TS so syncing clients pick up the change.
func (s *Service) Save(ctx context.Context, tenantID string, f Fleet) (*Fleet, error) {
	if f.OrganizationID != "" && f.OrganizationID != tenantID {
		return nil, ErrTenantMismatch
	}
	f.OrganizationID = tenantID
	if err := validation.Struct(f); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if strings.TrimSpace(f.ID) == "" {
		f.ID = uuid.NewString()
		f.Created = now
	} else {
		existing, err := s.repo.Get(ctx, f.ID)
		switch {
		case err == nil:
			if existing.OrganizationID != tenantID {
				return nil, ErrTenantMismatch
			}
			f.Created = existing.Created
		case errors.Is(err, repository.ErrNotFound):
			f.Created = now
		default:
			return nil, fmt.Errorf("loading fleet: %w", err)
		}
	}
	f.Modified = now
	f.TS = now.UnixMilli()

	if err := s.repo.Save(ctx, &f); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("saving fleet: %w", err)
	}
	return &f, nil
}

// Update replaces an existing fleet. A missing fleet is a no-op and
// returns nil.
func (s *Service) Update(ctx context.Context, tenantID string, f Fleet) (*Fleet, error) {
	if _, err := s.Get(ctx, tenantID, f.ID); err != nil {
		if errors.Is(err, ErrFleetNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.Save(ctx, tenantID, f)
}

// Get fetches a fleet owned by the tenant.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Fleet, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFleetNotFound
		}
		return nil, fmt.Errorf("getting fleet: %w", err)
	}
	if f.OrganizationID != tenantID {
		return nil, ErrFleetNotFound
	}
	return f, nil
}

// Delete removes a fleet. Deleting a missing fleet is not an error.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		if errors.Is(err, ErrFleetNotFound) {
			s.logger.Debug("delete of missing fleet ignored", "id", id, "tenant_id", tenantID)
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting fleet: %w", err)
	}
	return nil
}

// List returns the tenant's fleets.
func (s *Service) List(ctx context.Context, tenantID string) ([]Fleet, error) {
	fleets, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing fleets: %w", err)
	}
	return fleets, nil
}
