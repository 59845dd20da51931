package personnel

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

// Service handles plain personnel CRUD.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new personnel service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Save creates or replaces a personnel record. The supervisor reference is
// stored as given; it is never checked against existing records.
func (s *Service) Save(ctx context.Context, tenantID string, p Personnel) (*Personnel, error) {
	if p.OrganizationID != "" && p.OrganizationID != tenantID {
		return nil, ErrTenantMismatch
	}
	p.OrganizationID = tenantID
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	if p.SupervisorID != nil && strings.TrimSpace(*p.SupervisorID) == "" {
		p.SupervisorID = nil
	}

	now := time.Now().UTC()
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
		p.Created = now
	} else {
		existing, err := s.repo.Get(ctx, p.ID)
		switch {
		case err == nil:
			if existing.OrganizationID != tenantID {
				return nil, ErrTenantMismatch
			}
			p.Created = existing.Created
		case errors.Is(err, repository.ErrNotFound):
			p.Created = now
		default:
			return nil, fmt.Errorf("loading personnel: %w", err)
		}
	}
	if p.SupervisorID != nil && *p.SupervisorID == p.ID {
		return nil, ErrSelfSupervised
	}
	p.Modified = now
	p.TS = now.UnixMilli()

	if err := s.repo.Save(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("saving personnel: %w", err)
	}
	return &p, nil
}

// Update replaces an existing record; a missing record is a no-op.
func (s *Service) Update(ctx context.Context, tenantID string, p Personnel) (*Personnel, error) {
	if _, err := s.Get(ctx, tenantID, p.ID); err != nil {
		if errors.Is(err, ErrPersonnelNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.Save(ctx, tenantID, p)
}

// Get fetches a personnel record owned by the tenant.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Personnel, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPersonnelNotFound
		}
		return nil, fmt.Errorf("getting personnel: %w", err)
	}
	if p.OrganizationID != tenantID {
		return nil, ErrPersonnelNotFound
	}
	return p, nil
}

// Delete removes a personnel record if it exists. Records naming it as
// supervisor keep the dangling id.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		if errors.Is(err, ErrPersonnelNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting personnel: %w", err)
	}
	return nil
}
