package crew

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

// Service handles plain crew CRUD. Listing goes through the view builder.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new crew service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// Save creates or replaces a crew.
func (s *Service) Save(ctx context.Context, tenantID string, c Crew) (*Crew, error) {
	if c.OrganizationID != "" && c.OrganizationID != tenantID {
		return nil, ErrTenantMismatch
	}
	c.OrganizationID = tenantID
	if err := validation.Struct(c); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if strings.TrimSpace(c.ID) == "" {
		c.ID = uuid.NewString()
		c.Created = now
	} else {
		existing, err := s.repo.Get(ctx, c.ID)
		switch {
		case err == nil:
			if existing.OrganizationID != tenantID {
				return nil, ErrTenantMismatch
			}
			c.Created = existing.Created
		case errors.Is(err, repository.ErrNotFound):
			c.Created = now
		default:
			return nil, fmt.Errorf("loading crew: %w", err)
		}
	}
	c.Modified = now
	c.TS = now.UnixMilli()

	if err := s.repo.Save(ctx, &c); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("saving crew: %w", err)
	}
	return &c, nil
}

// Update replaces an existing crew; a missing crew is a no-op.
func (s *Service) Update(ctx context.Context, tenantID string, c Crew) (*Crew, error) {
	if _, err := s.Get(ctx, tenantID, c.ID); err != nil {
		if errors.Is(err, ErrCrewNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.Save(ctx, tenantID, c)
}

// Get fetches a crew owned by the tenant.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Crew, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCrewNotFound
		}
		return nil, fmt.Errorf("getting crew: %w", err)
	}
	if c.OrganizationID != tenantID {
		return nil, ErrCrewNotFound
	}
	return c, nil
}

// Delete removes a crew if it exists.
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		if errors.Is(err, ErrCrewNotFound) {
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("deleting crew: %w", err)
	}
	return nil
}
