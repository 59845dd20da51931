package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/fleetd/internal/domain/crew"
	"github.com/rpggio/fleetd/internal/domain/district"
	"github.com/rpggio/fleetd/internal/domain/fleet"
	"github.com/rpggio/fleetd/internal/domain/personnel"
	"github.com/rpggio/fleetd/internal/reconcile"
	"github.com/rpggio/fleetd/internal/view"
)

// FleetService defines fleet operations needed by the handler.
type FleetService interface {
	Save(ctx context.Context, tenantID string, f fleet.Fleet) (*fleet.Fleet, error)
	Update(ctx context.Context, tenantID string, f fleet.Fleet) (*fleet.Fleet, error)
	Get(ctx context.Context, tenantID, id string) (*fleet.Fleet, error)
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string) ([]fleet.Fleet, error)
}

// CrewService defines crew operations needed by the handler.
type CrewService interface {
	Save(ctx context.Context, tenantID string, c crew.Crew) (*crew.Crew, error)
	Update(ctx context.Context, tenantID string, c crew.Crew) (*crew.Crew, error)
	Get(ctx context.Context, tenantID, id string) (*crew.Crew, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// PersonnelService defines personnel operations needed by the handler.
type PersonnelService interface {
	Save(ctx context.Context, tenantID string, p personnel.Personnel) (*personnel.Personnel, error)
	Update(ctx context.Context, tenantID string, p personnel.Personnel) (*personnel.Personnel, error)
	Get(ctx context.Context, tenantID, id string) (*personnel.Personnel, error)
	Delete(ctx context.Context, tenantID, id string) error
}

// DistrictService defines district operations needed by the handler.
type DistrictService interface {
	Save(ctx context.Context, tenantID string, d district.District) (*district.District, error)
	Get(ctx context.Context, tenantID, id string) (*district.District, error)
	Delete(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string) ([]district.District, error)
}

// ViewService builds joined crew and personnel pages.
type ViewService interface {
	LookupCrew(ctx context.Context, sel view.Selector, page view.Page) (*view.CrewPage, error)
	LookupPersonnel(ctx context.Context, sel view.Selector, page view.Page) (*view.PersonnelPage, error)
}

// SyncService reconciles client fleet copies.
type SyncService interface {
	View(ctx context.Context, tenantID string) (map[string]int64, error)
	Sync(ctx context.Context, tenantID string, req reconcile.Request) (*reconcile.Response, error)
}

// Services contains all domain services the handler dispatches to.
type Services struct {
	Fleets    FleetService
	Crews     CrewService
	Personnel PersonnelService
	Districts DistrictService
	Views     ViewService
	Sync      SyncService
}

// Handler dispatches JSON-RPC methods.
type Handler struct {
	svc Services
}

// NewHandler creates a new handler.
func NewHandler(svc Services) *Handler {
	return &Handler{svc: svc}
}

// Handle dispatches a method for tenantID. Errors are mapped to APIError
// where the cause is known.
func (h *Handler) Handle(ctx context.Context, tenantID, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, tenantID, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, tenantID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "fleet.view":
		return h.svc.Sync.View(ctx, tenantID)
	case "fleet.sync":
		var req reconcile.Request
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.svc.Sync.Sync(ctx, tenantID, req)
	case "crew.lookup":
		var req LookupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.lookupCrew(ctx, tenantID, req)
	case "personnel.lookup":
		var req LookupParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.lookupPersonnel(ctx, tenantID, req)

	case "fleet.save":
		return save(ctx, tenantID, params, h.svc.Fleets.Save)
	case "fleet.update":
		return save(ctx, tenantID, params, h.svc.Fleets.Update)
	case "fleet.get":
		return get(ctx, tenantID, params, h.svc.Fleets.Get, fleet.ErrFleetNotFound)
	case "fleet.delete":
		return remove(ctx, tenantID, params, h.svc.Fleets.Delete)
	case "fleet.list":
		return h.svc.Fleets.List(ctx, tenantID)

	case "crew.save":
		return save(ctx, tenantID, params, h.svc.Crews.Save)
	case "crew.update":
		return save(ctx, tenantID, params, h.svc.Crews.Update)
	case "crew.get":
		return get(ctx, tenantID, params, h.svc.Crews.Get, crew.ErrCrewNotFound)
	case "crew.delete":
		return remove(ctx, tenantID, params, h.svc.Crews.Delete)

	case "personnel.save":
		return save(ctx, tenantID, params, h.svc.Personnel.Save)
	case "personnel.update":
		return save(ctx, tenantID, params, h.svc.Personnel.Update)
	case "personnel.get":
		return get(ctx, tenantID, params, h.svc.Personnel.Get, personnel.ErrPersonnelNotFound)
	case "personnel.delete":
		return remove(ctx, tenantID, params, h.svc.Personnel.Delete)

	case "district.save":
		return save(ctx, tenantID, params, h.svc.Districts.Save)
	case "district.get":
		return get(ctx, tenantID, params, h.svc.Districts.Get, district.ErrDistrictNotFound)
	case "district.delete":
		return remove(ctx, tenantID, params, h.svc.Districts.Delete)
	case "district.list":
		return h.svc.Districts.List(ctx, tenantID)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func (h *Handler) lookupCrew(ctx context.Context, tenantID string, req LookupParams) (*view.CrewPage, error) {
	sel, err := view.ResolveSelector(req.IDs, req.ParentID, tenantID)
	if err != nil {
		return nil, err
	}
	return h.svc.Views.LookupCrew(ctx, sel, view.Page{Offset: req.Offset, Limit: req.Limit})
}

func (h *Handler) lookupPersonnel(ctx context.Context, tenantID string, req LookupParams) (*view.PersonnelPage, error) {
	sel, err := view.ResolveSelector(req.IDs, req.ParentID, tenantID)
	if err != nil {
		return nil, err
	}
	return h.svc.Views.LookupPersonnel(ctx, sel, view.Page{Offset: req.Offset, Limit: req.Limit})
}

func save[T any](ctx context.Context, tenantID string, params json.RawMessage, fn func(context.Context, string, T) (*T, error)) (any, error) {
	var entity T
	if err := decodeParams(params, &entity); err != nil {
		return nil, err
	}
	saved, err := fn(ctx, tenantID, entity)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, nil
	}
	return saved, nil
}

// get returns nil for a missing record so it serializes as null.
func get[T any](ctx context.Context, tenantID string, params json.RawMessage, fn func(context.Context, string, string) (*T, error), notFound error) (any, error) {
	var req IDParams
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	entity, err := fn(ctx, tenantID, req.ID)
	if err != nil {
		if errors.Is(err, notFound) {
			return nil, nil
		}
		return nil, err
	}
	return entity, nil
}

func remove(ctx context.Context, tenantID string, params json.RawMessage, fn func(context.Context, string, string) error) (any, error) {
	var req IDParams
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := fn(ctx, tenantID, req.ID); err != nil {
		return nil, err
	}
	return DeleteResult{}, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %w", ErrBadParams, err)
	}
	return nil
}
