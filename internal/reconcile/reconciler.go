// Package reconcile implements the fleet view/sync exchange.
//
// A client keeps a local copy of its tenant's fleets and periodically sends
// its deletes and edits. Each fleet carries a logical timestamp (ts, Unix
// milliseconds); on conflict the fresher ts wins. The response tells the
// client which of its edits were accepted and which server copies it must
// pull.
//
// Known limitations: nothing here locks, so two syncs touching the same
// fleet can interleave between the read and the write, and the store keeps
// whichever write lands last regardless of ts. Updates naming another
// tenant's fleet are dropped without a report rather than rejected.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/fleetd/internal/domain/fleet"
	"github.com/rpggio/fleetd/internal/metrics"
	"github.com/rpggio/fleetd/internal/repository"
	"github.com/rpggio/fleetd/internal/validation"
)

// ErrMissingID is recorded for a versioned update that names no fleet.
var ErrMissingID = errors.New("update with ts set has no id")

// Reconciler runs view and sync for fleets.
type Reconciler struct {
	fleets fleet.Repository
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock replaces the server clock used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// New creates a new Reconciler.
func New(fleets fleet.Repository, logger *slog.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Reconciler{fleets: fleets, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// View returns the ts of every fleet the tenant owns.
func (r *Reconciler) View(ctx context.Context, tenantID string) (map[string]int64, error) {
	fleets, err := r.fleets.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing fleets: %w", err)
	}
	out := make(map[string]int64, len(fleets))
	for _, f := range fleets {
		out[f.ID] = f.TS
	}
	return out, nil
}

// Sync applies the client's removes, then its updates, then answers its
// gets. A failure on one record is logged and counted and the batch moves
// on; that record is simply absent from the response.
func (r *Reconciler) Sync(ctx context.Context, tenantID string, req Request) (*Response, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SyncDuration)

	resp := &Response{}
	queued := make(map[string]bool)

	for _, id := range req.Remove {
		if err := r.remove(ctx, tenantID, id); err != nil {
			r.recordFailure(tenantID, id, "remove", err)
			continue
		}
		resp.Removed = append(resp.Removed, id)
		metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeRemoved).Inc()
	}

	for _, entry := range req.Update {
		rec, err := entry.decode()
		if err != nil {
			r.recordFailure(tenantID, entry.id(), "update", err)
			continue
		}
		r.update(ctx, tenantID, rec, resp, queued)
	}

	for _, id := range req.Get {
		if queued[id] {
			continue
		}
		f, err := r.fleets.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				r.recordFailure(tenantID, id, "get", err)
			}
			continue
		}
		if f.OrganizationID != tenantID {
			continue
		}
		resp.Get = append(resp.Get, *f)
		queued[id] = true
	}

	r.logger.Debug("sync complete",
		"tenant_id", tenantID,
		"updated", len(resp.Updated),
		"removed", len(resp.Removed),
		"get", len(resp.Get),
	)
	return resp, nil
}

// remove deletes a fleet. Missing fleets, and fleets of other tenants, count
// as already removed.
func (r *Reconciler) remove(ctx context.Context, tenantID, id string) error {
	f, err := r.fleets.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if f.OrganizationID != tenantID {
		r.logger.Debug("remove of foreign fleet ignored", "id", id, "tenant_id", tenantID)
		return nil
	}
	if err := r.fleets.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func (r *Reconciler) update(ctx context.Context, tenantID string, rec fleet.Fleet, resp *Response, queued map[string]bool) {
	if rec.OrganizationID != "" && rec.OrganizationID != tenantID {
		r.logger.Debug("sync update for another tenant dropped",
			"id", rec.ID, "tenant_id", tenantID, "record_tenant", rec.OrganizationID)
		metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeTenantSkipped).Inc()
		return
	}
	rec.OrganizationID = tenantID

	if err := validation.Struct(rec); err != nil {
		r.recordFailure(tenantID, rec.ID, "update", err)
		return
	}

	now := r.now().UTC()

	if rec.TS == 0 {
		rec.Created = now
		if strings.TrimSpace(rec.ID) == "" {
			rec.ID = uuid.NewString()
		} else if stored, err := r.fleets.Get(ctx, rec.ID); err == nil {
			if stored.OrganizationID != tenantID {
				r.logger.Debug("sync insert over foreign fleet dropped", "id", rec.ID, "tenant_id", tenantID)
				metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeTenantSkipped).Inc()
				return
			}
			rec.Created = stored.Created
		} else if !errors.Is(err, repository.ErrNotFound) {
			r.recordFailure(tenantID, rec.ID, "insert", err)
			return
		}
		rec.TS = now.UnixMilli()
		rec.Modified = now
		if err := r.fleets.Save(ctx, &rec); err != nil {
			r.recordFailure(tenantID, rec.ID, "insert", err)
			return
		}
		resp.markUpdated(rec.ID, rec.TS)
		metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeInserted).Inc()
		return
	}

	if strings.TrimSpace(rec.ID) == "" {
		r.recordFailure(tenantID, "", "update", ErrMissingID)
		return
	}

	stored, err := r.fleets.Get(ctx, rec.ID)
	if err != nil {
		r.recordFailure(tenantID, rec.ID, "update", fmt.Errorf("retrieving stored fleet: %w", err))
		return
	}
	if stored.OrganizationID != tenantID {
		r.logger.Debug("sync update of foreign fleet dropped", "id", rec.ID, "tenant_id", tenantID)
		metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeTenantSkipped).Inc()
		return
	}

	if stored.TS > rec.TS {
		if !queued[stored.ID] {
			resp.Get = append(resp.Get, *stored)
			queued[stored.ID] = true
		}
		metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeServerWon).Inc()
		return
	}

	// The client's ts is kept as sent.
	rec.Created = stored.Created
	rec.Modified = now
	if err := r.fleets.Save(ctx, &rec); err != nil {
		r.recordFailure(tenantID, rec.ID, "update", err)
		return
	}
	resp.markUpdated(rec.ID, rec.TS)
	metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeClientWon).Inc()
}

func (r *Reconciler) recordFailure(tenantID, id, op string, err error) {
	metrics.SyncRecordsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	r.logger.Warn("sync record failed",
		"op", op,
		"id", id,
		"tenant_id", tenantID,
		"error", err,
	)
}
