// Package view assembles denormalized crew and personnel pages.
//
// The store has no declarative joins, so each reference hop is a pipeline
// stage: match, then the lookup chain, then project, skip and limit.
// Pagination applies to the joined stream and the total comes from a
// separate count pipeline over the same selector, so both stay consistent.
package view

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/rpggio/fleetd/internal/metrics"
	"github.com/rpggio/fleetd/internal/store"
	"github.com/rpggio/fleetd/internal/validation"
)

// Builder runs view lookups. It never writes.
type Builder struct {
	db     docstore.Store
	logger *slog.Logger
}

// NewBuilder creates a new view builder.
func NewBuilder(db docstore.Store, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{db: db, logger: logger}
}

// LookupCrew returns one page of crew views and the total match count.
func (b *Builder) LookupCrew(ctx context.Context, sel Selector, page Page) (*CrewPage, error) {
	docs, total, err := b.run(ctx, "crew", store.Crews, sel, page, crewPipeline)
	if err != nil {
		return nil, err
	}

	out := &CrewPage{Records: make([]CrewView, 0, len(docs)), TotalCount: total}
	for _, doc := range docs {
		scrubRefs(doc, "fleetId")
		scrubDates(doc, validation.DateLayout, "startDate")
		scrubDates(doc, time.RFC3339Nano, "created", "modified")
		var v CrewView
		if err := doc.Decode(&v); err != nil {
			b.skip("crew", doc, err)
			continue
		}
		out.Records = append(out.Records, v)
	}
	return out, nil
}

// LookupPersonnel returns one page of personnel views and the total match
// count. supervisorName joins the supervisor's first and second names.
func (b *Builder) LookupPersonnel(ctx context.Context, sel Selector, page Page) (*PersonnelPage, error) {
	docs, total, err := b.run(ctx, "personnel", store.Personnel, sel, page, personnelPipeline)
	if err != nil {
		return nil, err
	}

	out := &PersonnelPage{Records: make([]PersonnelView, 0, len(docs)), TotalCount: total}
	for _, doc := range docs {
		scrubRefs(doc, "districtId", "fleetId", "crewId", "supervisorId")
		scrubDates(doc, time.RFC3339Nano, "created", "modified")
		var row personnelRow
		if err := doc.Decode(&row); err != nil {
			b.skip("personnel", doc, err)
			continue
		}
		v := row.PersonnelView
		v.SupervisorName = strings.TrimSpace(row.SupervisorFirstName + " " + row.SupervisorSecondName)
		out.Records = append(out.Records, v)
	}
	return out, nil
}

func (b *Builder) run(
	ctx context.Context,
	entity, collection string,
	sel Selector,
	page Page,
	build func(docstore.Filter, Page) docstore.Pipeline,
) ([]docstore.Document, int64, error) {
	if err := page.Validate(); err != nil {
		return nil, 0, err
	}
	filter, err := sel.filter(parentField)
	if err != nil {
		return nil, 0, err
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.LookupDuration, entity)

	docs, err := b.db.Aggregate(ctx, collection, build(filter, page))
	if err != nil {
		return nil, 0, b.fail(entity, err)
	}

	total, err := b.count(ctx, collection, filter)
	if err != nil {
		return nil, 0, b.fail(entity, err)
	}

	b.logger.Debug("view lookup",
		"entity", entity,
		"selector", sel.Kind().String(),
		"offset", page.Offset,
		"limit", page.Limit,
		"returned", len(docs),
		"total", total,
	)
	return docs, total, nil
}

func (b *Builder) count(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	docs, err := b.db.Aggregate(ctx, collection, countPipeline(filter))
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	n, ok := docstore.AsInt64(docs[0][countField])
	if !ok {
		return 0, fmt.Errorf("unexpected count value %v", docs[0][countField])
	}
	return n, nil
}

func (b *Builder) fail(entity string, err error) error {
	metrics.LookupFailuresTotal.WithLabelValues(entity).Inc()
	b.logger.Error("view lookup failed", "entity", entity, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrLookupFailed, entity, err)
}

// skip logs a stored record that cannot be shown. The page goes out without
// it; TotalCount still counts it.
func (b *Builder) skip(entity string, doc docstore.Document, err error) {
	b.logger.Warn("view record skipped", "entity", entity, "id", doc.ID(), "error", err)
}

// scrubDates drops date fields that do not parse with layout, so a bad
// stored date reads as unset.
func scrubDates(doc docstore.Document, layout string, fields ...string) {
	for _, f := range fields {
		v, ok := doc[f]
		if !ok || v == nil {
			continue
		}
		s, isString := v.(string)
		if !isString {
			delete(doc, f)
			continue
		}
		if _, err := time.Parse(layout, s); err != nil {
			delete(doc, f)
		}
	}
}

// scrubRefs drops reference fields that are not strings so a malformed
// reference shows up as absent instead of failing the page.
func scrubRefs(doc docstore.Document, fields ...string) {
	for _, f := range fields {
		v, ok := doc[f]
		if !ok || v == nil {
			continue
		}
		if _, isString := v.(string); !isString {
			delete(doc, f)
		}
	}
}
