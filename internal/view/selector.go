package view

import (
	"errors"
	"fmt"

	"github.com/rpggio/fleetd/internal/docstore"
)

var (
	// ErrNoSelector is returned when no id set, parent or tenant was supplied.
	ErrNoSelector = errors.New("no selector: ids, parent id or tenant id required")
	// ErrInvalidPage is returned for a negative offset or non-positive limit.
	ErrInvalidPage = errors.New("invalid page")
	// ErrLookupFailed wraps store failures during a lookup.
	ErrLookupFailed = errors.New("lookup failed")
)

// SelectorKind names which predicate a Selector carries.
type SelectorKind int

const (
	SelectByIDs SelectorKind = iota + 1
	SelectByParent
	SelectByTenant
)

func (k SelectorKind) String() string {
	switch k {
	case SelectByIDs:
		return "ids"
	case SelectByParent:
		return "parent"
	case SelectByTenant:
		return "tenant"
	}
	return "none"
}

// Selector scopes a lookup to exactly one of an id set, a parent fleet or
// a tenant.
type Selector struct {
	kind  SelectorKind
	ids   []string
	value string
}

// ByIDs selects records by id. An empty set selects nothing.
func ByIDs(ids []string) Selector {
	return Selector{kind: SelectByIDs, ids: append([]string{}, ids...)}
}

// ByParent selects records whose fleetId is parentID.
func ByParent(parentID string) Selector {
	return Selector{kind: SelectByParent, value: parentID}
}

// ByTenant selects every record of the tenant.
func ByTenant(tenantID string) Selector {
	return Selector{kind: SelectByTenant, value: tenantID}
}

// ResolveSelector picks the selector from request inputs. A non-nil ids
// slice wins even when empty, then a parent id, then the tenant.
func ResolveSelector(ids []string, parentID, tenantID string) (Selector, error) {
	switch {
	case ids != nil:
		return ByIDs(ids), nil
	case parentID != "":
		return ByParent(parentID), nil
	case tenantID != "":
		return ByTenant(tenantID), nil
	}
	return Selector{}, ErrNoSelector
}

// Kind reports the selector's predicate.
func (s Selector) Kind() SelectorKind { return s.kind }

// IDs returns the id set of a ByIDs selector.
func (s Selector) IDs() []string { return s.ids }

// Value returns the parent or tenant id.
func (s Selector) Value() string { return s.value }

func (s Selector) filter(parentField string) (docstore.Filter, error) {
	switch s.kind {
	case SelectByIDs:
		return docstore.Filter{docstore.In("id", s.ids)}, nil
	case SelectByParent:
		return docstore.Filter{docstore.Eq(parentField, s.value)}, nil
	case SelectByTenant:
		return docstore.Filter{docstore.Eq("organizationId", s.value)}, nil
	}
	return nil, ErrNoSelector
}

// Page is an offset/limit window.
type Page struct {
	Offset int64
	Limit  int64
}

// Validate checks Offset >= 0 and Limit > 0.
func (p Page) Validate() error {
	if p.Offset < 0 {
		return fmt.Errorf("%w: offset %d is negative", ErrInvalidPage, p.Offset)
	}
	if p.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidPage)
	}
	return nil
}
