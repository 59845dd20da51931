package fleet

import "errors"

var (
	// ErrFleetNotFound indicates the fleet doesn't exist for the tenant.
	ErrFleetNotFound = errors.New("fleet not found")
	// ErrAlreadyExists indicates the tenant already has a fleet with that name.
	ErrAlreadyExists = errors.New("fleet already exists")
	// ErrTenantMismatch indicates the fleet belongs to another tenant.
	ErrTenantMismatch = errors.New("fleet belongs to another tenant")
)
