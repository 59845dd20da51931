package crew

import "errors"

var (
	// ErrCrewNotFound indicates the crew doesn't exist for the tenant.
	ErrCrewNotFound = errors.New("crew not found")
	// ErrAlreadyExists indicates the fleet already has a crew with that name.
	ErrAlreadyExists = errors.New("crew already exists")
	// ErrTenantMismatch indicates the crew belongs to another tenant.
	ErrTenantMismatch = errors.New("crew belongs to another tenant")
)
