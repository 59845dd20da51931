package district

import "errors"

var (
	// ErrDistrictNotFound indicates the district doesn't exist for the tenant.
	ErrDistrictNotFound = errors.New("district not found")
	// ErrAlreadyExists indicates the tenant already has a district with that name.
	ErrAlreadyExists = errors.New("district already exists")
	// ErrTenantMismatch indicates the district belongs to another tenant.
	ErrTenantMismatch = errors.New("district belongs to another tenant")
)
