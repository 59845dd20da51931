package personnel

import "errors"

var (
	// ErrPersonnelNotFound indicates the personnel record doesn't exist for the tenant.
	ErrPersonnelNotFound = errors.New("personnel not found")
	// ErrAlreadyExists indicates the employee id is taken within the tenant.
	ErrAlreadyExists = errors.New("personnel already exists")
	// ErrTenantMismatch indicates the record belongs to another tenant.
	ErrTenantMismatch = errors.New("personnel belongs to another tenant")
	// ErrSelfSupervised indicates a record naming itself as supervisor.
	ErrSelfSupervised = errors.New("personnel cannot supervise itself")
)
