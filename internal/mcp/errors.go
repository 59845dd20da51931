package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/fleetd/internal/domain/crew"
	"github.com/rpggio/fleetd/internal/domain/district"
	"github.com/rpggio/fleetd/internal/domain/fleet"
	"github.com/rpggio/fleetd/internal/domain/personnel"
	"github.com/rpggio/fleetd/internal/repository"
	"github.com/rpggio/fleetd/internal/validation"
	"github.com/rpggio/fleetd/internal/view"
)

var (
	// ErrUnknownMethod is returned for methods the handler does not serve.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrBadParams is returned when params do not decode.
	ErrBadParams = errors.New("malformed params")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

// MapError maps domain errors to API error codes. Errors it does not know
// map to nil and are treated as internal.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: "METHOD_NOT_FOUND", Message: err.Error()}
	case errors.Is(err, ErrBadParams),
		errors.Is(err, validation.ErrInvalid),
		errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, view.ErrInvalidPage),
		errors.Is(err, view.ErrNoSelector),
		errors.Is(err, personnel.ErrSelfSupervised):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Fix the listed fields and retry"}
	case errors.Is(err, fleet.ErrAlreadyExists),
		errors.Is(err, crew.ErrAlreadyExists),
		errors.Is(err, personnel.ErrAlreadyExists),
		errors.Is(err, district.ErrAlreadyExists),
		errors.Is(err, repository.ErrAlreadyExists):
		return &APIError{Code: "ALREADY_EXISTS", Message: err.Error(), RecoveryHint: "Choose a unique name"}
	case errors.Is(err, fleet.ErrTenantMismatch),
		errors.Is(err, crew.ErrTenantMismatch),
		errors.Is(err, personnel.ErrTenantMismatch),
		errors.Is(err, district.ErrTenantMismatch):
		return &APIError{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, view.ErrLookupFailed):
		return &APIError{Code: "LOOKUP_FAILED", Message: "lookup failed", RecoveryHint: "Retry later"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
