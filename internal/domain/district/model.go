package district

import "time"

// District groups fleets geographically.
type District struct {
	ID             string    `json:"id"`
	Name           string    `json:"name" validate:"required,max=200"`
	OrganizationID string    `json:"organizationId"`
	TS             int64     `json:"ts"`
	Created        time.Time `json:"created,omitzero"`
	Modified       time.Time `json:"modified,omitzero"`
}
