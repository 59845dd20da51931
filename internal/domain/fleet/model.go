package fleet

import "time"

// Fleet is the unit of synchronization. TS is the client-visible logical
// version in Unix milliseconds; Created and Modified are server audit times.
type Fleet struct {
	ID             string    `json:"id"`
	Name           string    `json:"name" validate:"required,max=200"`
	DistrictID     string    `json:"districtId,omitempty"`
	OrganizationID string    `json:"organizationId"`
	TS             int64     `json:"ts"`
	Created        time.Time `json:"created,omitzero"`
	Modified       time.Time `json:"modified,omitzero"`
}
