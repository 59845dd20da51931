package crew

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/rpggio/fleetd/internal/validation"
)

// Crew is a named shift group attached to a fleet.
type Crew struct {
	ID             string    `json:"id"`
	Name           string    `json:"name" validate:"required,max=200"`
	JobPattern     string    `json:"jobPattern,omitempty"`
	ShiftStart     string    `json:"shiftStart,omitempty"`
	StartDate      Date      `json:"startDate,omitzero"`
	OrganizationID string    `json:"organizationId"`
	FleetID        string    `json:"fleetId,omitempty"`
	TS             int64     `json:"ts"`
	Created        time.Time `json:"created,omitzero"`
	Modified       time.Time `json:"modified,omitzero"`
}

// Date is a calendar date serialized as MM/DD/YYYY.
type Date struct {
	time.Time
}

// NewDate returns the date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(validation.DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := validation.ParseDate(s)
	if err != nil {
		return err
	}
	*d = Date{t}
	return nil
}
