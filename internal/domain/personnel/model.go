package personnel

import "time"

// Personnel is a crew member. SupervisorID is a weak reference to another
// Personnel record and is only resolved when building views.
type Personnel struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"firstName" validate:"required,max=100"`
	SecondName     string    `json:"secondName" validate:"max=100"`
	JobTitle       string    `json:"jobTitle,omitempty"`
	EmployeeID     string    `json:"employeeId" validate:"required,max=64"`
	DistrictID     string    `json:"districtId,omitempty"`
	FleetID        string    `json:"fleetId,omitempty"`
	CrewID         string    `json:"crewId,omitempty"`
	Supervisor     bool      `json:"supervisor"`
	SupervisorID   *string   `json:"supervisorId"`
	OrganizationID string    `json:"organizationId"`
	TS             int64     `json:"ts"`
	Created        time.Time `json:"created,omitzero"`
	Modified       time.Time `json:"modified,omitzero"`
}
