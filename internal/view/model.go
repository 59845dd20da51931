package view

import (
	"github.com/rpggio/fleetd/internal/domain/crew"
	"github.com/rpggio/fleetd/internal/domain/personnel"
)

// CrewView is a crew with its fleet and district names resolved.
type CrewView struct {
	crew.Crew
	FleetName    string `json:"fleetName,omitempty"`
	DistrictName string `json:"districtName,omitempty"`
}

// PersonnelView is a personnel record with its fleet, district, crew and
// supervisor names resolved.
type PersonnelView struct {
	personnel.Personnel
	FleetName      string `json:"fleetName,omitempty"`
	DistrictName   string `json:"districtName,omitempty"`
	CrewName       string `json:"crewName,omitempty"`
	SupervisorName string `json:"supervisorName,omitempty"`
}

// CrewPage is one window of crew views.
type CrewPage struct {
	Records    []CrewView `json:"records"`
	TotalCount int64      `json:"totalCount"`
}

// PersonnelPage is one window of personnel views.
type PersonnelPage struct {
	Records    []PersonnelView `json:"records"`
	TotalCount int64           `json:"totalCount"`
}

// personnelRow carries the supervisor name parts until they are joined.
type personnelRow struct {
	PersonnelView
	SupervisorFirstName  string `json:"supervisorFirstName"`
	SupervisorSecondName string `json:"supervisorSecondName"`
}
