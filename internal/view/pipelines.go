package view

import (
	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/rpggio/fleetd/internal/store"
)

const (
	// parentField is the reference both crews and personnel carry to their fleet.
	parentField = "fleetId"

	countField = "totalCount"
)

var crewFields = []string{
	"id", "name", "jobPattern", "shiftStart", "startDate",
	"organizationId", "fleetId", "ts", "created", "modified",
}

var personnelFields = []string{
	"id", "firstName", "secondName", "jobTitle", "employeeId",
	"districtId", "fleetId", "crewId", "supervisor", "supervisorId",
	"organizationId", "ts", "created", "modified",
}

// fleetAndDistrict joins the fleet by fleetId and its district through the
// fleet's districtId. Unresolved references leave the field absent.
func fleetAndDistrict() docstore.Pipeline {
	return docstore.Pipeline{
		docstore.Lookup{From: store.Fleets, LocalField: "fleetId", ForeignField: "id", As: "fleet"},
		docstore.Unwind{Path: "fleet", PreserveMissing: true},
		docstore.Lookup{From: store.Districts, LocalField: "fleet.districtId", ForeignField: "id", As: "district"},
		docstore.Unwind{Path: "district", PreserveMissing: true},
	}
}

func crewPipeline(filter docstore.Filter, page Page) docstore.Pipeline {
	p := docstore.Pipeline{docstore.Match{Filter: filter}}
	p = append(p, fleetAndDistrict()...)
	p = append(p,
		docstore.Project{Fields: append(docstore.Keep(crewFields...),
			docstore.Rename("fleetName", "fleet.name"),
			docstore.Rename("districtName", "district.name"),
		)},
		docstore.Skip{N: page.Offset},
		docstore.Limit{N: page.Limit},
	)
	return p
}

func personnelPipeline(filter docstore.Filter, page Page) docstore.Pipeline {
	p := docstore.Pipeline{docstore.Match{Filter: filter}}
	p = append(p, fleetAndDistrict()...)
	p = append(p,
		docstore.Lookup{From: store.Crews, LocalField: "crewId", ForeignField: "id", As: "crew"},
		docstore.Unwind{Path: "crew", PreserveMissing: true},
		docstore.Lookup{From: store.Personnel, LocalField: "supervisorId", ForeignField: "id", As: "supervisorRecord"},
		docstore.Unwind{Path: "supervisorRecord", PreserveMissing: true},
		docstore.Project{Fields: append(docstore.Keep(personnelFields...),
			docstore.Rename("fleetName", "fleet.name"),
			docstore.Rename("districtName", "district.name"),
			docstore.Rename("crewName", "crew.name"),
			docstore.Rename("supervisorFirstName", "supervisorRecord.firstName"),
			docstore.Rename("supervisorSecondName", "supervisorRecord.secondName"),
		)},
		docstore.Skip{N: page.Offset},
		docstore.Limit{N: page.Limit},
	)
	return p
}

func countPipeline(filter docstore.Filter) docstore.Pipeline {
	return docstore.Pipeline{
		docstore.Match{Filter: filter},
		docstore.Count{As: countField},
	}
}
