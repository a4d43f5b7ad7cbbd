package conflict

import (
	"github.com/limaJavier/sessionplanner/pkg/model"

	"github.com/samber/lo"
)

type Type string

const (
	RoomConflict         Type = "room_conflict"
	TeacherConflict      Type = "teacher_conflict"
	GroupConflict        Type = "group_conflict"
	AvailabilityConflict Type = "availability_conflict"
	WorkloadConflict     Type = "workload_conflict"
	CapacityConflict     Type = "capacity_conflict"
)

type Severity string

const (
	Critical Severity = "critical"
	High     Severity = "high"
	Medium   Severity = "medium"
)

var Severities = []Severity{Critical, High, Medium}

// Conflict is one violation found by the detector along with the references needed to fix it
type Conflict struct {
	Type        Type
	Severity    Severity
	Description string
	Room        string         `json:",omitempty"`
	Teacher     string         `json:",omitempty"`
	Group       string         `json:",omitempty"`
	Courses     []string       `json:",omitempty"`
	Assignments []uint64       `json:",omitempty"` // Ids of the offending assignments
	Day         *model.Weekday `json:",omitempty"` // Nil for weekly aggregates
	Time        string         `json:",omitempty"`
	Hours       float64        `json:",omitempty"`
	Required    int            `json:",omitempty"` // Headcount
	Capacity    int            `json:",omitempty"`
}

type Report struct {
	TotalConflicts int
	BySeverity     map[Severity]int
	Conflicts      []Conflict
}

func newReport(conflicts []Conflict) Report {
	bySeverity := lo.SliceToMap(Severities, func(severity Severity) (Severity, int) { return severity, 0 })
	for severity, count := range lo.CountValuesBy(conflicts, func(conflict Conflict) Severity { return conflict.Severity }) {
		bySeverity[severity] = count
	}
	return Report{
		TotalConflicts: len(conflicts),
		BySeverity:     bySeverity,
		Conflicts:      conflicts,
	}
}

// OfType filters the report's conflicts by type
func (report Report) OfType(conflictType Type) []Conflict {
	return lo.Filter(report.Conflicts, func(conflict Conflict, _ int) bool { return conflict.Type == conflictType })
}
