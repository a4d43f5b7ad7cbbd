package csvio

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/limaJavier/sessionplanner/pkg/conflict"
	"github.com/limaJavier/sessionplanner/pkg/model"
	"github.com/limaJavier/sessionplanner/pkg/timetabler"

	"github.com/gocarina/gocsv"
	"github.com/samber/lo"
)

// AssignmentRow is the CSV shape of a timeslot; names are informative and ignored when reading
type AssignmentRow struct {
	Id          uint64 `csv:"id"`
	Course      uint64 `csv:"course_id"`
	CourseName  string `csv:"course"`
	Group       uint64 `csv:"group_id"`
	GroupName   string `csv:"group"`
	Teacher     uint64 `csv:"teacher_id"`
	TeacherName string `csv:"teacher"`
	Room        uint64 `csv:"room_id"`
	RoomName    string `csv:"room"`
	Day         int    `csv:"day_of_week"`
	DayName     string `csv:"day"`
	Start       string `csv:"start_time"`
	End         string `csv:"end_time"`
	Locked      bool   `csv:"is_locked"`
}

type ConflictRow struct {
	Type        string  `csv:"type"`
	Severity    string  `csv:"severity"`
	Description string  `csv:"description"`
	Room        string  `csv:"room"`
	Teacher     string  `csv:"teacher"`
	Group       string  `csv:"group"`
	Courses     string  `csv:"courses"`
	Assignments string  `csv:"assignments"`
	Day         string  `csv:"day"`
	Time        string  `csv:"time"`
	Hours       float64 `csv:"hours"`
	Required    int     `csv:"required"`
	Capacity    int     `csv:"capacity"`
}

type FailureRow struct {
	Course     uint64 `csv:"course_id"`
	CourseName string `csv:"course"`
	Group      uint64 `csv:"group_id"`
	GroupName  string `csv:"group"`
	Reason     string `csv:"reason"`
}

// WriteAssignments writes assignments sorted by day and start time. Names are resolved through the catalog when one is given.
func WriteAssignments(out io.Writer, catalog *model.Catalog, assignments []model.Assignment) error {
	sorted := slices.Clone(assignments)
	slices.SortStableFunc(sorted, func(a, b model.Assignment) int {
		return cmp.Or(cmp.Compare(a.Day, b.Day), cmp.Compare(a.Start, b.Start), cmp.Compare(a.Room, b.Room))
	})

	rows := lo.Map(sorted, func(assignment model.Assignment, _ int) AssignmentRow {
		row := AssignmentRow{
			Id:      assignment.Id,
			Course:  assignment.Course,
			Group:   assignment.Group,
			Teacher: assignment.Teacher,
			Room:    assignment.Room,
			Day:     int(assignment.Day),
			DayName: assignment.Day.String(),
			Start:   assignment.Start.String(),
			End:     assignment.End.String(),
			Locked:  assignment.Locked,
		}
		if catalog != nil {
			row.CourseName = catalog.CourseName(assignment.Course)
			row.RoomName = catalog.RoomName(assignment.Room)
			if assignment.Group != 0 {
				row.GroupName = catalog.GroupName(assignment.Group)
			}
			if assignment.Teacher != 0 {
				row.TeacherName = catalog.TeacherName(assignment.Teacher)
			}
		}
		return row
	})
	return gocsv.Marshal(&rows, out)
}

// ReadAssignments parses and validates the rows written by WriteAssignments
func ReadAssignments(in io.Reader) ([]model.Assignment, error) {
	rows := []AssignmentRow{}
	if err := gocsv.Unmarshal(in, &rows); err != nil {
		return nil, fmt.Errorf("cannot parse assignments: %w", err)
	}

	assignments := make([]model.Assignment, 0, len(rows))
	for i, row := range rows {
		start, err := model.ParseClock(row.Start)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		end, err := model.ParseClock(row.End)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		assignment := model.Assignment{
			Id:      row.Id,
			Course:  row.Course,
			Group:   row.Group,
			Teacher: row.Teacher,
			Room:    row.Room,
			Day:     model.Weekday(row.Day),
			Start:   start,
			End:     end,
			Locked:  row.Locked,
		}
		if err := model.Validate(assignment); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		assignments = append(assignments, assignment)
	}
	return assignments, nil
}

func WriteConflicts(out io.Writer, report conflict.Report) error {
	rows := lo.Map(report.Conflicts, func(item conflict.Conflict, _ int) ConflictRow {
		row := ConflictRow{
			Type:        string(item.Type),
			Severity:    string(item.Severity),
			Description: item.Description,
			Room:        item.Room,
			Teacher:     item.Teacher,
			Group:       item.Group,
			Courses:     strings.Join(item.Courses, "; "),
			Assignments: strings.Join(lo.Map(item.Assignments, func(id uint64, _ int) string { return fmt.Sprint(id) }), "; "),
			Time:        item.Time,
			Hours:       item.Hours,
			Required:    item.Required,
			Capacity:    item.Capacity,
		}
		if item.Day != nil {
			row.Day = item.Day.String()
		}
		return row
	})
	return gocsv.Marshal(&rows, out)
}

func WriteFailures(out io.Writer, failures []timetabler.Failure) error {
	rows := lo.Map(failures, func(failure timetabler.Failure, _ int) FailureRow {
		return FailureRow{
			Course:     failure.Course,
			CourseName: failure.CourseName,
			Group:      failure.Group,
			GroupName:  failure.GroupName,
			Reason:     string(failure.Reason),
		}
	})
	return gocsv.Marshal(&rows, out)
}
