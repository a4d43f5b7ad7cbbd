package conflict

import (
	"testing"

	"github.com/limaJavier/sessionplanner/pkg/model"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *model.Catalog {
	t.Helper()
	catalog, err := model.NewCatalog(model.RawCatalog{
		Departments: []model.Department{{Id: 1, Name: "Mathematics", Code: "MAT"}},
		Courses: []model.Course{
			{Id: 1, Name: "Algebra", Code: "MAT101", Teachers: []uint64{1}},
			{Id: 2, Name: "Geometry", Code: "MAT102", Teachers: []uint64{1, 2}},
		},
		Rooms: []model.Room{
			{Id: 1, Name: "Room 1", Code: "R1", Capacity: 40, Type: model.Classroom},
			{Id: 2, Name: "Room 2", Code: "R2", Capacity: 25, Type: model.Classroom},
		},
		Teachers: []model.Teacher{
			{Id: 1, FullName: "Emmy Noether"},
			{Id: 2, FullName: "Carl Gauss"},
			{Id: 3, FullName: "Sophie Germain"},
		},
		Availabilities: []model.Availability{
			{Teacher: 1, Day: model.Monday, Start: model.At(8, 0), End: model.At(17, 0), Available: true},
			{Teacher: 2, Day: model.Monday, Start: model.At(8, 0), End: model.At(10, 0), Available: false},
			{Teacher: 2, Day: model.Monday, Start: model.At(10, 0), End: model.At(17, 0), Available: true},
		},
		Groups: []model.Group{
			{Id: 1, Name: "MAT-1A", Code: "MAT1A", Department: 1, StudentCount: 20},
		},
	})
	require.NoError(t, err)
	return catalog
}

// Detector with a workload band that never triggers, so other checks can be inspected in isolation
func newQuietDetector(catalog *model.Catalog) Detector {
	return NewDetector(catalog, WithWorkloadBand(0, 168))
}

func TestDetectAll(t *testing.T) {
	catalog := newCatalog(t)

	t.Run("Teacher overlap is reported once", func(t *testing.T) {
		//** Arrange
		assignments := []model.Assignment{
			{Id: 1, Course: 1, Group: 1, Teacher: 1, Room: 1, Day: model.Monday, Start: model.At(8, 0), End: model.At(9, 0)},
			{Id: 2, Course: 2, Teacher: 1, Room: 2, Day: model.Monday, Start: model.At(8, 45), End: model.At(9, 45)},
		}

		//** Act
		report := newQuietDetector(catalog).DetectAll(assignments)

		//** Assert
		teacherConflicts := report.OfType(TeacherConflict)
		require.Len(t, teacherConflicts, 1)
		assert.Equal(t, Critical, teacherConflicts[0].Severity)
		assert.Equal(t, "Emmy Noether", teacherConflicts[0].Teacher)
		assert.Equal(t, []string{"Algebra", "Geometry"}, teacherConflicts[0].Courses)
		assert.Equal(t, []uint64{1, 2}, teacherConflicts[0].Assignments)
		assert.Equal(t, "08:00-09:00 / 08:45-09:45", teacherConflicts[0].Time)
		assert.Equal(t, 1, report.TotalConflicts)
	})

	t.Run("Low workload is reported", func(t *testing.T) {
		//** Arrange
		assignments := lo.Map(lo.Range(5), func(day int, index int) model.Assignment {
			return model.Assignment{Id: uint64(index + 1), Course: 1, Group: 1, Teacher: 3, Room: 1, Day: model.Weekday(day), Start: model.At(8, 0), End: model.At(11, 0)}
		})

		//** Act
		report := NewDetector(catalog).DetectAll(assignments)

		//** Assert
		workloadConflicts := report.OfType(WorkloadConflict)
		require.Len(t, workloadConflicts, 1)
		assert.Equal(t, Medium, workloadConflicts[0].Severity)
		assert.Equal(t, 15.0, workloadConflicts[0].Hours)
		assert.Equal(t, "MAT-1A", workloadConflicts[0].Group)
		assert.Contains(t, workloadConflicts[0].Description, "15 < 18")
	})

	t.Run("Shared pair yields one record per resource", func(t *testing.T) {
		//** Arrange
		assignments := []model.Assignment{
			{Id: 7, Course: 1, Group: 1, Teacher: 1, Room: 1, Day: model.Monday, Start: model.At(10, 0), End: model.At(11, 0)},
			{Id: 3, Course: 2, Group: 1, Teacher: 1, Room: 1, Day: model.Monday, Start: model.At(10, 30), End: model.At(11, 30)},
		}

		//** Act
		report := newQuietDetector(catalog).DetectAll(assignments)

		//** Assert
		assert.Len(t, report.OfType(RoomConflict), 1)
		assert.Len(t, report.OfType(TeacherConflict), 1)
		assert.Len(t, report.OfType(GroupConflict), 1)
		assert.Equal(t, 3, report.TotalConflicts)
		assert.Equal(t, map[Severity]int{Critical: 3, High: 0, Medium: 0}, report.BySeverity)
		// Checks run in a fixed order
		assert.Equal(t, []Type{RoomConflict, TeacherConflict, GroupConflict}, lo.Map(report.Conflicts, func(conflict Conflict, _ int) Type { return conflict.Type }))
	})

	t.Run("Touching sessions do not conflict", func(t *testing.T) {
		//** Arrange
		assignments := []model.Assignment{
			{Id: 1, Course: 1, Group: 1, Teacher: 1, Room: 1, Day: model.Monday, Start: model.At(8, 0), End: model.At(9, 0)},
			{Id: 2, Course: 2, Group: 1, Teacher: 1, Room: 1, Day: model.Monday, Start: model.At(9, 0), End: model.At(10, 0)},
			{Id: 3, Course: 2, Group: 1, Teacher: 1, Room: 1, Day: model.Tuesday, Start: model.At(9, 0), End: model.At(10, 0)},
		}

		//** Act
		report := newQuietDetector(catalog).DetectAll(assignments)

		//** Assert
		assert.Empty(t, report.OfType(RoomConflict))
		assert.Empty(t, report.OfType(TeacherConflict))
		assert.Empty(t, report.OfType(GroupConflict))
	})

	t.Run("Shared sessions never conflict as a group", func(t *testing.T) {
		//** Arrange
		assignments := []model.Assignment{
			{Id: 1, Course: 1, Teacher: 1, Room: 1, Day: model.Monday, Start: model.At(8, 0), End: model.At(9, 0)},
			{Id: 2, Course: 2, Teacher: 2, Room: 2, Day: model.Monday, Start: model.At(8, 0), End: model.At(9, 0)},
		}

		//** Act
		report := newQuietDetector(catalog).DetectAll(assignments)

		//** Assert
		assert.Empty(t, report.OfType(GroupConflict))
	})

	t.Run("Availability is audited strictly", func(t *testing.T) {
		//** Arrange
		assignments := []model.Assignment{
			{Id: 1, Course: 1, Teacher: 1, Room: 1, Day: model.Monday, Start: model.At(8, 0), End: model.At(9, 0)},   // Contained
			{Id: 2, Course: 1, Teacher: 1, Room: 1, Day: model.Tuesday, Start: model.At(8, 0), End: model.At(9, 0)},  // No window that day
			{Id: 3, Course: 2, Teacher: 2, Room: 1, Day: model.Monday, Start: model.At(11, 0), End: model.At(12, 0)}, // First window is unavailable
			{Id: 4, Course: 2, Teacher: 3, Room: 1, Day: model.Friday, Start: model.At(11, 0), End: model.At(12, 0)}, // No window at all
			{Id: 5, Course: 2, Room: 1, Day: model.Friday, Start: model.At(13, 0), End: model.At(14, 0)},             // No teacher
		}

		//** Act
		report := newQuietDetector(catalog).DetectAll(assignments)

		//** Assert
		availabilityConflicts := report.OfType(AvailabilityConflict)
		assert.Equal(t, [][]uint64{{2}, {3}, {4}}, lo.Map(availabilityConflicts, func(conflict Conflict, _ int) []uint64 { return conflict.Assignments }))
		assert.True(t, lo.EveryBy(availabilityConflicts, func(conflict Conflict) bool { return conflict.Severity == High }))
		assert.Equal(t, 3, report.BySeverity[High])
	})

	t.Run("Undersized rooms are reported", func(t *testing.T) {
		//** Arrange
		rawCatalog := model.RawCatalog{
			Rooms: []model.Room{{Id: 1, Name: "Seminar", Capacity: 25}},
			Groups: []model.Group{
				{Id: 1, Name: "Declared", StudentCount: 35},
				{Id: 2, Name: "Roster", Students: []uint64{1, 2, 3}},
				{Id: 3, Name: "Unknown"},
			},
		}
		catalog, err := model.NewCatalog(rawCatalog)
		require.NoError(t, err)
		assignments := []model.Assignment{
			{Id: 1, Course: 1, Group: 1, Room: 1, Day: model.Monday, Start: model.At(8, 0), End: model.At(9, 0)},
			{Id: 2, Course: 1, Group: 2, Room: 1, Day: model.Tuesday, Start: model.At(8, 0), End: model.At(9, 0)},
			{Id: 3, Course: 1, Group: 3, Room: 1, Day: model.Wednesday, Start: model.At(8, 0), End: model.At(9, 0)},
			{Id: 4, Course: 1, Room: 1, Day: model.Thursday, Start: model.At(8, 0), End: model.At(9, 0)},
		}

		//** Act
		report := newQuietDetector(catalog).DetectAll(assignments)

		//** Assert
		capacityConflicts := report.OfType(CapacityConflict)
		require.Len(t, capacityConflicts, 2)
		assert.Equal(t, 35, capacityConflicts[0].Required)
		assert.Equal(t, 25, capacityConflicts[0].Capacity)
		assert.Equal(t, "Declared", capacityConflicts[0].Group)
		assert.Equal(t, 30, capacityConflicts[1].Required)
		assert.Equal(t, "Unknown", capacityConflicts[1].Group)
	})

	t.Run("Detection is idempotent", func(t *testing.T) {
		//** Arrange
		detector := NewDetector(catalog)
		assignments := []model.Assignment{
			{Id: 1, Course: 1, Group: 1, Teacher: 1, Room: 2, Day: model.Monday, Start: model.At(8, 0), End: model.At(9, 0)},
			{Id: 2, Course: 2, Group: 1, Teacher: 2, Room: 2, Day: model.Monday, Start: model.At(8, 30), End: model.At(9, 30)},
			{Id: 3, Course: 2, Group: 1, Teacher: 3, Room: 1, Day: model.Friday, Start: model.At(16, 0), End: model.At(18, 0)},
		}
		snapshot := append([]model.Assignment{}, assignments...)

		//** Act
		first := detector.DetectAll(assignments)
		second := detector.DetectAll(assignments)

		//** Assert
		assert.Equal(t, first, second)
		assert.Equal(t, snapshot, assignments)
	})
}

func TestCheckEdit(t *testing.T) {
	//** Arrange
	detector := NewDetector(newCatalog(t))
	current := []model.Assignment{
		{Id: 1, Course: 1, Group: 1, Teacher: 1, Room: 1, Day: model.Monday, Start: model.At(8, 0), End: model.At(10, 0)},
		{Id: 2, Course: 2, Group: 1, Teacher: 2, Room: 2, Day: model.Monday, Start: model.At(10, 0), End: model.At(11, 0)},
	}

	t.Run("Own row is ignored", func(t *testing.T) {
		//** Act
		conflicts := detector.CheckEdit(model.Assignment{Id: 1, Course: 1, Group: 1, Teacher: 1, Room: 1, Day: model.Monday, Start: model.At(8, 30), End: model.At(9, 30)}, current)

		//** Assert
		assert.Empty(t, conflicts)
	})

	t.Run("Teacher and room clashes are reported", func(t *testing.T) {
		//** Act
		conflicts := detector.CheckEdit(model.Assignment{Id: 2, Course: 2, Group: 1, Teacher: 1, Room: 1, Day: model.Monday, Start: model.At(9, 0), End: model.At(10, 0)}, current)

		//** Assert
		require.Len(t, conflicts, 2)
		assert.Equal(t, TeacherConflict, conflicts[0].Type)
		assert.Equal(t, RoomConflict, conflicts[1].Type)
		assert.Equal(t, []uint64{2, 1}, conflicts[1].Assignments)
	})

	t.Run("New row without clashes", func(t *testing.T) {
		//** Act
		conflicts := detector.CheckEdit(model.Assignment{Course: 1, Group: 1, Teacher: 3, Room: 2, Day: model.Monday, Start: model.At(8, 0), End: model.At(10, 0)}, current)

		//** Assert
		assert.Empty(t, conflicts)
	})
}
