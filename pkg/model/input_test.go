package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJson = `{
	"departments": [{"id": 1, "name": "Computer Science", "code": "CS"}],
	"courses": [
		{"id": 10, "name": "Algorithms", "code": "CS101", "course_type": "LECTURE", "duration_minutes": 90, "weekly_sessions": 2, "teacher_ids": [2]},
		{"id": 11, "name": "Networks Lab", "code": "CS201", "course_type": "LAB", "requires_lab": true, "group_ids": [100]}
	],
	"rooms": [
		{"id": 1, "name": "A-101", "code": "A101", "capacity": 40, "room_type": "Classroom", "equipment_ids": [1]},
		{"id": 2, "name": "L-1", "code": "L1", "capacity": 20, "room_type": "Lab"}
	],
	"equipment": [{"id": 1, "name": "Projector", "quantity": 1}],
	"teachers": [
		{"id": 1, "full_name": "Ada Lovelace", "course_ids": [10, 11]},
		{"id": 2, "full_name": "Alan Turing"}
	],
	"availabilities": [
		{"teacher_id": 1, "day_of_week": 0, "start_time": "08:00", "end_time": "12:00", "is_available": true},
		{"teacher_id": 1, "day_of_week": 0, "start_time": "14:00", "end_time": "17:00", "is_available": true}
	],
	"groups": [
		{"id": 100, "name": "CS-1A", "code": "CS1A", "department_id": 1, "course_ids": [10], "student_count": 28},
		{"id": 101, "name": "CS-1B", "code": "CS1B", "department_id": 1, "course_ids": [11]},
		{"id": 200, "name": "MA-1", "code": "MA1", "department_id": 2}
	],
	"assignments": [
		{"id": 5, "course_id": 10, "group_id": 100, "teacher_id": 1, "room_id": 1, "day_of_week": 2, "start_time": "09:00", "end_time": "10:30", "is_locked": true}
	]
}`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(file, []byte(content), 0666))
	return file
}

func TestCatalogFromJson(t *testing.T) {
	//** Arrange
	file := writeCatalog(t, catalogJson)

	//** Act
	catalog, assignments, err := CatalogFromJson(file)

	//** Assert
	require.NoError(t, err)

	t.Run("Entities are decoded", func(t *testing.T) {
		course, ok := catalog.Course(10)
		require.True(t, ok)
		assert.Equal(t, "CS101", course.Code)
		assert.Equal(t, 90, course.DurationMinutes)
		assert.Equal(t, 2, course.WeeklySessions)

		room, ok := catalog.Room(2)
		require.True(t, ok)
		assert.True(t, room.IsLab())

		assert.Equal(t, []Equipment{{Id: 1, Name: "Projector", Quantity: 1}}, catalog.RoomEquipment(1))
		assert.Empty(t, catalog.RoomEquipment(2))
	})

	t.Run("Many-to-many relations are merged in catalog order", func(t *testing.T) {
		teachers := catalog.QualifiedTeachers(10)
		require.Len(t, teachers, 2)
		assert.Equal(t, uint64(1), teachers[0].Id)
		assert.Equal(t, uint64(2), teachers[1].Id)
		assert.True(t, catalog.Qualified(11, 1))
		assert.False(t, catalog.Qualified(11, 2))

		program := catalog.Program(100)
		require.Len(t, program, 2)
		assert.Equal(t, uint64(10), program[0].Id)
		assert.Equal(t, uint64(11), program[1].Id)
	})

	t.Run("Availability is indexed per teacher and day", func(t *testing.T) {
		windows := catalog.AvailabilityOn(1, Monday)
		require.Len(t, windows, 2)
		assert.Equal(t, At(14, 0), windows[1].Start)
		assert.Empty(t, catalog.AvailabilityOn(1, Tuesday))
		assert.True(t, catalog.Constrained(1))
		assert.False(t, catalog.Constrained(2))
	})

	t.Run("Groups are resolved by department", func(t *testing.T) {
		groups := catalog.GroupsOf(1)
		require.Len(t, groups, 2)
		assert.Equal(t, "CS-1A", groups[0].Label())
		assert.Equal(t, 28, groups[0].Headcount(30))
		assert.Equal(t, 30, groups[1].Headcount(30))
	})

	t.Run("Persisted assignments are returned alongside", func(t *testing.T) {
		require.Len(t, assignments, 1)
		assert.Equal(t, Assignment{Id: 5, Course: 10, Group: 100, Teacher: 1, Room: 1, Day: Wednesday, Start: At(9, 0), End: At(10, 30), Locked: true}, assignments[0])
	})
}

func TestNewCatalog(t *testing.T) {
	t.Run("Duplicate course codes are rejected", func(t *testing.T) {
		_, err := NewCatalog(RawCatalog{Courses: []Course{{Id: 1, Code: "X"}, {Id: 2, Code: "X"}}})
		assert.ErrorContains(t, err, "course code \"X\"")
	})

	t.Run("Availability must end after it starts", func(t *testing.T) {
		_, err := NewCatalog(RawCatalog{Availabilities: []Availability{{Teacher: 1, Day: Monday, Start: At(12, 0), End: At(9, 0)}}})
		assert.Error(t, err)
	})

	t.Run("Unknown room types are rejected", func(t *testing.T) {
		_, err := NewCatalog(RawCatalog{Rooms: []Room{{Id: 1, Type: "Garage"}}})
		assert.Error(t, err)
	})

	t.Run("Invalid clocks fail decoding", func(t *testing.T) {
		_, err := DecodeRawCatalog(map[string]any{
			"availabilities": []any{map[string]any{"teacher_id": 1, "day_of_week": 0, "start_time": "8h", "end_time": "12:00"}},
		})
		assert.Error(t, err)
	})

	t.Run("Unknown keys fail decoding", func(t *testing.T) {
		tests := map[string]map[string]any{
			"Bare relation key": {"courses": []any{map[string]any{"id": 1, "code": "X", "teachers": []any{2}}}},
			"Bare reference":    {"availabilities": []any{map[string]any{"teacher": 1, "day_of_week": 0, "start_time": "08:00", "end_time": "12:00"}}},
			"Unknown section":   {"timeslots": []any{}},
		}
		for name, input := range tests {
			t.Run(name, func(t *testing.T) {
				_, err := DecodeRawCatalog(input)
				assert.ErrorContains(t, err, "invalid keys")
			})
		}
	})
}

func TestValidateScope(t *testing.T) {
	assert.NoError(t, Validate(Scope{Department: 1}))
	assert.NoError(t, Validate(Scope{Group: 4}))
	assert.Error(t, Validate(Scope{Semester: 2}))
}
