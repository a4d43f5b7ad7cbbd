package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOccupancy(t *testing.T) {
	existing := Assignment{Id: 1, Course: 1, Group: 7, Teacher: 3, Room: 5, Day: Tuesday, Start: At(10, 0), End: At(12, 0)}
	shared := Assignment{Id: 2, Course: 2, Teacher: 4, Room: 6, Day: Tuesday, Start: At(8, 0), End: At(9, 0)}
	occupancy := NewOccupancy(existing, shared)

	t.Run("Busy is keyed on resource and day", func(t *testing.T) {
		assert.True(t, occupancy.Busy(RoomResource, 5, Tuesday, Interval{At(11, 0), At(13, 0)}))
		assert.True(t, occupancy.Busy(TeacherResource, 3, Tuesday, Interval{At(9, 0), At(10, 30)}))
		assert.True(t, occupancy.Busy(GroupResource, 7, Tuesday, Interval{At(10, 0), At(11, 0)}))
		assert.False(t, occupancy.Busy(RoomResource, 5, Wednesday, Interval{At(11, 0), At(13, 0)}))
		assert.False(t, occupancy.Busy(RoomResource, 6, Tuesday, Interval{At(9, 0), At(10, 0)}))
	})

	t.Run("Shared sessions do not occupy a group", func(t *testing.T) {
		assert.False(t, occupancy.Busy(GroupResource, 0, Tuesday, Interval{At(8, 0), At(9, 0)}))
	})

	t.Run("Collides checks every resource", func(t *testing.T) {
		assert.True(t, occupancy.Collides(Assignment{Course: 9, Group: 8, Teacher: 4, Room: 9, Day: Tuesday, Start: At(8, 30), End: At(9, 30)}))
		assert.False(t, occupancy.Collides(Assignment{Course: 9, Group: 8, Teacher: 4, Room: 9, Day: Tuesday, Start: At(9, 0), End: At(10, 0)}))
	})

	t.Run("Minutes sums the week of a resource", func(t *testing.T) {
		occupancy := NewOccupancy(existing, Assignment{Course: 1, Group: 7, Teacher: 3, Room: 5, Day: Friday, Start: At(14, 0), End: At(15, 30)})
		assert.Equal(t, 210, occupancy.Minutes(GroupResource, 7))
		assert.Equal(t, 0, occupancy.Minutes(GroupResource, 8))
	})
}
