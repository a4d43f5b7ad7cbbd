package model

// Resource identifies which attribute of an assignment an occupancy lookup is keyed on
type Resource int

const (
	RoomResource Resource = iota
	TeacherResource
	GroupResource
)

func (resource Resource) String() string {
	switch resource {
	case RoomResource:
		return "room"
	case TeacherResource:
		return "teacher"
	case GroupResource:
		return "group"
	}
	return "unknown"
}

// Of returns the id the assignment holds for the resource; zero means the assignment does not use it
func (resource Resource) Of(assignment Assignment) uint64 {
	switch resource {
	case RoomResource:
		return assignment.Room
	case TeacherResource:
		return assignment.Teacher
	case GroupResource:
		return assignment.Group
	}
	return 0
}

var Resources = []Resource{RoomResource, TeacherResource, GroupResource}

type occupancyKey struct {
	resource Resource
	id       uint64
	day      Weekday
}

// Occupancy indexes busy intervals by (resource, id, day) so overlap checks only scan one resource-day
type Occupancy struct {
	busy map[occupancyKey][]Interval
}

func NewOccupancy(assignments ...Assignment) *Occupancy {
	occupancy := &Occupancy{busy: make(map[occupancyKey][]Interval)}
	for _, assignment := range assignments {
		occupancy.Add(assignment)
	}
	return occupancy
}

// Add marks the room, teacher and (non-null) group of the assignment as busy
func (occupancy *Occupancy) Add(assignment Assignment) {
	for _, resource := range Resources {
		id := resource.Of(assignment)
		if id == 0 {
			continue
		}
		key := occupancyKey{resource, id, assignment.Day}
		occupancy.busy[key] = append(occupancy.busy[key], assignment.Interval())
	}
}

// Busy reports whether the resource already holds an interval overlapping the given one on that day
func (occupancy *Occupancy) Busy(resource Resource, id uint64, day Weekday, interval Interval) bool {
	for _, taken := range occupancy.busy[occupancyKey{resource, id, day}] {
		if taken.Overlaps(interval) {
			return true
		}
	}
	return false
}

// Collides reports whether any resource of the assignment is already busy at its time
func (occupancy *Occupancy) Collides(assignment Assignment) bool {
	for _, resource := range Resources {
		id := resource.Of(assignment)
		if id != 0 && occupancy.Busy(resource, id, assignment.Day, assignment.Interval()) {
			return true
		}
	}
	return false
}

// Minutes returns the total busy time of a resource over the week
func (occupancy *Occupancy) Minutes(resource Resource, id uint64) int {
	total := 0
	for key, intervals := range occupancy.busy {
		if key.resource != resource || key.id != id {
			continue
		}
		for _, interval := range intervals {
			total += interval.Minutes()
		}
	}
	return total
}
