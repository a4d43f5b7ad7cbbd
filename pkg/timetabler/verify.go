package timetabler

import "github.com/limaJavier/sessionplanner/pkg/model"

func verify(generated, retained []model.Assignment, catalog *model.Catalog, grid Grid) bool {
	//** Initialize dependencies
	occupancy := model.NewOccupancy(retained...)
	evaluator := newPredicateEvaluator(catalog, occupancy)

	for _, assignment := range generated {
		course, courseFound := catalog.Course(assignment.Course)
		room, roomFound := catalog.Room(assignment.Room)
		interval := assignment.Interval()

		// Check that:
		// - Course and room exist
		// - Interval is well formed and ends before the day ceiling
		// - Room is on the course's side of the lab partition
		// - Teacher is qualified and available for the whole interval
		// - Neither room, teacher nor group is already busy (no collision)
		if !courseFound || !roomFound ||
			interval.End <= interval.Start ||
			interval.End > grid.DayEnd ||
			!evaluator.Compatible(course, room) ||
			!evaluator.Qualified(course.Id, assignment.Teacher) ||
			!evaluator.TeacherAvailable(assignment.Teacher, assignment.Day, interval) ||
			occupancy.Collides(assignment) {
			return false
		}

		occupancy.Add(assignment)
	}
	return true
}
