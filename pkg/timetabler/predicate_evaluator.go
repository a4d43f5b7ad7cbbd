package timetabler

import (
	"github.com/limaJavier/sessionplanner/pkg/model"
	"github.com/samber/lo"
)

type predicateEvaluator interface {
	// Checks whether the room is on the course's side of the lab/non-lab partition
	Compatible(course model.Course, room model.Room) bool

	// Checks whether the group has no overlapping session on that day
	GroupFree(group uint64, day model.Weekday, interval model.Interval) bool

	// Checks whether the room has no overlapping session on that day
	RoomFree(room uint64, day model.Weekday, interval model.Interval) bool

	// Checks whether the teacher has no overlapping session on that day
	TeacherFree(teacher uint64, day model.Weekday, interval model.Interval) bool

	// Checks whether one of the teacher's available windows for that day contains the interval (teachers without any window are unconstrained)
	TeacherAvailable(teacher uint64, day model.Weekday, interval model.Interval) bool

	// Checks whether the teacher is qualified to teach the course
	Qualified(course, teacher uint64) bool
}

type occupancyPredicateEvaluator struct {
	catalog   *model.Catalog
	occupancy *model.Occupancy // Persisted and run-local assignments
}

func newPredicateEvaluator(catalog *model.Catalog, occupancy *model.Occupancy) predicateEvaluator {
	return &occupancyPredicateEvaluator{
		catalog:   catalog,
		occupancy: occupancy,
	}
}

func (evaluator *occupancyPredicateEvaluator) Compatible(course model.Course, room model.Room) bool {
	// Strict partition: lab courses go to labs and everything else to non-lab rooms, capacity is not considered
	return room.IsLab() == course.RequiresLab
}

func (evaluator *occupancyPredicateEvaluator) GroupFree(group uint64, day model.Weekday, interval model.Interval) bool {
	return group == 0 || !evaluator.occupancy.Busy(model.GroupResource, group, day, interval)
}

func (evaluator *occupancyPredicateEvaluator) RoomFree(room uint64, day model.Weekday, interval model.Interval) bool {
	return !evaluator.occupancy.Busy(model.RoomResource, room, day, interval)
}

func (evaluator *occupancyPredicateEvaluator) TeacherFree(teacher uint64, day model.Weekday, interval model.Interval) bool {
	return !evaluator.occupancy.Busy(model.TeacherResource, teacher, day, interval)
}

func (evaluator *occupancyPredicateEvaluator) TeacherAvailable(teacher uint64, day model.Weekday, interval model.Interval) bool {
	if !evaluator.catalog.Constrained(teacher) {
		return true
	}
	// A constrained teacher without windows on that day is unavailable
	return lo.SomeBy(evaluator.catalog.AvailabilityOn(teacher, day), func(availability model.Availability) bool {
		return availability.Available && availability.Interval().Contains(interval)
	})
}

func (evaluator *occupancyPredicateEvaluator) Qualified(course, teacher uint64) bool {
	return evaluator.catalog.Qualified(course, teacher)
}
