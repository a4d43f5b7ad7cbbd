package timetabler

import (
	"github.com/limaJavier/sessionplanner/pkg/model"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type greedyTimetabler struct {
	catalog  *model.Catalog
	existing []model.Assignment
	options  options
	retained []model.Assignment // Existing assignments kept as obstacles by the last run
}

// NewGreedyTimetabler returns a randomized greedy generator over a catalog snapshot. Existing assignments are treated as immutable obstacles.
func NewGreedyTimetabler(catalog *model.Catalog, existing []model.Assignment, opts ...Option) Timetabler {
	return &greedyTimetabler{
		catalog:  catalog,
		existing: existing,
		options:  buildOptions(opts),
		retained: existing,
	}
}

func (timetabler *greedyTimetabler) Generate(scope model.Scope) Result {
	logger := timetabler.options.logger.With(
		zap.Uint64("department", scope.Department),
		zap.Uint64("group", scope.Group),
		zap.Int("semester", scope.Semester),
		zap.Uint64("seed", timetabler.options.seed),
	)
	result := Result{
		Scope:       scope,
		Seed:        timetabler.options.seed,
		Assignments: []model.Assignment{},
		Failures:    []Failure{},
		Replaced:    []uint64{},
	}

	//** Resolve target groups
	groups := timetabler.resolveGroups(scope)
	if len(groups) == 0 {
		result.ScopeError = &ScopeError{Department: scope.Department, Group: scope.Group}
		logger.Info("scope resolved to no groups")
		return result
	}

	//** Split existing assignments into obstacles and superseded ones
	targets := lo.SliceToMap(groups, func(group model.Group) (uint64, bool) { return group.Id, true })
	retained, replaced := lo.FilterReject(timetabler.existing, func(assignment model.Assignment, _ int) bool {
		return !scope.ReplaceUnlocked || assignment.Locked || !targets[assignment.Group]
	})
	result.Replaced = lo.Map(replaced, func(assignment model.Assignment, _ int) uint64 { return assignment.Id })
	timetabler.retained = retained

	//** Initialize dependencies
	occupancy := model.NewOccupancy(retained...)
	evaluator := newPredicateEvaluator(timetabler.catalog, occupancy)
	generator := newCandidateGenerator(timetabler.options.grid, newRand(timetabler.options.seed))
	grid := timetabler.options.grid

	//** Place every session instance of every program
	for _, group := range groups {
		for _, course := range timetabler.catalog.Program(group.Id) {
			sessions, duration := course.WeeklySessions, course.DurationMinutes
			if sessions <= 0 {
				sessions = grid.DefaultSessions
			}
			if duration <= 0 {
				duration = grid.DefaultDuration
			}

			for range sessions {
				assignment, reason, ok := timetabler.place(evaluator, generator, course, group, duration)
				if !ok {
					failure := Failure{
						Course:     course.Id,
						CourseName: course.Name,
						Group:      group.Id,
						GroupName:  group.Label(),
						Reason:     reason,
					}
					result.Failures = append(result.Failures, failure)
					logger.Debug("session not placed",
						zap.String("course", course.Code),
						zap.String("group", group.Label()),
						zap.String("reason", string(reason)),
					)
					continue
				}
				occupancy.Add(assignment)
				result.Assignments = append(result.Assignments, assignment)
			}
		}
	}

	logger.Info("generation finished",
		zap.Int("groups", len(groups)),
		zap.Int("generated", result.Generated()),
		zap.Int("failed", result.Failed()),
		zap.Int("replaced", len(result.Replaced)),
	)
	return result
}

func (timetabler *greedyTimetabler) Verify(generated []model.Assignment) bool {
	return verify(generated, timetabler.retained, timetabler.catalog, timetabler.options.grid)
}

// A non-zero group selects exactly that group, otherwise every group of the department (semester does not filter)
func (timetabler *greedyTimetabler) resolveGroups(scope model.Scope) []model.Group {
	if scope.Group != 0 {
		group, ok := timetabler.catalog.Group(scope.Group)
		if !ok {
			return nil
		}
		return []model.Group{group}
	}
	return timetabler.catalog.GroupsOf(scope.Department)
}

// place searches the shuffled grid for the first feasible (day, start, room, teacher) combination of a single session instance.
// It never undoes earlier placements.
func (timetabler *greedyTimetabler) place(
	evaluator predicateEvaluator,
	generator candidateGenerator,
	course model.Course,
	group model.Group,
	duration int,
) (model.Assignment, Reason, bool) {
	rooms := lo.Filter(timetabler.catalog.Rooms, func(room model.Room, _ int) bool {
		return evaluator.Compatible(course, room)
	})
	generator.ShuffleRooms(rooms)
	candidates := generator.Candidates()

	teachers := timetabler.catalog.QualifiedTeachers(course.Id)
	if len(teachers) == 0 {
		return model.Assignment{}, NoTeacher, false
	}

	for day, start := range candidates {
		interval := model.Interval{Start: start, End: start.Add(duration)}
		if interval.End > timetabler.options.grid.DayEnd || !evaluator.GroupFree(group.Id, day, interval) {
			continue
		}

		room, ok := lo.Find(rooms, func(room model.Room) bool {
			return evaluator.RoomFree(room.Id, day, interval)
		})
		if !ok {
			continue
		}

		teacher, ok := lo.Find(teachers, func(teacher model.Teacher) bool {
			return evaluator.Qualified(course.Id, teacher.Id) &&
				evaluator.TeacherFree(teacher.Id, day, interval) &&
				evaluator.TeacherAvailable(teacher.Id, day, interval)
		})
		if !ok {
			continue
		}

		return model.Assignment{
			Course:  course.Id,
			Group:   group.Id,
			Teacher: teacher.Id,
			Room:    room.Id,
			Day:     day,
			Start:   interval.Start,
			End:     interval.End,
		}, "", true
	}
	return model.Assignment{}, NoFeasibleSlot, false
}
