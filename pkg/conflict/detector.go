package conflict

import (
	"fmt"

	"github.com/limaJavier/sessionplanner/pkg/model"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Detector interface {
	// DetectAll re-validates every hard and soft constraint over an assignment set. It never mutates its input.
	DetectAll(assignments []model.Assignment) Report

	// CheckEdit reports the teacher and room clashes a candidate assignment would cause among the current ones
	CheckEdit(candidate model.Assignment, current []model.Assignment) []Conflict
}

type options struct {
	minHours         float64
	maxHours         float64
	defaultHeadcount int
	logger           *zap.Logger
}

type Option func(*options)

// WithWorkloadBand sets the accepted weekly hours of a group (inclusive)
func WithWorkloadBand(minHours, maxHours float64) Option {
	return func(options *options) {
		options.minHours = minHours
		options.maxHours = maxHours
	}
}

// WithDefaultHeadcount sets the headcount assumed for groups that declare no students
func WithDefaultHeadcount(headcount int) Option {
	return func(options *options) {
		options.defaultHeadcount = headcount
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(options *options) {
		if logger != nil {
			options.logger = logger
		}
	}
}

type check func(detector *catalogDetector, assignments []model.Assignment) []Conflict

type catalogDetector struct {
	catalog *model.Catalog
	options options
	checks  []check
}

func NewDetector(catalog *model.Catalog, opts ...Option) Detector {
	options := options{
		minHours:         18,
		maxHours:         24,
		defaultHeadcount: 30,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &catalogDetector{
		catalog: catalog,
		options: options,
		// Checks run in this order and their findings are concatenated
		checks: []check{
			roomConflicts,
			teacherConflicts,
			groupConflicts,
			availabilityConflicts,
			workloadConflicts,
			capacityConflicts,
		},
	}
}

func (detector *catalogDetector) DetectAll(assignments []model.Assignment) Report {
	conflicts := []Conflict{}
	for _, check := range detector.checks {
		conflicts = append(conflicts, check(detector, assignments)...)
	}

	report := newReport(conflicts)
	detector.options.logger.Info("detection finished",
		zap.Int("assignments", len(assignments)),
		zap.Int("conflicts", report.TotalConflicts),
		zap.Int("critical", report.BySeverity[Critical]),
		zap.Int("high", report.BySeverity[High]),
		zap.Int("medium", report.BySeverity[Medium]),
	)
	return report
}

func (detector *catalogDetector) CheckEdit(candidate model.Assignment, current []model.Assignment) []Conflict {
	others := lo.Reject(current, func(assignment model.Assignment, _ int) bool {
		return candidate.Id != 0 && assignment.Id == candidate.Id
	})

	conflicts := []Conflict{}
	if candidate.Teacher != 0 {
		if clash, ok := lo.Find(others, func(other model.Assignment) bool {
			return other.Teacher == candidate.Teacher && overlapping(candidate, other)
		}); ok {
			conflicts = append(conflicts, detector.teacherConflict(candidate, clash))
		}
	}
	if clash, ok := lo.Find(others, func(other model.Assignment) bool {
		return other.Room == candidate.Room && overlapping(candidate, other)
	}); ok {
		conflicts = append(conflicts, detector.roomConflict(candidate, clash))
	}
	return conflicts
}

//** Pairwise checks

func overlapping(first, second model.Assignment) bool {
	return first.Day == second.Day && first.Interval().Overlaps(second.Interval())
}

func timeOf(assignment model.Assignment) string {
	return assignment.Interval().String()
}

// pairs calls report once per unordered pair of distinct assignments sharing the resource and overlapping in time
func pairs(assignments []model.Assignment, resource model.Resource, report func(first, second model.Assignment)) {
	for i, first := range assignments {
		id := resource.Of(first)
		if id == 0 {
			continue
		}
		for _, second := range assignments[i+1:] {
			if first.Id != 0 && first.Id == second.Id {
				continue
			}
			if resource.Of(second) == id && overlapping(first, second) {
				report(first, second)
			}
		}
	}
}

func (detector *catalogDetector) roomConflict(first, second model.Assignment) Conflict {
	room := detector.catalog.RoomName(first.Room)
	return Conflict{
		Type:        RoomConflict,
		Severity:    Critical,
		Description: fmt.Sprintf("room %v is double-booked on %v", room, first.Day),
		Room:        room,
		Courses:     []string{detector.catalog.CourseName(first.Course), detector.catalog.CourseName(second.Course)},
		Assignments: []uint64{first.Id, second.Id},
		Day:         lo.ToPtr(first.Day),
		Time:        timeOf(first) + " / " + timeOf(second),
	}
}

func (detector *catalogDetector) teacherConflict(first, second model.Assignment) Conflict {
	teacher := detector.catalog.TeacherName(first.Teacher)
	return Conflict{
		Type:        TeacherConflict,
		Severity:    Critical,
		Description: fmt.Sprintf("teacher %v has two sessions at the same time on %v", teacher, first.Day),
		Teacher:     teacher,
		Courses:     []string{detector.catalog.CourseName(first.Course), detector.catalog.CourseName(second.Course)},
		Assignments: []uint64{first.Id, second.Id},
		Day:         lo.ToPtr(first.Day),
		Time:        timeOf(first) + " / " + timeOf(second),
	}
}

func (detector *catalogDetector) groupConflict(first, second model.Assignment) Conflict {
	group := detector.catalog.GroupName(first.Group)
	return Conflict{
		Type:        GroupConflict,
		Severity:    Critical,
		Description: fmt.Sprintf("group %v has two sessions at the same time on %v", group, first.Day),
		Group:       group,
		Courses:     []string{detector.catalog.CourseName(first.Course), detector.catalog.CourseName(second.Course)},
		Assignments: []uint64{first.Id, second.Id},
		Day:         lo.ToPtr(first.Day),
		Time:        timeOf(first) + " / " + timeOf(second),
	}
}

func roomConflicts(detector *catalogDetector, assignments []model.Assignment) []Conflict {
	conflicts := []Conflict{}
	pairs(assignments, model.RoomResource, func(first, second model.Assignment) {
		conflicts = append(conflicts, detector.roomConflict(first, second))
	})
	return conflicts
}

func teacherConflicts(detector *catalogDetector, assignments []model.Assignment) []Conflict {
	conflicts := []Conflict{}
	pairs(assignments, model.TeacherResource, func(first, second model.Assignment) {
		conflicts = append(conflicts, detector.teacherConflict(first, second))
	})
	return conflicts
}

func groupConflicts(detector *catalogDetector, assignments []model.Assignment) []Conflict {
	conflicts := []Conflict{}
	pairs(assignments, model.GroupResource, func(first, second model.Assignment) {
		conflicts = append(conflicts, detector.groupConflict(first, second))
	})
	return conflicts
}

//** Per-assignment checks

// Only the first declared window of the teacher for that day is considered and teachers without windows get no free pass
func availabilityConflicts(detector *catalogDetector, assignments []model.Assignment) []Conflict {
	conflicts := []Conflict{}
	for _, assignment := range assignments {
		if assignment.Teacher == 0 {
			continue
		}
		window, found := lo.First(detector.catalog.AvailabilityOn(assignment.Teacher, assignment.Day))
		if found && window.Available && window.Interval().Contains(assignment.Interval()) {
			continue
		}

		teacher := detector.catalog.TeacherName(assignment.Teacher)
		conflicts = append(conflicts, Conflict{
			Type:        AvailabilityConflict,
			Severity:    High,
			Description: fmt.Sprintf("teacher %v is not available on %v at %v", teacher, assignment.Day, timeOf(assignment)),
			Teacher:     teacher,
			Courses:     []string{detector.catalog.CourseName(assignment.Course)},
			Assignments: []uint64{assignment.Id},
			Day:         lo.ToPtr(assignment.Day),
			Time:        timeOf(assignment),
		})
	}
	return conflicts
}

func capacityConflicts(detector *catalogDetector, assignments []model.Assignment) []Conflict {
	conflicts := []Conflict{}
	for _, assignment := range assignments {
		room, ok := detector.catalog.Room(assignment.Room)
		if !ok {
			continue
		}

		// Shared sessions are not tied to a roster
		headcount := 0
		if assignment.Group != 0 {
			group, _ := detector.catalog.Group(assignment.Group)
			headcount = group.Headcount(detector.options.defaultHeadcount)
		}
		if headcount <= room.Capacity {
			continue
		}

		conflicts = append(conflicts, Conflict{
			Type:        CapacityConflict,
			Severity:    High,
			Description: fmt.Sprintf("room %v (%d seats) is too small for %d students", room.Label(), room.Capacity, headcount),
			Room:        room.Label(),
			Group:       detector.catalog.GroupName(assignment.Group),
			Courses:     []string{detector.catalog.CourseName(assignment.Course)},
			Assignments: []uint64{assignment.Id},
			Day:         lo.ToPtr(assignment.Day),
			Time:        timeOf(assignment),
			Required:    headcount,
			Capacity:    room.Capacity,
		})
	}
	return conflicts
}

//** Aggregate checks

// Every catalog group is audited, including groups without any session
func workloadConflicts(detector *catalogDetector, assignments []model.Assignment) []Conflict {
	occupancy := model.NewOccupancy(assignments...)
	conflicts := []Conflict{}
	for _, group := range detector.catalog.Groups {
		hours := float64(occupancy.Minutes(model.GroupResource, group.Id)) / 60
		var bound string
		switch {
		case hours < detector.options.minHours:
			bound = fmt.Sprintf("%v < %v", hours, detector.options.minHours)
		case hours > detector.options.maxHours:
			bound = fmt.Sprintf("%v > %v", hours, detector.options.maxHours)
		default:
			continue
		}

		conflicts = append(conflicts, Conflict{
			Type:        WorkloadConflict,
			Severity:    Medium,
			Description: fmt.Sprintf("group %v has %vh of sessions per week (%v, required %v-%vh)", group.Label(), hours, bound, detector.options.minHours, detector.options.maxHours),
			Group:       group.Label(),
			Hours:       hours,
		})
	}
	return conflicts
}
