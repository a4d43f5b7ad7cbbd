package model

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

type RawCatalog struct {
	Departments    []Department   `validate:"dive"`
	Courses        []Course       `validate:"dive"`
	Rooms          []Room         `validate:"dive"`
	Equipment      []Equipment    `validate:"dive"`
	Teachers       []Teacher      `validate:"dive"`
	Availabilities []Availability `validate:"dive"`
	Groups         []Group        `validate:"dive"`
	Assignments    []Assignment   `validate:"dive"` // Persisted sessions shipped along with the catalog (optional)
}

// Catalog is the read-only snapshot of entities consumed by the generator and the detector
type Catalog struct {
	Departments    []Department
	Courses        []Course
	Rooms          []Room
	Equipment      []Equipment
	Teachers       []Teacher
	Availabilities []Availability
	Groups         []Group

	courses      map[uint64]Course
	rooms        map[uint64]Room
	equipment    map[uint64]Equipment
	teachers     map[uint64]Teacher
	groups       map[uint64]Group
	programs     map[uint64][]uint64          // Courses per group (catalog course order)
	qualified    map[uint64][]uint64          // Teachers per course (catalog teacher order)
	availability map[[2]uint64][]Availability // Windows per (teacher, day)
	constrained  map[uint64]bool              // Teachers declaring at least one window
}

var validate = validator.New()

// Validate checks struct-level rules of any catalog entity, assignment or scope
func Validate(value any) error {
	return validate.Struct(value)
}

func CatalogFromJson(file string) (*Catalog, []Assignment, error) {
	rawCatalog, err := RawCatalogFromJson(file)
	if err != nil {
		return nil, nil, err
	}

	catalog, err := NewCatalog(rawCatalog)
	if err != nil {
		return nil, nil, err
	}
	return catalog, rawCatalog.Assignments, nil
}

// RawCatalogFromJson decodes a catalog file without indexing it
func RawCatalogFromJson(file string) (RawCatalog, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return RawCatalog{}, fmt.Errorf("cannot read catalog file: %w", err)
	}
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return RawCatalog{}, err
	}
	return DecodeRawCatalog(inputJson)
}

// DecodeRawCatalog decodes a generic document (e.g. parsed JSON) into a RawCatalog
func DecodeRawCatalog(input map[string]any) (RawCatalog, error) {
	var rawCatalog RawCatalog
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       ClockDecodeHook(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &rawCatalog,
	})
	if err != nil {
		return RawCatalog{}, err
	}
	if err := decoder.Decode(input); err != nil {
		return RawCatalog{}, fmt.Errorf("cannot decode catalog: %w", err)
	}
	return rawCatalog, nil
}

// ClockDecodeHook turns "HH:MM" strings into Clock values while decoding
func ClockDecodeHook() mapstructure.DecodeHookFuncType {
	clockType := reflect.TypeOf(Clock(0))
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != clockType || from.Kind() != reflect.String {
			return data, nil
		}
		return ParseClock(data.(string))
	}
}

func NewCatalog(rawCatalog RawCatalog) (*Catalog, error) {
	if err := validate.Struct(rawCatalog); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	// Course codes must be unique
	duplicates := lo.FindDuplicatesBy(rawCatalog.Courses, func(course Course) string { return course.Code })
	if len(duplicates) > 0 {
		return nil, fmt.Errorf("invalid catalog: course code \"%v\" is used more than once", duplicates[0].Code)
	}

	catalog := &Catalog{
		Departments:    rawCatalog.Departments,
		Courses:        rawCatalog.Courses,
		Rooms:          rawCatalog.Rooms,
		Equipment:      rawCatalog.Equipment,
		Teachers:       rawCatalog.Teachers,
		Availabilities: rawCatalog.Availabilities,
		Groups:         rawCatalog.Groups,
	}

	//** Index entities
	catalog.courses = lo.KeyBy(catalog.Courses, func(course Course) uint64 { return course.Id })
	catalog.rooms = lo.KeyBy(catalog.Rooms, func(room Room) uint64 { return room.Id })
	catalog.equipment = lo.KeyBy(catalog.Equipment, func(equipment Equipment) uint64 { return equipment.Id })
	catalog.teachers = lo.KeyBy(catalog.Teachers, func(teacher Teacher) uint64 { return teacher.Id })
	catalog.groups = lo.KeyBy(catalog.Groups, func(group Group) uint64 { return group.Id })

	//** Merge both sides of the course-teacher relation, keeping catalog teacher order
	catalog.qualified = make(map[uint64][]uint64)
	for _, teacher := range catalog.Teachers {
		for _, course := range catalog.Courses {
			if slices.Contains(course.Teachers, teacher.Id) || slices.Contains(teacher.Courses, course.Id) {
				catalog.qualified[course.Id] = append(catalog.qualified[course.Id], teacher.Id)
			}
		}
	}

	//** Merge both sides of the group-course relation, keeping catalog course order
	catalog.programs = make(map[uint64][]uint64)
	for _, group := range catalog.Groups {
		for _, course := range catalog.Courses {
			if slices.Contains(group.Courses, course.Id) || slices.Contains(course.Groups, group.Id) {
				catalog.programs[group.Id] = append(catalog.programs[group.Id], course.Id)
			}
		}
	}

	//** Index availability windows per teacher and day
	catalog.availability = make(map[[2]uint64][]Availability)
	catalog.constrained = make(map[uint64]bool)
	for _, availability := range catalog.Availabilities {
		key := [2]uint64{availability.Teacher, uint64(availability.Day)}
		catalog.availability[key] = append(catalog.availability[key], availability)
		catalog.constrained[availability.Teacher] = true
	}

	return catalog, nil
}

func (catalog *Catalog) Course(id uint64) (Course, bool) {
	course, ok := catalog.courses[id]
	return course, ok
}

func (catalog *Catalog) Room(id uint64) (Room, bool) {
	room, ok := catalog.rooms[id]
	return room, ok
}

func (catalog *Catalog) Teacher(id uint64) (Teacher, bool) {
	teacher, ok := catalog.teachers[id]
	return teacher, ok
}

func (catalog *Catalog) Group(id uint64) (Group, bool) {
	group, ok := catalog.groups[id]
	return group, ok
}

// GroupsOf returns the groups of a department in catalog order
func (catalog *Catalog) GroupsOf(department uint64) []Group {
	return lo.Filter(catalog.Groups, func(group Group, _ int) bool { return group.Department == department })
}

// Program returns the courses a group is enrolled in, in catalog order
func (catalog *Catalog) Program(group uint64) []Course {
	return lo.Map(catalog.programs[group], func(course uint64, _ int) Course { return catalog.courses[course] })
}

// QualifiedTeachers returns the teachers allowed to teach a course, in catalog order
func (catalog *Catalog) QualifiedTeachers(course uint64) []Teacher {
	return lo.Map(catalog.qualified[course], func(teacher uint64, _ int) Teacher { return catalog.teachers[teacher] })
}

// Qualified reports whether the teacher may teach the course
func (catalog *Catalog) Qualified(course, teacher uint64) bool {
	return slices.Contains(catalog.qualified[course], teacher)
}

// AvailabilityOn returns the declared windows of a teacher for a day, in catalog order
func (catalog *Catalog) AvailabilityOn(teacher uint64, day Weekday) []Availability {
	return catalog.availability[[2]uint64{teacher, uint64(day)}]
}

// Constrained reports whether the teacher declared any availability window at all
func (catalog *Catalog) Constrained(teacher uint64) bool {
	return catalog.constrained[teacher]
}

// RoomEquipment returns the equipment installed in a room
func (catalog *Catalog) RoomEquipment(room uint64) []Equipment {
	return lo.FilterMap(catalog.rooms[room].Equipment, func(id uint64, _ int) (Equipment, bool) {
		equipment, ok := catalog.equipment[id]
		return equipment, ok
	})
}

// CourseName resolves a course id into its name (or a placeholder when unknown)
func (catalog *Catalog) CourseName(id uint64) string {
	if course, ok := catalog.courses[id]; ok {
		return course.Name
	}
	return fmt.Sprintf("course#%d", id)
}

func (catalog *Catalog) RoomName(id uint64) string {
	if room, ok := catalog.rooms[id]; ok {
		return room.Label()
	}
	return fmt.Sprintf("room#%d", id)
}

func (catalog *Catalog) TeacherName(id uint64) string {
	if teacher, ok := catalog.teachers[id]; ok {
		return teacher.FullName
	}
	return "unknown"
}

func (catalog *Catalog) GroupName(id uint64) string {
	if group, ok := catalog.groups[id]; ok {
		return group.Label()
	}
	return fmt.Sprintf("group#%d", id)
}
