package model

type CourseType string

const (
	Lecture  CourseType = "LECTURE"
	Tutorial CourseType = "TUTORIAL"
	Lab      CourseType = "LAB"
	Exam     CourseType = "EXAM"
	Other    CourseType = "OTHER"
)

type RoomType string

const (
	Classroom    RoomType = "Classroom"
	Laboratory   RoomType = "Lab"
	Amphitheater RoomType = "Amphitheater"
)

type Department struct {
	Id   uint64 `validate:"required"`
	Name string
	Code string
}

type Course struct {
	Id              uint64 `validate:"required"`
	Name            string
	Code            string     `validate:"required"`
	Type            CourseType `mapstructure:"course_type" validate:"omitempty,oneof=LECTURE TUTORIAL LAB EXAM OTHER"`
	DurationMinutes int        `mapstructure:"duration_minutes" validate:"gte=0"`
	WeeklySessions  int        `mapstructure:"weekly_sessions" validate:"gte=0"`
	RequiresLab     bool       `mapstructure:"requires_lab"`
	Credits         int        `validate:"gte=0"`
	Teachers        []uint64   `mapstructure:"teacher_ids"` // Qualified teachers
	Groups          []uint64   `mapstructure:"group_ids"`   // Enrolled groups
}

type Equipment struct {
	Id       uint64 `validate:"required"`
	Name     string
	Quantity int `validate:"gte=0"`
}

type Room struct {
	Id        uint64 `validate:"required"`
	Name      string
	Code      string
	Building  string
	Floor     int
	Capacity  int      `validate:"gte=0"`
	Type      RoomType `mapstructure:"room_type" validate:"omitempty,oneof=Classroom Lab Amphitheater"`
	Equipment []uint64 `mapstructure:"equipment_ids"`
}

// IsLab reports whether the room belongs to the lab side of the lab/non-lab partition
func (room Room) IsLab() bool {
	return room.Type == Laboratory
}

// Label returns the most human-readable identifier of the room
func (room Room) Label() string {
	if room.Name != "" {
		return room.Name
	}
	return room.Code
}

type Teacher struct {
	Id       uint64   `validate:"required"`
	FullName string   `mapstructure:"full_name"`
	Courses  []uint64 `mapstructure:"course_ids"`
}

// Availability is a declared window during which a teacher can be scheduled
type Availability struct {
	Teacher   uint64  `mapstructure:"teacher_id" validate:"required"`
	Day       Weekday `mapstructure:"day_of_week" validate:"gte=0,lte=6"`
	Start     Clock   `mapstructure:"start_time" validate:"gte=0"`
	End       Clock   `mapstructure:"end_time" validate:"gtfield=Start"`
	Available bool    `mapstructure:"is_available"`
}

func (availability Availability) Interval() Interval {
	return Interval{Start: availability.Start, End: availability.End}
}

type Group struct {
	Id           uint64 `validate:"required"`
	Name         string
	Code         string
	Department   uint64 `mapstructure:"department_id"`
	Capacity     int    `validate:"gte=0"`
	Semester     int
	Courses      []uint64 `mapstructure:"course_ids"` // Program
	Students     []uint64 `mapstructure:"student_ids"`
	StudentCount int      `mapstructure:"student_count" validate:"gte=0"`
}

// Headcount returns the declared student count, falling back to the roster size and then to fallback
func (group Group) Headcount(fallback int) int {
	if group.StudentCount > 0 {
		return group.StudentCount
	} else if len(group.Students) > 0 {
		return len(group.Students)
	}
	return fallback
}

// Label returns the most human-readable identifier of the group
func (group Group) Label() string {
	if group.Name != "" {
		return group.Name
	}
	return group.Code
}

// Assignment is one weekly recurring session (a timeslot). A zero Group is a shared session and a zero Teacher means no teacher.
type Assignment struct {
	Id      uint64
	Course  uint64  `mapstructure:"course_id" validate:"required"`
	Group   uint64  `mapstructure:"group_id"`
	Teacher uint64  `mapstructure:"teacher_id"`
	Room    uint64  `mapstructure:"room_id" validate:"required"`
	Day     Weekday `mapstructure:"day_of_week" validate:"gte=0,lte=6"`
	Start   Clock   `mapstructure:"start_time" validate:"gte=0"`
	End     Clock   `mapstructure:"end_time" validate:"gtfield=Start"`
	Locked  bool    `mapstructure:"is_locked"`
}

func (assignment Assignment) Interval() Interval {
	return Interval{Start: assignment.Start, End: assignment.End}
}

// Scope defines which groups' programs a generation run targets
type Scope struct {
	Department      uint64 `validate:"required_without=Group"`
	Semester        int    `validate:"gte=0"`
	Group           uint64 // Zero means every group of the department
	ReplaceUnlocked bool   // Unlocked assignments of the target groups are regenerated instead of kept
}
