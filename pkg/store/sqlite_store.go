package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/limaJavier/sessionplanner/pkg/model"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS departments (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS courses (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL UNIQUE,
		course_type TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		weekly_sessions INTEGER NOT NULL DEFAULT 0,
		requires_lab BOOLEAN NOT NULL DEFAULT 0,
		credits INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL DEFAULT '',
		building TEXT NOT NULL DEFAULT '',
		floor INTEGER NOT NULL DEFAULT 0,
		capacity INTEGER NOT NULL DEFAULT 0,
		room_type TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS equipment (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS room_equipment (
		room_id INTEGER NOT NULL REFERENCES rooms(id),
		equipment_id INTEGER NOT NULL REFERENCES equipment(id),
		PRIMARY KEY (room_id, equipment_id)
	)`,
	`CREATE TABLE IF NOT EXISTS teachers (
		id INTEGER PRIMARY KEY,
		full_name TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS course_teachers (
		course_id INTEGER NOT NULL REFERENCES courses(id),
		teacher_id INTEGER NOT NULL REFERENCES teachers(id),
		PRIMARY KEY (course_id, teacher_id)
	)`,
	`CREATE TABLE IF NOT EXISTS teacher_availability (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		teacher_id INTEGER NOT NULL REFERENCES teachers(id),
		day_of_week INTEGER NOT NULL CHECK(day_of_week BETWEEN 0 AND 6),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		is_available BOOLEAN NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS class_groups (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL DEFAULT '',
		department_id INTEGER NOT NULL DEFAULT 0,
		capacity INTEGER NOT NULL DEFAULT 0,
		semester INTEGER NOT NULL DEFAULT 0,
		student_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS group_courses (
		group_id INTEGER NOT NULL REFERENCES class_groups(id),
		course_id INTEGER NOT NULL REFERENCES courses(id),
		PRIMARY KEY (group_id, course_id)
	)`,
	`CREATE TABLE IF NOT EXISTS group_students (
		group_id INTEGER NOT NULL REFERENCES class_groups(id),
		student_id INTEGER NOT NULL,
		PRIMARY KEY (group_id, student_id)
	)`,
	`CREATE TABLE IF NOT EXISTS timeslots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL,
		group_id INTEGER,
		teacher_id INTEGER,
		room_id INTEGER NOT NULL,
		day_of_week INTEGER NOT NULL CHECK(day_of_week BETWEEN 0 AND 6),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		is_locked BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS timeslots_room_day ON timeslots (room_id, day_of_week)`,
	`CREATE INDEX IF NOT EXISTS timeslots_teacher_day ON timeslots (teacher_id, day_of_week)`,
	`CREATE INDEX IF NOT EXISTS timeslots_group_day ON timeslots (group_id, day_of_week)`,
}

const timeslotColumns = "id, course_id, group_id, teacher_id, room_id, day_of_week, start_time, end_time, is_locked"

// SqliteStore persists the catalog and the timeslots in a SQLite database
type SqliteStore struct {
	db *sql.DB
}

// NewSqliteStore opens (or creates) the database at path and makes sure every table exists
func NewSqliteStore(path string) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// Every connection to an in-memory database is a different database
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}

	for _, query := range schema {
		if _, err := db.Exec(query); err != nil {
			db.Close()
			return nil, fmt.Errorf("cannot create schema: %w", err)
		}
	}
	return &SqliteStore{db: db}, nil
}

func (store *SqliteStore) Close() error {
	return store.db.Close()
}

// nullable maps the zero id (shared session, no teacher) to NULL
func nullable(id uint64) any {
	if id == 0 {
		return nil
	}
	return id
}

//** Catalog

// ImportCatalog upserts every entity of a catalog (and the assignments it ships with) in one transaction.
// The relations of every imported entity are replaced by the ones the catalog lists.
func (store *SqliteStore) ImportCatalog(ctx context.Context, rawCatalog model.RawCatalog) error {
	if err := model.Validate(rawCatalog); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	exec := func(query string, args ...any) {
		if err != nil {
			return
		}
		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			err = fmt.Errorf("cannot import catalog: %w", execErr)
		}
	}

	// Relations of the imported entities are replaced, both sides are cleared before either is inserted
	for _, course := range rawCatalog.Courses {
		exec(`DELETE FROM course_teachers WHERE course_id = ?`, course.Id)
		exec(`DELETE FROM group_courses WHERE course_id = ?`, course.Id)
	}
	for _, teacher := range rawCatalog.Teachers {
		exec(`DELETE FROM course_teachers WHERE teacher_id = ?`, teacher.Id)
	}
	for _, room := range rawCatalog.Rooms {
		exec(`DELETE FROM room_equipment WHERE room_id = ?`, room.Id)
	}
	for _, group := range rawCatalog.Groups {
		exec(`DELETE FROM group_courses WHERE group_id = ?`, group.Id)
		exec(`DELETE FROM group_students WHERE group_id = ?`, group.Id)
	}

	for _, department := range rawCatalog.Departments {
		exec(`INSERT OR REPLACE INTO departments (id, name, code) VALUES (?, ?, ?)`, department.Id, department.Name, department.Code)
	}
	for _, course := range rawCatalog.Courses {
		exec(`INSERT OR REPLACE INTO courses (id, name, code, course_type, duration_minutes, weekly_sessions, requires_lab, credits) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			course.Id, course.Name, course.Code, string(course.Type), course.DurationMinutes, course.WeeklySessions, course.RequiresLab, course.Credits)
		for _, teacher := range course.Teachers {
			exec(`INSERT OR IGNORE INTO course_teachers (course_id, teacher_id) VALUES (?, ?)`, course.Id, teacher)
		}
		for _, group := range course.Groups {
			exec(`INSERT OR IGNORE INTO group_courses (group_id, course_id) VALUES (?, ?)`, group, course.Id)
		}
	}
	for _, equipment := range rawCatalog.Equipment {
		exec(`INSERT OR REPLACE INTO equipment (id, name, quantity) VALUES (?, ?, ?)`, equipment.Id, equipment.Name, equipment.Quantity)
	}
	for _, room := range rawCatalog.Rooms {
		exec(`INSERT OR REPLACE INTO rooms (id, name, code, building, floor, capacity, room_type) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			room.Id, room.Name, room.Code, room.Building, room.Floor, room.Capacity, string(room.Type))
		for _, equipment := range room.Equipment {
			exec(`INSERT OR IGNORE INTO room_equipment (room_id, equipment_id) VALUES (?, ?)`, room.Id, equipment)
		}
	}
	for _, teacher := range rawCatalog.Teachers {
		exec(`INSERT OR REPLACE INTO teachers (id, full_name) VALUES (?, ?)`, teacher.Id, teacher.FullName)
		for _, course := range teacher.Courses {
			exec(`INSERT OR IGNORE INTO course_teachers (course_id, teacher_id) VALUES (?, ?)`, course, teacher.Id)
		}
	}
	// Windows have no identity, those of the imported teachers are replaced
	teachers := lo.Uniq(lo.Map(rawCatalog.Availabilities, func(availability model.Availability, _ int) uint64 { return availability.Teacher }))
	for _, teacher := range teachers {
		exec(`DELETE FROM teacher_availability WHERE teacher_id = ?`, teacher)
	}
	for _, availability := range rawCatalog.Availabilities {
		exec(`INSERT INTO teacher_availability (teacher_id, day_of_week, start_time, end_time, is_available) VALUES (?, ?, ?, ?, ?)`,
			availability.Teacher, int(availability.Day), availability.Start.String(), availability.End.String(), availability.Available)
	}
	for _, group := range rawCatalog.Groups {
		exec(`INSERT OR REPLACE INTO class_groups (id, name, code, department_id, capacity, semester, student_count) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			group.Id, group.Name, group.Code, group.Department, group.Capacity, group.Semester, group.StudentCount)
		for _, course := range group.Courses {
			exec(`INSERT OR IGNORE INTO group_courses (group_id, course_id) VALUES (?, ?)`, group.Id, course)
		}
		for _, student := range group.Students {
			exec(`INSERT OR IGNORE INTO group_students (group_id, student_id) VALUES (?, ?)`, group.Id, student)
		}
	}
	for _, assignment := range rawCatalog.Assignments {
		exec(`INSERT OR REPLACE INTO timeslots (`+timeslotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullable(assignment.Id), assignment.Course, nullable(assignment.Group), nullable(assignment.Teacher), assignment.Room,
			int(assignment.Day), assignment.Start.String(), assignment.End.String(), assignment.Locked)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// queryAll runs a query and decodes every row with scan
func queryAll[T any](ctx context.Context, db *sql.DB, query string, scan func(rows *sql.Rows) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []T{}
	for rows.Next() {
		value, err := scan(rows)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// relation loads a two-column join table as a map from the first column to the second one
func relation(ctx context.Context, db *sql.DB, query string) (map[uint64][]uint64, error) {
	pairs, err := queryAll(ctx, db, query, func(rows *sql.Rows) ([2]uint64, error) {
		var pair [2]uint64
		err := rows.Scan(&pair[0], &pair[1])
		return pair, err
	})
	if err != nil {
		return nil, err
	}
	grouped := lo.GroupBy(pairs, func(pair [2]uint64) uint64 { return pair[0] })
	return lo.MapValues(grouped, func(pairs [][2]uint64, _ uint64) []uint64 {
		return lo.Map(pairs, func(pair [2]uint64, _ int) uint64 { return pair[1] })
	}), nil
}

func scanClocks(start, end string) (model.Clock, model.Clock, error) {
	startClock, err := model.ParseClock(start)
	if err != nil {
		return 0, 0, err
	}
	endClock, err := model.ParseClock(end)
	return startClock, endClock, err
}

func (store *SqliteStore) LoadCatalog(ctx context.Context) (*model.Catalog, error) {
	var rawCatalog model.RawCatalog
	fail := func(entity string, cause error) (*model.Catalog, error) {
		return nil, fmt.Errorf("cannot load %v: %w", entity, cause)
	}

	//** Relations
	courseTeachers, err := relation(ctx, store.db, `SELECT course_id, teacher_id FROM course_teachers ORDER BY course_id, teacher_id`)
	if err != nil {
		return fail("course teachers", err)
	}
	groupCourses, err := relation(ctx, store.db, `SELECT group_id, course_id FROM group_courses ORDER BY group_id, course_id`)
	if err != nil {
		return fail("group courses", err)
	}
	groupStudents, err := relation(ctx, store.db, `SELECT group_id, student_id FROM group_students ORDER BY group_id, student_id`)
	if err != nil {
		return fail("group students", err)
	}
	roomEquipment, err := relation(ctx, store.db, `SELECT room_id, equipment_id FROM room_equipment ORDER BY room_id, equipment_id`)
	if err != nil {
		return fail("room equipment", err)
	}

	//** Entities
	rawCatalog.Departments, err = queryAll(ctx, store.db, `SELECT id, name, code FROM departments ORDER BY id`, func(rows *sql.Rows) (model.Department, error) {
		var department model.Department
		err := rows.Scan(&department.Id, &department.Name, &department.Code)
		return department, err
	})
	if err != nil {
		return fail("departments", err)
	}

	rawCatalog.Courses, err = queryAll(ctx, store.db, `SELECT id, name, code, course_type, duration_minutes, weekly_sessions, requires_lab, credits FROM courses ORDER BY id`, func(rows *sql.Rows) (model.Course, error) {
		var course model.Course
		var courseType string
		err := rows.Scan(&course.Id, &course.Name, &course.Code, &courseType, &course.DurationMinutes, &course.WeeklySessions, &course.RequiresLab, &course.Credits)
		course.Type = model.CourseType(courseType)
		course.Teachers = courseTeachers[course.Id]
		return course, err
	})
	if err != nil {
		return fail("courses", err)
	}

	rawCatalog.Equipment, err = queryAll(ctx, store.db, `SELECT id, name, quantity FROM equipment ORDER BY id`, func(rows *sql.Rows) (model.Equipment, error) {
		var equipment model.Equipment
		err := rows.Scan(&equipment.Id, &equipment.Name, &equipment.Quantity)
		return equipment, err
	})
	if err != nil {
		return fail("equipment", err)
	}

	rawCatalog.Rooms, err = queryAll(ctx, store.db, `SELECT id, name, code, building, floor, capacity, room_type FROM rooms ORDER BY id`, func(rows *sql.Rows) (model.Room, error) {
		var room model.Room
		var roomType string
		err := rows.Scan(&room.Id, &room.Name, &room.Code, &room.Building, &room.Floor, &room.Capacity, &roomType)
		room.Type = model.RoomType(roomType)
		room.Equipment = roomEquipment[room.Id]
		return room, err
	})
	if err != nil {
		return fail("rooms", err)
	}

	rawCatalog.Teachers, err = queryAll(ctx, store.db, `SELECT id, full_name FROM teachers ORDER BY id`, func(rows *sql.Rows) (model.Teacher, error) {
		var teacher model.Teacher
		err := rows.Scan(&teacher.Id, &teacher.FullName)
		return teacher, err
	})
	if err != nil {
		return fail("teachers", err)
	}

	rawCatalog.Availabilities, err = queryAll(ctx, store.db, `SELECT teacher_id, day_of_week, start_time, end_time, is_available FROM teacher_availability ORDER BY id`, func(rows *sql.Rows) (model.Availability, error) {
		var availability model.Availability
		var start, end string
		err := rows.Scan(&availability.Teacher, &availability.Day, &start, &end, &availability.Available)
		if err != nil {
			return availability, err
		}
		availability.Start, availability.End, err = scanClocks(start, end)
		return availability, err
	})
	if err != nil {
		return fail("teacher availability", err)
	}

	rawCatalog.Groups, err = queryAll(ctx, store.db, `SELECT id, name, code, department_id, capacity, semester, student_count FROM class_groups ORDER BY id`, func(rows *sql.Rows) (model.Group, error) {
		var group model.Group
		err := rows.Scan(&group.Id, &group.Name, &group.Code, &group.Department, &group.Capacity, &group.Semester, &group.StudentCount)
		group.Courses = groupCourses[group.Id]
		group.Students = groupStudents[group.Id]
		return group, err
	})
	if err != nil {
		return fail("groups", err)
	}

	return model.NewCatalog(rawCatalog)
}

//** Assignments

func scanAssignment(rows *sql.Rows) (model.Assignment, error) {
	var assignment model.Assignment
	var group, teacher sql.NullInt64
	var start, end string
	err := rows.Scan(&assignment.Id, &assignment.Course, &group, &teacher, &assignment.Room, &assignment.Day, &start, &end, &assignment.Locked)
	if err != nil {
		return assignment, err
	}
	assignment.Group = uint64(group.Int64)
	assignment.Teacher = uint64(teacher.Int64)
	assignment.Start, assignment.End, err = scanClocks(start, end)
	return assignment, err
}

func (store *SqliteStore) Assignments(ctx context.Context) ([]model.Assignment, error) {
	assignments, err := queryAll(ctx, store.db, `SELECT `+timeslotColumns+` FROM timeslots ORDER BY id`, scanAssignment)
	if err != nil {
		return nil, fmt.Errorf("cannot load timeslots: %w", err)
	}
	return assignments, nil
}

var resourceColumns = map[model.Resource]string{
	model.RoomResource:    "room_id",
	model.TeacherResource: "teacher_id",
	model.GroupResource:   "group_id",
}

func (store *SqliteStore) AssignmentsOn(ctx context.Context, resource model.Resource, id uint64, day model.Weekday) ([]model.Assignment, error) {
	column, ok := resourceColumns[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource %v", resource)
	}
	query := `SELECT ` + timeslotColumns + ` FROM timeslots WHERE ` + column + ` = ? AND day_of_week = ? ORDER BY id`
	assignments, err := queryAll(ctx, store.db, query, scanAssignment, id, int(day))
	if err != nil {
		return nil, fmt.Errorf("cannot load timeslots of %v %d: %w", resource, id, err)
	}
	return assignments, nil
}

func (store *SqliteStore) ReplaceAssignments(ctx context.Context, remove []uint64, insert []model.Assignment) ([]model.Assignment, error) {
	for _, assignment := range insert {
		if err := model.Validate(assignment); err != nil {
			return nil, invalidError(assignment, err)
		}
	}

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range remove {
		var locked bool
		err := tx.QueryRowContext(ctx, `SELECT is_locked FROM timeslots WHERE id = ?`, id).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFoundError(id)
		} else if err != nil {
			return nil, fmt.Errorf("cannot read timeslot %d: %w", id, err)
		} else if locked {
			return nil, lockedError(id)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM timeslots WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("cannot delete timeslot %d: %w", id, err)
		}
	}

	statement, err := tx.PrepareContext(ctx, `INSERT INTO timeslots (course_id, group_id, teacher_id, room_id, day_of_week, start_time, end_time, is_locked) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("cannot prepare insert: %w", err)
	}
	defer statement.Close()

	inserted := make([]model.Assignment, 0, len(insert))
	for _, assignment := range insert {
		result, err := statement.ExecContext(ctx,
			assignment.Course, nullable(assignment.Group), nullable(assignment.Teacher), assignment.Room,
			int(assignment.Day), assignment.Start.String(), assignment.End.String(), assignment.Locked)
		if err != nil {
			return nil, fmt.Errorf("cannot insert timeslot: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("cannot read timeslot id: %w", err)
		}
		assignment.Id = uint64(id)
		inserted = append(inserted, assignment)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cannot commit timeslots: %w", err)
	}
	return inserted, nil
}
