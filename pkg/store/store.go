package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/limaJavier/sessionplanner/pkg/model"
)

var (
	ErrLockedAssignment   = errors.New("locked assignments cannot be removed")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

type CatalogReader interface {
	// LoadCatalog returns an immutable snapshot of every catalog entity
	LoadCatalog(ctx context.Context) (*model.Catalog, error)
}

type AssignmentReader interface {
	// Assignments returns every persisted assignment ordered by id
	Assignments(ctx context.Context) ([]model.Assignment, error)

	// AssignmentsOn returns the persisted assignments of one room, teacher or group on a day, ordered by id
	AssignmentsOn(ctx context.Context, resource model.Resource, id uint64, day model.Weekday) ([]model.Assignment, error)
}

type AssignmentWriter interface {
	// ReplaceAssignments removes and inserts assignments in a single transaction and returns the inserted rows with their new ids.
	// Either every change is committed or none is; removing a locked assignment fails the whole transaction.
	ReplaceAssignments(ctx context.Context, remove []uint64, insert []model.Assignment) ([]model.Assignment, error)
}

type Store interface {
	CatalogReader
	AssignmentReader
	AssignmentWriter
}

func lockedError(id uint64) error {
	return fmt.Errorf("cannot remove assignment %d: %w", id, ErrLockedAssignment)
}

func notFoundError(id uint64) error {
	return fmt.Errorf("cannot remove assignment %d: %w", id, ErrAssignmentNotFound)
}

func invalidError(assignment model.Assignment, err error) error {
	return fmt.Errorf("invalid assignment of course %d on %v: %w", assignment.Course, assignment.Day, err)
}
