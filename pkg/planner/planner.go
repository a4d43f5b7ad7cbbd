package planner

import (
	"context"
	"fmt"
	"sync"

	"github.com/limaJavier/sessionplanner/pkg/conflict"
	"github.com/limaJavier/sessionplanner/pkg/model"
	"github.com/limaJavier/sessionplanner/pkg/store"
	"github.com/limaJavier/sessionplanner/pkg/timetabler"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Outcome is what a generation run hands back to its caller
type Outcome struct {
	RunID          uuid.UUID
	Scope          model.Scope
	Seed           uint64
	GeneratedCount int
	FailedCount    int
	PersistedCount int
	Assignments    []model.Assignment
	Failures       []timetabler.Failure
	Replaced       []uint64               `json:",omitempty"`
	ScopeError     *timetabler.ScopeError `json:",omitempty"`
}

// PersistenceError reports that the generated assignments of a run could not be committed; nothing was saved
type PersistenceError struct {
	RunID uuid.UUID
	Err   error
}

func (err *PersistenceError) Error() string {
	return fmt.Sprintf("cannot persist run %v: %v", err.RunID, err.Err)
}

func (err *PersistenceError) Unwrap() error {
	return err.Err
}

// Planner ties the generator and the detector to a store. Catalog and assignments are snapshotted before each call so the algorithms never do I/O.
type Planner struct {
	store             store.Store
	timetablerOptions []timetabler.Option
	detectorOptions   []conflict.Option
	logger            *zap.Logger
	mutex             sync.Mutex // Serializes saves
}

type Option func(*Planner)

func WithTimetablerOptions(options ...timetabler.Option) Option {
	return func(planner *Planner) {
		planner.timetablerOptions = append(planner.timetablerOptions, options...)
	}
}

func WithDetectorOptions(options ...conflict.Option) Option {
	return func(planner *Planner) {
		planner.detectorOptions = append(planner.detectorOptions, options...)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(planner *Planner) {
		if logger != nil {
			planner.logger = logger
		}
	}
}

func New(store store.Store, opts ...Option) *Planner {
	planner := &Planner{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(planner)
	}
	return planner
}

func (planner *Planner) snapshot(ctx context.Context) (*model.Catalog, []model.Assignment, error) {
	catalog, err := planner.store.LoadCatalog(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load catalog: %w", err)
	}
	assignments, err := planner.store.Assignments(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load assignments: %w", err)
	}
	return catalog, assignments, nil
}

// Generate runs the generator over a scope. A scope without groups is reported on the outcome, not as an error.
func (planner *Planner) Generate(ctx context.Context, scope model.Scope) (Outcome, error) {
	if err := model.Validate(scope); err != nil {
		return Outcome{}, fmt.Errorf("invalid scope: %w", err)
	}

	catalog, existing, err := planner.snapshot(ctx)
	if err != nil {
		return Outcome{}, err
	}

	runID := uuid.New()
	options := append([]timetabler.Option{timetabler.WithLogger(planner.logger.With(zap.Stringer("run", runID)))}, planner.timetablerOptions...)
	result := timetabler.NewGreedyTimetabler(catalog, existing, options...).Generate(scope)

	return Outcome{
		RunID:          runID,
		Scope:          result.Scope,
		Seed:           result.Seed,
		GeneratedCount: result.Generated(),
		FailedCount:    result.Failed(),
		Assignments:    result.Assignments,
		Failures:       result.Failures,
		Replaced:       result.Replaced,
		ScopeError:     result.ScopeError,
	}, nil
}

// Save commits the outcome's assignments (and the removal of the ones it replaces) atomically and stamps them with their stored ids.
// On failure the outcome keeps its in-memory assignments and reports zero persisted rows.
func (planner *Planner) Save(ctx context.Context, outcome *Outcome) error {
	planner.mutex.Lock()
	defer planner.mutex.Unlock()

	logger := planner.logger.With(zap.Stringer("run", outcome.RunID))
	inserted, err := planner.store.ReplaceAssignments(ctx, outcome.Replaced, outcome.Assignments)
	if err != nil {
		outcome.PersistedCount = 0
		logger.Error("cannot persist generated assignments", zap.Error(err), zap.Int("generated", outcome.GeneratedCount))
		return &PersistenceError{RunID: outcome.RunID, Err: err}
	}

	outcome.Assignments = inserted
	outcome.PersistedCount = len(inserted)
	logger.Info("generated assignments persisted", zap.Int("persisted", len(inserted)), zap.Int("removed", len(outcome.Replaced)))
	return nil
}

// Detect audits every persisted assignment
func (planner *Planner) Detect(ctx context.Context) (conflict.Report, error) {
	catalog, assignments, err := planner.snapshot(ctx)
	if err != nil {
		return conflict.Report{}, err
	}
	return planner.detector(catalog).DetectAll(assignments), nil
}

// CheckEdit reports the teacher and room clashes a manual edit would cause, reading only that teacher's and room's day
func (planner *Planner) CheckEdit(ctx context.Context, candidate model.Assignment) ([]conflict.Conflict, error) {
	if err := model.Validate(candidate); err != nil {
		return nil, fmt.Errorf("invalid assignment: %w", err)
	}

	catalog, err := planner.store.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load catalog: %w", err)
	}

	current, err := planner.store.AssignmentsOn(ctx, model.RoomResource, candidate.Room, candidate.Day)
	if err != nil {
		return nil, err
	}
	if candidate.Teacher != 0 {
		byTeacher, err := planner.store.AssignmentsOn(ctx, model.TeacherResource, candidate.Teacher, candidate.Day)
		if err != nil {
			return nil, err
		}
		current = lo.UniqBy(append(current, byTeacher...), func(assignment model.Assignment) uint64 { return assignment.Id })
	}

	return planner.detector(catalog).CheckEdit(candidate, current), nil
}

func (planner *Planner) detector(catalog *model.Catalog) conflict.Detector {
	options := append([]conflict.Option{conflict.WithLogger(planner.logger)}, planner.detectorOptions...)
	return conflict.NewDetector(catalog, options...)
}
