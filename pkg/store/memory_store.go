package store

import (
	"context"
	"slices"
	"sync"

	"github.com/limaJavier/sessionplanner/pkg/model"

	"github.com/samber/lo"
)

// MemoryStore keeps the catalog and the assignments in process memory; writes are serialized by a mutex
type MemoryStore struct {
	mutex       sync.RWMutex
	rawCatalog  model.RawCatalog
	assignments []model.Assignment
	nextId      uint64
}

// NewMemoryStore seeds a store with a catalog and the assignments it ships with
func NewMemoryStore(rawCatalog model.RawCatalog) *MemoryStore {
	store := &MemoryStore{
		rawCatalog:  rawCatalog,
		assignments: slices.Clone(rawCatalog.Assignments),
		nextId:      1,
	}
	for _, assignment := range store.assignments {
		store.nextId = max(store.nextId, assignment.Id+1)
	}
	return store
}

func (store *MemoryStore) LoadCatalog(ctx context.Context) (*model.Catalog, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return model.NewCatalog(store.rawCatalog)
}

func (store *MemoryStore) Assignments(ctx context.Context) ([]model.Assignment, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return slices.Clone(store.assignments), nil
}

func (store *MemoryStore) AssignmentsOn(ctx context.Context, resource model.Resource, id uint64, day model.Weekday) ([]model.Assignment, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return lo.Filter(store.assignments, func(assignment model.Assignment, _ int) bool {
		return resource.Of(assignment) == id && assignment.Day == day
	}), nil
}

func (store *MemoryStore) ReplaceAssignments(ctx context.Context, remove []uint64, insert []model.Assignment) ([]model.Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store.mutex.Lock()
	defer store.mutex.Unlock()

	//** Check every change before touching the state
	byId := lo.KeyBy(store.assignments, func(assignment model.Assignment) uint64 { return assignment.Id })
	for _, id := range remove {
		assignment, ok := byId[id]
		if !ok {
			return nil, notFoundError(id)
		} else if assignment.Locked {
			return nil, lockedError(id)
		}
	}
	for _, assignment := range insert {
		if err := model.Validate(assignment); err != nil {
			return nil, invalidError(assignment, err)
		}
	}

	//** Apply
	removed := lo.SliceToMap(remove, func(id uint64) (uint64, bool) { return id, true })
	assignments := lo.Reject(store.assignments, func(assignment model.Assignment, _ int) bool { return removed[assignment.Id] })
	inserted := make([]model.Assignment, 0, len(insert))
	for _, assignment := range insert {
		assignment.Id = store.nextId
		store.nextId++
		inserted = append(inserted, assignment)
	}
	store.assignments = append(assignments, inserted...)
	return inserted, nil
}
