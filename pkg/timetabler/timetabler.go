package timetabler

import (
	"fmt"
	"math/rand/v2"

	"github.com/limaJavier/sessionplanner/pkg/model"
	"go.uber.org/zap"
)

type Timetabler interface {
	// Generate places every session instance required by the programs of the groups in scope
	Generate(scope model.Scope) Result

	// Verify checks the hard invariants of generated assignments against each other and against the retained existing assignments
	Verify(generated []model.Assignment) bool
}

type Reason string

const (
	NoTeacher       Reason = "no teacher assigned"
	NoFeasibleSlot  Reason = "no feasible slot"
	noGroupsMessage        = "no groups found"
)

// Failure records a session instance that could not be placed
type Failure struct {
	Course     uint64
	CourseName string
	Group      uint64
	GroupName  string
	Reason     Reason
}

// ScopeError is reported when the requested scope resolves to no groups
type ScopeError struct {
	Department uint64
	Group      uint64
}

func (err *ScopeError) Error() string {
	if err.Group != 0 {
		return fmt.Sprintf("%v: group %d", noGroupsMessage, err.Group)
	}
	return fmt.Sprintf("%v: department %d", noGroupsMessage, err.Department)
}

type Result struct {
	Scope       model.Scope
	Seed        uint64
	Assignments []model.Assignment
	Failures    []Failure
	Replaced    []uint64    // Unlocked persisted assignments superseded by this run
	ScopeError  *ScopeError `json:",omitempty"`
}

func (result Result) Generated() int {
	return len(result.Assignments)
}

func (result Result) Failed() int {
	return len(result.Failures)
}

// Grid is the weekly search space of the generator
type Grid struct {
	Days            []model.Weekday
	Starts          []model.Clock
	DayEnd          model.Clock // No session may end after this clock
	DefaultDuration int         // Minutes, used when a course declares none
	DefaultSessions int         // Weekly sessions, used when a course declares none
}

func DefaultGrid() Grid {
	return Grid{
		Days:            []model.Weekday{model.Monday, model.Tuesday, model.Wednesday, model.Thursday, model.Friday, model.Saturday},
		Starts:          []model.Clock{model.At(8, 0), model.At(9, 0), model.At(10, 0), model.At(11, 0), model.At(12, 0), model.At(13, 0), model.At(14, 0), model.At(15, 0), model.At(16, 0), model.At(17, 0)},
		DayEnd:          model.At(17, 0),
		DefaultDuration: 60,
		DefaultSessions: 1,
	}
}

type options struct {
	grid   Grid
	seed   uint64
	seeded bool
	logger *zap.Logger
}

type Option func(*options)

// WithSeed pins the pseudo-random source so a run can be reproduced
func WithSeed(seed uint64) Option {
	return func(options *options) {
		options.seed = seed
		options.seeded = true
	}
}

func WithGrid(grid Grid) Option {
	return func(options *options) {
		options.grid = grid
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(options *options) {
		if logger != nil {
			options.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	options := options{
		grid:   DefaultGrid(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.seeded {
		options.seed = rand.Uint64()
	}
	return options
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
