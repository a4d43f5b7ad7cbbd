package timetabler

import (
	"iter"
	"math/rand/v2"
	"slices"

	"github.com/limaJavier/sessionplanner/pkg/model"
)

type candidateGenerator interface {
	// Shuffles the room pool in place
	ShuffleRooms(rooms []model.Room)

	// Yields (day, start) combinations: days in shuffled order on the outside, each day's start times freshly shuffled on the inside.
	// Iteration stops as soon as the consumer breaks out of the loop
	Candidates() iter.Seq2[model.Weekday, model.Clock]
}

type shuffledCandidateGenerator struct {
	rand   *rand.Rand
	days   []model.Weekday
	starts []model.Clock
}

func newCandidateGenerator(grid Grid, random *rand.Rand) candidateGenerator {
	return &shuffledCandidateGenerator{
		rand:   random,
		days:   slices.Clone(grid.Days),
		starts: grid.Starts,
	}
}

func (generator *shuffledCandidateGenerator) ShuffleRooms(rooms []model.Room) {
	generator.rand.Shuffle(len(rooms), func(i, j int) { rooms[i], rooms[j] = rooms[j], rooms[i] })
}

func (generator *shuffledCandidateGenerator) Candidates() iter.Seq2[model.Weekday, model.Clock] {
	days := generator.days
	generator.rand.Shuffle(len(days), func(i, j int) { days[i], days[j] = days[j], days[i] })

	return func(yield func(model.Weekday, model.Clock) bool) {
		for _, day := range days {
			starts := slices.Clone(generator.starts)
			generator.rand.Shuffle(len(starts), func(i, j int) { starts[i], starts[j] = starts[j], starts[i] })
			for _, start := range starts {
				if !yield(day, start) {
					return
				}
			}
		}
	}
}
