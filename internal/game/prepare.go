package game

import (
	"math/rand"

	"trivia-quest-service/internal/domain"
)

// Presentation is the per-render ordering of a choice question's options.
type Presentation struct {
	Options     []string
	AnswerIndex int
}

// Prepare shuffles the options of a choice question and locates the correct
// option by following its original position through the permutation, so
// duplicate option texts cannot confuse the lookup. Drag-match questions have
// no presentation and yield AnswerIndex -1.
func Prepare(rng *rand.Rand, q domain.Question) Presentation {
	if q.Kind != domain.KindChoice || q.Choice == nil {
		return Presentation{AnswerIndex: -1}
	}
	positions := make([]int, len(q.Choice.Options))
	for i := range positions {
		positions[i] = i
	}
	positions = Shuffle(rng, positions)

	p := Presentation{
		Options:     make([]string, len(positions)),
		AnswerIndex: -1,
	}
	for i, from := range positions {
		p.Options[i] = q.Choice.Options[from]
		if from == q.Choice.AnswerIndex {
			p.AnswerIndex = i
		}
	}
	return p
}
