package randomutils

import (
	"math/rand"

	"github.com/pkg/errors"
)

// WeightedRandomChoice describes a weighted, randomly selectable object for use with a WeightedRandomChooser.
type WeightedRandomChoice[T any] struct {
	// Data describes the wrapped data that a WeightedRandomChooser should return when making a random selection.
	Data T

	// weight describes a value indicating the likelihood of this choice appearing in a random selection. Its
	// probability is calculated as its weight / all weights in a WeightedRandomChooser.
	weight uint64
}

// NewWeightedRandomChoice creates a WeightedRandomChoice with the given underlying data and weight.
func NewWeightedRandomChoice[T any](data T, weight uint64) WeightedRandomChoice[T] {
	return WeightedRandomChoice[T]{Data: data, weight: weight}
}

// WeightedRandomChooser takes a series of WeightedRandomChoice objects which wrap underlying data, and returns one
// of the weighted options randomly. The chooser holds no random source of its own: callers pass one to Choose so that
// selection is reproducible under a fixed seed. A chooser is immutable once built and safe for concurrent use, though
// the random source passed to Choose is not.
type WeightedRandomChooser[T any] struct {
	// choices describes the weighted choices from which the chooser will randomly select.
	choices []WeightedRandomChoice[T]

	// totalWeight describes the sum of all weights in choices.
	totalWeight uint64
}

// NewWeightedRandomChooser creates a WeightedRandomChooser over the provided choices.
func NewWeightedRandomChooser[T any](choices ...WeightedRandomChoice[T]) *WeightedRandomChooser[T] {
	c := &WeightedRandomChooser[T]{choices: choices}
	for _, choice := range choices {
		c.totalWeight += choice.weight
	}
	return c
}

// ChoiceCount returns the count of choices added to this chooser.
func (c *WeightedRandomChooser[T]) ChoiceCount() int {
	return len(c.choices)
}

// Choose selects a random weighted item using the provided random source, or returns an error if no choice carries
// any weight.
func (c *WeightedRandomChooser[T]) Choose(rng *rand.Rand) (T, error) {
	var zero T
	if c.totalWeight == 0 {
		return zero, errors.New("could not return a weighted random choice because no choices exist with non-zero weights")
	}

	position := rng.Uint64() % c.totalWeight
	for _, choice := range c.choices {
		if position < choice.weight {
			return choice.Data, nil
		}
		position -= choice.weight
	}
	return zero, errors.New("could not obtain a weighted random choice, selected position does not exist")
}
