package similarity

import (
	"golang.org/x/exp/slices"
)

// Reference describes a chunked reference contract which targets are scored against.
type Reference struct {
	// ID is the unique identifier of the reference contract.
	ID string

	// Name is the human-readable name of the reference contract.
	Name string

	// Category is the category tag of the reference contract (e.g. "token", "dex").
	Category string

	// Chunks is the precomputed chunk set of the reference contract's normalized bytecode.
	Chunks ChunkSet
}

// Match describes the similarity of a target against a single reference contract.
type Match struct {
	// ID is the identifier of the reference contract.
	ID string `json:"id"`

	// Name is the name of the reference contract.
	Name string `json:"name"`

	// Category is the category tag of the reference contract.
	Category string `json:"category"`

	// Score is the Jaccard similarity percentage in [0, 100].
	Score float64 `json:"score"`
}

// Rank scores the target chunk set against every reference and returns the matches ordered by descending score.
// References with equal scores retain their original relative order.
func Rank(target ChunkSet, references []Reference) []Match {
	matches := make([]Match, len(references))
	for i, reference := range references {
		matches[i] = Match{
			ID:       reference.ID,
			Name:     reference.Name,
			Category: reference.Category,
			Score:    Jaccard(target, reference.Chunks),
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return matches
}

// Top returns at most n of the best matches. A non-positive n returns all matches.
func Top(matches []Match, n int) []Match {
	if n <= 0 || n >= len(matches) {
		return matches
	}
	return matches[:n]
}
