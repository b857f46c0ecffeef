package similarity

import (
	"github.com/shopspring/decimal"
)

// DefaultChunkSize is the window size, in bytes, used to fingerprint bytecode.
const DefaultChunkSize = 4

// ChunkSet is the set of distinct fixed-size byte windows found in a byte sequence.
type ChunkSet map[string]struct{}

// Chunk slides a window of size bytes across code at a one byte stride and collects every distinct window. Sequences
// shorter than size (or a non-positive size) yield an empty set.
func Chunk(code []byte, size int) ChunkSet {
	if size <= 0 || len(code) < size {
		return ChunkSet{}
	}

	chunks := make(ChunkSet, len(code)-size+1)
	for i := 0; i+size <= len(code); i++ {
		chunks[string(code[i:i+size])] = struct{}{}
	}
	return chunks
}

// Contains reports whether the provided window is a member of the set.
func (c ChunkSet) Contains(window []byte) bool {
	_, ok := c[string(window)]
	return ok
}

// Jaccard returns the intersection over union of two chunk sets as a percentage in [0, 100], rounded to two decimal
// places. Two empty sets are identical (100), and an empty set shares nothing with a non-empty one (0).
func Jaccard(a, b ChunkSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Iterate the smaller set.
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for chunk := range small {
		if _, ok := large[chunk]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection

	score := decimal.NewFromInt(int64(intersection)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(union))).
		Round(2)
	return score.InexactFloat64()
}
