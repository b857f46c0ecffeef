package library

import (
	"github.com/crytic/codetwin/bytecode"
	"github.com/crytic/codetwin/similarity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Legend describes a named reference contract which deployed bytecode is compared against.
type Legend struct {
	// ID is the unique identifier of the legend.
	ID string `json:"id"`

	// Name is the human-readable name of the legend.
	Name string `json:"name"`

	// Category is a tag describing what kind of contract the legend is (e.g. "token", "dex", "nft").
	Category string `json:"category"`

	// Chain is the name of the chain the legend was sourced from.
	Chain string `json:"chain"`

	// Address is the address the legend was sourced from.
	Address common.Address `json:"address"`

	// Bytecode is the raw runtime bytecode of the legend.
	Bytecode hexutil.Bytes `json:"bytecode"`

	// Description is a short note describing the legend.
	Description string `json:"description"`
}

// ProcessedLegend is a Legend whose bytecode has been normalized and chunked once at load time.
type ProcessedLegend struct {
	Legend

	// Normalization describes the normalization statistics of the legend's bytecode.
	Normalization bytecode.NormalizedResult

	// Chunks is the chunk set of the legend's normalized bytecode.
	Chunks similarity.ChunkSet
}

// processLegend normalizes and chunks a legend's bytecode.
func processLegend(legend Legend, chunkSize int) ProcessedLegend {
	normalized := bytecode.Normalize(legend.Bytecode)
	return ProcessedLegend{
		Legend:        legend,
		Normalization: normalized,
		Chunks:        similarity.Chunk(normalized.Normalized, chunkSize),
	}
}

// reference returns the similarity.Reference view of the processed legend.
func (p *ProcessedLegend) reference() similarity.Reference {
	return similarity.Reference{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Chunks:   p.Chunks,
	}
}
