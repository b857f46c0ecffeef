package analysis

import (
	"github.com/crytic/codetwin/bytecode"
	"github.com/crytic/codetwin/proxy"
	"github.com/crytic/codetwin/similarity"
	"github.com/ethereum/go-ethereum/common"
)

// Report describes the result of analyzing one contract.
type Report struct {
	// RequestID uniquely identifies the analysis in logs.
	RequestID string `json:"requestId"`

	// Address is the address which was analyzed. It is the zero address for raw bytecode analyses.
	Address common.Address `json:"address"`

	// NoCode describes whether the address holds no code, in which case nothing else was analyzed.
	NoCode bool `json:"noCode"`

	// Resolution describes the proxy chain followed from Address. Its address and bytecode are those compared.
	Resolution proxy.Resolution `json:"resolution"`

	// Normalization describes the normalization of the compared bytecode.
	Normalization bytecode.NormalizedResult `json:"normalization"`

	// CompilerVersion is the compiler version found in the compared bytecode's metadata, if any.
	CompilerVersion string `json:"compilerVersion,omitempty"`

	// Fingerprint is the Keccak-256 hash of the normalized bytecode.
	Fingerprint common.Hash `json:"fingerprint"`

	// Matches describes the best scoring legends, ordered by descending score.
	Matches []similarity.Match `json:"matches"`

	// Cached describes whether Matches came from the result cache.
	Cached bool `json:"cached"`

	// IsClone describes whether the best match scores at or above the configured threshold.
	IsClone bool `json:"isClone"`

	// Verdict is a human-readable summary of the best score.
	Verdict string `json:"verdict"`
}

// BestMatch returns the highest scoring match, if any.
func (r *Report) BestMatch() (similarity.Match, bool) {
	if len(r.Matches) == 0 {
		return similarity.Match{}, false
	}
	return r.Matches[0], true
}

// BestScore returns the highest match score, or zero if there are no matches.
func (r *Report) BestScore() float64 {
	best, _ := r.BestMatch()
	return best.Score
}
