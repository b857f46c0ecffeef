package bytecode

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// NormalizedResult describes bytecode which has had its compiler metadata trailer removed and its embedded addresses
// masked, so that structurally identical contracts produce identical bytes.
type NormalizedResult struct {
	// Normalized is the normalized bytecode.
	Normalized []byte `json:"-"`

	// OriginalSize is the size of the input bytecode in bytes.
	OriginalSize int `json:"originalSize"`

	// NormalizedSize is the size of the normalized bytecode in bytes.
	NormalizedSize int `json:"normalizedSize"`

	// MetadataStripped is the amount of metadata trailer bytes removed.
	MetadataStripped int `json:"metadataStripped"`

	// AddressesMasked is the amount of PUSH20 operands which were zeroed.
	AddressesMasked int `json:"addressesMasked"`
}

// Normalize strips the metadata trailer from raw bytecode and masks its embedded addresses. Masking can expose a new
// trailer, and a trailer can hide another beneath it, so both steps repeat until no trailer remains. This makes
// Normalize idempotent. Empty input yields an empty result. The input is never modified.
func Normalize(raw []byte) NormalizedResult {
	if len(raw) == 0 {
		return NormalizedResult{Normalized: []byte{}}
	}

	stripped, removed := StripMetadata(raw)
	masked, count := MaskAddresses(stripped)
	// Every strip shortens the code, so this terminates.
	for {
		stripped, n := StripMetadata(masked)
		if n == 0 {
			break
		}
		removed += n
		masked, count = MaskAddresses(stripped)
	}
	return NormalizedResult{
		Normalized:       masked,
		OriginalSize:     len(raw),
		NormalizedSize:   len(masked),
		MetadataStripped: removed,
		AddressesMasked:  count,
	}
}

// NormalizeHex decodes a hex string (with or without the "0x" prefix) and normalizes it. The "no code" values returned
// by nodes ("0x" and "0x0") yield an empty result. An error is returned only if the string is not valid hex.
func NormalizeHex(s string) (NormalizedResult, error) {
	raw, err := DecodeHex(s)
	if err != nil {
		return NormalizedResult{}, err
	}
	return Normalize(raw), nil
}

// DecodeHex decodes a hex string (with or without the "0x" prefix) into bytes, treating the "no code" values "", "0x"
// and "0x0" as empty.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "0x", "0x0":
		return []byte{}, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	raw, err := hexutil.Decode(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid bytecode hex")
	}
	return raw, nil
}
