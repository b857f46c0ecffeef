package utils

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ErrMalformedAddress indicates that a string could not be parsed as a 20-byte hex address.
var ErrMalformedAddress = errors.New("malformed address")

// HexStringToAddress converts a hex string (with or without the "0x" prefix) to a common.Address. Unlike
// common.HexToAddress, input which is not exactly 20 bytes of hex is rejected rather than silently truncated or padded.
func HexStringToAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Wrapf(ErrMalformedAddress, "%q is not a 40 character hex string", s)
	}
	return common.HexToAddress(s), nil
}

// IsZeroAddress returns a boolean indicating whether the provided address is the zero address.
func IsZeroAddress(address common.Address) bool {
	return address == (common.Address{})
}
