package analysis

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidAddress is returned when an address to analyze is not a well-formed 20-byte hex address. No chain
	// reads are made in that case.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrFetchBytecode is returned when the code of the address to analyze could not be read.
	ErrFetchBytecode = errors.New("could not fetch bytecode")
)

// FetchError describes a failure to read the code of an analyzed address. It matches ErrFetchBytecode and unwraps to
// the error returned by the backend.
type FetchError struct {
	// Address is the address whose code could not be read.
	Address common.Address

	err error
}

// newFetchError creates a FetchError for the provided address and backend error.
func newFetchError(addr common.Address, err error) *FetchError {
	return &FetchError{Address: addr, err: err}
}

// Error returns a message naming the address and the backend error.
func (e *FetchError) Error() string {
	return ErrFetchBytecode.Error() + " of " + e.Address.Hex() + ": " + e.err.Error()
}

// Is reports whether target is ErrFetchBytecode.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchBytecode
}

// Unwrap returns the backend error.
func (e *FetchError) Unwrap() error {
	return e.err
}
