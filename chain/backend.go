package chain

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Backend describes a source of on-chain contract data. Implementations must be safe for concurrent use.
type Backend interface {
	// GetCode returns the runtime bytecode deployed at the provided address. An address without code yields an empty
	// slice and no error.
	GetCode(ctx context.Context, addr common.Address) ([]byte, error)

	// GetStorageAt returns the 32-byte word stored at the provided slot of the provided address. Slots never written
	// to yield the zero hash.
	GetStorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error)
}

var _ Backend = (*EmptyBackend)(nil)
var _ Backend = (*StaticBackend)(nil)
var _ Backend = (*RPCBackend)(nil)

// EmptyBackend is a Backend in which no address holds code and every storage slot is zero. It is used when analyzing
// raw bytecode with no chain available.
type EmptyBackend struct{}

// GetCode always returns no code.
func (EmptyBackend) GetCode(context.Context, common.Address) ([]byte, error) {
	return nil, nil
}

// GetStorageAt always returns the zero word.
func (EmptyBackend) GetStorageAt(context.Context, common.Address, common.Hash) (common.Hash, error) {
	return common.Hash{}, nil
}

// StaticBackend is a Backend serving pre-populated code and storage. Errors can be injected per address to simulate
// transport failures.
type StaticBackend struct {
	lock    sync.RWMutex
	code    map[common.Address][]byte
	storage map[common.Address]map[common.Hash]common.Hash
	errors  map[common.Address]error

	// codeReads counts GetCode calls per address.
	codeReads map[common.Address]int
}

// NewStaticBackend creates an empty StaticBackend.
func NewStaticBackend() *StaticBackend {
	return &StaticBackend{
		code:      make(map[common.Address][]byte),
		storage:   make(map[common.Address]map[common.Hash]common.Hash),
		errors:    make(map[common.Address]error),
		codeReads: make(map[common.Address]int),
	}
}

// SetCode sets the code returned for an address.
func (s *StaticBackend) SetCode(addr common.Address, code []byte) *StaticBackend {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.code[addr] = code
	return s
}

// SetStorageAt sets the word returned for a slot of an address.
func (s *StaticBackend) SetStorageAt(addr common.Address, slot common.Hash, value common.Hash) *StaticBackend {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.storage[addr]; !ok {
		s.storage[addr] = make(map[common.Hash]common.Hash)
	}
	s.storage[addr][slot] = value
	return s
}

// SetError makes every read concerning the provided address fail with err. A nil err clears it.
func (s *StaticBackend) SetError(addr common.Address, err error) *StaticBackend {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err == nil {
		delete(s.errors, addr)
	} else {
		s.errors[addr] = err
	}
	return s
}

// CodeReads returns how many times GetCode was called for the provided address.
func (s *StaticBackend) CodeReads(addr common.Address) int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.codeReads[addr]
}

// GetCode returns the code set for the address, or nil.
func (s *StaticBackend) GetCode(ctx context.Context, addr common.Address) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.codeReads[addr]++
	if err, ok := s.errors[addr]; ok {
		return nil, err
	}
	return s.code[addr], nil
}

// GetStorageAt returns the word set for the slot, or the zero word.
func (s *StaticBackend) GetStorageAt(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}

	s.lock.RLock()
	defer s.lock.RUnlock()
	if err, ok := s.errors[addr]; ok {
		return common.Hash{}, err
	}
	return s.storage[addr][slot], nil
}
