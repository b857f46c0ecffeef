package chain

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrCacheMiss is returned by a readCache when the requested data has not been cached.
var ErrCacheMiss = errors.New("not found in cache")

// readCache caches chain reads made at a single, pinned block height. Data at a pinned height never changes, so
// entries never expire.
type readCache interface {
	GetCode(addr common.Address) ([]byte, error)
	WriteCode(addr common.Address, code []byte) error

	GetSlotData(addr common.Address, slot common.Hash) (common.Hash, error)
	WriteSlotData(addr common.Address, slot common.Hash, data common.Hash) error

	Close() error
}

// memoryReadCache provides a thread-safe readCache which is not persisted to disk.
type memoryReadCache struct {
	codeLock  sync.RWMutex
	codeCache map[common.Address][]byte

	slotLock  sync.RWMutex
	slotCache map[common.Address]map[common.Hash]common.Hash
}

func newMemoryReadCache() *memoryReadCache {
	return &memoryReadCache{
		codeCache: make(map[common.Address][]byte),
		slotCache: make(map[common.Address]map[common.Hash]common.Hash),
	}
}

// GetCode checks if the code of addr is present in the cache, and if not, returns ErrCacheMiss.
func (m *memoryReadCache) GetCode(addr common.Address) ([]byte, error) {
	m.codeLock.RLock()
	defer m.codeLock.RUnlock()

	code, ok := m.codeCache[addr]
	if !ok {
		return nil, ErrCacheMiss
	}
	return code, nil
}

func (m *memoryReadCache) WriteCode(addr common.Address, code []byte) error {
	m.codeLock.Lock()
	defer m.codeLock.Unlock()

	// An empty, non-nil slice marks addresses known to have no code
	if code == nil {
		code = []byte{}
	}
	m.codeCache[addr] = code
	return nil
}

// GetSlotData checks if the specified slot is stored in the cache, and if not, returns ErrCacheMiss.
func (m *memoryReadCache) GetSlotData(addr common.Address, slot common.Hash) (common.Hash, error) {
	m.slotLock.RLock()
	defer m.slotLock.RUnlock()

	if slotLookup, ok := m.slotCache[addr]; ok {
		if data, ok := slotLookup[slot]; ok {
			return data, nil
		}
	}
	return common.Hash{}, ErrCacheMiss
}

func (m *memoryReadCache) WriteSlotData(addr common.Address, slot common.Hash, data common.Hash) error {
	m.slotLock.Lock()
	defer m.slotLock.Unlock()

	if _, ok := m.slotCache[addr]; !ok {
		m.slotCache[addr] = make(map[common.Hash]common.Hash)
	}
	m.slotCache[addr][slot] = data
	return nil
}

func (m *memoryReadCache) Close() error {
	return nil
}
