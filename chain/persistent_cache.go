package chain

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.etcd.io/bbolt"
)

// CacheDirectoryName describes the directory, relative to the configured cache directory, in which persistent read
// caches are stored.
const CacheDirectoryName = ".codetwincache"

var (
	codeBucket    = []byte("code")
	storageBucket = []byte("storage")
)

// persistentReadCache provides a thread-safe readCache backed by an in-memory cache and persisted to a bbolt database.
// Writes are buffered and flushed in batches.
type persistentReadCache struct {
	memCache *memoryReadCache
	db       *bbolt.DB

	pendingWriteMutex sync.Mutex
	pendingWrites     []pendingWrite
	flushThreshold    int
}

type pendingWrite struct {
	bucket []byte
	key    []byte
	value  []byte
}

func newPersistentReadCache(workingDir string, rpcAddr string, height uint64) (*persistentReadCache, error) {
	cacheDir, err := createCacheDirectory(workingDir)
	if err != nil {
		return nil, err
	}

	cacheFile := filepath.Join(cacheDir, getCacheFilename(rpcAddr, height))
	db, err := bbolt.Open(cacheFile, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open read cache %s: %w", cacheFile, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{codeBucket, storageBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &persistentReadCache{
		memCache:       newMemoryReadCache(),
		db:             db,
		flushThreshold: 25,
	}, nil
}

// getFromPersist decodes the value stored under key into value, returning false if no value is stored.
func (p *persistentReadCache) getFromPersist(bucket []byte, key []byte, value any) (bool, error) {
	found := false
	err := p.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, value)
	})
	if err != nil {
		return false, fmt.Errorf("could not get value: %w", err)
	}
	return found, nil
}

func (p *persistentReadCache) writeToPersist(bucket []byte, key []byte, value any) error {
	serialized, err := json.Marshal(value)
	if err != nil {
		return err
	}

	p.pendingWriteMutex.Lock()
	defer p.pendingWriteMutex.Unlock()

	p.pendingWrites = append(p.pendingWrites, pendingWrite{bucket: bucket, key: key, value: serialized})
	if len(p.pendingWrites) >= p.flushThreshold {
		return p.flushWrites()
	}
	return nil
}

// flushWrites writes every pending write to the database. The caller must hold pendingWriteMutex.
func (p *persistentReadCache) flushWrites() error {
	if len(p.pendingWrites) == 0 {
		return nil
	}
	return p.db.Update(func(tx *bbolt.Tx) error {
		for _, pw := range p.pendingWrites {
			if err := tx.Bucket(pw.bucket).Put(pw.key, pw.value); err != nil {
				return err
			}
		}
		p.pendingWrites = p.pendingWrites[:0]
		return nil
	})
}

func (p *persistentReadCache) GetCode(addr common.Address) ([]byte, error) {
	code, err := p.memCache.GetCode(addr)
	if !errors.Is(err, ErrCacheMiss) {
		return code, err
	}

	var persisted hexutil.Bytes
	exists, err := p.getFromPersist(codeBucket, addr.Bytes(), &persisted)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCacheMiss
	}
	err = p.memCache.WriteCode(addr, persisted)
	return persisted, err
}

func (p *persistentReadCache) WriteCode(addr common.Address, code []byte) error {
	if err := p.memCache.WriteCode(addr, code); err != nil {
		return err
	}
	return p.writeToPersist(codeBucket, addr.Bytes(), hexutil.Bytes(code))
}

func (p *persistentReadCache) GetSlotData(addr common.Address, slot common.Hash) (common.Hash, error) {
	data, err := p.memCache.GetSlotData(addr, slot)
	if !errors.Is(err, ErrCacheMiss) {
		return data, err
	}

	exists, err := p.getFromPersist(storageBucket, slotKey(addr, slot), &data)
	if err != nil {
		return common.Hash{}, err
	}
	if !exists {
		return common.Hash{}, ErrCacheMiss
	}
	err = p.memCache.WriteSlotData(addr, slot, data)
	return data, err
}

func (p *persistentReadCache) WriteSlotData(addr common.Address, slot common.Hash, data common.Hash) error {
	if err := p.memCache.WriteSlotData(addr, slot, data); err != nil {
		return err
	}
	return p.writeToPersist(storageBucket, slotKey(addr, slot), data)
}

// Close flushes pending writes and closes the database.
func (p *persistentReadCache) Close() error {
	p.pendingWriteMutex.Lock()
	err := p.flushWrites()
	p.pendingWriteMutex.Unlock()
	if err != nil {
		return err
	}
	return p.db.Close()
}

// slotKey returns the database key of a storage slot: the address followed by the slot.
func slotKey(addr common.Address, slot common.Hash) []byte {
	key := make([]byte, 0, common.AddressLength+common.HashLength)
	key = append(key, addr.Bytes()...)
	return append(key, slot.Bytes()...)
}

func createCacheDirectory(workingDir string) (string, error) {
	cachePath := filepath.Join(workingDir, CacheDirectoryName)
	if err := os.MkdirAll(cachePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return cachePath, nil
}

// getCacheFilename returns the name of the database file for reads from rpcAddr at the provided height.
func getCacheFilename(rpcAddr string, height uint64) string {
	h := sha256.Sum256([]byte(rpcAddr))
	return fmt.Sprintf("%d-%x.dat", height, h[:10])
}
