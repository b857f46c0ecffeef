package cache

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

const (
	// DefaultCapacity describes the default maximum amount of entries held by a ResultCache.
	DefaultCapacity = 1000

	// EvictionHitWeight describes how many milliseconds of age a single hit offsets when scoring entries for eviction.
	EvictionHitWeight = 1_000_000
)

// Entry describes a cached result.
type Entry[T any] struct {
	// Value is the cached result.
	Value T

	// CreatedAt describes when the entry was stored.
	CreatedAt time.Time

	// Hits describes how many times the entry was returned by ResultCache.Get.
	Hits uint64
}

// evictionScore returns the entry's eviction score at the provided time. The entry with the lowest score is evicted
// first.
func (e *Entry[T]) evictionScore(now time.Time) int64 {
	return int64(e.Hits)*EvictionHitWeight - now.Sub(e.CreatedAt).Milliseconds()
}

// Stats describes the state of a ResultCache.
type Stats struct {
	Size      int    `json:"size"`
	TotalHits uint64 `json:"totalHits"`
	Capacity  int    `json:"capacity"`
	Enabled   bool   `json:"enabled"`
}

// Fingerprint returns the Keccak-256 hash of normalized bytecode, which ResultCache entries are keyed by.
func Fingerprint(normalized []byte) common.Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(normalized)
	return common.BytesToHash(hasher.Sum(nil))
}

// ResultCache is a bounded cache of analysis results keyed by the fingerprint of normalized bytecode. When full, the
// entry with the lowest eviction score is evicted: frequently hit entries survive, and among entries with equal hits
// the oldest goes first. ResultCache is safe for concurrent use.
type ResultCache[T any] struct {
	lock     sync.Mutex
	entries  map[common.Hash]*Entry[T]
	capacity int
	enabled  bool

	// now returns the current time. It is replaceable so that tests control entry age.
	now func() time.Time
}

// Option configures a ResultCache.
type Option[T any] func(c *ResultCache[T])

// WithClock makes the cache read the current time from the provided function.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *ResultCache[T]) {
		c.now = now
	}
}

// New creates a ResultCache holding at most capacity entries. A non-positive capacity uses DefaultCapacity.
func New[T any](capacity int, enabled bool, opts ...Option[T]) *ResultCache[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &ResultCache[T]{
		entries:  make(map[common.Hash]*Entry[T]),
		capacity: capacity,
		enabled:  enabled,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the entry stored for the normalized bytecode and counts a hit on it. A disabled cache always
// misses.
func (c *ResultCache[T]) Get(normalized []byte) (Entry[T], bool) {
	key := Fingerprint(normalized)

	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.enabled {
		return Entry[T]{}, false
	}

	entry, ok := c.entries[key]
	if !ok {
		return Entry[T]{}, false
	}
	entry.Hits++
	return *entry, true
}

// Set stores a result for the normalized bytecode. If the cache is full and the key is new, the entry with the lowest
// eviction score is evicted first. Storing under an existing key replaces that entry. A disabled cache ignores Set.
func (c *ResultCache[T]) Set(normalized []byte, value T) {
	key := Fingerprint(normalized)

	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.enabled {
		return
	}

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evict(now)
	}
	c.entries[key] = &Entry[T]{Value: value, CreatedAt: now}
}

// evict removes the entry with the lowest eviction score, preferring the oldest entry on ties. The caller must hold
// the lock.
func (c *ResultCache[T]) evict(now time.Time) {
	var (
		victim      common.Hash
		victimEntry *Entry[T]
		victimScore int64
	)
	for key, entry := range c.entries {
		score := entry.evictionScore(now)
		if victimEntry == nil || score < victimScore ||
			(score == victimScore && entry.CreatedAt.Before(victimEntry.CreatedAt)) {
			victim, victimEntry, victimScore = key, entry, score
		}
	}
	if victimEntry != nil {
		delete(c.entries, victim)
	}
}

// Has returns whether a result is stored for the normalized bytecode. It does not count a hit.
func (c *ResultCache[T]) Has(normalized []byte) bool {
	key := Fingerprint(normalized)

	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.enabled {
		return false
	}
	_, ok := c.entries[key]
	return ok
}

// Clear removes every entry.
func (c *ResultCache[T]) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()
	clear(c.entries)
}

// Stats returns the size, total hits across all entries, capacity and enablement of the cache.
func (c *ResultCache[T]) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()

	var hits uint64
	for _, entry := range c.entries {
		hits += entry.Hits
	}
	return Stats{Size: len(c.entries), TotalHits: hits, Capacity: c.capacity, Enabled: c.enabled}
}

// SetEnabled enables or disables the cache. Entries are kept while disabled.
func (c *ResultCache[T]) SetEnabled(enabled bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.enabled = enabled
}

// Enabled returns whether the cache is enabled.
func (c *ResultCache[T]) Enabled() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.enabled
}
