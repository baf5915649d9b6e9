package cache

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/gogpu/resbind"
	"github.com/gogpu/resbind/internal/parallel"
	"github.com/gogpu/resbind/offsets"
	"github.com/gogpu/resbind/shaderbin"
)

// Default configuration constants.
const (
	// ShardCount is the number of shards. Must be a power of 2.
	ShardCount = 16

	// DefaultCapacity is the default maximum tables per shard.
	DefaultCapacity = 256

	shardMask = ShardCount - 1
)

// Key identifies a built table.
type Key struct {
	Digest  uint64 // shaderbin.Binary.Digest
	Stage   shaderbin.Stage
	RemapID uint64 // RemapID of the vertex remap; 0 without one
}

// KeyOf returns the key of bin built for stage with remap.
func KeyOf(stage shaderbin.Stage, bin *shaderbin.Binary, remap []offsets.SemanticRemap) Key {
	return Key{Digest: bin.Digest(), Stage: stage, RemapID: RemapID(remap)}
}

func (k Key) shard() uint64 {
	var buf [17]byte
	binary.LittleEndian.PutUint64(buf[0:], k.Digest)
	buf[8] = byte(k.Stage)
	binary.LittleEndian.PutUint64(buf[9:], k.RemapID)
	h := fnv.New64a()
	_, _ = h.Write(buf[:]) // fnv.Write never returns an error
	return h.Sum64()
}

// RemapID returns a stable FNV-1a identifier of a semantic remap. An
// empty remap has ID 0.
func RemapID(remap []offsets.SemanticRemap) uint64 {
	if len(remap) == 0 {
		return 0
	}
	h := fnv.New64a()
	for _, r := range remap {
		_, _ = h.Write([]byte{r.Semantic, r.Slot})
	}
	return h.Sum64()
}

// Config configures a Cache.
type Config struct {
	// Capacity is the maximum number of tables per shard.
	// Defaults to DefaultCapacity if <= 0.
	Capacity int

	// Workers is the Preload parallelism. 0 uses GOMAXPROCS.
	Workers int
}

// Stats contains cache statistics.
type Stats struct {
	Len           int
	Capacity      int // per shard
	TotalCapacity int
	Hits          uint64
	Misses        uint64
	HitRate       float64 // 0.0 to 1.0
	Evictions     uint64
	BuildErrors   uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("Cache[%d/%d tables, %.1f%% hits, %d evictions, %d errors]",
		s.Len, s.TotalCapacity, s.HitRate*100, s.Evictions, s.BuildErrors)
}

type shard struct {
	mu      sync.Mutex
	entries map[Key]*entry
	lru     *lruList
}

type entry struct {
	table *offsets.Table
	node  *lruNode
}

// Cache is a sharded LRU of offset tables.
type Cache struct {
	shards   [ShardCount]*shard
	capacity int
	workers  int

	hits        atomic.Uint64
	misses      atomic.Uint64
	evictions   atomic.Uint64
	buildErrors atomic.Uint64
}

// New creates an empty cache.
func New(cfg Config) *Cache {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{capacity: capacity, workers: cfg.Workers}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[Key]*entry), lru: newLRUList()}
	}
	return c
}

func (c *Cache) shardFor(k Key) *shard {
	return c.shards[k.shard()&shardMask]
}

// Get returns the cached table for k.
func (c *Cache) Get(k Key) (*offsets.Table, bool) {
	s := c.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[k]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	s.lru.MoveToFront(e.node)
	c.hits.Add(1)
	return e.table, true
}

// GetOrBuild returns the cached table for bin or builds and caches it.
// Build errors are returned and not cached.
func (c *Cache) GetOrBuild(stage shaderbin.Stage, bin *shaderbin.Binary, remap []offsets.SemanticRemap) (*offsets.Table, error) {
	k := KeyOf(stage, bin, remap)
	s := c.shardFor(k)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[k]; ok {
		s.lru.MoveToFront(e.node)
		c.hits.Add(1)
		return e.table, nil
	}
	c.misses.Add(1)

	t, err := offsets.BuildWithRemap(stage, bin, remap)
	if err != nil {
		c.buildErrors.Add(1)
		return nil, err
	}

	for s.lru.Len() >= c.capacity {
		old, ok := s.lru.RemoveOldest()
		if !ok {
			break
		}
		delete(s.entries, old)
		c.evictions.Add(1)
		resbind.Logger().Debug("cache: table evicted", "digest", old.Digest, "stage", old.Stage)
	}
	s.entries[k] = &entry{table: t, node: s.lru.PushFront(k)}
	return t, nil
}

// Preload parses and builds every binary for stage in parallel. The
// returned slice holds one error per binary, nil on success.
func (c *Cache) Preload(stage shaderbin.Stage, binaries [][]byte) []error {
	errs := make([]error, len(binaries))
	pool := parallel.NewWorkerPool(c.workers)
	defer pool.Close()

	pool.Run(len(binaries), func(i int) {
		bin, err := shaderbin.Parse(binaries[i])
		if err != nil {
			errs[i] = fmt.Errorf("cache: binary %d: %w", i, err)
			return
		}
		if _, err := c.GetOrBuild(stage, bin, nil); err != nil {
			errs[i] = fmt.Errorf("cache: binary %d: %w", i, err)
		}
	})

	resbind.Logger().Info("cache: preloaded", "stage", stage, "binaries", len(binaries), "tables", c.Len())
	return errs
}

// Delete removes k. It reports whether k was cached.
func (c *Cache) Delete(k Key) bool {
	s := c.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[k]
	if !ok {
		return false
	}
	s.lru.Remove(e.node)
	delete(s.entries, k)
	return true
}

// Clear removes every table.
func (c *Cache) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[Key]*entry)
		s.lru.Clear()
		s.mu.Unlock()
	}
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Stats returns current statistics.
func (c *Cache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Len:           c.Len(),
		Capacity:      c.capacity,
		TotalCapacity: c.capacity * ShardCount,
		Hits:          hits,
		Misses:        misses,
		HitRate:       rate,
		Evictions:     c.evictions.Load(),
		BuildErrors:   c.buildErrors.Load(),
	}
}

// ResetStats zeroes the counters.
func (c *Cache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.buildErrors.Store(0)
}
