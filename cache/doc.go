// Package cache keeps built offset tables so that each shader is parsed
// once.
//
// A Cache is a sharded LRU keyed by shader hash, stage and vertex remap.
// Each of the 16 shards has its own lock; tables are built under the
// shard lock, so concurrent requests for the same shader build it once.
//
//	c := cache.New(cache.Config{})
//	table, err := c.GetOrBuild(shaderbin.StageCompute, bin, nil)
//
// Preload builds many binaries in parallel, typically at load time.
//
// Cache is safe for concurrent use.
package cache
