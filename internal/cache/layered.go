package cache

import (
	"errors"
	"sync/atomic"
	"time"
)

// LayeredCache checks memory before disk and promotes disk hits
type LayeredCache struct {
	memory Cache
	disk   Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		c.hits.Add(1)
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, val, 0)
		c.hits.Add(1)
		return val, true
	}

	c.misses.Add(1)
	return nil, false
}

// Set writes through to both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}

// Stats reports hit and miss counts since creation
func (c *LayeredCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
