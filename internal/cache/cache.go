// Package cache stores fetched pages and model responses between runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/ppiankov/newstag/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

const keyPrefix = "newstag:v1:"

// Key derives a cache key from a namespace and its parts.
// Parts are joined with a NUL so ("ab","c") and ("a","bc") differ.
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyPrefix + namespace + ":" + hex.EncodeToString(hash[:])
}

// PageKey is the key of a fetched page body
func PageKey(url string) string {
	return Key("page", url)
}

// New builds the cache described by cfg. A disabled cache yields Nop.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Nop{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// Nop never stores anything
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
