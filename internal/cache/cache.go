package cache

import (
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/ppiankov/provscan/internal/model"
)

// Cache stores serialized reports by key
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix is bumped whenever the cached report layout changes
const keyPrefix = "provscan:v1:"

// CacheKey builds the cache key for a file content digest (hex sha256) scored
// under the policy with the given fingerprint. Changing the policy changes the key.
func CacheKey(digest, policy string) string {
	return keyPrefix + policy + ":" + digest
}

// New builds the cache described by the configuration: memory in front of
// Redis when an address is set, otherwise memory in front of disk.
func New(cfg model.CacheConfig) (Cache, error) {
	memory := NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)

	if cfg.RedisAddr != "" {
		return NewLayeredCache(memory, NewRedisCache(cfg.RedisAddr, cfg.DiskTTL)), nil
	}

	dir, err := homedir.Expand(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("expand cache dir: %w", err)
	}

	return NewLayeredCache(memory, NewDiskCache(dir, cfg.DiskTTL)), nil
}
