package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when cache data cannot be decoded
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// CacheStats holds cache performance metrics
type CacheStats struct {
	Capacity  int64 // Maximum capacity in bytes
	Size      int64 // Current stored (compressed) size in bytes
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64 // hits / (hits + misses)

	LastAccess time.Time
}

func (s *CacheStats) updateHitRate() {
	if s.Hits+s.Misses > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Hits+s.Misses)
	}
}

// CacheConfig holds configuration for a Manager.
type CacheConfig struct {
	MemoryCapacity   int64  // Bytes
	DiskCapacity     int64  // Bytes, 0 disables the disk tier
	DiskPath         string // Directory for cache files
	CompressionLevel int    // Zstd compression level (1-22, default 3)
	TTL              time.Duration
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MemoryCapacity:   16 * 1024 * 1024,
		DiskCapacity:     0,
		CompressionLevel: 3,
		TTL:              7 * 24 * time.Hour,
	}
}

// Cache defines the operations shared by every tier.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error

	Size() int64
	Contains(key string) bool
	Stats() CacheStats
}

// Key derives the cache key for a clip. Every parameter that changes the
// synthesized audio must be part of it.
func Key(text, voice string, speed, amplitude int) string {
	data := fmt.Sprintf("%s|%s|%d|%d", text, voice, speed, amplitude)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
