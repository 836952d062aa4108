package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const indexFile = "clips.index"

// DiskCache implements the L2 disk cache. Clips survive restarts so a text
// narrated before does not need synthesizing again.
type DiskCache struct {
	basePath string
	capacity int64 // Maximum size in bytes
	size     int64 // Current size in bytes
	codec    *codec

	// Index for fast lookups
	index map[string]*diskCacheEntry

	mu    sync.Mutex
	stats CacheStats
}

// diskCacheEntry is persisted in the gob index, so fields are exported.
type diskCacheEntry struct {
	Key        string
	FileName   string
	Size       int64 // Size on disk
	Compressed bool
	Timestamp  time.Time
	LastAccess time.Time
}

// NewDiskCache opens or creates a disk cache rooted at basePath.
func NewDiskCache(basePath string, capacity int64, compressionLevel int) (*DiskCache, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c, err := newCodec(compressionLevel)
	if err != nil {
		return nil, err
	}

	dc := &DiskCache{
		basePath: basePath,
		capacity: capacity,
		codec:    c,
		index:    make(map[string]*diskCacheEntry),
		stats:    CacheStats{Capacity: capacity},
	}

	if err := dc.loadIndex(); err != nil {
		// A broken index only costs the cached clips.
		dc.index = make(map[string]*diskCacheEntry)
	}
	dc.calculateSize()

	return dc, nil
}

// Get retrieves a value from the disk cache.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	entry, ok := dc.index[key]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(dc.path(entry))
	if err == nil {
		data, err = dc.codec.decode(data, entry.Compressed)
	}
	if err != nil {
		dc.removeEntry(entry)
		dc.stats.Misses++
		return nil, false
	}

	entry.LastAccess = time.Now()
	dc.stats.Hits++
	dc.stats.LastAccess = entry.LastAccess
	return data, true
}

// Put stores a value in the disk cache.
func (dc *DiskCache) Put(key string, value []byte) error {
	stored, compressed := dc.codec.encode(value)
	diskSize := int64(len(stored))

	dc.mu.Lock()
	defer dc.mu.Unlock()

	if diskSize > dc.capacity {
		return ErrItemTooLarge
	}

	if existing, ok := dc.index[key]; ok {
		dc.removeEntry(existing)
	}

	for dc.size+diskSize > dc.capacity && len(dc.index) > 0 {
		dc.evictOldest()
	}

	now := time.Now()
	entry := &diskCacheEntry{
		Key:        key,
		FileName:   key + ".clip",
		Size:       diskSize,
		Compressed: compressed,
		Timestamp:  now,
		LastAccess: now,
	}

	if err := writeFileAtomic(dc.path(entry), stored); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	dc.index[key] = entry
	dc.size += diskSize
	return nil
}

// Delete removes an entry from the disk cache.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	if entry, ok := dc.index[key]; ok {
		dc.removeEntry(entry)
	}
	return nil
}

// Clear removes all entries from the disk cache.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	for _, entry := range dc.index {
		os.Remove(dc.path(entry))
	}
	dc.index = make(map[string]*diskCacheEntry)
	dc.size = 0

	return dc.saveIndex()
}

// Size returns the current cache size in bytes.
func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.size
}

// Contains checks if a key exists in the cache without updating access time.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	_, ok := dc.index[key]
	return ok
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() CacheStats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Size = dc.size
	stats.ItemCount = int64(len(dc.index))
	stats.updateHitRate()
	return stats
}

// RemoveOlderThan removes entries stored before cutoff.
func (dc *DiskCache) RemoveOlderThan(cutoff time.Time) int {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	removed := 0
	for _, entry := range dc.index {
		if entry.Timestamp.Before(cutoff) {
			dc.removeEntry(entry)
			removed++
		}
	}
	return removed
}

// Close saves the index.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.codec.close()
	return dc.saveIndex()
}

// Private helper methods

func (dc *DiskCache) path(entry *diskCacheEntry) string {
	return filepath.Join(dc.basePath, entry.FileName)
}

func (dc *DiskCache) removeEntry(entry *diskCacheEntry) {
	os.Remove(dc.path(entry))
	delete(dc.index, entry.Key)
	dc.size -= entry.Size
}

func (dc *DiskCache) evictOldest() {
	var oldest *diskCacheEntry
	for _, entry := range dc.index {
		if oldest == nil || entry.LastAccess.Before(oldest.LastAccess) {
			oldest = entry
		}
	}

	if oldest != nil {
		dc.removeEntry(oldest)
		dc.stats.Evictions++
	}
}

func (dc *DiskCache) loadIndex() error {
	file, err := os.Open(filepath.Join(dc.basePath, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // No index file yet
		}
		return err
	}
	defer file.Close()

	return gob.NewDecoder(file).Decode(&dc.index)
}

func (dc *DiskCache) saveIndex() error {
	indexPath := filepath.Join(dc.basePath, indexFile)
	tempPath := indexPath + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	err = gob.NewEncoder(file).Encode(dc.index)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempPath)
		return err
	}

	return os.Rename(tempPath, indexPath)
}

func (dc *DiskCache) calculateSize() {
	dc.size = 0
	for key, entry := range dc.index {
		info, err := os.Stat(dc.path(entry))
		if err != nil {
			delete(dc.index, key)
			continue
		}
		entry.Size = info.Size()
		dc.size += entry.Size
	}
}

// writeFileAtomic writes to a temp file first, then renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, path)
}
