package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager coordinates the memory and disk tiers. Disk hits are promoted to
// memory. A Manager without a disk tier behaves like its MemoryCache.
type Manager struct {
	l1     *MemoryCache
	l2     *DiskCache // nil when disabled
	logger *log.Logger

	// Background disk writes, waited for by Close
	writes sync.WaitGroup

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates hits across tiers.
type ManagerStats struct {
	L1         CacheStats
	L2         CacheStats
	L1Hits     int64
	L2Hits     int64
	Misses     int64
	Promotions int64
}

// NewManager creates a cache manager. A zero DiskCapacity or an empty
// DiskPath disables the disk tier.
func NewManager(config *CacheConfig, logger *log.Logger) (*Manager, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}
	if logger == nil {
		logger = log.Default().WithPrefix("cache")
	}

	c, err := newCodec(config.CompressionLevel)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		l1:     newMemoryCache(config.MemoryCapacity, c),
		logger: logger,
	}

	if config.DiskCapacity > 0 && config.DiskPath != "" {
		l2, err := NewDiskCache(config.DiskPath, config.DiskCapacity, config.CompressionLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create disk cache: %w", err)
		}
		if config.TTL > 0 {
			if n := l2.RemoveOlderThan(time.Now().Add(-config.TTL)); n > 0 {
				logger.Debug("expired cached clips", "count", n)
			}
		}
		m.l2 = l2
	}

	return m, nil
}

// Get checks memory first, then disk.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.l1.Get(key); ok {
		m.mu.Lock()
		m.stats.L1Hits++
		m.mu.Unlock()
		return data, true
	}

	if m.l2 != nil {
		if data, ok := m.l2.Get(key); ok {
			m.mu.Lock()
			m.stats.L2Hits++
			m.stats.Promotions++
			m.mu.Unlock()

			if err := m.l1.Put(key, data); err != nil && !errors.Is(err, ErrItemTooLarge) {
				m.logger.Debug("promotion failed", "err", err)
			}
			return data, true
		}
	}

	m.mu.Lock()
	m.stats.Misses++
	m.mu.Unlock()
	return nil, false
}

// Put stores value in memory immediately and on disk in the background.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.l1.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		return fmt.Errorf("L1 cache error: %w", err)
	}

	if m.l2 != nil {
		m.writes.Add(1)
		go func() {
			defer m.writes.Done()
			if err := m.l2.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
				m.logger.Warn("disk cache write failed", "err", err)
			}
		}()
	}
	return nil
}

// Clear removes all entries from every tier.
func (m *Manager) Clear() error {
	m.writes.Wait()

	var errs []error
	if err := m.l1.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("L1 clear: %w", err))
	}
	if m.l2 != nil {
		if err := m.l2.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("L2 clear: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Stats returns aggregated statistics from all tiers.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	stats := m.stats
	m.mu.Unlock()

	stats.L1 = m.l1.Stats()
	if m.l2 != nil {
		stats.L2 = m.l2.Stats()
	}
	return stats
}

// Close flushes pending disk writes and saves the disk index.
func (m *Manager) Close() error {
	m.writes.Wait()
	if m.l2 != nil {
		return m.l2.Close()
	}
	return nil
}
