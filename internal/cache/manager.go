package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Manager chains the memory and disk tiers. Reads fall through L1 to L2 and
// promote L2 hits into L1; writes go to both.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache

	mu    sync.Mutex
	stats ManagerStats
}

// ManagerStats aggregates both tiers.
type ManagerStats struct {
	Memory Stats
	Disk   Stats

	L1Hits     int64
	L2Hits     int64
	Misses     int64
	Promotions int64
}

// HitRate is the share of lookups served by either tier.
func (s ManagerStats) HitRate() float64 {
	total := s.L1Hits + s.L2Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.L1Hits+s.L2Hits) / float64(total)
}

// NewManager opens both tiers.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.DiskPath == "" {
		return nil, errors.New("cache directory is required")
	}
	disk, err := NewDiskCache(cfg.DiskPath, cfg.DiskCapacity, cfg.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}
	return &Manager{
		memory: NewMemoryCache(cfg.MemoryCapacity),
		disk:   disk,
	}, nil
}

// Get looks key up in L1, then L2.
func (m *Manager) Get(key string) ([]byte, bool) {
	if data, ok := m.memory.Get(key); ok {
		m.count(func(s *ManagerStats) { s.L1Hits++ })
		return data, true
	}
	if data, ok := m.disk.Get(key); ok {
		m.count(func(s *ManagerStats) { s.L2Hits++ })
		if err := m.memory.Put(key, data); err == nil {
			m.count(func(s *ManagerStats) { s.Promotions++ })
		}
		return data, true
	}
	m.count(func(s *ManagerStats) { s.Misses++ })
	return nil, false
}

// Put stores value in both tiers. A value too large for L1 is still written
// to L2.
func (m *Manager) Put(key string, value []byte) error {
	if err := m.memory.Put(key, value); err != nil && !errors.Is(err, ErrItemTooLarge) {
		return fmt.Errorf("L1 cache error: %w", err)
	}
	if err := m.disk.Put(key, value); err != nil {
		if errors.Is(err, ErrItemTooLarge) {
			log.Debug("skipping disk cache", "key", key, "bytes", len(value))
			return nil
		}
		return fmt.Errorf("L2 cache error: %w", err)
	}
	return nil
}

// Contains reports whether either tier holds key.
func (m *Manager) Contains(key string) bool {
	return m.memory.Contains(key) || m.disk.Contains(key)
}

// Delete removes key from both tiers.
func (m *Manager) Delete(key string) error {
	return errors.Join(m.memory.Delete(key), m.disk.Delete(key))
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	return errors.Join(m.memory.Clear(), m.disk.Clear())
}

// Size returns the bytes held on disk, which is a superset of L1.
func (m *Manager) Size() int64 {
	return m.disk.Size()
}

// Prune drops disk entries older than maxAge.
func (m *Manager) Prune(maxAge time.Duration) (int, error) {
	return m.disk.RemoveOlderThan(time.Now().Add(-maxAge))
}

func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	s := m.stats
	m.mu.Unlock()

	s.Memory = m.memory.Stats()
	s.Disk = m.disk.Stats()
	return s
}

// Close persists the disk index.
func (m *Manager) Close() error {
	if err := m.disk.Close(); err != nil {
		return fmt.Errorf("failed to close disk cache: %w", err)
	}
	return nil
}

func (m *Manager) count(fn func(*ManagerStats)) {
	m.mu.Lock()
	fn(&m.stats)
	m.mu.Unlock()
}
