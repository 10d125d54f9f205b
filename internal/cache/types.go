package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when cached data cannot be decoded.
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level identifies a cache tier.
type Level int

const (
	LevelMemory Level = iota
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "L1-Memory"
	case LevelDisk:
		return "L2-Disk"
	default:
		return "Unknown"
	}
}

// Stats holds cache counters.
type Stats struct {
	Capacity  int64
	Size      int64
	ItemCount int64

	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64

	LastAccess time.Time
	LastEvict  time.Time
}

func (s *Stats) computeHitRate() {
	if s.Hits+s.Misses > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Hits+s.Misses)
	}
}

// Cache is implemented by every tier.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Contains(key string) bool
	Size() int64
	Stats() Stats
}

// Config sizes the tiers.
type Config struct {
	MemoryCapacity int64 // bytes
	DiskCapacity   int64 // bytes
	DiskPath       string

	// CompressionLevel is the zstd level (1-22); 0 stores data uncompressed.
	CompressionLevel int
}

// DefaultConfig returns a 64MB memory tier and a 512MB disk tier at path.
func DefaultConfig(path string) Config {
	return Config{
		MemoryCapacity:   64 << 20,
		DiskCapacity:     512 << 20,
		DiskPath:         path,
		CompressionLevel: 3,
	}
}

// Key derives a cache key from the parts of a synthesis request. Parts are
// trimmed and lowercased, except the last, which is the text and is kept
// verbatim.
func Key(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i < len(parts)-1 {
			p = strings.ToLower(strings.TrimSpace(p))
		}
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
