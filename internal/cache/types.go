package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	gap "github.com/muesli/go-app-paths"
)

var (
	// ErrItemTooLarge is returned when a clip exceeds a tier's capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCorrupted is returned when a stored clip cannot be decompressed.
	ErrCorrupted = errors.New("cache data corrupted")
)

// Level names the tier a clip was served from.
type Level int

const (
	LevelNone Level = iota
	LevelMemory
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "none"
	}
}

// Stats holds counters for one tier.
type Stats struct {
	Capacity  int64
	Size      int64
	Items     int
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits over lookups, or zero before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Config sizes the two tiers. An empty Dir disables the disk tier.
type Config struct {
	MemoryCapacity   int64
	DiskCapacity     int64
	Dir              string
	CompressionLevel int
	MaxAge           time.Duration
}

// DefaultConfig keeps 64 MiB of clips in memory and 512 MiB on disk for a
// month.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   64 << 20,
		DiskCapacity:     512 << 20,
		Dir:              DefaultDir(),
		CompressionLevel: 3,
		MaxAge:           30 * 24 * time.Hour,
	}
}

// DefaultDir is the per-user ambience cache directory, or "" when the
// platform reports none.
func DefaultDir() string {
	dir, err := gap.NewScope(gap.User, "nateq").CacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ambience")
}

// Key identifies a decoded clip by its source and output sample rate.
func Key(url string, sampleRate int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", url, sampleRate)))
	return hex.EncodeToString(sum[:16])
}
