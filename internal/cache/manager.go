package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Manager fronts the disk tier with the memory LRU. Disk hits are promoted
// to memory.
type Manager struct {
	memory *Memory
	disk   *Disk // nil when disabled

	promotions atomic.Int64
}

// New builds a Manager from cfg. Expired disk clips are pruned on open.
func New(cfg Config) (*Manager, error) {
	if cfg.MemoryCapacity <= 0 {
		cfg.MemoryCapacity = DefaultConfig().MemoryCapacity
	}

	m := &Manager{memory: NewMemory(cfg.MemoryCapacity)}
	if cfg.Dir == "" || cfg.DiskCapacity <= 0 {
		return m, nil
	}

	disk, err := NewDisk(cfg.Dir, cfg.DiskCapacity, cfg.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("open ambience cache: %w", err)
	}
	if cfg.MaxAge > 0 {
		if n := disk.RemoveOlderThan(time.Now().Add(-cfg.MaxAge)); n > 0 {
			log.Debug("pruned ambience cache", "removed", n)
		}
	}
	m.disk = disk
	return m, nil
}

// Get looks key up in memory, then on disk.
func (m *Manager) Get(key string) ([]byte, Level) {
	if data, ok := m.memory.Get(key); ok {
		return data, LevelMemory
	}
	if m.disk == nil {
		return nil, LevelNone
	}
	data, ok := m.disk.Get(key)
	if !ok {
		return nil, LevelNone
	}
	if err := m.memory.Put(key, data); err == nil {
		m.promotions.Add(1)
	}
	return data, LevelDisk
}

// Put stores value in both tiers. A clip too large for memory still goes
// to disk; disk failures are logged and not returned.
func (m *Manager) Put(key string, value []byte) error {
	memErr := m.memory.Put(key, value)
	if m.disk == nil {
		return memErr
	}
	if err := m.disk.Put(key, value); err != nil {
		log.Warn("ambience cache write failed", "key", key, "err", err)
	}
	return nil
}

// Contains reports whether either tier holds key.
func (m *Manager) Contains(key string) bool {
	return m.memory.Contains(key) || (m.disk != nil && m.disk.Contains(key))
}

// Clear empties both tiers.
func (m *Manager) Clear() error {
	m.memory.Clear()
	if m.disk != nil {
		return m.disk.Clear()
	}
	return nil
}

// Summary aggregates the tier counters.
type Summary struct {
	Memory     Stats
	Disk       Stats
	DiskOn     bool
	Promotions int64
}

// Stats returns counters for both tiers.
func (m *Manager) Stats() Summary {
	s := Summary{Memory: m.memory.Stats(), Promotions: m.promotions.Load()}
	if m.disk != nil {
		s.Disk = m.disk.Stats()
		s.DiskOn = true
	}
	return s
}

// Close flushes the disk index.
func (m *Manager) Close() error {
	if m.disk != nil {
		return m.disk.Close()
	}
	return nil
}
