package cache

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const indexName = "index.gob"

// Disk stores zstd-compressed clips as files under a directory. A gob index
// records sizes and access times so eviction does not need to stat files.
type Disk struct {
	mu       sync.Mutex
	dir      string
	capacity int64 // compressed bytes
	size     int64
	index    map[string]*diskEntry
	stats    Stats

	enc *zstd.Encoder
	dec *zstd.Decoder
}

type diskEntry struct {
	File       string
	Stored     int64 // compressed size
	Raw        int64
	Created    time.Time
	LastAccess time.Time
}

// NewDisk opens (or creates) the store in dir.
func NewDisk(dir string, capacity int64, level int) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if level <= 0 {
		level = 3
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	d := &Disk{
		dir:      dir,
		capacity: capacity,
		index:    make(map[string]*diskEntry),
		enc:      enc,
		dec:      dec,
	}
	if err := d.loadIndex(); err != nil {
		// A broken index only costs a re-download.
		d.index = make(map[string]*diskEntry)
	}
	for _, e := range d.index {
		d.size += e.Stored
	}
	return d, nil
}

// Get reads and decompresses the clip for key. Missing or corrupt files are
// dropped from the index and reported as misses.
func (d *Disk) Get(key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.index[key]
	if !ok {
		d.stats.Misses++
		return nil, false
	}

	raw, err := os.ReadFile(filepath.Join(d.dir, e.File))
	if err == nil {
		raw, err = d.dec.DecodeAll(raw, make([]byte, 0, e.Raw))
	}
	if err != nil {
		d.drop(key, e)
		d.stats.Misses++
		return nil, false
	}

	e.LastAccess = time.Now()
	d.stats.Hits++
	return raw, true
}

// Put compresses value and writes it atomically, evicting the least
// recently read clips to stay under capacity.
func (d *Disk) Put(key string, value []byte) error {
	packed := d.enc.EncodeAll(value, nil)
	n := int64(len(packed))
	if n > d.capacity {
		return ErrItemTooLarge
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if old, ok := d.index[key]; ok {
		d.drop(key, old)
	}
	for d.size+n > d.capacity && len(d.index) > 0 {
		d.evictOldest()
	}

	name := key + ".pcm.zst"
	if err := writeAtomic(filepath.Join(d.dir, name), packed); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}

	now := time.Now()
	d.index[key] = &diskEntry{File: name, Stored: n, Raw: int64(len(value)), Created: now, LastAccess: now}
	d.size += n
	return d.saveIndex()
}

// Contains reports whether key is indexed.
func (d *Disk) Contains(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.index[key]
	return ok
}

// RemoveOlderThan drops clips created before cutoff and returns how many.
func (d *Disk) RemoveOlderThan(cutoff time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for key, e := range d.index {
		if e.Created.Before(cutoff) {
			d.drop(key, e)
			removed++
		}
	}
	if removed > 0 {
		_ = d.saveIndex()
	}
	return removed
}

// Clear removes every clip.
func (d *Disk) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, e := range d.index {
		d.drop(key, e)
	}
	return d.saveIndex()
}

// Size returns the compressed bytes on disk.
func (d *Disk) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.size
}

// Stats returns a snapshot of the counters.
func (d *Disk) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Capacity = d.capacity
	s.Size = d.size
	s.Items = len(d.index)
	return s
}

// Close persists the index and releases the codecs.
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.saveIndex()
	d.enc.Close()
	d.dec.Close()
	return err
}

// must be called with mu held.
func (d *Disk) drop(key string, e *diskEntry) {
	_ = os.Remove(filepath.Join(d.dir, e.File))
	delete(d.index, key)
	d.size -= e.Stored
}

// must be called with mu held.
func (d *Disk) evictOldest() {
	var oldestKey string
	var oldest *diskEntry
	for key, e := range d.index {
		if oldest == nil || e.LastAccess.Before(oldest.LastAccess) {
			oldestKey, oldest = key, e
		}
	}
	if oldest != nil {
		d.drop(oldestKey, oldest)
		d.stats.Evictions++
	}
}

func (d *Disk) loadIndex() error {
	f, err := os.Open(filepath.Join(d.dir, indexName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(&d.index)
}

func (d *Disk) saveIndex() error {
	path := filepath.Join(d.dir, indexName)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(d.index); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
