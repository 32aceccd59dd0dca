// Package ambience fetches soundscape clips, decodes them to playback PCM
// and caches the result.
package ambience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nateq/internal/cache"
	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// maxClipBytes bounds a single download.
const maxClipBytes = 32 << 20

// ErrTooLarge is returned when a soundscape download exceeds maxClipBytes.
var ErrTooLarge = errors.New("soundscape too large")

// Config configures a Loader. Zero fields take defaults.
type Config struct {
	SampleRate int
	HTTPClient *http.Client
	Decoder    Decoder
	Cache      *cache.Manager

	// OnLookup, when set, is told whether each load was a cache hit.
	OnLookup func(ctx context.Context, hit bool)
}

// Loader resolves soundscapes to PCM. Concurrent loads of the same clip
// share one download.
type Loader struct {
	rate    int
	client  *http.Client
	decoder Decoder
	cache   *cache.Manager
	lookup  func(context.Context, bool)
	group   singleflight.Group
}

// NewLoader builds a Loader. Without a cache manager a memory-only cache
// is used.
func NewLoader(cfg Config) *Loader {
	l := &Loader{
		rate:    cfg.SampleRate,
		client:  cfg.HTTPClient,
		decoder: cfg.Decoder,
		cache:   cfg.Cache,
		lookup:  cfg.OnLookup,
	}
	if l.rate <= 0 {
		l.rate = 24000
	}
	if l.client == nil {
		l.client = &http.Client{Timeout: time.Minute}
	}
	if l.decoder == nil {
		l.decoder = FFmpeg{}
	}
	if l.cache == nil {
		l.cache, _ = cache.New(cache.Config{MemoryCapacity: cache.DefaultConfig().MemoryCapacity})
	}
	return l
}

// SampleRate is the rate of the PCM the loader returns.
func (l *Loader) SampleRate() int { return l.rate }

// Load returns the decoded PCM for s. Silent soundscapes yield nil, nil.
func (l *Loader) Load(ctx context.Context, s catalog.Soundscape) ([]byte, error) {
	if s.Silent() {
		return nil, nil
	}

	key := cache.Key(s.URL, l.rate)
	if pcm, lvl := l.cache.Get(key); lvl != cache.LevelNone {
		log.Debug("ambience cache hit", "soundscape", s.ID, "level", lvl)
		l.observe(ctx, true)
		return pcm, nil
	}
	l.observe(ctx, false)

	v, err, _ := l.group.Do(key, func() (any, error) {
		encoded, err := l.fetch(ctx, s.URL)
		if err != nil {
			return nil, err
		}
		pcm, err := l.decoder.Decode(ctx, encoded, l.rate)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.ID, err)
		}
		if err := l.cache.Put(key, pcm); err != nil {
			log.Warn("ambience not cached", "soundscape", s.ID, "err", err)
		}
		log.Info("ambience loaded", "soundscape", s.ID,
			"download", humanize.Bytes(uint64(len(encoded))), "pcm", humanize.Bytes(uint64(len(pcm))))
		return pcm, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Cached reports whether s is already available without a download.
func (l *Loader) Cached(s catalog.Soundscape) bool {
	return s.Silent() || l.cache.Contains(cache.Key(s.URL, l.rate))
}

// Prefetch loads every soundscape concurrently. Individual failures are
// reported through report and do not stop the others; only cancellation
// is returned.
func (l *Loader) Prefetch(ctx context.Context, scapes []catalog.Soundscape, report func(catalog.Soundscape, error)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, s := range scapes {
		if s.Silent() {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := l.Load(gctx, s)
			if report != nil {
				report(s, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch soundscape: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch soundscape: %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read soundscape: %w", err)
	}
	if len(data) > maxClipBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (l *Loader) observe(ctx context.Context, hit bool) {
	if l.lookup != nil {
		l.lookup(ctx, hit)
	}
}
