// Package playback keeps the narration track and the looping ambience track
// in step with a single play intent.
package playback

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/nateq/internal/audio"
	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/resource"
	"github.com/dgnsrekt/nateq/internal/wav"
)

// State is the coordinator's logical state.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// Resolver opens resource handles.
type Resolver interface {
	Open(h resource.Handle) ([]byte, error)
}

// AmbienceLoader yields PCM for a soundscape.
type AmbienceLoader interface {
	Load(ctx context.Context, s catalog.Soundscape) ([]byte, error)
}

// Intent is what the session wants heard.
type Intent struct {
	Playing    bool
	Handle     resource.Handle
	Soundscape catalog.Soundscape
}

// Config wires a Coordinator. Ambience and Loader may be nil, in which
// case soundscapes are ignored.
type Config struct {
	Primary   audio.Source
	Ambience  audio.Source
	Resources Resolver
	Loader    AmbienceLoader

	// OnEnded fires after the narration finished on its own and both
	// tracks were stopped. It runs on the audio goroutine.
	OnEnded func()

	// OnStart fires each time the narration starts.
	OnStart func(ctx context.Context)
}

// Coordinator is the single writer of both sources.
type Coordinator struct {
	mu     sync.Mutex
	state  State
	cfg    Config
	bound  resource.Handle
	scape  string // soundscape id bound to the ambience source
	gen    uint64 // bumped on every stop or soundscape change
	loads  sync.WaitGroup
	closed bool
}

// New builds a stopped Coordinator and subscribes to the narration's end.
func New(cfg Config) *Coordinator {
	c := &Coordinator{cfg: cfg}
	cfg.Primary.OnEnded(c.primaryEnded)
	if cfg.Ambience != nil {
		cfg.Ambience.SetLoop(true)
	}
	return c
}

// State returns the logical state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Bound returns the handle currently loaded into the narration source.
func (c *Coordinator) Bound() resource.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bound
}

// SetPlaying applies an intent. Starting binds the narration only when the
// handle changed, so toggling after a stop replays from zero without
// reloading. Source failures are logged and the logical state is kept.
func (c *Coordinator) SetPlaying(ctx context.Context, in Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if !in.Playing {
		c.stopLocked()
		return
	}
	if in.Handle.IsZero() {
		log.Warn("play requested without audio")
		return
	}

	starting := c.state == Stopped
	c.state = Playing
	if in.Handle != c.bound {
		if err := c.bindPrimaryLocked(in.Handle); err != nil {
			log.Error("cannot load narration", "handle", in.Handle, "err", err)
			return
		}
	}
	if err := c.cfg.Primary.Play(); err != nil {
		log.Error("narration did not start", "err", err)
		return
	}
	if starting && c.cfg.OnStart != nil {
		c.cfg.OnStart(ctx)
	}
	c.startAmbienceLocked(ctx, in.Soundscape)
}

// Stop is SetPlaying with a false intent.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Unbind forgets the narration handle, typically before it is revoked.
func (c *Coordinator) Unbind(h resource.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bound == h {
		c.stopLocked()
		c.bound = ""
	}
}

// WaitAmbience blocks until in-flight ambience loads have settled.
func (c *Coordinator) WaitAmbience() {
	c.loads.Wait()
}

// Close stops playback and releases both sources.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	c.stopLocked()
	c.closed = true
	c.mu.Unlock()

	c.loads.Wait()
	err := c.cfg.Primary.Close()
	if c.cfg.Ambience != nil {
		if aerr := c.cfg.Ambience.Close(); err == nil {
			err = aerr
		}
	}
	return err
}

func (c *Coordinator) bindPrimaryLocked(h resource.Handle) error {
	blob, err := c.cfg.Resources.Open(h)
	if err != nil {
		return err
	}
	_, samples, err := wav.Parse(blob)
	if err != nil {
		return err
	}
	if err := c.cfg.Primary.Bind(samples); err != nil {
		return err
	}
	c.bound = h
	return nil
}

func (c *Coordinator) startAmbienceLocked(ctx context.Context, s catalog.Soundscape) {
	amb := c.cfg.Ambience
	if amb == nil || c.cfg.Loader == nil {
		return
	}
	if s.Silent() {
		c.silenceAmbienceLocked()
		return
	}
	if s.ID == c.scape {
		c.playAmbienceLocked(s)
		return
	}

	// New soundscape: drop the old loop and load the new one off the
	// caller's goroutine.
	c.silenceAmbienceLocked()
	c.gen++
	gen := c.gen
	c.loads.Add(1)
	go func() {
		defer c.loads.Done()
		pcm, err := c.cfg.Loader.Load(ctx, s)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			log.Warn("ambience unavailable", "soundscape", s.ID, "err", err)
			return
		}
		if gen != c.gen || c.state != Playing || c.closed {
			return
		}
		if err := amb.Bind(pcm); err != nil {
			log.Warn("ambience bind failed", "soundscape", s.ID, "err", err)
			return
		}
		c.scape = s.ID
		c.playAmbienceLocked(s)
	}()
}

func (c *Coordinator) playAmbienceLocked(s catalog.Soundscape) {
	amb := c.cfg.Ambience
	if err := amb.SetVolume(s.Volume); err != nil {
		log.Warn("ambience volume rejected", "volume", s.Volume, "err", err)
	}
	amb.SetLoop(true)
	if err := amb.Play(); err != nil {
		log.Warn("ambience did not start", "soundscape", s.ID, "err", err)
	}
}

func (c *Coordinator) silenceAmbienceLocked() {
	if c.cfg.Ambience == nil {
		return
	}
	_ = c.cfg.Ambience.Pause()
	_ = c.cfg.Ambience.Rewind()
}

func (c *Coordinator) stopLocked() {
	c.state = Stopped
	c.gen++
	if err := c.cfg.Primary.Pause(); err != nil {
		log.Debug("pause narration", "err", err)
	}
	_ = c.cfg.Primary.Rewind()
	c.silenceAmbienceLocked()
}

func (c *Coordinator) primaryEnded() {
	c.mu.Lock()
	if c.state != Playing {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	fn := c.cfg.OnEnded
	c.mu.Unlock()

	log.Debug("narration finished")
	if fn != nil {
		fn()
	}
}
