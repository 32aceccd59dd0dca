package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// endPollInterval is how often a playing source checks for natural end.
const endPollInterval = 50 * time.Millisecond

// DeviceConfig contains configuration for the audio device.
type DeviceConfig struct {
	SampleRate int // Must match the PCM handed to sources
	Channels   int // 1 = mono, 2 = stereo
	BitDepth   int // 16 bits per sample
	BufferSize int // Device buffer in bytes
}

// DefaultDeviceConfig returns the default device configuration: mono 16-bit
// at the provider rate.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		SampleRate: 24000,
		Channels:   1,
		BitDepth:   16,
		BufferSize: 4096,
	}
}

// Device owns the process-wide oto context. oto allows a single context per
// process, so every Source is created from one Device.
type Device struct {
	context *oto.Context
	config  DeviceConfig
}

// NewDevice opens the audio device.
func NewDevice(config DeviceConfig) (*Device, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(config.BufferSize) * time.Second / time.Duration(config.SampleRate*config.Channels*2),
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}

	// Wait for context to be ready
	<-readyChan

	log.Debug("audio: device ready", "sample_rate", config.SampleRate, "channels", config.Channels)
	return &Device{context: ctx, config: config}, nil
}

// Config returns the device configuration.
func (d *Device) Config() DeviceConfig {
	return d.config
}

// NewSource creates a source bound to nothing.
func (d *Device) NewSource(name string) *Player {
	p := &Player{
		name:   name,
		device: d,
	}
	p.state.Store(int32(StateStopped))
	p.volume.Store(1000000)
	return p
}

// validateConfig validates the device configuration.
func validateConfig(config DeviceConfig) error {
	if config.SampleRate < 8000 || config.SampleRate > 192000 {
		return fmt.Errorf("sample rate must be between 8000 and 192000 Hz, got %d", config.SampleRate)
	}

	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}

	if config.BitDepth != 16 {
		return fmt.Errorf("bit depth must be 16, got %d", config.BitDepth)
	}

	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}

	return nil
}

// Player is an oto-backed Source.
type Player struct {
	name   string
	device *Device

	// Current playback
	player *oto.Player

	// CRITICAL: Keep audio data alive during playback
	stream *loopReader

	// State management
	state  atomic.Int32  // PlayerState
	volume atomic.Uint64 // volume * 1e6
	loop   atomic.Bool

	onEnded func()
	watchCh chan struct{}

	// Synchronization
	mu sync.Mutex
}

var _ Source = (*Player)(nil)

// Bind loads pcm and leaves the source paused at zero.
func (p *Player) Bind(pcm []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if PlayerState(p.state.Load()) == StateClosed {
		return errors.New("source is closed")
	}

	p.releaseLocked()

	// Make a copy to ensure we own the data
	data := make([]byte, len(pcm))
	copy(data, pcm)

	p.stream = newLoopReader(data, &p.loop)
	p.player = p.device.context.NewPlayer(p.stream)
	if p.player == nil {
		p.stream = nil
		return errors.New("failed to create oto player")
	}
	p.player.SetVolume(p.getVolume())
	p.state.Store(int32(StatePaused))

	log.Debug("audio: bound", "source", p.name, "bytes", len(data))
	return nil
}

// Play starts playback from the current position.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch PlayerState(p.state.Load()) {
	case StateClosed:
		return errors.New("source is closed")
	case StatePlaying:
		return nil
	}
	if p.player == nil {
		return errors.New("nothing bound")
	}

	// A source that ran to the end starts over.
	if p.stream.atEnd() {
		if _, err := p.player.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind before play: %w", err)
		}
	}

	p.player.Play()
	p.state.Store(int32(StatePlaying))

	p.watchCh = make(chan struct{})
	go p.watchEnd(p.player, p.watchCh)
	return nil
}

// Pause halts playback.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if PlayerState(p.state.Load()) != StatePlaying {
		return nil
	}
	p.stopWatchLocked()
	p.player.Pause()
	p.state.Store(int32(StatePaused))
	return nil
}

// Rewind seeks back to zero.
func (p *Player) Rewind() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return nil
	}
	if _, err := p.player.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind %s: %w", p.name, err)
	}
	return nil
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}

	p.volume.Store(uint64(volume * 1000000))

	p.mu.Lock()
	if p.player != nil {
		p.player.SetVolume(volume)
	}
	p.mu.Unlock()

	return nil
}

// SetLoop toggles looping.
func (p *Player) SetLoop(loop bool) {
	p.loop.Store(loop)
}

// OnEnded registers the natural-end callback.
func (p *Player) OnEnded(fn func()) {
	p.mu.Lock()
	p.onEnded = fn
	p.mu.Unlock()
}

// State returns the current state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// Close releases the oto player and the audio data.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseLocked()
	p.state.Store(int32(StateClosed))
	return nil
}

func (p *Player) getVolume() float64 {
	return float64(p.volume.Load()) / 1000000.0
}

// releaseLocked drops the current oto player. Caller holds mu.
func (p *Player) releaseLocked() {
	p.stopWatchLocked()
	if p.player != nil {
		p.player.Pause()
		if err := p.player.Close(); err != nil {
			log.Warn("audio: close player", "source", p.name, "err", err)
		}
		p.player = nil
	}
	p.stream = nil
	p.state.Store(int32(StateStopped))
}

func (p *Player) stopWatchLocked() {
	if p.watchCh != nil {
		close(p.watchCh)
		p.watchCh = nil
	}
}

// watchEnd waits for oto to drain a non-looping stream. oto pauses a player
// on its own once the reader is exhausted.
func (p *Player) watchEnd(player *oto.Player, done <-chan struct{}) {
	ticker := time.NewTicker(endPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		if player.IsPlaying() {
			continue
		}

		p.mu.Lock()
		if p.player != player || PlayerState(p.state.Load()) != StatePlaying {
			p.mu.Unlock()
			return
		}
		if err := player.Err(); err != nil {
			log.Warn("audio: playback error", "source", p.name, "err", err)
		}
		p.state.Store(int32(StateStopped))
		p.watchCh = nil
		fn := p.onEnded
		p.mu.Unlock()

		log.Debug("audio: ended", "source", p.name)
		if fn != nil {
			fn()
		}
		return
	}
}

// loopReader serves a byte slice, wrapping to zero at the end when loop is
// set.
type loopReader struct {
	data []byte // Must stay alive during playback!
	r    *bytes.Reader
	loop *atomic.Bool
	mu   sync.Mutex
}

func newLoopReader(data []byte, loop *atomic.Bool) *loopReader {
	return &loopReader{data: data, r: bytes.NewReader(data), loop: loop}
}

// Read implements io.Reader.
func (l *loopReader) Read(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, err := l.r.Read(b)
	if err == io.EOF && l.loop.Load() && len(l.data) > 0 {
		if _, serr := l.r.Seek(0, io.SeekStart); serr != nil {
			return n, serr
		}
		if n == 0 {
			return l.r.Read(b)
		}
		return n, nil
	}
	return n, err
}

// Seek implements io.Seeker.
func (l *loopReader) Seek(offset int64, whence int) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Seek(offset, whence)
}

func (l *loopReader) atEnd() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Len() == 0
}
