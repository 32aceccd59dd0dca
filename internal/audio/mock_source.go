package audio

import (
	"errors"
	"sync"
	"sync/atomic"
)

// MockSource implements Source for testing purposes. It simulates playback
// without producing sound; tests drive the natural end with Finish.
type MockSource struct {
	// State management
	state    atomic.Int32 // PlayerState
	position atomic.Int64 // bytes

	// Audio data
	data   []byte
	volume float64
	loop   bool

	onEnded func()

	// Test callbacks
	callbacks MockCallbacks

	// Test configuration
	PlayErr error // returned by every Play call when set

	// Synchronization
	mu sync.Mutex

	// Metrics for testing
	bindCount   atomic.Int64
	playCount   atomic.Int64
	pauseCount  atomic.Int64
	rewindCount atomic.Int64
}

// MockCallbacks provides hooks for testing.
type MockCallbacks struct {
	OnBind  func(pcm []byte)
	OnPlay  func()
	OnPause func()
	OnClose func()
}

var _ Source = (*MockSource)(nil)

// NewMockSource creates a stopped mock source.
func NewMockSource() *MockSource {
	m := &MockSource{volume: 1.0}
	m.state.Store(int32(StateStopped))
	return m
}

// NewMockSourceWithCallbacks creates a mock source with custom callbacks.
func NewMockSourceWithCallbacks(callbacks MockCallbacks) *MockSource {
	m := NewMockSource()
	m.callbacks = callbacks
	return m
}

// Bind stores pcm and parks at zero.
func (m *MockSource) Bind(pcm []byte) error {
	m.mu.Lock()
	if PlayerState(m.state.Load()) == StateClosed {
		m.mu.Unlock()
		return errors.New("source is closed")
	}
	m.data = append([]byte(nil), pcm...)
	m.position.Store(0)
	m.state.Store(int32(StatePaused))
	cb := m.callbacks.OnBind
	m.mu.Unlock()

	m.bindCount.Add(1)
	if cb != nil {
		cb(pcm)
	}
	return nil
}

// Play simulates starting playback.
func (m *MockSource) Play() error {
	m.mu.Lock()
	if PlayerState(m.state.Load()) == StateClosed {
		m.mu.Unlock()
		return errors.New("source is closed")
	}
	if m.PlayErr != nil {
		m.mu.Unlock()
		return m.PlayErr
	}
	if m.data == nil {
		m.mu.Unlock()
		return errors.New("nothing bound")
	}
	if m.position.Load() >= int64(len(m.data)) {
		m.position.Store(0)
	}
	m.state.Store(int32(StatePlaying))
	cb := m.callbacks.OnPlay
	m.mu.Unlock()

	m.playCount.Add(1)
	if cb != nil {
		cb()
	}
	return nil
}

// Pause simulates pausing.
func (m *MockSource) Pause() error {
	m.mu.Lock()
	if PlayerState(m.state.Load()) == StatePlaying {
		m.state.Store(int32(StatePaused))
	}
	cb := m.callbacks.OnPause
	m.mu.Unlock()

	m.pauseCount.Add(1)
	if cb != nil {
		cb()
	}
	return nil
}

// Rewind resets the simulated position.
func (m *MockSource) Rewind() error {
	m.position.Store(0)
	m.rewindCount.Add(1)
	return nil
}

// Advance moves the simulated position forward by n bytes.
func (m *MockSource) Advance(n int) {
	m.position.Add(int64(n))
}

// Finish simulates the stream running out. Looping sources wrap to zero and
// keep playing; others stop and fire the OnEnded callback.
func (m *MockSource) Finish() {
	m.mu.Lock()
	if PlayerState(m.state.Load()) != StatePlaying {
		m.mu.Unlock()
		return
	}
	if m.loop {
		m.position.Store(0)
		m.mu.Unlock()
		return
	}
	m.position.Store(int64(len(m.data)))
	m.state.Store(int32(StateStopped))
	fn := m.onEnded
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// SetVolume records the volume.
func (m *MockSource) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return errors.New("volume out of range")
	}
	m.mu.Lock()
	m.volume = volume
	m.mu.Unlock()
	return nil
}

// SetLoop records the loop flag.
func (m *MockSource) SetLoop(loop bool) {
	m.mu.Lock()
	m.loop = loop
	m.mu.Unlock()
}

// OnEnded registers the natural-end callback.
func (m *MockSource) OnEnded(fn func()) {
	m.mu.Lock()
	m.onEnded = fn
	m.mu.Unlock()
}

// State returns the simulated state.
func (m *MockSource) State() PlayerState {
	return PlayerState(m.state.Load())
}

// Close marks the source closed.
func (m *MockSource) Close() error {
	m.mu.Lock()
	m.state.Store(int32(StateClosed))
	m.data = nil
	cb := m.callbacks.OnClose
	m.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

// Test inspection helpers.

// Data returns the bound audio.
func (m *MockSource) Data() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data
}

// Volume returns the last volume set.
func (m *MockSource) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Looping reports the loop flag.
func (m *MockSource) Looping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop
}

// Position returns the simulated position in bytes.
func (m *MockSource) Position() int64 {
	return m.position.Load()
}

// IsPlaying reports whether the source is playing.
func (m *MockSource) IsPlaying() bool {
	return m.State() == StatePlaying
}

// BindCount returns how many times Bind was called.
func (m *MockSource) BindCount() int64 { return m.bindCount.Load() }

// PlayCount returns how many times Play succeeded.
func (m *MockSource) PlayCount() int64 { return m.playCount.Load() }

// PauseCount returns how many times Pause was called.
func (m *MockSource) PauseCount() int64 { return m.pauseCount.Load() }

// RewindCount returns how many times Rewind was called.
func (m *MockSource) RewindCount() int64 { return m.rewindCount.Load() }
