package audio

// PlayerState represents the current state of a source.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
	StateClosed
)

// String returns the state name.
func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Source is one independently controlled playback channel. Audio handed to
// Bind is headerless 16-bit little-endian mono PCM at the device rate.
type Source interface {
	// Bind replaces the loaded audio. The source ends up paused at zero.
	Bind(pcm []byte) error

	// Play starts or continues playback from the current position.
	Play() error

	// Pause halts playback, keeping the position.
	Pause() error

	// Rewind moves the position back to zero without changing play state.
	Rewind() error

	// SetVolume sets the gain (0.0 to 1.0).
	SetVolume(volume float64) error

	// SetLoop makes playback wrap to zero at the end instead of ending.
	SetLoop(loop bool)

	// OnEnded registers fn to run when non-looping playback reaches the end
	// on its own. fn runs on an internal goroutine.
	OnEnded(fn func())

	// State reports the current state.
	State() PlayerState

	// Close releases the source.
	Close() error
}
