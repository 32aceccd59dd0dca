// Package session holds the studio's state and drives a generation from
// request snapshot to playable audio.
package session

import (
	"strings"

	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/resource"
	"github.com/dgnsrekt/nateq/internal/tts"
)

// Status is the single lifecycle flag of a session. Generating and playing
// are both derived from it, so they can never be true together.
type Status int

const (
	StatusIdle Status = iota
	StatusGenerating
	StatusReady
	StatusPlaying
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusGenerating:
		return "generating"
	case StatusReady:
		return "ready"
	case StatusPlaying:
		return "playing"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a value snapshot of the studio inputs and outputs.
type State struct {
	Text         string
	Language     tts.Language
	Dialect      string
	VoiceID      string
	Settings     tts.AudioSettings
	SoundscapeID string

	Status   Status
	AudioURL resource.Handle // empty when there is no audio
	Err      string
}

// DefaultState is a fresh Arabic session with the demo script.
func DefaultState() State {
	return State{
		Text:         catalog.DefaultText,
		Language:     tts.LanguageArabic,
		Dialect:      catalog.DefaultDialect(tts.LanguageArabic),
		VoiceID:      "v1",
		Settings:     tts.DefaultAudioSettings(),
		SoundscapeID: catalog.NoSoundscape,
		Status:       StatusIdle,
	}
}

// IsGenerating reports whether a synthesis is in flight.
func (s State) IsGenerating() bool { return s.Status == StatusGenerating }

// IsPlaying reports whether playback is intended.
func (s State) IsPlaying() bool { return s.Status == StatusPlaying }

// HasAudio reports whether a playable handle is installed.
func (s State) HasAudio() bool { return !s.AudioURL.IsZero() }

// CanGenerate reports whether a new generation may start.
func (s State) CanGenerate() bool {
	return !s.IsGenerating() && strings.TrimSpace(s.Text) != ""
}

// CanEdit reports whether the script may be edited.
func (s State) CanEdit() bool {
	return !s.IsGenerating() && !s.IsPlaying()
}

// Soundscape resolves the selected soundscape, falling back to silence.
func (s State) Soundscape() catalog.Soundscape {
	return catalog.SoundscapeOrSilence(s.SoundscapeID)
}

// Request snapshots the state into a generation request. The voice is
// copied by value so later selection changes cannot reach it.
func (s State) Request() (tts.GenerationRequest, error) {
	voice, ok := catalog.Voice(s.VoiceID)
	if !ok {
		return tts.GenerationRequest{}, tts.ErrVoiceNotFound
	}
	return tts.GenerationRequest{
		Text:     s.Text,
		Language: s.Language,
		Dialect:  s.Dialect,
		Voice:    voice,
		Settings: s.Settings,
	}, nil
}
