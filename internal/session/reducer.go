package session

import (
	"github.com/dgnsrekt/nateq/internal/catalog"
	"github.com/dgnsrekt/nateq/internal/resource"
	"github.com/dgnsrekt/nateq/internal/tts"
)

// Action is a state transition request.
type Action interface {
	apply(State) State
}

// Reduce returns the state after a. It is pure.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

// SetText replaces the script and clears any error.
type SetText struct{ Text string }

func (a SetText) apply(s State) State {
	s.Text = a.Text
	s.Err = ""
	if s.Status == StatusFailed {
		s.Status = idleOrReady(s)
	}
	return s
}

// SetLanguage switches language and resets the dialect to the language's
// default.
type SetLanguage struct{ Language tts.Language }

func (a SetLanguage) apply(s State) State {
	s.Language = a.Language
	s.Dialect = catalog.DefaultDialect(a.Language)
	return s
}

// SetDialect selects a dialect of the current language.
type SetDialect struct{ Dialect string }

func (a SetDialect) apply(s State) State {
	s.Dialect = a.Dialect
	return s
}

// SetVoice selects a voice by id.
type SetVoice struct{ VoiceID string }

func (a SetVoice) apply(s State) State {
	s.VoiceID = a.VoiceID
	return s
}

// SetSoundscape selects the ambience.
type SetSoundscape struct{ SoundscapeID string }

func (a SetSoundscape) apply(s State) State {
	s.SoundscapeID = a.SoundscapeID
	return s
}

// UpdateSettings merges a partial settings update.
type UpdateSettings struct{ Patch tts.SettingsPatch }

func (a UpdateSettings) apply(s State) State {
	s.Settings = s.Settings.Merge(a.Patch)
	return s
}

// StartGeneration enters Generating, dropping the error, the handle and
// any play intent.
type StartGeneration struct{}

func (StartGeneration) apply(s State) State {
	s.Status = StatusGenerating
	s.Err = ""
	s.AudioURL = ""
	return s
}

// GenerationSucceeded installs a fresh handle. It never starts playback.
type GenerationSucceeded struct{ URL resource.Handle }

func (a GenerationSucceeded) apply(s State) State {
	s.AudioURL = a.URL
	s.Err = ""
	s.Status = idleOrReady(s)
	return s
}

// GenerationFailed records a user-facing message. The handle is left as is.
type GenerationFailed struct{ Message string }

func (a GenerationFailed) apply(s State) State {
	s.Err = a.Message
	s.Status = StatusFailed
	return s
}

// SetPlaying records the play intent. Playing needs a handle and is
// refused while generating.
type SetPlaying struct{ Playing bool }

func (a SetPlaying) apply(s State) State {
	switch {
	case a.Playing && s.HasAudio() && !s.IsGenerating():
		s.Status = StatusPlaying
	case !a.Playing && s.IsPlaying():
		s.Status = idleOrReady(s)
	}
	return s
}

func idleOrReady(s State) Status {
	if s.HasAudio() {
		return StatusReady
	}
	return StatusIdle
}
